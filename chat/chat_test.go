package chat

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tahir/xcoder-cli/chat/models"
	provider_models "github.com/dev-tahir/xcoder-cli/providers/models"
	"github.com/dev-tahir/xcoder-cli/taskflow"
	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
)

type scriptedProvider struct {
	replies []string
	calls   int
}

func (s *scriptedProvider) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan provider_models.StreamResponse {
	s.calls++
	ch := make(chan provider_models.StreamResponse, 2)
	var reply string
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	ch <- provider_models.StreamResponse{Content: reply}
	ch <- provider_models.StreamResponse{Done: true}
	close(ch)
	return ch
}

func newTestManager(t *testing.T, provider *scriptedProvider, projectRoot string) *ChatManager {
	t.Helper()
	projectFile := filepath.Join(projectRoot, "project-file.txt")
	manager, ok := NewChatManager(provider, taskflow.NewTaskFlowManager(projectFile), projectRoot, projectFile, "dracula").(*ChatManager)
	require.True(t, ok)
	return manager
}

func sampleProject() *taskflow_models.ProjectInfo {
	info := taskflow_models.NewProjectInfo()
	info.Name = "DEMO"
	info.Description = "Demo project"
	info.Technology = "Python"
	info.Files[1] = &taskflow_models.ProjectFile{Index: 1, Path: "src/app.py"}
	info.Files[2] = &taskflow_models.ProjectFile{Index: 2, Path: "src/store.py"}
	info.Functions["1F"] = &taskflow_models.Function{
		ID: "1F", Name: "DATA PROCESSING", Description: "Processes data",
		FilesInvolved: []int{1, 2}, Implementation: "File 1: parses\nFile 2: stores",
	}
	info.Functions["10F"] = &taskflow_models.Function{
		ID: "10F", Name: "REPORTING", Description: "Builds reports", FilesInvolved: []int{2},
	}
	return info
}

func TestParseResponse_RequestFunctionDetails(t *testing.T) {
	parsed := ParseResponse(`REQUEST_FUNCTION_DETAILS: ["1F", '2F', 3F]`)

	assert.Equal(t, models.ActionRequestFunctionDetails, parsed.Action)
	assert.Equal(t, []string{"1F", "2F", "3F"}, parsed.FunctionIDs)
}

func TestParseResponse_ProposeChanges(t *testing.T) {
	reply := `PROPOSE_CHANGES: {
		"changes": [
			{"type": "create", "file_path": "src/new.py", "content": "print('hi')", "description": "new module"}
		],
		"explanation": "adds a module"
	}`

	parsed := ParseResponse(reply)
	require.Equal(t, models.ActionProposeChanges, parsed.Action)
	require.NotNil(t, parsed.Proposed)
	require.Len(t, parsed.Proposed.Changes, 1)
	assert.Equal(t, models.ChangeCreate, parsed.Proposed.Changes[0].Type)
	assert.Equal(t, "src/new.py", parsed.Proposed.Changes[0].FilePath)
	assert.Equal(t, "adds a module", parsed.Proposed.Explanation)
}

func TestParseResponse_ProposeChangesInCodeFence(t *testing.T) {
	reply := "PROPOSE_CHANGES:\n```json\n{\"changes\": [{\"type\": \"delete\", \"file_path\": \"old.py\"}], \"explanation\": \"cleanup\"}\n```"

	parsed := ParseResponse(reply)
	require.Equal(t, models.ActionProposeChanges, parsed.Action)
	assert.Equal(t, models.ChangeDelete, parsed.Proposed.Changes[0].Type)
}

func TestParseResponse_ClarificationAndComplete(t *testing.T) {
	clarification := ParseResponse("CLARIFICATION_NEEDED: Which login flow do you mean?")
	assert.Equal(t, models.ActionClarificationNeeded, clarification.Action)
	assert.Equal(t, "Which login flow do you mean?", clarification.Message)

	complete := ParseResponse("COMPLETE: Added error handling to login.")
	assert.Equal(t, models.ActionComplete, complete.Action)
	assert.Equal(t, "Added error handling to login.", complete.Message)
}

func TestParseResponse_UnrecognizedTreatedAsClarification(t *testing.T) {
	parsed := ParseResponse("I think we should discuss the approach first.")
	assert.Equal(t, models.ActionClarificationNeeded, parsed.Action)
	assert.Equal(t, "I think we should discuss the approach first.", parsed.Message)
}

func TestParseResponse_MalformedProposalFallsBack(t *testing.T) {
	parsed := ParseResponse("PROPOSE_CHANGES: this is not json")
	assert.Equal(t, models.ActionClarificationNeeded, parsed.Action)
}

func TestBuildPrompt_ListsProjectState(t *testing.T) {
	manager := newTestManager(t, &scriptedProvider{}, t.TempDir())
	convCtx := models.NewConversationContext("add logging")
	convCtx.FunctionDetails["1F"] = "FUNCTION: DATA PROCESSING"
	convCtx.History = append(convCtx.History, models.Message{Role: "assistant", Content: "CLARIFICATION_NEEDED: where?"})

	prompt := manager.buildPrompt(sampleProject(), convCtx)

	assert.Contains(t, prompt, "PROJECT: DEMO")
	assert.Contains(t, prompt, "TECHNOLOGY: Python")
	assert.Contains(t, prompt, "1F. DATA PROCESSING (Files: File 1, File 2)")
	assert.Contains(t, prompt, "CURRENT USER REQUEST: add logging")
	assert.Contains(t, prompt, "FUNCTION DETAILS:")
	assert.Contains(t, prompt, "assistant: CLARIFICATION_NEEDED: where?")

	// Numeric ordering keeps 10F after 1F.
	assert.Less(t, strings.Index(prompt, "1F. DATA PROCESSING"), strings.Index(prompt, "10F. REPORTING"))
}

func TestApplyChanges_CreateEditDelete(t *testing.T) {
	dir := t.TempDir()
	manager := newTestManager(t, &scriptedProvider{}, dir)
	info := sampleProject()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "store.py"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "app.py"), []byte("app"), 0644))

	applied := manager.applyChanges(info, []models.FileChange{
		{Type: models.ChangeCreate, FilePath: "src/util/helpers.py", Content: "def helper():\n    pass\n"},
		{Type: models.ChangeEdit, FilePath: "src/store.py", Content: "new"},
		{Type: models.ChangeDelete, FilePath: "src/app.py"},
		{Type: models.ChangeDelete, FilePath: "src/missing.py"},
	})

	assert.Equal(t, []string{"src/util/helpers.py", "src/store.py", "src/app.py"}, applied)

	created, err := os.ReadFile(filepath.Join(dir, "src", "util", "helpers.py"))
	require.NoError(t, err)
	assert.Equal(t, "def helper():\n    pass\n", string(created))

	edited, err := os.ReadFile(filepath.Join(dir, "src", "store.py"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(edited))

	_, err = os.Stat(filepath.Join(dir, "src", "app.py"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplyChanges_ProjectFileEditTriggersReload(t *testing.T) {
	dir := t.TempDir()
	manager := newTestManager(t, &scriptedProvider{}, dir)
	info := sampleProject()

	updated := "Project: RENAMED\nDescription: Reloaded\ntechnology: Go\n\nPROJECT FILES INDEX:\n1. main.go\n\nAll functions:\n"
	manager.applyChanges(info, []models.FileChange{
		{Type: models.ChangeCreate, FilePath: "project-file.txt", Content: updated},
	})

	assert.Equal(t, "RENAMED", info.Name)
	assert.Equal(t, "Go", info.Technology)
	require.Len(t, info.Files, 1)
	assert.Equal(t, "main.go", info.Files[1].Path)
}

func TestApplyChanges_SimilarlyNamedFileDoesNotReload(t *testing.T) {
	dir := t.TempDir()
	manager := newTestManager(t, &scriptedProvider{}, dir)
	info := sampleProject()

	// Same base name as the project file, different directory.
	decoy := "Project: DECOY\nDescription: Not the real one\ntechnology: Rust\n\nPROJECT FILES INDEX:\n\nAll functions:\n"
	manager.applyChanges(info, []models.FileChange{
		{Type: models.ChangeCreate, FilePath: "docs/project-file.txt", Content: decoy},
	})

	assert.Equal(t, "DEMO", info.Name)
	assert.Equal(t, "Python", info.Technology)
	require.Len(t, info.Files, 2)
}

func TestProcessRequest_CompleteEndsLoop(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"COMPLETE: Nothing to change.\n```go\nfunc main() {}\n```"}}
	manager := newTestManager(t, provider, t.TempDir())

	reader := bufio.NewReader(strings.NewReader(""))
	err := manager.ProcessRequest(context.Background(), sampleProject(), "do nothing", reader)

	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestRenderReply_UsesConfiguredTheme(t *testing.T) {
	manager := newTestManager(t, &scriptedProvider{}, t.TempDir())
	require.Equal(t, "dracula", manager.theme)

	// Fenced and plain replies both render without falling over.
	manager.renderReply(context.Background(), "Here:\n```python\nprint('hi')\n```")
	manager.renderReply(context.Background(), "plain prose answer")
}

func TestProcessRequest_DetailsThenComplete(t *testing.T) {
	dir := t.TempDir()
	provider := &scriptedProvider{replies: []string{
		"REQUEST_FUNCTION_DETAILS: [1F]",
		"COMPLETE: Reviewed the function.",
	}}
	manager := newTestManager(t, provider, dir)

	reader := bufio.NewReader(strings.NewReader(""))
	err := manager.ProcessRequest(context.Background(), sampleProject(), "inspect data processing", reader)

	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestProcessRequest_ClarificationReadsAnswer(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		"CLARIFICATION_NEEDED: Which file?",
		"COMPLETE: Done.",
	}}
	manager := newTestManager(t, provider, t.TempDir())

	reader := bufio.NewReader(strings.NewReader("the main one\n"))
	err := manager.ProcessRequest(context.Background(), sampleProject(), "update it", reader)

	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestSessionID_Stable(t *testing.T) {
	manager := newTestManager(t, &scriptedProvider{}, t.TempDir())
	assert.NotEmpty(t, manager.SessionID())
	assert.Equal(t, manager.SessionID(), manager.SessionID())
}
