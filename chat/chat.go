package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dev-tahir/xcoder-cli/chat/contracts"
	"github.com/dev-tahir/xcoder-cli/chat/models"
	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/embed_data"
	"github.com/dev-tahir/xcoder-cli/providers"
	provider_contracts "github.com/dev-tahir/xcoder-cli/providers/contracts"
	taskflow_contracts "github.com/dev-tahir/xcoder-cli/taskflow/contracts"
	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
	"github.com/dev-tahir/xcoder-cli/utils"
)

const maxConversationIterations = 10

const detailContentLimit = 1000

// ChatManager drives the assistant conversation loop: it builds prompts from
// the loaded project file, classifies replies and shepherds proposed file
// changes through user review.
type ChatManager struct {
	provider    provider_contracts.IChatAIProvider
	taskFlow    taskflow_contracts.ITaskFlowManager
	projectRoot string
	projectFile string
	theme       string
	sessionID   string
	git         *utils.GitOperations
}

// NewChatManager initializes a new ChatManager for one interactive session.
// Assistant replies are rendered as markdown using the given chroma theme.
func NewChatManager(provider provider_contracts.IChatAIProvider, taskFlow taskflow_contracts.ITaskFlowManager, projectRoot, projectFile, theme string) contracts.IChatManager {
	return &ChatManager{
		provider:    provider,
		taskFlow:    taskFlow,
		projectRoot: projectRoot,
		projectFile: projectFile,
		theme:       theme,
		sessionID:   uuid.NewString(),
		git:         utils.NewGitOperations(projectRoot),
	}
}

// SessionID identifies this chat session.
func (c *ChatManager) SessionID() string {
	return c.sessionID
}

// ProcessRequest runs the conversation loop for a single user request. The
// loop ends when the assistant proposes changes, declares completion, or the
// iteration cap is hit.
func (c *ChatManager) ProcessRequest(ctx context.Context, info *taskflow_models.ProjectInfo, userRequest string, reader *bufio.Reader) error {
	convCtx := models.NewConversationContext(userRequest)

	for iteration := 0; iteration < maxConversationIterations; iteration++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		prompt := c.buildPrompt(info, convCtx)

		reply, err := providers.CollectResponse(c.provider.ChatCompletionRequest(ctx, "", prompt))
		if err != nil {
			return fmt.Errorf("assistant request failed: %w", err)
		}

		parsed := ParseResponse(reply)
		convCtx.History = append(convCtx.History, models.Message{Role: "assistant", Content: reply})

		switch parsed.Action {
		case models.ActionRequestFunctionDetails:
			c.loadFunctionDetails(info, parsed.FunctionIDs, convCtx)

		case models.ActionProposeChanges:
			return c.reviewAndApply(ctx, info, parsed.Proposed, convCtx, reader)

		case models.ActionComplete:
			c.renderReply(ctx, parsed.Message)
			return nil

		case models.ActionClarificationNeeded:
			c.renderReply(ctx, parsed.Message)
			answer, err := utils.InputPromptWithContext(ctx, reader)
			if err != nil {
				return err
			}
			convCtx.History = append(convCtx.History, models.Message{Role: "user", Content: answer})
		}
	}

	fmt.Println(lipgloss.Yellow.Render("Conversation reached its iteration limit without a resolution."))
	return nil
}

// renderReply prints an assistant message with markdown highlighting, falling
// back to plain text when rendering fails.
func (c *ChatManager) renderReply(ctx context.Context, content string) {
	language := utils.DetectLanguageFromCodeBlock(content)
	if err := utils.RenderAndPrintMarkdownWithContext(ctx, content, language, c.theme); err != nil {
		fmt.Println(content)
	}
}

// ParseResponse classifies an assistant reply by its action prefix. Replies
// without a recognizable prefix are treated as a clarification question.
func ParseResponse(reply string) models.ParsedResponse {
	reply = strings.TrimSpace(reply)

	switch {
	case strings.HasPrefix(reply, "REQUEST_FUNCTION_DETAILS:"):
		raw := strings.TrimPrefix(reply, "REQUEST_FUNCTION_DETAILS:")
		if ids := parseFunctionIDs(raw); len(ids) > 0 {
			return models.ParsedResponse{Action: models.ActionRequestFunctionDetails, FunctionIDs: ids}
		}

	case strings.HasPrefix(reply, "PROPOSE_CHANGES:"):
		raw := strings.TrimPrefix(reply, "PROPOSE_CHANGES:")
		if match, ok := utils.ExtractJSONObject(raw); ok {
			var proposed models.ProposedChanges
			if err := json.Unmarshal([]byte(match), &proposed); err == nil && len(proposed.Changes) > 0 {
				return models.ParsedResponse{Action: models.ActionProposeChanges, Proposed: &proposed}
			}
		}

	case strings.HasPrefix(reply, "CLARIFICATION_NEEDED:"):
		return models.ParsedResponse{
			Action:  models.ActionClarificationNeeded,
			Message: strings.TrimSpace(strings.TrimPrefix(reply, "CLARIFICATION_NEEDED:")),
		}

	case strings.HasPrefix(reply, "COMPLETE:"):
		return models.ParsedResponse{
			Action:  models.ActionComplete,
			Message: strings.TrimSpace(strings.TrimPrefix(reply, "COMPLETE:")),
		}
	}

	return models.ParsedResponse{Action: models.ActionClarificationNeeded, Message: reply}
}

func parseFunctionIDs(raw string) []string {
	raw = strings.NewReplacer("[", "", "]", "").Replace(raw)

	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.Trim(strings.TrimSpace(part), `'"`)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *ChatManager) buildPrompt(info *taskflow_models.ProjectInfo, convCtx *models.ConversationContext) string {
	var project strings.Builder
	project.WriteString(fmt.Sprintf("PROJECT: %s\nDESCRIPTION: %s\nTECHNOLOGY: %s\n\nAVAILABLE FUNCTIONS:\n",
		info.Name, info.Description, info.Technology))

	for _, id := range sortedFunctionIDs(info) {
		fn := info.Functions[id]
		files := make([]string, 0, len(fn.FilesInvolved))
		for _, index := range fn.FilesInvolved {
			files = append(files, fmt.Sprintf("File %d", index))
		}
		project.WriteString(fmt.Sprintf("%s. %s (Files: %s)\n", id, fn.Name, strings.Join(files, ", ")))
	}

	project.WriteString("\nAVAILABLE FILES:\n")
	for _, index := range sortedFileIndices(info) {
		project.WriteString(fmt.Sprintf("%d. %s\n", index, info.Files[index].Path))
	}

	var history strings.Builder
	for _, msg := range convCtx.History {
		history.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	var details strings.Builder
	if len(convCtx.FunctionDetails) > 0 {
		details.WriteString("FUNCTION DETAILS:\n")
		ids := make([]string, 0, len(convCtx.FunctionDetails))
		for id := range convCtx.FunctionDetails {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			details.WriteString(fmt.Sprintf("\n%s:\n%s\n", id, convCtx.FunctionDetails[id]))
		}
	}

	return fmt.Sprintf(string(embed_data.ChatSystemPrompt),
		project.String(), history.String(), convCtx.UserRequest, details.String())
}

func (c *ChatManager) loadFunctionDetails(info *taskflow_models.ProjectInfo, ids []string, convCtx *models.ConversationContext) {
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Loading details for functions: %s", strings.Join(ids, ", "))))

	for _, id := range ids {
		fn, ok := info.Functions[id]
		if !ok {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Function %s not found", id)))
			continue
		}
		convCtx.FunctionDetails[id] = c.formatFunctionDetails(info, fn)
		convCtx.RequestedFunctions = append(convCtx.RequestedFunctions, id)
	}
}

func (c *ChatManager) formatFunctionDetails(info *taskflow_models.ProjectInfo, fn *taskflow_models.Function) string {
	var filesInfo []string
	var involved []string

	for _, index := range fn.FilesInvolved {
		involved = append(involved, fmt.Sprintf("File %d", index))

		file, ok := info.Files[index]
		if !ok {
			continue
		}
		content, err := os.ReadFile(c.resolvePath(file.Path))
		if err != nil {
			filesInfo = append(filesInfo, fmt.Sprintf("File %d (%s): [Could not read file]", index, file.Path))
			continue
		}
		text := string(content)
		if len(text) > 2*detailContentLimit {
			text = text[:detailContentLimit] + "\n... (truncated) ...\n" + text[len(text)-detailContentLimit:]
		}
		filesInfo = append(filesInfo, fmt.Sprintf("File %d (%s):\n%s", index, file.Path, text))
	}

	return fmt.Sprintf("FUNCTION: %s\nDESCRIPTION: %s\nFILES INVOLVED: %s\n\nIMPLEMENTATION:\n%s\n\nFILE CONTENTS:\n%s",
		fn.Name, fn.Description, strings.Join(involved, ", "), fn.Implementation, strings.Join(filesInfo, "\n"))
}

func (c *ChatManager) reviewAndApply(ctx context.Context, info *taskflow_models.ProjectInfo, proposed *models.ProposedChanges, convCtx *models.ConversationContext, reader *bufio.Reader) error {
	c.fillOriginalContents(proposed.Changes)

	fmt.Println(lipgloss.BoxStyle.Render("PROPOSED CHANGES"))
	if proposed.Explanation != "" {
		fmt.Println(lipgloss.Info.Render(proposed.Explanation))
	}

	for i, change := range proposed.Changes {
		fmt.Printf("\n%d. %s: %s\n", i+1, strings.ToUpper(string(change.Type)), change.FilePath)
		if change.Description != "" {
			fmt.Printf("   %s\n", change.Description)
		}
		switch change.Type {
		case models.ChangeDelete:
			fmt.Println(lipgloss.Red.Render("   File will be deleted"))
		case models.ChangeCreate:
			fmt.Println(lipgloss.Green.Render("   New file will be created"))
			fmt.Printf("   Content preview: %s\n", preview(change.Content, 200))
		case models.ChangeEdit:
			fmt.Println(lipgloss.Yellow.Render("   File will be modified"))
			fmt.Printf("   New content preview: %s\n", preview(change.Content, 200))
		}
	}
	fmt.Println()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Print(lipgloss.BlueSky.Render("Accept changes? (y)es/(n)o/(d)etails: "))
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			applied := c.applyChanges(info, proposed.Changes)
			if len(applied) > 0 {
				c.offerCommit(ctx, reader, applied, convCtx.UserRequest)
			}
			return nil
		case "n", "no":
			fmt.Println(lipgloss.Red.Render("Changes rejected."))
			return nil
		case "d", "details":
			c.showChangeDetails(ctx, proposed.Changes, reader)
		}
	}
}

func (c *ChatManager) fillOriginalContents(changes []models.FileChange) {
	for i := range changes {
		content, err := os.ReadFile(c.resolvePath(changes[i].FilePath))
		if err == nil {
			changes[i].OriginalContent = string(content)
		}
	}
}

func (c *ChatManager) showChangeDetails(ctx context.Context, changes []models.FileChange, reader *bufio.Reader) {
	for i, change := range changes {
		fmt.Printf("\n==================== CHANGE %d ====================\n", i+1)
		fmt.Printf("Type: %s\nFile: %s\nDescription: %s\n", strings.ToUpper(string(change.Type)), change.FilePath, change.Description)

		switch change.Type {
		case models.ChangeDelete:
			fmt.Println("\n--- FILE TO BE DELETED ---")
			fmt.Println(preview(change.OriginalContent, 500))
		case models.ChangeCreate:
			fmt.Println("\n--- NEW FILE CONTENT ---")
			c.renderContent(ctx, change.FilePath, change.Content)
		case models.ChangeEdit:
			fmt.Println("\n--- ORIGINAL CONTENT ---")
			fmt.Println(preview(change.OriginalContent, 500))
			fmt.Println("\n--- NEW CONTENT ---")
			c.renderContent(ctx, change.FilePath, change.Content)
		}

		fmt.Print("\nPress Enter to continue...")
		reader.ReadString('\n')
	}
}

// applyChanges executes accepted changes and returns the paths it touched.
// A change to the project file itself triggers a reload of the in-memory
// project data.
func (c *ChatManager) applyChanges(info *taskflow_models.ProjectInfo, changes []models.FileChange) []string {
	var applied []string
	projectFileTouched := false

	for _, change := range changes {
		path := c.resolvePath(change.FilePath)

		var err error
		switch change.Type {
		case models.ChangeDelete:
			err = os.Remove(path)
			if os.IsNotExist(err) {
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("File not found: %s", change.FilePath)))
				continue
			}
		case models.ChangeCreate:
			if err = os.MkdirAll(filepath.Dir(path), 0755); err == nil {
				err = os.WriteFile(path, []byte(change.Content), 0644)
			}
		case models.ChangeEdit:
			err = os.WriteFile(path, []byte(change.Content), 0644)
		default:
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown change type %q for %s", change.Type, change.FilePath)))
			continue
		}

		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error applying change to %s: %v", change.FilePath, err)))
			continue
		}

		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Applied %s: %s", change.Type, change.FilePath)))
		applied = append(applied, change.FilePath)

		if filepath.Clean(path) == filepath.Clean(c.projectFile) {
			projectFileTouched = true
		}
	}

	if projectFileTouched {
		fmt.Println(lipgloss.Info.Render("Refreshing project data..."))
		if reloaded, err := c.taskFlow.Load(); err == nil {
			*info = *reloaded
		} else {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Could not reload project file: %v", err)))
		}
	}

	return applied
}

func (c *ChatManager) offerCommit(ctx context.Context, reader *bufio.Reader, applied []string, userRequest string) {
	if c.git.CheckGitRepo() != nil {
		return
	}

	ok, err := utils.ConfirmPrompt("Commit applied changes?", reader)
	if err != nil || !ok {
		return
	}

	if err := c.git.AddFiles(applied...); err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("%v", err)))
		return
	}

	staged, err := c.git.HasStagedChanges()
	if err != nil || !staged {
		return
	}

	message := c.generateCommitMessage(ctx, userRequest)
	if err := c.git.Commit(message); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("Changes committed."))
}

func (c *ChatManager) generateCommitMessage(ctx context.Context, userRequest string) string {
	diff, _ := c.git.GetStagedDiff()
	branch, _ := c.git.GetBranchName()
	recent, _ := c.git.GetRecentCommits(3)

	generator := utils.NewCommitMessageGenerator(c.provider)
	message, err := generator.GenerateCommitMessage(ctx, utils.CommitMessageRequest{
		StagedDiff:    diff,
		Branch:        branch,
		RecentCommits: recent,
		UserRequest:   userRequest,
	})
	if err != nil {
		return fmt.Sprintf("Apply assistant changes: %s", preview(userRequest, 60))
	}
	return message
}

// renderContent prints proposed file content highlighted by the language its
// path implies.
func (c *ChatManager) renderContent(ctx context.Context, filePath, content string) {
	language := utils.GetSupportedLanguage(filePath)
	if language == "" {
		language = "markdown"
	}
	if err := utils.RenderAndPrintMarkdownWithContext(ctx, content, language, c.theme); err != nil {
		fmt.Println(content)
	}
}

func (c *ChatManager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectRoot, path)
}

func preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func sortedFileIndices(info *taskflow_models.ProjectInfo) []int {
	indices := make([]int, 0, len(info.Files))
	for index := range info.Files {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

func sortedFunctionIDs(info *taskflow_models.ProjectInfo) []string {
	ids := make([]string, 0, len(info.Functions))
	for id := range info.Functions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return functionIDNumber(ids[i]) < functionIDNumber(ids[j])
	})
	return ids
}

func functionIDNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(id, "F"))
	if err != nil {
		return 0
	}
	return n
}
