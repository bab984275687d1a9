package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provider_models "github.com/dev-tahir/xcoder-cli/providers/models"
	scanner_models "github.com/dev-tahir/xcoder-cli/scanner/models"
)

type scriptedProvider struct {
	replies []string
	errAt   int
	calls   int
}

func (s *scriptedProvider) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan provider_models.StreamResponse {
	s.calls++
	ch := make(chan provider_models.StreamResponse, 2)
	if s.errAt == s.calls {
		ch <- provider_models.StreamResponse{Err: errors.New("provider down")}
	} else {
		var reply string
		if len(s.replies) > 0 {
			reply = s.replies[0]
			s.replies = s.replies[1:]
		}
		ch <- provider_models.StreamResponse{Content: reply}
		ch <- provider_models.StreamResponse{Done: true}
	}
	close(ch)
	return ch
}

func newTestAnalyzer(t *testing.T, provider *scriptedProvider) *FunctionAnalyzer {
	t.Helper()
	analyzer, ok := NewFunctionAnalyzer(provider, filepath.Join(t.TempDir(), DefaultCacheDirName), false).(*FunctionAnalyzer)
	require.True(t, ok)
	return analyzer
}

func scannedFile(t *testing.T, dir string, index int, name, content string) scanner_models.ScannedFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return scanner_models.ScannedFile{
		Index:        index,
		Path:         path,
		RelativePath: name,
		Extension:    filepath.Ext(name),
	}
}

func TestSanitizeFlow(t *testing.T) {
	assert.Equal(t, "3 -> 5 -> 7", sanitizeFlow("The flow is:\n3 -> 5 -> 7."))
	assert.Equal(t, "1 -> 2", sanitizeFlow("1 -> 2"))
	assert.Equal(t, "", sanitizeFlow("no flow could be determined"))
}

func TestFallbackFlow(t *testing.T) {
	assert.Equal(t, "1 -> 3 -> 8", fallbackFlow([]int{8, 1, 3}))
	assert.Equal(t, "", fallbackFlow(nil))
}

func TestFormatImplementation(t *testing.T) {
	impl := map[string]string{
		"file_10": "renders results",
		"file_2":  "handles input",
		"File 4":  "stores data",
	}

	assert.Equal(t,
		"File 2: handles input\nFile 4: stores data\nFile 10: renders results",
		formatImplementation(impl))
}

func TestAnalyzeProjectFunctions_FullSequence(t *testing.T) {
	dir := t.TempDir()
	files := []scanner_models.ScannedFile{
		scannedFile(t, dir, 1, "app.py", "def handle():\n    pass\n"),
		scannedFile(t, dir, 2, "store.py", "def save():\n    pass\n"),
	}

	provider := &scriptedProvider{replies: []string{
		`[{"name": "DATA PROCESSING", "description": "Processes incoming data", "likely_files": [1, 2]}]`,
		`{"name": "DATA PROCESSING", "description": "Parses and stores incoming data", "files_involved": [1, 2], "implementation": {"file_1": "Parses input", "file_2": "Persists records"}}`,
		"1 -> 2",
	}}

	analyzer := newTestAnalyzer(t, provider)
	functions, err := analyzer.AnalyzeProjectFunctions(context.Background(), files, []string{"Python"})
	require.NoError(t, err)
	require.Len(t, functions, 1)

	fn := functions[0]
	assert.Equal(t, "DATA PROCESSING", fn.Name)
	assert.Equal(t, "Parses and stores incoming data", fn.Description)
	assert.Equal(t, []int{1, 2}, fn.FilesInvolved)
	assert.Equal(t, "1 -> 2", fn.FilesFlow)
	assert.Equal(t, "File 1: Parses input\nFile 2: Persists records", fn.Implementation)
	assert.Equal(t, 3, provider.calls)
}

func TestAnalyzeProjectFunctions_FlowFallbackOnProviderError(t *testing.T) {
	dir := t.TempDir()
	files := []scanner_models.ScannedFile{
		scannedFile(t, dir, 1, "app.py", "def handle():\n    pass\n"),
		scannedFile(t, dir, 2, "store.py", "def save():\n    pass\n"),
	}

	provider := &scriptedProvider{
		replies: []string{
			`[{"name": "DATA PROCESSING", "description": "Processes data", "likely_files": [2, 1]}]`,
			`{"name": "DATA PROCESSING", "description": "Processes data", "files_involved": [2, 1], "implementation": {"file_1": "Parses input"}}`,
		},
		errAt: 3,
	}

	analyzer := newTestAnalyzer(t, provider)
	functions, err := analyzer.AnalyzeProjectFunctions(context.Background(), files, []string{"Python"})
	require.NoError(t, err)
	require.Len(t, functions, 1)
	assert.Equal(t, "1 -> 2", functions[0].FilesFlow)
}

func TestAnalyzeProjectFunctions_SkipsFailedDetailStep(t *testing.T) {
	dir := t.TempDir()
	files := []scanner_models.ScannedFile{
		scannedFile(t, dir, 1, "app.py", "def handle():\n    pass\n"),
	}

	provider := &scriptedProvider{replies: []string{
		`[{"name": "ONE", "description": "first", "likely_files": [1]}, {"name": "TWO", "description": "second", "likely_files": [1]}]`,
		"not json at all",
		`{"name": "TWO", "description": "second detailed", "files_involved": [1], "implementation": {"file_1": "does things"}}`,
		"1",
	}}

	analyzer := newTestAnalyzer(t, provider)
	functions, err := analyzer.AnalyzeProjectFunctions(context.Background(), files, []string{"Python"})
	require.NoError(t, err)
	require.Len(t, functions, 1)
	assert.Equal(t, "TWO", functions[0].Name)
}

func TestAnalyzeProjectFunctions_IdentificationFailureIsAnError(t *testing.T) {
	dir := t.TempDir()
	files := []scanner_models.ScannedFile{
		scannedFile(t, dir, 1, "app.py", "def handle():\n    pass\n"),
	}

	provider := &scriptedProvider{errAt: 1}
	analyzer := newTestAnalyzer(t, provider)

	_, err := analyzer.AnalyzeProjectFunctions(context.Background(), files, []string{"Python"})
	assert.Error(t, err)
}

func TestAnalyzeProjectFunctions_NoAnalyzableFiles(t *testing.T) {
	dir := t.TempDir()
	files := []scanner_models.ScannedFile{
		scannedFile(t, dir, 1, "binary.bin", "\x00\x01"),
	}

	analyzer := newTestAnalyzer(t, &scriptedProvider{})
	_, err := analyzer.AnalyzeProjectFunctions(context.Background(), files, []string{"Unknown"})
	assert.Error(t, err)
}

func TestSummarizeFile_JSONHeuristics(t *testing.T) {
	analyzer := newTestAnalyzer(t, &scriptedProvider{})

	assert.Equal(t, "Browser extension manifest",
		analyzer.summarizeFile("", "manifest.json", `{"manifest_version": 3}`))
	assert.Equal(t, "Package configuration",
		analyzer.summarizeFile("", "package.json", `{"dependencies": {"react": "^18.0.0"}}`))
	assert.Equal(t, "Configuration file",
		analyzer.summarizeFile("", "settings.json", `{"theme": "dark"}`))
	assert.Equal(t, "JSON data file",
		analyzer.summarizeFile("", "broken.json", `{not json`))
}

func TestSummarizeFile_CSSAndDocs(t *testing.T) {
	analyzer := newTestAnalyzer(t, &scriptedProvider{})

	assert.Equal(t, "Styles for: header, footer",
		analyzer.summarizeFile("", "style.css", ".header { color: red; }\n.footer { color: blue; }"))
	assert.Equal(t, "CSS styles",
		analyzer.summarizeFile("", "plain.css", "body { margin: 0; }"))
	assert.Equal(t, "Documentation file",
		analyzer.summarizeFile("", "README.md", "# Title"))
}

func TestProcessFile_GoSource(t *testing.T) {
	analyzer := newTestAnalyzer(t, &scriptedProvider{})

	source := []byte("package demo\n\nfunc Handle() {}\n\ntype Store struct{}\n")
	elements := analyzer.ProcessFile("demo.go", source)

	assert.Contains(t, elements, "function: Handle")
	assert.Contains(t, elements, "struct: Store")
}

func TestProcessFile_UnsupportedFallsBackToFirstLine(t *testing.T) {
	analyzer := newTestAnalyzer(t, &scriptedProvider{})

	elements := analyzer.ProcessFile("notes.txt", []byte("first line\nsecond line"))
	assert.Equal(t, []string{"notes.txt", "first line"}, elements)
}

func TestCacheManager_RoundTripAndInvalidation(t *testing.T) {
	dir := t.TempDir()
	cm, err := NewCacheManager(filepath.Join(dir, DefaultCacheDirName))
	require.NoError(t, err)

	target := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("def a():\n    pass\n"), 0644))

	_, found := cm.GetSummaryCache(target)
	assert.False(t, found)

	require.NoError(t, cm.SetSummaryCache(target, []string{"function: a"}))

	parts, found := cm.GetSummaryCache(target)
	require.True(t, found)
	assert.Equal(t, []string{"function: a"}, parts)

	// A size change invalidates the entry.
	require.NoError(t, os.WriteFile(target, []byte("def a():\n    pass\n\ndef b():\n    pass\n"), 0644))
	_, found = cm.GetSummaryCache(target)
	assert.False(t, found)
}

func TestCacheManager_Clear(t *testing.T) {
	dir := t.TempDir()
	cm, err := NewCacheManager(filepath.Join(dir, DefaultCacheDirName))
	require.NoError(t, err)

	target := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("content"), 0644))
	require.NoError(t, cm.SetSummaryCache(target, []string{"x"}))

	require.NoError(t, cm.Clear())
	_, found := cm.GetSummaryCache(target)
	assert.False(t, found)
}

