package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/dev-tahir/xcoder-cli/analyzer/contracts"
	"github.com/dev-tahir/xcoder-cli/analyzer/models"
	"github.com/dev-tahir/xcoder-cli/embed_data"
	"github.com/dev-tahir/xcoder-cli/providers"
	provider_contracts "github.com/dev-tahir/xcoder-cli/providers/contracts"
	scanner_models "github.com/dev-tahir/xcoder-cli/scanner/models"
	"github.com/dev-tahir/xcoder-cli/utils"
)

// Extensions worth sending to the model.
var analyzedExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".go": true,
	".json": true, ".css": true, ".html": true, ".md": true,
}

const promptContentLimit = 2000

var (
	cssSelectorRe  = regexp.MustCompile(`\.(\w+)\s*\{`)
	flowSanitizeRe = regexp.MustCompile(`[^\d\s>-]`)
	flowSpacesRe   = regexp.MustCompile(`\s+`)
	fileKeyRe      = regexp.MustCompile(`\d+`)
)

// FunctionAnalyzer derives project capabilities from scanned files using a
// three step prompting sequence: identify, detail, then map file flow.
type FunctionAnalyzer struct {
	provider     provider_contracts.IChatAIProvider
	cacheManager *CacheManager
}

// NewFunctionAnalyzer initializes a new FunctionAnalyzer. Structural file
// summaries are cached under cacheDir when enableCache is set.
func NewFunctionAnalyzer(provider provider_contracts.IChatAIProvider, cacheDir string, enableCache bool) contracts.IFunctionAnalyzer {
	var cacheManager *CacheManager
	if enableCache {
		cm, err := NewCacheManager(cacheDir)
		if err != nil {
			log.Printf("Warning: Failed to initialize cache manager: %v", err)
		} else {
			cacheManager = cm
		}
	}

	return &FunctionAnalyzer{
		provider:     provider,
		cacheManager: cacheManager,
	}
}

// AnalyzeProjectFunctions runs the full analysis sequence. Candidates whose
// detail step fails are skipped rather than failing the whole run; a flow
// step failure falls back to the involved indices in ascending order.
func (analyzer *FunctionAnalyzer) AnalyzeProjectFunctions(ctx context.Context, files []scanner_models.ScannedFile, technologies []string) ([]models.AnalyzedFunction, error) {
	if analyzer.provider == nil {
		return nil, fmt.Errorf("no ai provider configured")
	}

	summaries := analyzer.prepareFileSummaries(files)
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no analyzable files found")
	}

	candidates, err := analyzer.identifyCoreFunctions(ctx, summaries, technologies)
	if err != nil {
		return nil, err
	}

	var results []models.AnalyzedFunction
	for _, candidate := range candidates {
		detailed, ok := analyzer.analyzeFunctionDetails(ctx, candidate, summaries)
		if !ok {
			continue
		}
		detailed.FilesFlow = analyzer.generateFileFlow(ctx, detailed, summaries)
		results = append(results, detailed)
	}

	return results, nil
}

func (analyzer *FunctionAnalyzer) prepareFileSummaries(files []scanner_models.ScannedFile) []models.FileSummary {
	var summaries []models.FileSummary

	for _, file := range files {
		if !analyzedExtensions[strings.ToLower(file.Extension)] {
			continue
		}
		content := readFileContent(file.Path)
		if content == "" {
			continue
		}
		summaries = append(summaries, models.FileSummary{
			Index:     file.Index,
			Path:      file.RelativePath,
			Extension: file.Extension,
			Content:   content,
			Summary:   analyzer.summarizeFile(file.Path, file.RelativePath, content),
		})
	}

	return summaries
}

func (analyzer *FunctionAnalyzer) identifyCoreFunctions(ctx context.Context, summaries []models.FileSummary, technologies []string) ([]models.CandidateFunction, error) {
	lines := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		lines = append(lines, fmt.Sprintf("File %d: %s - %s", summary.Index, summary.Path, summary.Summary))
	}

	prompt := fmt.Sprintf(string(embed_data.IdentifyFunctionsPrompt),
		strings.Join(technologies, ", "),
		strings.Join(lines, "\n"),
	)

	reply, err := providers.CollectResponse(analyzer.provider.ChatCompletionRequest(ctx, prompt, ""))
	if err != nil {
		return nil, fmt.Errorf("function identification failed: %w", err)
	}

	match, ok := utils.ExtractJSONArray(reply)
	if !ok {
		return nil, fmt.Errorf("function identification reply contained no JSON array")
	}

	var candidates []models.CandidateFunction
	if err := json.Unmarshal([]byte(match), &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse function identification reply: %w", err)
	}
	return candidates, nil
}

func (analyzer *FunctionAnalyzer) analyzeFunctionDetails(ctx context.Context, candidate models.CandidateFunction, summaries []models.FileSummary) (models.AnalyzedFunction, bool) {
	var blocks []string
	for _, summary := range summaries {
		if !containsIndex(candidate.LikelyFiles, summary.Index) {
			continue
		}
		content := summary.Content
		if len(content) > promptContentLimit {
			content = content[:promptContentLimit]
		}
		blocks = append(blocks, fmt.Sprintf("File %d: %s\nExtension: %s\nSummary: %s\nContent:\n%s\n---END OF FILE---",
			summary.Index, summary.Path, summary.Extension, summary.Summary, content))
	}

	prompt := fmt.Sprintf(string(embed_data.FunctionDetailsPrompt),
		candidate.Name, candidate.Name, candidate.Description, strings.Join(blocks, "\n"))

	reply, err := providers.CollectResponse(analyzer.provider.ChatCompletionRequest(ctx, prompt, ""))
	if err != nil {
		return models.AnalyzedFunction{}, false
	}

	match, ok := utils.ExtractJSONObject(reply)
	if !ok {
		return models.AnalyzedFunction{}, false
	}

	var details models.FunctionDetails
	if err := json.Unmarshal([]byte(match), &details); err != nil {
		return models.AnalyzedFunction{}, false
	}

	result := models.AnalyzedFunction{
		Name:           details.Name,
		Description:    details.Description,
		Implementation: formatImplementation(details.Implementation),
		FilesInvolved:  details.FilesInvolved,
	}
	if result.Name == "" {
		result.Name = candidate.Name
	}
	if result.Description == "" {
		result.Description = candidate.Description
	}
	if len(result.FilesInvolved) == 0 {
		result.FilesInvolved = candidate.LikelyFiles
	}
	return result, true
}

func (analyzer *FunctionAnalyzer) generateFileFlow(ctx context.Context, fn models.AnalyzedFunction, summaries []models.FileSummary) string {
	var paths []string
	for _, summary := range summaries {
		if containsIndex(fn.FilesInvolved, summary.Index) {
			paths = append(paths, fmt.Sprintf("%d: %s", summary.Index, summary.Path))
		}
	}

	prompt := fmt.Sprintf(string(embed_data.FileFlowPrompt),
		fn.Name, fmt.Sprint(fn.FilesInvolved), strings.Join(paths, ", "), fn.Implementation)

	reply, err := providers.CollectResponse(analyzer.provider.ChatCompletionRequest(ctx, prompt, ""))
	if err != nil {
		return fallbackFlow(fn.FilesInvolved)
	}

	flow := sanitizeFlow(reply)
	if flow == "" {
		return fallbackFlow(fn.FilesInvolved)
	}
	return flow
}

// sanitizeFlow strips a flow reply down to digits, arrows and spacing, so
// surrounding prose from the model does not leak into the project file.
func sanitizeFlow(reply string) string {
	flow := flowSanitizeRe.ReplaceAllString(reply, "")
	flow = strings.TrimSpace(flowSpacesRe.ReplaceAllString(flow, " "))
	if !strings.ContainsAny(flow, "0123456789") {
		return ""
	}
	return flow
}

func fallbackFlow(files []int) string {
	sorted := append([]int(nil), files...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for _, index := range sorted {
		parts = append(parts, strconv.Itoa(index))
	}
	return strings.Join(parts, " -> ")
}

// formatImplementation rewrites the keyed implementation map as ordered
// "File N: ..." lines.
func formatImplementation(implementation map[string]string) string {
	type implLine struct {
		index int
		text  string
	}

	var lines []implLine
	for key, description := range implementation {
		match := fileKeyRe.FindString(key)
		if match == "" {
			continue
		}
		index, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		lines = append(lines, implLine{index: index, text: fmt.Sprintf("File %d: %s", index, description)})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].index < lines[j].index })

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.text)
	}
	return strings.Join(parts, "\n")
}

func (analyzer *FunctionAnalyzer) summarizeFile(absolutePath, relativePath, content string) string {
	switch utils.GetSupportedLanguage(relativePath) {
	case "go", "python", "javascript", "typescript":
		parts := analyzer.cachedProcessFile(absolutePath, relativePath, []byte(content))
		if len(parts) == 0 {
			return "Source file"
		}
		if len(parts) > 8 {
			parts = parts[:8]
		}
		return strings.Join(parts, "; ")
	case "json":
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(content), &data); err != nil {
			return "JSON data file"
		}
		if _, ok := data["manifest_version"]; ok {
			return "Browser extension manifest"
		}
		if _, ok := data["dependencies"]; ok {
			return "Package configuration"
		}
		return "Configuration file"
	case "css":
		matches := cssSelectorRe.FindAllStringSubmatch(content, 5)
		if len(matches) == 0 {
			return "CSS styles"
		}
		selectors := make([]string, 0, len(matches))
		for _, m := range matches {
			selectors = append(selectors, m[1])
		}
		return "Styles for: " + strings.Join(selectors, ", ")
	case "markdown":
		return "Documentation file"
	case "html":
		return "HTML page"
	default:
		return "Project file"
	}
}

func (analyzer *FunctionAnalyzer) cachedProcessFile(absolutePath, relativePath string, sourceCode []byte) []string {
	if analyzer.cacheManager != nil {
		if parts, found := analyzer.cacheManager.GetSummaryCache(absolutePath); found {
			return parts
		}
	}

	parts := analyzer.ProcessFile(relativePath, sourceCode)

	if analyzer.cacheManager != nil {
		analyzer.cacheManager.SetSummaryCache(absolutePath, parts)
	}
	return parts
}

// ProcessFile extracts tagged structural elements from a source file using
// tree-sitter queries. Unsupported files fall back to the path plus the
// first source line.
func (analyzer *FunctionAnalyzer) ProcessFile(relativePath string, sourceCode []byte) []string {
	var elements []string

	var lang *sitter.Language
	var query []byte

	switch utils.GetSupportedLanguage(relativePath) {
	case "go":
		lang = golang.GetLanguage()
		query = embed_data.GoQuery
	case "python":
		lang = python.GetLanguage()
		query = embed_data.PythonQuery
	case "javascript":
		lang = javascript.GetLanguage()
		query = embed_data.JavascriptQuery
	case "typescript":
		lang = typescript.GetLanguage()
		query = embed_data.TypescriptQuery
	default:
		elements = append(elements, relativePath)
		lines := strings.Split(string(sourceCode), "\n")
		elements = append(elements, lines[0])
		return elements
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, sourceCode)

	queries := make(map[string]string)
	if err := json.Unmarshal(query, &queries); err != nil {
		log.Printf("Warning: failed to parse queries for %s: %v", relativePath, err)
		return elements
	}

	tags := make([]string, 0, len(queries))
	for tag := range queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		q, err := sitter.NewQuery([]byte(queries[tag]), lang)
		if err != nil {
			continue
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(q, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", tag, capture.Node.Content(sourceCode)))
			}
		}
	}

	return elements
}

// readFileContent reads a file for prompting, keeping the head and tail of
// oversized files so both imports and trailing logic stay visible.
func readFileContent(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	text := string(content)
	if len(text) > 2*promptContentLimit {
		return text[:promptContentLimit] + "\n... (content truncated) ...\n" + text[len(text)-promptContentLimit:]
	}
	return text
}

func containsIndex(indices []int, index int) bool {
	for _, candidate := range indices {
		if candidate == index {
			return true
		}
	}
	return false
}
