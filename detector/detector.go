package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dev-tahir/xcoder-cli/detector/contracts"
	"github.com/dev-tahir/xcoder-cli/detector/models"
	"github.com/dev-tahir/xcoder-cli/embed_data"
	"github.com/dev-tahir/xcoder-cli/providers"
	provider_contracts "github.com/dev-tahir/xcoder-cli/providers/contracts"
	"github.com/dev-tahir/xcoder-cli/scanner"
	"github.com/dev-tahir/xcoder-cli/utils"
)

// Files in the project root that strongly hint at a stack.
var notableFiles = []string{
	"package.json", "requirements.txt", "Cargo.toml", "go.mod",
	"pom.xml", "composer.json", "Gemfile", "manifest.json",
	"setup.py", "pyproject.toml", "CMakeLists.txt", "Makefile",
}

// TechnologyDetector identifies project technologies, rule-based first and
// falling back to the AI provider when the rules are inconclusive.
type TechnologyDetector struct {
	provider provider_contracts.IChatAIProvider
}

// NewTechnologyDetector initializes a new TechnologyDetector. The provider
// may be nil; detection then degrades to rules plus the unknown fallback.
func NewTechnologyDetector(provider provider_contracts.IChatAIProvider) contracts.ITechnologyDetector {
	return &TechnologyDetector{provider: provider}
}

// DetectTechnologies never fails. An unreachable AI backend yields a single
// Unknown entry marked ai-unavailable instead of an error.
func (detector *TechnologyDetector) DetectTechnologies(ctx context.Context, projectRoot string) []models.TechnologyInfo {
	if technologies := detector.ruleBasedDetection(projectRoot); len(technologies) > 0 {
		return technologies
	}
	return detector.aiBasedDetection(ctx, readRootStructure(projectRoot))
}

func (detector *TechnologyDetector) ruleBasedDetection(projectRoot string) []models.TechnologyInfo {
	var technologies []models.TechnologyInfo

	add := func(name string, confidence float64, description string, typicalFiles ...string) {
		technologies = append(technologies, models.TechnologyInfo{
			Name:         name,
			Confidence:   confidence,
			Description:  description,
			TypicalFiles: typicalFiles,
			Source:       models.SourceRules,
		})
	}

	if packageData, ok := readJSONFile(filepath.Join(projectRoot, "package.json")); ok {
		deps := collectDependencies(packageData)
		switch {
		case deps["next"]:
			add("Next-JS", 0.9, "Next.js React framework", "next.config.js", "pages/", "app/")
		case deps["react"]:
			add("React", 0.8, "React JavaScript library", "src/", "public/")
		case deps["@angular/core"]:
			add("Angular", 0.9, "Angular framework", "angular.json", "src/app/")
		case deps["vue"]:
			add("Vue", 0.8, "Vue.js framework", "vue.config.js", "src/")
		default:
			add("Node.js", 0.7, "Node.js application", "package.json")
		}
	}

	if fileExists(filepath.Join(projectRoot, "requirements.txt")) ||
		fileExists(filepath.Join(projectRoot, "setup.py")) ||
		fileExists(filepath.Join(projectRoot, "pyproject.toml")) {
		add("Python", 0.8, "Python application", "requirements.txt", "setup.py")
	}

	if manifestData, ok := readJSONFile(filepath.Join(projectRoot, "manifest.json")); ok {
		if _, hasVersion := manifestData["manifest_version"]; hasVersion {
			add("Browser-Extension", 0.9, "Browser extension", "manifest.json", "background.js", "content_script.js")
		}
	}

	if fileExists(filepath.Join(projectRoot, "Cargo.toml")) {
		add("Rust", 0.9, "Rust application", "Cargo.toml", "src/")
	}
	if fileExists(filepath.Join(projectRoot, "go.mod")) {
		add("Go", 0.9, "Go application", "go.mod", "main.go")
	}
	if fileExists(filepath.Join(projectRoot, "pom.xml")) {
		add("Java", 0.9, "Java/Maven project", "pom.xml", "src/")
	}

	return technologies
}

func (detector *TechnologyDetector) aiBasedDetection(ctx context.Context, structure models.RootStructure) []models.TechnologyInfo {
	unknown := []models.TechnologyInfo{{
		Name:        "Unknown",
		Confidence:  0.5,
		Description: "Unknown project type",
		Source:      models.SourceAIUnavailable,
	}}

	if detector.provider == nil {
		return unknown
	}

	prompt := fmt.Sprintf(string(embed_data.TechDetectionPrompt),
		strings.Join(structure.Files, ", "),
		strings.Join(structure.Directories, ", "),
		strings.Join(structure.FileExtensions, ", "),
		strings.Join(structure.NotableFiles, ", "),
	)

	reply, err := providers.CollectResponse(detector.provider.ChatCompletionRequest(ctx, prompt, ""))
	if err != nil {
		return unknown
	}

	jsonArray, ok := extractTechnologies(reply)
	if !ok {
		return unknown
	}
	return jsonArray
}

func extractTechnologies(reply string) ([]models.TechnologyInfo, bool) {
	match, ok := utils.ExtractJSONArray(reply)
	if !ok {
		return nil, false
	}

	var technologies []models.TechnologyInfo
	if err := json.Unmarshal([]byte(match), &technologies); err != nil || len(technologies) == 0 {
		return nil, false
	}
	for i := range technologies {
		technologies[i].Source = models.SourceAI
	}
	return technologies, true
}

// WriteIgnoreFiles creates per-technology ignore files in the project root,
// one per detected technology, skipping files that already exist. It returns
// the names of the files it created.
func (detector *TechnologyDetector) WriteIgnoreFiles(ctx context.Context, projectRoot string, technologies []models.TechnologyInfo) []string {
	var created []string

	for _, tech := range technologies {
		fileName := scanner.TechIgnoreFileName(tech.Name)
		filePath := filepath.Join(projectRoot, fileName)
		if fileExists(filePath) {
			continue
		}

		patterns := detector.generateIgnorePatterns(ctx, tech.Name)

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Ignore patterns for %s projects\n", tech.Name))
		if tech.Description != "" {
			sb.WriteString(fmt.Sprintf("# %s\n", tech.Description))
		}
		sb.WriteString(fmt.Sprintf("# Confidence: %.0f%%\n\n", tech.Confidence*100))
		for _, pattern := range patterns {
			sb.WriteString(pattern)
			sb.WriteString("\n")
		}

		if err := os.WriteFile(filePath, []byte(sb.String()), 0644); err != nil {
			continue
		}
		created = append(created, fileName)
	}

	return created
}

func (detector *TechnologyDetector) generateIgnorePatterns(ctx context.Context, technology string) []string {
	if detector.provider == nil {
		return defaultIgnorePatterns(technology)
	}

	prompt := fmt.Sprintf(string(embed_data.IgnorePatternsPrompt), technology)
	reply, err := providers.CollectResponse(detector.provider.ChatCompletionRequest(ctx, prompt, ""))
	if err != nil {
		return defaultIgnorePatterns(technology)
	}

	match, ok := utils.ExtractJSONArray(reply)
	if !ok {
		return defaultIgnorePatterns(technology)
	}

	var patterns []string
	if err := json.Unmarshal([]byte(match), &patterns); err != nil || len(patterns) == 0 {
		return defaultIgnorePatterns(technology)
	}
	return patterns
}

func defaultIgnorePatterns(technology string) []string {
	patterns := map[string][]string{
		"javascript":       {"node_modules/**", "*.log", ".env*", "dist/**", "build/**"},
		"python":           {"__pycache__/**", "*.pyc", "venv/**", "*.egg-info/**", ".pytest_cache/**"},
		"browserextension": {"*.zip", "*.crx", "web-ext-artifacts/**"},
		"unknown":          {"*.log", ".env*", ".DS_Store", "Thumbs.db", ".vscode/**", ".idea/**"},
	}

	key := strings.ToLower(technology)
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")
	if p, ok := patterns[key]; ok {
		return p
	}
	return patterns["unknown"]
}

func readRootStructure(projectRoot string) models.RootStructure {
	var structure models.RootStructure

	entries, err := os.ReadDir(projectRoot)
	if err != nil {
		return structure
	}

	extensions := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if !strings.HasPrefix(name, ".") {
				structure.Directories = append(structure.Directories, name)
			}
			continue
		}

		structure.Files = append(structure.Files, name)
		if ext := filepath.Ext(name); ext != "" {
			extensions[ext] = struct{}{}
		}
		for _, notable := range notableFiles {
			if strings.EqualFold(name, notable) {
				structure.NotableFiles = append(structure.NotableFiles, name)
				break
			}
		}
	}

	for ext := range extensions {
		structure.FileExtensions = append(structure.FileExtensions, ext)
	}
	sort.Strings(structure.FileExtensions)

	return structure
}

func collectDependencies(packageData map[string]interface{}) map[string]bool {
	deps := make(map[string]bool)
	for _, section := range []string{"dependencies", "devDependencies"} {
		if m, ok := packageData[section].(map[string]interface{}); ok {
			for name := range m {
				deps[name] = true
			}
		}
	}
	return deps
}

func readJSONFile(path string) (map[string]interface{}, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var data map[string]interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, false
	}
	return data, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
