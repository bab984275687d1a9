package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// systemExcludes are always ignored: tool artifacts and OS cruft that never
// belong in a project file.
var systemExcludes = []string{
	"project-file.txt",
	"xcoder-config.yaml",
	"xcoder-config.yml",
	"xcoder-config.json",
	".xcoder-cache/**",
	".git/**",
	".DS_Store",
	"Thumbs.db",
}

// defaultIgnoredParts mirror the conventional junk directories and binary
// suffixes excluded from any scan regardless of configured patterns.
var defaultIgnoredParts = []string{
	".git",
	".svn",
	".idea",
	".vscode",
	".cache",
	"node_modules",
	"bin",
	"obj",
	"dist",
	"out",
	"*.exe",
	"*.dll",
	"*.log",
	"*.bak",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.mp3",
	"*.mp4",
	"*.zip",
	"*.crx",
}

// IgnorePatternManager answers include/exclude for relative paths using
// gitignore-style patterns, technology-specific patterns and system excludes.
// Patterns are loaded once; ShouldIgnore is a pure predicate afterwards.
type IgnorePatternManager struct {
	projectRoot       string
	gitignorePatterns []string
	techPatterns      []string
}

func NewIgnorePatternManager(projectRoot string) *IgnorePatternManager {
	return &IgnorePatternManager{projectRoot: projectRoot}
}

// LoadGitignore reads patterns from the project's .gitignore. A missing file
// is not an error.
func (m *IgnorePatternManager) LoadGitignore() error {
	path := filepath.Join(m.projectRoot, ".gitignore")
	patterns, err := readPatternFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read .gitignore: %w", err)
	}
	m.gitignorePatterns = patterns
	return nil
}

// LoadTechPatterns reads per-technology ignore files (e.g. python.txt)
// previously written by the technology detector. Missing files are skipped.
func (m *IgnorePatternManager) LoadTechPatterns(technologies []string) {
	for _, tech := range technologies {
		path := filepath.Join(m.projectRoot, TechIgnoreFileName(tech))
		patterns, err := readPatternFile(path)
		if err != nil {
			continue
		}
		m.techPatterns = append(m.techPatterns, patterns...)
	}
}

// TechIgnoreFileName maps a technology label to its ignore file name, e.g.
// "Browser-Extension" -> "browser_extension.txt".
func TechIgnoreFileName(technology string) string {
	return strings.ReplaceAll(strings.ToLower(technology), "-", "_") + ".txt"
}

// ShouldIgnore decides exclusion for a path relative to the project root.
func (m *IgnorePatternManager) ShouldIgnore(relativePath string) bool {
	relativePath = filepath.ToSlash(relativePath)

	if isDefaultIgnored(relativePath) {
		return true
	}
	for _, pattern := range systemExcludes {
		if matchPattern(relativePath, pattern) {
			return true
		}
	}
	for _, pattern := range m.gitignorePatterns {
		if matchPattern(relativePath, pattern) {
			return true
		}
	}
	for _, pattern := range m.techPatterns {
		if matchPattern(relativePath, pattern) {
			return true
		}
	}
	return false
}

func isDefaultIgnored(relativePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		part = strings.ToLower(part)
		for _, pattern := range defaultIgnoredParts {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// matchPattern applies fnmatch-style semantics: a trailing slash matches any
// path segment, "**" collapses to a single glob, otherwise the pattern is
// tried against the full relative path and the base name.
func matchPattern(path, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		pattern = strings.TrimSuffix(pattern, "/")
		for _, part := range strings.Split(path, "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
		return false
	}

	if strings.Contains(pattern, "**") {
		collapsed := strings.ReplaceAll(pattern, "**", "*")
		if ok, _ := filepath.Match(collapsed, path); ok {
			return true
		}
		// "dir/**" should also hide deeply nested children that a single
		// glob star cannot reach across separators.
		if prefix := strings.TrimSuffix(pattern, "/**"); prefix != pattern {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		if ok, _ := filepath.Match(collapsed, filepath.Base(path)); ok {
			return true
		}
		return false
	}

	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

func readPatternFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}
