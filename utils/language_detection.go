package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage maps a file path to the language name used to pick a
// parser and syntax queries. Unknown extensions return an empty string.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".json":
		return "json"
	case ".css":
		return "css"
	case ".html", ".htm":
		return "html"
	case ".md":
		return "markdown"
	default:
		return ""
	}
}
