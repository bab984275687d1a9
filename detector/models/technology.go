package models

// Detection sources.
const (
	SourceRules         = "rules"
	SourceAI            = "ai"
	SourceAIUnavailable = "ai-unavailable"
)

// TechnologyInfo describes one detected technology.
type TechnologyInfo struct {
	Name         string   `json:"name"`
	Confidence   float64  `json:"confidence"`
	Description  string   `json:"description"`
	TypicalFiles []string `json:"typical_files"`
	Source       string   `json:"-"`
}

// RootStructure is a shallow snapshot of the project root used for the
// AI detection prompt.
type RootStructure struct {
	Files          []string
	Directories    []string
	FileExtensions []string
	NotableFiles   []string
}
