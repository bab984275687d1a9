package models

// FileSummary is a prepared view of one scanned file, content truncated and
// annotated with a structural summary for prompting.
type FileSummary struct {
	Index     int
	Path      string
	Extension string
	Content   string
	Summary   string
}

// CandidateFunction is the first-pass identification of a capability.
type CandidateFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LikelyFiles []int  `json:"likely_files"`
}

// FunctionDetails is the second-pass reply shape.
type FunctionDetails struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	FilesInvolved  []int             `json:"files_involved"`
	Implementation map[string]string `json:"implementation"`
}

// AnalyzedFunction is a fully analyzed project capability ready to be added
// to the project file.
type AnalyzedFunction struct {
	Name           string
	Description    string
	Implementation string
	FilesInvolved  []int
	FilesFlow      string
}
