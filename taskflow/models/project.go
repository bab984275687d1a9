package models

// ProjectFile is a single entry of the PROJECT FILES INDEX block.
type ProjectFile struct {
	Index       int
	Path        string
	Description string
}

// Function is a single record of the "All functions:" block. The ID carries
// the textual form used in the file, e.g. "3F".
type Function struct {
	ID             string
	Name           string
	Description    string
	FilesFlow      string
	Implementation string
	FilesInvolved  []int
}

// ProjectInfo is the in-memory form of a project file.
type ProjectInfo struct {
	Name        string
	Description string
	Technology  string
	Files       map[int]*ProjectFile
	Functions   map[string]*Function
	// ConfigSection holds the optional trailing configuration block verbatim.
	ConfigSection string
}

// NewProjectInfo returns an empty, ready-to-fill ProjectInfo.
func NewProjectInfo() *ProjectInfo {
	return &ProjectInfo{
		Files:     make(map[int]*ProjectFile),
		Functions: make(map[string]*Function),
	}
}

// ValidationIssue describes a soft data-integrity defect found by Validate.
type ValidationIssue struct {
	Message string
}

func (v ValidationIssue) String() string {
	return v.Message
}
