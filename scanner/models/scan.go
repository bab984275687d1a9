package models

// ScannedFile is one file discovered by a project scan.
type ScannedFile struct {
	Index        int
	Path         string
	RelativePath string
	Size         int64
	Extension    string
}

// ScanSummary aggregates the result of a full project scan.
type ScanSummary struct {
	Name         string
	Description  string
	Technologies []string
	RootPath     string
	Files        []ScannedFile
	// Warnings collects per-file failures that were skipped, not fatal.
	Warnings []string
}
