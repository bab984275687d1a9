package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dev-tahir/xcoder-cli/scanner/models"
)

// ErrNotAccessible is returned when the scan root is missing or unreadable.
var ErrNotAccessible = errors.New("project root not accessible")

// maxFileSize caps the files recorded by a scan; larger files are skipped.
const maxFileSize = 100 * 1024

// ProjectScanner walks a directory tree and produces the flat file listing
// plus the initial project summary used to seed a project file.
type ProjectScanner struct {
	Root   string
	Ignore *IgnorePatternManager
}

func NewProjectScanner(root string) *ProjectScanner {
	return &ProjectScanner{
		Root:   root,
		Ignore: NewIgnorePatternManager(root),
	}
}

// Scan enumerates project files under the root, filtered by the ignore
// manager. Per-file failures become warnings; an unreadable root is fatal.
func (s *ProjectScanner) Scan(ctx context.Context, technologies []string) (*models.ScanSummary, error) {
	rootInfo, err := os.Stat(s.Root)
	if err != nil || !rootInfo.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotAccessible, s.Root)
	}

	if err := s.Ignore.LoadGitignore(); err != nil {
		return nil, err
	}
	s.Ignore.LoadTechPatterns(technologies)

	summary := &models.ScanSummary{
		Name:         strings.ToUpper(filepath.Base(s.Root)),
		Description:  s.extractDescription(),
		Technologies: technologies,
		RootPath:     s.Root,
	}

	err = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			if path == s.Root {
				return fmt.Errorf("%w: %v", ErrNotAccessible, walkErr)
			}
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("skipped %s: %v", path, walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath, err := filepath.Rel(s.Root, path)
		if err != nil || relativePath == "." {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if s.Ignore.ShouldIgnore(relativePath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("skipped %s: %v", relativePath, err))
			return nil
		}
		if fileInfo.Size() > maxFileSize {
			return nil
		}

		summary.Files = append(summary.Files, models.ScannedFile{
			Path:         path,
			RelativePath: relativePath,
			Size:         fileInfo.Size(),
			Extension:    filepath.Ext(relativePath),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summary.Files, func(i, j int) bool {
		return summary.Files[i].RelativePath < summary.Files[j].RelativePath
	})
	for i := range summary.Files {
		summary.Files[i].Index = i + 1
	}

	return summary, nil
}

// extractDescription mines a one-line description from package.json,
// manifest.json or the first README heading.
func (s *ProjectScanner) extractDescription() string {
	for _, name := range []string{"package.json", "manifest.json"} {
		if description := readJSONDescription(filepath.Join(s.Root, name)); description != "" {
			return strings.ToUpper(description)
		}
	}

	for _, name := range []string{"README.md", "README.txt", "README"} {
		content, err := os.ReadFile(filepath.Join(s.Root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(strings.ReplaceAll(line, "#", ""))
			if len(line) > 10 {
				return strings.ToUpper(line)
			}
		}
	}

	return "PROJECT DESCRIPTION"
}

func readJSONDescription(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var data struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(content, &data); err != nil {
		return ""
	}
	return data.Description
}
