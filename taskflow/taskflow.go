package taskflow

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/taskflow/contracts"
	"github.com/dev-tahir/xcoder-cli/taskflow/models"
)

// DefaultProjectFileName is used when no explicit path is configured.
const DefaultProjectFileName = "project-file.txt"

// ErrNotFound is returned by Load when the project file does not exist.
var ErrNotFound = errors.New("project file not found")

var (
	fileEntryRe      = regexp.MustCompile(`^(\d+)\.\s*(.+)$`)
	functionHeaderRe = regexp.MustCompile(`^(\d+F)\.\s*(.+)$`)
	fileRefRe        = regexp.MustCompile(`File (\d+)`)
	indexTokenRe     = regexp.MustCompile(`\d+`)
)

const (
	filesSectionMarker     = "PROJECT FILES INDEX:"
	functionsSectionMarker = "All functions:"
	flowLinePrefix         = "Files(Index) Flow:"
	implementationMarker   = "Implementation:"
	configSectionPrefix    = "key projct configuration:"
)

// Manager round-trips a ProjectInfo between its in-memory form and the
// line-oriented project-file text format.
type Manager struct {
	Path string
}

// NewTaskFlowManager creates a manager bound to the given path, falling back
// to the conventional project file name when path is empty.
func NewTaskFlowManager(path string) contracts.ITaskFlowManager {
	if path == "" {
		path = DefaultProjectFileName
	}
	return &Manager{Path: path}
}

// Load reads and parses the project file at the configured path.
func (m *Manager) Load() (*models.ProjectInfo, error) {
	content, err := os.ReadFile(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m.Path)
		}
		return nil, fmt.Errorf("failed to read project file %s: %w", m.Path, err)
	}
	return m.Parse(string(content)), nil
}

// Parse converts raw project-file text into a ProjectInfo. Parsing is
// lenient: lines that match no known prefix or block syntax are skipped.
func (m *Manager) Parse(text string) *models.ProjectInfo {
	info := models.NewProjectInfo()

	type functionBuilder struct {
		fn     *models.Function
		inImpl bool
		impl   []string
	}

	var section string
	var current *functionBuilder

	flush := func() {
		if current == nil {
			return
		}
		current.fn.Implementation = strings.Join(current.impl, "\n")
		current.fn.FilesInvolved = harvestFileRefs(current.fn.FilesFlow, current.impl)
		info.Functions[current.fn.ID] = current.fn
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if section == "config" {
			info.ConfigSection += line + "\n"
			continue
		}

		switch {
		case current == nil && strings.HasPrefix(line, "Project:") && info.Name == "":
			info.Name = strings.TrimSpace(strings.TrimPrefix(line, "Project:"))
		case current == nil && strings.HasPrefix(line, "Description:") && info.Description == "":
			info.Description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case current == nil && strings.HasPrefix(line, "technology:") && info.Technology == "":
			info.Technology = strings.TrimSpace(strings.TrimPrefix(line, "technology:"))

		case line == filesSectionMarker:
			section = "files"
		case line == functionsSectionMarker:
			flush()
			section = "functions"

		case strings.HasPrefix(line, configSectionPrefix):
			flush()
			section = "config"
			info.ConfigSection = line + "\n"

		case section == "files" && line != "":
			if match := fileEntryRe.FindStringSubmatch(line); match != nil {
				index, err := strconv.Atoi(match[1])
				if err == nil {
					info.Files[index] = &models.ProjectFile{Index: index, Path: strings.TrimSpace(match[2])}
				}
			}

		case section == "functions" && line != "":
			if match := functionHeaderRe.FindStringSubmatch(line); match != nil {
				flush()
				current = &functionBuilder{fn: &models.Function{ID: match[1], Name: strings.TrimSpace(match[2])}}
				continue
			}
			if current == nil {
				continue
			}
			switch {
			case strings.HasPrefix(line, flowLinePrefix):
				current.fn.FilesFlow = strings.TrimSpace(strings.TrimPrefix(line, flowLinePrefix))
			case line == implementationMarker:
				current.inImpl = true
			case !current.inImpl && current.fn.Description == "":
				current.fn.Description = line
			default:
				current.impl = append(current.impl, line)
			}
		}
	}
	flush()

	if info.ConfigSection != "" {
		info.ConfigSection = strings.TrimSpace(info.ConfigSection) + "\n"
	}

	return info
}

// harvestFileRefs collects the file indices referenced by a function, flow
// line first, then "File N" mentions in the implementation, de-duplicated in
// order of first occurrence.
func harvestFileRefs(flow string, implLines []string) []int {
	var refs []int
	seen := make(map[int]bool)
	add := func(idx int) {
		if !seen[idx] {
			seen[idx] = true
			refs = append(refs, idx)
		}
	}

	for _, token := range indexTokenRe.FindAllString(flow, -1) {
		if idx, err := strconv.Atoi(token); err == nil {
			add(idx)
		}
	}
	for _, line := range implLines {
		for _, match := range fileRefRe.FindAllStringSubmatch(line, -1) {
			if idx, err := strconv.Atoi(match[1]); err == nil {
				add(idx)
			}
		}
	}
	return refs
}

// Generate serializes a ProjectInfo into project-file text: header fields,
// file index in ascending order, then function records in ascending id order.
func (m *Manager) Generate(info *models.ProjectInfo) string {
	var lines []string

	lines = append(lines, "Project:"+info.Name)
	lines = append(lines, "Description:"+info.Description)
	lines = append(lines, "technology:"+info.Technology)

	lines = append(lines, filesSectionMarker)
	for _, index := range sortedFileIndices(info) {
		lines = append(lines, fmt.Sprintf("%d. %s", index, info.Files[index].Path))
	}
	lines = append(lines, "")

	lines = append(lines, functionsSectionMarker)
	for _, id := range sortedFunctionIDs(info) {
		fn := info.Functions[id]
		lines = append(lines, fmt.Sprintf("%s. %s", fn.ID, fn.Name))
		if fn.Description != "" {
			lines = append(lines, fn.Description)
		}
		if fn.FilesFlow != "" {
			lines = append(lines, flowLinePrefix+" "+fn.FilesFlow)
		}
		lines = append(lines, implementationMarker)
		if fn.Implementation != "" {
			lines = append(lines, fn.Implementation)
		}
		lines = append(lines, "")
	}

	if info.ConfigSection != "" {
		lines = append(lines, strings.TrimSpace(info.ConfigSection))
	}

	return strings.Join(lines, "\n") + "\n"
}

// Save writes the serialized ProjectInfo to the configured path. Dangling
// file references are reported as warnings, never a save failure.
func (m *Manager) Save(info *models.ProjectInfo) error {
	for _, issue := range m.Validate(info) {
		fmt.Println(lipgloss.Yellow.Render("Warning: " + issue.Message))
	}

	content := m.Generate(info)
	if err := os.WriteFile(m.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write project file %s: %w", m.Path, err)
	}
	return nil
}

// AddFunction appends a function record in memory and returns its id. The
// change is not persisted until Save is called.
func (m *Manager) AddFunction(info *models.ProjectInfo, name, description, implementation string, filesInvolved []int) string {
	maxID := 0
	for id := range info.Functions {
		if n, err := strconv.Atoi(strings.TrimSuffix(id, "F")); err == nil && n > maxID {
			maxID = n
		}
	}
	id := fmt.Sprintf("%dF", maxID+1)

	flow := ""
	if len(filesInvolved) > 0 {
		parts := make([]string, len(filesInvolved))
		for i, idx := range filesInvolved {
			if _, ok := info.Files[idx]; !ok {
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: File %d not found in project files", idx)))
			}
			parts[i] = strconv.Itoa(idx)
		}
		flow = strings.Join(parts, " -> ")
	}

	info.Functions[id] = &models.Function{
		ID:             id,
		Name:           name,
		Description:    description,
		Implementation: implementation,
		FilesFlow:      flow,
		FilesInvolved:  filesInvolved,
	}
	return id
}

// EditFunction updates the given fields of an existing function. Nil fields
// keep their current value; a nil filesInvolved keeps the current refs.
func (m *Manager) EditFunction(info *models.ProjectInfo, id string, name, description, implementation *string, filesInvolved []int) error {
	fn, ok := info.Functions[id]
	if !ok {
		return fmt.Errorf("function %s not found", id)
	}
	if name != nil {
		fn.Name = *name
	}
	if description != nil {
		fn.Description = *description
	}
	if implementation != nil {
		fn.Implementation = *implementation
	}
	if filesInvolved != nil {
		for _, idx := range filesInvolved {
			if _, ok := info.Files[idx]; !ok {
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: File %d not found in project files", idx)))
			}
		}
		fn.FilesInvolved = filesInvolved
	}
	return nil
}

func (m *Manager) DeleteFunction(info *models.ProjectInfo, id string) error {
	if _, ok := info.Functions[id]; !ok {
		return fmt.Errorf("function %s not found", id)
	}
	delete(info.Functions, id)
	return nil
}

// AddFile appends a file entry with the next free index and returns it.
func (m *Manager) AddFile(info *models.ProjectInfo, path, description string) int {
	index := 0
	for idx := range info.Files {
		if idx > index {
			index = idx
		}
	}
	index++
	info.Files[index] = &models.ProjectFile{Index: index, Path: path, Description: description}
	return index
}

func (m *Manager) EditFile(info *models.ProjectInfo, index int, path, description *string) error {
	file, ok := info.Files[index]
	if !ok {
		return fmt.Errorf("file %d not found", index)
	}
	if path != nil {
		file.Path = *path
	}
	if description != nil {
		file.Description = *description
	}
	return nil
}

// DeleteFile removes a file entry and drops its references from functions.
func (m *Manager) DeleteFile(info *models.ProjectInfo, index int) error {
	if _, ok := info.Files[index]; !ok {
		return fmt.Errorf("file %d not found", index)
	}
	delete(info.Files, index)

	for _, fn := range info.Functions {
		var kept []int
		for _, ref := range fn.FilesInvolved {
			if ref != index {
				kept = append(kept, ref)
			}
		}
		fn.FilesInvolved = kept
	}
	return nil
}

// ReorderFiles compacts file indices to a contiguous 1-based sequence and
// remaps function references accordingly.
func (m *Manager) ReorderFiles(info *models.ProjectInfo) {
	oldIndices := sortedFileIndices(info)

	mapping := make(map[int]int, len(oldIndices))
	files := make(map[int]*models.ProjectFile, len(oldIndices))
	for newIndex, oldIndex := range oldIndices {
		file := info.Files[oldIndex]
		file.Index = newIndex + 1
		files[newIndex+1] = file
		mapping[oldIndex] = newIndex + 1
	}
	info.Files = files

	for _, fn := range info.Functions {
		for i, ref := range fn.FilesInvolved {
			if remapped, ok := mapping[ref]; ok {
				fn.FilesInvolved[i] = remapped
			}
		}
		if fn.FilesFlow != "" {
			fn.FilesFlow = indexTokenRe.ReplaceAllStringFunc(fn.FilesFlow, func(token string) string {
				idx, err := strconv.Atoi(token)
				if err != nil {
					return token
				}
				if remapped, ok := mapping[idx]; ok {
					return strconv.Itoa(remapped)
				}
				return token
			})
		}
	}
}

// SearchFunctions matches query case-insensitively against function names,
// descriptions and implementations.
func (m *Manager) SearchFunctions(info *models.ProjectInfo, query string) []*models.Function {
	query = strings.ToLower(query)
	var results []*models.Function
	for _, id := range sortedFunctionIDs(info) {
		fn := info.Functions[id]
		if strings.Contains(strings.ToLower(fn.Name), query) ||
			strings.Contains(strings.ToLower(fn.Description), query) ||
			strings.Contains(strings.ToLower(fn.Implementation), query) {
			results = append(results, fn)
		}
	}
	return results
}

// Validate reports dangling file references and duplicate file paths. Issues
// are soft: callers may save regardless.
func (m *Manager) Validate(info *models.ProjectInfo) []models.ValidationIssue {
	var issues []models.ValidationIssue

	for _, id := range sortedFunctionIDs(info) {
		for _, ref := range info.Functions[id].FilesInvolved {
			if _, ok := info.Files[ref]; !ok {
				issues = append(issues, models.ValidationIssue{
					Message: fmt.Sprintf("function %s references non-existent File %d", id, ref),
				})
			}
		}
	}

	pathCount := make(map[string]int)
	for _, index := range sortedFileIndices(info) {
		pathCount[info.Files[index].Path]++
	}
	var duplicates []string
	for path, count := range pathCount {
		if count > 1 {
			duplicates = append(duplicates, path)
		}
	}
	sort.Strings(duplicates)
	for _, path := range duplicates {
		issues = append(issues, models.ValidationIssue{
			Message: fmt.Sprintf("duplicate file path: %s", path),
		})
	}

	return issues
}

func sortedFileIndices(info *models.ProjectInfo) []int {
	indices := make([]int, 0, len(info.Files))
	for index := range info.Files {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

func sortedFunctionIDs(info *models.ProjectInfo) []string {
	ids := make([]string, 0, len(info.Functions))
	for id := range info.Functions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimSuffix(ids[i], "F"))
		b, _ := strconv.Atoi(strings.TrimSuffix(ids[j], "F"))
		return a < b
	})
	return ids
}
