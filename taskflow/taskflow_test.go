package taskflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedDocument = `Project:TASKBOARD
Description:A KANBAN BOARD FOR SMALL TEAMS
technology:Next-JS, Python
PROJECT FILES INDEX:
1. src/app.py
2. src/board.py
3. templates/index.html

All functions:
1F. TASK CREATION
Allows users to create new tasks with title and priority
Files(Index) Flow: 1 -> 2
Implementation:
File 1: Exposes the POST endpoint and validates the payload
File 2: Persists the task and returns the stored record

2F. BOARD RENDERING
Renders the board with all task columns
Files(Index) Flow: 3 -> 2
Implementation:
File 3: Renders columns and drag targets from board state
File 2: Supplies board state ordered by priority
`

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project-file.txt")
	return &Manager{Path: path}
}

func TestParse_HeaderExtraction(t *testing.T) {
	m := newTestManager(t)

	info := m.Parse("Project:Foo\nDescription:Bar\ntechnology:Python\n")

	assert.Equal(t, "Foo", info.Name)
	assert.Equal(t, "Bar", info.Description)
	assert.Equal(t, "Python", info.Technology)
}

func TestParse_WellFormedDocument(t *testing.T) {
	m := newTestManager(t)

	info := m.Parse(wellFormedDocument)

	assert.Equal(t, "TASKBOARD", info.Name)
	require.Len(t, info.Files, 3)
	assert.Equal(t, "src/app.py", info.Files[1].Path)
	assert.Equal(t, "templates/index.html", info.Files[3].Path)

	require.Len(t, info.Functions, 2)
	creation := info.Functions["1F"]
	require.NotNil(t, creation)
	assert.Equal(t, "TASK CREATION", creation.Name)
	assert.Equal(t, "Allows users to create new tasks with title and priority", creation.Description)
	assert.Equal(t, "1 -> 2", creation.FilesFlow)
	assert.Equal(t, []int{1, 2}, creation.FilesInvolved)
	assert.Contains(t, creation.Implementation, "File 1: Exposes the POST endpoint")
}

func TestParse_LenientUnrecognizedLines(t *testing.T) {
	m := newTestManager(t)

	document := "Project:Foo\nRandom: garbage\nDescription:Bar\ntechnology:Go\nPROJECT FILES INDEX:\n1. main.go\n"
	info := m.Parse(document)

	assert.Equal(t, "Foo", info.Name)
	assert.Equal(t, "Bar", info.Description)
	require.Len(t, info.Files, 1)
	assert.Equal(t, "main.go", info.Files[1].Path)
}

func TestParse_FirstHeaderMatchWins(t *testing.T) {
	m := newTestManager(t)

	info := m.Parse("Project:First\nProject:Second\n")

	assert.Equal(t, "First", info.Name)
}

func TestParse_ToleratesIndexGaps(t *testing.T) {
	m := newTestManager(t)

	info := m.Parse("Project:Foo\nPROJECT FILES INDEX:\n1. a.py\n5. b.py\n")

	require.Len(t, info.Files, 2)
	assert.Equal(t, "a.py", info.Files[1].Path)
	assert.Equal(t, "b.py", info.Files[5].Path)
}

func TestRoundTrip_ParseGenerateParse(t *testing.T) {
	m := newTestManager(t)

	first := m.Parse(wellFormedDocument)
	regenerated := m.Generate(first)
	second := m.Parse(regenerated)

	assert.Equal(t, first, second)
}

func TestGenerate_Idempotent(t *testing.T) {
	m := newTestManager(t)

	info := m.Parse(wellFormedDocument)

	assert.Equal(t, m.Generate(info), m.Generate(info))
}

func TestGenerate_PreservesIndexToPathMapping(t *testing.T) {
	m := newTestManager(t)

	document := "Project:Foo\nPROJECT FILES INDEX:\n1. a.py\n2. b.py\n\nAll functions:\n1F. SYNC\nSyncs a with b\nFiles(Index) Flow: 1 -> 2\nImplementation:\nFile 1: Reads the source\nFile 2: Writes the target\n"
	info := m.Parse(m.Generate(m.Parse(document)))

	assert.Equal(t, "a.py", info.Files[1].Path)
	assert.Equal(t, "b.py", info.Files[2].Path)
	assert.Equal(t, "1 -> 2", info.Functions["1F"].FilesFlow)
	assert.Equal(t, []int{1, 2}, info.Functions["1F"].FilesInvolved)
}

func TestLoad_NotFound(t *testing.T) {
	m := &Manager{Path: filepath.Join(t.TempDir(), "missing.txt")}

	_, err := m.Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFunction_NoAutosave(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.Path, []byte(wellFormedDocument), 0644))

	info, err := m.Load()
	require.NoError(t, err)

	id := m.AddFunction(info, "EXPORT", "Exports the board as CSV", "File 2: Streams rows", []int{2})
	assert.Equal(t, "3F", id)

	// Without an intervening Save, Load must not see the new function.
	reloaded, err := m.Load()
	require.NoError(t, err)
	assert.NotContains(t, reloaded.Functions, "3F")

	require.NoError(t, m.Save(info))
	persisted, err := m.Load()
	require.NoError(t, err)
	require.Contains(t, persisted.Functions, "3F")
	assert.Equal(t, "EXPORT", persisted.Functions["3F"].Name)
	assert.Equal(t, []int{2}, persisted.Functions["3F"].FilesInvolved)
}

func TestSave_WritesByteIdenticalOnRepeat(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	require.NoError(t, m.Save(info))
	first, err := os.ReadFile(m.Path)
	require.NoError(t, err)

	require.NoError(t, m.Save(info))
	second, err := os.ReadFile(m.Path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDeleteFile_DropsFunctionReferences(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	require.NoError(t, m.DeleteFile(info, 2))

	assert.NotContains(t, info.Files, 2)
	assert.Equal(t, []int{1}, info.Functions["1F"].FilesInvolved)
	assert.Equal(t, []int{3}, info.Functions["2F"].FilesInvolved)
}

func TestReorderFiles_CompactsAndRemaps(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse("Project:Foo\nPROJECT FILES INDEX:\n2. a.py\n7. b.py\n\nAll functions:\n1F. SYNC\nSyncs files\nFiles(Index) Flow: 2 -> 7\nImplementation:\nFile 7: Writes output\n")

	m.ReorderFiles(info)

	require.Len(t, info.Files, 2)
	assert.Equal(t, "a.py", info.Files[1].Path)
	assert.Equal(t, "b.py", info.Files[2].Path)
	assert.Equal(t, "1 -> 2", info.Functions["1F"].FilesFlow)
	assert.Equal(t, []int{1, 2}, info.Functions["1F"].FilesInvolved)
}

func TestValidate_ReportsDanglingRefsAndDuplicates(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	info.Functions["1F"].FilesInvolved = append(info.Functions["1F"].FilesInvolved, 42)
	info.Files[4] = info.Files[1]

	issues := m.Validate(info)

	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "File 42")
	assert.Contains(t, issues[1].Message, "src/app.py")
}

func TestValidate_SoftInvariantDoesNotBlockSave(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)
	info.Functions["1F"].FilesInvolved = []int{99}

	assert.NoError(t, m.Save(info))
}

func TestSearchFunctions(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	results := m.SearchFunctions(info, "render")
	require.Len(t, results, 1)
	assert.Equal(t, "BOARD RENDERING", results[0].Name)

	assert.Empty(t, m.SearchFunctions(info, "nonexistent"))
}

func TestEditAndDeleteFunction(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	name := "TASK INTAKE"
	require.NoError(t, m.EditFunction(info, "1F", &name, nil, nil, nil))
	assert.Equal(t, "TASK INTAKE", info.Functions["1F"].Name)
	assert.Equal(t, "Allows users to create new tasks with title and priority", info.Functions["1F"].Description)

	require.NoError(t, m.DeleteFunction(info, "2F"))
	assert.NotContains(t, info.Functions, "2F")

	assert.Error(t, m.DeleteFunction(info, "9F"))
	assert.Error(t, m.EditFunction(info, "9F", &name, nil, nil, nil))
}

func TestAddAndEditFile(t *testing.T) {
	m := newTestManager(t)
	info := m.Parse(wellFormedDocument)

	index := m.AddFile(info, "src/export.py", "CSV export helper")
	assert.Equal(t, 4, index)

	path := "src/exporter.py"
	require.NoError(t, m.EditFile(info, index, &path, nil))
	assert.Equal(t, "src/exporter.py", info.Files[4].Path)
	assert.Equal(t, "CSV export helper", info.Files[4].Description)
}

func TestParse_PreservesConfigSection(t *testing.T) {
	m := newTestManager(t)
	document := wellFormedDocument + "key projct configuration: api\nport=8080\n"

	info := m.Parse(document)
	require.NotEmpty(t, info.ConfigSection)
	assert.Contains(t, info.ConfigSection, "port=8080")

	roundTripped := m.Parse(m.Generate(info))
	assert.Equal(t, info.ConfigSection, roundTripped.ConfigSection)
}
