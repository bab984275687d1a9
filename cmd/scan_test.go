package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	detector_models "github.com/dev-tahir/xcoder-cli/detector/models"
	scanner_models "github.com/dev-tahir/xcoder-cli/scanner/models"
)

func TestProjectInfoFromScan(t *testing.T) {
	summary := &scanner_models.ScanSummary{
		Name:         "DEMO",
		Description:  "A demo project",
		Technologies: []string{"Go", "React"},
		Files: []scanner_models.ScannedFile{
			{Index: 1, RelativePath: "main.go"},
			{Index: 2, RelativePath: "web/app.jsx"},
		},
	}

	info := projectInfoFromScan(summary)

	assert.Equal(t, "DEMO", info.Name)
	assert.Equal(t, "Go, React", info.Technology)
	require.Len(t, info.Files, 2)
	assert.Equal(t, "main.go", info.Files[1].Path)
	assert.Equal(t, "web/app.jsx", info.Files[2].Path)
	assert.Empty(t, info.Functions)
}

func TestTechnologyNames(t *testing.T) {
	names := technologyNames([]detector_models.TechnologyInfo{
		{Name: "Python"}, {Name: "Browser-Extension"},
	})
	assert.Equal(t, []string{"Python", "Browser-Extension"}, names)
}

func TestParseIndices(t *testing.T) {
	assert.Equal(t, []int{1, 3, 7}, parseIndices("1 3,7"))
	assert.Nil(t, parseIndices(""))
	assert.Nil(t, parseIndices("zero -2"))
}

func TestFunctionNumber(t *testing.T) {
	assert.Equal(t, 3, functionNumber("3F"))
	assert.Equal(t, 12, functionNumber("12F"))
	assert.Equal(t, 0, functionNumber("junk"))
}
