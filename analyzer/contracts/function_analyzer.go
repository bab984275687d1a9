package contracts

import (
	"context"

	"github.com/dev-tahir/xcoder-cli/analyzer/models"
	scanner_models "github.com/dev-tahir/xcoder-cli/scanner/models"
)

type IFunctionAnalyzer interface {
	AnalyzeProjectFunctions(ctx context.Context, files []scanner_models.ScannedFile, technologies []string) ([]models.AnalyzedFunction, error)
	ProcessFile(relativePath string, sourceCode []byte) []string
}
