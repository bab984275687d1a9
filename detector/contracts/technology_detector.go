package contracts

import (
	"context"

	"github.com/dev-tahir/xcoder-cli/detector/models"
)

type ITechnologyDetector interface {
	DetectTechnologies(ctx context.Context, projectRoot string) []models.TechnologyInfo
	WriteIgnoreFiles(ctx context.Context, projectRoot string, technologies []models.TechnologyInfo) []string
}
