package contracts

import "github.com/dev-tahir/xcoder-cli/taskflow/models"

type ITaskFlowManager interface {
	Load() (*models.ProjectInfo, error)
	Parse(text string) *models.ProjectInfo
	Save(info *models.ProjectInfo) error
	Generate(info *models.ProjectInfo) string
	AddFunction(info *models.ProjectInfo, name, description, implementation string, filesInvolved []int) string
	EditFunction(info *models.ProjectInfo, id string, name, description, implementation *string, filesInvolved []int) error
	DeleteFunction(info *models.ProjectInfo, id string) error
	AddFile(info *models.ProjectInfo, path, description string) int
	EditFile(info *models.ProjectInfo, index int, path, description *string) error
	DeleteFile(info *models.ProjectInfo, index int) error
	ReorderFiles(info *models.ProjectInfo)
	SearchFunctions(info *models.ProjectInfo, query string) []*models.Function
	Validate(info *models.ProjectInfo) []models.ValidationIssue
}
