package contracts

import (
	"bufio"
	"context"

	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
)

type IChatManager interface {
	SessionID() string
	ProcessRequest(ctx context.Context, info *taskflow_models.ProjectInfo, userRequest string, reader *bufio.Reader) error
}
