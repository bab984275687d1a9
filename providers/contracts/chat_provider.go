package contracts

import (
	"context"

	"github.com/dev-tahir/xcoder-cli/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse
}
