package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/dev-tahir/xcoder-cli/providers/models"
)

// CommitMessageRequest carries the repository state the model needs to write
// a commit message for applied changes.
type CommitMessageRequest struct {
	StagedDiff    string
	Branch        string
	RecentCommits []string
	UserRequest   string
}

// CommitMessageGenerator generates commit messages for applied chat changes.
type CommitMessageGenerator struct {
	aiProvider interface {
		ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse
	}
}

// NewCommitMessageGenerator creates a new commit message generator.
func NewCommitMessageGenerator(aiProvider interface {
	ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse
}) *CommitMessageGenerator {
	return &CommitMessageGenerator{aiProvider: aiProvider}
}

// GenerateCommitMessage asks the model for a commit message covering the
// staged diff.
func (g *CommitMessageGenerator) GenerateCommitMessage(ctx context.Context, request CommitMessageRequest) (string, error) {
	responseChan := g.aiProvider.ChatCompletionRequest(ctx, buildCommitUserPrompt(request), commitSystemPrompt)

	var messageBuilder strings.Builder
	for response := range responseChan {
		if response.Err != nil {
			return "", fmt.Errorf("failed to generate commit message: %w", response.Err)
		}
		messageBuilder.WriteString(response.Content)
	}

	message := strings.TrimSpace(messageBuilder.String())
	if message == "" {
		return "", fmt.Errorf("empty commit message from model")
	}
	return message, nil
}

const commitSystemPrompt = `You are a helpful AI assistant that generates concise, meaningful Git commit messages.

Please follow these guidelines for commit messages:
1. Keep the first line under 72 characters (the title)
2. Use present tense ("Add feature" not "Added feature")
3. Use imperative mood ("Move cursor to..." not "Moves cursor to...")
4. Start with a capital letter
5. Don't end with a period
6. Be specific about what changed

Format the commit message as:
- First line: Brief summary (required)
- Second line: Leave blank
- Third+ lines: Detailed explanation if needed

Return only the commit message, no other text.`

func buildCommitUserPrompt(request CommitMessageRequest) string {
	var prompt strings.Builder

	prompt.WriteString("Please generate a commit message for the following changes:")

	if request.Branch != "" {
		prompt.WriteString(fmt.Sprintf("\nBranch: %s", request.Branch))
	}

	if len(request.RecentCommits) > 0 {
		prompt.WriteString("\n\n## Recent Commit History:")
		for i, commit := range request.RecentCommits {
			if i >= 3 {
				break
			}
			prompt.WriteString(fmt.Sprintf("\n- %s", commit))
		}
	}

	if request.StagedDiff != "" {
		prompt.WriteString("\n\n## Staged Changes:")
		diffLines := strings.Split(request.StagedDiff, "\n")
		if len(diffLines) > 100 {
			prompt.WriteString(fmt.Sprintf("\n```diff\n%s\n... (truncated %d more lines)\n```",
				strings.Join(diffLines[:100], "\n"), len(diffLines)-100))
		} else {
			prompt.WriteString(fmt.Sprintf("\n```diff\n%s\n```", request.StagedDiff))
		}
	}

	if request.UserRequest != "" {
		prompt.WriteString(fmt.Sprintf("\n\n## User Request That Produced These Changes:\n%s", request.UserRequest))
	}

	return prompt.String()
}
