package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dev-tahir/xcoder-cli/providers/contracts"
	"github.com/dev-tahir/xcoder-cli/providers/models"
	ollama_models "github.com/dev-tahir/xcoder-cli/providers/ollama/models"
	contracts2 "github.com/dev-tahir/xcoder-cli/token_management/contracts"
)

// OllamaConfig implements the chat provider interface for a local Ollama
// instance with streamed responses.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	TokenManagement contracts2.ITokenManagement
}

const defaultBaseURL = "http://localhost:11434/api"

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return config
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var lineBuffer strings.Builder

	go func() {
		defer close(responseChan)

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model: ollamaProvider.Model,
			Messages: []ollama_models.Message{
				{Role: "system", Content: prompt},
				{Role: "user", Content: userInput},
			},
			Stream:      true,
			Temperature: ollamaProvider.Temperature,
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %v", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %v", err)}
			return
		}
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %v", err)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: %v", models.ErrServiceUnavailable, err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: status code '%d'", models.ErrServiceUnavailable, resp.StatusCode)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: status code '%d' - %s", models.ErrServiceUnavailable, resp.StatusCode, apiError.Error.Message)}
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					break
				}
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading stream: %v", err)}
				return
			}

			var response ollama_models.OllamaChatCompletionResponse
			if err := json.Unmarshal([]byte(line), &response); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %v", err)}
				return
			}

			if len(response.Message.Content) > 0 {
				lineBuffer.WriteString(response.Message.Content)
				// Flush whole lines so the renderer never splits a line.
				if strings.Contains(response.Message.Content, "\n") {
					responseChan <- models.StreamResponse{Content: lineBuffer.String()}
					lineBuffer.Reset()
				}
			}

			if response.Done {
				if lineBuffer.Len() > 0 {
					responseChan <- models.StreamResponse{Content: lineBuffer.String()}
					lineBuffer.Reset()
				}
				if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
					ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
				}
				responseChan <- models.StreamResponse{Done: true}
				return
			}
		}

		if lineBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: lineBuffer.String()}
		}
		responseChan <- models.StreamResponse{Done: true}
	}()

	return responseChan
}
