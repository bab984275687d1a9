package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dev-tahir/xcoder-cli/providers/contracts"
	"github.com/dev-tahir/xcoder-cli/providers/models"
	gemini_models "github.com/dev-tahir/xcoder-cli/providers/gemini/models"
	contracts2 "github.com/dev-tahir/xcoder-cli/token_management/contracts"
)

// GeminiConfig implements the chat provider interface against the Gemini
// generateContent API.
type GeminiConfig struct {
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	TimeoutSeconds  int
	MaxRetries      int
	TokenManagement contracts2.ITokenManagement
}

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// NewGeminiChatProvider initializes a new Gemini provider.
func NewGeminiChatProvider(config *GeminiConfig) contracts.IChatAIProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultTimeout / time.Second)
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultRetries
	}
	return config
}

// ChatCompletionRequest sends the prompt and user input as a single
// generateContent call. The reply arrives on the channel as one content
// chunk followed by Done; transport failures are retried a bounded number
// of times before surfacing ErrServiceUnavailable.
func (geminiProvider *GeminiConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		reqBody := gemini_models.GenerateContentRequest{
			Contents: []gemini_models.Content{
				{Role: "user", Parts: []gemini_models.Part{{Text: prompt + "\n\n" + userInput}}},
			},
		}
		if geminiProvider.Temperature != nil {
			reqBody.GenerationConfig = &gemini_models.GenerationConfig{Temperature: geminiProvider.Temperature}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %v", err)}
			return
		}

		url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiProvider.BaseURL, geminiProvider.Model, geminiProvider.ApiKey)
		client := &http.Client{Timeout: time.Duration(geminiProvider.TimeoutSeconds) * time.Second}

		var resp *http.Response
		var lastErr error
		for attempt := 0; attempt < geminiProvider.MaxRetries; attempt++ {
			req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
			if err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %v", err)}
				return
			}
			req.Header.Set("Content-Type", "application/json")

			resp, lastErr = client.Do(req)
			if lastErr == nil {
				break
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %v", lastErr)}
				return
			}
		}
		if lastErr != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: %v", models.ErrServiceUnavailable, lastErr)}
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading response: %v", err)}
			return
		}

		if resp.StatusCode != http.StatusOK {
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: status code '%d'", models.ErrServiceUnavailable, resp.StatusCode)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("%w: status code '%d' - %s", models.ErrServiceUnavailable, resp.StatusCode, apiError.Error.Message)}
			return
		}

		var response gemini_models.GenerateContentResponse
		if err := json.Unmarshal(body, &response); err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling response: %v", err)}
			return
		}
		if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("empty response from gemini")}
			return
		}

		responseChan <- models.StreamResponse{Content: response.Candidates[0].Content.Parts[0].Text}

		if response.UsageMetadata.PromptTokenCount > 0 && geminiProvider.TokenManagement != nil {
			geminiProvider.TokenManagement.UsedTokens(
				response.UsageMetadata.PromptTokenCount,
				response.UsageMetadata.CandidatesTokenCount,
			)
		}

		responseChan <- models.StreamResponse{Done: true}
	}()

	return responseChan
}
