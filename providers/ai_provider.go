package providers

import (
	"fmt"

	"github.com/dev-tahir/xcoder-cli/providers/contracts"
	"github.com/dev-tahir/xcoder-cli/providers/gemini"
	"github.com/dev-tahir/xcoder-cli/providers/ollama"
	token_contracts "github.com/dev-tahir/xcoder-cli/token_management/contracts"
)

// AIProviderConfig is the provider section of the application configuration.
type AIProviderConfig struct {
	Provider       string   `mapstructure:"provider"`
	BaseURL        string   `mapstructure:"base_url"`
	Model          string   `mapstructure:"model"`
	ApiKey         string   `mapstructure:"api_key"`
	Temperature    *float32 `mapstructure:"temperature"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	MaxRetries     int      `mapstructure:"max_retries"`
}

// ChatProviderFactory selects the configured chat provider implementation.
func ChatProviderFactory(config *AIProviderConfig, tokenManagement token_contracts.ITokenManagement) (contracts.IChatAIProvider, error) {
	switch config.Provider {
	case "gemini":
		return gemini.NewGeminiChatProvider(&gemini.GeminiConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			TimeoutSeconds:  config.TimeoutSeconds,
			MaxRetries:      config.MaxRetries,
			TokenManagement: tokenManagement,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}
}
