package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderEcho   = "echo"
)

// Providers lists the provider names accepted by CreateModel.
var Providers = []string{ProviderOpenAI, ProviderOllama, ProviderEcho}

// CreateModel creates the language model for the configured provider.
func CreateModel(cfg Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return createOpenAIModel(cfg)
	case ProviderOllama:
		return createOllamaModel(cfg)
	case ProviderEcho:
		return NewEchoModel(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.Provider)
	}
}

// createOpenAIModel also serves OpenAI-compatible servers (vLLM, TGI, llama.cpp) through BaseURL.
func createOpenAIModel(cfg Config) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func createOllamaModel(cfg Config) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		return nil, fmt.Errorf("ollama does not support api keys")
	}
	return ollama.New(opts...)
}

// EchoModel is an offline model that answers every prompt with the prompt itself.
type EchoModel struct{}

var _ llms.Model = EchoModel{}

// NewEchoModel creates an echo model.
func NewEchoModel() EchoModel { return EchoModel{} }

// GenerateContent returns the text of the human and system messages, verbatim.
func (EchoModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, message := range messages {
		if message.Role != llms.ChatMessageTypeHuman && message.Role != llms.ChatMessageTypeSystem {
			continue
		}
		for _, part := range message.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: sb.String()}},
	}, nil
}

// Call implements the legacy Call interface.
func (m EchoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
