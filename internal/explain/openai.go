package explain

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/slogutil"
)

// OpenAI explains steps through a chat completion endpoint: OpenAI itself or any
// compatible server such as a local Ollama.
type OpenAI struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	limiter   *rate.Limiter
	catalogue *Catalogue
	logger    *slog.Logger
}

// NewOpenAI creates the model backend. The API key is read from the environment
// variable named by cfg.APIKeyEnv; it may only be empty when a custom base URL
// points at a server that does not check it.
func NewOpenAI(cfg config.ExplainerConfig, logger *slog.Logger) (*OpenAI, error) {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, errors.Newf(errors.ExplainerUnavailable, "%s is not set", cfg.APIKeyEnv)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		timeout:   timeout,
		limiter:   rate.NewLimiter(limit, 1),
		catalogue: DefaultCatalogue(),
		logger:    slogutil.ForComponent(logger, "explain"),
	}, nil
}

// Name implements Explainer.
func (o *OpenAI) Name() string { return "openai" }

// Explain implements Explainer. The reply is trimmed to one short sentence.
func (o *OpenAI) Explain(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.limiter.Wait(ctx); err != nil {
		return "", errors.New(errors.ExplainerUnavailable, "rate limit wait: "+err.Error(), err)
	}

	prompt := o.catalogue.For(req.Pattern)
	var changes string
	if req.Step != nil {
		changes = FormatChanges(req.Step.Changes)
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
	}
	if req.Problem != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Problem: " + clip(req.Problem, 300),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.User(req.CodeLine(), changes),
	})

	o.logger.Debug("Requesting step explanation",
		"model", o.model,
		"pattern", string(req.Pattern))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.1,
		TopP:        0.7,
		MaxTokens:   40,
		Stop:        []string{"\n"},
	})
	if err != nil {
		return "", errors.New(errors.ExplainerUnavailable, "chat completion failed: "+err.Error(), err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ExplainerUnavailable, "chat completion returned no choices", nil)
	}
	text := Trim(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New(errors.ExplainerUnavailable, "chat completion returned empty content", nil)
	}
	return text, nil
}
