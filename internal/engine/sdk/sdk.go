package sdk

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/engine"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Engine drives chat completions through the go-openai client. BaseURL
// points it at any OpenAI-compatible provider.
type Engine struct {
	client *openai.Client
	retry  engine.Retrier
}

func New(cfg config.EngineConfig, log *logger.Logger) (*Engine, error) {
	return NewWithHTTPClient(cfg, log, nil)
}

// NewWithHTTPClient lets tests swap the transport.
func NewWithHTTPClient(cfg config.EngineConfig, log *logger.Logger, httpClient *http.Client) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai_sdk: api key required")
	}
	if log == nil {
		log = logger.Nop()
	}

	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		oc.BaseURL = base
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout.Duration > 0 {
		httpClient.Timeout = cfg.Timeout.Duration
	}
	oc.HTTPClient = httpClient

	return &Engine{
		client: openai.NewClientWithConfig(oc),
		retry:  engine.NewRetrier(cfg.Retries(), cfg.RateLimit, cfg.Burst, log.With("engine", "openai_sdk")),
	}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: toRole(m.Role), Content: m.Content})
	}
	if len(msgs) == 0 {
		return "", errors.New("no messages")
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return engine.Call(ctx, e.retry, "chat_completions", func(ctx context.Context) (string, error) {
		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", translateError(err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func toRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "system":
		return openai.ChatMessageRoleSystem
	case "assistant", "ai":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// translateError maps go-openai status errors onto engine.HTTPError so the
// shared retry policy can classify them.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &engine.HTTPError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &engine.HTTPError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
