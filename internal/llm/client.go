package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aria.internal.llm")

// DefaultBaseURL is OpenRouter's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const defaultTimeout = 30 * time.Second

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client sends a conversation buffer to the completion endpoint and returns the
// assistant's reply. Each call is a single request; failures are not retried.
type Client struct {
	api     chatClient
	profile Profile
	timeout time.Duration
	logger  *logging.Logger
}

// Config holds what NewClient needs to reach the endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient builds a go-openai backed client for profile.
func NewClient(cfg Config, profile Profile, logger *logging.Logger) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{base: base, referer: profile.Referer, title: profile.Title},
		Timeout:   httpClient.Timeout,
	}
	return newClient(openai.NewClientWithConfig(clientCfg), profile, cfg.Timeout, logger)
}

func newClient(api chatClient, profile Profile, timeout time.Duration, logger *logging.Logger) *Client {
	if api == nil {
		panic("llm: chat client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if profile.Model == "" {
		profile.Model = DefaultModel
	}
	return &Client{api: api, profile: profile, timeout: timeout, logger: logger}
}

// Profile returns the sampling profile the client sends with every request.
func (c *Client) Profile() Profile {
	return c.profile
}

// Complete returns the first choice's content for the given buffer.
func (c *Client) Complete(ctx context.Context, entries []conversation.Entry) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.profile", c.profile.Name),
		attribute.Int("llm.messages", len(entries)),
	)

	req := openai.ChatCompletionRequest{
		Model:            c.profile.Model,
		Messages:         toMessages(entries),
		Temperature:      c.profile.Temperature,
		MaxTokens:        c.profile.MaxTokens,
		PresencePenalty:  c.profile.PresencePenalty,
		FrequencyPenalty: c.profile.FrequencyPenalty,
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		classified := classify("complete", err)
		span.RecordError(classified)
		c.logger.Error("completion request failed",
			"profile", c.profile.Name,
			"class", Class(classified),
			"elapsed_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return "", classified
	}
	if len(resp.Choices) == 0 {
		err := &UpstreamError{Op: "complete", Message: "no choices returned", Err: errors.New("empty choices")}
		span.RecordError(err)
		return "", err
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		err := &UpstreamError{Op: "complete", Message: "empty reply content", Err: errors.New("empty content")}
		span.RecordError(err)
		return "", err
	}
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("llm.choices", len(resp.Choices)))
	}
	return reply, nil
}

func toMessages(entries []conversation.Entry) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(entries))
	for _, e := range entries {
		role := openai.ChatMessageRoleUser
		switch e.Role {
		case conversation.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case conversation.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: e.Content})
	}
	return out
}

// headerTransport adds OpenRouter's attribution headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
