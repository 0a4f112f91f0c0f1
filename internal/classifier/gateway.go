package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/dago-status-formatter/internal/category"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// GatewayAuthHeader authenticates against the Cloudflare AI gateway.
	GatewayAuthHeader = "cf-aig-authorization"

	defaultGatewayModel   = "gpt-4o-mini"
	defaultGatewayTimeout = 30 * time.Second
)

// GatewayConfig configures the chat completions backend
type GatewayConfig struct {
	// BaseURL is the OpenAI compatible root, e.g.
	// https://gateway.ai.cloudflare.com/v1/<account>/<gateway>/openai
	BaseURL string

	// APIKey is sent as the Authorization bearer token.
	APIKey string

	// GatewayToken is sent in the cf-aig-authorization header when set.
	GatewayToken string

	Model   string
	Timeout time.Duration
}

// Gateway classifies text with an OpenAI compatible chat completions API
type Gateway struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGateway creates a gateway classifier
func NewGateway(cfg GatewayConfig, logger *zap.Logger) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGatewayModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.GatewayToken != "" {
		transport = &headerTransport{
			base:   transport,
			header: GatewayAuthHeader,
			value:  "Bearer " + cfg.GatewayToken,
		}
	}
	clientCfg.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	return &Gateway{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Model returns the chat model name
func (g *Gateway) Model() string {
	return g.model
}

// Classify asks the model for a strict json_schema answer for c
func (g *Gateway) Classify(ctx context.Context, c *category.Category, text string) (*Result, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.SystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   c.SchemaName,
				Schema: c.Schema,
				Strict: true,
			},
		},
	}

	g.logger.Debug("calling gateway",
		zap.String("category", c.Name),
		zap.String("model", g.model),
	)

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	content, err := extractObject(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("gateway response received",
		zap.String("category", c.Name),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return newResult(content)
}

// headerTransport adds a fixed header to every request
type headerTransport struct {
	base   http.RoundTripper
	header string
	value  string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(t.header, t.value)
	return t.base.RoundTrip(clone)
}
