package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/aescanero/dago-status-formatter/internal/eval/template"
	"go.uber.org/zap"
)

// PromptTemplate is the Handlebars prompt sent to adapter backends, which
// have no structured output mode.
const PromptTemplate = `{{{system}}}

Return only a JSON object, with no other text, that matches this JSON schema:
{{{schema}}}

Every field ({{join fields ", "}}) must be present as an array of strings.

Text:
{{{text}}}`

const defaultMaxTokens = 1024

// CompleteFunc sends one completion request
type CompleteFunc func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error)

// FromLLMClient adapts a dago-adapters client to CompleteFunc
func FromLLMClient(client ports.LLMClient) CompleteFunc {
	return func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
		respInterface, err := client.GenerateCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("llm completion failed: %w", err)
		}

		resp, ok := respInterface.(*domain.LLMResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected response type from LLM: %T", respInterface)
		}
		return resp, nil
	}
}

// WithTimeout bounds every call made through complete
func WithTimeout(complete CompleteFunc, timeout time.Duration) CompleteFunc {
	if timeout <= 0 {
		return complete
	}
	return func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return complete(ctx, req)
	}
}

// Adapter classifies text through a provider adapter, asking for JSON in the
// prompt
type Adapter struct {
	complete CompleteFunc
	engine   *template.Engine
	model    string
	logger   *zap.Logger
}

// NewAdapter creates an adapter classifier
func NewAdapter(complete CompleteFunc, model string, logger *zap.Logger) *Adapter {
	return &Adapter{
		complete: complete,
		engine:   template.NewEngine(),
		model:    model,
		logger:   logger,
	}
}

// Model returns the provider model name
func (a *Adapter) Model() string {
	return a.model
}

// Classify renders the prompt for c and parses the JSON object in the reply
func (a *Adapter) Classify(ctx context.Context, c *category.Category, text string) (*Result, error) {
	prompt, err := a.renderPrompt(c, text)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	req := &domain.LLMRequest{
		Model: a.model,
		Messages: []domain.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: defaultMaxTokens,
	}

	a.logger.Debug("calling llm adapter",
		zap.String("category", c.Name),
		zap.String("model", a.model),
	)

	resp, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrEmptyResponse
	}

	content, err := extractObject(resp.Content)
	if err != nil {
		return nil, err
	}

	return newResult(content)
}

func (a *Adapter) renderPrompt(c *category.Category, text string) (string, error) {
	data := map[string]interface{}{
		"system": c.SystemMessage,
		"schema": string(c.Schema),
		"fields": c.Fields,
		"text":   text,
	}
	return a.engine.Render(PromptTemplate, data)
}
