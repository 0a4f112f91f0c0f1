package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/aescanero/dago-status-formatter/internal/render"
	"github.com/tidwall/gjson"
)

var (
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("empty classification response")

	// ErrMalformedResult is returned when the answer is not a JSON object.
	ErrMalformedResult = errors.New("malformed classification result")
)

// Classifier classifies text for a category
type Classifier interface {
	Classify(ctx context.Context, c *category.Category, text string) (*Result, error)

	// Model identifies the model answering, used to partition caches.
	Model() string
}

// Result is a classification answer
type Result struct {
	Raw    json.RawMessage
	Data   *render.Data
	Cached bool
}

// Fields returns the number of top-level keys in the answer.
func (r *Result) Fields() int {
	return r.Data.Len()
}

// newResult decodes a JSON object answer
func newResult(raw string) (*Result, error) {
	data, err := render.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return &Result{Raw: json.RawMessage(raw), Data: data}, nil
}

// extractObject returns the outermost JSON object in a completion, which
// may be wrapped in prose or a code fence.
func extractObject(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	if gjson.Valid(content) && gjson.Parse(content).IsObject() {
		return content, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", ErrMalformedResult)
	}

	candidate := content[start : end+1]
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("%w: invalid JSON object in response", ErrMalformedResult)
	}
	return candidate, nil
}
