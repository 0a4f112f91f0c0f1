package classifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aescanero/dago-status-formatter/internal/category"
)

var testCategory = &category.Category{
	Name:          "not_done",
	SystemMessage: "classify into blocked and do_next",
	SchemaName:    "action_not_done",
	Schema:        json.RawMessage(`{"type":"object","properties":{"blocked":{"type":"array","items":{"type":"string"}},"do_next":{"type":"array","items":{"type":"string"}}},"required":["blocked","do_next"],"additionalProperties":false}`),
	Template:      "{{#each blocked}}<li>{{this}}</li>{{/each}}{{#each do_next}}<li>{{this}}</li>{{/each}}",
	Fields:        []string{"blocked", "do_next"},
}

type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setCall int
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCall++
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

type stubClassifier struct {
	calls int
	raw   string
	err   error
	model string
}

func (s *stubClassifier) Model() string { return s.model }

func (s *stubClassifier) Classify(_ context.Context, _ *category.Category, _ string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return newResult(s.raw)
}
