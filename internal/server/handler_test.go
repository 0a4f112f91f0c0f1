package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/aescanero/dago-status-formatter/internal/classifier"
	"github.com/aescanero/dago-status-formatter/internal/eval/cel"
	"github.com/aescanero/dago-status-formatter/internal/events"
	"github.com/aescanero/dago-status-formatter/internal/render"
	"github.com/aescanero/dago-status-formatter/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "test-token"

type fakeClassifier struct {
	raw      string
	cached   bool
	err      error
	gotName  string
	gotText  string
	numCalls int
}

func (f *fakeClassifier) Model() string { return "fake" }

func (f *fakeClassifier) Classify(_ context.Context, c *category.Category, text string) (*classifier.Result, error) {
	f.numCalls++
	f.gotName = c.Name
	f.gotText = text
	if f.err != nil {
		return nil, f.err
	}
	data, err := render.DecodeJSON([]byte(f.raw))
	if err != nil {
		return nil, err
	}
	return &classifier.Result{Raw: json.RawMessage(f.raw), Data: data, Cached: f.cached}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func newTestHandler(t *testing.T, cls classifier.Classifier, pub events.Publisher, sanitize bool) *Handler {
	t.Helper()

	reg, err := category.Default()
	require.NoError(t, err)
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	v, err := validate.New(evaluator, reg.Names(), validate.DefaultRules)
	require.NoError(t, err)

	return NewHandler(Options{
		AuthToken:    testToken,
		Registry:     reg,
		Validator:    v,
		Classifier:   cls,
		Publisher:    pub,
		MaxBodyBytes: 1024,
		SanitizeHTML: sanitize,
		Logger:       zap.NewNop(),
	})
}

func do(h http.Handler, method, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Success(t *testing.T) {
	tests := []struct {
		name   string
		status string
		raw    string
		want   string
	}{
		{
			name:   "canceled",
			status: "canceled",
			raw:    `{"why_not":["time has passed."]}`,
			want:   "<ul><li>Why not?<ul><li>time has passed.</li></ul></ul>",
		},
		{
			name:   "done",
			status: "done",
			raw:    `{"key_learnings":["ship smaller","test earlier"]}`,
			want:   "<ul><li>Any key learnings or next actions?<ul><li>ship smaller</li><li>test earlier</li></ul></li></ul>",
		},
		{
			name:   "not_done with reversed keys",
			status: "not_done",
			raw:    `{"do_next":["ask early"],"blocked":["no access"]}`,
			want: "<ul><li>What blocked you from doing this action?<ul><li>no access</li></ul>" +
				"<li>What will you do to ensure you don't get blocked again?<ul><li>ask early</li></ul></ul>",
		},
		{
			name:   "empty arrays remove blocks",
			status: "not_done",
			raw:    `{"blocked":[],"do_next":[]}`,
			want: "<ul><li>What blocked you from doing this action?<ul></ul>" +
				"<li>What will you do to ensure you don't get blocked again?<ul></ul></ul>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &fakeClassifier{raw: tt.raw}
			pub := &recordingPublisher{}
			h := newTestHandler(t, cls, pub, false)

			rec := do(h, http.MethodPost, testToken, `{"status":"`+tt.status+`","text":"some text"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
			assert.Equal(t, tt.want, decodeBody(t, rec)["html"])
			assert.Equal(t, tt.status, cls.gotName)
			assert.Equal(t, "some text", cls.gotText)

			require.Len(t, pub.events, 1)
			assert.Equal(t, events.TypeFormatted, pub.events[0].Type)
			assert.Equal(t, tt.status, pub.events[0].Status)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), pub.events[0].RequestID)
			assert.False(t, pub.events[0].Timestamp.IsZero())
		})
	}
}

func TestHandler_HTMLNotEscapedInJSON(t *testing.T) {
	h := newTestHandler(t, &fakeClassifier{raw: `{"why_not":["x"]}`}, nil, false)

	rec := do(h, http.MethodPost, testToken, `{"status":"canceled","text":"x"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"html":"<ul>`)
}

func TestHandler_Sanitize(t *testing.T) {
	cls := &fakeClassifier{raw: `{"why_not":["<script>alert(1)</script>late"]}`}
	h := newTestHandler(t, cls, nil, true)

	rec := do(h, http.MethodPost, testToken, `{"status":"canceled","text":"x"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	html := decodeBody(t, rec)["html"]
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<li>late</li>")
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		auth      string
		body      string
		wantCode  int
		wantError string
	}{
		{name: "missing auth", method: http.MethodPost, body: `{}`, wantCode: 401, wantError: "Unauthorized"},
		{name: "wrong auth", method: http.MethodPost, auth: "nope", body: `{}`, wantCode: 401, wantError: "Unauthorized"},
		{name: "bearer prefix is not stripped", method: http.MethodPost, auth: "Bearer " + testToken, body: `{}`, wantCode: 401, wantError: "Unauthorized"},
		{name: "auth checked before method", method: http.MethodGet, wantCode: 401, wantError: "Unauthorized"},
		{name: "get", method: http.MethodGet, auth: testToken, wantCode: 405, wantError: "Method not allowed"},
		{name: "put", method: http.MethodPut, auth: testToken, body: `{}`, wantCode: 405, wantError: "Method not allowed"},
		{name: "invalid json", method: http.MethodPost, auth: testToken, body: `{"status":`, wantCode: 400, wantError: "Invalid JSON body"},
		{name: "empty body", method: http.MethodPost, auth: testToken, body: ``, wantCode: 400, wantError: "Invalid JSON body"},
		{name: "oversized body", method: http.MethodPost, auth: testToken, body: `{"status":"done","text":"` + strings.Repeat("a", 2048) + `"}`, wantCode: 400, wantError: "Invalid JSON body"},
		{name: "bad status", method: http.MethodPost, auth: testToken, body: `{"status":"pending","text":"x"}`, wantCode: 400, wantError: "Invalid request: status must be one of done, not_done, or canceled"},
		{name: "non object body", method: http.MethodPost, auth: testToken, body: `"done"`, wantCode: 400, wantError: "Invalid request: status must be one of done, not_done, or canceled"},
		{name: "blank text", method: http.MethodPost, auth: testToken, body: `{"status":"done","text":"   "}`, wantCode: 400, wantError: "Invalid request: text must be a non-empty string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &fakeClassifier{raw: `{}`}
			h := newTestHandler(t, cls, nil, false)

			rec := do(h, tt.method, tt.auth, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
			assert.Zero(t, cls.numCalls)
			if tt.wantCode == http.StatusMethodNotAllowed {
				assert.Equal(t, "POST", rec.Header().Get("Allow"))
			}
		})
	}
}

func TestHandler_ClassifierFailure(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("gateway request failed: 502 upstream said: learned a lot")}
	pub := &recordingPublisher{}
	h := newTestHandler(t, cls, pub, false)

	rec := do(h, http.MethodPost, testToken, `{"status":"done","text":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeFailed, pub.events[0].Type)
	assert.Equal(t, events.ErrorTransport, pub.events[0].Error)
	assert.NotContains(t, pub.events[0].Error, "learned")
}

func TestHandler_FailureEventErrorClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "empty response", err: fmt.Errorf("gateway: %w", classifier.ErrEmptyResponse), want: events.ErrorEmptyResponse},
		{name: "malformed result", err: fmt.Errorf("content %q: %w", "secret text", classifier.ErrMalformedResult), want: events.ErrorMalformedResult},
		{name: "timeout", err: fmt.Errorf("gateway request failed: %w", context.DeadlineExceeded), want: events.ErrorTimeout},
		{name: "other", err: errors.New("status code: 500, message: quoted prompt"), want: events.ErrorTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			h := newTestHandler(t, &fakeClassifier{err: tt.err}, pub, false)

			rec := do(h, http.MethodPost, testToken, `{"status":"done","text":"x"}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			require.Len(t, pub.events, 1)
			assert.Equal(t, tt.want, pub.events[0].Error)
		})
	}
}

func TestHandler_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis down")}
	h := newTestHandler(t, &fakeClassifier{raw: `{"why_not":["x"]}`}, pub, false)

	rec := do(h, http.MethodPost, testToken, `{"status":"canceled","text":"x"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.events, 1)
}

func TestHandler_ScalarFieldLeavesBlock(t *testing.T) {
	h := newTestHandler(t, &fakeClassifier{raw: `{"why_not":"not a list"}`}, nil, false)

	rec := do(h, http.MethodPost, testToken, `{"status":"canceled","text":"x"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"<ul><li>Why not?<ul>{{#each why_not}}<li>{{this}}</li>{{/each}}</ul></ul>",
		decodeBody(t, rec)["html"],
	)
}

func TestHandler_EmptyTokenRejectsEverything(t *testing.T) {
	h := newTestHandler(t, &fakeClassifier{raw: `{}`}, nil, false)
	h.authToken = nil

	rec := do(h, http.MethodPost, "anything", `{"status":"done","text":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
