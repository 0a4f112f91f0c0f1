package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/aescanero/dago-status-formatter/internal/classifier"
	"github.com/aescanero/dago-status-formatter/internal/events"
	"github.com/aescanero/dago-status-formatter/internal/render"
	"github.com/aescanero/dago-status-formatter/internal/validate"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Public error messages
const (
	msgUnauthorized     = "Unauthorized"
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidJSON      = "Invalid JSON body"
	msgInternal         = "Internal server error"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

const publishTimeout = 2 * time.Second

// FormatResponse is the success body
type FormatResponse struct {
	HTML string `json:"html"`
}

// ErrorResponse is the failure body
type ErrorResponse struct {
	Error string `json:"error"`
}

// Options configures a Handler
type Options struct {
	AuthToken    string
	Registry     *category.Registry
	Validator    *validate.Validator
	Classifier   classifier.Classifier
	Publisher    events.Publisher
	MaxBodyBytes int64
	SanitizeHTML bool
	Logger       *zap.Logger
}

// Handler authenticates, validates, classifies and renders status text
type Handler struct {
	authToken  []byte
	registry   *category.Registry
	validator  *validate.Validator
	classifier classifier.Classifier
	publisher  events.Publisher
	sanitizer  *bluemonday.Policy
	maxBody    int64
	logger     *zap.Logger
}

// NewHandler creates a formatter handler
func NewHandler(opts Options) *Handler {
	h := &Handler{
		authToken:  []byte(opts.AuthToken),
		registry:   opts.Registry,
		validator:  opts.Validator,
		classifier: opts.Classifier,
		publisher:  opts.Publisher,
		maxBody:    opts.MaxBodyBytes,
		logger:     opts.Logger,
	}
	if h.publisher == nil {
		h.publisher = events.Noop{}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if opts.SanitizeHTML {
		h.sanitizer = bluemonday.UGCPolicy()
	}
	return h
}

// ServeHTTP handles one formatting request
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)
	logger := h.logger.With(zap.String("request_id", requestID))

	if !h.authorized(r.Header.Get("Authorization")) {
		logger.Warn("authorization failed: invalid or missing token")
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgUnauthorized}, logger)
		return
	}

	if r.Method != http.MethodPost {
		logger.Warn("invalid method", zap.String("method", r.Method))
		w.Header().Set("Allow", http.MethodPost)
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: msgMethodNotAllowed}, logger)
		return
	}

	raw, err := h.readBody(w, r)
	if err != nil {
		logger.Warn("failed to read body", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON}, logger)
		return
	}

	body, err := validate.Decode(raw)
	if err != nil {
		logger.Warn("json parse error", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON}, logger)
		return
	}

	req, err := h.validator.Validate(r.Context(), body)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			logger.Warn("invalid request", zap.String("rule", verr.Rule))
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Message}, logger)
			return
		}
		logger.Error("validation failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal}, logger)
		return
	}
	logger = logger.With(zap.String("status", req.Status))

	html, result, err := h.format(r.Context(), req)
	if err != nil {
		logger.Error("error processing request", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal}, logger)
		h.publish(r.Context(), logger, events.Event{
			Type:       events.TypeFailed,
			RequestID:  requestID,
			Status:     req.Status,
			DurationMS: time.Since(start).Milliseconds(),
			Error:      errorClass(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, FormatResponse{HTML: html}, logger)

	logger.Info("formatted status text",
		zap.Bool("cached", result.Cached),
		zap.Int("fields", result.Fields()),
		zap.Duration("duration", time.Since(start)),
	)
	h.publish(r.Context(), logger, events.Event{
		Type:       events.TypeFormatted,
		RequestID:  requestID,
		Status:     req.Status,
		Cached:     result.Cached,
		Fields:     result.Fields(),
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// format classifies the text and renders it into the status template
func (h *Handler) format(ctx context.Context, req *validate.Request) (string, *classifier.Result, error) {
	c, ok := h.registry.Lookup(req.Status)
	if !ok {
		return "", nil, category.ErrUnknownCategory
	}

	result, err := h.classifier.Classify(ctx, c, req.Text)
	if err != nil {
		return "", nil, err
	}

	html := render.Render(c.Template, result.Data)
	if h.sanitizer != nil {
		html = h.sanitizer.Sanitize(html)
	}

	return html, result, nil
}

// errorClass maps a formatting failure to a fixed event error class.
func errorClass(err error) string {
	switch {
	case errors.Is(err, classifier.ErrEmptyResponse):
		return events.ErrorEmptyResponse
	case errors.Is(err, classifier.ErrMalformedResult):
		return events.ErrorMalformedResult
	case errors.Is(err, category.ErrUnknownCategory):
		return events.ErrorUnknownStatus
	case errors.Is(err, context.DeadlineExceeded):
		return events.ErrorTimeout
	default:
		return events.ErrorTransport
	}
}

func (h *Handler) authorized(header string) bool {
	if header == "" || len(h.authToken) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), h.authToken) == 1
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := io.Reader(r.Body)
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	return io.ReadAll(body)
}

// publish sends an event after the response is written. The request context
// may already be cancelled, so only its values are kept.
func (h *Handler) publish(ctx context.Context, logger *zap.Logger, event events.Event) {
	event.Timestamp = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event", zap.Error(err))
	}
}
