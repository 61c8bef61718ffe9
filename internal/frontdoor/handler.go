// Package frontdoor exposes the generation pipeline and the usage log over HTTP.
package frontdoor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/guide"
	"github.com/agutierrezreginodev/potencia-agenda/internal/server"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
)

const (
	maxBodyBytes  = 64 << 10
	maxUsageLimit = 500
)

// Generator runs one generation request.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) domain.Outcome
}

// UsageLister reads the audit log.
type UsageLister interface {
	ListUsage(ctx context.Context, opts storage.UsageListOptions) ([]*domain.UsageRecord, error)
}

type Handler struct {
	generator Generator
	usage     UsageLister
	logger    *slog.Logger
}

// NewHandler returns the HTTP handler. A nil usage lister disables the usage route.
func NewHandler(generator Generator, usage UsageLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		generator: generator,
		usage:     usage,
		logger:    logger,
	}
}

// Routes registers the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/ai/generate", h.HandleGenerate)
	if h.usage != nil {
		r.Get("/api/ai/usage", h.HandleUsage)
	}
}

// GenerateRequest is the body of POST /api/ai/generate.
type GenerateRequest struct {
	ClientRequest string `json:"clientRequest"`
	// Provider optionally selects a configured variant other than the active one.
	Provider string `json:"provider,omitempty"`
}

// GenerateResponse is returned for success and out-of-scope outcomes.
type GenerateResponse struct {
	Guide            *domain.Guide `json:"guide"`
	Markdown         string        `json:"markdown,omitempty"` // raw answer, or the rendered guide for JSON backends
	OutOfScope       bool          `json:"outOfScope"`
	Message          string        `json:"message,omitempty"`
	Model            string        `json:"model"`
	Tokens           int           `json:"tokens"`
	PromptTokens     int           `json:"promptTokens"`
	CompletionTokens int           `json:"completionTokens"`
	LatencyMs        int64         `json:"latencyMs"`
}

// UsageResponse is returned by GET /api/ai/usage.
type UsageResponse struct {
	Records []*domain.UsageRecord `json:"records"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "invalid JSON body"
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		server.AddError(ctx, err)
		server.WriteError(w, http.StatusBadRequest, string(domain.ErrorKindValidation), msg)
		return
	}

	out := h.generator.Generate(ctx, domain.GenerationRequest{
		ClientText: req.ClientRequest,
		Provider:   req.Provider,
		ActorID:    auth.ActorID(ctx),
	})
	server.AddLogField(ctx, "outcome", string(out.Kind()))

	switch o := out.(type) {
	case *domain.Success:
		server.AddLogField(ctx, "model", o.ModelUsed)
		md := o.RawText
		if md == "" {
			md = guide.Render(o.Guide)
		}
		server.WriteJSON(w, http.StatusOK, GenerateResponse{
			Guide:            o.Guide,
			Markdown:         md,
			Model:            o.ModelUsed,
			Tokens:           o.TotalTokens,
			PromptTokens:     o.PromptTokens,
			CompletionTokens: o.CompletionTokens,
			LatencyMs:        o.LatencyMs,
		})
	case *domain.OutOfScope:
		server.AddLogField(ctx, "model", o.ModelUsed)
		server.WriteJSON(w, http.StatusOK, GenerateResponse{
			OutOfScope:       true,
			Message:          o.Message,
			Model:            o.ModelUsed,
			Tokens:           o.PromptTokens + o.CompletionTokens,
			PromptTokens:     o.PromptTokens,
			CompletionTokens: o.CompletionTokens,
			LatencyMs:        o.LatencyMs,
		})
	case *domain.Failure:
		h.writeFailure(w, r, o)
	default:
		server.WriteError(w, http.StatusInternalServerError, string(domain.ErrorKindUnknownProvider), "unexpected outcome")
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, f *domain.Failure) {
	genErr := f.Err
	if genErr == nil {
		genErr = domain.ErrUnknownProvider("generation failed")
	}
	server.AddLogField(r.Context(), "error_kind", string(genErr.Kind))
	server.AddError(r.Context(), genErr)
	server.WriteError(w, genErr.HTTPStatusCode(), string(genErr.Kind), genErr.Message)
}

func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit", storage.DefaultListLimit)
	if err != nil || limit <= 0 || limit > maxUsageLimit {
		server.WriteError(w, http.StatusBadRequest, string(domain.ErrorKindValidation), "limit must be between 1 and 500")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		server.WriteError(w, http.StatusBadRequest, string(domain.ErrorKindValidation), "offset must be a non-negative integer")
		return
	}

	records, err := h.usage.ListUsage(ctx, storage.UsageListOptions{
		ActorID: auth.ActorID(ctx),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list usage",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
		server.AddError(ctx, err)
		server.WriteError(w, http.StatusInternalServerError, "internal_error", "could not read usage records")
		return
	}

	if records == nil {
		records = []*domain.UsageRecord{}
	}
	server.WriteJSON(w, http.StatusOK, UsageResponse{Records: records, Limit: limit, Offset: offset})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
