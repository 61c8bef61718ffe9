// Package generation runs the guide pipeline: validate, call the provider
// under a deadline, classify scope, parse, and record usage.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agutierrezreginodev/potencia-agenda/internal/codec"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/guide"
	"github.com/agutierrezreginodev/potencia-agenda/internal/prompt"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider"
	"github.com/agutierrezreginodev/potencia-agenda/internal/scope"
	"github.com/agutierrezreginodev/potencia-agenda/internal/server"
	"github.com/agutierrezreginodev/potencia-agenda/internal/telemetry"
	"github.com/agutierrezreginodev/potencia-agenda/internal/tokens"
	"github.com/agutierrezreginodev/potencia-agenda/internal/usage"
)

// Request length bounds, in characters, applied when none are configured.
const (
	DefaultMinRequestLength = 20
	DefaultMaxRequestLength = 5000
)

// Backend is one selectable provider with the parser matching its format.
type Backend struct {
	Provider domain.Provider
	Parser   domain.GuideParser
	Format   string
}

// BackendFromVariant pairs a built provider with its parser.
func BackendFromVariant(v provider.Variant) Backend {
	return Backend{
		Provider: v.Provider,
		Parser:   guide.NewParser(v.Format, guide.WithStructuredCosts(v.StructuredCosts)),
		Format:   v.Format,
	}
}

// Recorder receives every terminal outcome of an attempted call.
type Recorder interface {
	Record(ctx context.Context, a usage.Attempt) *domain.UsageRecord
}

// Option configures a Service.
type Option func(*Service)

// WithLengthLimits sets the accepted request length, in characters.
func WithLengthLimits(minLen, maxLen int) Option {
	return func(s *Service) {
		if minLen > 0 {
			s.minLength = minLen
		}
		if maxLen > 0 {
			s.maxLength = maxLen
		}
	}
}

// WithRecorder sets the usage recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEstimator replaces the token estimator used when providers report no usage.
func WithEstimator(e *tokens.Estimator) Option {
	return func(s *Service) {
		s.estimator = e
	}
}

// WithClock replaces time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service is the GenerationOrchestrator. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	backends  map[string]Backend
	active    string
	minLength int
	maxLength int

	recorder  Recorder
	estimator *tokens.Estimator
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService returns a Service whose default backend is active.
func NewService(active string, backends map[string]Backend, opts ...Option) (*Service, error) {
	if _, ok := backends[active]; !ok {
		return nil, fmt.Errorf("generation: active provider %q has no backend", active)
	}
	for name, b := range backends {
		if b.Provider == nil || b.Parser == nil {
			return nil, fmt.Errorf("generation: backend %q is incomplete", name)
		}
	}

	s := &Service{
		backends:  backends,
		active:    active,
		minLength: DefaultMinRequestLength,
		maxLength: DefaultMaxRequestLength,
		estimator: tokens.Default(),
		logger:    slog.Default(),
		tracer:    telemetry.Tracer(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxLength < s.minLength {
		return nil, fmt.Errorf("generation: max length %d is below min length %d", s.maxLength, s.minLength)
	}
	return s, nil
}

// NewServiceFromVariants builds one backend per provider variant.
func NewServiceFromVariants(active string, variants map[string]provider.Variant, opts ...Option) (*Service, error) {
	backends := make(map[string]Backend, len(variants))
	for name, v := range variants {
		backends[name] = BackendFromVariant(v)
	}
	return NewService(active, backends, opts...)
}

// Active returns the default provider name.
func (s *Service) Active() string {
	return s.active
}

// Providers returns the selectable provider names, sorted.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate runs one request to a terminal outcome. It never returns nil.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) domain.Outcome {
	start := s.now()

	ctx, span := s.tracer.Start(ctx, "generation.generate")
	defer span.End()

	name := req.Provider
	if name == "" {
		name = s.active
	}
	span.SetAttributes(attribute.String("generation.provider", name))

	backend, ok := s.backends[name]
	if !ok {
		return s.reject(ctx, span, start, domain.ErrValidation(fmt.Sprintf("unknown provider %q", name)))
	}

	text := strings.TrimSpace(req.ClientText)
	switch n := utf8.RuneCountInString(text); {
	case n < s.minLength:
		return s.reject(ctx, span, start, domain.ErrValidation(
			fmt.Sprintf("La solicitud debe tener al menos %d caracteres", s.minLength)))
	case n > s.maxLength:
		return s.reject(ctx, span, start, domain.ErrValidation(
			fmt.Sprintf("La solicitud no puede exceder %d caracteres", s.maxLength)))
	}

	p := backend.Provider
	span.SetAttributes(attribute.String("generation.model", p.Model()))

	outcome := s.attempt(ctx, backend, text, start)

	if s.recorder != nil {
		s.recorder.Record(ctx, usage.Attempt{
			ActorID:  req.ActorID,
			Provider: p.Name(),
			Model:    p.Model(),
			Outcome:  outcome,
		})
	}
	s.finish(ctx, span, p, outcome)
	return outcome
}

// attempt performs the provider call and everything after it.
func (s *Service) attempt(ctx context.Context, b Backend, text string, start time.Time) domain.Outcome {
	p := b.Provider
	pair := prompt.Build(text, b.Format)

	callCtx, cancel := context.WithTimeout(ctx, p.Timeout())
	defer cancel()

	raw, err := p.Complete(callCtx, pair)
	if err != nil {
		return s.failure(start, p, s.classifyCallError(ctx, callCtx, p, err))
	}
	if raw == nil || strings.TrimSpace(raw.Text) == "" {
		return s.failure(start, p, domain.ErrInvalidModelOutput("empty completion").WithProvider(p.Name()))
	}
	if raw.ModelUsed == "" {
		raw.ModelUsed = p.Model()
	}
	s.estimator.Fill(raw, pair)

	if verdict := scope.Classify(raw.Text); verdict.OutOfScope {
		return &domain.OutOfScope{
			Message:          verdict.Message,
			ModelUsed:        raw.ModelUsed,
			PromptTokens:     raw.PromptTokens,
			CompletionTokens: raw.CompletionTokens,
			LatencyMs:        s.since(start),
		}
	}

	g, err := b.Parser.Parse(raw, false)
	if err != nil {
		genErr, ok := domain.AsGenerationError(err)
		if !ok {
			genErr = domain.ErrInvalidModelOutput(err.Error()).WithCause(err)
		}
		return s.failure(start, p, genErr.WithProvider(p.Name()))
	}
	g.Normalize()

	out := &domain.Success{
		Guide:            g,
		ModelUsed:        raw.ModelUsed,
		PromptTokens:     raw.PromptTokens,
		CompletionTokens: raw.CompletionTokens,
		TotalTokens:      raw.TotalTokens(),
		LatencyMs:        s.since(start),
	}
	if b.Format != guide.FormatJSON {
		out.RawText = raw.Text
	}
	return out
}

// classifyCallError maps a provider error. The call deadline wins over
// whatever error the transport reported; a cancelled caller is not a timeout.
func (s *Service) classifyCallError(parent, callCtx context.Context, p domain.Provider, err error) *domain.GenerationError {
	switch {
	case parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded):
		return domain.ErrUnknownProvider("request cancelled").WithProvider(p.Name()).WithCause(err)
	case errors.Is(callCtx.Err(), context.DeadlineExceeded), codec.IsTransportTimeout(err):
		return domain.ErrTimeout(fmt.Sprintf("provider %s did not answer within %s", p.Name(), p.Timeout())).
			WithProvider(p.Name()).WithCause(err)
	default:
		return codec.ToGenerationError(p.Name(), err).WithProvider(p.Name())
	}
}

func (s *Service) failure(start time.Time, p domain.Provider, err *domain.GenerationError) *domain.Failure {
	return &domain.Failure{
		Err:       err,
		ModelUsed: p.Model(),
		LatencyMs: s.since(start),
	}
}

// reject ends a request that never reached a provider. Nothing is recorded.
func (s *Service) reject(ctx context.Context, span trace.Span, start time.Time, err *domain.GenerationError) domain.Outcome {
	out := &domain.Failure{Err: err, LatencyMs: s.since(start)}
	span.SetAttributes(attribute.String("generation.outcome", string(out.Kind())))
	span.SetStatus(codes.Error, string(err.Kind))
	s.logger.WarnContext(ctx, "generation rejected",
		slog.String("request_id", server.GetRequestID(ctx)),
		slog.String("error_kind", string(err.Kind)),
		slog.String("error", err.Message),
	)
	return out
}

func (s *Service) finish(ctx context.Context, span trace.Span, p domain.Provider, out domain.Outcome) {
	span.SetAttributes(
		attribute.String("generation.outcome", string(out.Kind())),
		attribute.Int64("generation.latency_ms", out.Latency()),
	)

	attrs := []slog.Attr{
		slog.String("request_id", server.GetRequestID(ctx)),
		slog.String("provider", p.Name()),
		slog.String("model", p.Model()),
		slog.String("outcome", string(out.Kind())),
		slog.Int64("latency_ms", out.Latency()),
	}

	switch o := out.(type) {
	case *domain.Success:
		span.SetAttributes(attribute.Int("generation.total_tokens", o.TotalTokens))
		attrs = append(attrs,
			slog.Int("prompt_tokens", o.PromptTokens),
			slog.Int("completion_tokens", o.CompletionTokens),
			slog.Int("steps", len(o.Guide.Steps)),
		)
		s.logger.LogAttrs(ctx, slog.LevelInfo, "guide generated", attrs...)
	case *domain.OutOfScope:
		s.logger.LogAttrs(ctx, slog.LevelInfo, "request out of scope", attrs...)
	case *domain.Failure:
		span.SetStatus(codes.Error, string(o.FailureKind()))
		if o.Err != nil {
			span.RecordError(o.Err)
		}
		attrs = append(attrs,
			slog.String("error_kind", string(o.FailureKind())),
			slog.String("error", o.Message()),
		)
		s.logger.LogAttrs(ctx, slog.LevelError, "generation failed", attrs...)
	}
}

func (s *Service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}
