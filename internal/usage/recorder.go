// Package usage writes one audit row per generation attempt.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/server"
)

const (
	// DefaultWriteTimeout bounds each detached audit write.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultConcurrency bounds in-flight audit writes.
	DefaultConcurrency = 4

	// maxErrorMessage is the stored length of error messages, in runes.
	maxErrorMessage = 500
)

// Sink is the write side of storage.AuditSink.
type Sink interface {
	InsertUsage(ctx context.Context, rec *domain.UsageRecord) error
}

// Attempt is what the orchestrator knows about one finished call.
type Attempt struct {
	ActorID  string
	Provider string
	// Model is the configured model; the outcome's served model wins when set.
	Model   string
	Outcome domain.Outcome
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithConcurrency bounds concurrent writes. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.concurrency = int64(n)
		}
	}
}

// WithWriteTimeout sets the per-write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder persists usage records without blocking the request path. Write
// errors are logged and dropped; they never change an outcome.
type Recorder struct {
	sink         Sink
	logger       *slog.Logger
	concurrency  int64
	writeTimeout time.Duration
	now          func() time.Time

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewRecorder returns a Recorder writing to sink. A nil sink records nothing.
func NewRecorder(sink Sink, logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		sink:         sink,
		logger:       logger,
		concurrency:  DefaultConcurrency,
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sem = semaphore.NewWeighted(r.concurrency)
	return r
}

// Record builds the audit row synchronously and writes it in the background.
// The returned record is the one handed to the sink.
func (r *Recorder) Record(ctx context.Context, a Attempt) *domain.UsageRecord {
	rec := BuildRecord(a, r.now())
	if r.sink == nil {
		return rec
	}

	persistCtx, cancel := buildPersistenceContext(ctx, r.writeTimeout)
	row := *rec

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		if err := r.sem.Acquire(persistCtx, 1); err != nil {
			r.logFailure(persistCtx, &row, err)
			return
		}
		defer r.sem.Release(1)

		if err := r.sink.InsertUsage(persistCtx, &row); err != nil {
			r.logFailure(persistCtx, &row, err)
		}
	}()

	return rec
}

func (r *Recorder) logFailure(ctx context.Context, rec *domain.UsageRecord, err error) {
	r.logger.Error("failed to record usage",
		slog.String("request_id", server.GetRequestID(ctx)),
		slog.String("usage_id", rec.ID),
		slog.String("provider", rec.Provider),
		slog.String("status", string(rec.Status)),
		slog.String("error", err.Error()),
	)
}

// Close waits for in-flight writes or until ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildRecord maps an attempt onto an audit row. Declines count as successful
// calls with outcome out_of_scope.
func BuildRecord(a Attempt, now time.Time) *domain.UsageRecord {
	rec := &domain.UsageRecord{
		ID:        uuid.New().String(),
		ActorID:   a.ActorID,
		Provider:  a.Provider,
		ModelUsed: a.Model,
		CreatedAt: now,
	}

	switch o := a.Outcome.(type) {
	case *domain.Success:
		rec.Status = domain.UsageStatusSuccess
		rec.Outcome = domain.OutcomeSuccess
		rec.PromptTokens = o.PromptTokens
		rec.CompletionTokens = o.CompletionTokens
		rec.LatencyMs = o.LatencyMs
		if o.ModelUsed != "" {
			rec.ModelUsed = o.ModelUsed
		}
	case *domain.OutOfScope:
		rec.Status = domain.UsageStatusSuccess
		rec.Outcome = domain.OutcomeOutOfScope
		rec.PromptTokens = o.PromptTokens
		rec.CompletionTokens = o.CompletionTokens
		rec.LatencyMs = o.LatencyMs
		if o.ModelUsed != "" {
			rec.ModelUsed = o.ModelUsed
		}
	case *domain.Failure:
		rec.Outcome = domain.OutcomeFailure
		rec.LatencyMs = o.LatencyMs
		rec.Status = domain.UsageStatusError
		rec.ErrorKind = string(o.FailureKind())
		rec.ErrorMessage = truncate(o.Message(), maxErrorMessage)
		if o.Err != nil {
			rec.Status = o.Err.UsageStatus()
		}
		if o.ModelUsed != "" {
			rec.ModelUsed = o.ModelUsed
		}
	default:
		rec.Status = domain.UsageStatusError
		rec.Outcome = domain.OutcomeFailure
		rec.ErrorKind = string(domain.ErrorKindUnknownProvider)
	}

	return rec
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// buildPersistenceContext detaches the write from the request lifecycle so a
// client disconnect does not drop the row; the request ID is carried over.
func buildPersistenceContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	base := context.Background()
	if reqID := server.GetRequestID(ctx); reqID != "" {
		base = server.WithRequestID(base, reqID)
	}
	return context.WithTimeout(base, timeout)
}
