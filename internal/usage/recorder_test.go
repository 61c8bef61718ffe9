package usage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSink struct {
	mu         sync.Mutex
	records    []*domain.UsageRecord
	requestIDs []string
	err        error
	block      chan struct{}

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (s *fakeSink) InsertUsage(ctx context.Context, rec *domain.UsageRecord) error {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		m := s.maxInflight.Load()
		if n <= m || s.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.requestIDs = append(s.requestIDs, server.GetRequestID(ctx))
	return s.err
}

func (s *fakeSink) all() []*domain.UsageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.UsageRecord(nil), s.records...)
}

var fixed = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestBuildRecord(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rec := BuildRecord(Attempt{
			ActorID:  "u1",
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Outcome:  &domain.Success{ModelUsed: "gemini-2.5-flash-001", PromptTokens: 412, CompletionTokens: 1800, LatencyMs: 900},
		}, fixed)

		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, domain.UsageStatusSuccess, rec.Status)
		assert.Equal(t, domain.OutcomeSuccess, rec.Outcome)
		assert.Equal(t, "gemini-2.5-flash-001", rec.ModelUsed)
		assert.Equal(t, 412, rec.PromptTokens)
		assert.Equal(t, 1800, rec.CompletionTokens)
		assert.Equal(t, int64(900), rec.LatencyMs)
		assert.Equal(t, fixed, rec.CreatedAt)
		assert.Empty(t, rec.ErrorKind)
	})

	t.Run("out of scope counts as success", func(t *testing.T) {
		rec := BuildRecord(Attempt{Provider: "openai", Model: "gpt-4o-mini", Outcome: &domain.OutOfScope{Message: "no", PromptTokens: 10}}, fixed)

		assert.Equal(t, domain.UsageStatusSuccess, rec.Status)
		assert.Equal(t, domain.OutcomeOutOfScope, rec.Outcome)
		assert.Equal(t, "gpt-4o-mini", rec.ModelUsed)
		assert.Equal(t, 10, rec.PromptTokens)
	})

	t.Run("timeout", func(t *testing.T) {
		rec := BuildRecord(Attempt{Provider: "anthropic", Outcome: &domain.Failure{Err: domain.ErrTimeout("provider call timed out"), LatencyMs: 300000}}, fixed)

		assert.Equal(t, domain.UsageStatusTimeout, rec.Status)
		assert.Equal(t, domain.OutcomeFailure, rec.Outcome)
		assert.Equal(t, "timeout", rec.ErrorKind)
		assert.Equal(t, 0, rec.PromptTokens)
	})

	t.Run("error message truncated to 500 runes", func(t *testing.T) {
		long := strings.Repeat("ñ", 700)
		rec := BuildRecord(Attempt{Outcome: &domain.Failure{Err: domain.ErrQuotaExceeded(long)}}, fixed)

		assert.Equal(t, domain.UsageStatusError, rec.Status)
		assert.Equal(t, "quota_exceeded", rec.ErrorKind)
		assert.Equal(t, 500, len([]rune(rec.ErrorMessage)))
	})

	t.Run("distinct ids", func(t *testing.T) {
		a := BuildRecord(Attempt{Outcome: &domain.Success{}}, fixed)
		b := BuildRecord(Attempt{Outcome: &domain.Success{}}, fixed)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestRecorder_WritesDetachedFromRequest(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink, nil, WithClock(func() time.Time { return fixed }))

	ctx, cancel := context.WithCancel(server.WithRequestID(context.Background(), "req-1"))
	rec := r.Record(ctx, Attempt{ActorID: "u1", Provider: "gemini", Outcome: &domain.Success{}})
	cancel()

	require.NoError(t, r.Close(context.Background()))

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "u1", got[0].ActorID)
	assert.Equal(t, []string{"req-1"}, sink.requestIDs)
}

func TestRecorder_SinkErrorsAreLoggedAndSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := &fakeSink{err: errors.New("disk full")}
	r := NewRecorder(sink, logger)

	rec := r.Record(context.Background(), Attempt{Provider: "gemini", Outcome: &domain.Failure{Err: domain.ErrTimeout("t")}})
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, domain.UsageStatusTimeout, rec.Status)
	assert.Contains(t, buf.String(), "failed to record usage")
	assert.Contains(t, buf.String(), "disk full")
}

func TestRecorder_BoundedConcurrency(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	r := NewRecorder(sink, nil, WithConcurrency(2))

	for i := 0; i < 6; i++ {
		r.Record(context.Background(), Attempt{Outcome: &domain.Success{}})
	}

	assert.Eventually(t, func() bool { return sink.inflight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(sink.block)
	require.NoError(t, r.Close(context.Background()))

	assert.Len(t, sink.all(), 6)
	assert.LessOrEqual(t, sink.maxInflight.Load(), int32(2))
}

func TestRecorder_CloseHonoursContext(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	r := NewRecorder(sink, nil)
	r.Record(context.Background(), Attempt{Outcome: &domain.Success{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)

	close(sink.block)
	require.NoError(t, r.Close(context.Background()))
}

func TestRecorder_WriteTimeout(t *testing.T) {
	var buf bytes.Buffer
	sink := &fakeSink{block: make(chan struct{})}
	defer close(sink.block)
	r := NewRecorder(sink, slog.New(slog.NewJSONHandler(&buf, nil)), WithWriteTimeout(20*time.Millisecond))

	r.Record(context.Background(), Attempt{Outcome: &domain.Success{}})
	require.NoError(t, r.Close(context.Background()))

	assert.Empty(t, sink.all())
	assert.Contains(t, buf.String(), "deadline exceeded")
}

func TestRecorder_NilSink(t *testing.T) {
	r := NewRecorder(nil, nil)
	rec := r.Record(context.Background(), Attempt{Outcome: &domain.Success{}})

	assert.NotNil(t, rec)
	assert.NoError(t, r.Close(context.Background()))
}
