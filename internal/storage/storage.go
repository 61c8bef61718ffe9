// Package storage defines the audit sink that receives one row per
// generation attempt.
package storage

import (
	"context"
	"errors"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// ErrDuplicateRecord is returned when a record ID is inserted twice.
var ErrDuplicateRecord = errors.New("storage: duplicate usage record")

// DefaultListLimit applies when UsageListOptions.Limit is zero.
const DefaultListLimit = 100

// UsageListOptions filters ListUsage. Results are newest first.
type UsageListOptions struct {
	ActorID string
	Limit   int
	Offset  int
}

// AuditSink stores usage records. Rows are append-only.
type AuditSink interface {
	InsertUsage(ctx context.Context, rec *domain.UsageRecord) error
	ListUsage(ctx context.Context, opts UsageListOptions) ([]*domain.UsageRecord, error)
	Close() error
}
