// Package runlog persists one append-only status entry per ingested source unit.
package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusEmpty   Status = "empty"
)

// StatusFor derives the status of a finished source unit from its counts.
func StatusFor(res kg.BatchResult) Status {
	switch {
	case res.Success == 0 && res.Errors == 0:
		return StatusEmpty
	case res.Errors == 0:
		return StatusOK
	case res.Success == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

type Entry struct {
	RunID   uuid.UUID
	Source  string
	Result  kg.BatchResult
	Status  Status
	Message string
	// Reasons counts invalid records per rejection reason.
	Reasons   map[string]int
	CreatedAt time.Time
}

type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Multi fans an entry out to every sink; all sinks are attempted.
type Multi []Sink

func (m Multi) Append(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Append(context.Context, Entry) error { return nil }
