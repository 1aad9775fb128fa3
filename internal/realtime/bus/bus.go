// Package bus publishes ingestion progress events so other processes can follow
// a running import.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventSourceCompleted = "ingest.source.completed"

type Event struct {
	Type    string    `json:"type"`
	RunID   uuid.UUID `json:"run_id"`
	Source  string    `json:"source"`
	Status  string    `json:"status"`
	Success int       `json:"success"`
	Errors  int       `json:"errors"`
	Invalid int       `json:"invalid"`
	At      time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}

// Noop drops published events. StartForwarder returns immediately.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error                 { return nil }
func (Noop) StartForwarder(context.Context, func(ev Event)) error { return nil }
func (Noop) Close() error                                         { return nil }
