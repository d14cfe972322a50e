// Package store archives parse runs so they can be listed and replayed
// later. A run is one parse of one source: its options, the commands it
// produced in order and the messages of its malformed spans.
package store

import (
	"context"
	"time"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	"github.com/msto63/koi/foundation/koi/command"
)

// Run is an archived parse
type Run struct {
	ID        string             `json:"id"`
	Source    string             `json:"source"`
	Threshold int                `json:"threshold"`
	CreatedAt time.Time          `json:"created_at"`
	Commands  []*command.Command `json:"commands"`
	Errors    []string           `json:"errors,omitempty"`
}

// RunSummary is the list view of a run
type RunSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Threshold int       `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
	Commands  int       `json:"commands"`
	Errors    int       `json:"errors"`
}

// Store defines the interface for run persistence
type Store interface {
	// SaveRun stores a run and returns its id. An empty ID is generated.
	SaveRun(ctx context.Context, run Run) (string, error)
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the newest runs first; limit <= 0 means all
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
	Close() error
}

func summarize(run *Run) RunSummary {
	return RunSummary{
		ID:        run.ID,
		Source:    run.Source,
		Threshold: run.Threshold,
		CreatedAt: run.CreatedAt,
		Commands:  len(run.Commands),
		Errors:    len(run.Errors),
	}
}

func notFound(op, id string) error {
	return mdwerror.New("run not found").
		WithCode(mdwerror.CodeNotFound).
		WithOperation(op).
		WithDetail("id", id)
}

func storageError(err error, op, msg string) error {
	return mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeStorageError).
		WithOperation(op)
}
