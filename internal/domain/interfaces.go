// Package domain — storage interfaces.
package domain

import "context"

// TaskStore is the storage contract behind the task registry. Any backend
// with atomic check-and-set semantics can implement it; the reference
// backends are a mutex-guarded in-memory map and SQLite.
type TaskStore interface {
	// Insert stores a freshly created task. Identifiers are never reused.
	Insert(ctx context.Context, t *Task) error

	// Get returns a copy of the task, or ErrTaskNotFound.
	Get(ctx context.Context, id string) (*Task, error)

	// BeginExecution atomically transitions created → in_progress and
	// reports whether this call performed the transition. A task in any
	// other state is returned unchanged with false — the idempotent
	// no-op that prevents double execution of billable upstream calls.
	BeginExecution(ctx context.Context, id string) (*Task, bool, error)

	// Complete transitions in_progress → completed and attaches output.
	// Any other starting state is ErrInvalidTransition.
	Complete(ctx context.Context, id string, output Payload) (*Task, error)

	// Fail transitions in_progress → failed and records the failure detail.
	// Any other starting state is ErrInvalidTransition.
	Fail(ctx context.Context, id string, msg string) (*Task, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
