// Package task owns the task registry: identifier allocation, creation-time
// validation, and lifecycle transitions. All task mutation goes through the
// registry; the dispatcher never touches storage directly.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mapgrid-network/mapgrid/internal/app/format"
	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/mapgrid-network/mapgrid/internal/infra/metrics"
)

// Registry validates and tracks tasks on top of a TaskStore.
type Registry struct {
	store domain.TaskStore
	log   *log.Logger
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store domain.TaskStore, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{store: store, log: logger.With("component", "registry")}
}

// Create validates the task type, input format and shape, and the requested
// output format, then stores a new task in the created state. An empty
// output format negotiates to the type's default (application/json).
// Illegal combinations are rejected here, never at execution time.
func (r *Registry) Create(ctx context.Context, typ domain.TaskType, input domain.Payload, output domain.Format) (*domain.Task, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unsupported task type %q", domain.ErrValidation, typ)
	}
	if output == "" {
		output = format.OutputFormats(typ)[0]
	}
	if !format.SupportsOutput(typ, output) {
		return nil, fmt.Errorf("%w: %s cannot produce %s output", domain.ErrUnsupportedFormat, typ, output)
	}
	if err := format.ValidateInput(typ, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &domain.Task{
		ID:           uuid.New().String(),
		Type:         typ,
		Status:       domain.TaskCreated,
		Input:        input,
		OutputFormat: output,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("store task: %w", err)
	}

	metrics.TasksCreated.WithLabelValues(string(typ)).Inc()
	r.log.Debug("task created", "id", t.ID, "type", typ, "output_format", output)
	return t.Clone(), nil
}

// Get returns the task with the given identifier.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Task, error) {
	return r.store.Get(ctx, id)
}

// BeginExecution claims a created task for execution. The returned bool is
// true only for the single caller that performed the created → in_progress
// transition; everyone else gets the current record unchanged.
func (r *Registry) BeginExecution(ctx context.Context, id string) (*domain.Task, bool, error) {
	return r.store.BeginExecution(ctx, id)
}

// Complete finishes an in_progress task with its rendered output.
func (r *Registry) Complete(ctx context.Context, id string, output domain.Payload) (*domain.Task, error) {
	t, err := r.store.Complete(ctx, id, output)
	if err != nil {
		return nil, err
	}
	metrics.TasksCompleted.WithLabelValues(string(t.Type)).Inc()
	return t, nil
}

// Fail finishes an in_progress task with a failure detail.
func (r *Registry) Fail(ctx context.Context, id, msg string) (*domain.Task, error) {
	return r.store.Fail(ctx, id, msg)
}
