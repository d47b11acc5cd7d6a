// Package dispatch routes a claimed task to the adapter for its declared
// type, runs the upstream operation, and settles the task into its terminal
// state through the registry.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mapgrid-network/mapgrid/internal/app/format"
	"github.com/mapgrid-network/mapgrid/internal/app/task"
	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/mapgrid-network/mapgrid/internal/infra/maps"
	"github.com/mapgrid-network/mapgrid/internal/infra/metrics"
)

// Dispatcher executes tasks synchronously, one upstream call per task.
type Dispatcher struct {
	registry *task.Registry
	maps     *maps.Client
	log      *log.Logger
}

// New creates a dispatcher for the given registry and upstream client.
func New(registry *task.Registry, client *maps.Client, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		registry: registry,
		maps:     client,
		log:      logger.With("component", "dispatch"),
	}
}

// adapterFor maps a task type to its adapter. The switch is exhaustive over
// the closed type set; the registry rejected unknown types at creation.
func (d *Dispatcher) adapterFor(t domain.TaskType) Adapter {
	switch t {
	case domain.TaskGeocode:
		return geocodeAdapter{d.maps}
	case domain.TaskReverseGeocode:
		return reverseGeocodeAdapter{d.maps}
	case domain.TaskDirections:
		return directionsAdapter{d.maps}
	case domain.TaskPlacesSearch:
		return placesSearchAdapter{d.maps}
	case domain.TaskPlaceDetails:
		return placeDetailsAdapter{d.maps}
	case domain.TaskDistanceMatrix:
		return distanceMatrixAdapter{d.maps}
	default:
		return nil
	}
}

// Execute drives one task from created to a terminal state. If the task is
// already past created, the current record is returned unchanged — the
// idempotent read that prevents re-billing the upstream provider.
func (d *Dispatcher) Execute(ctx context.Context, id string) (*domain.Task, error) {
	t, began, err := d.registry.BeginExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	if !began {
		return t, nil
	}

	metrics.TasksActive.Inc()
	defer metrics.TasksActive.Dec()

	adapter := d.adapterFor(t.Type)
	if adapter == nil {
		// Unreachable while creation validates types; treat as a core bug.
		return d.fail(ctx, t, domain.ErrInvalidTransition)
	}

	input, err := format.DecodeInput(t.Type, t.Input)
	if err != nil {
		return d.fail(ctx, t, err)
	}

	start := time.Now()
	result, err := adapter.Run(ctx, input)
	metrics.UpstreamLatency.WithLabelValues(string(t.Type)).Observe(time.Since(start).Seconds())
	if err != nil {
		return d.fail(ctx, t, err)
	}

	output, err := format.Render(t.Type, result, t.OutputFormat)
	if err != nil {
		return d.fail(ctx, t, err)
	}

	done, err := d.registry.Complete(ctx, t.ID, output)
	if err != nil {
		return nil, err
	}
	d.log.Info("task completed", "id", done.ID, "type", done.Type,
		"output_format", output.Format, "took", time.Since(start))
	return done, nil
}

// fail settles the task into the failed state with the error detail.
func (d *Dispatcher) fail(ctx context.Context, t *domain.Task, cause error) (*domain.Task, error) {
	reason := "upstream"
	switch {
	case errors.Is(cause, domain.ErrValidation):
		reason = "validation"
	case errors.Is(cause, domain.ErrUnsupportedFormat):
		reason = "format"
	}
	metrics.TasksFailed.WithLabelValues(string(t.Type), reason).Inc()
	d.log.Warn("task failed", "id", t.ID, "type", t.Type, "reason", reason, "err", cause)

	return d.registry.Fail(ctx, t.ID, cause.Error())
}
