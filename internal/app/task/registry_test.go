package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

func newTestRegistry(t *testing.T) (*Registry, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewRegistry(store, nil), store
}

func jsonPayload(t *testing.T, v any) domain.Payload {
	t.Helper()
	p, err := domain.JSONPayload(v)
	if err != nil {
		t.Fatalf("JSONPayload: %v", err)
	}
	return p
}

func TestRegistry_Create_AllTypes(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		taskType domain.TaskType
		input    domain.Payload
	}{
		{domain.TaskGeocode, domain.TextPayload("Mountain View, CA")},
		{domain.TaskReverseGeocode, jsonPayload(t, map[string]float64{"lat": 37.42, "lng": -122.08})},
		{domain.TaskDirections, jsonPayload(t, map[string]string{"origin": "SF", "destination": "MV"})},
		{domain.TaskPlacesSearch, domain.TextPayload("coffee")},
		{domain.TaskPlaceDetails, jsonPayload(t, map[string]string{"place_id": "abc"})},
		{domain.TaskDistanceMatrix, jsonPayload(t, map[string][]string{"origins": {"A"}, "destinations": {"B"}})},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			task, err := reg.Create(ctx, tt.taskType, tt.input, "")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if task.Status != domain.TaskCreated {
				t.Errorf("status = %q, want created", task.Status)
			}
			if task.Output != nil {
				t.Error("output should be nil before completion")
			}
			if task.OutputFormat != domain.FormatJSON {
				t.Errorf("negotiated output format = %q, want application/json", task.OutputFormat)
			}
			if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
				t.Error("timestamps not stamped")
			}
			if seen[task.ID] {
				t.Errorf("duplicate id %q", task.ID)
			}
			seen[task.ID] = true
		})
	}
}

func TestRegistry_Create_Rejections(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		taskType domain.TaskType
		input    domain.Payload
		output   domain.Format
		wantErr  error
	}{
		{"unknown type", "teleport", domain.TextPayload("x"), "", domain.ErrValidation},
		{"illegal input format", domain.TaskReverseGeocode, domain.TextPayload("37,-122"), "", domain.ErrValidation},
		{"missing lat/lng", domain.TaskReverseGeocode, jsonPayload(t, map[string]any{}), "", domain.ErrValidation},
		{"geojson for place_details", domain.TaskPlaceDetails, jsonPayload(t, map[string]string{"place_id": "abc"}), domain.FormatGeoJSON, domain.ErrUnsupportedFormat},
		{"text for geocode output", domain.TaskGeocode, domain.TextPayload("x"), domain.FormatText, domain.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(ctx, tt.taskType, tt.input, tt.output)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("rejected creations added records: len = %d, want 0", store.Len())
	}
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.Get(context.Background(), "never-issued"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestRegistry_BeginExecution_Idempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, domain.TaskGeocode, domain.TextPayload("x"), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, began, err := reg.BeginExecution(ctx, created.ID)
	if err != nil {
		t.Fatalf("BeginExecution: %v", err)
	}
	if !began {
		t.Fatal("first BeginExecution did not transition")
	}
	if first.Status != domain.TaskInProgress {
		t.Errorf("status = %q, want in_progress", first.Status)
	}

	second, began, err := reg.BeginExecution(ctx, created.ID)
	if err != nil {
		t.Fatalf("second BeginExecution: %v", err)
	}
	if began {
		t.Error("second BeginExecution claimed the task again")
	}
	if second.Status != domain.TaskInProgress {
		t.Errorf("second status = %q, want in_progress unchanged", second.Status)
	}
}

func TestRegistry_BeginExecution_ConcurrentSingleWinner(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, domain.TaskGeocode, domain.TextPayload("x"), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const callers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, began, err := reg.BeginExecution(ctx, created.ID)
			if err != nil {
				t.Errorf("BeginExecution: %v", err)
				return
			}
			wins <- began
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for began := range wins {
		if began {
			won++
		}
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
}

func TestRegistry_CompleteAndFail_Invariants(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, domain.TaskGeocode, domain.TextPayload("x"), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Complete before beginExecution is an internal invariant violation.
	if _, err := reg.Complete(ctx, created.ID, domain.TextPayload("out")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Complete on created: err = %v, want ErrInvalidTransition", err)
	}

	if _, _, err := reg.BeginExecution(ctx, created.ID); err != nil {
		t.Fatalf("BeginExecution: %v", err)
	}

	out, _ := domain.JSONPayload(map[string]string{"status": "OK"})
	done, err := reg.Complete(ctx, created.ID, out)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != domain.TaskCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
	if done.Output == nil {
		t.Fatal("output nil after completion")
	}
	if done.Error != "" {
		t.Errorf("error = %q, want empty on completed task", done.Error)
	}

	// Terminal state: both transitions now fail.
	if _, err := reg.Fail(ctx, created.ID, "late"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Fail on completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := &domain.Task{ID: "old", Status: domain.TaskCompleted, UpdatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &domain.Task{ID: "fresh", Status: domain.TaskCompleted, UpdatedAt: time.Now()}
	pending := &domain.Task{ID: "pending", Status: domain.TaskCreated, UpdatedAt: time.Now().Add(-2 * time.Hour)}

	for _, tk := range []*domain.Task{old, fresh, pending} {
		if err := store.Insert(ctx, tk); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	n := store.Sweep(time.Now(), time.Hour)
	if n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Error("old terminal task survived sweep")
	}
	if _, err := store.Get(ctx, "pending"); err != nil {
		t.Error("non-terminal task was evicted")
	}
}
