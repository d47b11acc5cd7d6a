// Package domain holds the core MapGrid types shared across layers.
// A Task is a single request for one mapping operation, tracked through a
// four-state lifecycle: created → in_progress → completed | failed.
package domain

import "time"

// TaskStatus tracks task lifecycle.
type TaskStatus string

const (
	TaskCreated    TaskStatus = "created"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// IsTerminal returns true if the task has reached a final state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskType identifies which mapping operation a task requests.
type TaskType string

const (
	TaskGeocode        TaskType = "geocode"
	TaskReverseGeocode TaskType = "reverse_geocode"
	TaskDirections     TaskType = "directions"
	TaskPlacesSearch   TaskType = "places_search"
	TaskPlaceDetails   TaskType = "place_details"
	TaskDistanceMatrix TaskType = "distance_matrix"
)

// TaskTypes lists every supported task type, in agent-card order.
var TaskTypes = []TaskType{
	TaskGeocode,
	TaskReverseGeocode,
	TaskDirections,
	TaskPlacesSearch,
	TaskPlaceDetails,
	TaskDistanceMatrix,
}

// Valid reports whether t is one of the supported task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskGeocode, TaskReverseGeocode, TaskDirections,
		TaskPlacesSearch, TaskPlaceDetails, TaskDistanceMatrix:
		return true
	default:
		return false
	}
}

// Task is one mapping request flowing through the lifecycle.
// Output is non-nil iff Status == completed; Error is non-empty iff
// Status == failed. The registry is the sole mutator of Task records.
type Task struct {
	ID           string     `json:"id"`
	Type         TaskType   `json:"type"`
	Status       TaskStatus `json:"status"`
	Input        Payload    `json:"input"`
	OutputFormat Format     `json:"output_format,omitempty"`
	Output       *Payload   `json:"output"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a copy safe to hand outside the store.
func (t *Task) Clone() *Task {
	cp := *t
	if t.Output != nil {
		out := *t.Output
		cp.Output = &out
	}
	return &cp
}
