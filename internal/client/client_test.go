package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

func newFakeServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /agent-card", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.AgentCard{
			SchemaVersion: "v1",
			Name:          "MapGrid A2A",
		})
	})
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "invalid or missing API key", "type": "error"},
			})
			return
		}
		var req CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(domain.Task{
			ID:     "task-1",
			Type:   req.Type,
			Status: domain.TaskCreated,
			Input:  req.Input,
		})
	})
	mux.HandleFunc("GET /tasks/task-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Task{ID: "task-1", Status: domain.TaskCreated})
	})
	mux.HandleFunc("PUT /tasks/task-1/execute", func(w http.ResponseWriter, r *http.Request) {
		out, _ := domain.JSONPayload(map[string]string{"status": "OK"})
		json.NewEncoder(w).Encode(domain.Task{ID: "task-1", Status: domain.TaskCompleted, Output: &out})
	})
	mux.HandleFunc("GET /tasks/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "task not found", "type": "error"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, New(Config{BaseURL: srv.URL, APIKey: "secret"})
}

func TestAgentCard(t *testing.T) {
	_, c := newFakeServer(t)

	agentCard, err := c.AgentCard(context.Background())
	if err != nil {
		t.Fatalf("AgentCard() error: %v", err)
	}
	if agentCard.Name != "MapGrid A2A" {
		t.Errorf("Name = %q, want %q", agentCard.Name, "MapGrid A2A")
	}
}

func TestCreateAndExecuteTask(t *testing.T) {
	_, c := newFakeServer(t)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, CreateTaskRequest{
		Type:  domain.TaskGeocode,
		Input: domain.TextPayload("221B Baker Street, London"),
	})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if created.Status != domain.TaskCreated {
		t.Errorf("Status = %q, want %q", created.Status, domain.TaskCreated)
	}

	done, err := c.ExecuteTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ExecuteTask() error: %v", err)
	}
	if done.Status != domain.TaskCompleted {
		t.Errorf("Status = %q, want %q", done.Status, domain.TaskCompleted)
	}
	if done.Output == nil {
		t.Fatal("Output = nil, want payload")
	}
}

func TestUnauthorizedError(t *testing.T) {
	srv, _ := newFakeServer(t)
	c := New(Config{BaseURL: srv.URL, APIKey: "wrong"})

	_, err := c.CreateTask(context.Background(), CreateTaskRequest{Type: domain.TaskGeocode})
	if err == nil {
		t.Fatal("CreateTask() with bad key: want error, got nil")
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	_, c := newFakeServer(t)

	_, err := c.GetTask(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetTask(missing): want error, got nil")
	}
	want := "server returned 404: task not found"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
