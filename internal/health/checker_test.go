package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mapgrid-network/mapgrid/internal/app/task"
	"github.com/mapgrid-network/mapgrid/internal/infra/maps"
)

func TestChecker_AllHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(task.NewMemoryStore(), maps.NewClient(maps.Config{BaseURL: srv.URL}))
	c.runAll(context.Background())

	if !c.IsHealthy() {
		t.Errorf("IsHealthy() = false, statuses: %+v", c.Statuses())
	}

	statuses := c.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}
	names := map[string]bool{}
	for _, s := range statuses {
		names[s.Name] = s.Healthy
	}
	if !names["task_store"] || !names["upstream_provider"] {
		t.Errorf("statuses = %+v, want both healthy", statuses)
	}
}

func TestChecker_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewChecker(task.NewMemoryStore(), maps.NewClient(maps.Config{BaseURL: url}))
	c.runAll(context.Background())

	if c.IsHealthy() {
		t.Error("IsHealthy() = true with upstream unreachable")
	}

	for _, s := range c.Statuses() {
		if s.Name == "upstream_provider" {
			if s.Healthy {
				t.Error("upstream_provider healthy, want unhealthy")
			}
			if s.Error == "" {
				t.Error("unhealthy status missing error detail")
			}
		}
	}
}
