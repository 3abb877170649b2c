package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rhat-labs/go-rhat/pkg/backend"
	"github.com/rhat-labs/go-rhat/pkg/live"
	"github.com/rhat-labs/go-rhat/pkg/overlay"
)

// newTestDeps wires the built-in tools against a fake backend server
// and a real overlay store.
func newTestDeps(t *testing.T, handler http.Handler) (Deps, *overlay.Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := overlay.NewStore()
	deps := Deps{
		Backend: backend.New(srv.URL),
		Overlay: store,
		Frame:   func() []byte { return []byte{0xff, 0xd8, 0xff} },
		Now: func() time.Time {
			return time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
		},
	}
	return deps, store
}

// dispatch runs a single named call through a fresh registry and
// dispatcher.
func dispatch(t *testing.T, deps Deps, name string, args map[string]any) live.ToolResult {
	t.Helper()

	r := NewRegistry()
	if err := r.RegisterAll(All(deps)); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	d := NewDispatcher(r)
	results := d.Dispatch(context.Background(), []live.ToolCall{
		{ID: "call-1", Name: name, Args: args},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	return results[0]
}

func TestHighlightObjectTool(t *testing.T) {
	deps, store := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/highlight" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(backend.HighlightResult{
			TrackerID:  "trk-1",
			Box:        backend.BBox{X: 10, Y: 20, Width: 90, Height: 100},
			Label:      "red mug",
			Confidence: 0.92,
		})
	}))

	res := dispatch(t, deps, "highlight_object", map[string]any{"object_name": "red mug"})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !strings.Contains(res.Result, "red mug") {
		t.Errorf("unexpected result %q", res.Result)
	}

	snap := store.Snapshot()
	if len(snap.Highlights) != 1 || snap.Highlights[0].TrackerID != "trk-1" {
		t.Errorf("highlight not stored: %+v", snap.Highlights)
	}
}

func TestHighlightObjectNoFrame(t *testing.T) {
	deps, _ := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called without a frame")
	}))
	deps.Frame = func() []byte { return nil }

	res := dispatch(t, deps, "highlight_object", map[string]any{"object_name": "mug"})
	if res.Error == "" {
		t.Fatal("expected error without a camera frame")
	}
}

func TestHighlightObjectNotFound(t *testing.T) {
	deps, store := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No object found matching 'unicorn'"})
	}))

	res := dispatch(t, deps, "highlight_object", map[string]any{"object_name": "unicorn"})
	if !strings.Contains(res.Error, "unicorn") {
		t.Errorf("expected backend detail in error, got %q", res.Error)
	}
	if len(store.Snapshot().Highlights) != 0 {
		t.Error("failed highlight left state behind")
	}
}

func TestClearHighlightsTool(t *testing.T) {
	deps, store := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track/clear" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	store.AddHighlight("trk-1", "mug", backend.BBox{}, 0.9, 0)
	store.AddHighlight("trk-2", "plant", backend.BBox{}, 0.8, 0)

	res := dispatch(t, deps, "clear_highlights", map[string]any{})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !strings.Contains(res.Result, "2") {
		t.Errorf("unexpected result %q", res.Result)
	}
	if len(store.Snapshot().Highlights) != 0 {
		t.Error("highlights not cleared")
	}
}

func TestDisplayImageTool(t *testing.T) {
	deps, store := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(backend.ImageResult{
			ImageBase64: "aGVsbG8=",
			Description: "The Golden Gate Bridge",
		})
	}))

	res := dispatch(t, deps, "display_image", map[string]any{"query": "golden gate bridge"})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}

	snap := store.Snapshot()
	if len(snap.Images) != 1 || snap.Images[0].Query != "golden gate bridge" {
		t.Errorf("image not stored: %+v", snap.Images)
	}
}

func TestPlayVideoTool(t *testing.T) {
	deps, store := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(backend.VideoResult{
			VideoID:   "abc123",
			Title:     "Soldering Basics",
			URL:       "https://www.youtube.com/watch?v=abc123",
			StartTime: 42,
		})
	}))

	res := dispatch(t, deps, "play_video", map[string]any{"query": "how to solder", "timestamp": 42.0})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !strings.Contains(res.Result, "Soldering Basics") {
		t.Errorf("unexpected result %q", res.Result)
	}

	video := store.Snapshot().Video
	if video == nil || video.VideoID != "abc123" || video.StartTime != 42 {
		t.Errorf("video not stored: %+v", video)
	}
}

func TestUpdateChecklistTool(t *testing.T) {
	deps, store := newTestDeps(t, http.NotFoundHandler())

	res := dispatch(t, deps, "update_checklist", map[string]any{
		"title": "Morning routine",
		"items": []any{
			map[string]any{"label": "Make coffee", "completed": true},
			map[string]any{"label": "Check email"},
		},
	})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !strings.Contains(res.Result, "1 of 2") {
		t.Errorf("unexpected summary %q", res.Result)
	}

	cl := store.Checklist()
	if cl.Title != "Morning routine" || len(cl.Items) != 2 {
		t.Errorf("unexpected checklist: %+v", cl)
	}
}

func TestTimerTools(t *testing.T) {
	deps, store := newTestDeps(t, http.NotFoundHandler())

	res := dispatch(t, deps, "set_timer", map[string]any{"seconds": 300.0})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !store.TimerActive() {
		t.Error("timer not running after set_timer")
	}

	res = dispatch(t, deps, "cancel_timer", map[string]any{})
	if res.Error != "" || res.Result != "Timer cancelled" {
		t.Errorf("unexpected cancel result: %+v", res)
	}

	res = dispatch(t, deps, "cancel_timer", map[string]any{})
	if res.Result != "No timer is running" {
		t.Errorf("unexpected repeat cancel result: %+v", res)
	}
}

func TestGetTimeTool(t *testing.T) {
	deps, _ := newTestDeps(t, http.NotFoundHandler())

	res := dispatch(t, deps, "get_time", map[string]any{})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !strings.Contains(res.Result, "March 1, 2026") {
		t.Errorf("unexpected time %q", res.Result)
	}
}

func TestDeclarationsMatchRegistrationOrder(t *testing.T) {
	deps, _ := newTestDeps(t, http.NotFoundHandler())

	r := NewRegistry()
	if err := r.RegisterAll(All(deps)); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	decls := r.Declarations()
	if len(decls) != 8 {
		t.Fatalf("expected 8 tools, got %d", len(decls))
	}
	if decls[0].Name != "highlight_object" {
		t.Errorf("first tool = %q", decls[0].Name)
	}
	for _, d := range decls {
		if d.Description == "" {
			t.Errorf("tool %s has no description", d.Name)
		}
		if d.Parameters["type"] != "object" {
			t.Errorf("tool %s parameters not an object schema", d.Name)
		}
	}
}
