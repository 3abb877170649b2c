package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHighlight(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff} // JPEG magic is enough for the wire test

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/highlight" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Image     string `json:"image"`
			TextQuery string `json:"text_query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.TextQuery != "headphones" {
			t.Errorf("unexpected query %q", req.TextQuery)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil || string(decoded) != string(frame) {
			t.Errorf("image not base64 of frame: %v", err)
		}

		json.NewEncoder(w).Encode(HighlightResult{
			TrackerID:  "trk-1",
			Box:        BBox{X: 10, Y: 20, Width: 90, Height: 100},
			Label:      "headphones",
			Confidence: 0.9,
			YOLOClass:  "headphones",
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	result, err := client.Highlight(context.Background(), frame, "headphones")
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if result.TrackerID != "trk-1" {
		t.Errorf("unexpected tracker id %q", result.TrackerID)
	}
	if result.Box.X != 10 || result.Box.Height != 100 {
		t.Errorf("unexpected bbox %+v", result.Box)
	}
}

func TestHighlightNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "No object found matching 'unicorn'",
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Highlight(context.Background(), []byte{0x01}, "unicorn")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "No object found matching 'unicorn'" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
}

func TestTrackUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track/update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tracks": map[string]Track{
				"trk-1": {Box: BBox{X: 12, Y: 22, Width: 90, Height: 100}, Confidence: 0.85, Status: StatusTracking},
				"trk-2": {Status: StatusLost},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	tracks, err := client.TrackUpdate(context.Background(), []byte{0x01}, []string{"trk-1", "trk-2"})
	if err != nil {
		t.Fatalf("TrackUpdate: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks["trk-1"].Status != StatusTracking || tracks["trk-1"].Box.X != 12 {
		t.Errorf("unexpected track: %+v", tracks["trk-1"])
	}
	if tracks["trk-2"].Status != StatusLost {
		t.Errorf("expected trk-2 lost, got %+v", tracks["trk-2"])
	}
}

func TestErrorFieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.TrackClear(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "model not loaded" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestYouTubeSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string  `json:"query"`
			Timestamp float64 `json:"timestamp"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "how to solder" {
			t.Errorf("unexpected query %q", req.Query)
		}
		if req.Timestamp != 42 {
			t.Errorf("unexpected timestamp %v", req.Timestamp)
		}
		json.NewEncoder(w).Encode(VideoResult{
			VideoID:   "abc123",
			Title:     "Soldering Basics",
			URL:       "https://www.youtube.com/watch?v=abc123",
			StartTime: 42,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	video, err := client.YouTubeSearch(context.Background(), "how to solder", 42)
	if err != nil {
		t.Fatalf("YouTubeSearch: %v", err)
	}
	if video.VideoID != "abc123" || video.StartTime != 42 {
		t.Errorf("unexpected video: %+v", video)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Health{Status: "ok", ModelLoaded: true})
	}))
	defer srv.Close()

	client := New(srv.URL)
	h, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" || !h.ModelLoaded {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchImage(ctx, "a red drill")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
