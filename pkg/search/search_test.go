package search

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestImagesFetch(t *testing.T) {
	imageBytes := []byte{0xff, 0xd8, 0xff, 0xe0}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/customsearch"):
			if got := r.URL.Query().Get("q"); got != "red drill" {
				t.Errorf("unexpected query %q", got)
			}
			if got := r.URL.Query().Get("searchType"); got != "image" {
				t.Errorf("unexpected searchType %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"link":        srv.URL + "/img/drill.jpg",
						"title":       "A red cordless drill",
						"displayLink": "example.com",
					},
				},
			})
		case r.URL.Path == "/img/drill.jpg":
			w.Write(imageBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	images, err := NewImages(context.Background(), "test-key", "test-cse",
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewImages: %v", err)
	}

	result, err := images.Fetch(context.Background(), "red drill")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil || string(decoded) != string(imageBytes) {
		t.Errorf("image payload mismatch: %v", err)
	}
	if result.Description != "A red cordless drill" {
		t.Errorf("unexpected description %q", result.Description)
	}
	if result.Attribution != "example.com" {
		t.Errorf("unexpected attribution %q", result.Attribution)
	}
}

func TestImagesFetchSkipsDeadLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/customsearch"):
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"link": srv.URL + "/gone.jpg", "title": "dead", "displayLink": "a.com"},
					{"link": srv.URL + "/ok.jpg", "title": "alive", "displayLink": "b.com"},
				},
			})
		case r.URL.Path == "/ok.jpg":
			w.Write([]byte{0x01})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	images, err := NewImages(context.Background(), "test-key", "test-cse",
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewImages: %v", err)
	}

	result, err := images.Fetch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Description != "alive" {
		t.Errorf("expected fallback to second hit, got %q", result.Description)
	}
}

func TestImagesFetchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	images, err := NewImages(context.Background(), "test-key", "test-cse",
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewImages: %v", err)
	}

	_, err = images.Fetch(context.Background(), "nothing")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestImagesRequiresConfig(t *testing.T) {
	if _, err := NewImages(context.Background(), "", "cse"); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewImages(context.Background(), "key", ""); err == nil {
		t.Error("expected error without CSE id")
	}
}

func TestVideosSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "how to solder" {
			t.Errorf("unexpected query %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": map[string]any{"videoId": "abc123"},
					"snippet": map[string]any{
						"title":        "Soldering Basics",
						"channelTitle": "Workshop Channel",
						"thumbnails": map[string]any{
							"high": map[string]any{"url": "https://i.ytimg.com/vi/abc123/hq.jpg"},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	videos, err := NewVideos(context.Background(), "test-key", option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewVideos: %v", err)
	}

	result, err := videos.Search(context.Background(), "how to solder", 42)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.VideoID != "abc123" || result.Title != "Soldering Basics" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("unexpected URL %q", result.URL)
	}
	if result.StartTime != 42 {
		t.Errorf("start time = %v, want 42", result.StartTime)
	}
}

func TestVideosSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	videos, err := NewVideos(context.Background(), "test-key", option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewVideos: %v", err)
	}

	_, err = videos.Search(context.Background(), "nothing", 0)
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}
