// Package search wraps Google Custom Search and the YouTube Data API
// for the content lookup tools: fetching a displayable image for a
// query and finding a video to play. Results use the backend wire
// types so the tools backend can serve them directly.
package search

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/rhat-labs/go-rhat/internal/httpc"
	"github.com/rhat-labs/go-rhat/pkg/backend"
)

// ErrNoResults indicates the search returned nothing usable.
var ErrNoResults = errors.New("search: no results")

// maxImageBytes caps downloaded image size. Oversized results are
// skipped in favor of the next hit.
const maxImageBytes = 5 * 1024 * 1024

// imageCandidates is how many search hits to try before giving up.
const imageCandidates = 5

// Images searches for and downloads display images via Google Custom
// Search.
type Images struct {
	svc   *customsearch.Service
	cseID string
	http  *http.Client
}

// NewImages creates an image searcher. Extra options are appended
// after the API key, so tests can override the endpoint.
func NewImages(ctx context.Context, apiKey, cseID string, opts ...option.ClientOption) (*Images, error) {
	if apiKey == "" {
		return nil, errors.New("search: missing API key")
	}
	if cseID == "" {
		return nil, errors.New("search: missing custom search engine id")
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("search: create customsearch service: %w", err)
	}

	return &Images{svc: svc, cseID: cseID, http: httpc.Client}, nil
}

// Fetch searches for an image matching the query, downloads the first
// usable hit, and returns it base64-encoded with description and
// attribution from the search result.
func (s *Images) Fetch(ctx context.Context, query string) (*backend.ImageResult, error) {
	resp, err := s.svc.Cse.List().
		Cx(s.cseID).
		Q(query).
		SearchType("image").
		Num(imageCandidates).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search: image search: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	var lastErr error
	for _, item := range resp.Items {
		data, err := s.download(ctx, item.Link)
		if err != nil {
			lastErr = err
			continue
		}
		return &backend.ImageResult{
			ImageBase64: base64.StdEncoding.EncodeToString(data),
			Description: item.Title,
			Attribution: item.DisplayLink,
		}, nil
	}
	return nil, fmt.Errorf("search: no image candidate downloadable: %w", lastErr)
}

// download fetches an image URL with the size cap applied.
func (s *Images) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte cap", maxImageBytes)
	}
	return data, nil
}

// Videos searches YouTube for playable videos.
type Videos struct {
	svc *youtube.Service
}

// NewVideos creates a video searcher.
func NewVideos(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Videos, error) {
	if apiKey == "" {
		return nil, errors.New("search: missing API key")
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("search: create youtube service: %w", err)
	}
	return &Videos{svc: svc}, nil
}

// Search returns the first video hit for the query. A non-zero
// timestamp is carried through as the playback start offset.
func (s *Videos) Search(ctx context.Context, query string, timestamp float64) (*backend.VideoResult, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search: youtube search: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	item := resp.Items[0]
	result := &backend.VideoResult{
		VideoID:   item.Id.VideoId,
		URL:       "https://www.youtube.com/watch?v=" + item.Id.VideoId,
		StartTime: timestamp,
	}
	if item.Snippet != nil {
		result.Title = item.Snippet.Title
		result.ChannelTitle = item.Snippet.ChannelTitle
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			result.ThumbnailURL = item.Snippet.Thumbnails.High.Url
		}
	}
	return result, nil
}
