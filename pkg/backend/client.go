// Package backend is the HTTP client for the R-Hat tool backend: the
// external service that does object detection/tracking (/highlight,
// /track/*) and content lookup (/fetch-image, /youtube/search).
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhat-labs/go-rhat/internal/httpc"
)

// Client talks to the tool backend. The zero value is not usable; use
// New.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.Client,
	}
}

// NewWithHTTPClient creates a backend client with a custom HTTP client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	if hc != nil {
		c.http = hc
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Highlight asks the backend to find the object described by query in
// the JPEG frame and start tracking it.
func (c *Client) Highlight(ctx context.Context, jpeg []byte, query string) (*HighlightResult, error) {
	req := highlightRequest{
		Image:     base64.StdEncoding.EncodeToString(jpeg),
		TextQuery: query,
	}

	var result HighlightResult
	if err := c.post(ctx, "/highlight", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackUpdate sends the latest frame and returns updated positions for
// the given trackers (or all trackers when ids is empty).
func (c *Client) TrackUpdate(ctx context.Context, jpeg []byte, ids []string) (map[string]Track, error) {
	req := trackUpdateRequest{
		Image:      base64.StdEncoding.EncodeToString(jpeg),
		TrackerIDs: ids,
	}

	var resp trackUpdateResponse
	if err := c.post(ctx, "/track/update", req, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// TrackRemove removes a single tracker.
func (c *Client) TrackRemove(ctx context.Context, trackerID string) error {
	return c.post(ctx, "/track/remove", removeTrackerRequest{TrackerID: trackerID}, nil)
}

// TrackClear removes all trackers.
func (c *Client) TrackClear(ctx context.Context) error {
	return c.post(ctx, "/track/clear", struct{}{}, nil)
}

// FetchImage searches for an image matching the query.
func (c *Client) FetchImage(ctx context.Context, query string) (*ImageResult, error) {
	var result ImageResult
	if err := c.post(ctx, "/fetch-image", fetchImageRequest{Query: query}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// YouTubeSearch searches for a video matching the query. A non-zero
// timestamp asks for playback to start at that many seconds in.
func (c *Client) YouTubeSearch(ctx context.Context, query string, timestamp float64) (*VideoResult, error) {
	var result VideoResult
	req := youtubeSearchRequest{Query: query, Timestamp: timestamp}
	if err := c.post(ctx, "/youtube/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("backend: decode health response: %w", err)
	}
	return &h, nil
}

// post sends a JSON POST and decodes the response into out when out is
// non-nil. Non-2xx responses become an *APIError.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("backend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, preferring
// the body's detail/error field as the message.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body errorBody
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			message = body.Detail
		} else if body.Error != "" {
			message = body.Error
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
