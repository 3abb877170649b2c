package backend

// BBox is a bounding box in pixel coordinates.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Tracker status values reported by /track/update.
const (
	StatusTracking = "tracking"
	StatusLost     = "lost"
)

// HighlightResult is the backend's answer to a highlight request: the
// best-matching detection, registered with a server-side tracker.
type HighlightResult struct {
	TrackerID  string  `json:"tracker_id"`
	Box        BBox    `json:"bbox"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	YOLOClass  string  `json:"yolo_class"`
}

// Track is the per-tracker update returned by /track/update.
type Track struct {
	Box        BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// ImageResult is the answer to a fetch-image request.
type ImageResult struct {
	ImageBase64 string `json:"image_base64"`
	Description string `json:"description"`
	Attribution string `json:"attribution"`
}

// VideoResult is the answer to a youtube search request.
type VideoResult struct {
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	StartTime    float64 `json:"start_time"`
	ChannelTitle string  `json:"channel_title,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

// Health is the backend's health report.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type highlightRequest struct {
	Image               string  `json:"image"`
	TextQuery           string  `json:"text_query"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
}

type trackUpdateRequest struct {
	Image      string   `json:"image"`
	TrackerIDs []string `json:"tracker_ids,omitempty"`
}

type trackUpdateResponse struct {
	Tracks map[string]Track `json:"tracks"`
}

type removeTrackerRequest struct {
	TrackerID string `json:"tracker_id"`
}

type fetchImageRequest struct {
	Query string `json:"query"`
}

type youtubeSearchRequest struct {
	Query     string  `json:"query"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// errorBody is the shape of backend error responses. FastAPI-style
// backends use "detail"; others use "error".
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}
