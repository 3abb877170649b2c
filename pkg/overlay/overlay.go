// Package overlay holds the transient UI state rendered on top of the
// camera feed: tracked highlight boxes, displayed images, the current
// video, the checklist, and the countdown timer.
//
// All state lives in a single Store owned by the session manager. Every
// mutation produces a fresh Snapshot through the OnChange callback so
// the presentation layer can re-render without reaching into the store.
package overlay

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhat-labs/go-rhat/pkg/backend"
)

// Highlight is an active tracked bounding box.
type Highlight struct {
	ID         string       `json:"id"`
	TrackerID  string       `json:"tracker_id"`
	Label      string       `json:"label"`
	Box        backend.BBox `json:"box"`
	Confidence float64      `json:"confidence"`
	Status     string       `json:"status"`
	AddedAt    time.Time    `json:"added_at"`

	// ExpiresAt is zero for highlights without a duration.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// DisplayedImage is an image shown in the overlay panel.
type DisplayedImage struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	ImageBase64 string    `json:"image_base64"`
	Description string    `json:"description"`
	Attribution string    `json:"attribution"`
	AddedAt     time.Time `json:"added_at"`
}

// Video is the single currently playing video. Only one plays at a
// time; setting a new one replaces it.
type Video struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	StartTime    float64   `json:"start_time"`
	ChannelTitle string    `json:"channel_title,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	SetAt        time.Time `json:"set_at"`
}

// Timer is the active countdown timer.
type Timer struct {
	Target    time.Time `json:"target"`
	Remaining int       `json:"remaining"`
}

// Snapshot is an immutable copy of the overlay state for rendering.
type Snapshot struct {
	Highlights []Highlight      `json:"highlights"`
	Images     []DisplayedImage `json:"images"`
	Video      *Video           `json:"video,omitempty"`
	Checklist  Checklist        `json:"checklist"`
	Timer      *Timer           `json:"timer,omitempty"`
}

// Store owns all overlay state. It is goroutine-safe.
type Store struct {
	mu         sync.RWMutex
	highlights map[string]Highlight
	images     map[string]DisplayedImage
	video      *Video
	checklist  Checklist
	timer      *Timer

	onChange func(Snapshot)

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty overlay store.
func NewStore() *Store {
	return &Store{
		highlights: make(map[string]Highlight),
		images:     make(map[string]DisplayedImage),
		now:        time.Now,
	}
}

// OnChange sets the callback fired with a fresh snapshot after every
// mutation. Must be set before the store is shared.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// Snapshot returns a copy of the current overlay state. Highlights and
// images are ordered oldest-first for stable rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Checklist: s.checklist.copy(),
	}

	for _, h := range s.highlights {
		snap.Highlights = append(snap.Highlights, h)
	}
	sort.Slice(snap.Highlights, func(i, j int) bool {
		return snap.Highlights[i].AddedAt.Before(snap.Highlights[j].AddedAt)
	})

	for _, img := range s.images {
		snap.Images = append(snap.Images, img)
	}
	sort.Slice(snap.Images, func(i, j int) bool {
		return snap.Images[i].AddedAt.Before(snap.Images[j].AddedAt)
	})

	if s.video != nil {
		v := *s.video
		snap.Video = &v
	}
	if s.timer != nil {
		t := *s.timer
		snap.Timer = &t
	}
	return snap
}

// notifyLocked fires the change callback with a snapshot taken under
// the lock. Callers must hold s.mu.
func (s *Store) notifyLocked() {
	if s.onChange == nil {
		return
	}
	snap := s.snapshotLocked()
	s.onChange(snap)
}

// AddHighlight records a new tracked highlight and returns its id.
// A positive duration schedules automatic removal.
func (s *Store) AddHighlight(trackerID, label string, box backend.BBox, confidence float64, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := Highlight{
		ID:         uuid.NewString(),
		TrackerID:  trackerID,
		Label:      label,
		Box:        box,
		Confidence: confidence,
		Status:     backend.StatusTracking,
		AddedAt:    s.now(),
	}
	if duration > 0 {
		h.ExpiresAt = s.now().Add(duration)
	}

	s.highlights[h.ID] = h
	s.notifyLocked()
	return h.ID
}

// ApplyTracks applies a /track/update result. Highlights whose tracker
// reports lost are removed; the rest get their box and confidence
// refreshed. Returns the tracker ids that were dropped.
func (s *Store) ApplyTracks(tracks map[string]backend.Track) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	changed := false
	for id, h := range s.highlights {
		track, ok := tracks[h.TrackerID]
		if !ok {
			continue
		}
		if track.Status == backend.StatusLost {
			delete(s.highlights, id)
			dropped = append(dropped, h.TrackerID)
			changed = true
			continue
		}
		h.Box = track.Box
		h.Confidence = track.Confidence
		h.Status = track.Status
		s.highlights[id] = h
		changed = true
	}

	if changed {
		s.notifyLocked()
	}
	return dropped
}

// RemoveHighlight removes a highlight by id and returns its tracker id.
func (s *Store) RemoveHighlight(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.highlights[id]
	if !ok {
		return "", false
	}
	delete(s.highlights, id)
	s.notifyLocked()
	return h.TrackerID, true
}

// ClearHighlights removes all highlights and returns their tracker ids.
func (s *Store) ClearHighlights() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, h := range s.highlights {
		ids = append(ids, h.TrackerID)
	}
	if len(ids) == 0 {
		return nil
	}
	s.highlights = make(map[string]Highlight)
	s.notifyLocked()
	return ids
}

// SweepExpired removes highlights past their ExpiresAt and returns
// their tracker ids.
func (s *Store) SweepExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var dropped []string
	for id, h := range s.highlights {
		if !h.ExpiresAt.IsZero() && !now.Before(h.ExpiresAt) {
			delete(s.highlights, id)
			dropped = append(dropped, h.TrackerID)
		}
	}
	if len(dropped) > 0 {
		s.notifyLocked()
	}
	return dropped
}

// TrackerIDs returns the tracker ids of all active highlights.
func (s *Store) TrackerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, h := range s.highlights {
		ids = append(ids, h.TrackerID)
	}
	sort.Strings(ids)
	return ids
}

// ShowImage adds a displayed image and returns its id.
func (s *Store) ShowImage(query string, result backend.ImageResult) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := DisplayedImage{
		ID:          uuid.NewString(),
		Query:       query,
		ImageBase64: result.ImageBase64,
		Description: result.Description,
		Attribution: result.Attribution,
		AddedAt:     s.now(),
	}
	s.images[img.ID] = img
	s.notifyLocked()
	return img.ID
}

// DismissImage removes a displayed image by id.
func (s *Store) DismissImage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[id]; !ok {
		return false
	}
	delete(s.images, id)
	s.notifyLocked()
	return true
}

// SetVideo replaces the single current video slot.
func (s *Store) SetVideo(result backend.VideoResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.video = &Video{
		VideoID:      result.VideoID,
		Title:        result.Title,
		URL:          result.URL,
		StartTime:    result.StartTime,
		ChannelTitle: result.ChannelTitle,
		ThumbnailURL: result.ThumbnailURL,
		SetAt:        s.now(),
	}
	s.notifyLocked()
}

// ClearVideo removes the current video.
func (s *Store) ClearVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.video == nil {
		return
	}
	s.video = nil
	s.notifyLocked()
}

// Reset clears all overlay state. Used on session teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.highlights = make(map[string]Highlight)
	s.images = make(map[string]DisplayedImage)
	s.video = nil
	s.checklist = Checklist{}
	s.timer = nil
	s.notifyLocked()
}
