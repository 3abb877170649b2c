package live

import (
	"sync"
	"time"
)

// Metrics tracks traffic counters and per-turn latency for a session.
type Metrics struct {
	// Counters for the session lifetime.
	AudioChunksIn  int // microphone chunks sent to the model
	AudioChunksOut int // playback chunks received from the model
	FramesSent     int // camera frames sent to the model
	ToolCalls      int // tool calls received
	Turns          int // completed turns

	// Per-turn timing. TurnStart is when the first input transcription
	// of the turn arrived; FirstAudio is when the first playback chunk
	// of the model's reply arrived.
	TurnStart  time.Time
	FirstAudio time.Time

	// FirstAudioLatency is FirstAudio - TurnStart for the last turn.
	FirstAudioLatency time.Duration
}

// MetricsCollector accumulates Metrics. It is goroutine-safe and can be
// updated from session callbacks.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// Current returns a snapshot of the collected metrics.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IncrementAudioIn counts a microphone chunk sent to the model.
func (m *MetricsCollector) IncrementAudioIn() {
	m.mu.Lock()
	m.current.AudioChunksIn++
	m.mu.Unlock()
}

// IncrementAudioOut counts a playback chunk received from the model.
func (m *MetricsCollector) IncrementAudioOut() {
	m.mu.Lock()
	m.current.AudioChunksOut++
	m.mu.Unlock()
}

// IncrementFrames counts a camera frame sent to the model.
func (m *MetricsCollector) IncrementFrames() {
	m.mu.Lock()
	m.current.FramesSent++
	m.mu.Unlock()
}

// IncrementToolCalls counts received tool calls.
func (m *MetricsCollector) IncrementToolCalls(n int) {
	m.mu.Lock()
	m.current.ToolCalls += n
	m.mu.Unlock()
}

// MarkTurnStart records the start of a turn. Repeated calls within the
// same turn keep the earliest timestamp.
func (m *MetricsCollector) MarkTurnStart() {
	m.mu.Lock()
	if m.current.TurnStart.IsZero() {
		m.current.TurnStart = time.Now()
	}
	m.mu.Unlock()
}

// MarkFirstAudio records the first playback chunk of the model's reply.
func (m *MetricsCollector) MarkFirstAudio() {
	m.mu.Lock()
	if m.current.FirstAudio.IsZero() {
		m.current.FirstAudio = time.Now()
		if !m.current.TurnStart.IsZero() {
			m.current.FirstAudioLatency = m.current.FirstAudio.Sub(m.current.TurnStart)
		}
	}
	m.mu.Unlock()
}

// MarkTurnComplete finalizes the current turn and resets the per-turn
// timestamps.
func (m *MetricsCollector) MarkTurnComplete() {
	m.mu.Lock()
	m.current.Turns++
	m.current.TurnStart = time.Time{}
	m.current.FirstAudio = time.Time{}
	m.mu.Unlock()
}
