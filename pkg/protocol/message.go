// Package protocol defines the WebSocket message types for
// browser-app communication. The browser is a thin capture and render
// surface: it sends mic audio and camera frames up, and receives
// assistant audio, transcripts, and overlay state back.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Browser → App messages
	TypeMic     MessageType = "mic"     // Microphone audio
	TypeFrame   MessageType = "frame"   // Camera frame
	TypeControl MessageType = "control" // UI action (start/stop, dismiss)

	// App → Browser messages
	TypeAudio      MessageType = "audio"      // Assistant audio to play
	TypeTranscript MessageType = "transcript" // Conversation transcript delta
	TypeOverlay    MessageType = "overlay"    // Full overlay snapshot
	TypeStatus     MessageType = "status"     // Human-readable status line
	TypeState      MessageType = "state"      // Session and AI state
	TypeInterrupt  MessageType = "interrupt"  // Flush queued assistant audio

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Browser → App Message Types
// =============================================================================

// MicData contains microphone audio
type MicData struct {
	Format     string `json:"format"`      // "pcm16"
	SampleRate int    `json:"sample_rate"` // e.g., 16000
	Channels   int    `json:"channels"`    // 1 for mono
	Data       string `json:"data"`        // base64 encoded
}

// FrameData contains a camera frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// Control actions the browser can request.
const (
	ActionStartSession = "start_session"
	ActionStopSession  = "stop_session"
	ActionDismissImage = "dismiss_image"
	ActionClearVideo   = "clear_video"
)

// ControlData contains a UI action
type ControlData struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"` // e.g., image id for dismiss
}

// =============================================================================
// App → Browser Message Types
// =============================================================================

// AudioData contains assistant audio to play
type AudioData struct {
	Format     string `json:"format"`      // "pcm16"
	SampleRate int    `json:"sample_rate"` // e.g., 24000
	Channels   int    `json:"channels"`    // 1 for mono
	Data       string `json:"data"`        // base64 encoded
}

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TranscriptData contains a transcript delta or a finalized entry
type TranscriptData struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Final bool   `json:"final"` // true when the turn completed
}

// StatusData contains a human-readable status line
type StatusData struct {
	Message string `json:"message"`
}

// StateData contains the session and AI state
type StateData struct {
	Session        string `json:"session"` // idle, connecting, active, error
	AI             string `json:"ai"`      // listening, processing, using_tool, speaking
	LiveConnected  bool   `json:"live_connected"`
	BackendHealthy bool   `json:"backend_healthy"`
	Error          string `json:"error,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
