package session

import "time"

// State is the session lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateError      State = "error"
)

// Advisory AI activity states, derived from live session callbacks.
// These drive the status indicator only; nothing gates on them.
const (
	AIListening  = "listening"
	AIProcessing = "processing"
	AIUsingTool  = "using_tool"
	AISpeaking   = "speaking"
)

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TranscriptEntry is one finalized line of the conversation log.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
