package live

import (
	"context"
	"errors"
)

// Common errors returned by sessions.
var (
	ErrNotConnected   = errors.New("live: session not connected")
	ErrAlreadyStarted = errors.New("live: session already started")
	ErrMissingAPIKey  = errors.New("live: missing API key")
)

// Session is the interface for a realtime multimodal session.
type Session interface {
	// Lifecycle

	// Start establishes the connection and begins processing.
	// Call this after registering tools and setting up callbacks.
	Start(ctx context.Context) error

	// Stop shuts down the session and releases its resources.
	// Calling Stop more than once is a no-op.
	Stop() error

	// IsConnected returns true if the session is connected and ready.
	IsConnected() bool

	// Media I/O

	// SendAudio sends a chunk of 16kHz mono PCM16 microphone audio.
	SendAudio(pcm16 []byte) error

	// SendFrame sends a JPEG-encoded camera frame.
	SendFrame(jpeg []byte) error

	// Events

	// OnAudioOut sets the callback for inline audio payloads.
	// Audio is 24kHz mono PCM16.
	OnAudioOut(fn func(pcm16 []byte))

	// OnInputTranscript sets the callback for partial transcription
	// of the user's speech.
	OnInputTranscript(fn func(text string))

	// OnOutputTranscript sets the callback for partial transcription
	// of the model's speech.
	OnOutputTranscript(fn func(text string))

	// OnTurnComplete sets the callback for the turn-complete signal.
	OnTurnComplete(fn func())

	// OnInterrupted is called when the user barges in over the model.
	OnInterrupted(fn func())

	// OnStatus sets the callback for human-readable status updates.
	OnStatus(fn func(msg string))

	// OnError is called when a transport error occurs.
	OnError(fn func(err error))

	// Tools

	// RegisterTool adds a tool the model can invoke.
	// Must be called before Start().
	RegisterTool(tool Tool)

	// OnToolCall sets the callback for tool-call batches. Submit one
	// ToolResult per call via SubmitToolResult.
	OnToolCall(fn func(calls []ToolCall))

	// SubmitToolResult returns a tool result to the model.
	SubmitToolResult(res ToolResult) error

	// Metrics returns counters for the current session.
	Metrics() Metrics
}

// Callbacks groups all session callbacks for convenience.
type Callbacks struct {
	OnAudioOut         func(pcm16 []byte)
	OnInputTranscript  func(text string)
	OnOutputTranscript func(text string)
	OnTurnComplete     func()
	OnInterrupted      func()
	OnToolCall         func(calls []ToolCall)
	OnStatus           func(msg string)
	OnError            func(err error)
}

// Apply sets all non-nil callbacks on a session.
func (c *Callbacks) Apply(s Session) {
	if c.OnAudioOut != nil {
		s.OnAudioOut(c.OnAudioOut)
	}
	if c.OnInputTranscript != nil {
		s.OnInputTranscript(c.OnInputTranscript)
	}
	if c.OnOutputTranscript != nil {
		s.OnOutputTranscript(c.OnOutputTranscript)
	}
	if c.OnTurnComplete != nil {
		s.OnTurnComplete(c.OnTurnComplete)
	}
	if c.OnInterrupted != nil {
		s.OnInterrupted(c.OnInterrupted)
	}
	if c.OnToolCall != nil {
		s.OnToolCall(c.OnToolCall)
	}
	if c.OnStatus != nil {
		s.OnStatus(c.OnStatus)
	}
	if c.OnError != nil {
		s.OnError(c.OnError)
	}
}
