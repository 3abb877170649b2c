package protocol

import (
	"encoding/base64"
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewMicMessage creates a microphone audio message
func NewMicMessage(pcmData []byte, sampleRate int) (*Message, error) {
	return NewMessage(TypeMic, MicData{
		Format:     "pcm16",
		SampleRate: sampleRate,
		Channels:   1,
		Data:       base64.StdEncoding.EncodeToString(pcmData),
	})
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewAudioMessage creates an assistant audio message
func NewAudioMessage(pcmData []byte, sampleRate int) (*Message, error) {
	return NewMessage(TypeAudio, AudioData{
		Format:     "pcm16",
		SampleRate: sampleRate,
		Channels:   1,
		Data:       base64.StdEncoding.EncodeToString(pcmData),
	})
}

// NewTranscriptMessage creates a transcript message
func NewTranscriptMessage(role, text string, final bool) (*Message, error) {
	return NewMessage(TypeTranscript, TranscriptData{
		Role:  role,
		Text:  text,
		Final: final,
	})
}

// NewOverlayMessage creates an overlay snapshot message. The snapshot
// is marshaled as-is so the overlay package owns its own wire shape.
func NewOverlayMessage(snapshot interface{}) (*Message, error) {
	return NewMessage(TypeOverlay, snapshot)
}

// NewStatusMessage creates a status message
func NewStatusMessage(text string) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{Message: text})
}

// NewStateMessage creates a state message
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewInterruptMessage creates an interrupt message
func NewInterruptMessage() (*Message, error) {
	return NewMessage(TypeInterrupt, nil)
}

// NewPongMessage creates a pong response for the given ping
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}
