package live

import "errors"

// Config holds the tunable parameters for a realtime session.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string

	// Model is the Gemini Live model name.
	Model string

	// Voice selects the prebuilt voice for audio responses.
	Voice string

	// SystemPrompt contains the system instructions for the model.
	SystemPrompt string

	// InputSampleRate is the microphone sample rate in Hz (default 16000).
	InputSampleRate int

	// OutputSampleRate is the playback sample rate in Hz (default 24000).
	OutputSampleRate int

	// FrameRate is the camera frame rate sent to the model, in frames
	// per second (default 2).
	FrameRate int

	// JPEGQuality is the camera frame encoding quality 1-100 (default 70).
	JPEGQuality int

	// Debug enables verbose logging of session traffic.
	Debug bool
}

// DefaultConfig returns a Config with the standard R-Hat settings.
func DefaultConfig() Config {
	return Config{
		Model:            "models/gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:            "Zephyr",
		InputSampleRate:  16000,
		OutputSampleRate: 24000,
		FrameRate:        2,
		JPEGQuality:      70,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.InputSampleRate <= 0 {
		return errors.New("live: input sample rate must be positive")
	}
	if c.OutputSampleRate <= 0 {
		return errors.New("live: output sample rate must be positive")
	}
	if c.FrameRate < 0 {
		return errors.New("live: frame rate must not be negative")
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return errors.New("live: JPEG quality must be between 0 and 100")
	}
	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithDebug returns a copy with debug enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
