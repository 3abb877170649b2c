// Package config provides configuration helpers for go-rhat commands.
package config

import (
	"os"
)

// Default endpoints and ports.
const (
	DefaultPort       = "8181"
	DefaultToolsPort  = "8000"
	DefaultBackendURL = "http://localhost:8000"
)

// GeminiAPIKey returns the Gemini API key from GEMINI_API_KEY,
// falling back to GOOGLE_API_KEY.
func GeminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// BackendURL returns the tracking backend URL from RHAT_BACKEND_URL.
// Falls back to the provided default, or DefaultBackendURL if empty.
func BackendURL(defaultURL string) string {
	if url := os.Getenv("RHAT_BACKEND_URL"); url != "" {
		return url
	}
	if defaultURL != "" {
		return defaultURL
	}
	return DefaultBackendURL
}

// Port returns the HTTP listen port from PORT or the given default.
func Port(defaultPort string) string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	if defaultPort != "" {
		return defaultPort
	}
	return DefaultPort
}

// GoogleAPIKey returns the Google API key for Custom Search from
// GOOGLE_SEARCH_API_KEY, falling back to GOOGLE_API_KEY.
func GoogleAPIKey() string {
	if key := os.Getenv("GOOGLE_SEARCH_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// GoogleCSEID returns the Google Custom Search engine ID from
// GOOGLE_CSE_ID. Empty when image search is not configured.
func GoogleCSEID() string {
	return os.Getenv("GOOGLE_CSE_ID")
}

// YouTubeAPIKey returns the YouTube Data API key from YOUTUBE_API_KEY,
// falling back to GOOGLE_API_KEY.
func YouTubeAPIKey() string {
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}
