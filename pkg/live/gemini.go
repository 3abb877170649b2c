package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rhat-labs/go-rhat/internal/log"
)

const (
	// Gemini Live API WebSocket endpoint
	geminiLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
)

// Gemini implements Session using Google's Gemini Live API over a raw
// WebSocket. It streams microphone audio and camera frames up and
// demultiplexes transcription, audio, and tool-call messages down.
type Gemini struct {
	config Config

	// WebSocket connection
	ws   *websocket.Conn
	wsMu sync.Mutex

	// Tools
	tools []Tool

	// Session state
	mu        sync.RWMutex
	connected bool
	closed    bool
	cancel    context.CancelFunc

	metrics *MetricsCollector

	// Callbacks
	onAudioOut         func(pcm16 []byte)
	onInputTranscript  func(text string)
	onOutputTranscript func(text string)
	onTurnComplete     func()
	onInterrupted      func()
	onToolCall         func(calls []ToolCall)
	onStatus           func(msg string)
	onError            func(err error)
}

// NewGemini creates a new Gemini Live session.
func NewGemini(cfg Config) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultConfig().Voice
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Gemini{
		config:  cfg,
		metrics: NewMetricsCollector(),
	}, nil
}

// Start establishes the WebSocket connection and begins processing.
func (g *Gemini) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.connected {
		g.mu.Unlock()
		return ErrAlreadyStarted
	}
	g.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	url := fmt.Sprintf("%s?key=%s", geminiLiveURL, g.config.APIKey)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		cancel()
		return fmt.Errorf("live/gemini: failed to connect: %w", err)
	}

	g.mu.Lock()
	g.ws = ws
	g.cancel = cancel
	g.connected = true
	g.closed = false
	g.mu.Unlock()

	if err := g.sendSetup(); err != nil {
		g.Stop()
		return fmt.Errorf("live/gemini: failed to configure session: %w", err)
	}

	go g.handleMessages()

	g.status("Connected to Gemini Live")
	return nil
}

// sendSetup sends the initial configuration to Gemini Live.
func (g *Gemini) sendSetup() error {
	var toolDeclarations []map[string]any
	for _, tool := range g.tools {
		toolDeclarations = append(toolDeclarations, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  tool.Parameters,
		})
	}

	setup := map[string]any{
		"model": g.config.Model,
		"generation_config": map[string]any{
			"response_modalities": []string{"AUDIO"},
			"speech_config": map[string]any{
				"voice_config": map[string]any{
					"prebuilt_voice_config": map[string]any{
						"voice_name": g.config.Voice,
					},
				},
			},
		},
		// Enable transcription of both sides of the conversation.
		"input_audio_transcription":  map[string]any{},
		"output_audio_transcription": map[string]any{},
	}

	if g.config.SystemPrompt != "" {
		setup["system_instruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": g.config.SystemPrompt},
			},
		}
	}

	if len(toolDeclarations) > 0 {
		setup["tools"] = []map[string]any{
			{"function_declarations": toolDeclarations},
		}
	}

	return g.sendJSON(map[string]any{"setup": setup})
}

// Stop shuts down the session. Safe to call more than once.
func (g *Gemini) Stop() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.connected = false
	cancel := g.cancel
	ws := g.ws
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		return ws.Close()
	}
	return nil
}

// IsConnected returns true if connected and ready.
func (g *Gemini) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected && !g.closed
}

// SendAudio sends a chunk of 16kHz mono PCM16 audio to the model.
func (g *Gemini) SendAudio(pcm16 []byte) error {
	if !g.IsConnected() {
		return ErrNotConnected
	}

	g.metrics.IncrementAudioIn()

	msg := map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      base64.StdEncoding.EncodeToString(pcm16),
					"mime_type": fmt.Sprintf("audio/pcm;rate=%d", g.config.InputSampleRate),
				},
			},
		},
	}

	return g.sendJSON(msg)
}

// SendFrame sends a JPEG-encoded camera frame to the model.
func (g *Gemini) SendFrame(jpeg []byte) error {
	if !g.IsConnected() {
		return ErrNotConnected
	}

	g.metrics.IncrementFrames()

	msg := map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      base64.StdEncoding.EncodeToString(jpeg),
					"mime_type": "image/jpeg",
				},
			},
		},
	}

	return g.sendJSON(msg)
}

// OnAudioOut sets the callback for inline audio payloads.
func (g *Gemini) OnAudioOut(fn func(pcm16 []byte)) {
	g.onAudioOut = fn
}

// OnInputTranscript sets the callback for user transcription deltas.
func (g *Gemini) OnInputTranscript(fn func(text string)) {
	g.onInputTranscript = fn
}

// OnOutputTranscript sets the callback for model transcription deltas.
func (g *Gemini) OnOutputTranscript(fn func(text string)) {
	g.onOutputTranscript = fn
}

// OnTurnComplete sets the callback for the turn-complete signal.
func (g *Gemini) OnTurnComplete(fn func()) {
	g.onTurnComplete = fn
}

// OnInterrupted sets the callback for barge-in events.
func (g *Gemini) OnInterrupted(fn func()) {
	g.onInterrupted = fn
}

// OnStatus sets the callback for status updates.
func (g *Gemini) OnStatus(fn func(msg string)) {
	g.onStatus = fn
}

// OnError sets the error callback.
func (g *Gemini) OnError(fn func(err error)) {
	g.onError = fn
}

// RegisterTool adds a tool the model can invoke.
func (g *Gemini) RegisterTool(tool Tool) {
	g.tools = append(g.tools, tool)
}

// OnToolCall sets the callback for tool-call batches.
func (g *Gemini) OnToolCall(fn func(calls []ToolCall)) {
	g.onToolCall = fn
}

// SubmitToolResult returns a tool result to the model.
func (g *Gemini) SubmitToolResult(res ToolResult) error {
	response := map[string]any{"result": res.Result}
	if res.Error != "" {
		response["error"] = res.Error
	}

	msg := map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{
				{
					"id":       res.ID,
					"name":     res.Name,
					"response": response,
				},
			},
		},
	}

	return g.sendJSON(msg)
}

// Metrics returns counters for the current session.
func (g *Gemini) Metrics() Metrics {
	return g.metrics.Current()
}

// handleMessages processes incoming WebSocket messages until the
// connection closes. Messages are handled strictly in arrival order.
func (g *Gemini) handleMessages() {
	for {
		g.mu.RLock()
		closed := g.closed
		ws := g.ws
		g.mu.RUnlock()

		if closed {
			return
		}

		_, message, err := ws.ReadMessage()
		if err != nil {
			// The connection is gone either way; without this,
			// IsConnected keeps reporting true after an unexpected
			// disconnect.
			g.mu.Lock()
			closed := g.closed
			g.connected = false
			g.mu.Unlock()

			if !closed {
				g.status("Connection lost: " + err.Error())
				if g.onError != nil {
					g.onError(err)
				}
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug("gemini: failed to parse message", "error", err)
			continue
		}

		g.handleMessage(msg)
	}
}

// handleMessage demultiplexes a single Gemini Live message.
func (g *Gemini) handleMessage(msg map[string]any) {
	if _, ok := msg["setupComplete"]; ok {
		g.status("Session ready. You can start talking.")
		return
	}

	if serverContent, ok := msg["serverContent"].(map[string]any); ok {
		g.handleServerContent(serverContent)
		return
	}

	if toolCall, ok := msg["toolCall"].(map[string]any); ok {
		g.handleToolCall(toolCall)
		return
	}

	if _, ok := msg["toolCallCancellation"]; ok {
		log.Debug("gemini: tool call cancelled")
		return
	}

	if g.config.Debug {
		log.Debug("gemini: unhandled message", "msg", msg)
	}
}

// handleServerContent processes transcription, audio, and turn signals.
func (g *Gemini) handleServerContent(content map[string]any) {
	if interrupted, ok := content["interrupted"].(bool); ok && interrupted {
		if g.onInterrupted != nil {
			g.onInterrupted()
		}
		return
	}

	if inputTranscript, ok := content["inputTranscription"].(map[string]any); ok {
		if text, ok := inputTranscript["text"].(string); ok && text != "" {
			g.metrics.MarkTurnStart()
			if g.onInputTranscript != nil {
				g.onInputTranscript(text)
			}
		}
	}

	if outputTranscript, ok := content["outputTranscription"].(map[string]any); ok {
		if text, ok := outputTranscript["text"].(string); ok && text != "" {
			if g.onOutputTranscript != nil {
				g.onOutputTranscript(text)
			}
		}
	}

	if modelTurn, ok := content["modelTurn"].(map[string]any); ok {
		if parts, ok := modelTurn["parts"].([]any); ok {
			for _, part := range parts {
				partMap, ok := part.(map[string]any)
				if !ok {
					continue
				}

				inlineData, ok := partMap["inlineData"].(map[string]any)
				if !ok {
					continue
				}
				mimeType, _ := inlineData["mimeType"].(string)
				if !strings.HasPrefix(mimeType, "audio/pcm") {
					continue
				}
				data, _ := inlineData["data"].(string)
				audioData, err := base64.StdEncoding.DecodeString(data)
				if err != nil || len(audioData) == 0 {
					continue
				}

				g.metrics.MarkFirstAudio()
				g.metrics.IncrementAudioOut()
				if g.onAudioOut != nil {
					g.onAudioOut(audioData)
				}
			}
		}
	}

	// Turn complete is checked last so transcription deltas carried in
	// the same message are delivered before the flush.
	if turnComplete, ok := content["turnComplete"].(bool); ok && turnComplete {
		g.metrics.MarkTurnComplete()
		if g.onTurnComplete != nil {
			g.onTurnComplete()
		}
	}
}

// handleToolCall parses a function-call batch and hands it to the
// registered callback as a single batch.
func (g *Gemini) handleToolCall(toolCall map[string]any) {
	functionCalls, ok := toolCall["functionCalls"].([]any)
	if !ok {
		return
	}

	var calls []ToolCall
	for _, fc := range functionCalls {
		fcMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}

		name, _ := fcMap["name"].(string)
		id, _ := fcMap["id"].(string)
		args, _ := fcMap["args"].(map[string]any)

		calls = append(calls, ToolCall{ID: id, Name: name, Args: args})
	}

	if len(calls) == 0 {
		return
	}

	g.metrics.IncrementToolCalls(len(calls))
	log.Debug("gemini: tool call batch", "count", len(calls))

	if g.onToolCall != nil {
		g.onToolCall(calls)
	}
}

// sendJSON sends a JSON message over the WebSocket.
func (g *Gemini) sendJSON(v any) error {
	g.wsMu.Lock()
	defer g.wsMu.Unlock()

	if g.ws == nil {
		return ErrNotConnected
	}

	return g.ws.WriteJSON(v)
}

func (g *Gemini) status(msg string) {
	if g.onStatus != nil {
		g.onStatus(msg)
	}
}

// Ensure Gemini implements Session at compile time.
var _ Session = (*Gemini)(nil)
