// Package session owns the lifecycle of one live conversation: the
// Gemini Live session, the tool dispatcher, the overlay store, the
// transcript log, and the periodic frame/track/timer loops. Everything
// the app holds per-session hangs off one Manager; there are no
// package-level globals.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/backend"
	"github.com/rhat-labs/go-rhat/pkg/live"
	"github.com/rhat-labs/go-rhat/pkg/overlay"
	"github.com/rhat-labs/go-rhat/pkg/tools"
)

// Config configures a Manager.
type Config struct {
	// Live is the Gemini Live session configuration.
	Live live.Config

	// BackendURL is the tool backend base URL.
	BackendURL string

	// FrameInterval throttles camera frames to the model. Defaults to
	// 500ms (2 FPS).
	FrameInterval time.Duration

	// TrackInterval is how often active trackers are refreshed.
	// Defaults to 500ms.
	TrackInterval time.Duration

	// IntentFallback enables parsing final user transcripts for spoken
	// commands the model narrated instead of calling.
	IntentFallback bool

	// NewSession overrides the live session factory. Used in tests.
	NewSession func(live.Config) (live.Session, error)
}

func (c *Config) applyDefaults() {
	if c.FrameInterval <= 0 {
		c.FrameInterval = 500 * time.Millisecond
	}
	if c.TrackInterval <= 0 {
		c.TrackInterval = 500 * time.Millisecond
	}
	if c.NewSession == nil {
		c.NewSession = func(cfg live.Config) (live.Session, error) {
			return live.NewGemini(cfg)
		}
	}
}

// Manager owns one live conversation and its resources.
type Manager struct {
	cfg      Config
	backend  *backend.Client
	overlay  *overlay.Store
	registry *tools.Registry
	dispatch *tools.Dispatcher

	mu         sync.Mutex
	sess       live.Session
	sessCtx    context.Context
	state      State
	aiState    string
	lastErr    error
	generation int
	cancel     context.CancelFunc

	frameMu      sync.RWMutex
	latestFrame  []byte
	framePending bool

	transcriptMu sync.Mutex
	transcript   []TranscriptEntry
	userAcc      strings.Builder
	modelAcc     strings.Builder

	onAudio      func(pcm []byte)
	onTranscript func(role, text string, final bool)
	onOverlay    func(snap overlay.Snapshot)
	onStatus     func(msg string)
	onState      func(state State, ai string, err error)
	onInterrupt  func()
}

// NewManager creates a Manager. The session is not started.
func NewManager(cfg Config) *Manager {
	cfg.applyDefaults()

	m := &Manager{
		cfg:     cfg,
		backend: backend.New(cfg.BackendURL),
		overlay: overlay.NewStore(),
		state:   StateIdle,
		aiState: AIListening,
	}

	m.overlay.OnChange(func(snap overlay.Snapshot) {
		if m.onOverlay != nil {
			m.onOverlay(snap)
		}
	})

	m.registry = tools.NewRegistry()
	m.registry.RegisterAll(tools.All(tools.Deps{
		Backend: m.backend,
		Overlay: m.overlay,
		Frame:   m.LatestFrame,
	}))

	m.dispatch = tools.NewDispatcher(m.registry)
	m.dispatch.OnActivity(func(active bool) {
		if active {
			m.setAIState(AIUsingTool)
		} else {
			m.setAIState(AIListening)
		}
	})

	return m
}

// Callback setters. Set before Start; not safe to change mid-session.

func (m *Manager) OnAudio(fn func(pcm []byte)) { m.onAudio = fn }

func (m *Manager) OnTranscript(fn func(role, text string, final bool)) { m.onTranscript = fn }

func (m *Manager) OnOverlay(fn func(snap overlay.Snapshot)) { m.onOverlay = fn }

func (m *Manager) OnStatus(fn func(msg string)) { m.onStatus = fn }

func (m *Manager) OnState(fn func(state State, ai string, err error)) { m.onState = fn }

func (m *Manager) OnInterrupt(fn func()) { m.onInterrupt = fn }

// Backend returns the tool backend client.
func (m *Manager) Backend() *backend.Client { return m.backend }

// Overlay returns the overlay store.
func (m *Manager) Overlay() *overlay.Store { return m.overlay }

// Registry returns the tool registry.
func (m *Manager) Registry() *tools.Registry { return m.registry }

// Start connects a new live session. Any previous session is torn
// down first.
func (m *Manager) Start(ctx context.Context) error {
	m.Stop()

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.state = StateConnecting
	m.lastErr = nil
	m.mu.Unlock()
	m.emitState()

	sess, err := m.cfg.NewSession(m.cfg.Live)
	if err != nil {
		m.failSession(gen, err)
		return err
	}

	for _, decl := range m.registry.Declarations() {
		sess.RegisterTool(decl)
	}
	m.wireCallbacks(sess, gen)

	sessCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.sess = sess
	m.sessCtx = sessCtx
	m.cancel = cancel
	m.mu.Unlock()

	if err := sess.Start(ctx); err != nil {
		cancel()
		m.failSession(gen, err)
		return err
	}

	m.mu.Lock()
	m.state = StateActive
	m.aiState = AIListening
	m.mu.Unlock()
	m.emitState()
	m.addTranscript(RoleSystem, "Session started")

	go m.runLoops(sessCtx, gen)
	return nil
}

// Stop tears down the current session. Safe to call when no session is
// running, and safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	sess := m.sess
	cancel := m.cancel
	wasActive := m.state == StateActive || m.state == StateConnecting
	m.sess = nil
	m.sessCtx = nil
	m.cancel = nil
	m.generation++
	m.state = StateIdle
	m.aiState = AIListening
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		if err := sess.Stop(); err != nil {
			log.Warn("live session stop", "error", err)
		}
	}
	if wasActive {
		m.flushTranscripts()
		m.addTranscript(RoleSystem, "Session stopped")
		m.overlay.Reset()
		m.emitState()
	}
}

// State returns the lifecycle state, AI activity state, and last
// error.
func (m *Manager) State() (State, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.aiState, m.lastErr
}

// Connected reports whether a live session is up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil && m.sess.IsConnected()
}

// Metrics returns the live session metrics, or zero when idle.
func (m *Manager) Metrics() live.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return live.Metrics{}
	}
	return m.sess.Metrics()
}

// HandleAudio forwards browser mic audio to the model.
func (m *Manager) HandleAudio(pcm []byte) error {
	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return live.ErrNotConnected
	}
	return sess.SendAudio(pcm)
}

// HandleFrame caches the latest camera frame. Frames go to the model
// on the frame ticker, not per arrival, so browser capture rate does
// not drive model cost.
func (m *Manager) HandleFrame(jpeg []byte) {
	m.frameMu.Lock()
	m.latestFrame = jpeg
	m.framePending = true
	m.frameMu.Unlock()
}

// LatestFrame returns the most recent camera frame, or nil.
func (m *Manager) LatestFrame() []byte {
	m.frameMu.RLock()
	defer m.frameMu.RUnlock()
	return m.latestFrame
}

// Transcript returns a copy of the finalized conversation log.
func (m *Manager) Transcript() []TranscriptEntry {
	m.transcriptMu.Lock()
	defer m.transcriptMu.Unlock()
	out := make([]TranscriptEntry, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// TriggerTool runs a single tool by name outside the model loop, for
// manual triggers from the UI.
func (m *Manager) TriggerTool(ctx context.Context, name string, args map[string]any) live.ToolResult {
	results := m.dispatch.Dispatch(ctx, []live.ToolCall{{
		ID:   fmt.Sprintf("manual-%d", time.Now().UnixNano()),
		Name: name,
		Args: args,
	}})
	return results[0]
}

// wireCallbacks connects live session events to manager state. gen
// guards late events from a torn-down session.
func (m *Manager) wireCallbacks(sess live.Session, gen int) {
	cb := live.Callbacks{
		OnAudioOut: func(pcm []byte) {
			if !m.currentGeneration(gen) {
				return
			}
			m.setAIState(AISpeaking)
			if m.onAudio != nil {
				m.onAudio(pcm)
			}
		},
		OnInputTranscript: func(text string) {
			if !m.currentGeneration(gen) {
				return
			}
			m.setAIState(AIProcessing)
			m.transcriptMu.Lock()
			m.userAcc.WriteString(text)
			m.transcriptMu.Unlock()
			if m.onTranscript != nil {
				m.onTranscript(RoleUser, text, false)
			}
		},
		OnOutputTranscript: func(text string) {
			if !m.currentGeneration(gen) {
				return
			}
			m.transcriptMu.Lock()
			m.modelAcc.WriteString(text)
			m.transcriptMu.Unlock()
			if m.onTranscript != nil {
				m.onTranscript(RoleAssistant, text, false)
			}
		},
		OnTurnComplete: func() {
			if !m.currentGeneration(gen) {
				return
			}
			m.finishTurn(gen)
		},
		OnInterrupted: func() {
			if !m.currentGeneration(gen) {
				return
			}
			m.setAIState(AIListening)
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
		},
		OnStatus: func(msg string) {
			if !m.currentGeneration(gen) {
				return
			}
			if m.onStatus != nil {
				m.onStatus(msg)
			}
		},
		OnError: func(err error) {
			m.failSession(gen, err)
		},
		OnToolCall: func(calls []live.ToolCall) {
			if !m.currentGeneration(gen) {
				return
			}
			go m.runToolCalls(sess, gen, calls)
		},
	}
	cb.Apply(sess)
}

// runToolCalls dispatches a batch and submits each result back to the
// model, unless the session was torn down while handlers ran. Handlers
// run under the session context so teardown cancels in-flight backend
// calls.
func (m *Manager) runToolCalls(sess live.Session, gen int, calls []live.ToolCall) {
	results := m.dispatch.Dispatch(m.sessionContext(), calls)
	if !m.currentGeneration(gen) {
		log.Debug("discarding tool results for stale session", "count", len(results))
		return
	}
	for _, res := range results {
		if err := sess.SubmitToolResult(res); err != nil {
			log.Warn("failed to submit tool result", "tool", res.Name, "error", err)
		}
	}
}

// finishTurn flushes transcript accumulators into the log. An empty
// accumulator adds no entry.
func (m *Manager) finishTurn(gen int) {
	userText, modelText := m.drainAccumulators()

	if userText != "" {
		m.appendEntry(RoleUser, userText)
		if m.onTranscript != nil {
			m.onTranscript(RoleUser, userText, true)
		}
		if m.cfg.IntentFallback {
			m.runIntentFallback(gen, userText)
		}
	}
	if modelText != "" {
		m.appendEntry(RoleAssistant, modelText)
		if m.onTranscript != nil {
			m.onTranscript(RoleAssistant, modelText, true)
		}
	}

	m.setAIState(AIListening)
}

// runIntentFallback executes spoken-command tool calls parsed from the
// final user transcript. Results stay local; they are not submitted to
// the model.
func (m *Manager) runIntentFallback(gen int, text string) {
	calls := tools.ParseIntent(text)
	if len(calls) == 0 {
		return
	}

	go func() {
		results := m.dispatch.Dispatch(m.sessionContext(), calls)
		if !m.currentGeneration(gen) {
			return
		}
		for _, res := range results {
			if res.Error != "" {
				log.Warn("intent fallback tool failed", "tool", res.Name, "error", res.Error)
				continue
			}
			if m.onStatus != nil {
				m.onStatus(res.Result)
			}
		}
	}()
}

// runLoops owns the periodic work for one session generation: frame
// forwarding, tracker refresh, highlight expiry, and the timer tick.
func (m *Manager) runLoops(ctx context.Context, gen int) {
	frameTicker := time.NewTicker(m.cfg.FrameInterval)
	trackTicker := time.NewTicker(m.cfg.TrackInterval)
	timerTicker := time.NewTicker(time.Second)
	defer frameTicker.Stop()
	defer trackTicker.Stop()
	defer timerTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-frameTicker.C:
			m.sendPendingFrame()

		case <-trackTicker.C:
			m.refreshTracks(ctx, gen)

		case <-timerTicker.C:
			m.overlay.TickTimer()
			for _, trackerID := range m.overlay.SweepExpired() {
				if err := m.backend.TrackRemove(ctx, trackerID); err != nil {
					log.Debug("failed to remove expired tracker", "tracker", trackerID, "error", err)
				}
			}
		}
	}
}

// sendPendingFrame forwards the cached frame when a new one arrived
// since the last tick.
func (m *Manager) sendPendingFrame() {
	m.frameMu.Lock()
	frame := m.latestFrame
	pending := m.framePending
	m.framePending = false
	m.frameMu.Unlock()

	if !pending || frame == nil {
		return
	}

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return
	}

	if err := sess.SendFrame(frame); err != nil {
		log.Debug("failed to send frame", "error", err)
	}
}

// refreshTracks updates active highlight positions from the backend.
func (m *Manager) refreshTracks(ctx context.Context, gen int) {
	ids := m.overlay.TrackerIDs()
	if len(ids) == 0 {
		return
	}
	frame := m.LatestFrame()
	if frame == nil {
		return
	}

	tracks, err := m.backend.TrackUpdate(ctx, frame, ids)
	if err != nil {
		log.Debug("track update failed", "error", err)
		return
	}
	if !m.currentGeneration(gen) {
		return
	}

	for _, trackerID := range m.overlay.ApplyTracks(tracks) {
		if err := m.backend.TrackRemove(ctx, trackerID); err != nil {
			log.Debug("failed to remove lost tracker", "tracker", trackerID, "error", err)
		}
	}
}

func (m *Manager) sessionContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessCtx != nil {
		return m.sessCtx
	}
	return context.Background()
}

func (m *Manager) currentGeneration(gen int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == gen
}

func (m *Manager) setAIState(ai string) {
	m.mu.Lock()
	if m.aiState == ai {
		m.mu.Unlock()
		return
	}
	m.aiState = ai
	m.mu.Unlock()
	m.emitState()
}

// failSession releases the session's resources after a transport
// error, like Stop, but leaves the manager in StateError until the
// user starts a fresh session.
func (m *Manager) failSession(gen int, err error) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	sess := m.sess
	cancel := m.cancel
	m.sess = nil
	m.sessCtx = nil
	m.cancel = nil
	m.generation++
	m.state = StateError
	m.lastErr = err
	m.aiState = AIListening
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		if serr := sess.Stop(); serr != nil {
			log.Warn("live session stop", "error", serr)
		}
	}

	log.Error("live session error", "error", err)
	m.flushTranscripts()
	m.addTranscript(RoleSystem, fmt.Sprintf("Session error: %v", err))
	m.emitState()
}

func (m *Manager) emitState() {
	if m.onState == nil {
		return
	}
	state, ai, err := m.State()
	m.onState(state, ai, err)
}

func (m *Manager) drainAccumulators() (string, string) {
	m.transcriptMu.Lock()
	defer m.transcriptMu.Unlock()
	userText := strings.TrimSpace(m.userAcc.String())
	modelText := strings.TrimSpace(m.modelAcc.String())
	m.userAcc.Reset()
	m.modelAcc.Reset()
	return userText, modelText
}

// flushTranscripts finalizes whatever the accumulators hold, e.g. when
// the session stops mid-turn.
func (m *Manager) flushTranscripts() {
	userText, modelText := m.drainAccumulators()
	if userText != "" {
		m.appendEntry(RoleUser, userText)
	}
	if modelText != "" {
		m.appendEntry(RoleAssistant, modelText)
	}
}

func (m *Manager) appendEntry(role, text string) {
	m.transcriptMu.Lock()
	m.transcript = append(m.transcript, TranscriptEntry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	})
	m.transcriptMu.Unlock()
}

// addTranscript appends a system entry and notifies listeners.
func (m *Manager) addTranscript(role, text string) {
	m.appendEntry(role, text)
	if m.onTranscript != nil {
		m.onTranscript(role, text, true)
	}
}
