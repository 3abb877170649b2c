// Package web serves the browser UI: REST endpoints for state and
// manual control, a broadcast websocket for render updates, and a
// media websocket for mic audio and camera frames.
package web

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/hub"
	"github.com/rhat-labs/go-rhat/pkg/overlay"
	"github.com/rhat-labs/go-rhat/pkg/protocol"
	"github.com/rhat-labs/go-rhat/pkg/session"
)

// backendHealthInterval is how often the cached backend health used in
// state broadcasts is refreshed.
const backendHealthInterval = 10 * time.Second

// Server is the UI web server.
type Server struct {
	app     *fiber.App
	port    string
	manager *session.Manager

	// uiHub broadcasts render updates to every connected UI.
	uiHub *hub.Hub

	backendHealthy atomic.Bool
	done           chan struct{}
	stopOnce       sync.Once
}

// NewServer creates the web server and wires session events into the
// UI broadcast hub.
func NewServer(port string, manager *session.Manager) *Server {
	s := &Server{
		port:    port,
		manager: manager,
		uiHub:   hub.New("ui"),
		done:    make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "R-Hat",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Static("/", "./web")

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/transcript", s.handleTranscript)
	api.Get("/overlays", s.handleOverlays)
	api.Get("/tools", s.handleListTools)
	api.Post("/tools/:name", s.handleTriggerTool)
	api.Post("/session/start", s.handleSessionStart)
	api.Post("/session/stop", s.handleSessionStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ui", websocket.New(s.handleUIWS))
	app.Get("/ws/media", websocket.New(s.handleMediaWS))

	s.app = app
	s.uiHub.OnMessage(s.handleUIMessage)
	s.wireManager()
	return s
}

// wireManager forwards session events to connected UIs.
func (s *Server) wireManager() {
	s.manager.OnAudio(func(pcm []byte) {
		s.broadcast(protocol.NewAudioMessage(pcm, 24000))
	})
	s.manager.OnTranscript(func(role, text string, final bool) {
		s.broadcast(protocol.NewTranscriptMessage(role, text, final))
	})
	s.manager.OnOverlay(func(snap overlay.Snapshot) {
		s.broadcast(protocol.NewOverlayMessage(snap))
	})
	s.manager.OnStatus(func(msg string) {
		s.broadcast(protocol.NewStatusMessage(msg))
	})
	s.manager.OnState(func(state session.State, ai string, err error) {
		s.broadcast(protocol.NewStateMessage(s.stateData(state, ai, err)))
	})
	s.manager.OnInterrupt(func() {
		s.broadcast(protocol.NewInterruptMessage())
	})
}

// broadcast sends a protocol message to every UI client.
func (s *Server) broadcast(msg *protocol.Message, err error) {
	if err != nil {
		log.Warn("failed to build UI message", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Warn("failed to encode UI message", "error", err)
		return
	}
	s.uiHub.Broadcast(hub.NewJSONMessage(data))
}

func (s *Server) stateData(state session.State, ai string, err error) protocol.StateData {
	data := protocol.StateData{
		Session:        string(state),
		AI:             ai,
		LiveConnected:  s.manager.Connected(),
		BackendHealthy: s.backendHealthy.Load(),
	}
	if err != nil {
		data.Error = err.Error()
	}
	return data
}

// refreshBackendHealth probes the backend and caches the result for
// state broadcasts.
func (s *Server) refreshBackendHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	h, err := s.manager.Backend().Health(ctx)
	healthy := err == nil && h.Status == "ok"
	s.backendHealthy.Store(healthy)
	return healthy
}

// pollBackendHealth keeps the cached backend health current.
func (s *Server) pollBackendHealth() {
	s.refreshBackendHealth(context.Background())

	ticker := time.NewTicker(backendHealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.refreshBackendHealth(context.Background())
		}
	}
}

// Start starts the web server. Blocks until shutdown.
func (s *Server) Start() error {
	go s.uiHub.Run()
	go s.pollBackendHealth()
	log.Info("web server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.uiHub.Stop()
	return s.app.Shutdown()
}
