package web

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/hub"
	"github.com/rhat-labs/go-rhat/pkg/protocol"
)

// handleHealth reports app and backend health. The probe result also
// refreshes the cached value used in state broadcasts.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	state, _, _ := s.manager.State()

	return c.JSON(fiber.Map{
		"status":          "ok",
		"session":         state,
		"backend_healthy": s.refreshBackendHealth(c.Context()),
	})
}

// handleState returns the session and AI state.
func (s *Server) handleState(c *fiber.Ctx) error {
	state, ai, err := s.manager.State()
	return c.JSON(s.stateData(state, ai, err))
}

// handleTranscript returns the finalized conversation log.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	return c.JSON(s.manager.Transcript())
}

// handleOverlays returns the current overlay snapshot.
func (s *Server) handleOverlays(c *fiber.Ctx) error {
	return c.JSON(s.manager.Overlay().Snapshot())
}

// ToolInfo describes an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleListTools returns the registered tools.
func (s *Server) handleListTools(c *fiber.Ctx) error {
	var tools []ToolInfo
	for _, decl := range s.manager.Registry().Declarations() {
		tools = append(tools, ToolInfo{Name: decl.Name, Description: decl.Description})
	}
	return c.JSON(tools)
}

// TriggerToolRequest is the request body for triggering a tool
type TriggerToolRequest struct {
	Args map[string]interface{} `json:"args"`
}

// handleTriggerTool runs a tool manually from the UI.
func (s *Server) handleTriggerTool(c *fiber.Ctx) error {
	name := c.Params("name")

	var req TriggerToolRequest
	if err := c.BodyParser(&req); err != nil {
		req.Args = make(map[string]interface{})
	}
	if req.Args == nil {
		req.Args = make(map[string]interface{})
	}

	result := s.manager.TriggerTool(c.Context(), name, req.Args)
	if result.Error != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"tool":  name,
			"error": result.Error,
		})
	}

	return c.JSON(fiber.Map{
		"tool":   name,
		"result": result.Result,
	})
}

// handleSessionStart connects a new live session.
func (s *Server) handleSessionStart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.manager.Start(ctx); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	state, ai, _ := s.manager.State()
	return c.JSON(s.stateData(state, ai, nil))
}

// handleSessionStop tears down the live session.
func (s *Server) handleSessionStop(c *fiber.Ctx) error {
	s.manager.Stop()
	state, ai, err := s.manager.State()
	return c.JSON(s.stateData(state, ai, err))
}

// handleUIWS serves a UI render client through the broadcast hub. The
// client receives the current state and overlay snapshot on connect.
func (s *Server) handleUIWS(c *websocket.Conn) {
	client := hub.NewClient(s.uiHub, c)

	state, ai, err := s.manager.State()
	if msg, merr := protocol.NewStateMessage(s.stateData(state, ai, err)); merr == nil {
		if data, berr := msg.Bytes(); berr == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}
	if msg, merr := protocol.NewOverlayMessage(s.manager.Overlay().Snapshot()); merr == nil {
		if data, berr := msg.Bytes(); berr == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}

	client.Run()
}

// handleUIMessage handles inbound messages from UI clients: pings and
// control actions.
func (s *Server) handleUIMessage(client *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Debug("ignoring malformed UI message", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		var ping protocol.PingData
		if err := msg.ParseData(&ping); err != nil {
			return
		}
		if pong, err := protocol.NewPongMessage(ping); err == nil {
			if data, err := pong.Bytes(); err == nil {
				client.Send(hub.NewJSONMessage(data))
			}
		}

	case protocol.TypeControl:
		var ctrl protocol.ControlData
		if err := msg.ParseData(&ctrl); err != nil {
			return
		}
		s.handleControl(ctrl)
	}
}

// handleControl executes a UI control action.
func (s *Server) handleControl(ctrl protocol.ControlData) {
	switch ctrl.Action {
	case protocol.ActionStartSession:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.manager.Start(ctx); err != nil {
				log.Error("session start from UI failed", "error", err)
			}
		}()

	case protocol.ActionStopSession:
		s.manager.Stop()

	case protocol.ActionDismissImage:
		if ctrl.Target != "" {
			s.manager.Overlay().DismissImage(ctrl.Target)
		}

	case protocol.ActionClearVideo:
		s.manager.Overlay().ClearVideo()

	default:
		log.Debug("unknown control action", "action", ctrl.Action)
	}
}

// handleMediaWS receives mic audio and camera frames from the browser.
// One connection per capture surface; messages use the same protocol
// envelope as the UI socket.
func (s *Server) handleMediaWS(c *websocket.Conn) {
	defer c.Close()
	log.Info("media client connected")

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Info("media client disconnected")
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Debug("ignoring malformed media message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeMic:
			var mic protocol.MicData
			if err := msg.ParseData(&mic); err != nil {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(mic.Data)
			if err != nil {
				continue
			}
			if err := s.manager.HandleAudio(pcm); err != nil {
				log.Debug("audio dropped", "error", err)
			}

		case protocol.TypeFrame:
			var frame protocol.FrameData
			if err := msg.ParseData(&frame); err != nil {
				continue
			}
			jpeg, err := base64.StdEncoding.DecodeString(frame.Data)
			if err != nil {
				continue
			}
			s.manager.HandleFrame(jpeg)

		case protocol.TypeControl:
			var ctrl protocol.ControlData
			if err := msg.ParseData(&ctrl); err != nil {
				continue
			}
			s.handleControl(ctrl)

		case protocol.TypePing:
			var ping protocol.PingData
			if err := msg.ParseData(&ping); err != nil {
				continue
			}
			if pong, err := protocol.NewPongMessage(ping); err == nil {
				if data, err := pong.Bytes(); err == nil {
					c.WriteMessage(websocket.TextMessage, data)
				}
			}
		}
	}
}
