// rhat: the R-Hat companion app. Owns the Gemini Live session, runs
// the tool dispatcher against the tracking backend, and serves the
// browser UI that captures mic/camera and renders overlays.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhat-labs/go-rhat/internal/config"
	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/live"
	"github.com/rhat-labs/go-rhat/pkg/session"
	"github.com/rhat-labs/go-rhat/pkg/web"
)

var version = "0.1.0"

var (
	port           = flag.String("port", config.DefaultPort, "HTTP listen port")
	backendURL     = flag.String("backend", config.DefaultBackendURL, "tracking backend base URL")
	model          = flag.String("model", "", "Gemini Live model override")
	voice          = flag.String("voice", "", "Gemini voice override")
	systemPrompt   = flag.String("system-prompt", "", "system prompt override")
	intentFallback = flag.Bool("intent-fallback", false, "parse spoken commands from final transcripts")
	debug          = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	apiKey := config.GeminiAPIKey()
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "rhat: GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	liveCfg := live.DefaultConfig()
	liveCfg.APIKey = apiKey
	liveCfg.Debug = *debug
	if *model != "" {
		liveCfg.Model = *model
	}
	if *voice != "" {
		liveCfg.Voice = *voice
	}
	if *systemPrompt != "" {
		liveCfg = liveCfg.WithSystemPrompt(*systemPrompt)
	}

	manager := session.NewManager(session.Config{
		Live:           liveCfg,
		BackendURL:     config.BackendURL(*backendURL),
		IntentFallback: *intentFallback,
	})

	server := web.NewServer(config.Port(*port), manager)

	log.Info("rhat starting",
		"version", version,
		"port", config.Port(*port),
		"backend", config.BackendURL(*backendURL),
		"model", liveCfg.Model,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("web server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	manager.Stop()
	if err := server.Shutdown(); err != nil {
		log.Warn("shutdown", "error", err)
	}
}
