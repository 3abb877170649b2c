// rhat-tools: supplementary content lookup backend. Serves the
// /fetch-image and /youtube/search endpoints of the tool backend
// contract using Google Custom Search and the YouTube Data API, for
// deployments where the CV backend does not bundle them.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rhat-labs/go-rhat/internal/config"
	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/search"
)

var (
	port  = flag.String("port", config.DefaultToolsPort, "HTTP listen port")
	debug = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	ctx := context.Background()

	var images *search.Images
	if key, cse := config.GoogleAPIKey(), config.GoogleCSEID(); key != "" && cse != "" {
		var err error
		images, err = search.NewImages(ctx, key, cse)
		if err != nil {
			log.Error("image search init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("image search disabled: GOOGLE_API_KEY or GOOGLE_CSE_ID not set")
	}

	var videos *search.Videos
	if key := config.YouTubeAPIKey(); key != "" {
		var err error
		videos, err = search.NewVideos(ctx, key)
		if err != nil {
			log.Error("youtube search init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("youtube search disabled: YOUTUBE_API_KEY not set")
	}

	app := fiber.New(fiber.Config{
		AppName:               "rhat-tools",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ok",
			"model_loaded": false,
			"image_search": images != nil,
			"video_search": videos != nil,
		})
	})

	app.Post("/fetch-image", func(c *fiber.Ctx) error {
		if images == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"detail": "image search is not configured",
			})
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "query is required",
			})
		}

		result, err := images.Fetch(c.Context(), req.Query)
		if err != nil {
			log.Warn("image fetch failed", "query", req.Query, "error", err)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": err.Error(),
			})
		}
		return c.JSON(result)
	})

	app.Post("/youtube/search", func(c *fiber.Ctx) error {
		if videos == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"detail": "youtube search is not configured",
			})
		}

		var req struct {
			Query     string  `json:"query"`
			Timestamp float64 `json:"timestamp"`
		}
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "query is required",
			})
		}

		result, err := videos.Search(c.Context(), req.Query, req.Timestamp)
		if err != nil {
			log.Warn("youtube search failed", "query", req.Query, "error", err)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": err.Error(),
			})
		}
		return c.JSON(result)
	})

	go func() {
		addr := ":" + config.Port(*port)
		log.Info("rhat-tools listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("shutdown", "error", err)
	}
}
