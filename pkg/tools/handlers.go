package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/backend"
	"github.com/rhat-labs/go-rhat/pkg/overlay"
)

// Deps are the resources the built-in tools operate on.
type Deps struct {
	Backend *backend.Client
	Overlay *overlay.Store

	// Frame returns the most recent camera JPEG, or nil when no frame
	// has arrived yet.
	Frame func() []byte

	// Now is replaceable in tests. Defaults to time.Now.
	Now func() time.Time
}

// All returns the built-in tool set.
func All(deps Deps) []Tool {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return []Tool{
		{
			Name:        "highlight_object",
			Description: "Draw a tracked highlight box around an object visible in the camera feed. Use when the user asks to point out, find, or highlight something they can see.",
			Parameters: objectSchema(map[string]any{
				"object_name": map[string]any{
					"type":        "string",
					"description": "Short description of the object to highlight, e.g. 'red mug' or 'headphones'",
				},
				"duration_seconds": map[string]any{
					"type":        "number",
					"description": "Optional. Remove the highlight after this many seconds. Omit to keep it until cleared.",
				},
			}, "object_name"),
			Handler: func(ctx context.Context, args any) (string, error) {
				a := args.(HighlightArgs)

				frame := deps.Frame()
				if frame == nil {
					return "", fmt.Errorf("no camera frame available yet")
				}

				result, err := deps.Backend.Highlight(ctx, frame, a.ObjectName)
				if err != nil {
					return "", err
				}

				duration := time.Duration(a.DurationSeconds * float64(time.Second))
				deps.Overlay.AddHighlight(result.TrackerID, result.Label, result.Box, result.Confidence, duration)
				return fmt.Sprintf("Successfully tracking %s", result.Label), nil
			},
		},
		{
			Name:        "clear_highlights",
			Description: "Remove every highlight box from the screen.",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args any) (string, error) {
				ids := deps.Overlay.ClearHighlights()
				if err := deps.Backend.TrackClear(ctx); err != nil {
					// The overlay is already clear; stale server-side
					// trackers expire on their own.
					log.Warn("failed to clear backend trackers", "error", err)
				}
				if len(ids) == 0 {
					return "No highlights to clear", nil
				}
				return fmt.Sprintf("Cleared %d highlights", len(ids)), nil
			},
		},
		{
			Name:        "display_image",
			Description: "Search the web for an image and show it on screen. Use when the user asks to see a picture of something not in the room.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for, e.g. 'golden gate bridge at sunset'",
				},
			}, "query"),
			Handler: func(ctx context.Context, args any) (string, error) {
				a := args.(ImageArgs)

				result, err := deps.Backend.FetchImage(ctx, a.Query)
				if err != nil {
					return "", err
				}

				deps.Overlay.ShowImage(a.Query, *result)
				return fmt.Sprintf("Displaying image: %s", a.Query), nil
			},
		},
		{
			Name:        "play_video",
			Description: "Search YouTube for a video and play it on screen. Only one video plays at a time.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for, e.g. 'how to solder'",
				},
				"timestamp": map[string]any{
					"type":        "number",
					"description": "Optional. Start playback this many seconds into the video.",
				},
			}, "query"),
			Handler: func(ctx context.Context, args any) (string, error) {
				a := args.(VideoArgs)

				result, err := deps.Backend.YouTubeSearch(ctx, a.Query, a.Timestamp)
				if err != nil {
					return "", err
				}

				deps.Overlay.SetVideo(*result)
				return fmt.Sprintf("Playing video: %s", result.Title), nil
			},
		},
		{
			Name:        "update_checklist",
			Description: "Create or update the on-screen checklist. Send only what changed: new items, completed item names, or clear to remove the list. Existing items and completion state are preserved.",
			Parameters: objectSchema(map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Optional checklist title",
				},
				"items": map[string]any{
					"type":        "array",
					"description": "Items to add or update",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":        map[string]any{"type": "string"},
							"label":     map[string]any{"type": "string"},
							"completed": map[string]any{"type": "boolean"},
						},
					},
				},
				"completed_items": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Labels or ids of items to mark complete",
				},
				"incomplete_items": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Labels or ids of items to mark incomplete",
				},
				"toggle_items": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Labels or ids of items to toggle",
				},
				"clear": map[string]any{
					"type":        "boolean",
					"description": "Remove the entire checklist",
				},
			}),
			Handler: func(ctx context.Context, args any) (string, error) {
				a := args.(ChecklistArgs)

				update := overlay.ChecklistUpdate{
					Title:           a.Title,
					CompletedItems:  a.CompletedItems,
					IncompleteItems: a.IncompleteItems,
					ToggleItems:     a.ToggleItems,
					Clear:           a.Clear,
				}
				for _, item := range a.Items {
					update.Items = append(update.Items, overlay.ItemUpdate{
						ID:        item.ID,
						Label:     item.Label,
						Completed: item.Completed,
					})
				}

				cl := deps.Overlay.ApplyChecklist(update)
				if a.Clear {
					return "Checklist cleared", nil
				}

				done := 0
				for _, item := range cl.Items {
					if item.Completed {
						done++
					}
				}
				return fmt.Sprintf("Checklist updated: %d of %d complete", done, len(cl.Items)), nil
			},
		},
		{
			Name:        "set_timer",
			Description: "Start a countdown timer shown on screen. Replaces any running timer.",
			Parameters: objectSchema(map[string]any{
				"seconds": map[string]any{
					"type":        "number",
					"description": "Timer length in seconds",
				},
			}, "seconds"),
			Handler: func(ctx context.Context, args any) (string, error) {
				a := args.(TimerArgs)
				timer := deps.Overlay.SetTimer(a.Seconds)
				return fmt.Sprintf("Timer set for %d seconds", timer.Remaining), nil
			},
		},
		{
			Name:        "cancel_timer",
			Description: "Cancel the running countdown timer.",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args any) (string, error) {
				if !deps.Overlay.CancelTimer() {
					return "No timer is running", nil
				}
				return "Timer cancelled", nil
			},
		},
		{
			Name:        "get_time",
			Description: "Get the current local date and time.",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args any) (string, error) {
				return deps.Now().Format("Monday, January 2, 2006 at 3:04 PM"), nil
			},
		},
	}
}

// objectSchema builds a Gemini function declaration parameter schema.
func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
