package tools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Typed argument records, one per tool that takes arguments. Raw
// argument maps from the model are decoded and validated into these
// before any handler runs, so handlers never see malformed input.

// HighlightArgs are the arguments for highlight_object.
type HighlightArgs struct {
	ObjectName      string  `json:"object_name"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ImageArgs are the arguments for display_image.
type ImageArgs struct {
	Query string `json:"query"`
}

// VideoArgs are the arguments for play_video.
type VideoArgs struct {
	Query     string  `json:"query"`
	Timestamp float64 `json:"timestamp"`
}

// ChecklistItemArg is one item in an update_checklist call. Completed
// is nil when the model did not send the field.
type ChecklistItemArg struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed *bool  `json:"completed"`
}

// ChecklistArgs are the arguments for update_checklist.
type ChecklistArgs struct {
	Title           *string            `json:"title"`
	Items           []ChecklistItemArg `json:"items"`
	CompletedItems  []string           `json:"completed_items"`
	IncompleteItems []string           `json:"incomplete_items"`
	ToggleItems     []string           `json:"toggle_items"`
	Clear           bool               `json:"clear"`
}

func (a ChecklistArgs) empty() bool {
	return a.Title == nil && len(a.Items) == 0 && len(a.CompletedItems) == 0 &&
		len(a.IncompleteItems) == 0 && len(a.ToggleItems) == 0 && !a.Clear
}

// TimerArgs are the arguments for set_timer.
type TimerArgs struct {
	Seconds float64 `json:"seconds"`
}

// ParseArgs decodes and validates the raw argument map for the named
// tool. Tools without arguments return nil. Unknown names are the
// dispatcher's problem, not ours; they decode to nil here.
func ParseArgs(name string, raw map[string]any) (any, error) {
	switch name {
	case "highlight_object":
		var a HighlightArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ObjectName == "" {
			return nil, errors.New("object_name is required")
		}
		if a.DurationSeconds < 0 {
			return nil, errors.New("duration_seconds must not be negative")
		}
		return a, nil

	case "display_image":
		var a ImageArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.Query == "" {
			return nil, errors.New("query is required")
		}
		return a, nil

	case "play_video":
		var a VideoArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.Query == "" {
			return nil, errors.New("query is required")
		}
		if a.Timestamp < 0 {
			return nil, errors.New("timestamp must not be negative")
		}
		return a, nil

	case "update_checklist":
		var a ChecklistArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.empty() {
			return nil, errors.New("update_checklist requires at least one change")
		}
		for _, item := range a.Items {
			if item.ID == "" && item.Label == "" {
				return nil, errors.New("checklist items need a label or an id")
			}
		}
		return a, nil

	case "set_timer":
		var a TimerArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.Seconds <= 0 {
			return nil, errors.New("seconds must be positive")
		}
		return a, nil
	}

	return nil, nil
}

// decodeArgs round-trips the raw map through JSON into the typed
// record, so type mismatches surface as decode errors.
func decodeArgs(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
