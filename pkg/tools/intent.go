package tools

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rhat-labs/go-rhat/pkg/live"
)

// ParseIntent matches a final user transcript against a small set of
// spoken command patterns and returns the equivalent tool calls. It is
// a fallback for when the model narrates an action instead of calling
// the tool; the dispatcher treats the results exactly like model
// calls. Returns nil when nothing matches.
func ParseIntent(text string) []live.ToolCall {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!?")
	if t == "" {
		return nil
	}

	if m := highlightRe.FindStringSubmatch(t); m != nil {
		return []live.ToolCall{{
			ID:   uuid.NewString(),
			Name: "highlight_object",
			Args: map[string]any{"object_name": strings.TrimSpace(m[1])},
		}}
	}

	if clearHighlightsRe.MatchString(t) {
		return []live.ToolCall{{
			ID:   uuid.NewString(),
			Name: "clear_highlights",
			Args: map[string]any{},
		}}
	}

	if m := timerRe.FindStringSubmatch(t); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil || n <= 0 {
			return nil
		}
		seconds := n
		if strings.HasPrefix(m[2], "minute") {
			seconds = n * 60
		}
		return []live.ToolCall{{
			ID:   uuid.NewString(),
			Name: "set_timer",
			Args: map[string]any{"seconds": seconds},
		}}
	}

	if cancelTimerRe.MatchString(t) {
		return []live.ToolCall{{
			ID:   uuid.NewString(),
			Name: "cancel_timer",
			Args: map[string]any{},
		}}
	}

	return nil
}

var (
	highlightRe       = regexp.MustCompile(`^(?:please )?highlight (?:the |my |that )?(.+)$`)
	clearHighlightsRe = regexp.MustCompile(`^(?:please )?clear (?:the |all )?highlights?$`)
	timerRe           = regexp.MustCompile(`^(?:please )?(?:set|start) a timer for (\d+(?:\.\d+)?) (seconds?|minutes?)$`)
	cancelTimerRe     = regexp.MustCompile(`^(?:please )?(?:cancel|stop) (?:the |my )?timer$`)
)
