package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rhat-labs/go-rhat/internal/log"
	"github.com/rhat-labs/go-rhat/pkg/live"
)

// activityRevertDelay keeps the using-tool indicator visible briefly
// after a batch resolves so fast tools still register on screen.
const activityRevertDelay = 500 * time.Millisecond

// Dispatcher executes tool call batches from the live session against
// a registry. Calls within a batch run concurrently; every call id
// gets exactly one result.
type Dispatcher struct {
	registry *Registry

	mu         sync.Mutex
	onActivity func(active bool)
	pending    int
	revert     *time.Timer
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(r *Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// OnActivity sets the callback toggled while tool calls are running.
// Must be set before dispatching.
func (d *Dispatcher) OnActivity(fn func(active bool)) {
	d.onActivity = fn
}

// Dispatch runs every call in the batch and returns one result per
// call, in batch order. Unknown tools and argument errors produce
// error results without invoking any handler.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []live.ToolCall) []live.ToolResult {
	if len(calls) == 0 {
		return nil
	}

	d.batchStarted()
	defer d.batchFinished()

	results := make([]live.ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call live.ToolCall) {
			defer wg.Done()
			results[i] = d.execute(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) execute(ctx context.Context, call live.ToolCall) live.ToolResult {
	res := live.ToolResult{ID: call.ID, Name: call.Name}

	tool, ok := d.registry.Get(call.Name)
	if !ok {
		res.Error = fmt.Sprintf("unknown tool: %s", call.Name)
		log.Warn("tool call for unknown tool", "name", call.Name, "id", call.ID)
		return res
	}

	args, err := ParseArgs(call.Name, call.Args)
	if err != nil {
		res.Error = err.Error()
		log.Warn("tool arguments rejected", "name", call.Name, "error", err)
		return res
	}

	start := time.Now()
	out, err := tool.Handler(ctx, args)
	if err != nil {
		res.Error = err.Error()
		log.Warn("tool failed", "name", call.Name, "error", err, "duration", time.Since(start))
		return res
	}

	res.Result = out
	log.Debug("tool completed", "name", call.Name, "duration", time.Since(start))
	return res
}

// batchStarted flips the activity indicator on and cancels any pending
// revert from a previous batch.
func (d *Dispatcher) batchStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending++
	if d.revert != nil {
		d.revert.Stop()
		d.revert = nil
	}
	if d.pending == 1 && d.onActivity != nil {
		d.onActivity(true)
	}
}

// batchFinished schedules the indicator to revert once no batches are
// in flight.
func (d *Dispatcher) batchFinished() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending--
	if d.pending > 0 {
		return
	}

	d.revert = time.AfterFunc(activityRevertDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pending == 0 && d.onActivity != nil {
			d.onActivity(false)
		}
	})
}
