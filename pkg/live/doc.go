// Package live provides the realtime session client for go-rhat.
//
// A Session is a bidirectional stream to Google's Gemini Live API. The
// caller pushes microphone audio (16kHz mono PCM16) and camera frames
// (JPEG, low frame rate) into the session and receives streamed
// transcription deltas, inline audio for playback (24kHz mono PCM16),
// tool-call batches, and turn-complete signals through callbacks.
//
// Typical usage:
//
//	cfg := live.DefaultConfig()
//	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
//	sess, err := live.NewGemini(cfg)
//	if err != nil { ... }
//	sess.RegisterTool(live.Tool{Name: "highlight_object", ...})
//	sess.OnToolCall(func(calls []live.ToolCall) { ... })
//	if err := sess.Start(ctx); err != nil { ... }
//	defer sess.Stop()
//
// Exactly one session should be alive at a time; callers that restart
// must Stop the previous session before Start on a new one so there is
// only ever a single audio/video producer.
package live
