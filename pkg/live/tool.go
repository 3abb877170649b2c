package live

// Tool declares a function the model can invoke during conversation.
// Tools let the model drive client-side actions like highlighting an
// object in the camera view or updating the on-screen checklist.
type Tool struct {
	// Name is the unique identifier for the tool (e.g., "highlight_object").
	Name string `json:"name"`

	// Description explains what the tool does, helping the model decide
	// when to use it.
	Description string `json:"description"`

	// Parameters defines the JSON schema for the tool's arguments.
	Parameters map[string]any `json:"parameters"`
}

// ToolCall is an invocation of a tool by the model.
type ToolCall struct {
	// ID is the unique identifier for this call, used to correlate the
	// ToolResult back to it.
	ID string

	// Name is the tool being invoked.
	Name string

	// Args contains the parsed arguments from the model.
	Args map[string]any
}

// ToolResult is the outcome of a tool invocation, sent back to the
// model. Exactly one ToolResult must be produced per ToolCall.
type ToolResult struct {
	// ID matches the ToolCall.ID this result corresponds to.
	ID string

	// Name is the tool that was invoked.
	Name string

	// Result is a short human-readable summary of the outcome.
	Result string

	// Error carries the failure message when the call did not succeed.
	Error string
}
