package ws

import "time"

// Inbound message types.
const (
	TypeAuth    = "auth"
	TypeCommand = "command"
	TypePing    = "ping"
)

// Outbound message types.
const (
	TypeOutput = "output"
	TypeClear  = "clear"
	TypePong   = "pong"
	TypeError  = "error"
)

// Client-facing error text.
const (
	MsgAuthError      = "Authentication error"
	MsgRateLimited    = "Rate limit exceeded. Please slow down."
	MsgTimedOut       = "Command timed out"
	MsgInvalidCommand = "Invalid command format"
	MsgInvalidMessage = "Invalid message format"
	MsgUnknownType    = "Unknown message type"
	MsgQueueFull      = "Too many pending commands"
)

const welcomeFormat = "Welcome to WebOS, %s!\nType 'help' for available commands.\n"

// Inbound is a message from the terminal client. Command is left untyped
// so a non-string value can be reported instead of dropping the frame.
type Inbound struct {
	Type    string      `json:"type"`
	Token   string      `json:"token,omitempty"`
	Command interface{} `json:"command,omitempty"`
}

// Output carries one command result. Both fields serialize as null when
// absent.
type Output struct {
	Type   string  `json:"type"`
	Output *string `json:"output"`
	Error  *string `json:"error"`
}

// Event is any other outbound message.
type Event struct {
	Type      string `json:"type"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func newOutput(output, errText string) Output {
	out := Output{Type: TypeOutput, Output: &output}
	if errText != "" {
		out.Error = &errText
	}
	return out
}

func pong(now time.Time) Event {
	return Event{Type: TypePong, Timestamp: now.UnixMilli()}
}
