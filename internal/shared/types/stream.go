package types

// FrameType discriminates frames on a terminal stream
type FrameType string

const (
	FrameOutput FrameType = "output" // forwarded terminal output
	FrameCWD    FrameType = "cwd"    // shell reported a working directory
	FrameCopy   FrameType = "copy"   // application asked to set the clipboard
	FrameExit   FrameType = "exit"   // shell process exited
	FrameError  FrameType = "error"
	FramePong   FrameType = "pong"
)

// Frame is one message sent to a stream subscriber. Output frames carry raw
// bytes, which encode as base64 in JSON.
type Frame struct {
	Type      FrameType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      []byte    `json:"data,omitempty"`
	Path      string    `json:"path,omitempty"`
	Text      string    `json:"text,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ClientMessage is sent by a stream client
type ClientMessage struct {
	Type  string `json:"type"` // "input", "resize", "ping"
	Input string `json:"input,omitempty"`
	Cols  int    `json:"cols,omitempty"`
	Rows  int    `json:"rows,omitempty"`
}
