package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID   string                 `json:"tool_id" binding:"required"`
	Params   map[string]interface{} `json:"params"`
	ClientID *string                `json:"client_id,omitempty"`
}

// CreateTerminalRequest opens a new terminal session
type CreateTerminalRequest struct {
	Shell      string            `json:"shell"`
	Args       []string          `json:"args"`
	WorkingDir string            `json:"working_dir"`
	Cols       int               `json:"cols" binding:"omitempty,min=1,max=1000"`
	Rows       int               `json:"rows" binding:"omitempty,min=1,max=1000"`
	Env        map[string]string `json:"env"`
}

// InputRequest carries keyboard input for a session
type InputRequest struct {
	Input string `json:"input" binding:"required"`
}

// ResizeRequest changes a session's window size
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required,min=1,max=1000"`
	Rows int `json:"rows" binding:"required,min=1,max=1000"`
}
