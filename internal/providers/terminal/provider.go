package terminal

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/GriffinCanCode/termbridge/internal/service"
	"github.com/GriffinCanCode/termbridge/internal/shared/types"
)

// Provider exposes terminal sessions as service tools
type Provider struct {
	manager *Manager
}

// NewProvider creates a terminal provider backed by manager
func NewProvider(manager *Manager) *Provider {
	return &Provider{
		manager: manager,
	}
}

// Manager returns the session manager behind the provider.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "PTY shell sessions with shell-integration events (working directory, clipboard)",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"pty",
			"shell",
			"interactive",
			"resize",
			"osc_cwd",
			"osc_clipboard",
			"stream",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch toolID {
	case "terminal.create_session":
		return p.createSession(params)
	case "terminal.write":
		return p.write(params)
	case "terminal.read":
		return p.read(params)
	case "terminal.resize":
		return p.resize(params)
	case "terminal.list_sessions":
		return p.listSessions()
	case "terminal.get_session":
		return p.getSession(params)
	case "terminal.kill":
		return p.kill(params)
	case "terminal.cwd":
		return p.cwd(params)
	case "terminal.clipboard":
		return p.clipboard(params)
	default:
		return nil, fmt.Errorf("%w: %s", service.ErrToolNotFound, toolID)
	}
}

func sessionParam() types.Parameter {
	return types.Parameter{
		Name:        "session_id",
		Type:        "string",
		Description: "Terminal session ID",
		Required:    true,
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "terminal.create_session",
			Name:        "Create Terminal Session",
			Description: "Create a new interactive terminal session with PTY",
			Parameters: []types.Parameter{
				{Name: "shell", Type: "string", Description: "Shell to use (e.g., /bin/bash, /bin/zsh). Defaults to the configured shell"},
				{Name: "args", Type: "array", Description: "Arguments passed to the shell"},
				{Name: "working_dir", Type: "string", Description: "Initial working directory. Defaults to the home directory"},
				{Name: "cols", Type: "number", Description: "Terminal width in columns"},
				{Name: "rows", Type: "number", Description: "Terminal height in rows"},
				{Name: "env", Type: "object", Description: "Environment variables to set"},
			},
			Returns: "session_info",
		},
		{
			ID:          "terminal.write",
			Name:        "Write to Terminal",
			Description: "Send input to a terminal session",
			Parameters: []types.Parameter{
				sessionParam(),
				{Name: "input", Type: "string", Description: "Input to send to terminal", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.read",
			Name:        "Read from Terminal",
			Description: "Drain buffered output with OSC sequences removed",
			Parameters:  []types.Parameter{sessionParam()},
			Returns:     "output_data",
		},
		{
			ID:          "terminal.resize",
			Name:        "Resize Terminal",
			Description: "Change terminal dimensions",
			Parameters: []types.Parameter{
				sessionParam(),
				{Name: "cols", Type: "number", Description: "New width in columns", Required: true},
				{Name: "rows", Type: "number", Description: "New height in rows", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.list_sessions",
			Name:        "List Terminal Sessions",
			Description: "List all terminal sessions",
			Parameters:  []types.Parameter{},
			Returns:     "sessions_list",
		},
		{
			ID:          "terminal.get_session",
			Name:        "Get Session Info",
			Description: "Get information about a terminal session",
			Parameters:  []types.Parameter{sessionParam()},
			Returns:     "session_info",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Terminal Session",
			Description: "Terminate a terminal session",
			Parameters:  []types.Parameter{sessionParam()},
			Returns:     "success",
		},
		{
			ID:          "terminal.cwd",
			Name:        "Current Directory",
			Description: "Last working directory reported by the shell",
			Parameters:  []types.Parameter{sessionParam()},
			Returns:     "path",
		},
		{
			ID:          "terminal.clipboard",
			Name:        "Clipboard History",
			Description: "Clipboard-set requests captured from the session, oldest first",
			Parameters:  []types.Parameter{sessionParam()},
			Returns:     "clipboard_entries",
		},
	}
}

func requireString(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return v, nil
}

func requireInt(params map[string]interface{}, key string) (int, error) {
	v, ok := params[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return int(v), nil
}

func optionalInt(params map[string]interface{}, key string) int {
	v, _ := params[key].(float64)
	return int(v)
}

func infoData(info *SessionInfo) map[string]interface{} {
	data := map[string]interface{}{
		"id":          info.ID,
		"shell":       info.Shell,
		"working_dir": info.WorkingDir,
		"cols":        info.Cols,
		"rows":        info.Rows,
		"started_at":  info.StartedAt,
		"active":      info.Active,
		"streams":     info.Streams,
	}
	if info.ExitCode != nil {
		data["exit_code"] = *info.ExitCode
	}
	return data
}

func (p *Provider) createSession(params map[string]interface{}) (*types.Result, error) {
	opts := Options{
		Cols: optionalInt(params, "cols"),
		Rows: optionalInt(params, "rows"),
		Env:  make(map[string]string),
	}
	opts.Shell, _ = params["shell"].(string)
	opts.WorkingDir, _ = params["working_dir"].(string)

	if args, ok := params["args"].([]interface{}); ok {
		for _, a := range args {
			if s, ok := a.(string); ok {
				opts.Args = append(opts.Args, s)
			}
		}
	}
	if envMap, ok := params["env"].(map[string]interface{}); ok {
		for k, v := range envMap {
			if str, ok := v.(string); ok {
				opts.Env[k] = str
			}
		}
	}

	info, err := p.manager.CreateSession(opts)
	if err != nil {
		return nil, err
	}
	return types.Success(infoData(info)), nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}
	input, err := requireString(params, "input")
	if err != nil {
		return nil, err
	}

	if err := p.manager.Write(sessionID, []byte(input)); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	output, err := p.manager.Read(sessionID)
	if err != nil {
		return nil, err
	}

	return types.Success(map[string]interface{}{
		"output":        string(output),
		"output_base64": base64.StdEncoding.EncodeToString(output),
		"length":        len(output),
	}), nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}
	cols, err := requireInt(params, "cols")
	if err != nil {
		return nil, err
	}
	rows, err := requireInt(params, "rows")
	if err != nil {
		return nil, err
	}

	if err := p.manager.Resize(sessionID, cols, rows); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) listSessions() (*types.Result, error) {
	sessions := p.manager.ListSessions()

	return types.Success(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	}), nil
}

func (p *Provider) getSession(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	info, err := p.manager.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return types.Success(infoData(info)), nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	if err := p.manager.Kill(sessionID); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) cwd(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	info, err := p.manager.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"path": info.WorkingDir}), nil
}

func (p *Provider) clipboard(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	entries, err := p.manager.Clipboard(sessionID)
	if err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}), nil
}
