package http

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/termbridge/internal/providers/terminal"
	"github.com/GriffinCanCode/termbridge/internal/service"
	"github.com/GriffinCanCode/termbridge/internal/shared/types"
	"github.com/GriffinCanCode/termbridge/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry  *service.Registry
	terminals *terminal.Manager
	metrics   *HandlerMetrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	registry *service.Registry,
	terminals *terminal.Manager,
	metrics *HandlerMetrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:  registry,
		terminals: terminals,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register mounts every handler on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Service management
	router.GET("/services", h.ListServices)
	router.POST("/services/execute", h.ExecuteService)

	// Terminal sessions
	terminals := router.Group("/terminals")
	terminals.POST("", h.CreateTerminal)
	terminals.GET("", h.ListTerminals)
	terminals.GET("/:id", h.GetTerminal)
	terminals.POST("/:id/input", h.SendInput)
	terminals.POST("/:id/resize", h.ResizeTerminal)
	terminals.GET("/:id/output", h.ReadOutput)
	terminals.GET("/:id/clipboard", h.Clipboard)
	terminals.DELETE("/:id", h.KillTerminal)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termbridge",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	sessions := h.terminals.ListSessions()
	active := 0
	for _, s := range sessions {
		if s.Active {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
		"terminals": gin.H{
			"total":  len(sessions),
			"active": active,
		},
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if categoryStr := c.Query("category"); categoryStr != "" {
		if err := utils.ValidateID(categoryStr, "category", false); err != nil {
			badRequest(c, err)
			return
		}
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		badRequest(c, err)
		return
	}

	var appCtx *types.Context
	if req.ClientID != nil {
		if err := utils.ValidateID(*req.ClientID, "client_id", false); err != nil {
			badRequest(c, err)
			return
		}
		appCtx = &types.Context{ClientID: req.ClientID}
	}

	done := h.metrics.TrackTool(req.ToolID)
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	done(err)
	if err != nil {
		h.logger.Debug("Tool execution failed", zap.String("tool_id", req.ToolID), zap.Error(err))
		c.JSON(statusFor(err), types.Failure(err.Error()))
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateTerminal starts a new terminal session
func (h *Handlers) CreateTerminal(c *gin.Context) {
	var req types.CreateTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := validateCreate(req); err != nil {
		badRequest(c, err)
		return
	}

	info, err := h.terminals.CreateSession(terminal.Options{
		Shell:      req.Shell,
		Args:       req.Args,
		WorkingDir: req.WorkingDir,
		Cols:       req.Cols,
		Rows:       req.Rows,
		Env:        req.Env,
	})
	if err != nil {
		h.logger.Warn("Failed to create terminal session", zap.String("shell", req.Shell), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, info)
}

func validateCreate(req types.CreateTerminalRequest) error {
	if err := utils.ValidatePath(req.Shell, "shell"); err != nil {
		return err
	}
	if err := utils.ValidatePath(req.WorkingDir, "working_dir"); err != nil {
		return err
	}
	if err := utils.ValidateArgs(req.Args); err != nil {
		return err
	}
	return utils.ValidateEnv(req.Env)
}

// ListTerminals lists terminal sessions
func (h *Handlers) ListTerminals(c *gin.Context) {
	sessions := h.terminals.ListSessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// sessionID validates and returns the :id path parameter
func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "session_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return id, true
}

// GetTerminal returns session info
func (h *Handlers) GetTerminal(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	info, err := h.terminals.GetSession(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// SendInput writes input to a session
func (h *Handlers) SendInput(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req types.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateInput(req.Input); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.terminals.Write(id, []byte(req.Input)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResizeTerminal changes a session's window size
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.terminals.Resize(id, req.Cols, req.Rows); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cols": req.Cols, "rows": req.Rows})
}

// ReadOutput drains buffered output. OSC sequences are already stripped.
func (h *Handlers) ReadOutput(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	output, err := h.terminals.Read(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output":        string(output),
		"output_base64": base64.StdEncoding.EncodeToString(output),
		"length":        len(output),
	})
}

// Clipboard returns the clipboard history captured from a session
func (h *Handlers) Clipboard(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	entries, err := h.terminals.Clipboard(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// KillTerminal terminates and removes a session
func (h *Handlers) KillTerminal(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.terminals.Kill(id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id})
}
