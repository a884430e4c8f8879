package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/termbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termbridge/internal/osc"
	"github.com/GriffinCanCode/termbridge/internal/shared/id"
	"github.com/GriffinCanCode/termbridge/internal/shared/types"
)

const (
	// drainTimeout bounds how long teardown waits for the read loop to
	// consume output written just before the shell exited.
	drainTimeout = 2 * time.Second
	killTimeout  = 3 * time.Second
)

// Config holds session defaults and buffer sizes.
type Config struct {
	Shell            string
	Cols             int
	Rows             int
	OutputBuffer     int
	ReadSize         int
	ClipboardHistory int
	StreamBuffer     int
	MaxPending       int
	HomeDir          string
}

// DefaultConfig returns the defaults used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		Cols:             80,
		Rows:             24,
		OutputBuffer:     1024 * 1024,
		ReadSize:         4096,
		ClipboardHistory: 50,
		StreamBuffer:     256,
		MaxPending:       osc.DefaultMaxPending,
	}
}

// Metrics receives session and framing counters.
type Metrics interface {
	osc.Stats
	SessionStarted()
	SessionEnded()
	IncStreamDrops()
}

type nopMetrics struct{}

func (nopMetrics) ObserveSequence(string, string) {}
func (nopMetrics) ObserveForwarded(int)           {}
func (nopMetrics) SessionStarted()                {}
func (nopMetrics) SessionEnded()                  {}
func (nopMetrics) IncStreamDrops()                {}

// Manager manages terminal sessions
type Manager struct {
	sessions sync.Map // map[string]*Session
	cfg      Config
	logger   *logging.Logger
	metrics  Metrics
}

// NewManager creates a new session manager. A nil logger or metrics
// disables them.
func NewManager(cfg Config, logger *logging.Logger, metrics Metrics) *Manager {
	def := DefaultConfig()
	if cfg.Cols <= 0 {
		cfg.Cols = def.Cols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = def.Rows
	}
	if cfg.OutputBuffer <= 0 {
		cfg.OutputBuffer = def.OutputBuffer
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = def.ReadSize
	}
	if cfg.ClipboardHistory <= 0 {
		cfg.ClipboardHistory = def.ClipboardHistory
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = def.StreamBuffer
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = def.MaxPending
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Manager{cfg: cfg, logger: logger, metrics: metrics}
}

// homeDir resolves '~' in reported working directories. It is not used to
// pick where shells start.
func (m *Manager) homeDir() (string, error) {
	if m.cfg.HomeDir != "" {
		return m.cfg.HomeDir, nil
	}
	return os.UserHomeDir()
}

// CreateSession creates a new terminal session with PTY
func (m *Manager) CreateSession(opts Options) (*SessionInfo, error) {
	shell := opts.Shell
	if shell == "" {
		shell = m.cfg.Shell
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = defaultWorkingDir()
	}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = m.cfg.Cols
	}
	if rows <= 0 {
		rows = m.cfg.Rows
	}

	sessionID := id.NewSessionID().String()
	logger := m.logger.Session(sessionID)

	cmd := exec.Command(shell, opts.Args...)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	session := &Session{
		ID:         sessionID,
		Shell:      shell,
		WorkingDir: workingDir,
		Cols:       cols,
		Rows:       rows,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		outputBuf:  NewBuffer(m.cfg.OutputBuffer),
		hub:        newHub(m.cfg.StreamBuffer, m.metrics.IncStreamDrops, logger),
		clipboard:  newClipboardLog(m.cfg.ClipboardHistory),
		logger:     logger,
		readDone:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	session.framer = osc.NewFramer(sessionOutput{session}, osc.Options{
		OnCWD:      session.reportCWD,
		OnCopy:     session.reportCopy,
		HomeDir:    m.homeDir,
		Logger:     logger.Named("osc"),
		Stats:      m.metrics,
		MaxPending: m.cfg.MaxPending,
	})

	m.sessions.Store(sessionID, session)
	m.metrics.SessionStarted()

	go m.readOutput(session)
	go m.monitorProcess(session)

	logger.Info("Terminal session started",
		zap.String("shell", shell),
		zap.String("working_dir", workingDir),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
		zap.Int("pid", cmd.Process.Pid))

	return session.info(), nil
}

// readOutput feeds pty output through the session's framer until the pty
// is closed or the shell exits.
func (m *Manager) readOutput(session *Session) {
	defer close(session.readDone)

	buf := make([]byte, m.cfg.ReadSize)
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			if ferr := session.framer.Feed(buf[:n]); ferr != nil {
				if errors.Is(ferr, osc.ErrClosed) {
					return
				}
				session.logger.Debug("Failed to forward terminal output", zap.Error(ferr))
			}
		}
		if err != nil {
			// Linux reports EIO once the shell side of the pty is gone.
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				session.logger.Debug("PTY read ended", zap.Error(err))
			}
			return
		}
	}
}

// monitorProcess waits for the shell to exit and tears the session down
func (m *Manager) monitorProcess(session *Session) {
	err := session.cmd.Wait()

	var exitCode *int
	if state := session.cmd.ProcessState; state != nil {
		code := state.ExitCode()
		exitCode = &code
	}
	if err != nil {
		session.logger.Debug("Shell exited with error", zap.Error(err))
	}

	select {
	case <-session.readDone:
	case <-time.After(drainTimeout):
		session.logger.Warn("Timed out draining terminal output")
	}

	m.finish(session, exitCode)
}

// finish closes the framer and subscribers exactly once.
func (m *Manager) finish(session *Session, exitCode *int) {
	session.finish.Do(func() {
		_ = session.framer.Close()

		session.mu.Lock()
		session.closed = true
		session.exitCode = exitCode
		session.mu.Unlock()

		session.hub.close(types.Frame{
			Type:      types.FrameExit,
			SessionID: session.ID,
			ExitCode:  exitCode,
			Timestamp: time.Now().UnixMilli(),
		})
		_ = session.ptmx.Close()

		m.metrics.SessionEnded()
		close(session.done)

		fields := []zap.Field{zap.Duration("uptime", time.Since(session.StartedAt))}
		if exitCode != nil {
			fields = append(fields, zap.Int("exit_code", *exitCode))
		}
		session.logger.Info("Terminal session ended", fields...)
	})
}

// defaultWorkingDir is where shells start when no directory is requested.
func defaultWorkingDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		if _, err := os.Stat(home); err == nil {
			return home
		}
	}
	return os.TempDir()
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return value.(*Session), nil
}

// Write sends input to a session
func (m *Manager) Write(sessionID string, input []byte) error {
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.RLock()
	closed := session.closed
	session.mu.RUnlock()

	if closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}

	if _, err := session.ptmx.Write(input); err != nil {
		return fmt.Errorf("write to session %s: %w", sessionID, err)
	}
	return nil
}

// Read drains buffered output from a session. OSC sequences have already
// been removed.
func (m *Manager) Read(sessionID string) ([]byte, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return session.outputBuf.ReadAll(), nil
}

// Resize changes terminal dimensions
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}

	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}

	if err := pty.Setsize(session.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("resize session %s: %w", sessionID, err)
	}

	session.Cols = cols
	session.Rows = rows
	return nil
}

// Kill terminates a session and removes it. Subscribers receive the exit
// frame before their channels close.
func (m *Manager) Kill(sessionID string) error {
	value, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	session := value.(*Session)

	if session.cmd.Process != nil {
		_ = session.cmd.Process.Kill()
	}

	select {
	case <-session.done:
	case <-time.After(killTimeout):
		session.logger.Warn("Shell did not exit after kill")
		m.finish(session, nil)
	}
	return nil
}

// ListSessions returns all known sessions, including exited ones that have
// not been killed.
func (m *Manager) ListSessions() []SessionInfo {
	sessions := []SessionInfo{}

	m.sessions.Range(func(_, value interface{}) bool {
		sessions = append(sessions, *value.(*Session).info())
		return true
	})

	return sessions
}

// GetSession retrieves session info
func (m *Manager) GetSession(sessionID string) (*SessionInfo, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return session.info(), nil
}

// Clipboard returns a session's clipboard history, oldest first.
func (m *Manager) Clipboard(sessionID string) ([]ClipboardEntry, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return session.clipboard.list(), nil
}

// Subscribe streams a session's frames in order. The channel closes after
// the exit frame, when cancel is called, or when the subscriber falls too
// far behind.
func (m *Manager) Subscribe(sessionID string) (<-chan types.Frame, func(), error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel, err := session.hub.subscribe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", err, sessionID)
	}
	return ch, cancel, nil
}

// Done returns a channel closed when the session has been torn down.
func (m *Manager) Done(sessionID string) (<-chan struct{}, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Done(), nil
}

// CloseAll kills every session.
func (m *Manager) CloseAll() {
	var ids []string
	m.sessions.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(string))
		return true
	})

	var wg sync.WaitGroup
	for _, sessionID := range ids {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			_ = m.Kill(sessionID)
		}(sessionID)
	}
	wg.Wait()
}

// sessionOutput receives framed output: it fills the ring buffer and
// publishes an output frame. p aliases the framer's accumulator, so the
// frame gets its own copy.
type sessionOutput struct {
	s *Session
}

func (o sessionOutput) Write(p []byte) (int, error) {
	_, _ = o.s.outputBuf.Write(p)

	data := make([]byte, len(p))
	copy(data, p)
	o.s.hub.publish(types.Frame{
		Type:      types.FrameOutput,
		SessionID: o.s.ID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	return len(p), nil
}

func (s *Session) reportCWD(path string) {
	s.setWorkingDir(path)
	s.hub.publish(types.Frame{
		Type:      types.FrameCWD,
		SessionID: s.ID,
		Path:      path,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Session) reportCopy(text string) {
	now := time.Now()
	s.clipboard.add(ClipboardEntry{
		ID:        id.NewClipID().String(),
		Text:      text,
		Timestamp: now,
	})
	s.hub.publish(types.Frame{
		Type:      types.FrameCopy,
		SessionID: s.ID,
		Text:      text,
		Timestamp: now.UnixMilli(),
	})
}
