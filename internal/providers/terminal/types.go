package terminal

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/termbridge/internal/osc"
)

// Session represents an active terminal session
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	Cols       int
	Rows       int
	StartedAt  time.Time

	// Process management
	cmd  *exec.Cmd
	ptmx *os.File

	// Output path: pty -> framer -> (outputBuf, hub)
	framer    *osc.Framer
	outputBuf *Buffer
	hub       *hub
	clipboard *clipboardLog

	logger *zap.Logger

	// Lifecycle
	mu       sync.RWMutex
	closed   bool
	exitCode *int
	readDone chan struct{}
	done     chan struct{}
	finish   sync.Once
}

func (s *Session) info() *SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       s.Cols,
		Rows:       s.Rows,
		StartedAt:  s.StartedAt,
		Active:     !s.closed,
		ExitCode:   s.exitCode,
		Streams:    s.hub.count(),
	}
}

func (s *Session) setWorkingDir(dir string) {
	s.mu.Lock()
	s.WorkingDir = dir
	s.mu.Unlock()
}

// Done is closed once the shell has exited and the session is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Buffer is a thread-safe circular buffer for terminal output. When full,
// the oldest bytes are overwritten.
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	full bool
	mu   sync.Mutex
}

// NewBuffer creates a new circular buffer
func NewBuffer(size int) *Buffer {
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write writes data to the buffer
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = len(p)
	// Only the last size bytes can survive.
	if len(p) > b.size {
		p = p[len(p)-b.size:]
	}
	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.full {
			b.head = b.tail
		} else if b.tail == b.head {
			b.full = true
		}
	}

	return n, nil
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lenLocked()
}

func (b *Buffer) lenLocked() int {
	switch {
	case b.full:
		return b.size
	case b.tail >= b.head:
		return b.tail - b.head
	default:
		return b.size - b.head + b.tail
	}
}

// ReadAll drains all available data from the buffer
func (b *Buffer) ReadAll() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.lenLocked()
	result := make([]byte, n)
	if n == 0 {
		return result
	}
	if b.head < b.tail {
		copy(result, b.data[b.head:b.tail])
	} else {
		k := copy(result, b.data[b.head:])
		copy(result[k:], b.data[:b.tail])
	}

	b.head = b.tail
	b.full = false

	return result
}

// SessionInfo is the public representation of a session
type SessionInfo struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Active     bool      `json:"active"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	Streams    int       `json:"streams"`
}

// ClipboardEntry is one clipboard-set request captured from a session
type ClipboardEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Options describes a session to create.
type Options struct {
	Shell      string
	Args       []string
	WorkingDir string
	Cols       int
	Rows       int
	Env        map[string]string
}
