package terminal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/termbridge/internal/shared/id"
	"github.com/GriffinCanCode/termbridge/internal/shared/types"
)

// hub fans frames out to live subscribers of one session. Publishing never
// blocks: a subscriber whose channel is full is dropped.
type hub struct {
	mu     sync.Mutex
	subs   map[id.SubscriberID]chan types.Frame
	size   int
	closed bool

	onDrop func()
	logger *zap.Logger
}

func newHub(size int, onDrop func(), logger *zap.Logger) *hub {
	if size <= 0 {
		size = 1
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &hub{
		subs:   make(map[id.SubscriberID]chan types.Frame),
		size:   size,
		onDrop: onDrop,
		logger: logger,
	}
}

// subscribe registers a new subscriber. The returned cancel func is safe to
// call more than once and after the hub has closed.
func (h *hub) subscribe() (<-chan types.Frame, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, ErrSessionClosed
	}

	subID := id.NewSubscriberID()
	ch := make(chan types.Frame, h.size)
	h.subs[subID] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[subID]; ok {
			delete(h.subs, subID)
			close(c)
		}
	}
	return ch, cancel, nil
}

func (h *hub) publish(frame types.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for subID, ch := range h.subs {
		select {
		case ch <- frame:
		default:
			delete(h.subs, subID)
			close(ch)
			h.onDrop()
			h.logger.Warn("Dropping slow stream subscriber",
				zap.String("subscriber_id", subID.String()),
				zap.Int("buffer", h.size))
		}
	}
}

// close delivers final to every subscriber that has room for it and closes
// all channels. Later publishes are discarded.
func (h *hub) close(final types.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for subID, ch := range h.subs {
		select {
		case ch <- final:
		default:
		}
		close(ch)
		delete(h.subs, subID)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// clipboardLog keeps the most recent clipboard-set requests of a session.
type clipboardLog struct {
	mu      sync.RWMutex
	entries []ClipboardEntry
	limit   int
}

func newClipboardLog(limit int) *clipboardLog {
	return &clipboardLog{limit: limit}
}

func (l *clipboardLog) add(entry ClipboardEntry) {
	if l.limit <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
}

// list returns entries oldest first.
func (l *clipboardLog) list() []ClipboardEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ClipboardEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
