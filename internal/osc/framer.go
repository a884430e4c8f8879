package osc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrClosed is returned by Feed after Close.
var ErrClosed = errors.New("osc: framer closed")

// Outcomes reported to Stats for every framed sequence.
const (
	OutcomeCWD     = "cwd"
	OutcomeCopy    = "copy"
	OutcomeIgnored = "ignored"
	OutcomeInvalid = "invalid"
	// OutcomeOverflow marks an unterminated sequence flushed as output.
	OutcomeOverflow = "overflow"
)

// DefaultMaxPending is the default cap on bytes held for one unterminated
// sequence.
const DefaultMaxPending = 1024 * 1024

// retainLimit caps the capacity kept for an empty accumulator. A large
// clipboard payload should not pin its buffer for the life of the session.
const retainLimit = 64 * 1024

// Stats receives framing counters. monitoring.Metrics implements it.
type Stats interface {
	ObserveSequence(code, outcome string)
	ObserveForwarded(n int)
}

type nopStats struct{}

func (nopStats) ObserveSequence(string, string) {}
func (nopStats) ObserveForwarded(int)           {}

// Options configures a Framer.
type Options struct {
	// OnCWD is called with every working directory the shell reports.
	OnCWD func(path string)

	// OnCopy is called with the text of every clipboard-set request.
	OnCopy func(text string)

	// HomeDir resolves '~' in reported paths (defaults to os.UserHomeDir).
	HomeDir func() (string, error)

	// Logger receives diagnostics about ignored sequences (defaults to a no-op logger).
	Logger *zap.Logger

	// Stats receives framing counters (optional).
	Stats Stats

	// MaxPending caps the bytes held for an unterminated sequence. Past it
	// the held bytes are forwarded as ordinary output (defaults to
	// DefaultMaxPending).
	MaxPending int
}

// Framer strips OSC sequences out of a terminal output stream.
type Framer struct {
	out     io.Writer
	acc     []byte
	homeDir func() (string, error)
	logger  *zap.Logger
	stats   Stats

	maxPending int
	// scanned is how many leading bytes of an open sequence in acc are
	// known to hold no terminator.
	scanned int

	cwd  sink
	copy sink

	closed atomic.Bool
}

// sink is one event stream. Once closed it drops every event.
type sink struct {
	fn     func(string)
	closed atomic.Bool
}

func (s *sink) emit(v string) bool {
	if s.fn == nil || s.closed.Load() {
		return false
	}
	s.fn(v)
	return true
}

// NewFramer creates a Framer forwarding ordinary output to out.
func NewFramer(out io.Writer, opts Options) *Framer {
	if opts.HomeDir == nil {
		opts.HomeDir = os.UserHomeDir
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stats == nil {
		opts.Stats = nopStats{}
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	return &Framer{
		out:        out,
		homeDir:    opts.HomeDir,
		logger:     opts.Logger,
		stats:      opts.Stats,
		maxPending: opts.MaxPending,
		cwd:        sink{fn: opts.OnCWD},
		copy:       sink{fn: opts.OnCopy},
	}
}

// Feed appends chunk to the accumulator, forwards ordinary output, and
// dispatches every complete sequence. A trailing incomplete sequence is kept
// for the next call. Write errors from the output do not interrupt framing;
// the first one is returned once the chunk is fully applied.
func (f *Framer) Feed(chunk []byte) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if len(chunk) == 0 {
		return nil
	}
	f.acc = append(f.acc, chunk...)

	// Still inside an open sequence: only the new bytes can hold its
	// terminator. Start one byte early in case ST straddles the reads.
	if f.scanned > 0 {
		from := max(f.scanned-1, len(Prefix))
		if n, _ := earliestSuffix(f.acc[from:]); n < 0 {
			f.scanned = len(f.acc)
			return f.limitPending()
		}
	}

	tokens, rest := Split(f.acc)

	var firstErr error
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenData:
			if err := f.forward(tok.Bytes); err != nil && firstErr == nil {
				firstErr = err
			}
		case TokenSequence:
			f.dispatch(tok.Bytes)
		}
	}

	f.retain(rest)
	f.scanned = 0
	if bytes.HasPrefix(f.acc, Prefix) {
		f.scanned = len(f.acc)
	}
	if err := f.limitPending(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// limitPending flushes an open sequence that has grown past maxPending.
func (f *Framer) limitPending() error {
	if len(f.acc) <= f.maxPending {
		return nil
	}
	f.logger.Warn("Flushing unterminated OSC sequence", zap.Int("length", len(f.acc)))
	f.stats.ObserveSequence("unterminated", OutcomeOverflow)

	err := f.forward(f.acc)
	f.acc = nil
	f.scanned = 0
	return err
}

// Write implements io.Writer so a Framer can be the target of io.Copy.
func (f *Framer) Write(p []byte) (int, error) {
	if err := f.Feed(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Pending returns the number of buffered bytes of an unterminated sequence.
func (f *Framer) Pending() int {
	return len(f.acc)
}

// Close ends both event streams. Buffered bytes of an unterminated sequence
// are discarded. Close is idempotent.
func (f *Framer) Close() error {
	f.closed.Store(true)
	f.cwd.closed.Store(true)
	f.copy.closed.Store(true)
	return nil
}

func (f *Framer) forward(b []byte) error {
	n, err := f.out.Write(b)
	f.stats.ObserveForwarded(n)
	if err != nil {
		return fmt.Errorf("forward output: %w", err)
	}
	return nil
}

// retain keeps rest as the accumulator. rest aliases the tail of f.acc, and
// copy handles the overlap.
func (f *Framer) retain(rest []byte) {
	if len(rest) == 0 && cap(f.acc) > retainLimit {
		f.acc = nil
		return
	}
	n := copy(f.acc, rest)
	f.acc = f.acc[:n]
}

func (f *Framer) dispatch(payload []byte) {
	cmd := ParseCommand(payload)
	outcome := OutcomeIgnored

	switch {
	case !cmd.Numeric:
		f.logger.Debug("Ignoring OSC sequence with non-numeric code", zap.Int("length", len(payload)))
	case cmd.Code == CodeCurrentDir:
		outcome = f.handleCurrentDir(cmd)
	case cmd.Code == CodeClipboard:
		outcome = f.handleClipboard(cmd)
	default:
		f.logger.Debug("Ignoring OSC sequence", zap.Int("code", cmd.Code))
	}

	f.stats.ObserveSequence(cmd.Label(), outcome)
}

func (f *Framer) handleCurrentDir(cmd Command) string {
	path, ok := currentDir(cmd.Params)
	if !ok {
		f.logger.Debug("Unsupported OSC 1337 parameter", zap.String("param", path))
		return OutcomeIgnored
	}

	expanded, err := expandHome(path, f.homeDir)
	if err != nil {
		f.logger.Warn("Failed to resolve home directory", zap.String("path", path), zap.Error(err))
	}

	f.cwd.emit(expanded)
	return OutcomeCWD
}

func (f *Framer) handleClipboard(cmd Command) string {
	if !clipboardTarget(cmd.Params) {
		f.logger.Debug("Ignoring OSC 52 for non-clipboard selection", zap.Int("params", len(cmd.Params)))
		return OutcomeIgnored
	}

	text, err := clipboardText(cmd.Params)
	if err != nil {
		f.logger.Debug("Dropping OSC 52 request", zap.Error(err))
		return OutcomeInvalid
	}

	f.copy.emit(text)
	return OutcomeCopy
}
