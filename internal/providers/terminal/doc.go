// Package terminal runs interactive shells on pseudo-terminals.
//
// Every byte a shell writes is read from the PTY and fed through an
// osc.Framer. Ordinary output lands in the session's ring buffer and is
// published to stream subscribers; working-directory reports and
// clipboard-set requests become cwd and copy frames.
//
// Architecture:
//   - Manager owns sessions and their lifecycle (create, write, resize, kill)
//   - Each session runs a read loop and a process monitor goroutine
//   - A hub per session fans frames out to subscribers without blocking the
//     read loop; a subscriber whose channel fills up is dropped
//   - When the shell exits the framer is closed and subscribers receive an
//     exit frame before their channels close
//
// Tools:
//   - terminal.create_session: Create new shell session with PTY
//   - terminal.write: Send input to session
//   - terminal.read: Drain buffered output
//   - terminal.resize: Resize terminal dimensions
//   - terminal.list_sessions: List sessions
//   - terminal.get_session: Session info
//   - terminal.kill: Terminate session and cleanup
//   - terminal.cwd: Last reported working directory
//   - terminal.clipboard: Captured clipboard history
package terminal
