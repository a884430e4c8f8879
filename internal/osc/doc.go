// Package osc frames Operating System Command escape sequences out of a raw
// terminal output stream.
//
// A Framer sits between a pty reader and whatever renders the output. Every
// ordinary byte is forwarded unchanged and in order; complete OSC sequences
// are cut out of the stream and, for the two codes the backend understands,
// turned into events:
//
//   - OSC 1337 CurrentDir=<path>: the shell reports its working directory
//   - OSC 52 c;<base64>: an application asks to set the clipboard
//
// All other OSC codes are consumed silently. Sequences may arrive split across
// any number of reads; a trailing incomplete sequence is held back until its
// terminator (BEL or ST) shows up.
//
// Example Usage:
//
//	f := osc.NewFramer(out, osc.Options{
//		OnCWD:  func(path string) { ... },
//		OnCopy: func(text string) { ... },
//	})
//	defer f.Close()
//	io.Copy(f, ptmx)
//
// A Framer is not safe for concurrent Feed calls. Close may be called from
// any goroutine.
package osc
