// Package ftui provides scoped terminal session handling.
//
// Alternate-screen mode, raw mode and mouse capture are acquired at
// program start and released on every exit path, including panic.
package ftui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// SessionOptions selects which terminal modes a session acquires.
type SessionOptions struct {
	AltScreen      bool
	MouseCapture   bool
	BracketedPaste bool
	HideCursor     bool
}

// Session owns the terminal for the program's lifetime.
type Session struct {
	output   io.Writer
	fd       int
	oldState *term.State
	opts     SessionOptions
	released bool
}

// OpenSession puts the terminal into raw mode and acquires the requested
// modes. The caller must arrange Release on all exit paths:
//
//	session, err := ftui.OpenSession(os.Stdout, opts)
//	if err != nil { ... }
//	defer session.Release()
func OpenSession(output io.Writer, opts SessionOptions) (*Session, error) {
	s := &Session{output: output, fd: int(os.Stdin.Fd()), opts: opts}

	if term.IsTerminal(s.fd) {
		oldState, err := term.MakeRaw(s.fd)
		if err != nil {
			return nil, err
		}
		s.oldState = oldState
	}

	if opts.AltScreen {
		io.WriteString(output, SetMode(ModeAltScreen))
	}
	if opts.MouseCapture {
		io.WriteString(output, SetMode(ModeMouseAll))
		io.WriteString(output, SetMode(ModeMouseSGR))
	}
	if opts.BracketedPaste {
		io.WriteString(output, SetMode(ModeBracketedPaste))
	}
	if opts.HideCursor {
		io.WriteString(output, HideCursor())
	}
	return s, nil
}

// Size queries the current terminal geometry, with an 80x24 fallback.
func (s *Session) Size() Size {
	if term.IsTerminal(s.fd) {
		if w, h, err := term.GetSize(s.fd); err == nil {
			return Size{Cols: w, Rows: h}
		}
	}
	return Size{Cols: 80, Rows: 24}
}

// Release restores every acquired mode. Idempotent, safe under defer
// next to a panic propagating outward.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true

	if s.opts.HideCursor {
		io.WriteString(s.output, ShowCursor())
	}
	if s.opts.BracketedPaste {
		io.WriteString(s.output, ResetMode(ModeBracketedPaste))
	}
	if s.opts.MouseCapture {
		io.WriteString(s.output, ResetMode(ModeMouseSGR))
		io.WriteString(s.output, ResetMode(ModeMouseAll))
	}
	if s.opts.AltScreen {
		io.WriteString(s.output, ResetMode(ModeAltScreen))
	}
	if s.oldState != nil {
		term.Restore(s.fd, s.oldState)
	}
}
