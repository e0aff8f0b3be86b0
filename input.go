// Package ftui provides the input byte-stream parser.
//
// The parser is a streaming state machine over raw terminal bytes:
// CSI key sequences including modifier-encoded variants, UTF-8 text
// runs, SGR mouse reports, focus in/out and bracketed-paste blocks.
// Malformed input drops bytes up to the next resync point and continues.
package ftui

import (
	"strings"
	"unicode/utf8"
)

// InputParser decodes terminal input bytes into events. Incomplete
// escape sequences are retained across Feed calls.
type InputParser struct {
	buf     []byte
	inPaste bool
	paste   strings.Builder
}

// NewInputParser creates an empty parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// Feed appends raw bytes and returns all fully decoded events.
func (p *InputParser) Feed(data []byte) []Event {
	p.buf = append(p.buf, data...)
	var events []Event
	for {
		ev, n, ok := p.next()
		if n == 0 {
			break
		}
		p.buf = p.buf[n:]
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

// next decodes one event from the head of the buffer. n is the number of
// consumed bytes (0 means "need more input"); ok is false for consumed
// bytes that produce no event.
func (p *InputParser) next() (Event, int, bool) {
	if len(p.buf) == 0 {
		return nil, 0, false
	}

	if p.inPaste {
		return p.nextPaste()
	}

	b := p.buf[0]
	if b == 0x1b {
		return p.nextEscape()
	}

	// Control characters.
	switch b {
	case '\r', '\n':
		return KeyEvent{Code: KeyEnter}, 1, true
	case '\t':
		return KeyEvent{Code: KeyTab}, 1, true
	case 0x7f, 0x08:
		return KeyEvent{Code: KeyBackspace}, 1, true
	}
	if b < 0x20 {
		// Ctrl+letter.
		return KeyEvent{Code: KeyChar, Rune: rune(b + 'a' - 1), Modifiers: ModCtrl}, 1, true
	}

	// UTF-8 text run: decode one rune at a time.
	r, size := utf8.DecodeRune(p.buf)
	if r == utf8.RuneError && size == 1 {
		if !utf8.FullRune(p.buf) && len(p.buf) < utf8.UTFMax {
			return nil, 0, false // may complete with more bytes
		}
		Counters.InputParseMalformed.Add(1)
		return nil, 1, false // drop to resync
	}
	return KeyEvent{Code: KeyChar, Rune: r}, size, true
}

// nextPaste accumulates until the bracketed-paste terminator.
func (p *InputParser) nextPaste() (Event, int, bool) {
	const endMark = "\x1b[201~"
	idx := strings.Index(string(p.buf), endMark)
	if idx < 0 {
		// Keep a partial terminator in the buffer, consume the rest.
		keep := len(p.buf)
		for k := 1; k < len(endMark) && k <= len(p.buf); k++ {
			if strings.HasPrefix(endMark, string(p.buf[len(p.buf)-k:])) {
				keep = len(p.buf) - k
			}
		}
		if keep == 0 {
			return nil, 0, false
		}
		p.paste.Write(p.buf[:keep])
		return nil, keep, false
	}
	p.paste.Write(p.buf[:idx])
	text := p.paste.String()
	p.paste.Reset()
	p.inPaste = false
	return PasteEvent{Text: text}, idx + len(endMark), true
}

// nextEscape decodes sequences starting with ESC.
func (p *InputParser) nextEscape() (Event, int, bool) {
	if len(p.buf) == 1 {
		return nil, 0, false // might be a prefix; wait for more
	}
	switch p.buf[1] {
	case '[':
		return p.nextCSI()
	case 'O':
		return p.nextSS3()
	case 0x1b:
		// ESC ESC: emit one escape key, keep the second.
		return KeyEvent{Code: KeyEscape}, 1, true
	default:
		// Alt-modified character.
		r, size := utf8.DecodeRune(p.buf[1:])
		if r == utf8.RuneError && size == 1 {
			Counters.InputParseMalformed.Add(1)
			return nil, 2, false
		}
		return KeyEvent{Code: KeyChar, Rune: r, Modifiers: ModAlt}, 1 + size, true
	}
}

// nextSS3 decodes ESC O sequences (F1-F4 on most terminals).
func (p *InputParser) nextSS3() (Event, int, bool) {
	if len(p.buf) < 3 {
		return nil, 0, false
	}
	switch p.buf[2] {
	case 'P':
		return KeyEvent{Code: KeyF1}, 3, true
	case 'Q':
		return KeyEvent{Code: KeyF2}, 3, true
	case 'R':
		return KeyEvent{Code: KeyF3}, 3, true
	case 'S':
		return KeyEvent{Code: KeyF4}, 3, true
	}
	Counters.InputParseMalformed.Add(1)
	return nil, 3, false
}

// nextCSI decodes ESC [ sequences.
func (p *InputParser) nextCSI() (Event, int, bool) {
	// Find the final byte (0x40-0x7E).
	end := -1
	for i := 2; i < len(p.buf); i++ {
		if p.buf[i] >= 0x40 && p.buf[i] <= 0x7e {
			end = i
			break
		}
		if i > 32 {
			// Unreasonably long: resync.
			Counters.InputParseMalformed.Add(1)
			return nil, i, false
		}
	}
	if end < 0 {
		return nil, 0, false
	}
	body := string(p.buf[2:end])
	final := p.buf[end]
	consumed := end + 1

	// SGR mouse: ESC [ < b ; x ; y M/m
	if strings.HasPrefix(body, "<") && (final == 'M' || final == 'm') {
		ev, ok := parseSGRMouse(body[1:], final == 'M')
		if !ok {
			Counters.InputParseMalformed.Add(1)
			return nil, consumed, false
		}
		return ev, consumed, true
	}

	// Focus reports.
	if body == "" && final == 'I' {
		return FocusEvent{Gained: true}, consumed, true
	}
	if body == "" && final == 'O' {
		return FocusEvent{Gained: false}, consumed, true
	}

	// Bracketed paste start.
	if body == "200" && final == '~' {
		p.inPaste = true
		return nil, consumed, false
	}

	params := parseCSIParams(body)
	mods := modifiersFromParam(params, 1)

	switch final {
	case 'A':
		return KeyEvent{Code: KeyUp, Modifiers: mods}, consumed, true
	case 'B':
		return KeyEvent{Code: KeyDown, Modifiers: mods}, consumed, true
	case 'C':
		return KeyEvent{Code: KeyRight, Modifiers: mods}, consumed, true
	case 'D':
		return KeyEvent{Code: KeyLeft, Modifiers: mods}, consumed, true
	case 'H':
		return KeyEvent{Code: KeyHome, Modifiers: mods}, consumed, true
	case 'F':
		return KeyEvent{Code: KeyEnd, Modifiers: mods}, consumed, true
	case 'Z':
		return KeyEvent{Code: KeyBacktab, Modifiers: ModShift}, consumed, true
	case 'u':
		// Kitty-style: code ; mods u
		if len(params) >= 1 {
			r := rune(params[0])
			if r == 13 {
				return KeyEvent{Code: KeyEnter, Modifiers: mods}, consumed, true
			}
			return KeyEvent{Code: KeyChar, Rune: r, Modifiers: mods}, consumed, true
		}
	case '~':
		if len(params) >= 1 {
			if code, ok := tildeKey(params[0]); ok {
				return KeyEvent{Code: code, Modifiers: mods}, consumed, true
			}
		}
	}
	Counters.InputParseMalformed.Add(1)
	return nil, consumed, false
}

// tildeKey maps CSI n~ codes.
func tildeKey(n int) (KeyCode, bool) {
	switch n {
	case 1, 7:
		return KeyHome, true
	case 2:
		return KeyInsert, true
	case 3:
		return KeyDelete, true
	case 4, 8:
		return KeyEnd, true
	case 5:
		return KeyPageUp, true
	case 6:
		return KeyPageDown, true
	case 15:
		return KeyF5, true
	case 17:
		return KeyF6, true
	case 18:
		return KeyF7, true
	case 19:
		return KeyF8, true
	case 20:
		return KeyF9, true
	case 21:
		return KeyF10, true
	case 23:
		return KeyF11, true
	case 24:
		return KeyF12, true
	}
	return 0, false
}

// parseCSIParams splits a semicolon-separated parameter body.
func parseCSIParams(body string) []int {
	if body == "" {
		return nil
	}
	parts := strings.Split(body, ";")
	params := make([]int, 0, len(parts))
	for _, part := range parts {
		n := 0
		valid := part != ""
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c < '0' || c > '9' {
				valid = false
				break
			}
			n = n*10 + int(c-'0')
		}
		if !valid {
			n = 0
		}
		params = append(params, n)
	}
	return params
}

// modifiersFromParam decodes the xterm modifier encoding (value - 1 is a
// bitset: 1 shift, 2 alt, 4 ctrl) from the parameter at idx.
func modifiersFromParam(params []int, idx int) Modifiers {
	if idx >= len(params) {
		return 0
	}
	bits := params[idx] - 1
	if bits <= 0 {
		return 0
	}
	var mods Modifiers
	if bits&1 != 0 {
		mods |= ModShift
	}
	if bits&2 != 0 {
		mods |= ModAlt
	}
	if bits&4 != 0 {
		mods |= ModCtrl
	}
	return mods
}

// parseSGRMouse decodes the b;x;y body of an SGR mouse report.
func parseSGRMouse(body string, press bool) (MouseEvent, bool) {
	params := parseCSIParams(body)
	if len(params) < 3 {
		return MouseEvent{}, false
	}
	b, x, y := params[0], params[1], params[2]

	var mods Modifiers
	if b&4 != 0 {
		mods |= ModShift
	}
	if b&8 != 0 {
		mods |= ModAlt
	}
	if b&16 != 0 {
		mods |= ModCtrl
	}

	button := MouseLeft
	switch {
	case b&64 != 0:
		if b&3 == 0 {
			button = MouseWheelUp
		} else {
			button = MouseWheelDown
		}
	case b&32 != 0:
		button = MouseMove
	default:
		switch b & 3 {
		case 0:
			button = MouseLeft
		case 1:
			button = MouseMiddle
		case 2:
			button = MouseRight
		}
	}

	return MouseEvent{
		X:         x - 1,
		Y:         y - 1,
		Button:    button,
		Press:     press,
		Modifiers: mods,
	}, true
}
