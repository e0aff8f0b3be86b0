// Package ftui provides ANSI escape generation for terminal output.
//
// The encoder emits the smallest correct SGR sequence to transition from
// the last emitted style to the next cell's style: attributes are only
// reset when one must be cleared, colors transition directly.
package ftui

import (
	"strconv"
	"strings"
)

const (
	ESC = "\x1b"
	CSI = ESC + "["
	OSC = ESC + "]"
	ST  = ESC + "\\"
)

// Pre-computed escape fragments.
const (
	resetStr     = CSI + "0m"
	clearStr     = CSI + "2J"
	homeStr      = CSI + "H"
	hideCursor   = CSI + "?25l"
	showCursor   = CSI + "?25h"
	hyperlinkEnd = OSC + "8;;" + ST
)

// DECSET/DECRST private modes.
const (
	ModeAltScreen      = 1049
	ModeBracketedPaste = 2004
	ModeMouseSGR       = 1006
	ModeMouseAll       = 1003
	ModeCursorVisible  = 25
)

// relativeMoveMax is the longest same-row gap bridged with a relative
// cursor move; anything longer uses absolute positioning.
const relativeMoveMax = 5

// MoveCursor returns the absolute cursor-position escape (1-based).
func MoveCursor(x, y int) string {
	return CSI + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H"
}

// CursorForward returns the relative right-move escape.
func CursorForward(n int) string {
	if n <= 0 {
		return ""
	}
	if n == 1 {
		return CSI + "C"
	}
	return CSI + strconv.Itoa(n) + "C"
}

// HideCursor returns the escape to hide the cursor.
func HideCursor() string { return hideCursor }

// ShowCursor returns the escape to show the cursor.
func ShowCursor() string { return showCursor }

// ClearScreen returns erase-in-display plus home.
func ClearScreen() string { return clearStr + homeStr }

// SetMode returns the DECSET escape for a private mode.
func SetMode(mode int) string {
	return CSI + "?" + strconv.Itoa(mode) + "h"
}

// ResetMode returns the DECRST escape for a private mode.
func ResetMode(mode int) string {
	return CSI + "?" + strconv.Itoa(mode) + "l"
}

// HyperlinkStart returns the OSC 8 sequence opening a hyperlink.
func HyperlinkStart(url string) string {
	return OSC + "8;;" + url + ST
}

// HyperlinkEnd returns the OSC 8 sequence closing a hyperlink.
func HyperlinkEnd() string { return hyperlinkEnd }

// Osc52Copy returns the OSC 52 clipboard-set sequence. The payload must
// already be base64-encoded by the caller.
func Osc52Copy(b64 string) string {
	return OSC + "52;c;" + b64 + ST
}

// ITerm2Image returns the OSC 1337 inline-image sequence for
// base64-encoded image data, sized in cells.
func ITerm2Image(b64 string, cols, rows int) string {
	return OSC + "1337;File=inline=1;width=" + strconv.Itoa(cols) +
		";height=" + strconv.Itoa(rows) + ":" + b64 + "\a"
}

// KittyImage returns a single-chunk Kitty graphics transmit-and-display
// sequence for base64-encoded PNG data.
func KittyImage(b64 string) string {
	return ESC + "_Ga=T,f=100;" + b64 + ST
}

// attrCodes maps each attribute bit to its SGR parameter.
var attrCodes = [...]struct {
	bit  Attr
	code string
}{
	{AttrBold, "1"},
	{AttrDim, "2"},
	{AttrItalic, "3"},
	{AttrUnderline, "4"},
	{AttrBlink, "5"},
	{AttrReverse, "7"},
	{AttrStrikethrough, "9"},
}

// appendColorParams appends the SGR parameters selecting a color.
func appendColorParams(params []string, c Color, fg bool) []string {
	switch c.Kind {
	case ColorKindDefault:
		if fg {
			return append(params, "39")
		}
		return append(params, "49")
	case ColorKindNamed:
		base := 40
		if fg {
			base = 30
		}
		if c.Index >= 8 {
			base += 60
			return append(params, strconv.Itoa(base+int(c.Index)-8))
		}
		return append(params, strconv.Itoa(base+int(c.Index)))
	case ColorKindIndexed:
		lead := "48"
		if fg {
			lead = "38"
		}
		return append(params, lead, "5", strconv.Itoa(int(c.Index)))
	default:
		lead := "48"
		if fg {
			lead = "38"
		}
		return append(params, lead, "2",
			strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B)))
	}
}

// writeSGR emits one CSI ... m sequence from parameters.
func writeSGR(sb *strings.Builder, params []string) {
	if len(params) == 0 {
		return
	}
	sb.WriteString(CSI)
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p)
	}
	sb.WriteByte('m')
}

// Encoder tracks emitted terminal state so consecutive cells cost the
// minimum number of escape bytes.
type Encoder struct {
	sb        strings.Builder
	hasStyle  bool
	fg, bg    Color
	attrs     Attr
	hyperlink string
	// cursor tracking: col -1 means unknown
	row, col int
	known    bool
}

// NewEncoder creates an encoder with no known terminal state.
func NewEncoder() *Encoder {
	return &Encoder{row: -1, col: -1}
}

// Reset clears both the byte buffer and the tracked state.
func (e *Encoder) Reset() {
	e.sb.Reset()
	e.hasStyle = false
	e.fg, e.bg = Color{}, Color{}
	e.attrs = 0
	e.hyperlink = ""
	e.row, e.col = -1, -1
	e.known = false
}

// Bytes returns the accumulated escape stream.
func (e *Encoder) Bytes() []byte {
	return []byte(e.sb.String())
}

// Len returns the accumulated byte count.
func (e *Encoder) Len() int {
	return e.sb.Len()
}

// WriteRaw appends a pre-built escape without touching tracked state.
func (e *Encoder) WriteRaw(s string) {
	e.sb.WriteString(s)
}

// MoveTo positions the cursor, using a relative move for short same-row
// hops and absolute positioning otherwise.
func (e *Encoder) MoveTo(x, y int) {
	if e.known && y == e.row {
		if x == e.col {
			return
		}
		if gap := x - e.col; gap > 0 && gap <= relativeMoveMax {
			e.sb.WriteString(CursorForward(gap))
			e.col = x
			return
		}
	}
	e.sb.WriteString(MoveCursor(x, y))
	e.row, e.col = y, x
	e.known = true
}

// styleTo transitions the emitted style to the cell's style.
func (e *Encoder) styleTo(c Cell) {
	if e.hasStyle && e.fg == c.FG && e.bg == c.BG && e.attrs == c.Attrs {
		e.hyperlinkTo(c.Hyperlink)
		return
	}

	var params []string
	needsReset := !e.hasStyle || e.attrs&^c.Attrs != 0
	if needsReset {
		params = append(params, "0")
		for _, ac := range attrCodes {
			if c.Attrs.Has(ac.bit) {
				params = append(params, ac.code)
			}
		}
		if c.FG.Kind != ColorKindDefault {
			params = appendColorParams(params, c.FG, true)
		}
		if c.BG.Kind != ColorKindDefault {
			params = appendColorParams(params, c.BG, false)
		}
	} else {
		for _, ac := range attrCodes {
			if c.Attrs.Has(ac.bit) && !e.attrs.Has(ac.bit) {
				params = append(params, ac.code)
			}
		}
		if e.fg != c.FG {
			params = appendColorParams(params, c.FG, true)
		}
		if e.bg != c.BG {
			params = appendColorParams(params, c.BG, false)
		}
	}
	writeSGR(&e.sb, params)
	e.hasStyle = true
	e.fg, e.bg, e.attrs = c.FG, c.BG, c.Attrs
	e.hyperlinkTo(c.Hyperlink)
}

// hyperlinkTo switches the open OSC 8 target.
func (e *Encoder) hyperlinkTo(url string) {
	if url == e.hyperlink {
		return
	}
	if e.hyperlink != "" {
		e.sb.WriteString(hyperlinkEnd)
	}
	if url != "" {
		e.sb.WriteString(HyperlinkStart(url))
	}
	e.hyperlink = url
}

// PutCell emits one cell's content at the tracked position, advancing the
// column by the cell width. Continuations are skipped (their origin
// already advanced the cursor past them).
func (e *Encoder) PutCell(c Cell, pool *GraphemePool) {
	if c.Content.IsContinuation() {
		return
	}
	e.styleTo(c)
	switch {
	case c.Content.IsEmpty():
		e.sb.WriteByte(' ')
		e.col++
	case c.Content.IsGrapheme():
		ref, _ := c.Content.Grapheme()
		s, w := "", 1
		if pool != nil {
			s, w = pool.Lookup(ref)
		}
		if s == "" {
			s, w = " ", 1
		}
		e.sb.WriteString(s)
		e.col += w
	default:
		r, _ := c.Content.Rune()
		e.sb.WriteRune(r)
		e.col += c.Content.Width()
	}
}

// Finish closes any open hyperlink and resets style for the terminal.
// Emits nothing when nothing was emitted.
func (e *Encoder) Finish() {
	if e.sb.Len() == 0 {
		return
	}
	if e.hyperlink != "" {
		e.sb.WriteString(hyperlinkEnd)
		e.hyperlink = ""
	}
	e.sb.WriteString(resetStr)
	e.hasStyle = false
	e.fg, e.bg, e.attrs = Color{}, Color{}, 0
}

// ContainsAnsi returns true if the string contains CSI sequences.
func ContainsAnsi(s string) bool {
	return strings.Contains(s, CSI)
}

// StripAnsi removes ANSI escape sequences, returning visible text only.
func StripAnsi(s string) string {
	if !strings.Contains(s, ESC) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && !(s[i] >= 0x40 && s[i] <= 0x7E) {
				i++
			}
			if i < len(s) {
				i++
			}
		} else if s[i] == 0x1b {
			i += 2
		} else {
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}
