// Package ftui provides the input event model consumed by the program
// loop.
package ftui

import "time"

// Event is any input the program loop applies to the model. Events
// observed at time t are applied in monotonic (t, seq) order.
type Event interface {
	isEvent()
}

// Modifiers is a bitset of key modifiers.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// Has returns true if all bits in other are set.
func (m Modifiers) Has(other Modifiers) bool {
	return m&other == other
}

// KeyCode identifies a logical key.
type KeyCode uint8

const (
	KeyChar KeyCode = iota // a printable rune, in KeyEvent.Rune
	KeyEnter
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// KeyEvent is a decoded key press.
type KeyEvent struct {
	Code      KeyCode
	Rune      rune
	Modifiers Modifiers
}

func (KeyEvent) isEvent() {}

// MouseButton identifies a mouse button or wheel direction.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
	MouseMove
)

// MouseEvent is a decoded SGR mouse report. Coordinates are 0-indexed.
type MouseEvent struct {
	X, Y      int
	Button    MouseButton
	Press     bool // false for release
	Modifiers Modifiers
}

func (MouseEvent) isEvent() {}

// ResizeEvent is a synthetic geometry change derived from an external
// signal.
type ResizeEvent struct {
	Cols, Rows int
}

func (ResizeEvent) isEvent() {}

// PasteEvent carries one bracketed-paste block as a single unit.
type PasteEvent struct {
	Text string
}

func (PasteEvent) isEvent() {}

// FocusEvent reports terminal focus in/out.
type FocusEvent struct {
	Gained bool
}

func (FocusEvent) isEvent() {}

// TickEvent is the frame clock tick.
type TickEvent struct {
	At time.Time
}

func (TickEvent) isEvent() {}

// queuedEvent orders events by (time, seq).
type queuedEvent struct {
	at  time.Time
	seq uint64
	ev  Event
}

// EventQueue is the program loop's FIFO with (t, seq) ordering. Not safe
// for concurrent use; the loop owns it.
type EventQueue struct {
	items []queuedEvent
	seq   uint64
}

// Push enqueues an event observed at t.
func (q *EventQueue) Push(at time.Time, ev Event) {
	q.seq++
	item := queuedEvent{at: at, seq: q.seq, ev: ev}
	// Events arrive nearly ordered; insert keeps (t, seq) monotone.
	i := len(q.items)
	for i > 0 {
		prev := q.items[i-1]
		if prev.at.Before(item.at) || (prev.at.Equal(item.at) && prev.seq < item.seq) {
			break
		}
		i--
	}
	q.items = append(q.items, queuedEvent{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = item
}

// Pop dequeues the earliest event.
func (q *EventQueue) Pop() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	ev := q.items[0].ev
	q.items = q.items[1:]
	return ev, true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.items)
}
