package ftui

import (
	"reflect"
	"testing"
)

func feedAll(t *testing.T, chunks ...string) []Event {
	t.Helper()
	p := NewInputParser()
	var events []Event
	for _, chunk := range chunks {
		events = append(events, p.Feed([]byte(chunk))...)
	}
	return events
}

func TestParseTextRun(t *testing.T) {
	events := feedAll(t, "héllo")
	want := []Event{
		KeyEvent{Code: KeyChar, Rune: 'h'},
		KeyEvent{Code: KeyChar, Rune: 'é'},
		KeyEvent{Code: KeyChar, Rune: 'l'},
		KeyEvent{Code: KeyChar, Rune: 'l'},
		KeyEvent{Code: KeyChar, Rune: 'o'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("got %+v", events)
	}
}

func TestParseControlKeys(t *testing.T) {
	cases := []struct {
		in   string
		want Event
	}{
		{"\r", KeyEvent{Code: KeyEnter}},
		{"\t", KeyEvent{Code: KeyTab}},
		{"\x7f", KeyEvent{Code: KeyBackspace}},
		{"\x03", KeyEvent{Code: KeyChar, Rune: 'c', Modifiers: ModCtrl}},
		{"\x01", KeyEvent{Code: KeyChar, Rune: 'a', Modifiers: ModCtrl}},
	}
	for _, tc := range cases {
		events := feedAll(t, tc.in)
		if len(events) != 1 || events[0] != tc.want {
			t.Errorf("%q: got %+v want %+v", tc.in, events, tc.want)
		}
	}
}

func TestParseCSIKeys(t *testing.T) {
	cases := []struct {
		in   string
		want Event
	}{
		{"\x1b[A", KeyEvent{Code: KeyUp}},
		{"\x1b[B", KeyEvent{Code: KeyDown}},
		{"\x1b[C", KeyEvent{Code: KeyRight}},
		{"\x1b[D", KeyEvent{Code: KeyLeft}},
		{"\x1b[H", KeyEvent{Code: KeyHome}},
		{"\x1b[F", KeyEvent{Code: KeyEnd}},
		{"\x1b[Z", KeyEvent{Code: KeyBacktab, Modifiers: ModShift}},
		{"\x1b[3~", KeyEvent{Code: KeyDelete}},
		{"\x1b[5~", KeyEvent{Code: KeyPageUp}},
		{"\x1b[15~", KeyEvent{Code: KeyF5}},
		{"\x1b[24~", KeyEvent{Code: KeyF12}},
		{"\x1bOP", KeyEvent{Code: KeyF1}},
	}
	for _, tc := range cases {
		events := feedAll(t, tc.in)
		if len(events) != 1 || events[0] != tc.want {
			t.Errorf("%q: got %+v want %+v", tc.in, events, tc.want)
		}
	}
}

func TestParseModifierEncodedKeys(t *testing.T) {
	cases := []struct {
		in   string
		want Event
	}{
		{"\x1b[1;2A", KeyEvent{Code: KeyUp, Modifiers: ModShift}},
		{"\x1b[1;3C", KeyEvent{Code: KeyRight, Modifiers: ModAlt}},
		{"\x1b[1;5D", KeyEvent{Code: KeyLeft, Modifiers: ModCtrl}},
		{"\x1b[1;6B", KeyEvent{Code: KeyDown, Modifiers: ModShift | ModCtrl}},
		{"\x1b[3;5~", KeyEvent{Code: KeyDelete, Modifiers: ModCtrl}},
		{"\x1b[13;2u", KeyEvent{Code: KeyEnter, Modifiers: ModShift}},
	}
	for _, tc := range cases {
		events := feedAll(t, tc.in)
		if len(events) != 1 || events[0] != tc.want {
			t.Errorf("%q: got %+v want %+v", tc.in, events, tc.want)
		}
	}
}

func TestParseAltModified(t *testing.T) {
	events := feedAll(t, "\x1bf")
	want := KeyEvent{Code: KeyChar, Rune: 'f', Modifiers: ModAlt}
	if len(events) != 1 || events[0] != want {
		t.Errorf("got %+v", events)
	}
}

func TestParseSGRMouse(t *testing.T) {
	events := feedAll(t, "\x1b[<0;10;5M")
	want := MouseEvent{X: 9, Y: 4, Button: MouseLeft, Press: true}
	if len(events) != 1 || events[0] != want {
		t.Fatalf("got %+v", events)
	}

	events = feedAll(t, "\x1b[<2;1;1m")
	release := MouseEvent{X: 0, Y: 0, Button: MouseRight, Press: false}
	if len(events) != 1 || events[0] != release {
		t.Errorf("got %+v", events)
	}

	events = feedAll(t, "\x1b[<64;3;3M")
	wheel := MouseEvent{X: 2, Y: 2, Button: MouseWheelUp, Press: true}
	if len(events) != 1 || events[0] != wheel {
		t.Errorf("got %+v", events)
	}

	events = feedAll(t, "\x1b[<16;2;2M")
	ctrl := MouseEvent{X: 1, Y: 1, Button: MouseLeft, Press: true, Modifiers: ModCtrl}
	if len(events) != 1 || events[0] != ctrl {
		t.Errorf("got %+v", events)
	}
}

func TestParseFocus(t *testing.T) {
	events := feedAll(t, "\x1b[I\x1b[O")
	want := []Event{FocusEvent{Gained: true}, FocusEvent{Gained: false}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("got %+v", events)
	}
}

func TestParseBracketedPaste(t *testing.T) {
	events := feedAll(t, "\x1b[200~pasted\ntext\x1b[201~x")
	if len(events) != 2 {
		t.Fatalf("got %+v", events)
	}
	paste, ok := events[0].(PasteEvent)
	if !ok || paste.Text != "pasted\ntext" {
		t.Errorf("paste block: %+v", events[0])
	}
	if events[1] != (KeyEvent{Code: KeyChar, Rune: 'x'}) {
		t.Errorf("trailing key lost: %+v", events[1])
	}
}

func TestParsePasteSplitAcrossFeeds(t *testing.T) {
	events := feedAll(t, "\x1b[200~hel", "lo\x1b[2", "01~")
	if len(events) != 1 {
		t.Fatalf("got %+v", events)
	}
	if events[0].(PasteEvent).Text != "hello" {
		t.Errorf("got %+v", events[0])
	}
}

func TestParseIncompleteSequenceWaits(t *testing.T) {
	p := NewInputParser()
	if events := p.Feed([]byte("\x1b[1;")); len(events) != 0 {
		t.Fatalf("incomplete CSI must wait: %+v", events)
	}
	events := p.Feed([]byte("5A"))
	want := KeyEvent{Code: KeyUp, Modifiers: ModCtrl}
	if len(events) != 1 || events[0] != want {
		t.Errorf("got %+v", events)
	}
}

func TestParseMalformedResync(t *testing.T) {
	before := Counters.InputParseMalformed.Load()
	// Bad UTF-8 byte, then a valid key.
	events := feedAll(t, "\xffq")
	if len(events) != 1 || events[0] != (KeyEvent{Code: KeyChar, Rune: 'q'}) {
		t.Errorf("parser must resync after junk: %+v", events)
	}
	if Counters.InputParseMalformed.Load() <= before {
		t.Error("malformed input must be counted")
	}
}

func TestParseMalformedMouseCounted(t *testing.T) {
	before := Counters.InputParseMalformed.Load()
	events := feedAll(t, "\x1b[<0;10M")
	if len(events) != 0 {
		t.Errorf("truncated mouse report yields nothing: %+v", events)
	}
	if Counters.InputParseMalformed.Load() <= before {
		t.Error("malformed mouse report must be counted")
	}
}
