package ftui

import "testing"

const (
	hebrewShalom  = "שלום" // שלום
	arabicMarhaba = "مرحبا"
)

func TestReorderPureLTR(t *testing.T) {
	if got := Reorder("Hello, world!", DirAuto); got != "Hello, world!" {
		t.Errorf("got %q", got)
	}
	if got := Reorder("", DirAuto); got != "" {
		t.Errorf("empty input: %q", got)
	}
}

func TestReorderPureRTL(t *testing.T) {
	want := "םולש"
	if got := Reorder(hebrewShalom, DirAuto); got != want {
		t.Errorf("hebrew: got %q want %q", got, want)
	}
	wantAr := "ابحرم"
	if got := Reorder(arabicMarhaba, DirAuto); got != wantAr {
		t.Errorf("arabic: got %q want %q", got, wantAr)
	}
}

func TestReorderMixed(t *testing.T) {
	// Hebrew reversed, ASCII positions preserved.
	in := "Hello " + hebrewShalom + " World"
	want := "Hello םולש World"
	if got := Reorder(in, DirLTR); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestReorderForcedDirections(t *testing.T) {
	if got := Reorder("Hello", DirLTR); got != "Hello" {
		t.Errorf("forced LTR: %q", got)
	}
	// An LTR run embedded in a forced RTL paragraph keeps internal order.
	if got := Reorder("ABC", DirRTL); got != "ABC" {
		t.Errorf("forced RTL on LTR text: %q", got)
	}
}

func TestReorderDropsControls(t *testing.T) {
	got := Reorder("A‎B", DirAuto)
	if got != "AB" {
		t.Errorf("LRM must be processed and removed: %q", got)
	}
}

func TestHasRTL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Hello, world!", false},
		{"12345", false},
		{hebrewShalom, true},
		{arabicMarhaba, true},
		{"Hello " + hebrewShalom, true},
		{"A‏B", true},
	}
	for _, tc := range cases {
		if got := HasRTL(tc.in); got != tc.want {
			t.Errorf("HasRTL(%q) = %v", tc.in, got)
		}
	}
}

func TestParagraphLevel(t *testing.T) {
	if ParagraphLevel("") != DirLTR {
		t.Error("empty defaults to LTR")
	}
	if ParagraphLevel("Hello") != DirLTR {
		t.Error("latin is LTR")
	}
	if ParagraphLevel(hebrewShalom) != DirRTL {
		t.Error("hebrew is RTL")
	}
	if ParagraphLevel("Hello "+hebrewShalom) != DirLTR {
		t.Error("first strong character wins")
	}
	if ParagraphLevel(hebrewShalom+" Hello") != DirRTL {
		t.Error("first strong character wins, RTL case")
	}
}

func TestResolveLevels(t *testing.T) {
	levels := ResolveLevels("ABC", DirAuto)
	for i, l := range levels {
		if l%2 != 0 {
			t.Errorf("latin rune %d should be even level, got %d", i, l)
		}
	}
	levels = ResolveLevels(hebrewShalom, DirAuto)
	for i, l := range levels {
		if l%2 != 1 {
			t.Errorf("hebrew rune %d should be odd level, got %d", i, l)
		}
	}
	if len(ResolveLevels("", DirAuto)) != 0 {
		t.Error("empty text has no levels")
	}
}
