package ftui

import "testing"

func TestCellEqual(t *testing.T) {
	a := NewCell('x', Named(ColorRed), DefaultColor(), AttrBold)
	b := NewCell('x', Named(ColorRed), DefaultColor(), AttrBold)
	if !a.Equal(b) {
		t.Error("identical cells should be equal")
	}

	cases := []Cell{
		NewCell('y', Named(ColorRed), DefaultColor(), AttrBold),
		NewCell('x', Named(ColorGreen), DefaultColor(), AttrBold),
		NewCell('x', Named(ColorRed), Named(ColorBlue), AttrBold),
		NewCell('x', Named(ColorRed), DefaultColor(), AttrBold|AttrItalic),
		{Content: RuneContent('x', 1), FG: Named(ColorRed), Attrs: AttrBold, Hyperlink: "https://example.com"},
	}
	for i, c := range cases {
		if a.Equal(c) {
			t.Errorf("case %d: cells differing in one field should not be equal", i)
		}
	}
}

func TestColorKinds(t *testing.T) {
	if DefaultColor().Kind != ColorKindDefault {
		t.Error("zero color should be default")
	}
	if Named(200).Index != 15 {
		t.Error("named index should clamp to 15")
	}
	rgb := RGB(1, 2, 3)
	if rgb.Kind != ColorKindRGB || rgb.R != 1 || rgb.G != 2 || rgb.B != 3 {
		t.Errorf("rgb fields: %+v", rgb)
	}
	if Indexed(200) == Named(15) {
		t.Error("indexed and named must stay distinct kinds")
	}
}

func TestCellWidth(t *testing.T) {
	narrow := CellFromRune('a')
	if narrow.IsWide() || narrow.Content.Width() != 1 {
		t.Errorf("ascii should be width 1: %d", narrow.Content.Width())
	}
	wide := CellFromRune('世')
	if !wide.IsWide() || wide.Content.Width() != 2 {
		t.Errorf("CJK should be width 2: %d", wide.Content.Width())
	}
	if !WideContinuation.Content.IsContinuation() {
		t.Error("continuation marker lost its kind")
	}
	if WideContinuation.Content.Width() != 0 {
		t.Error("continuation occupies no columns of its own")
	}
	if EmptyCell.Content.Width() != 1 {
		t.Error("empty content renders as one blank column")
	}
}

func TestAttrBits(t *testing.T) {
	a := AttrBold | AttrUnderline
	if !a.Has(AttrBold) || !a.Has(AttrUnderline) {
		t.Error("set bits should report true")
	}
	if a.Has(AttrDim) {
		t.Error("unset bit should report false")
	}
	if !a.Has(AttrBold | AttrUnderline) {
		t.Error("Has checks all bits at once")
	}
}

func TestSameStyle(t *testing.T) {
	a := NewCell('a', Named(ColorRed), DefaultColor(), AttrBold)
	b := NewCell('b', Named(ColorRed), DefaultColor(), AttrBold)
	if !a.SameStyle(b) {
		t.Error("differing content only should share style")
	}
	c := b
	c.Hyperlink = "https://example.com"
	if a.SameStyle(c) {
		t.Error("hyperlink is part of the style identity")
	}
}

func TestGraphemePool(t *testing.T) {
	pool := NewGraphemePool()
	id1 := pool.Intern("é")
	id2 := pool.Intern("é")
	if id1 != id2 {
		t.Error("interning is idempotent")
	}
	s, w := pool.Lookup(id1)
	if s != "é" || w != 1 {
		t.Errorf("lookup: got %q width %d", s, w)
	}
	if _, w := pool.Lookup(0); w != 0 {
		t.Error("zero id is never valid")
	}
	if pool.Len() != 1 {
		t.Errorf("pool should have one cluster, has %d", pool.Len())
	}
}
