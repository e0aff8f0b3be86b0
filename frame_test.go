package ftui

import "testing"

// glyphWidget writes one marker cell, the minimal Widget.
type glyphWidget struct{ r rune }

func (w glyphWidget) Render(area Rect, frame *Frame) {
	if area.IsEmpty() {
		return
	}
	frame.Buffer.Set(area.X, area.Y, CellFromRune(w.r))
}

// hitWidget registers a hit region over its area.
type hitWidget struct {
	id  HitID
	sem int
}

func (w hitWidget) Render(area Rect, frame *Frame) {
	frame.RegisterHitRegion(area, w.id, w.sem)
}

func TestFrameBufferAccessFromWidget(t *testing.T) {
	pool := NewGraphemePool()
	f := NewFrame(2, 1, pool, NewArena(1024))
	glyphWidget{'X'}.Render(NewRect(0, 0, 2, 1), f)

	c, ok := f.Buffer.Get(0, 0)
	if !ok {
		t.Fatal("cell should exist")
	}
	if r, _ := c.Content.Rune(); r != 'X' {
		t.Errorf("widget write lost: %+v", c.Content)
	}
}

func TestFrameHitGridRegistrationAndLookup(t *testing.T) {
	pool := NewGraphemePool()
	f := NewFrameWithHitGrid(4, 2, pool, NewArena(1024))
	hitWidget{id: 42, sem: 7}.Render(NewRect(1, 0, 2, 1), f)

	id, sem, ok := f.HitTest(1, 0)
	if !ok || id != 42 || sem != 7 {
		t.Errorf("hit lookup: id=%d sem=%d ok=%v", id, sem, ok)
	}
	if _, _, ok := f.HitTest(0, 1); ok {
		t.Error("uncovered cells report no hit")
	}
	if _, _, ok := f.HitTest(99, 99); ok {
		t.Error("out-of-bounds lookups report no hit")
	}
}

func TestFrameWithoutHitGrid(t *testing.T) {
	f := NewFrame(2, 2, NewGraphemePool(), nil)
	f.RegisterHitRegion(NewRect(0, 0, 2, 2), 1, 0)
	if _, _, ok := f.HitTest(0, 0); ok {
		t.Error("frames without a hit grid never hit")
	}
}

func TestFrameCursorSetAndClear(t *testing.T) {
	f := NewFrame(2, 1, NewGraphemePool(), nil)
	f.SetCursor(&CursorPos{X: 1, Y: 0})
	f.SetCursorVisible(true)
	if f.Cursor() == nil || f.Cursor().X != 1 {
		t.Error("cursor position lost")
	}
	f.SetCursor(nil)
	if f.Cursor() != nil {
		t.Error("nil hides the cursor")
	}
}

func TestFrameDegradationPropagatesToBuffer(t *testing.T) {
	f := NewFrame(1, 1, NewGraphemePool(), nil)
	f.SetDegradation(DegradationEssentialOnly)
	if f.Buffer.Degradation != DegradationEssentialOnly {
		t.Error("widgets read the level off the buffer")
	}
}

func TestFrameResetClearsEverything(t *testing.T) {
	arena := NewArena(1024)
	f := NewFrameWithHitGrid(3, 2, NewGraphemePool(), arena)
	f.Buffer.Set(0, 0, CellFromRune('a'))
	f.RegisterHitRegion(NewRect(0, 0, 1, 1), 5, 0)
	f.SetCursor(&CursorPos{})
	f.SetCursorVisible(true)
	arena.AllocString("transient")

	f.Reset()

	if c, _ := f.Buffer.Get(0, 0); !c.Equal(EmptyCell) {
		t.Error("no cell survives reset")
	}
	if _, _, ok := f.HitTest(0, 0); ok {
		t.Error("hit grid cleared on reset")
	}
	if f.Cursor() != nil || f.CursorVisible {
		t.Error("cursor state cleared on reset")
	}
	if arena.AllocatedBytes() != 0 {
		t.Error("arena reset with the frame")
	}
}

func TestHitGridLaterRegistrationWins(t *testing.T) {
	g := NewHitGrid(4, 4)
	g.Register(NewRect(0, 0, 4, 4), 1, 0)
	g.Register(NewRect(1, 1, 2, 2), 2, 9)
	id, sem, _ := g.Lookup(2, 2)
	if id != 2 || sem != 9 {
		t.Errorf("later registrations win: id=%d sem=%d", id, sem)
	}
	id, _, _ = g.Lookup(0, 0)
	if id != 1 {
		t.Errorf("outer region intact: id=%d", id)
	}
}
