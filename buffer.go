// Package ftui provides the cell grid that frames render into.
// This is the core data structure for diffing.
package ftui

import "strings"

// Buffer is a fixed-size 2D grid of cells representing the terminal screen,
// plus the degradation level widgets branch on and a monotonically
// non-decreasing frame index.
//
// Addressing beyond bounds is a no-op on write and reports absent on read.
// A wide (2-column) cell occupies its origin column and leaves a
// continuation marker in the next column; no write may split the pair.
type Buffer struct {
	width, height int
	cells         []Cell
	dirty         []bool
	Degradation   DegradationLevel
	FrameIdx      uint64
}

// NewBuffer creates a buffer filled with empty cells. Zero or negative
// dimensions yield a degenerate buffer on which every operation is a no-op.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		dirty:  make([]bool, height),
	}
}

func (b *Buffer) index(x, y int) int {
	return y*b.width + x
}

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

// IsDegenerate reports a zero-area buffer. Rendering into one is a no-op
// and the loop continues (GeometryDegenerate handling).
func (b *Buffer) IsDegenerate() bool {
	return b.width == 0 || b.height == 0
}

// Get returns the cell at (x, y). The second return value is false when
// the address is out of bounds.
func (b *Buffer) Get(x, y int) (Cell, bool) {
	if !b.inBounds(x, y) {
		return Cell{}, false
	}
	return b.cells[b.index(x, y)], true
}

// cellAt returns the cell at (x, y) or EmptyCell out of bounds.
func (b *Buffer) cellAt(x, y int) Cell {
	if !b.inBounds(x, y) {
		return EmptyCell
	}
	return b.cells[b.index(x, y)]
}

// Set writes the cell at (x, y). Out-of-bounds writes are silent no-ops.
//
// Wide-cell discipline: writing a wide cell also writes its continuation;
// a wide cell whose continuation would cross the right edge writes nothing.
// Overwriting either half of an existing wide pair clears the other half
// to empty so no split pair survives.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	if c.IsWide() {
		if x+1 >= b.width {
			return
		}
		b.clearWideAt(x, y)
		b.clearWideAt(x+1, y)
		b.cells[b.index(x, y)] = c
		cont := WideContinuation
		cont.FG, cont.BG, cont.Attrs, cont.Hyperlink = c.FG, c.BG, c.Attrs, c.Hyperlink
		b.cells[b.index(x+1, y)] = cont
		b.markDirty(y)
		return
	}
	b.clearWideAt(x, y)
	b.cells[b.index(x, y)] = c
	b.markDirty(y)
}

// clearWideAt repairs the partner of a wide pair before (x, y) is
// overwritten, so a continuation never survives without its origin nor an
// origin without its continuation.
func (b *Buffer) clearWideAt(x, y int) {
	existing := b.cells[b.index(x, y)]
	if existing.Content.IsContinuation() && x > 0 {
		origin := &b.cells[b.index(x-1, y)]
		if origin.IsWide() {
			*origin = EmptyCell
		}
	} else if existing.IsWide() && x+1 < b.width {
		cont := &b.cells[b.index(x+1, y)]
		if cont.Content.IsContinuation() {
			*cont = EmptyCell
		}
	}
}

// Fill sets every cell in the intersection of rect and the buffer.
func (b *Buffer) Fill(rect Rect, c Cell) {
	area, ok := rect.Intersection(RectFromSize(b.width, b.height))
	if !ok {
		return
	}
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			b.Set(x, y, c)
		}
	}
}

// Clear resets every cell to empty and clears the dirty set.
func (b *Buffer) Clear() {
	for i := range b.cells {
		b.cells[i] = EmptyCell
	}
	for i := range b.dirty {
		b.dirty[i] = false
	}
}

// DrawHorizontalLine draws width cells to the right from (x, y).
func (b *Buffer) DrawHorizontalLine(x, y, width int, c Cell) {
	for i := 0; i < width; i++ {
		b.Set(x+i, y, c)
	}
}

// DrawVerticalLine draws height cells downward from (x, y).
func (b *Buffer) DrawVerticalLine(x, y, height int, c Cell) {
	for i := 0; i < height; i++ {
		b.Set(x, y+i, c)
	}
}

// DrawRectOutline draws a border: top row always, bottom row if h >= 2,
// side columns when there are interior rows to connect.
func (b *Buffer) DrawRectOutline(rect Rect, c Cell) {
	if rect.IsEmpty() {
		return
	}
	b.DrawHorizontalLine(rect.X, rect.Y, rect.Width, c)
	if rect.Height > 1 {
		b.DrawHorizontalLine(rect.X, rect.Bottom()-1, rect.Width, c)
	}
	if rect.Height > 2 {
		b.DrawVerticalLine(rect.X, rect.Y+1, rect.Height-2, c)
		if rect.Width > 1 {
			b.DrawVerticalLine(rect.Right()-1, rect.Y+1, rect.Height-2, c)
		}
	}
}

// PrintText writes a string starting at (x, y), going right, styled by
// base. Graphemes are iterated in source order; each is assigned a display
// column width (ASCII 1, East-Asian wide 2); zero-width combining marks
// fold into the previous cell's content via the grapheme pool. Anything
// exceeding the right edge is clipped. Returns columns advanced.
func (b *Buffer) PrintText(x, y int, text string, base Cell, pool *GraphemePool) int {
	if y < 0 || y >= b.height {
		return 0
	}
	col := x
	lastCol := -1
	tokens := splitClusters(text)
	for _, cluster := range tokens {
		w := clusterDisplayWidth(cluster)
		if w == 0 {
			// Fold combining marks into the previous cell.
			if lastCol >= 0 && pool != nil {
				b.foldCombining(lastCol, y, cluster, pool)
			}
			continue
		}
		if col >= b.width {
			break
		}
		if col < 0 {
			col += w
			continue
		}
		c := base
		c.Content = clusterContent(cluster, w, pool)
		if w == 2 && col+1 >= b.width {
			// A wide cell whose second column would cross the edge
			// writes nothing at this position.
			col += w
			continue
		}
		b.Set(col, y, c)
		lastCol = col
		col += w
	}
	return col - x
}

// foldCombining appends a zero-width cluster to the content at (x, y).
func (b *Buffer) foldCombining(x, y int, mark string, pool *GraphemePool) {
	cell := b.cellAt(x, y)
	var baseStr string
	switch {
	case cell.Content.IsGrapheme():
		ref, _ := cell.Content.Grapheme()
		baseStr, _ = pool.Lookup(ref)
	default:
		if r, ok := cell.Content.Rune(); ok {
			baseStr = string(r)
		} else {
			baseStr = " "
		}
	}
	combined := baseStr + mark
	width := cell.Content.Width()
	if width == 0 {
		width = 1
	}
	cell.Content = GraphemeContent(pool.Intern(combined), width)
	b.cells[b.index(x, y)] = cell
	b.markDirty(y)
}

// clusterContent builds the content for one cluster.
func clusterContent(cluster string, width int, pool *GraphemePool) CellContent {
	runes := []rune(cluster)
	if len(runes) == 1 {
		return RuneContent(runes[0], width)
	}
	if pool == nil {
		// No pool: degrade to the base scalar.
		return RuneContent(runes[0], width)
	}
	return GraphemeContent(pool.Intern(cluster), width)
}

// splitClusters segments text into grapheme clusters.
func splitClusters(text string) []string {
	return SplitGraphemes(text)
}

// MarkDirty flags a row as potentially changed. The dirty set is the
// caller contract for the dirty-row diff strategy: dirty ⊇ changed.
func (b *Buffer) MarkDirty(y int) {
	b.markDirty(y)
}

func (b *Buffer) markDirty(y int) {
	if y >= 0 && y < len(b.dirty) {
		b.dirty[y] = true
	}
}

// MarkAllDirty flags every row.
func (b *Buffer) MarkAllDirty() {
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

// ClearDirty resets the dirty set.
func (b *Buffer) ClearDirty() {
	for i := range b.dirty {
		b.dirty[i] = false
	}
}

// DirtyRows returns the indices of dirty rows in ascending order.
func (b *Buffer) DirtyRows() []int {
	var rows []int
	for y, d := range b.dirty {
		if d {
			rows = append(rows, y)
		}
	}
	return rows
}

// RowDirty reports whether a row is flagged.
func (b *Buffer) RowDirty(y int) bool {
	return y >= 0 && y < len(b.dirty) && b.dirty[y]
}

// RowEqual compares one row against the same row of another buffer.
// This is the byte-level fast path the full diff uses to skip rows.
func (b *Buffer) RowEqual(other *Buffer, y int) bool {
	if b.width != other.width || y < 0 || y >= b.height || y >= other.height {
		return false
	}
	start := y * b.width
	rowA := b.cells[start : start+b.width]
	rowB := other.cells[start : start+b.width]
	for i := range rowA {
		if !rowA[i].Equal(rowB[i]) {
			return false
		}
	}
	return true
}

// Row returns the cells of a row, or nil out of bounds.
func (b *Buffer) Row(y int) []Cell {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.width
	return b.cells[start : start+b.width]
}

// ToDebugString returns a characters-only rendering for tests.
func (b *Buffer) ToDebugString(pool *GraphemePool) string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := 0; x < b.width; x++ {
			c := b.cellAt(x, y)
			switch {
			case c.Content.IsContinuation():
				// covered by the wide origin
			case c.Content.IsEmpty():
				sb.WriteRune(' ')
			case c.Content.IsGrapheme():
				ref, _ := c.Content.Grapheme()
				if pool != nil {
					s, _ := pool.Lookup(ref)
					sb.WriteString(s)
				}
			default:
				r, _ := c.Content.Rune()
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
