// Package ftui provides geometric primitives for layout bounds,
// scissor regions and hit testing.
package ftui

// Rect is a rectangle in 0-indexed cell coordinates, origin at top-left.
// Edges are plain int sums (X+Width, Y+Height); no saturation is applied.
type Rect struct {
	X, Y          int
	Width, Height int
}

// NewRect creates a new rectangle. Negative dimensions are clamped to zero.
func NewRect(x, y, width, height int) Rect {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromSize creates a rectangle at the origin with the given size.
func RectFromSize(width, height int) Rect {
	return NewRect(0, 0, width, height)
}

// Right returns the exclusive right edge.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Area returns the area in cells.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// IsEmpty returns true if either dimension is zero.
func (r Rect) IsEmpty() bool {
	return r.Width == 0 || r.Height == 0
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersection computes the overlap with another rectangle.
// The second return value is false when the rectangles don't overlap.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	right := min(r.Right(), other.Right())
	bottom := min(r.Bottom(), other.Bottom())

	if x < right && y < bottom {
		return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}, true
	}
	return Rect{}, false
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(other Rect) Rect {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	right := max(r.Right(), other.Right())
	bottom := max(r.Bottom(), other.Bottom())

	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Inner returns a rectangle inside the current one with the given margin.
// Margins larger than the rectangle produce an empty result.
func (r Rect) Inner(margin Sides) Rect {
	width := r.Width - margin.Left - margin.Right
	if width < 0 {
		width = 0
	}
	height := r.Height - margin.Top - margin.Bottom
	if height < 0 {
		height = 0
	}
	return Rect{
		X:      r.X + margin.Left,
		Y:      r.Y + margin.Top,
		Width:  width,
		Height: height,
	}
}

// Sides holds per-edge padding or margin values.
type Sides struct {
	Top, Right, Bottom, Left int
}

// SidesAll creates Sides with the same value on every edge.
func SidesAll(v int) Sides {
	return Sides{Top: v, Right: v, Bottom: v, Left: v}
}
