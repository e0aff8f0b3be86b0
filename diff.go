// Package ftui provides the buffer diff engine.
//
// Given prev and next buffers of identical dimensions, each strategy
// produces the byte stream that brings a terminal showing prev into
// agreement with next. Cell equality is the sole basis for diffing.
package ftui

// DiffStats reports what a diff pass actually did, for the strategy
// selector's posterior update and for evidence overlays.
type DiffStats struct {
	Scanned    int // cells compared
	Changed    int // cells that differed
	SpanCount  int // emitted runs
	MaxSpanLen int // longest emitted run, in cells
	RowsSkip   int // rows skipped by the equality fast path
}

// DiffResult is the outcome of one diff pass.
type DiffResult struct {
	Bytes []byte
	Stats DiffStats
}

// DiffFull scans every row, skipping unchanged rows via the row-equality
// fast path, and coalesces adjacent changed cells into single
// cursor-move + styled-text emissions.
func DiffFull(prev, next *Buffer, pool *GraphemePool) DiffResult {
	if prev.Width() != next.Width() || prev.Height() != next.Height() {
		return Redraw(next, pool)
	}
	enc := NewEncoder()
	stats := DiffStats{}
	for y := 0; y < next.Height(); y++ {
		if prev.RowEqual(next, y) {
			stats.RowsSkip++
			continue
		}
		diffRow(prev, next, y, enc, pool, &stats)
	}
	enc.Finish()
	return DiffResult{Bytes: enc.Bytes(), Stats: stats}
}

// DiffDirty scans only the rows in dirty (caller contract: the dirty set
// is a superset of changed rows). Otherwise identical to DiffFull.
func DiffDirty(prev, next *Buffer, dirty []int, pool *GraphemePool) DiffResult {
	if prev.Width() != next.Width() || prev.Height() != next.Height() {
		return Redraw(next, pool)
	}
	enc := NewEncoder()
	stats := DiffStats{}
	for _, y := range dirty {
		if y < 0 || y >= next.Height() {
			continue
		}
		diffRow(prev, next, y, enc, pool, &stats)
	}
	enc.Finish()
	return DiffResult{Bytes: enc.Bytes(), Stats: stats}
}

// Redraw emits a clear screen followed by every cell. Also the fallback
// when dimensions differ.
func Redraw(next *Buffer, pool *GraphemePool) DiffResult {
	enc := NewEncoder()
	enc.WriteRaw(ClearScreen())
	stats := DiffStats{}
	for y := 0; y < next.Height(); y++ {
		enc.MoveTo(0, y)
		span := 0
		for x := 0; x < next.Width(); x++ {
			c := next.cellAt(x, y)
			enc.PutCell(c, pool)
			if !c.Content.IsContinuation() {
				span++
			}
		}
		stats.Changed += next.Width()
		stats.SpanCount++
		if span > stats.MaxSpanLen {
			stats.MaxSpanLen = span
		}
	}
	stats.Scanned = next.Width() * next.Height()
	enc.Finish()
	return DiffResult{Bytes: enc.Bytes(), Stats: stats}
}

// diffRow walks one row, emitting coalesced runs of changed cells.
//
// Wide pairs are treated as a unit: if either half differs the origin is
// re-emitted, which covers both columns.
func diffRow(prev, next *Buffer, y int, enc *Encoder, pool *GraphemePool, stats *DiffStats) {
	width := next.Width()
	inSpan := false
	span := 0
	for x := 0; x < width; x++ {
		pc := prev.cellAt(x, y)
		nc := next.cellAt(x, y)
		stats.Scanned++
		if pc.Equal(nc) {
			// A continuation inside an active span stays covered by its
			// origin's emission; anything else ends the span.
			if !(inSpan && nc.Content.IsContinuation()) {
				if inSpan {
					stats.SpanCount++
					if span > stats.MaxSpanLen {
						stats.MaxSpanLen = span
					}
					inSpan = false
					span = 0
				}
			}
			continue
		}
		stats.Changed++
		if nc.Content.IsContinuation() {
			// The pair's origin differs too (no write splits a pair);
			// it was or will be emitted at its own column.
			if !inSpan {
				origin := next.cellAt(x-1, y)
				if origin.IsWide() {
					enc.MoveTo(x-1, y)
					enc.PutCell(origin, pool)
					inSpan = true
					span = 1
				}
			}
			continue
		}
		if !inSpan {
			enc.MoveTo(x, y)
			inSpan = true
			span = 0
		}
		enc.PutCell(nc, pool)
		span++
	}
	if inSpan {
		stats.SpanCount++
		if span > stats.MaxSpanLen {
			stats.MaxSpanLen = span
		}
	}
}
