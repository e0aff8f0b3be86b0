// Package ftui provides the resize coalescer.
//
// Inbound resize events arrive bursty (terminal drag, tmux layout
// shuffle). The coalescer delays committing a new size until the stream
// quiesces, without starving under continuous drag: an EWMA of the
// inter-arrival time classifies the stream into regimes, and a BOCPD
// signal flags "settled" earlier than the EWMA alone would. Exactly one
// commit is produced per burst.
package ftui

import "time"

// ResizeRegime classifies the inbound resize stream.
type ResizeRegime uint8

const (
	// RegimeIdle has no pending size.
	RegimeIdle ResizeRegime = iota
	// RegimeBurst is a rapid event stream under debounce.
	RegimeBurst
	// RegimeSustained is a long drag; commits are forced periodically so
	// the user sees continuous feedback.
	RegimeSustained
	// RegimeSettled means the rate has decayed; the next event commits
	// immediately.
	RegimeSettled
)

func (r ResizeRegime) String() string {
	switch r {
	case RegimeIdle:
		return "idle"
	case RegimeBurst:
		return "burst"
	case RegimeSustained:
		return "sustained-drag"
	default:
		return "settled"
	}
}

// Size is a terminal geometry.
type Size struct {
	Cols, Rows int
}

// Coalescer tuning.
const (
	coalesceDebounce    = 50 * time.Millisecond
	coalesceDebounceCap = 200 * time.Millisecond
	coalesceForce       = 150 * time.Millisecond
	coalesceHighRateMs  = 100.0 // inter-arrival under this is "high rate"
	coalesceSettledMs   = 250.0 // inter-arrival above this settles
	coalesceSustainedK  = 25    // high-rate samples before forcing
	coalesceEwmaWeight  = 0.3
	coalesceQueueCap    = 64
)

// ResizeCoalescer turns a bursty resize stream into discrete commits.
type ResizeCoalescer struct {
	regime     ResizeRegime
	pending    Size
	hasPending bool
	pendingN   int

	ewmaMs    float64
	haveEwma  bool
	lastEvent time.Time
	haveLast  bool

	burstStart time.Time
	deadline   time.Time
	lastForce  time.Time
	highCount  int

	eventIdx uint64
	applied  Size
	hasAppl  bool

	bocpd *Bocpd
}

// NewResizeCoalescer creates a coalescer in the idle regime.
func NewResizeCoalescer() *ResizeCoalescer {
	return &ResizeCoalescer{bocpd: NewBocpd()}
}

// Regime returns the current regime.
func (c *ResizeCoalescer) Regime() ResizeRegime {
	return c.regime
}

// Pending returns the uncommitted size, if any.
func (c *ResizeCoalescer) Pending() (Size, bool) {
	return c.pending, c.hasPending
}

// Offer feeds one resize event observed at now. The returned size is
// valid when committed is true, meaning the caller should resize the
// renderer immediately.
func (c *ResizeCoalescer) Offer(size Size, now time.Time) (committed Size, ok bool) {
	c.eventIdx++
	dtMs := 0.0
	var ev BocpdEvidence
	if c.haveLast {
		dtMs = float64(now.Sub(c.lastEvent)) / float64(time.Millisecond)
		if c.haveEwma {
			c.ewmaMs = coalesceEwmaWeight*dtMs + (1-coalesceEwmaWeight)*c.ewmaMs
		} else {
			c.ewmaMs = dtMs
			c.haveEwma = true
		}
		ev = c.bocpd.Observe(dtMs)
	}
	c.lastEvent = now
	c.haveLast = true

	// Only the most-recent size is kept; older pendings past the cap are
	// accounted as overflow drops.
	c.pendingN++
	if c.pendingN > coalesceQueueCap {
		c.pendingN = coalesceQueueCap
		Counters.CoalescerOverflow.Add(1)
	}

	settled := dtMs > coalesceSettledMs ||
		(ev.ChangeProb > 0.5 && dtMs > c.ewmaMs && c.haveEwma)

	if !c.hasPending {
		if settled && c.hasAppl {
			// Rate already decayed: commit without debounce.
			c.regime = RegimeSettled
			c.publish("commit-settled", dtMs, size, ev)
			return c.commit(size, now)
		}
		c.hasPending = true
		c.pending = size
		c.regime = RegimeBurst
		c.burstStart = now
		c.deadline = now.Add(coalesceDebounce)
		c.lastForce = now
		if dtMs == 0 || dtMs >= coalesceHighRateMs {
			// A real gap ends the drag; back-to-back bursts keep their
			// high-rate streak so sustained drags are recognised across
			// forced commits.
			c.highCount = 0
		} else {
			c.highCount++
		}
		c.publish("arm", dtMs, size, ev)
		return Size{}, false
	}

	c.pending = size
	if dtMs > 0 && dtMs < coalesceHighRateMs {
		c.highCount++
	} else {
		c.highCount = 0
	}

	if settled {
		c.regime = RegimeSettled
		c.publish("commit-settled", dtMs, size, ev)
		return c.commit(size, now)
	}

	if c.highCount >= coalesceSustainedK {
		c.regime = RegimeSustained
		if now.Sub(c.lastForce) >= coalesceForce {
			c.publish("commit-forced", dtMs, size, ev)
			return c.commit(size, now)
		}
		c.publish("hold-sustained", dtMs, size, ev)
		return Size{}, false
	}

	// Burst: extend the debounce, capped relative to the burst start.
	c.regime = RegimeBurst
	deadline := now.Add(coalesceDebounce)
	latest := c.burstStart.Add(coalesceDebounceCap)
	if deadline.After(latest) {
		deadline = latest
	}
	c.deadline = deadline
	c.publish("extend", dtMs, size, ev)
	return Size{}, false
}

// Poll checks the debounce and force timers at now. The returned size is
// valid when committed is true.
func (c *ResizeCoalescer) Poll(now time.Time) (committed Size, ok bool) {
	if !c.hasPending {
		return Size{}, false
	}
	if c.regime == RegimeSustained && now.Sub(c.lastForce) >= coalesceForce {
		c.publish("commit-forced", 0, c.pending, BocpdEvidence{})
		return c.commit(c.pending, now)
	}
	if !now.Before(c.deadline) {
		c.publish("commit-quiesced", 0, c.pending, BocpdEvidence{})
		return c.commit(c.pending, now)
	}
	return Size{}, false
}

func (c *ResizeCoalescer) commit(size Size, now time.Time) (Size, bool) {
	c.hasPending = false
	c.pendingN = 0
	c.applied = size
	c.hasAppl = true
	c.lastForce = now
	if c.regime != RegimeSustained {
		c.regime = RegimeIdle
	}
	return size, true
}

func (c *ResizeCoalescer) publish(action string, dtMs float64, size Size, ev BocpdEvidence) {
	rate := 0.0
	if c.ewmaMs > 0 {
		rate = 1000.0 / c.ewmaMs
	}
	snap := ResizeDecisionSnapshot{
		EventIdx:   c.eventIdx,
		Action:     action,
		DtMs:       dtMs,
		EventRate:  rate,
		Regime:     c.regime,
		Bocpd:      ev,
		HasPending: c.hasPending,
	}
	if c.hasPending {
		snap.PendingCols, snap.PendingRows = c.pending.Cols, c.pending.Rows
	}
	if c.hasAppl {
		snap.HasApplied = true
		snap.AppliedCols, snap.AppliedRows = c.applied.Cols, c.applied.Rows
	}
	SetResizeSnapshot(snap)
}
