// Package ftui provides the per-frame latency budget controller.
//
// The controller is a soft-realtime adaptive loop, not a deadline
// scheduler: a PID-style corrective force proposes degradation steps, an
// e-value gates the aggressive ones (a conformal upper bound is computed
// and reported alongside, without gating), and hysteresis plus a warmup window keep the level from oscillating.
package ftui

import "math"

// DegradationLevel is the coarse knob trading visual fidelity for
// latency. Ordered: Full < Reduced < EssentialOnly.
type DegradationLevel uint8

const (
	// DegradationFull renders everything.
	DegradationFull DegradationLevel = iota
	// DegradationReduced drops expensive adornments (rounded borders,
	// gradients).
	DegradationReduced
	// DegradationEssentialOnly renders only required glyphs (a progress
	// bar becomes its percentage digits).
	DegradationEssentialOnly
)

func (d DegradationLevel) String() string {
	switch d {
	case DegradationFull:
		return "full"
	case DegradationReduced:
		return "reduced"
	default:
		return "essential-only"
	}
}

// BudgetDecision is one controller verdict.
type BudgetDecision uint8

const (
	// BudgetHold keeps the current level.
	BudgetHold BudgetDecision = iota
	// BudgetRaise steps degradation up one level.
	BudgetRaise
	// BudgetLower steps degradation down one level.
	BudgetLower
)

func (d BudgetDecision) String() string {
	switch d {
	case BudgetRaise:
		return "raise"
	case BudgetLower:
		return "lower"
	default:
		return "hold"
	}
}

// Controller gains and gates.
const (
	budgetKp = 0.6
	budgetKi = 0.05
	budgetKd = 0.3

	budgetIMax = 200_000.0 // integrator saturation, µs-scale

	// PID output thresholds (µs-scale force).
	budgetHi  = 12_000.0
	budgetMed = 4_000.0
	budgetLo  = 6_000.0

	// e-value process: sub-Gaussian likelihood ratio scale and alarm.
	budgetEScale = 8_000.0
	budgetETau   = 20.0
	budgetEMax   = 1e12

	// Hysteresis and warmup.
	budgetHMin     = 30
	budgetWarmup   = 60
	budgetLookback = 16
)

// ConformalEvidence summarises the conformal gate's inputs for one frame.
type ConformalEvidence struct {
	BucketKey   string
	SampleCount int
	UpperUs     float64
	Risk        bool
}

// BudgetDecisionSnapshot carries both the raw controller decision and the
// hysteresis-gated decision; overlays display both.
type BudgetDecisionSnapshot struct {
	FrameIdx           uint64
	Decision           BudgetDecision // after hysteresis/warmup gating
	ControllerDecision BudgetDecision // raw decision-table output
	DegradationBefore  DegradationLevel
	DegradationAfter   DegradationLevel
	FrameTimeUs        float64
	BudgetUs           float64
	PidOutput          float64
	EValue             float64
	FramesObserved     int
	FramesSinceChange  int
	InWarmup           bool
	Conformal          ConformalEvidence
}

// BudgetController adapts the degradation level so each frame's
// end-to-end service time stays at or under the budget.
type BudgetController struct {
	budgetUs float64

	level             DegradationLevel
	integral          float64
	prevErr           float64
	havePrev          bool
	eValue            float64
	framesObserved    int
	framesSinceChange int
	recentErr         []float64
	conformal         *ConformalPredictor
}

// NewBudgetController creates a controller for a per-frame budget in
// microseconds (16_000 for 60 Hz).
func NewBudgetController(budgetUs float64) *BudgetController {
	return &BudgetController{
		budgetUs:  budgetUs,
		eValue:    1,
		conformal: NewConformalPredictor(),
	}
}

// Level returns the current degradation level.
func (c *BudgetController) Level() DegradationLevel {
	return c.level
}

// BudgetUs returns the configured per-frame budget.
func (c *BudgetController) BudgetUs() float64 {
	return c.budgetUs
}

// InWarmup reports whether the warmup window is still open.
func (c *BudgetController) InWarmup() bool {
	return c.framesObserved < budgetWarmup
}

// ObserveFrame runs one control step from a measured frame time and the
// conformal bucket key, returning the decision snapshot. The returned
// snapshot's DegradationAfter is the level now in force.
func (c *BudgetController) ObserveFrame(frameIdx uint64, frameTimeUs float64, bucketKey string) BudgetDecisionSnapshot {
	e := frameTimeUs - c.budgetUs
	if e > 0 {
		Counters.BudgetExceeded.Add(1)
	}

	// PID force. The integrator saturates so a long overload cannot
	// wind up an unbounded correction.
	c.integral += e
	if c.integral > budgetIMax {
		c.integral = budgetIMax
	} else if c.integral < -budgetIMax {
		c.integral = -budgetIMax
	}
	deriv := 0.0
	if c.havePrev {
		deriv = e - c.prevErr
	}
	u := budgetKp*e + budgetKi*c.integral + budgetKd*deriv
	c.prevErr = e
	c.havePrev = true

	// Conformal upper bound on |e| for this (mode, geometry) bucket.
	upper := c.conformal.Observe(bucketKey, math.Abs(e))
	_, samples := c.conformal.Upper(bucketKey)
	risk := c.updateEValue(e)
	conf := ConformalEvidence{
		BucketKey:   bucketKey,
		SampleCount: samples,
		UpperUs:     upper,
		Risk:        risk,
	}

	// Decision table.
	raw := BudgetHold
	switch {
	case u > budgetHi:
		raw = BudgetRaise
	case u > budgetMed && risk:
		raw = BudgetRaise
	case u < -budgetLo && !risk:
		raw = BudgetLower
	}

	c.pushErr(e)
	c.framesObserved++
	c.framesSinceChange++

	gated := c.gate(raw)
	before := c.level
	switch gated {
	case BudgetRaise:
		if c.level < DegradationEssentialOnly {
			c.level++
			c.framesSinceChange = 0
		} else {
			gated = BudgetHold
		}
	case BudgetLower:
		if c.level > DegradationFull {
			c.level--
			c.framesSinceChange = 0
		} else {
			gated = BudgetHold
		}
	}

	snapshot := BudgetDecisionSnapshot{
		FrameIdx:           frameIdx,
		Decision:           gated,
		ControllerDecision: raw,
		DegradationBefore:  before,
		DegradationAfter:   c.level,
		FrameTimeUs:        frameTimeUs,
		BudgetUs:           c.budgetUs,
		PidOutput:          u,
		EValue:             c.eValue,
		FramesObserved:     c.framesObserved,
		FramesSinceChange:  c.framesSinceChange,
		InWarmup:           c.InWarmup(),
		Conformal:          conf,
	}
	SetBudgetSnapshot(snapshot)
	return snapshot
}

// updateEValue multiplies in the sub-Gaussian likelihood ratio under the
// "we are within budget" null and reports risk when the product crosses
// the alarm threshold.
func (c *BudgetController) updateEValue(e float64) bool {
	// LR for observing error e under N(0, σ²) vs N(σ, σ²) drift.
	z := e / budgetEScale
	lr := math.Exp(z - 0.5)
	c.eValue *= lr
	if c.eValue < 1e-6 {
		c.eValue = 1e-6
	}
	if c.eValue > budgetEMax {
		c.eValue = budgetEMax
	}
	return c.eValue > budgetETau
}

func (c *BudgetController) pushErr(e float64) {
	c.recentErr = append(c.recentErr, e)
	if len(c.recentErr) > budgetLookback {
		c.recentErr = c.recentErr[1:]
	}
}

// gate applies hysteresis and warmup to the raw decision: no change
// unless the minimum dwell has passed and the step is consistent with
// the persistent trend over the look-back window; during warmup only
// raises pass.
func (c *BudgetController) gate(raw BudgetDecision) BudgetDecision {
	if raw == BudgetHold {
		return BudgetHold
	}
	if raw == BudgetLower && c.InWarmup() {
		return BudgetHold
	}
	if c.framesSinceChange < budgetHMin {
		return BudgetHold
	}
	if !c.trendConsistent(raw) {
		return BudgetHold
	}
	return raw
}

// trendConsistent requires the look-back window to lean the same way as
// the proposed step: mostly over budget for a raise, mostly under for a
// lower.
func (c *BudgetController) trendConsistent(d BudgetDecision) bool {
	if len(c.recentErr) < budgetLookback/2 {
		return d == BudgetRaise // early overloads may still escalate
	}
	over := 0
	for _, e := range c.recentErr {
		if e > 0 {
			over++
		}
	}
	frac := float64(over) / float64(len(c.recentErr))
	if d == BudgetRaise {
		return frac >= 0.6
	}
	return frac <= 0.4
}
