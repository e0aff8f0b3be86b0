// Package ftui provides evidence telemetry snapshots for explainability
// overlays.
//
// These are process-wide single-slot stores with a low-overhead, in-memory
// view of the most recent diff, resize and budget decisions, so overlay
// screens can render cockpit views without parsing JSONL logs. Writers
// replace the slot atomically; readers take a stable copy. Together with
// the error Counters they are the only globals; all other state is owned
// by the program.
package ftui

import "sync"

// DiffDecisionSnapshot is the most recent diff-strategy decision.
type DiffDecisionSnapshot struct {
	EventIdx       uint64
	ScreenMode     string
	Cols, Rows     int
	Evidence       StrategyEvidence
	SpanCount      int
	SpanCoverage   float64 // fraction of changed cells covered by spans
	MaxSpanLen     int
	FallbackReason string
	StrategyUsed   DiffStrategy
}

// ResizeDecisionSnapshot is the most recent resize/coalescer decision.
type ResizeDecisionSnapshot struct {
	EventIdx    uint64
	Action      string
	DtMs        float64
	EventRate   float64
	Regime      ResizeRegime
	PendingCols int
	PendingRows int
	HasPending  bool
	AppliedCols int
	AppliedRows int
	HasApplied  bool
	Bocpd       BocpdEvidence
}

type snapshotSlot[T any] struct {
	mu  sync.RWMutex
	val T
	set bool
}

func (s *snapshotSlot[T]) store(v T) {
	s.mu.Lock()
	s.val = v
	s.set = true
	s.mu.Unlock()
}

func (s *snapshotSlot[T]) load() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val, s.set
}

func (s *snapshotSlot[T]) clear() {
	var zero T
	s.mu.Lock()
	s.val = zero
	s.set = false
	s.mu.Unlock()
}

var (
	diffSlot   snapshotSlot[DiffDecisionSnapshot]
	resizeSlot snapshotSlot[ResizeDecisionSnapshot]
	budgetSlot snapshotSlot[BudgetDecisionSnapshot]
	voiSlot    snapshotSlot[VoiSamplerSnapshot]
)

// SetDiffSnapshot stores the latest diff decision snapshot.
func SetDiffSnapshot(s DiffDecisionSnapshot) { diffSlot.store(s) }

// DiffSnapshot fetches the latest diff decision snapshot.
func DiffSnapshot() (DiffDecisionSnapshot, bool) { return diffSlot.load() }

// ClearDiffSnapshot removes any stored diff snapshot.
func ClearDiffSnapshot() { diffSlot.clear() }

// SetResizeSnapshot stores the latest resize decision snapshot.
func SetResizeSnapshot(s ResizeDecisionSnapshot) { resizeSlot.store(s) }

// ResizeSnapshot fetches the latest resize decision snapshot.
func ResizeSnapshot() (ResizeDecisionSnapshot, bool) { return resizeSlot.load() }

// ClearResizeSnapshot removes any stored resize snapshot.
func ClearResizeSnapshot() { resizeSlot.clear() }

// SetBudgetSnapshot stores the latest budget decision snapshot.
func SetBudgetSnapshot(s BudgetDecisionSnapshot) { budgetSlot.store(s) }

// BudgetSnapshot fetches the latest budget decision snapshot.
func BudgetSnapshot() (BudgetDecisionSnapshot, bool) { return budgetSlot.load() }

// ClearBudgetSnapshot removes any stored budget snapshot.
func ClearBudgetSnapshot() { budgetSlot.clear() }

// SetVoiSnapshot stores the latest VOI sampler snapshot.
func SetVoiSnapshot(s VoiSamplerSnapshot) { voiSlot.store(s) }

// VoiSnapshot fetches the latest VOI sampler snapshot.
func VoiSnapshot() (VoiSamplerSnapshot, bool) { return voiSlot.load() }

// ClearVoiSnapshot removes any stored VOI snapshot.
func ClearVoiSnapshot() { voiSlot.clear() }
