// Package ftui provides the Elm-style program loop.
//
// The loop owns one worker that serially drains events, calls update,
// builds a frame, diffs, encodes and writes. There is no intra-frame
// parallelism: widgets run synchronously during view and must not block;
// long work belongs in a Cmd that returns a later event.
package ftui

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"time"
)

// Cmd is the effect returned by Model.Update.
type Cmd struct {
	quit  bool
	fn    func() Event
	batch []Cmd
}

// CmdNone is the empty command.
func CmdNone() Cmd { return Cmd{} }

// CmdQuit terminates the program after the current frame completes;
// there is no mid-frame abort.
func CmdQuit() Cmd { return Cmd{quit: true} }

// CmdPerform runs fn between frames, after the update that returned it
// and before that step's render; its returned event is queued for a
// later step. A nil result queues nothing.
func CmdPerform(fn func() Event) Cmd { return Cmd{fn: fn} }

// CmdBatch combines commands.
func CmdBatch(cmds ...Cmd) Cmd { return Cmd{batch: cmds} }

// Model is the application contract: state plus update and view.
type Model interface {
	// Update applies one event and returns an effect.
	Update(Event) Cmd
	// View populates exactly one frame. Called once per rendered frame;
	// a step with no events, commands or resize does not call it.
	View(*Frame)
}

// ScreenMode selects the terminal surface.
type ScreenMode uint8

const (
	// ScreenAltScreen renders on the alternate screen.
	ScreenAltScreen ScreenMode = iota
	// ScreenInline renders a fixed-height band at the prompt.
	ScreenInline
)

func (m ScreenMode) String() string {
	if m == ScreenInline {
		return "inline"
	}
	return "alt"
}

// ProgramConfig configures the runtime.
type ProgramConfig struct {
	ScreenMode   ScreenMode
	InlineHeight int
	TickRate     time.Duration
	Cols, Rows   int
	Output       io.Writer
	Clock        Clock
	BudgetUs     float64
	HitGrid      bool
}

// defaultedProgramConfig fills the zero values.
func defaultedProgramConfig(c ProgramConfig) ProgramConfig {
	if c.TickRate <= 0 {
		c.TickRate = 16 * time.Millisecond
	}
	if c.Cols <= 0 {
		c.Cols = 80
	}
	if c.Rows <= 0 {
		c.Rows = 24
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.BudgetUs <= 0 {
		c.BudgetUs = 16_000
	}
	return c
}

// backpressureSpins bounds retries of writes that stall or fail before
// the rest of the frame is dropped.
const backpressureSpins = 8

// Program is the single-threaded cooperative runtime core. It is also
// the engine behind StepProgram; all rendering goes through step.
type Program struct {
	model  Model
	config ProgramConfig
	clock  Clock

	queue     EventQueue
	parser    *InputParser
	pool      *GraphemePool
	arena     *Arena
	frame     *Frame
	committed *Buffer
	prevWrit  []bool

	selector  *StrategySelector
	budget    *BudgetController
	coalescer *ResizeCoalescer

	frameIdx uint64
	running  bool
	inited   bool
	dirtyAll bool // next diff cannot trust dirty tracking
	pending  []Cmd
	lastOut  []byte
	lastHash uint64
	hasHash  bool
}

// NewProgram creates a runtime for the model.
func NewProgram(model Model, config ProgramConfig) *Program {
	config = defaultedProgramConfig(config)
	pool := NewGraphemePool()
	arena := NewDefaultArena()
	var frame *Frame
	if config.HitGrid {
		frame = NewFrameWithHitGrid(config.Cols, config.Rows, pool, arena)
	} else {
		frame = NewFrame(config.Cols, config.Rows, pool, arena)
	}
	return &Program{
		model:     model,
		config:    config,
		clock:     config.Clock,
		parser:    NewInputParser(),
		pool:      pool,
		arena:     arena,
		frame:     frame,
		committed: NewBuffer(config.Cols, config.Rows),
		prevWrit:  make([]bool, config.Rows),
		selector:  NewStrategySelector(),
		budget:    NewBudgetController(config.BudgetUs),
		coalescer: NewResizeCoalescer(),
		running:   true,
		dirtyAll:  true,
	}
}

// FrameIdx returns the monotonic frame index (0-based).
func (p *Program) FrameIdx() uint64 { return p.frameIdx }

// Running reports whether the program is still running; it turns false
// once a Quit command has been processed.
func (p *Program) Running() bool { return p.running }

// Pool returns the process grapheme pool.
func (p *Program) Pool() *GraphemePool { return p.pool }

// PushEvent queues an event stamped with the current clock time.
func (p *Program) PushEvent(ev Event) {
	p.queue.Push(p.clock.Now(), ev)
}

// FeedInput parses raw terminal bytes into queued events.
func (p *Program) FeedInput(data []byte) {
	for _, ev := range p.parser.Feed(data) {
		p.PushEvent(ev)
	}
}

// Resize queues a synthetic resize event.
func (p *Program) Resize(cols, rows int) {
	p.PushEvent(ResizeEvent{Cols: cols, Rows: rows})
}

// Init renders the first frame. Call exactly once.
func (p *Program) Init() error {
	if p.inited {
		return fmt.Errorf("program already initialized")
	}
	p.inited = true
	p.render()
	return nil
}

// step drains events, applies update, and renders when anything is
// dirty. Returns whether a frame was rendered.
func (p *Program) step() bool {
	now := p.clock.Now()
	dirty := false

	for {
		ev, ok := p.queue.Pop()
		if !ok {
			break
		}
		if rz, isResize := ev.(ResizeEvent); isResize {
			if size, commit := p.coalescer.Offer(Size{Cols: rz.Cols, Rows: rz.Rows}, now); commit {
				p.applyResize(size)
				dirty = true
			}
			continue
		}
		p.applyCmd(p.model.Update(ev))
		dirty = true
	}

	if size, commit := p.coalescer.Poll(now); commit {
		p.applyResize(size)
		dirty = true
	}

	// Deferred commands run between frames, never inside one.
	if len(p.pending) > 0 {
		cmds := p.pending
		p.pending = nil
		for _, c := range cmds {
			if c.fn != nil {
				if ev := c.fn(); ev != nil {
					p.PushEvent(ev)
				}
			}
		}
		dirty = true
	}

	if !dirty {
		return false
	}
	p.render()
	return true
}

// applyCmd processes one command tree.
func (p *Program) applyCmd(c Cmd) {
	if c.quit {
		p.running = false
	}
	if c.fn != nil {
		p.pending = append(p.pending, c)
	}
	for _, sub := range c.batch {
		p.applyCmd(sub)
	}
}

// applyResize commits a new geometry to the renderer. A zero-area size
// degenerates rendering to a no-op; the loop continues.
func (p *Program) applyResize(size Size) {
	if size.Cols <= 0 || size.Rows <= 0 {
		Counters.GeometryDegenerate.Add(1)
		size.Cols, size.Rows = max(size.Cols, 0), max(size.Rows, 0)
	}
	p.config.Cols, p.config.Rows = size.Cols, size.Rows
	if p.config.HitGrid {
		p.frame = NewFrameWithHitGrid(size.Cols, size.Rows, p.pool, p.arena)
	} else {
		p.frame = NewFrame(size.Cols, size.Rows, p.pool, p.arena)
	}
	p.committed = NewBuffer(size.Cols, size.Rows)
	p.prevWrit = make([]bool, size.Rows)
	p.dirtyAll = true
}

// render runs one view/diff/write pass.
func (p *Program) render() {
	start := p.clock.Now()

	next := p.frame.Buffer
	p.frame.Reset()
	next.FrameIdx = p.frameIdx
	p.frame.SetDegradation(p.budget.Level())

	if !next.IsDegenerate() {
		p.model.View(p.frame)
	}

	// The dirty contract: rows written this frame, plus rows that held
	// content last frame (a vanished row is a change the writes of this
	// frame never touch).
	dirtyRows := p.dirtyUnion(next)

	var (
		result   DiffResult
		strategy DiffStrategy
		evidence StrategyEvidence
		fallback string
	)
	switch {
	case next.Width() != p.committed.Width() || next.Height() != p.committed.Height():
		strategy = StrategyRedraw
		fallback = "dimension mismatch"
		result = Redraw(next, p.pool)
	case p.dirtyAll:
		strategy = StrategyFull
		evidence = StrategyEvidence{Strategy: StrategyFull, Reason: "dirty tracking invalidated"}
		fallback = "dirty tracking invalidated"
		result = DiffFull(p.committed, next, p.pool)
		p.selector.Observe(result.Stats)
	default:
		strategy, evidence = p.selector.Select(next.Width(), next.Height(), len(dirtyRows))
		switch strategy {
		case StrategyDirty:
			result = DiffDirty(p.committed, next, dirtyRows, p.pool)
		case StrategyFull:
			result = DiffFull(p.committed, next, p.pool)
		default:
			result = Redraw(next, p.pool)
		}
		p.selector.Observe(result.Stats)
	}
	p.dirtyAll = false

	p.writeWithRetry(result.Bytes)
	p.lastOut = result.Bytes
	p.lastHash = HashBuffer(next, p.pool)
	p.hasHash = true

	coverage := 0.0
	if result.Stats.Changed > 0 {
		coverage = float64(result.Stats.SpanCount*result.Stats.MaxSpanLen) / float64(result.Stats.Changed)
		if coverage > 1 {
			coverage = 1
		}
	}
	SetDiffSnapshot(DiffDecisionSnapshot{
		EventIdx:       p.frameIdx,
		ScreenMode:     p.config.ScreenMode.String(),
		Cols:           next.Width(),
		Rows:           next.Height(),
		Evidence:       evidence,
		SpanCount:      result.Stats.SpanCount,
		SpanCoverage:   coverage,
		MaxSpanLen:     result.Stats.MaxSpanLen,
		FallbackReason: fallback,
		StrategyUsed:   strategy,
	})

	// Swap: the rendered buffer becomes the committed one and the old
	// committed grid is recycled as the next work buffer.
	old := p.committed
	p.committed = next
	if old.Width() == next.Width() && old.Height() == next.Height() {
		p.frame.Buffer = old
	} else {
		p.frame.Buffer = NewBuffer(next.Width(), next.Height())
	}
	p.rememberWritten(next)

	elapsed := p.clock.Now().Sub(start)
	frameTimeUs := float64(elapsed) / float64(time.Microsecond)
	key := BucketKey(p.config.ScreenMode.String(), next.Width(), next.Height())
	snap := p.budget.ObserveFrame(p.frameIdx, frameTimeUs, key)
	p.selector.SetConservative(snap.DegradationAfter > DegradationFull)

	p.frameIdx++
}

// dirtyUnion merges this frame's written rows with last frame's.
func (p *Program) dirtyUnion(next *Buffer) []int {
	if len(p.prevWrit) != next.Height() {
		p.prevWrit = make([]bool, next.Height())
	}
	var rows []int
	for y := 0; y < next.Height(); y++ {
		if next.RowDirty(y) || p.prevWrit[y] {
			rows = append(rows, y)
		}
	}
	return rows
}

// rememberWritten snapshots which rows the frame touched.
func (p *Program) rememberWritten(b *Buffer) {
	if len(p.prevWrit) != b.Height() {
		p.prevWrit = make([]bool, b.Height())
	}
	for y := 0; y < b.Height(); y++ {
		p.prevWrit[y] = b.RowDirty(y)
	}
}

// writeWithRetry pushes bytes to the sink, retrying short writes while
// the sink keeps accepting bytes; a write that stalls or fails is retried
// at most backpressureSpins times, then the rest is dropped. Persistent
// backpressure is absorbed into a counter and the budget controller sees
// the stall through the frame time.
func (p *Program) writeWithRetry(data []byte) {
	for spins := 0; len(data) > 0 && spins <= backpressureSpins; {
		n, err := p.config.Output.Write(data)
		data = data[n:]
		if len(data) == 0 {
			return
		}
		Counters.EncoderBackpressure.Add(1)
		if n == 0 || err != nil {
			spins++
		}
	}
}

// Run drives the loop against the real clock until a Quit command.
// Input bytes are pumped by the caller through FeedInput; Run starts no
// input reader of its own.
func (p *Program) Run() error {
	defer p.teardown()
	if !p.inited {
		if err := p.Init(); err != nil {
			return err
		}
	}
	for p.running {
		p.queue.Push(p.clock.Now(), TickEvent{At: p.clock.Now()})
		p.step()
		p.clock.Sleep(p.config.TickRate)
	}
	return nil
}

// teardown reports fatal exits as a single stderr line with run context.
func (p *Program) teardown() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "ftui: fatal: %v (frame %d)\n", r, p.frameIdx)
		panic(r)
	}
}

// HashBuffer computes the FNV-1a hash of a buffer's visible state.
func HashBuffer(b *Buffer, pool *GraphemePool) uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	writeU32 := func(v uint32) {
		scratch[0] = byte(v)
		scratch[1] = byte(v >> 8)
		scratch[2] = byte(v >> 16)
		scratch[3] = byte(v >> 24)
		h.Write(scratch[:4])
	}
	writeU32(uint32(b.Width()))
	writeU32(uint32(b.Height()))
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			c := b.cellAt(x, y)
			switch {
			case c.Content.IsContinuation():
				h.Write([]byte{0xfe})
			case c.Content.IsEmpty():
				h.Write([]byte{0x00})
			case c.Content.IsGrapheme():
				ref, _ := c.Content.Grapheme()
				s, _ := pool.Lookup(ref)
				h.Write([]byte(s))
			default:
				r, _ := c.Content.Rune()
				writeU32(uint32(r))
			}
			h.Write([]byte{byte(c.Attrs), byte(c.FG.Kind), c.FG.Index, c.FG.R, c.FG.G, c.FG.B,
				byte(c.BG.Kind), c.BG.Index, c.BG.R, c.BG.G, c.BG.B})
		}
	}
	return h.Sum64()
}

// StepResult is one StepProgram advance.
type StepResult struct {
	Rendered bool
	Running  bool
}

// StepOutputs holds the output of the most recent rendered frame; bytes
// of earlier frames that were not taken before it are not included.
type StepOutputs struct {
	Bytes     []byte // escape stream of the most recent rendered frame
	PatchHash string // FNV-1a hash of the rendered buffer, %016x
	HasHash   bool
	FrameIdx  uint64
}

// StepProgram exposes single-step semantics over a Program with a
// deterministic clock, flattening one frame's patches for an
// out-of-process consumer.
type StepProgram struct {
	program *Program
	clock   *ManualClock
}

// NewStepProgram creates a stepwise runtime at the given geometry.
func NewStepProgram(model Model, cols, rows int) *StepProgram {
	clock := NewManualClock(time.Unix(0, 0))
	program := NewProgram(model, ProgramConfig{
		Cols:   cols,
		Rows:   rows,
		Clock:  clock,
		Output: io.Discard,
	})
	return &StepProgram{program: program, clock: clock}
}

// Init renders the first frame. Call exactly once.
func (s *StepProgram) Init() error {
	return s.program.Init()
}

// AdvanceTime moves the deterministic clock forward.
func (s *StepProgram) AdvanceTime(dt time.Duration) {
	s.clock.Advance(dt)
}

// SetTime moves the deterministic clock to an absolute instant.
func (s *StepProgram) SetTime(t time.Time) {
	s.clock.Set(t)
}

// PushEvent queues an event at the current deterministic time.
func (s *StepProgram) PushEvent(ev Event) {
	s.program.PushEvent(ev)
}

// Resize queues a resize event processed on the next step.
func (s *StepProgram) Resize(cols, rows int) {
	s.program.Resize(cols, rows)
}

// Step processes pending events and renders if dirty.
func (s *StepProgram) Step() StepResult {
	rendered := s.program.step()
	return StepResult{Rendered: rendered, Running: s.program.running}
}

// FrameIdx returns the monotonic frame index.
func (s *StepProgram) FrameIdx() uint64 {
	return s.program.frameIdx
}

// IsRunning reports whether the program is still running; it turns
// false once a Quit command has been processed.
func (s *StepProgram) IsRunning() bool {
	return s.program.running
}

// Committed returns the last committed buffer, for inspection.
func (s *StepProgram) Committed() *Buffer {
	return s.program.committed
}

// Pool returns the grapheme pool backing committed content.
func (s *StepProgram) Pool() *GraphemePool {
	return s.program.pool
}

// TakeOutputs returns the most recent frame's byte stream and hash and
// clears the byte stream; the hash stays until the next frame replaces it.
func (s *StepProgram) TakeOutputs() StepOutputs {
	out := StepOutputs{
		Bytes:    s.program.lastOut,
		FrameIdx: s.program.frameIdx,
	}
	if s.program.hasHash {
		out.PatchHash = fmt.Sprintf("%016x", s.program.lastHash)
		out.HasHash = true
	}
	s.program.lastOut = nil
	return out
}
