package ftui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// counterModel is a minimal deterministic model for loop tests.
type counterModel struct {
	count int
	views int
}

func (m *counterModel) Update(ev Event) Cmd {
	switch e := ev.(type) {
	case KeyEvent:
		switch e.Code {
		case KeyUp:
			m.count++
		case KeyDown:
			m.count--
		}
		if e.Rune == 'q' {
			return CmdQuit()
		}
	}
	return CmdNone()
}

func (m *counterModel) View(frame *Frame) {
	m.views++
	frame.Buffer.PrintText(0, 0, "Count:", Cell{Attrs: AttrBold}, frame.Pool)
	frame.Buffer.PrintText(7, 0, itoa(m.count), Cell{}, frame.Pool)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestStepProgramInitRendersFirstFrame(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if m.views != 1 {
		t.Fatalf("init renders exactly one frame, got %d views", m.views)
	}
	if got := p.Committed().ToDebugString(p.Pool()); !strings.Contains(got, "Count: 0") {
		t.Errorf("committed content:\n%s", got)
	}
	if p.FrameIdx() != 1 {
		t.Errorf("frame idx after init: %d", p.FrameIdx())
	}
}

func TestStepProgramOneViewPerStep(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()

	for i := 0; i < 5; i++ {
		p.AdvanceTime(16 * time.Millisecond)
		p.PushEvent(KeyEvent{Code: KeyUp})
		res := p.Step()
		if !res.Rendered {
			t.Fatalf("step %d should render", i)
		}
	}
	if m.views != 6 {
		t.Errorf("exactly one view per rendered tick: %d", m.views)
	}
	if m.count != 5 {
		t.Errorf("events applied in order: %d", m.count)
	}
}

func TestStepProgramFrameIdxStrictlyIncreasing(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()

	last := p.FrameIdx()
	for i := 0; i < 10; i++ {
		p.AdvanceTime(16 * time.Millisecond)
		p.PushEvent(KeyEvent{Code: KeyUp})
		p.Step()
		if p.FrameIdx() <= last {
			t.Fatalf("frame idx must strictly increase: %d -> %d", last, p.FrameIdx())
		}
		last = p.FrameIdx()
	}
}

func TestStepProgramIdleStepDoesNotRender(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()
	p.AdvanceTime(16 * time.Millisecond)
	res := p.Step()
	if res.Rendered {
		t.Error("a step with no events renders nothing")
	}
	if m.views != 1 {
		t.Errorf("idle steps must not call view: %d", m.views)
	}
}

func TestStepProgramQuitAfterFrameCompletes(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()

	p.PushEvent(KeyEvent{Code: KeyChar, Rune: 'q'})
	res := p.Step()
	if res.Running {
		t.Error("quit terminates after the current frame")
	}
	if !res.Rendered {
		t.Error("the final frame still completes")
	}
}

func TestStepProgramResizeCoalesced(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()

	// A burst of resizes inside the debounce window commits once.
	for i := 1; i <= 5; i++ {
		p.AdvanceTime(10 * time.Millisecond)
		p.Resize(20+i, 4)
		p.Step()
	}
	p.AdvanceTime(300 * time.Millisecond)
	p.Step()

	if got := p.Committed().Width(); got != 25 {
		t.Errorf("final geometry should be the newest size, got %d", got)
	}
}

func TestStepProgramDeterministicHashes(t *testing.T) {
	run := func() []uint64 {
		m := &counterModel{}
		p := NewStepProgram(m, 40, 10)
		p.Init()
		var hashes []uint64
		for i := 0; i < 20; i++ {
			p.AdvanceTime(16 * time.Millisecond)
			p.PushEvent(KeyEvent{Code: KeyUp})
			p.Step()
			hashes = append(hashes, HashBuffer(p.Committed(), p.Pool()))
		}
		return hashes
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frame %d diverged between identical runs: %x vs %x", i, a[i], b[i])
		}
	}
	// Consecutive frames differ (the counter is visible).
	if a[0] == a[1] {
		t.Error("distinct content must hash differently")
	}
}

func TestStepProgramOutputs(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()
	out := p.TakeOutputs()
	if !out.HasHash || len(out.PatchHash) != 16 {
		t.Errorf("outputs should carry a %%016x hash: %+v", out)
	}
	if len(out.Bytes) == 0 {
		t.Error("the first frame emits bytes")
	}
	again := p.TakeOutputs()
	if again.Bytes != nil {
		t.Error("outputs are drained on take")
	}
}

func TestProgramWritesToSink(t *testing.T) {
	var sink bytes.Buffer
	m := &counterModel{}
	p := NewProgram(m, ProgramConfig{
		Cols: 20, Rows: 4,
		Clock:  NewManualClock(time.Unix(0, 0)),
		Output: &sink,
	})
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sink.String(), "Count:") {
		t.Errorf("first frame bytes must reach the sink: %q", sink.String())
	}
}

func TestProgramDegenerateResizeIsNoop(t *testing.T) {
	m := &counterModel{}
	p := NewStepProgram(m, 20, 4)
	p.Init()

	before := Counters.GeometryDegenerate.Load()
	p.AdvanceTime(10 * time.Millisecond)
	p.Resize(0, 0)
	p.Step()
	p.AdvanceTime(2 * time.Second)
	p.Step()

	if Counters.GeometryDegenerate.Load() <= before {
		t.Error("a zero-area resize is counted")
	}
	// The loop keeps running.
	p.AdvanceTime(16 * time.Millisecond)
	p.PushEvent(KeyEvent{Code: KeyUp})
	res := p.Step()
	if !res.Running {
		t.Error("degenerate geometry never terminates the loop")
	}
}

// backpressureWriter accepts only a few bytes per call.
type backpressureWriter struct {
	data []byte
}

func (w *backpressureWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 3 {
		n = 3
	}
	w.data = append(w.data, p[:n]...)
	return n, nil
}

func TestProgramShortWritesRetried(t *testing.T) {
	w := &backpressureWriter{}
	m := &counterModel{}
	p := NewProgram(m, ProgramConfig{
		Cols: 10, Rows: 2,
		Clock:  NewManualClock(time.Unix(0, 0)),
		Output: w,
	})
	p.Init()
	if !strings.Contains(string(w.data), "Count:") {
		t.Errorf("short writes must be retried to completion: %q", w.data)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(time.Unix(100, 0))
	c.Advance(time.Second)
	if c.Now() != time.Unix(101, 0) {
		t.Error("advance")
	}
	c.Set(time.Unix(50, 0))
	if c.Now() != time.Unix(50, 0) {
		t.Error("set")
	}
	c.Sleep(time.Second)
	if c.Now() != time.Unix(51, 0) {
		t.Error("sleep advances instead of blocking")
	}
}

func TestEventQueueOrdering(t *testing.T) {
	var q EventQueue
	t0 := time.Unix(0, 0)
	q.Push(t0.Add(2*time.Second), KeyEvent{Rune: 'b'})
	q.Push(t0.Add(1*time.Second), KeyEvent{Rune: 'a'})
	q.Push(t0.Add(2*time.Second), KeyEvent{Rune: 'c'})

	var got []rune
	for {
		ev, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, ev.(KeyEvent).Rune)
	}
	if string(got) != "abc" {
		t.Errorf("events apply in (t, seq) order: %q", string(got))
	}
}
