// Command mermaid-harness runs the deterministic diagram showcase used
// by the end-to-end tests. With a fixed seed the frame hash sequence is
// byte-identical between runs.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	ftui "github.com/quillio/ftui"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "mermaid-harness: panic: %v\n", r)
			code = 1
		}
	}()

	var (
		harness     = flag.Bool("mermaid-harness", false, "run the deterministic mermaid harness")
		tickMs      = flag.Uint64("mermaid-tick-ms", 100, "tick interval in milliseconds")
		cols        = flag.Uint("mermaid-cols", 120, "terminal columns")
		rows        = flag.Uint("mermaid-rows", 40, "terminal rows")
		seed        = flag.Uint64("mermaid-seed", 0, "deterministic seed")
		jsonlPath   = flag.String("mermaid-jsonl", "", "JSONL destination (path or -)")
		runID       = flag.String("mermaid-run-id", "mermaid", "run identifier for log lines")
		exitAfterMs = flag.Uint64("exit-after-ms", 30000, "terminate after this many milliseconds")
	)
	flag.Parse()

	if env := os.Getenv("E2E_SEED"); env != "" && *seed == 0 {
		if v, err := strconv.ParseUint(env, 10, 64); err == nil {
			*seed = v
		}
	}

	if !*harness {
		fmt.Fprintln(os.Stderr, "mermaid-harness: pass --mermaid-harness to run")
		return 2
	}

	var sink io.Writer
	switch *jsonlPath {
	case "", "-":
		sink = os.Stderr
	default:
		f, err := os.Create(*jsonlPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mermaid-harness: open jsonl: %v\n", err)
			return 1
		}
		defer f.Close()
		sink = f
	}

	logger := ftui.NewJsonlLogger(*runID).WithOutput(sink).WithSeed(*seed)

	model := newShowcaseModel(*seed)
	program := ftui.NewStepProgram(model, int(*cols), int(*rows))
	if err := program.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "mermaid-harness: init: %v\n", err)
		return 1
	}

	logger.Log("mermaid_harness_start",
		ftui.FUint("cols", uint64(*cols)),
		ftui.FUint("rows", uint64(*rows)),
		ftui.FUint("tick_ms", *tickMs),
		ftui.FUint("exit_after_ms", *exitAfterMs),
	)

	tick := time.Duration(*tickMs) * time.Millisecond
	deadline := time.Duration(*exitAfterMs) * time.Millisecond

	sampleIdx := uint64(0)
	for elapsed := time.Duration(0); elapsed < deadline; elapsed += tick {
		program.AdvanceTime(tick)
		program.PushEvent(ftui.TickEvent{})
		result := program.Step()
		if !result.Rendered {
			continue
		}
		out := program.TakeOutputs()
		hash := ftui.HashBuffer(program.Committed(), program.Pool())
		logger.Log("mermaid_frame",
			ftui.FUint("frame", out.FrameIdx-1),
			ftui.FUint("hash", hash),
			ftui.FUint("sample_idx", sampleIdx),
		)
		if sampleIdx%10 == 0 {
			logMegaRecompute(logger, model, sampleIdx, elapsed, int(*cols), int(*rows))
		}
		sampleIdx++
		if !result.Running {
			break
		}
	}

	logger.Log("mermaid_harness_done", ftui.FUint("frames", sampleIdx))
	return 0
}

// logMegaRecompute emits the full recompute telemetry record for one
// sample of the showcase pipeline.
func logMegaRecompute(logger *ftui.JsonlLogger, m *showcaseModel, sample uint64, elapsed time.Duration, cols, rows int) {
	metrics := m.layoutMetrics()
	logger.Log("mermaid_mega_recompute",
		ftui.FUint("timestamp", uint64(elapsed/time.Millisecond)),
		ftui.F("screen_mode", "alt"),
		ftui.FUint("sample", sample),
		ftui.F("diagram_type", metrics.diagramType),
		ftui.F("layout_mode", "layered"),
		ftui.F("tier", metrics.tier),
		ftui.F("glyph_mode", "unicode"),
		ftui.F("wrap_mode", "word"),
		ftui.F("render_mode", "cells"),
		ftui.F("palette", "default"),
		ftui.FBool("styles_enabled", true),
		ftui.FBool("comparison_enabled", false),
		ftui.F("comparison_layout_mode", "none"),
		ftui.FInt("viewport_cols", int64(cols)),
		ftui.FInt("viewport_rows", int64(rows)),
		ftui.FInt("render_cols", int64(cols)),
		ftui.FInt("render_rows", int64(rows)),
		ftui.FFloat("zoom", 1.0),
		ftui.FInt("pan_x", 0),
		ftui.FInt("pan_y", 0),
		ftui.FUint("analysis_epoch", metrics.epoch),
		ftui.FUint("layout_epoch", metrics.epoch),
		ftui.FUint("render_epoch", metrics.epoch),
		ftui.FBool("analysis_ran", true),
		ftui.FBool("layout_ran", true),
		ftui.FBool("render_ran", true),
		ftui.FUint("cache_hits", metrics.cacheHits),
		ftui.FUint("cache_misses", metrics.cacheMisses),
		ftui.FBool("cache_hit", metrics.cacheHits > 0),
		ftui.FUint("debounce_skips", 0),
		ftui.FBool("layout_budget_exceeded", false),
		ftui.FFloat("parse_ms", metrics.parseMs),
		ftui.FFloat("layout_ms", metrics.layoutMs),
		ftui.FFloat("render_ms", metrics.renderMs),
		ftui.FInt("node_count", int64(metrics.nodes)),
		ftui.FInt("edge_count", int64(metrics.edges)),
		ftui.FInt("error_count", 0),
		ftui.FInt("layout_iterations", int64(metrics.iterations)),
		ftui.FInt("layout_iterations_max", 64),
		ftui.FBool("layout_budget_exceeded_layout", false),
		ftui.FInt("layout_crossings", int64(metrics.crossings)),
		ftui.FInt("layout_ranks", int64(metrics.ranks)),
		ftui.FInt("layout_max_rank_width", int64(metrics.maxRankWidth)),
		ftui.FInt("layout_total_bends", int64(metrics.bends)),
		ftui.FFloat("layout_position_variance", metrics.posVariance),
	)
}

// diagramNode is one box in the showcase graph.
type diagramNode struct {
	label string
	rank  int
	slot  int
}

// showcaseModel renders a deterministic layered-diagram scene. All
// animation derives from the seed and tick count, never the wall clock.
type showcaseModel struct {
	seed  uint64
	tick  uint64
	nodes []diagramNode
	edges [][2]int
	epoch uint64
	hits  uint64
	miss  uint64
}

type showcaseMetrics struct {
	diagramType  string
	tier         string
	epoch        uint64
	cacheHits    uint64
	cacheMisses  uint64
	parseMs      float64
	layoutMs     float64
	renderMs     float64
	nodes        int
	edges        int
	iterations   int
	crossings    int
	ranks        int
	maxRankWidth int
	bends        int
	posVariance  float64
}

func newShowcaseModel(seed uint64) *showcaseModel {
	rng := rand.New(rand.NewSource(int64(seed)))
	labels := []string{
		"parse", "analyze", "rank", "order", "place", "route",
		"style", "emit", "verify", "report",
	}
	m := &showcaseModel{seed: seed}
	ranks := 3 + rng.Intn(3)
	for i, label := range labels {
		m.nodes = append(m.nodes, diagramNode{
			label: label,
			rank:  i % ranks,
			slot:  i / ranks,
		})
	}
	for i := 1; i < len(m.nodes); i++ {
		m.edges = append(m.edges, [2]int{rng.Intn(i), i})
	}
	return m
}

func (m *showcaseModel) Update(ev ftui.Event) ftui.Cmd {
	switch e := ev.(type) {
	case ftui.TickEvent:
		m.tick++
		if m.tick%7 == 0 {
			m.epoch++
			m.miss++
		} else {
			m.hits++
		}
	case ftui.KeyEvent:
		if e.Rune == 'q' || (e.Rune == 'c' && e.Modifiers.Has(ftui.ModCtrl)) {
			return ftui.CmdQuit()
		}
	}
	return ftui.CmdNone()
}

func (m *showcaseModel) View(frame *ftui.Frame) {
	buf := frame.Buffer
	if buf.IsDegenerate() {
		return
	}
	area := ftui.RectFromSize(buf.Width(), buf.Height())

	border := ftui.NewCell('#', ftui.Named(ftui.ColorCyan), ftui.DefaultColor(), 0)
	title := ftui.Cell{FG: ftui.Named(ftui.ColorBrightWhite), Attrs: ftui.AttrBold}

	if buf.Degradation == ftui.DegradationFull {
		buf.DrawRectOutline(area, border)
	}
	buf.PrintText(2, 0, " mermaid showcase ", title, frame.Pool)

	inner := area.Inner(ftui.SidesAll(1))
	if inner.IsEmpty() {
		return
	}

	// Layered diagram: one row band per rank, node boxes animated by a
	// deterministic phase.
	for i, node := range m.nodes {
		y := inner.Y + 1 + node.rank*3
		x := inner.X + 2 + node.slot*18
		phase := (m.tick + uint64(i)*3) % 8
		cell := ftui.Cell{FG: ftui.Named(ftui.ColorGreen)}
		if phase < 2 {
			cell.Attrs = ftui.AttrReverse
		}
		box := ftui.NewRect(x, y, 14, 3)
		if box.Bottom() >= inner.Bottom() {
			continue
		}
		switch buf.Degradation {
		case ftui.DegradationEssentialOnly:
			buf.PrintText(x, y, node.label, cell, frame.Pool)
		default:
			outline := ftui.NewCell('+', cell.FG, ftui.DefaultColor(), cell.Attrs)
			buf.DrawRectOutline(box, outline)
			buf.PrintText(x+2, y+1, node.label, cell, frame.Pool)
		}
	}

	// Progress band: percentage sweep derived from the tick.
	pct := int(m.tick * 3 % 101)
	py := inner.Bottom() - 1
	label := fmt.Sprintf("%3d%%", pct)
	switch buf.Degradation {
	case ftui.DegradationEssentialOnly:
		buf.PrintText(inner.X, py, label, ftui.Cell{}, frame.Pool)
	default:
		width := inner.Width - 6
		filled := width * pct / 100
		bar := ftui.NewCell('=', ftui.Named(ftui.ColorYellow), ftui.DefaultColor(), 0)
		buf.DrawHorizontalLine(inner.X, py, filled, bar)
		buf.PrintText(inner.X+width+1, py, label, ftui.Cell{}, frame.Pool)
	}
}

// layoutMetrics synthesizes the recompute record from the current
// diagram state; deterministic in (seed, tick).
func (m *showcaseModel) layoutMetrics() showcaseMetrics {
	rng := rand.New(rand.NewSource(int64(m.seed ^ m.epoch)))
	ranks := 0
	rankWidth := map[int]int{}
	for _, n := range m.nodes {
		if n.rank+1 > ranks {
			ranks = n.rank + 1
		}
		rankWidth[n.rank]++
	}
	maxWidth := 0
	for _, w := range rankWidth {
		if w > maxWidth {
			maxWidth = w
		}
	}
	return showcaseMetrics{
		diagramType:  "flowchart",
		tier:         "full",
		epoch:        m.epoch,
		cacheHits:    m.hits,
		cacheMisses:  m.miss,
		parseMs:      0.1 + rng.Float64()*0.4,
		layoutMs:     0.5 + rng.Float64()*2.0,
		renderMs:     0.2 + rng.Float64()*0.8,
		nodes:        len(m.nodes),
		edges:        len(m.edges),
		iterations:   4 + rng.Intn(12),
		crossings:    rng.Intn(4),
		ranks:        ranks,
		maxRankWidth: maxWidth,
		bends:        rng.Intn(8),
		posVariance:  rng.Float64() * 2,
	}
}
