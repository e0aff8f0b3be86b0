// Package ftui provides the value-of-information sampler used by inline
// auto-remeasure.
//
// Given a stream of sample opportunities (each tick), the sampler decides
// whether spending the work to measure inline terminal geometry is
// justified by the expected reduction in posterior uncertainty about the
// latent violation rate.
package ftui

import "math"

// VOI tuning.
const (
	voiPriorAlpha   = 1.0
	voiPriorBeta    = 9.0
	voiDefaultCost  = 1e-4
	voiEThreshold   = 100.0
	voiBoundaryRate = 0.5 // boundary null: violation rate at one half
	voiMaxLog       = 64
)

// VoiDecision records one should-sample verdict.
type VoiDecision struct {
	EventIdx       uint64
	ShouldSample   bool
	Reason         string
	Score          float64
	Cost           float64
	VoiGain        float64
	LogBayesFactor float64
	EValue         float64
	EThreshold     float64
	BoundaryScore  float64
}

// VoiObservation records one observed outcome.
type VoiObservation struct {
	SampleIdx     uint64
	Violated      bool
	PosteriorMean float64
	Alpha, Beta   float64
}

// VoiLogEntry is one ledger line: a decision or an observation.
type VoiLogEntry struct {
	Decision    *VoiDecision
	Observation *VoiObservation
}

// VoiSamplerSnapshot is the overlay-readable view of the sampler.
type VoiSamplerSnapshot struct {
	Alpha, Beta           float64
	PosteriorMean         float64
	PosteriorVariance     float64
	ExpectedVarianceAfter float64
	VoiGain               float64
	LastDecision          *VoiDecision
	LastObservation       *VoiObservation
	RecentLogs            []VoiLogEntry
}

// VoiSamplerConfig tunes the sampler.
type VoiSamplerConfig struct {
	Cost          float64 // per-sample work cost on the gain scale
	EThreshold    float64
	EnableLogging bool
	MaxLogEntries int
}

// DefaultVoiSamplerConfig returns the inline auto-remeasure defaults.
func DefaultVoiSamplerConfig() VoiSamplerConfig {
	return VoiSamplerConfig{
		Cost:          voiDefaultCost,
		EThreshold:    voiEThreshold,
		MaxLogEntries: voiMaxLog,
	}
}

// VoiSampler gates remeasurement work on expected information gain.
type VoiSampler struct {
	config    VoiSamplerConfig
	posterior BetaPosterior
	eValue    float64
	eventIdx  uint64
	sampleIdx uint64
	lastDec   *VoiDecision
	lastObs   *VoiObservation
	logs      []VoiLogEntry
}

// NewVoiSampler creates a sampler with the given config.
func NewVoiSampler(config VoiSamplerConfig) *VoiSampler {
	if config.MaxLogEntries <= 0 {
		config.MaxLogEntries = voiMaxLog
	}
	if config.EThreshold <= 0 {
		config.EThreshold = voiEThreshold
	}
	return &VoiSampler{
		config:    config,
		posterior: NewBetaPosterior(voiPriorAlpha, voiPriorBeta),
		eValue:    1,
	}
}

// PosteriorParams returns (α, β).
func (v *VoiSampler) PosteriorParams() (float64, float64) {
	return v.posterior.Alpha, v.posterior.Beta
}

// PosteriorMean returns E[p].
func (v *VoiSampler) PosteriorMean() float64 {
	return v.posterior.Mean()
}

// PosteriorVariance returns Var[p].
func (v *VoiSampler) PosteriorVariance() float64 {
	return v.posterior.Variance()
}

// ExpectedVarianceAfter returns the expected posterior variance after one
// more Bernoulli observation, in closed form from conjugacy: with
// probability E[p] the observation is a violation (α+1), otherwise (β+1).
func (v *VoiSampler) ExpectedVarianceAfter() float64 {
	a, b := v.posterior.Alpha, v.posterior.Beta
	mean := a / (a + b)
	win := BetaPosterior{Alpha: a + 1, Beta: b}
	lose := BetaPosterior{Alpha: a, Beta: b + 1}
	return mean*win.Variance() + (1-mean)*lose.Variance()
}

// Decide evaluates one sample opportunity.
func (v *VoiSampler) Decide() VoiDecision {
	v.eventIdx++
	variance := v.posterior.Variance()
	after := v.ExpectedVarianceAfter()
	gain := variance - after
	if gain < 0 {
		gain = 0
	}
	score := gain - v.config.Cost

	// Log Bayes factor of the posterior against the boundary null.
	mean := v.posterior.Mean()
	boundary := boundaryLikelihood(mean)
	lbf := math.Log(posteriorConcentration(v.posterior)) - math.Log(boundary)

	dec := VoiDecision{
		EventIdx:       v.eventIdx,
		Score:          score,
		Cost:           v.config.Cost,
		VoiGain:        gain,
		LogBayesFactor: lbf,
		EValue:         v.eValue,
		EThreshold:     v.config.EThreshold,
		BoundaryScore:  boundary,
	}
	switch {
	case score <= 0:
		dec.Reason = "gain below cost"
	case v.eValue >= v.config.EThreshold:
		dec.Reason = "e-value alarm"
	default:
		dec.ShouldSample = true
		dec.Reason = "gain justifies sample"
	}
	v.lastDec = &dec
	v.pushLog(VoiLogEntry{Decision: &dec})
	v.publish()
	return dec
}

// Observe folds one outcome into the posterior and emits an observation
// log entry.
func (v *VoiSampler) Observe(violated bool) VoiObservation {
	if violated {
		v.posterior.Update(1, 0, 0)
	} else {
		v.posterior.Update(0, 1, 0)
	}
	v.updateEValue(violated)

	obs := VoiObservation{
		SampleIdx:     v.sampleIdx,
		Violated:      violated,
		PosteriorMean: v.posterior.Mean(),
		Alpha:         v.posterior.Alpha,
		Beta:          v.posterior.Beta,
	}
	v.sampleIdx++
	v.lastObs = &obs
	v.pushLog(VoiLogEntry{Observation: &obs})
	v.publish()
	return obs
}

// updateEValue multiplies in the likelihood ratio of the observation
// under the boundary null versus the posterior mean.
func (v *VoiSampler) updateEValue(violated bool) {
	mean := v.posterior.Mean()
	var lr float64
	if violated {
		lr = mean / voiBoundaryRate
	} else {
		lr = (1 - mean) / (1 - voiBoundaryRate)
	}
	v.eValue *= lr
	if v.eValue < 1e-9 {
		v.eValue = 1e-9
	}
	if v.eValue > 1e12 {
		v.eValue = 1e12
	}
}

// LastDecision returns the most recent decision, nil before any.
func (v *VoiSampler) LastDecision() *VoiDecision {
	return v.lastDec
}

// LastObservation returns the most recent observation, nil before any.
func (v *VoiSampler) LastObservation() *VoiObservation {
	return v.lastObs
}

// Logs returns the bounded decision/observation ledger, oldest first.
func (v *VoiSampler) Logs() []VoiLogEntry {
	return v.logs
}

func (v *VoiSampler) pushLog(e VoiLogEntry) {
	if !v.config.EnableLogging {
		return
	}
	v.logs = append(v.logs, e)
	if len(v.logs) > v.config.MaxLogEntries {
		v.logs = v.logs[len(v.logs)-v.config.MaxLogEntries:]
	}
}

func (v *VoiSampler) publish() {
	variance := v.posterior.Variance()
	after := v.ExpectedVarianceAfter()
	gain := variance - after
	if gain < 0 {
		gain = 0
	}
	SetVoiSnapshot(VoiSamplerSnapshot{
		Alpha:                 v.posterior.Alpha,
		Beta:                  v.posterior.Beta,
		PosteriorMean:         v.posterior.Mean(),
		PosteriorVariance:     variance,
		ExpectedVarianceAfter: after,
		VoiGain:               gain,
		LastDecision:          v.lastDec,
		LastObservation:       v.lastObs,
		RecentLogs:            v.logs,
	})
}

// boundaryLikelihood is the Bernoulli likelihood of the boundary rate.
func boundaryLikelihood(mean float64) float64 {
	d := math.Abs(mean - voiBoundaryRate)
	return math.Max(1e-9, 1-d)
}

// posteriorConcentration is a crude density proxy at the posterior mean,
// higher for tighter posteriors.
func posteriorConcentration(p BetaPosterior) float64 {
	v := p.Variance()
	if v <= 0 {
		return 1e9
	}
	return 1 / math.Sqrt(v)
}
