// Package ftui provides the Beta posterior shared by the diff-strategy
// selector and the VOI sampler.
package ftui

import "math"

const (
	// betaEps is the lower clamp for α and β.
	betaEps = 1e-6
	// betaMax is the upper clamp for α and β.
	betaMax = 1e6
)

// BetaPosterior is a Beta(α, β) distribution over a Bernoulli rate,
// updated by (successes, failures) counts with optional exponential
// decay. Both parameters stay within [betaEps, betaMax]; a clamp hit is
// counted once and execution continues.
type BetaPosterior struct {
	Alpha, Beta float64
	clamped     bool
}

// NewBetaPosterior creates a posterior with the given prior.
func NewBetaPosterior(alpha, beta float64) BetaPosterior {
	p := BetaPosterior{Alpha: alpha, Beta: beta}
	p.clamp()
	return p
}

// Mean returns E[p] = α / (α + β).
func (p *BetaPosterior) Mean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// Variance returns Var[p] = αβ / ((α+β)² (α+β+1)).
func (p *BetaPosterior) Variance() float64 {
	s := p.Alpha + p.Beta
	return p.Alpha * p.Beta / (s * s * (s + 1))
}

// Update folds in an observation batch. With decay in (0, 1) the prior
// mass is discounted first, weighting recent frames more heavily:
//
//	α ← decay·α + successes
//	β ← decay·β + failures
//
// decay outside (0, 1) (including 1 and 0) applies no discounting.
func (p *BetaPosterior) Update(successes, failures float64, decay float64) {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	if decay > 0 && decay < 1 {
		p.Alpha *= decay
		p.Beta *= decay
	}
	p.Alpha += successes
	p.Beta += failures
	p.clamp()
}

func (p *BetaPosterior) clamp() {
	hit := false
	if p.Alpha < betaEps {
		p.Alpha = betaEps
		hit = true
	}
	if p.Beta < betaEps {
		p.Beta = betaEps
		hit = true
	}
	if p.Alpha > betaMax {
		p.Alpha = betaMax
		hit = true
	}
	if p.Beta > betaMax {
		p.Beta = betaMax
		hit = true
	}
	if hit && !p.clamped {
		p.clamped = true
		Counters.PosteriorClampHit.Add(1)
	}
}

// Quantile returns the q-th quantile of the Beta CDF by bisection over
// the regularized incomplete beta function. Iteration counts are bounded
// so the hot path stays predictable.
func (p *BetaPosterior) Quantile(q float64) float64 {
	if q <= 0 {
		return 0
	}
	if q >= 1 {
		return 1
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if incompleteBeta(p.Alpha, p.Beta, mid) < q {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// incompleteBeta computes the regularized incomplete beta I_x(a, b)
// using the continued fraction expansion with a bounded iteration count.
func incompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	// ln B(a,b) via lgamma
	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lnFront := lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x)
	front := math.Exp(lnFront)

	// Use the symmetry relation for faster convergence.
	if x > (a+1)/(a+b+2) {
		return 1 - incompleteBeta(b, a, 1-x)
	}
	return front * betaContinuedFraction(a, b, x) / a
}

// betaContinuedFraction evaluates the Lentz continued fraction for the
// incomplete beta, capped at 200 iterations.
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIter = 200
		tiny    = 1e-30
		eps     = 1e-12
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIter; m++ {
		m2 := 2 * m
		fm := float64(m)
		aa := fm * (b - fm) * x / ((qam + float64(m2)) * (a + float64(m2)))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c
		aa = -(a + fm) * (qab + fm) * x / ((a + float64(m2)) * (qap + float64(m2)))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
