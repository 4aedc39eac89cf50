package router

import "math"

// minPredictorSamples is the fewest points the fit accepts.
const minPredictorSamples = 4

// predictor extrapolates the over-used node count of recent iterations to
// the iteration where it would reach zero.
type predictor struct {
	iters    []float64
	overused []float64
}

func (p *predictor) add(iter, overused int) {
	p.iters = append(p.iters, float64(iter))
	p.overused = append(p.overused, float64(overused))
}

// estimate fits a least-squares line to the newer half of the history. It
// returns NaN while there are too few samples and +Inf when overuse is
// not falling.
func (p *predictor) estimate() float64 {
	n := len(p.iters)
	start := n / 2
	if n-start < minPredictorSamples {
		return math.NaN()
	}
	xs, ys := p.iters[start:], p.overused[start:]
	if ys[len(ys)-1] == 0 {
		return xs[len(xs)-1]
	}

	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	k := float64(len(xs))
	den := k*sxx - sx*sx
	if den == 0 {
		return math.NaN()
	}
	slope := (k*sxy - sx*sy) / den
	if slope >= 0 {
		return math.Inf(1)
	}
	intercept := (sy - slope*sx) / k
	return -intercept / slope
}
