package acquisition

// ConfidenceBound scores points by an optimistic bound on the objective:
// mean minus kappa standard deviations for minimization, mean plus kappa
// standard deviations for maximization. Larger kappa favors exploration.
type ConfidenceBound struct {
	kappa    float64
	minimize bool
}

// NewConfidenceBound creates a ConfidenceBound acquisition function. By
// default it assumes the objective is minimized (lower confidence bound).
func NewConfidenceBound(kappa float64) *ConfidenceBound {
	return &ConfidenceBound{kappa: kappa, minimize: true}
}

// Compute returns the confidence-bound score at a point with posterior
// mean mu and standard deviation sigma. Higher scores mean more promising
// points, so for minimization the lower bound is negated.
func (cb *ConfidenceBound) Compute(mu, sigma float64) float64 {
	if cb.minimize {
		return -(mu - cb.kappa*sigma)
	}
	return mu + cb.kappa*sigma
}

// SetKappa sets the exploration weight.
func (cb *ConfidenceBound) SetKappa(kappa float64) {
	cb.kappa = kappa
}

// Kappa returns the exploration weight.
func (cb *ConfidenceBound) Kappa() float64 {
	return cb.kappa
}
