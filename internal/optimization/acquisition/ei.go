// Package acquisition provides acquisition functions that rank candidate
// points by how promising they are under a surrogate model's posterior.
package acquisition

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// sigmaFloor treats predictive deviations below this value as certain.
const sigmaFloor = 1e-10

// ExpectedImprovement scores points by the expected amount by which they
// improve on the best observed objective value.
type ExpectedImprovement struct {
	// Best observed value so far
	bestObserved float64
	// Exploration-exploitation trade-off parameter (xi)
	xi float64
	// Whether we're minimizing (true) or maximizing (false) the objective
	minimize bool
}

// NewExpectedImprovement creates an ExpectedImprovement acquisition
// function. By default it assumes the objective is minimized.
func NewExpectedImprovement(bestObserved, xi float64) *ExpectedImprovement {
	return &ExpectedImprovement{
		bestObserved: bestObserved,
		xi:           xi,
		minimize:     true,
	}
}

// Compute returns the expected improvement at a point with posterior mean
// mu and standard deviation sigma. The result is non-negative.
func (ei *ExpectedImprovement) Compute(mu, sigma float64) float64 {
	var improvement float64
	if ei.minimize {
		improvement = ei.bestObserved - mu - ei.xi
	} else {
		improvement = mu - ei.bestObserved - ei.xi
	}

	if improvement <= 0 {
		return 0.0
	}
	if sigma <= sigmaFloor {
		// The model is certain; improvement is taken at face value.
		return improvement
	}

	stdNormal := distuv.UnitNormal
	z := improvement / sigma

	// EI = improvement * Phi(z) + sigma * phi(z)
	return improvement*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
}

// Gradient returns the derivative of the expected improvement with respect
// to a parameter, given the derivatives of mu and sigma with respect to it.
func (ei *ExpectedImprovement) Gradient(mu, dmu, sigma, dsigma float64) float64 {
	if sigma <= sigmaFloor {
		// EI is linear in mu when the model is certain.
		if ei.minimize {
			return -dmu
		}
		return dmu
	}

	var improvement float64
	if ei.minimize {
		improvement = ei.bestObserved - mu - ei.xi
	} else {
		improvement = mu - ei.bestObserved - ei.xi
	}
	if improvement <= 0 {
		return 0.0
	}

	stdNormal := distuv.UnitNormal
	z := improvement / sigma
	pdf := stdNormal.Prob(z)
	cdf := stdNormal.CDF(z)

	if ei.minimize {
		return -cdf*dmu + pdf*dsigma
	}
	return cdf*dmu + pdf*dsigma
}

// UpdateBest updates the best observed value.
func (ei *ExpectedImprovement) UpdateBest(best float64) {
	ei.bestObserved = best
}

// SetXi sets the exploration-exploitation trade-off parameter.
func (ei *ExpectedImprovement) SetXi(xi float64) {
	ei.xi = xi
}

// BestObserved returns the best observed value.
func (ei *ExpectedImprovement) BestObserved() float64 {
	return ei.bestObserved
}
