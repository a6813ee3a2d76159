package optimization

import "math"

// intervalTransform is a monotonic, differentiable bijection between the
// unconstrained real line and the open interval (lower, upper), applied
// per dimension. It lets an unconstrained local optimizer search freely
// while every forward-mapped point satisfies the box bounds exactly, with
// no clipping inside the inner loop.
type intervalTransform struct {
	lower []float64
	width []float64
}

// inverseClamp keeps inverse-mapped points strictly inside the open unit
// interval so that the logit stays finite when a point sits on a bound.
const inverseClamp = 1e-12

func newIntervalTransform(lower, upper []float64) *intervalTransform {
	width := make([]float64, len(lower))
	for i := range lower {
		width[i] = upper[i] - lower[i]
	}
	return &intervalTransform{lower: append([]float64(nil), lower...), width: width}
}

// Forward maps an unconstrained point z to the interior of the interval:
// lower + width * sigmoid(z).
func (t *intervalTransform) Forward(z []float64) []float64 {
	x := make([]float64, len(z))
	for i, v := range z {
		x[i] = t.lower[i] + t.width[i]*sigmoid(v)
	}
	return x
}

// Inverse maps a point inside the interval back to the real line via the
// logit. Points on (or numerically at) a bound are nudged into the open
// interval first.
func (t *intervalTransform) Inverse(x []float64) []float64 {
	z := make([]float64, len(x))
	for i, v := range x {
		p := (v - t.lower[i]) / t.width[i]
		if p < inverseClamp {
			p = inverseClamp
		} else if p > 1-inverseClamp {
			p = 1 - inverseClamp
		}
		z[i] = math.Log(p / (1 - p))
	}
	return z
}

func sigmoid(v float64) float64 {
	// Split on sign to avoid overflow in exp for large |v|.
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}
