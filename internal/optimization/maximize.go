package optimization

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// AcquisitionFunction scores a batch of candidate points. The input is an
// n×d matrix with one point per row; the output must be an n×1 column of
// scores. The function must be pure: it may be invoked many times during
// a single maximization.
type AcquisitionFunction func(points *mat.Dense) (*mat.Dense, error)

// Maximizer is implemented by search spaces that know how to find the
// maximizer of an acquisition function over themselves. Each space kind
// owns its strategy, so adding a new kind never requires touching a
// central dispatcher.
type Maximizer interface {
	// Maximize returns the point in the space that maximizes target,
	// as a 1×d matrix.
	Maximize(target AcquisitionFunction) (*mat.Dense, error)
}

// Optimize returns the point in space that maximizes target, with shape
// 1×d. It dispatches on the space's Maximizer capability and fails with
// an UnsupportedSpaceError for spaces that do not implement it.
func Optimize(space SearchSpace, target AcquisitionFunction) (*mat.Dense, error) {
	m, ok := space.(Maximizer)
	if !ok {
		return nil, &UnsupportedSpaceError{Space: space}
	}
	return m.Maximize(target)
}

// Maximize evaluates target once over the whole point set and returns the
// best-scoring point. Ties are broken in favor of the lowest index, so
// the selection is stable with respect to the order of the point set.
func (s *DiscreteSpace) Maximize(target AcquisitionFunction) (*mat.Dense, error) {
	n, d := s.points.Dims()

	values, err := target(s.points)
	if err != nil {
		return nil, WrapError(err, "evaluating acquisition function over point set").
			WithComponent("discrete_maximizer").WithOperation("Maximize")
	}
	if r, c := values.Dims(); r != n || c != 1 {
		return nil, &ShapeError{Rows: r, Cols: c, WantRows: n, WantCols: 1}
	}

	best := floats.MaxIdx(mat.Col(nil, 0, values))
	return mat.NewDense(1, d, mat.Row(nil, best, s.points)), nil
}

// Discretization budget for the global phase of box maximization: denser
// coverage in low dimension, capped for high dimension.
const (
	trialPointsPerDim = 500
	maxTrialPoints    = 2000
)

func discretizationBudget(dim int) int {
	if n := trialPointsPerDim * dim; n < maxTrialPoints {
		return n
	}
	return maxTrialPoints
}

// Maximize finds an approximate global maximizer of target over the box
// by composing a discretized global search with a continuous local
// refinement.
//
// The global phase scores a quasi-random grid of min(2000, 500*d) points
// through the discrete maximizer. The local phase runs L-BFGS on the
// negated score, reparameterized through a sigmoid bijection so that the
// unconstrained optimizer can only ever evaluate feasible points. A local
// search that fails to converge is downgraded to a warning and the best
// position found is returned; the result is always the forward-transformed
// final position and therefore always inside the box.
func (b *Box) Maximize(target AcquisitionFunction) (*mat.Dense, error) {
	dim := b.Dim()

	trial, err := b.Discretize(discretizationBudget(dim))
	if err != nil {
		return nil, err
	}
	seed, err := trial.Maximize(target)
	if err != nil {
		return nil, err
	}

	transform := newIntervalTransform(b.lower, b.upper)

	// Negated, forward-transformed score: the local optimizer minimizes an
	// unconstrained scalar objective.
	objective := func(z []float64) float64 {
		values, err := target(mat.NewDense(1, dim, transform.Forward(z)))
		if err != nil {
			return math.Inf(1)
		}
		return -values.At(0, 0)
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, objective, z, nil)
		},
	}

	// Copy the start point: the optimizer works on its argument in place
	// and must not alias the seed.
	start := append([]float64(nil), transform.Inverse(mat.Row(nil, 0, seed))...)

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}

	position := start
	result, err := optimize.Minimize(problem, start, settings, &optimize.LBFGS{})
	if result != nil && result.X != nil {
		position = result.X
	}
	if err != nil {
		b.logger.Warn("local refinement produced a result but failed to converge",
			zap.Error(err))
	} else if statusErr := result.Status.Err(); statusErr != nil {
		b.logger.Warn("local refinement produced a result but failed to converge",
			zap.Error(statusErr), zap.Stringer("status", result.Status))
	}

	return mat.NewDense(1, dim, transform.Forward(position)), nil
}
