package optimization

import (
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"
)

// SearchSpace is the domain over which the next query point is chosen.
// Implementations are either an enumerated finite point set (DiscreteSpace)
// or a continuous axis-aligned hyper-rectangle (Box).
type SearchSpace interface {
	// Dim returns the dimensionality of points in the space.
	Dim() int

	// Sample draws n quasi-random points from the space, returned as an
	// n×d matrix with one point per row.
	Sample(n int) (*mat.Dense, error)

	// Contains reports whether x lies inside the space.
	Contains(x []float64) bool
}

// DiscreteSpace is a finite, ordered collection of candidate points.
// Every point has the same dimension.
type DiscreteSpace struct {
	points *mat.Dense
	src    rand.Source
}

// NewDiscreteSpace creates a search space from an n×d matrix of candidate
// points, one point per row. The point set must be non-empty.
func NewDiscreteSpace(points *mat.Dense) (*DiscreteSpace, error) {
	if points == nil {
		return nil, NewError("point set must not be nil").
			WithComponent("search_space").WithOperation("NewDiscreteSpace")
	}
	n, d := points.Dims()
	if n == 0 || d == 0 {
		return nil, NewErrorf("point set must be non-empty, got %dx%d", n, d).
			WithComponent("search_space").WithOperation("NewDiscreteSpace")
	}
	return &DiscreteSpace{points: mat.DenseCopyOf(points)}, nil
}

// Points returns the candidate points as an n×d matrix. Callers must not
// modify the returned matrix.
func (s *DiscreteSpace) Points() *mat.Dense { return s.points }

// Len returns the number of candidate points.
func (s *DiscreteSpace) Len() int {
	n, _ := s.points.Dims()
	return n
}

// Dim returns the dimensionality of the candidate points.
func (s *DiscreteSpace) Dim() int {
	_, d := s.points.Dims()
	return d
}

// SetSource sets the random source used by Sample. A nil source falls back
// to the shared global generator.
func (s *DiscreteSpace) SetSource(src rand.Source) { s.src = src }

// Sample draws n points uniformly at random (with replacement) from the
// point set.
func (s *DiscreteSpace) Sample(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, NewErrorf("sample size must be positive, got %d", n).
			WithComponent("search_space").WithOperation("Sample")
	}
	count, d := s.points.Dims()
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, mat.Row(nil, s.intN(count), s.points))
	}
	return out, nil
}

func (s *DiscreteSpace) intN(n int) int {
	if s.src != nil {
		return rand.New(s.src).IntN(n)
	}
	return rand.IntN(n)
}

// Contains reports whether x matches one of the candidate points exactly.
func (s *DiscreteSpace) Contains(x []float64) bool {
	n, d := s.points.Dims()
	if len(x) != d {
		return false
	}
	for i := 0; i < n; i++ {
		match := true
		for j := 0; j < d; j++ {
			if s.points.At(i, j) != x[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Box is a continuous axis-aligned hyper-rectangle defined by lower and
// upper bound vectors with lower[i] <= upper[i] for every dimension.
type Box struct {
	lower, upper []float64
	src          rand.Source
	logger       *zap.Logger
}

// NewBox creates a box search space from lower and upper bound vectors.
// The bounds must have equal, non-zero length and satisfy
// lower[i] <= upper[i] elementwise. Maximization over the box additionally
// requires strictly positive volume (upper > lower) in every dimension;
// this is a documented precondition and is not checked here.
func NewBox(lower, upper []float64) (*Box, error) {
	const op = "NewBox"
	if len(lower) == 0 || len(lower) != len(upper) {
		return nil, NewErrorf("bounds must have equal non-zero length, got %d and %d",
			len(lower), len(upper)).WithComponent("search_space").WithOperation(op)
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, NewErrorf("lower bound exceeds upper bound at dimension %d: %v > %v",
				i, lower[i], upper[i]).WithComponent("search_space").WithOperation(op)
		}
	}
	return &Box{
		lower:  append([]float64(nil), lower...),
		upper:  append([]float64(nil), upper...),
		logger: zap.NewNop(),
	}, nil
}

// Lower returns the lower bound vector. Callers must not modify it.
func (b *Box) Lower() []float64 { return b.lower }

// Upper returns the upper bound vector. Callers must not modify it.
func (b *Box) Upper() []float64 { return b.upper }

// Dim returns the dimensionality of the box.
func (b *Box) Dim() int { return len(b.lower) }

// SetSource sets the random source used for quasi-random sampling. A nil
// source falls back to the shared global generator.
func (b *Box) SetSource(src rand.Source) { b.src = src }

// SetLogger sets the logger used for non-fatal diagnostics during
// maximization. A nil logger silences them.
func (b *Box) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
}

// Sample draws n points from an Owen-scrambled Halton sequence over the
// box, giving more uniform coverage than pseudo-random sampling.
func (b *Box) Sample(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, NewErrorf("sample size must be positive, got %d", n).
			WithComponent("search_space").WithOperation("Sample")
	}
	bounds := make([]r1.Interval, b.Dim())
	for i := range bounds {
		bounds[i] = r1.Interval{Min: b.lower[i], Max: b.upper[i]}
	}
	halton := samplemv.Halton{
		Kind: samplemv.Owen,
		Q:    distmv.NewUniform(bounds, b.src),
		Src:  b.src,
	}
	batch := mat.NewDense(n, b.Dim(), nil)
	halton.Sample(batch)
	return batch, nil
}

// Contains reports whether x lies inside the box, bounds included.
func (b *Box) Contains(x []float64) bool {
	if len(x) != len(b.lower) {
		return false
	}
	for i := range x {
		if x[i] < b.lower[i] || x[i] > b.upper[i] {
			return false
		}
	}
	return true
}

// Discretize samples n quasi-random points from the box and returns them
// as a discrete sub-space.
func (b *Box) Discretize(n int) (*DiscreteSpace, error) {
	points, err := b.Sample(n)
	if err != nil {
		return nil, err
	}
	return &DiscreteSpace{points: points, src: b.src}, nil
}

// AsBox returns space as a *Box, or an InvalidSpaceTypeError if the space
// is of any other kind. It is used where a nested search space is required
// to be a box, for example when deriving bounds for a surrogate model.
func AsBox(space SearchSpace) (*Box, error) {
	box, ok := space.(*Box)
	if !ok {
		return nil, &InvalidSpaceTypeError{Space: space}
	}
	return box, nil
}
