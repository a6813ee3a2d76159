package optimization

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOptimizeDiscreteIdentity(t *testing.T) {
	space, err := NewDiscreteSpace(mat.NewDense(3, 1, []float64{0, 1, 2}))
	require.NoError(t, err)

	point, err := Optimize(space, scoreColumn(func(x []float64) float64 { return x[0] }))
	require.NoError(t, err)

	assertMatDims(t, point, 1, 1)
	assert.Equal(t, 2.0, point.At(0, 0))
}

func TestOptimizeDiscreteReturnsMemberWithBestScore(t *testing.T) {
	points := mat.NewDense(5, 2, []float64{
		0, 0,
		0.2, 1,
		-1, 4,
		3, 3,
		2, -2,
	})
	space, err := NewDiscreteSpace(points)
	require.NoError(t, err)

	score := func(x []float64) float64 { return -math.Abs(x[0]-0.2) - math.Abs(x[1]-1) }
	point, err := Optimize(space, scoreColumn(score))
	require.NoError(t, err)

	assertMatDims(t, point, 1, 2)
	best := mat.Row(nil, 0, point)
	assert.True(t, space.Contains(best), "result must be a member of the point set")

	for i := 0; i < space.Len(); i++ {
		assert.GreaterOrEqual(t, score(best), score(mat.Row(nil, i, points)),
			"result score must dominate point %d", i)
	}
}

func TestOptimizeDiscreteTieBreaksLowestIndex(t *testing.T) {
	space, err := NewDiscreteSpace(mat.NewDense(4, 1, []float64{10, 20, 30, 40}))
	require.NoError(t, err)

	// All points score identically; the first must win.
	point, err := Optimize(space, scoreColumn(func([]float64) float64 { return 1.0 }))
	require.NoError(t, err)
	assert.Equal(t, 10.0, point.At(0, 0))
}

func TestOptimizeDiscreteShapeContract(t *testing.T) {
	space, err := NewDiscreteSpace(mat.NewDense(3, 1, []float64{0, 1, 2}))
	require.NoError(t, err)

	tests := []struct {
		name string
		out  func(n int) *mat.Dense
	}{
		{
			name: "wrong trailing dimension",
			out:  func(n int) *mat.Dense { return mat.NewDense(n, 2, nil) },
		},
		{
			name: "wrong row count",
			out:  func(n int) *mat.Dense { return mat.NewDense(n+1, 1, nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Optimize(space, func(points *mat.Dense) (*mat.Dense, error) {
				n, _ := points.Dims()
				return tt.out(n), nil
			})
			require.Error(t, err)
			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, 3, shapeErr.WantRows)
			assert.Equal(t, 1, shapeErr.WantCols)
		})
	}
}

func TestOptimizeDiscretePropagatesEvaluationError(t *testing.T) {
	space, err := NewDiscreteSpace(mat.NewDense(2, 1, []float64{0, 1}))
	require.NoError(t, err)

	boom := errors.New("model unavailable")
	_, err = Optimize(space, func(*mat.Dense) (*mat.Dense, error) { return nil, boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestOptimizeUnsupportedSpace(t *testing.T) {
	_, err := Optimize(unsupportedSpace{}, scoreColumn(func([]float64) float64 { return 0 }))
	require.Error(t, err)
	var unsupported *UnsupportedSpaceError
	assert.ErrorAs(t, err, &unsupported)
}

// unsupportedSpace implements SearchSpace but not Maximizer.
type unsupportedSpace struct{}

func (unsupportedSpace) Dim() int                       { return 1 }
func (unsupportedSpace) Sample(int) (*mat.Dense, error) { return mat.NewDense(1, 1, nil), nil }
func (unsupportedSpace) Contains([]float64) bool        { return false }

func TestDiscretizationBudget(t *testing.T) {
	tests := []struct {
		dim  int
		want int
	}{
		{dim: 1, want: 500},
		{dim: 2, want: 1000},
		{dim: 4, want: 2000},
		{dim: 5, want: 2000},
		{dim: 10, want: 2000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, discretizationBudget(tt.dim), "dim=%d", tt.dim)
	}
}

func TestOptimizeBoxResultAlwaysFeasible(t *testing.T) {
	box, err := NewBox([]float64{-1, 2}, []float64{1, 3})
	require.NoError(t, err)
	box.SetSource(testSource(11))

	// An unbounded-growth score drives the optimizer toward a corner; the
	// transform must still keep the result inside the box.
	point, err := Optimize(box, scoreColumn(func(x []float64) float64 { return x[0] + x[1] }))
	require.NoError(t, err)

	assertMatDims(t, point, 1, 2)
	assert.True(t, box.Contains(mat.Row(nil, 0, point)),
		"result must lie inside the box even without convergence")
}

func TestOptimizeBoxConcaveObjective(t *testing.T) {
	box, err := NewBox([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	box.SetSource(testSource(5))

	point, err := Optimize(box, scoreColumn(func(x []float64) float64 {
		return -(x[0]-0.3)*(x[0]-0.3) - (x[1]-0.7)*(x[1]-0.7)
	}))
	require.NoError(t, err)

	assertMatDims(t, point, 1, 2)
	assertFloat64SlicesEqual(t, mat.Row(nil, 0, point), []float64{0.3, 0.7}, 1e-3)
}

func TestOptimizeBoxSingleDimension(t *testing.T) {
	box, err := NewBox([]float64{-4}, []float64{4})
	require.NoError(t, err)
	box.SetSource(testSource(2))

	point, err := Optimize(box, scoreColumn(func(x []float64) float64 {
		return -(x[0] - 1.5) * (x[0] - 1.5)
	}))
	require.NoError(t, err)

	assertMatDims(t, point, 1, 1)
	assert.InDelta(t, 1.5, point.At(0, 0), 1e-3)
}

func TestOptimizeBoxRefinementKeepsGridOptimum(t *testing.T) {
	box, err := NewBox([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	box.SetSource(testSource(13))

	// Locate the true maximizer of the smooth score the box path will see,
	// then verify refinement stays at it within tolerance. This exercises
	// the transform round-trip: a seed near the optimum must not be moved
	// away by forward(inverse(p)) drift.
	target := scoreColumn(func(x []float64) float64 {
		return -(x[0]-0.5)*(x[0]-0.5) - (x[1]-0.5)*(x[1]-0.5)
	})
	point, err := Optimize(box, target)
	require.NoError(t, err)
	assertFloat64SlicesEqual(t, mat.Row(nil, 0, point), []float64{0.5, 0.5}, 1e-3)
}

func TestOptimizeBoxPropagatesSeedError(t *testing.T) {
	box, err := NewBox([]float64{0}, []float64{1})
	require.NoError(t, err)

	// A shape violation in the global phase aborts the whole call.
	_, err = Optimize(box, func(points *mat.Dense) (*mat.Dense, error) {
		n, _ := points.Dims()
		return mat.NewDense(n, 2, nil), nil
	})
	require.Error(t, err)
	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func BenchmarkOptimizeDiscrete(b *testing.B) {
	points := mat.NewDense(2000, 4, nil)
	for i := 0; i < 2000; i++ {
		for j := 0; j < 4; j++ {
			points.Set(i, j, float64(i*4+j))
		}
	}
	space, err := NewDiscreteSpace(points)
	if err != nil {
		b.Fatal(err)
	}
	target := scoreColumn(func(x []float64) float64 { return -x[0] * x[0] })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Optimize(space, target); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimizeBox(b *testing.B) {
	box, err := NewBox([]float64{0, 0}, []float64{1, 1})
	if err != nil {
		b.Fatal(err)
	}
	box.SetSource(testSource(1))
	target := scoreColumn(func(x []float64) float64 {
		return -(x[0]-0.3)*(x[0]-0.3) - (x[1]-0.7)*(x[1]-0.7)
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Optimize(box, target); err != nil {
			b.Fatal(err)
		}
	}
}
