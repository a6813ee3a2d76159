package optimization

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// quadraticObjective is a simple smooth objective for testing
func quadraticObjective(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

// testSource returns a deterministic random source for tests
func testSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// assertMatDims checks that a matrix has the expected dimensions
func assertMatDims(t *testing.T, m mat.Matrix, rows, cols int) {
	t.Helper()

	r, c := m.Dims()
	if r != rows || c != cols {
		t.Fatalf("matrix dimensions mismatch: got %dx%d, want %dx%d", r, c, rows, cols)
	}
}

// scoreColumn wraps a per-point scoring function as an AcquisitionFunction
// returning the contractual n×1 column
func scoreColumn(score func(x []float64) float64) AcquisitionFunction {
	return func(points *mat.Dense) (*mat.Dense, error) {
		n, _ := points.Dims()
		out := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			out.Set(i, 0, score(mat.Row(nil, i, points)))
		}
		return out, nil
	}
}
