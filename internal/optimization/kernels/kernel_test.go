package kernels

import (
	"math"
	"testing"
)

func TestRBF(t *testing.T) {
	tests := []struct {
		name     string
		x1       []float64
		x2       []float64
		ls       float64
		variance float64
		expected float64
	}{
		{
			name:     "same point",
			x1:       []float64{1.0, 2.0},
			x2:       []float64{1.0, 2.0},
			ls:       1.0,
			variance: 1.0,
			expected: 1.0,
		},
		{
			name:     "unit distance per dimension",
			x1:       []float64{0.0, 0.0},
			x2:       []float64{1.0, 1.0},
			ls:       1.0,
			variance: 1.0,
			expected: math.Exp(-1.0), // exp(-0.5 * (1+1) / 1^2)
		},
		{
			name:     "longer length scale flattens decay",
			x1:       []float64{0.0, 0.0},
			x2:       []float64{2.0, 2.0},
			ls:       2.0,
			variance: 1.0,
			expected: math.Exp(-1.0), // exp(-0.5 * (4+4) / 2^2)
		},
		{
			name:     "variance scales amplitude",
			x1:       []float64{0.0},
			x2:       []float64{0.0},
			ls:       1.0,
			variance: 2.5,
			expected: 2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel, err := NewRBF(tt.ls, tt.variance)
			if err != nil {
				t.Fatalf("NewRBF: %v", err)
			}
			result := kernel.Eval(tt.x1, tt.x2)

			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}

			// Symmetry
			if math.Abs(result-kernel.Eval(tt.x2, tt.x1)) > 1e-10 {
				t.Error("kernel is not symmetric")
			}
		})
	}
}

func TestMatern52(t *testing.T) {
	tests := []struct {
		name     string
		ls       float64
		variance float64
		x1, x2   []float64
		expected float64
	}{
		{
			name:     "same point",
			ls:       1.0,
			variance: 1.0,
			x1:       []float64{1.0, 2.0},
			x2:       []float64{1.0, 2.0},
			expected: 1.0,
		},
		{
			name:     "unit distance per dimension",
			ls:       1.0,
			variance: 1.0,
			x1:       []float64{0.0, 0.0},
			x2:       []float64{1.0, 1.0},
			expected: (1.0 + math.Sqrt(5)*math.Sqrt(2) + (5.0/3.0)*2) * math.Exp(-math.Sqrt(5)*math.Sqrt(2)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel, err := NewMatern52(tt.ls, tt.variance)
			if err != nil {
				t.Fatalf("NewMatern52: %v", err)
			}
			result := kernel.Eval(tt.x1, tt.x2)

			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}

			if math.Abs(result-kernel.Eval(tt.x2, tt.x1)) > 1e-10 {
				t.Error("kernel is not symmetric")
			}
		})
	}
}

func TestConstructorValidation(t *testing.T) {
	if _, err := NewRBF(0, 1); err == nil {
		t.Error("expected error for zero length scale")
	}
	if _, err := NewRBF(1, -1); err == nil {
		t.Error("expected error for negative variance")
	}
	if _, err := NewMatern52(-1, 1); err == nil {
		t.Error("expected error for negative length scale")
	}
	if _, err := NewMatern52(1, 0); err == nil {
		t.Error("expected error for zero variance")
	}
}

func TestSetHyperparameters(t *testing.T) {
	kernel, err := NewRBF(1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	if err := kernel.SetHyperparameters([]float64{2.0, 3.0}); err != nil {
		t.Fatalf("valid parameters rejected: %v", err)
	}
	got := kernel.Hyperparameters()
	if got[0] != 2.0 || got[1] != 3.0 {
		t.Errorf("hyperparameters not applied: %v", got)
	}

	if err := kernel.SetHyperparameters([]float64{1.0}); err == nil {
		t.Error("expected error for wrong parameter count")
	}
	if err := kernel.SetHyperparameters([]float64{-1.0, 1.0}); err == nil {
		t.Error("expected error for non-positive parameter")
	}

	matern, err := NewMatern52(1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := matern.SetHyperparameters([]float64{0.5, 0.25}); err != nil {
		t.Fatalf("valid parameters rejected: %v", err)
	}
}
