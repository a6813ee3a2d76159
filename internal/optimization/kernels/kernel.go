// Package kernels provides covariance functions for Gaussian process
// surrogate models.
package kernels

import (
	"fmt"
	"math"
)

// Kernel is a covariance function between two points of equal dimension.
type Kernel interface {
	// Eval computes the kernel value between two points x1 and x2
	Eval(x1, x2 []float64) float64

	// Hyperparameters returns the current hyperparameters
	Hyperparameters() []float64

	// SetHyperparameters sets the kernel's hyperparameters
	SetHyperparameters(params []float64) error
}

// sqDist returns the squared Euclidean distance between x1 and x2.
func sqDist(x1, x2 []float64) float64 {
	var sum float64
	for i := range x1 {
		d := x1[i] - x2[i]
		sum += d * d
	}
	return sum
}

func validatePair(lengthScale, variance float64) error {
	if lengthScale <= 0 {
		return fmt.Errorf("length scale must be positive, got %v", lengthScale)
	}
	if variance <= 0 {
		return fmt.Errorf("signal variance must be positive, got %v", variance)
	}
	return nil
}

// RBF is the radial basis function (squared exponential) kernel.
type RBF struct {
	lengthScale float64
	variance    float64
}

// NewRBF creates an RBF kernel. Both parameters must be positive.
func NewRBF(lengthScale, variance float64) (*RBF, error) {
	if err := validatePair(lengthScale, variance); err != nil {
		return nil, err
	}
	return &RBF{lengthScale: lengthScale, variance: variance}, nil
}

// Eval computes the RBF kernel value between x1 and x2
func (k *RBF) Eval(x1, x2 []float64) float64 {
	return k.variance * math.Exp(-sqDist(x1, x2)/(2*k.lengthScale*k.lengthScale))
}

// Hyperparameters returns the current hyperparameters
func (k *RBF) Hyperparameters() []float64 {
	return []float64{k.lengthScale, k.variance}
}

// SetHyperparameters sets the kernel's hyperparameters
func (k *RBF) SetHyperparameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("expected 2 hyperparameters, got %d", len(params))
	}
	if err := validatePair(params[0], params[1]); err != nil {
		return err
	}
	k.lengthScale, k.variance = params[0], params[1]
	return nil
}

// Matern52 is the Matérn kernel with smoothness 5/2, a common default for
// Bayesian optimization surrogates.
type Matern52 struct {
	lengthScale float64
	variance    float64
}

// NewMatern52 creates a Matérn 5/2 kernel. Both parameters must be positive.
func NewMatern52(lengthScale, variance float64) (*Matern52, error) {
	if err := validatePair(lengthScale, variance); err != nil {
		return nil, err
	}
	return &Matern52{lengthScale: lengthScale, variance: variance}, nil
}

// Eval computes the Matérn 5/2 kernel value between x1 and x2
func (k *Matern52) Eval(x1, x2 []float64) float64 {
	r := math.Sqrt(sqDist(x1, x2)) / k.lengthScale
	sqrt5r := math.Sqrt(5) * r
	return k.variance * (1 + sqrt5r + 5.0/3.0*r*r) * math.Exp(-sqrt5r)
}

// Hyperparameters returns the current hyperparameters
func (k *Matern52) Hyperparameters() []float64 {
	return []float64{k.lengthScale, k.variance}
}

// SetHyperparameters sets the kernel's hyperparameters
func (k *Matern52) SetHyperparameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("expected 2 hyperparameters, got %d", len(params))
	}
	if err := validatePair(params[0], params[1]); err != nil {
		return err
	}
	k.lengthScale, k.variance = params[0], params[1]
	return nil
}
