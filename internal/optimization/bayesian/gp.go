// Package bayesian implements a Gaussian-process surrogate model and the
// sequential optimization loop built on top of it.
package bayesian

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/TAIGA/internal/optimization"
	"github.com/copyleftdev/TAIGA/internal/optimization/kernels"
)

// jitterStart is the initial diagonal jitter used when the kernel matrix
// is not positive definite; it grows by jitterGrowth per retry.
const (
	jitterStart   = 1e-10
	jitterGrowth  = 10
	jitterRetries = 6
)

// GP is a Gaussian Process regression model used as the surrogate for
// Bayesian optimization.
type GP struct {
	kernel   kernels.Kernel
	noiseVar float64

	// Training data
	x *mat.Dense
	y *mat.VecDense

	// Precomputed factorization and weights
	chol  *mat.Cholesky
	alpha *mat.VecDense

	pool   *MatrixPool
	logger *zap.Logger
}

// NewGP creates a Gaussian Process model with the given kernel and noise
// variance.
func NewGP(kernel kernels.Kernel, noiseVar float64) *GP {
	return &GP{
		kernel:   kernel,
		noiseVar: noiseVar,
		pool:     NewMatrixPool(),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger used for fit and predict diagnostics. A nil
// logger silences them.
func (gp *GP) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gp.logger = logger.Named("gaussian_process")
}

// Fit conditions the model on training inputs X (n×d) and targets y (n).
func (gp *GP) Fit(X *mat.Dense, y *mat.VecDense) error {
	const op = "GP.Fit"

	if X == nil || y == nil {
		return optimization.WrapError(errors.New("input matrices must not be nil"),
			"gaussian_process: "+op)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return optimization.WrapError(errors.New("input matrix X must not be empty"),
			"gaussian_process: "+op)
	}
	if yLen := y.Len(); nSamples != yLen {
		return optimization.WrapError(
			fmt.Errorf("dimension mismatch: X has %d samples but y has length %d", nSamples, yLen),
			"gaussian_process: "+op)
	}

	gp.logger.Debug("fitting GP model",
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures),
		zap.Float64("noise_var", gp.noiseVar),
	)

	gp.x = mat.DenseCopyOf(X)
	gp.y = mat.VecDenseCopyOf(y)

	K := gp.pool.GetSymDense(nSamples)
	defer gp.pool.PutSymDense(K)
	for i := 0; i < nSamples; i++ {
		xi := gp.x.RawRowView(i)
		for j := i; j < nSamples; j++ {
			K.SetSym(i, j, gp.kernel.Eval(xi, gp.x.RawRowView(j)))
		}
		K.SetSym(i, i, K.At(i, i)+gp.noiseVar)
	}

	// Factorize, growing the diagonal jitter until the matrix is positive
	// definite or the retry budget is exhausted.
	var chol mat.Cholesky
	jitter := jitterStart
	for attempt := 0; ; attempt++ {
		if chol.Factorize(K) {
			break
		}
		if attempt == jitterRetries {
			return optimization.WrapError(
				errors.New("Cholesky decomposition failed: matrix is not positive definite"),
				"gaussian_process: "+op)
		}
		gp.logger.Debug("kernel matrix not positive definite, adding jitter",
			zap.Float64("jitter", jitter), zap.Int("attempt", attempt))
		for i := 0; i < nSamples; i++ {
			K.SetSym(i, i, K.At(i, i)+jitter)
		}
		jitter *= jitterGrowth
	}
	gp.chol = &chol

	alpha := mat.NewVecDense(nSamples, nil)
	if err := gp.chol.SolveVecTo(alpha, gp.y); err != nil {
		return optimization.WrapError(fmt.Errorf("failed to solve for weights: %w", err),
			"gaussian_process: "+op)
	}
	gp.alpha = alpha

	return nil
}

// Predict returns the posterior predictive mean and variance at the test
// points X (m×d).
func (gp *GP) Predict(X *mat.Dense) (*mat.VecDense, *mat.VecDense, error) {
	const op = "GP.Predict"

	if X == nil {
		return nil, nil, optimization.WrapError(errors.New("input matrix X is nil"),
			"gaussian_process: "+op)
	}
	if gp.x == nil || gp.alpha == nil || gp.chol == nil {
		return nil, nil, optimization.WrapError(errors.New("model is not fitted"),
			"gaussian_process: "+op)
	}

	nTest, dTest := X.Dims()
	nTrain, dTrain := gp.x.Dims()
	if dTest != dTrain {
		return nil, nil, optimization.WrapError(
			fmt.Errorf("dimension mismatch: test points have %d features, training points have %d",
				dTest, dTrain),
			"gaussian_process: "+op)
	}

	// Cross-kernel between test and training points, and prior variances.
	kStar := gp.pool.GetDense(nTest, nTrain)
	defer gp.pool.PutDense(kStar)
	kss := make([]float64, nTest)
	for i := 0; i < nTest; i++ {
		xi := X.RawRowView(i)
		kss[i] = gp.kernel.Eval(xi, xi) + gp.noiseVar
		for j := 0; j < nTrain; j++ {
			kStar.Set(i, j, gp.kernel.Eval(xi, gp.x.RawRowView(j)))
		}
	}

	mean := mat.NewVecDense(nTest, nil)
	mean.MulVec(kStar, gp.alpha)

	// variance_i = kss_i - k*_i^T K^-1 k*_i via the Cholesky factor.
	v := gp.pool.GetDense(nTrain, nTest)
	defer gp.pool.PutDense(v)
	if err := gp.chol.SolveTo(v, kStar.T()); err != nil {
		return nil, nil, optimization.WrapError(
			fmt.Errorf("failed to solve linear system: %w", err),
			"gaussian_process: "+op)
	}

	variance := mat.NewVecDense(nTest, nil)
	for i := 0; i < nTest; i++ {
		var explained float64
		for j := 0; j < nTrain; j++ {
			explained += kStar.At(i, j) * v.At(j, i)
		}
		variance.SetVec(i, math.Max(0, kss[i]-explained))
	}

	return mean, variance, nil
}

// Sample draws nSamples independent draws from the marginal posterior at
// each test point. The result is nTest×nSamples.
func (gp *GP) Sample(X *mat.Dense, nSamples int, rng *rand.Rand) (*mat.Dense, error) {
	const op = "GP.Sample"

	if nSamples <= 0 {
		return nil, optimization.WrapError(errors.New("number of samples must be positive"),
			"gaussian_process: "+op)
	}
	mean, variance, err := gp.Predict(X)
	if err != nil {
		return nil, optimization.WrapError(err, "gaussian_process: "+op)
	}

	nTest := mean.Len()
	samples := mat.NewDense(nTest, nSamples, nil)
	for i := 0; i < nTest; i++ {
		mu := mean.AtVec(i)
		sigma := math.Sqrt(variance.AtVec(i))
		for j := 0; j < nSamples; j++ {
			samples.Set(i, j, mu+sigma*rng.NormFloat64())
		}
	}
	return samples, nil
}
