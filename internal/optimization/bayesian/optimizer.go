package bayesian

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/TAIGA/internal/optimization"
	"github.com/copyleftdev/TAIGA/internal/optimization/acquisition"
	"github.com/copyleftdev/TAIGA/internal/optimization/kernels"
)

const (
	defaultNInitialPoints = 10
	defaultMaxIterations  = 50
	defaultNoiseVar       = 1e-6
	defaultXi             = 0.01
)

// BayesianOptimizer drives sequential optimization of an expensive
// black-box objective over a box search space. Each decision step fits a
// Gaussian-process surrogate to the evaluations so far and picks the next
// query point by maximizing an acquisition function over the space.
type BayesianOptimizer struct {
	config optimization.OptimizerConfig

	// Search space; currently required to be a box
	space *optimization.Box

	// Gaussian Process surrogate
	gp *GP

	// Acquisition function
	acquisition *acquisition.ExpectedImprovement

	// Best solution found
	bestSolution *optimization.Solution

	// History of evaluations
	history []optimization.Evaluation

	// For cancellation
	cancel context.CancelFunc

	logger *zap.Logger
}

// NewBayesianOptimizer creates a Bayesian optimizer over config.Space,
// which must be a box search space.
func NewBayesianOptimizer(config optimization.OptimizerConfig) (*BayesianOptimizer, error) {
	if config.NInitialPoints < 1 {
		config.NInitialPoints = defaultNInitialPoints
	}
	if config.MaxIterations < 1 {
		config.MaxIterations = defaultMaxIterations
	}

	box, err := optimization.AsBox(config.Space)
	if err != nil {
		return nil, err
	}

	if config.RandomSeed != 0 {
		seed := uint64(config.RandomSeed)
		box.SetSource(rand.NewPCG(seed, seed+1))
	}

	// Matern 5/2 is the default surrogate kernel.
	kernel, err := kernels.NewMatern52(1.0, 1.0)
	if err != nil {
		return nil, err
	}

	return &BayesianOptimizer{
		config:      config,
		space:       box,
		gp:          NewGP(kernel, defaultNoiseVar),
		acquisition: acquisition.NewExpectedImprovement(math.Inf(1), defaultXi),
		history:     make([]optimization.Evaluation, 0, config.MaxIterations+config.NInitialPoints),
		logger:      zap.NewNop(),
	}, nil
}

// SetLogger sets the logger used by the optimizer and its surrogate.
// A nil logger silences them.
func (bo *BayesianOptimizer) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bo.logger = logger.Named("bayesian_optimizer")
	bo.gp.SetLogger(logger)
	bo.space.SetLogger(bo.logger)
}

// Optimize runs the sequential optimization process until the iteration
// budget is reached or ctx is cancelled.
func (bo *BayesianOptimizer) Optimize(ctx context.Context, config optimization.OptimizerConfig) (*optimization.OptimizationResult, error) {
	if config.Objective != nil {
		bo.config.Objective = config.Objective
	}
	if bo.config.Objective == nil {
		return nil, optimization.NewError("objective function is required").
			WithComponent("bayesian_optimizer").WithOperation("Optimize")
	}

	ctx, bo.cancel = context.WithCancel(ctx)
	defer bo.cancel()

	// Initial design: quasi-random space-filling sample.
	initial, err := bo.space.Sample(bo.config.NInitialPoints)
	if err != nil {
		return nil, fmt.Errorf("error sampling initial points: %w", err)
	}

	nInitial, _ := initial.Dims()
	for i := 0; i < nInitial; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := bo.evaluate(i, mat.Row(nil, i, initial)); err != nil {
			return nil, err
		}
	}

	for i := 0; i < bo.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		X, y := bo.prepareTrainingData()
		if err := bo.gp.Fit(X, y); err != nil {
			return nil, fmt.Errorf("error fitting GP: %w", err)
		}
		bo.acquisition.UpdateBest(bo.bestSolution.Value)

		next, err := optimization.Optimize(bo.space, bo.acquisitionFunc())
		if err != nil {
			return nil, fmt.Errorf("error maximizing acquisition function: %w", err)
		}

		if err := bo.evaluate(i+bo.config.NInitialPoints, mat.Row(nil, 0, next)); err != nil {
			return nil, err
		}

		bo.logger.Debug("completed decision step",
			zap.Int("iteration", i),
			zap.Float64("best_value", bo.bestSolution.Value),
		)
	}

	return &optimization.OptimizationResult{
		BestSolution: bo.bestSolution,
		History:      bo.history,
		Iterations:   bo.config.MaxIterations + bo.config.NInitialPoints,
		Converged:    true,
	}, nil
}

// evaluate scores a query point with the objective and records the result.
func (bo *BayesianOptimizer) evaluate(iteration int, x []float64) error {
	value, err := bo.config.Objective(x)
	if err != nil {
		return fmt.Errorf("error evaluating objective function: %w", err)
	}

	bo.updateBestSolution(x, value)
	bo.history = append(bo.history, optimization.Evaluation{
		Iteration: iteration,
		Solution: &optimization.Solution{
			Parameters: append([]float64(nil), x...),
			Value:      value,
		},
	})
	return nil
}

// acquisitionFunc adapts the GP posterior and the scalar acquisition into
// a batch scoring function for the space maximizer.
func (bo *BayesianOptimizer) acquisitionFunc() optimization.AcquisitionFunction {
	return func(points *mat.Dense) (*mat.Dense, error) {
		mean, variance, err := bo.gp.Predict(points)
		if err != nil {
			return nil, err
		}
		n, _ := points.Dims()
		scores := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			scores.Set(i, 0, bo.acquisition.Compute(mean.AtVec(i), math.Sqrt(variance.AtVec(i))))
		}
		return scores, nil
	}
}

// GetBestSolution returns the best solution found so far
func (bo *BayesianOptimizer) GetBestSolution() *optimization.Solution {
	return bo.bestSolution
}

// GetHistory returns the history of evaluations
func (bo *BayesianOptimizer) GetHistory() []optimization.Evaluation {
	return bo.history
}

// Stop stops the optimization process
func (bo *BayesianOptimizer) Stop() {
	if bo.cancel != nil {
		bo.cancel()
	}
}

// updateBestSolution updates the best solution if the new solution is better
func (bo *BayesianOptimizer) updateBestSolution(params []float64, value float64) {
	if bo.bestSolution == nil || value < bo.bestSolution.Value {
		bo.bestSolution = &optimization.Solution{
			Parameters: append([]float64(nil), params...),
			Value:      value,
		}
	}
}

// prepareTrainingData assembles the evaluation history into GP training
// matrices.
func (bo *BayesianOptimizer) prepareTrainingData() (*mat.Dense, *mat.VecDense) {
	nSamples := len(bo.history)
	nDims := bo.space.Dim()

	X := mat.NewDense(nSamples, nDims, nil)
	y := mat.NewVecDense(nSamples, nil)

	for i, eval := range bo.history {
		X.SetRow(i, eval.Solution.Parameters)
		y.SetVec(i, eval.Solution.Value)
	}

	return X, y
}
