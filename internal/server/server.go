// Package server exposes the optimization service over HTTP and JSON-RPC.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/TAIGA/internal/config"
	apperrors "github.com/copyleftdev/TAIGA/internal/errors"
	"github.com/copyleftdev/TAIGA/internal/logging"
	"github.com/copyleftdev/TAIGA/internal/optimization"
	"github.com/copyleftdev/TAIGA/internal/optimization/bayesian"
)

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// objectives maps names accepted by the API to benchmark objective
// functions. Real deployments evaluate objectives externally and feed
// results back; the built-ins exist for smoke testing the loop.
var objectives = map[string]optimization.ObjectiveFunction{
	"sphere": func(x []float64) (float64, error) {
		sum := 0.0
		for _, v := range x {
			sum += v * v
		}
		return sum, nil
	},
	"rosenbrock": func(x []float64) (float64, error) {
		if len(x) < 2 {
			return 0, fmt.Errorf("rosenbrock requires at least 2 dimensions, got %d", len(x))
		}
		sum := 0.0
		for i := 0; i < len(x)-1; i++ {
			a := x[i+1] - x[i]*x[i]
			b := 1 - x[i]
			sum += 100*a*a + b*b
		}
		return sum, nil
	},
	"branin": func(x []float64) (float64, error) {
		if len(x) != 2 {
			return 0, fmt.Errorf("branin requires exactly 2 dimensions, got %d", len(x))
		}
		const (
			a = 1.0
			b = 5.1 / (4 * math.Pi * math.Pi)
			c = 5 / math.Pi
			r = 6.0
			s = 10.0
			t = 1 / (8 * math.Pi)
		)
		term := x[1] - b*x[0]*x[0] + c*x[0] - r
		return a*term*term + s*(1-t)*math.Cos(x[0]) + s, nil
	},
}

// JobState tracks the progress, status, and results of one optimization
// job. It is guarded by the server's job mutex.
type JobState struct {
	ID           string
	Status       string // "pending", "running", "completed", "failed", "cancelled"
	StartTime    time.Time
	EndTime      *time.Time
	BestSolution *optimization.Solution
	Optimizer    optimization.Optimizer
	CancelFunc   context.CancelFunc
	LastUpdated  time.Time
}

// Server implements the HTTP and JSON-RPC surface of the optimization
// service. It manages jobs and provides endpoints to start, monitor, and
// cancel them.
type Server struct {
	cfg     *config.Config
	logger  Logger
	metrics *Metrics

	jobs   map[string]*JobState
	jobsMu sync.RWMutex
}

// NewServer creates a server with the given config and logger. Metrics
// are registered on reg; a nil reg uses the default registry.
func NewServer(cfg *config.Config, logger Logger, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(reg),
		jobs:    make(map[string]*JobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// startRequest is the parameter payload for optimization.start.
type startRequest struct {
	Objective      string      `json:"objective"`
	Bounds         [][]float64 `json:"bounds"`
	MaxIterations  int         `json:"max_iterations,omitempty"`
	NInitialPoints int         `json:"initial_points,omitempty"`
	RandomSeed     int64       `json:"random_seed,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error
	switch request.Method {
	case "optimization.start":
		var params startRequest
		if err = json.Unmarshal(request.Params, &params); err == nil {
			result, err = s.startJob(params)
		}
	case "optimization.status":
		var params struct {
			OptimizationID string `json:"optimization_id"`
		}
		if err = json.Unmarshal(request.Params, &params); err == nil {
			result, err = s.jobStatus(params.OptimizationID)
		}
	case "optimization.cancel":
		var params struct {
			OptimizationID string `json:"optimization_id"`
		}
		if err = json.Unmarshal(request.Params, &params); err == nil {
			err = s.cancelJob(params.OptimizationID)
		}
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// startJob validates a start request, constructs the optimizer, and
// launches the job in a goroutine.
func (s *Server) startJob(req startRequest) (interface{}, error) {
	objective, ok := objectives[req.Objective]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", req.Objective)
	}
	if len(req.Bounds) == 0 {
		return nil, fmt.Errorf("bounds are required")
	}

	lower := make([]float64, len(req.Bounds))
	upper := make([]float64, len(req.Bounds))
	for i, bound := range req.Bounds {
		if len(bound) != 2 {
			return nil, fmt.Errorf("invalid bounds format, expected [[min1, max1], [min2, max2], ...]")
		}
		lower[i], upper[i] = bound[0], bound[1]
	}
	space, err := optimization.NewBox(lower, upper)
	if err != nil {
		return nil, fmt.Errorf("invalid bounds: %w", err)
	}

	optConfig := optimization.OptimizerConfig{
		Objective:      objective,
		Space:          space,
		MaxIterations:  req.MaxIterations,
		NInitialPoints: req.NInitialPoints,
		RandomSeed:     req.RandomSeed,
	}
	if optConfig.MaxIterations <= 0 {
		optConfig.MaxIterations = s.cfg.Optimization.MaxIterations
	}
	if optConfig.NInitialPoints <= 0 {
		optConfig.NInitialPoints = s.cfg.Optimization.NInitialPoints
	}
	if optConfig.RandomSeed == 0 {
		optConfig.RandomSeed = s.cfg.Optimization.RandomSeed
	}

	optimizer, err := bayesian.NewBayesianOptimizer(optConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create optimizer").
			WithOperation("startJob").WithComponent("server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := fmt.Sprintf("opt_%d", time.Now().UnixNano())
	optimizer.SetLogger(logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{
		"optimization_id": id,
	})))
	state := &JobState{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		Optimizer:   optimizer,
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.jobsMu.Lock()
	s.jobs[id] = state
	s.jobsMu.Unlock()

	s.metrics.JobsStarted.Inc()
	go s.runJob(ctx, state, optConfig)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          "pending",
	}, nil
}

// jobStatus reports the current status and results of a job.
func (s *Server) jobStatus(id string) (interface{}, error) {
	if id == "" {
		return nil, fmt.Errorf("optimization_id is required")
	}

	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	state, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.BestSolution != nil {
		response["best_solution"] = map[string]interface{}{
			"parameters": state.BestSolution.Parameters,
			"value":      state.BestSolution.Value,
		}
	}

	if state.Optimizer != nil {
		if history := state.Optimizer.GetHistory(); len(history) > 0 {
			historyData := make([]map[string]interface{}, len(history))
			for i, eval := range history {
				historyData[i] = map[string]interface{}{
					"iteration":  eval.Iteration,
					"parameters": eval.Solution.Parameters,
					"value":      eval.Solution.Value,
				}
			}
			response["history"] = historyData
		}
		if best := state.Optimizer.GetBestSolution(); best != nil {
			response["current_best"] = map[string]interface{}{
				"parameters": best.Parameters,
				"value":      best.Value,
			}
		}
	}

	return response, nil
}

// cancelJob cancels a running job.
func (s *Server) cancelJob(id string) error {
	if id == "" {
		return fmt.Errorf("optimization_id is required")
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("optimization not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	s.metrics.JobsCancelled.Inc()

	s.logger.Info("optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

// runJob executes an optimization job to completion.
func (s *Server) runJob(ctx context.Context, state *JobState, optConfig optimization.OptimizerConfig) {
	s.jobsMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	result, err := state.Optimizer.Optimize(ctx, optConfig)

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	// A cancelled job has already reached a terminal state.
	if state.Status == "cancelled" {
		return
	}

	if err != nil {
		s.logger.Error("optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
		state.Status = "failed"
		s.metrics.JobsFailed.Inc()
	} else {
		state.Status = "completed"
		state.BestSolution = result.BestSolution
		s.metrics.JobsCompleted.Inc()
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	s.metrics.JobDuration.Observe(now.Sub(state.StartTime).Seconds())
}

// Close cancels all running jobs.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startJob(req)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	result, err := s.jobStatus(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	err := s.cancelJob(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}
