package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/copyleftdev/TAIGA/internal/config"
	"github.com/copyleftdev/TAIGA/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Optimization.MaxIterations = 5
	cfg.Optimization.NInitialPoints = 3
	cfg.Optimization.RandomSeed = 42

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// testServer creates a server with an isolated metrics registry.
func testServer(t *testing.T) *Server {
	return NewServer(testConfig(t), testLogger(t), prometheus.NewRegistry())
}

func TestNewServer(t *testing.T) {
	srv := testServer(t)
	assert.NotNil(t, srv, "Server should be created")
}

func TestRegisterRoutes(t *testing.T) {
	srv := testServer(t)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/optimize", true},
		{"GET", "/api/v1/status/123", true},
		{"DELETE", "/api/v1/optimization/123", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // Not registered by server package
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			// A 404 means the route does not exist.
			if tt.shouldExist && rr.Code == http.StatusNotFound {
				t.Errorf("Route %s %s should exist but returned 404", tt.method, tt.path)
			}
		})
	}
}

func TestClose(t *testing.T) {
	srv := testServer(t)
	err := srv.Close()
	assert.NoError(t, err, "Close should not return an error")
}

func TestRespondWithError(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
		expectCode int
	}{
		{
			name:       "valid error response",
			code:       -32600,
			message:    "Invalid Request",
			id:         "123",
			expectedID: "123",
			expectCode: http.StatusOK, // JSON-RPC errors ride on HTTP 200
		},
		{
			name:       "nil id",
			code:       -32000,
			message:    "server error",
			id:         nil,
			expectedID: nil,
			expectCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			assert.Equal(t, tt.expectCode, rr.Code, "status code should match")

			var response map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&response)
			assert.NoError(t, err, "should decode response body")

			errObj, ok := response["error"].(map[string]interface{})
			assert.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"], "error code should match")
			assert.Equal(t, tt.message, errObj["message"], "error message should match")

			assert.Equal(t, tt.expectedID, response["id"], "response ID should match")
		})
	}
}

func TestStartJobValidation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name    string
		req     startRequest
		wantErr string
	}{
		{
			name:    "unknown objective",
			req:     startRequest{Objective: "nope", Bounds: [][]float64{{0, 1}}},
			wantErr: "unknown objective",
		},
		{
			name:    "missing bounds",
			req:     startRequest{Objective: "sphere"},
			wantErr: "bounds are required",
		},
		{
			name:    "malformed bounds",
			req:     startRequest{Objective: "sphere", Bounds: [][]float64{{0, 1, 2}}},
			wantErr: "invalid bounds format",
		},
		{
			name:    "inverted bounds",
			req:     startRequest{Objective: "sphere", Bounds: [][]float64{{1, 0}}},
			wantErr: "invalid bounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.startJob(tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJSONRPCOptimizationLifecycle(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	rpc := func(t *testing.T, method string, params interface{}) map[string]interface{} {
		t.Helper()
		body, err := json.Marshal(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  method,
			"params":  params,
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/rpc", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		return response
	}

	start := rpc(t, "optimization.start", map[string]interface{}{
		"objective":      "sphere",
		"bounds":         [][]float64{{-1, 1}, {-1, 1}},
		"max_iterations": 2,
		"initial_points": 3,
		"random_seed":    7,
	})
	require.Nil(t, start["error"], "start should succeed: %v", start["error"])
	result, ok := start["result"].(map[string]interface{})
	require.True(t, ok, "start result should be an object")
	id, ok := result["optimization_id"].(string)
	require.True(t, ok, "start result should carry an optimization_id")

	// Poll until the job reaches a terminal state.
	deadline := time.Now().Add(30 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		resp := rpc(t, "optimization.status", map[string]interface{}{
			"optimization_id": id,
		})
		require.Nil(t, resp["error"])
		statusResult := resp["result"].(map[string]interface{})
		status = statusResult["status"].(string)
		if status == "completed" || status == "failed" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.Equal(t, "completed", status, "sphere run should complete")

	// Cancelling a finished job is rejected.
	cancel := rpc(t, "optimization.cancel", map[string]interface{}{
		"optimization_id": id,
	})
	require.NotNil(t, cancel["error"], "cancelling a completed job should fail")
}

func TestJSONRPCUnknownMethod(t *testing.T) {
	srv := testServer(t)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"optimization.bogus"}`)
	req := httptest.NewRequest("POST", "/rpc", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(-32601), errObj["code"])
}

func TestRESTOptimizeRejectsBadBody(t *testing.T) {
	srv := testServer(t)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	req := httptest.NewRequest("POST", "/api/v1/optimize", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestObjectiveRegistry(t *testing.T) {
	sphere := objectives["sphere"]
	v, err := sphere([]float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, v, 1e-12)

	rosen := objectives["rosenbrock"]
	v, err = rosen([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-12)

	_, err = rosen([]float64{1})
	assert.Error(t, err, "rosenbrock needs at least two dimensions")

	branin := objectives["branin"]
	// Known global minimum value 0.397887 at (pi, 2.275).
	v, err = branin([]float64{3.14159265, 2.275})
	require.NoError(t, err)
	assert.InDelta(t, 0.397887, v, 1e-4)
}
