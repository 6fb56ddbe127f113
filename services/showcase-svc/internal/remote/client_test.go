package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resonance/pkg/apperror"
	"resonance/pkg/config"
)

func clientForServer(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(config.ServiceEndpoint{
		Host:         u.Hostname(),
		Port:         port,
		BasePath:     "/v1",
		Scheme:       "http",
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 10 * time.Millisecond,
	})
}

func TestClient_Solve_IndicesCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/solve/subset-sum", r.URL.Path)

		var req SolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{5, 10, 15}, req.Weights)
		assert.Equal(t, int64(25), req.Target)

		resp := SolveResponse{
			Feasible:    true,
			Certificate: &Certificate{Indices: []int{1, 2}},
			Telemetry:   []TelemetryPoint{{Iteration: 1, Energy: 0.5}, {Iteration: 2, Energy: 0.1}},
			Metrics:     SolveMetrics{ResonanceStrength: 0.92},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	result, err := client.Solve(context.Background(), []int64{5, 10, 15}, 25)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, result.Indices)
	assert.True(t, result.Feasible)
	assert.InDelta(t, 0.92, result.ResonanceStrength, 1e-9)
	assert.Equal(t, 2, result.Iterations)
}

func TestClient_Solve_AssignmentCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := SolveResponse{
			Feasible:    true,
			Certificate: &Certificate{Assignment: []bool{true, false, true}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	result, err := client.Solve(context.Background(), []int64{5, 10, 15}, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, result.Indices)
}

func TestClient_Solve_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		resp := SolveResponse{
			Feasible:    true,
			Certificate: &Certificate{Indices: []int{0}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client := NewClient(config.ServiceEndpoint{
		Host:     u.Hostname(),
		Port:     port,
		BasePath: "/v1",
		Scheme:   "http",
		Timeout:  time.Second,
		APIKey:   "secret",
	})

	_, err = client.Solve(context.Background(), []int64{7}, 7)
	require.NoError(t, err)
}

func TestClient_Solve_Unreachable(t *testing.T) {
	client := NewClient(config.ServiceEndpoint{
		Host:    "127.0.0.1",
		Port:    1, // nothing listens here
		Scheme:  "http",
		Timeout: 200 * time.Millisecond,
	})

	_, err := client.Solve(context.Background(), []int64{1}, 1)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverUnavailable, apperror.Code(err))
}

func TestClient_Solve_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	_, err := client.Solve(context.Background(), []int64{1, 2}, 3)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverRejected, apperror.Code(err))
}

func TestClient_Solve_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json at all")) //nolint:errcheck
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	_, err := client.Solve(context.Background(), []int64{1, 2}, 3)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverBadReply, apperror.Code(err))
}

func TestClient_Solve_MissingCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(SolveResponse{Feasible: false}))
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	_, err := client.Solve(context.Background(), []int64{1, 2}, 3)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverBadReply, apperror.Code(err))
}

func TestClient_Solve_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Solve(ctx, []int64{1}, 1)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolveCancelled, apperror.Code(err))
}

func TestClient_Ping(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	// Second attempt succeeds within MaxRetries=2
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestClient_Ping_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := clientForServer(t, srv)

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverUnavailable, apperror.Code(err))
}
