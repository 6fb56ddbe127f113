// Package remote содержит HTTP JSON клиент удалённого решателя resonance.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resonance/pkg/apperror"
	"resonance/pkg/config"
	"resonance/pkg/telemetry"
)

// Client клиент удалённого решателя. Выполняет ровно одну попытку на
// запрос решения: политика восстановления после сбоя принадлежит
// оркестратору, а не транспорту.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
}

// NewClient создаёт клиента на основе конфигурации эндпоинта
func NewClient(cfg config.ServiceEndpoint) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL(),
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

// SolveRequest тело запроса POST /solve/subset-sum
type SolveRequest struct {
	Weights []int64 `json:"weights"`
	Target  int64   `json:"target"`
}

// Certificate сертификат решения в одной из двух кодировок
type Certificate struct {
	Indices    []int  `json:"indices,omitempty"`
	Assignment []bool `json:"assignment,omitempty"`
}

// SolveResponse тело ответа удалённого решателя
type SolveResponse struct {
	Feasible    bool             `json:"feasible"`
	Certificate *Certificate     `json:"certificate"`
	Telemetry   []TelemetryPoint `json:"telemetry"`
	Metrics     SolveMetrics     `json:"metrics"`
}

// TelemetryPoint точка телеметрии решателя
type TelemetryPoint struct {
	Iteration int     `json:"iteration"`
	Energy    float64 `json:"energy"`
}

// SolveMetrics метрики решателя
type SolveMetrics struct {
	ResonanceStrength float64 `json:"resonanceStrength"`
}

// SolveResult нормализованный результат удалённого решения
type SolveResult struct {
	Indices           []int
	Feasible          bool
	ResonanceStrength float64
	Iterations        int
}

// Solve выполняет одну попытку решения subset-sum. Повторов нет: любая
// ошибка сразу уходит в путь фолбэка оркестратора.
func (c *Client) Solve(ctx context.Context, weights []int64, target int64) (*SolveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "remote.Solve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("weights_count", len(weights)),
			attribute.Int64("target", target),
		),
	)
	defer span.End()

	body, err := json.Marshal(SolveRequest{Weights: weights, Target: target})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to encode solve request")
	}

	url := c.baseURL + "/solve/subset-sum"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to build solve request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.SetError(ctx, err)
		if ctx.Err() != nil {
			return nil, apperror.Wrap(err, apperror.CodeSolveCancelled, "solve request cancelled")
		}
		return nil, apperror.Wrap(err, apperror.CodeSolverUnavailable, "solver is unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck // закрытие тела ответа

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := apperror.New(apperror.CodeSolverRejected,
			fmt.Sprintf("solver returned status %d", resp.StatusCode))
		telemetry.SetError(ctx, err)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverBadReply, "failed to read solver response")
	}

	var parsed SolveResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverBadReply, "malformed solver response")
	}

	encoding, err := DecodeCertificate(parsed.Certificate, len(weights))
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	indices, err := encoding.ToIndices()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("feasible", parsed.Feasible),
		attribute.Int("certificate_size", len(indices)),
	)

	return &SolveResult{
		Indices:           indices,
		Feasible:          parsed.Feasible,
		ResonanceStrength: parsed.Metrics.ResonanceStrength,
		Iterations:        len(parsed.Telemetry),
	}, nil
}

// Ping проверяет доступность решателя. В отличие от Solve здесь
// допускаются повторы: проба связности на старте не связана с
// политикой одного запроса на решение.
func (c *Client) Ping(ctx context.Context) error {
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && c.retryBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "failed to build ping request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close() //nolint:errcheck
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("health returned status %d", resp.StatusCode)
	}

	return apperror.Wrap(lastErr, apperror.CodeSolverUnavailable, "solver health check failed")
}
