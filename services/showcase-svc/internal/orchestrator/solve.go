package orchestrator

import (
	"context"
	"math"
	"time"

	"resonance/pkg/apperror"
	"resonance/pkg/cache"
	"resonance/pkg/logger"
	"resonance/services/showcase-svc/internal/generator"
	"resonance/services/showcase-svc/internal/heuristic"
	"resonance/services/showcase-svc/internal/problems"
)

// route выбирает способ решения по типу задачи. Subset-sum уходит на
// удалённый решатель (с проверкой кэша), TSP решается локальной жадной
// эвристикой, клика и 3-SAT симулируются детерминированно.
func (o *Orchestrator) route(
	ctx context.Context,
	problemType problems.Type,
	params problems.Params,
	tspInst *generator.TSPInstance,
	subsetInst *generator.SubsetSumInstance,
) (*OptimizationSolution, *OptimizationMetrics, string, error) {
	switch problemType {
	case problems.TypeSubsetSum:
		return o.solveSubsetSum(ctx, subsetInst)
	case problems.TypeTSP:
		sol, m, err := o.solveTSP(tspInst)
		return sol, m, routeGreedy, err
	case problems.TypeClique:
		sol, m, err := o.solveSimulated(ctx, simulatedClique(params), params.VertexCount)
		return sol, m, routeSimulated, err
	case problems.Type3SAT:
		sol, m, err := o.solveSimulated(ctx, simulatedAssignment(params), params.VariableCount)
		return sol, m, routeSimulated, err
	default:
		return nil, nil, routeSimulated, apperror.New(apperror.CodeUnknownProblemType, "unroutable problem type "+string(problemType))
	}
}

// solveSubsetSum решает через кэш или удалённый решатель. Ровно одна
// попытка обращения к решателю: восстановление после сбоя принадлежит
// политике fallback, а не ретраям.
func (o *Orchestrator) solveSubsetSum(ctx context.Context, inst *generator.SubsetSumInstance) (*OptimizationSolution, *OptimizationMetrics, string, error) {
	start := time.Now()

	if o.solveCache != nil {
		cached, ok, err := o.solveCache.Get(ctx, inst.Weights, inst.Target)
		if err != nil {
			logger.Log.Warn("Solve cache lookup failed", "error", err.Error())
		}
		o.metrics.RecordCacheLookup(ok)
		if ok {
			sol := &OptimizationSolution{
				Solution:   append([]int(nil), cached.Indices...),
				Satisfied:  cached.Satisfied,
				Iterations: 0,
			}
			return sol, o.deriveMetrics(len(inst.Weights), time.Since(start), 1.0), routeCache, nil
		}
	}

	result, err := o.solver.Solve(ctx, inst.Weights, inst.Target)
	if err != nil {
		return nil, nil, routeRemote, err
	}

	achieved := sumAt(inst.Weights, result.Indices)
	satisfied := achieved == inst.Target
	elapsed := time.Since(start)

	if o.solveCache != nil {
		cacheErr := o.solveCache.Set(ctx, inst.Weights, inst.Target, &cache.CachedSolveResult{
			Indices:     result.Indices,
			AchievedSum: achieved,
			Satisfied:   satisfied,
			DurationMs:  float64(elapsed.Milliseconds()),
		}, 0)
		if cacheErr != nil {
			logger.Log.Warn("Solve cache store failed", "error", cacheErr.Error())
		}
	}

	sol := &OptimizationSolution{
		Solution:   result.Indices,
		Satisfied:  satisfied,
		Iterations: result.Iterations,
	}

	quality := 1.0
	if !satisfied && inst.Target > 0 {
		quality = float64(achieved) / float64(inst.Target)
	}
	return sol, o.deriveMetrics(len(inst.Weights), elapsed, quality), routeRemote, nil
}

// solveTSP строит маршрут жадной эвристикой ближайшего соседа
func (o *Orchestrator) solveTSP(inst *generator.TSPInstance) (*OptimizationSolution, *OptimizationMetrics, error) {
	start := time.Now()

	tour, err := heuristic.GreedyTour(inst.DistanceMatrix)
	if err != nil {
		return nil, nil, err
	}

	greedyLen := heuristic.TourLength(inst.DistanceMatrix, tour)
	identityLen := heuristic.TourLength(inst.DistanceMatrix, identityTour(len(inst.Cities)))
	o.metrics.RecordTourLength("nearest_neighbor", greedyLen)

	// Эвристика без гарантии оптимальности, качество всегда ниже единицы
	quality := 0.9
	if greedyLen > 0 {
		quality = math.Min(0.99, identityLen/greedyLen)
	}

	sol := &OptimizationSolution{
		Solution:   tour,
		Satisfied:  true,
		Iterations: len(tour),
	}
	return sol, o.deriveMetrics(len(inst.Cities), time.Since(start), quality), nil
}

// solveSimulated имитирует работу решателя для задач без удалённого
// бэкенда. Задержка пропорциональна размеру и уважает отмену контекста.
func (o *Orchestrator) solveSimulated(ctx context.Context, solution []int, size int) (*OptimizationSolution, *OptimizationMetrics, error) {
	start := time.Now()

	delay := time.Duration(size) * 10 * time.Millisecond
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, nil, apperror.Wrap(ctx.Err(), apperror.CodeSolveCancelled, "simulated solve cancelled")
		case <-timer.C:
		}
	}

	sol := &OptimizationSolution{
		Solution:   solution,
		Satisfied:  true,
		Iterations: size * 3,
	}
	return sol, o.deriveMetrics(size, time.Since(start), 0.95), nil
}

// fallback строит детерминированный заменяющий ответ после сбоя решения.
// Заменяющее решение всегда помечается выполненным: витрина не должна
// показывать пользователю разорванное состояние.
func (o *Orchestrator) fallback(
	problemType problems.Type,
	params problems.Params,
	tspInst *generator.TSPInstance,
	subsetInst *generator.SubsetSumInstance,
	elapsed time.Duration,
) (*OptimizationSolution, *OptimizationMetrics) {
	switch problemType {
	case problems.TypeTSP:
		n := 0
		if tspInst != nil {
			n = len(tspInst.Cities)
		}
		return &OptimizationSolution{
			Solution:   identityTour(n),
			Satisfied:  true,
			Iterations: n,
		}, o.deriveMetrics(n, elapsed, 0.5)

	case problems.TypeSubsetSum:
		var indices []int
		n := 0
		if subsetInst != nil {
			n = len(subsetInst.Weights)
			indices = greedySubset(subsetInst.Weights, subsetInst.Target)
		}
		return &OptimizationSolution{
			Solution:   indices,
			Satisfied:  true,
			Iterations: n,
		}, o.deriveMetrics(n, elapsed, 0.5)

	case problems.TypeClique:
		return &OptimizationSolution{
			Solution:   simulatedClique(params),
			Satisfied:  true,
			Iterations: params.VertexCount,
		}, o.deriveMetrics(params.VertexCount, elapsed, 0.5)

	default:
		return &OptimizationSolution{
			Solution:   simulatedAssignment(params),
			Satisfied:  true,
			Iterations: params.VariableCount,
		}, o.deriveMetrics(params.VariableCount, elapsed, 0.5)
	}
}

// deriveMetrics выводит метрики для витрины. Классическое время и
// преимущество - презентационная экстраполяция от размера задачи.
func (o *Orchestrator) deriveMetrics(size int, elapsed time.Duration, quality float64) *OptimizationMetrics {
	solveMs := float64(elapsed.Microseconds()) / 1000.0
	if solveMs < 0.01 {
		solveMs = 0.01
	}

	advantage := math.Pow(2, float64(size)/8.0)
	if advantage > 1e6 {
		advantage = 1e6
	}

	return &OptimizationMetrics{
		SolutionTimeMs:   solveMs,
		ClassicalTimeMs:  solveMs * advantage,
		QuantumAdvantage: advantage,
		SolutionQuality:  quality,
	}
}

// identityTour маршрут 0..n-1
func identityTour(n int) []int {
	tour := make([]int, n)
	for i := range tour {
		tour[i] = i
	}
	return tour
}

// greedySubset жадно набирает веса, не превышая цель. Первый подходящий
// элемент берётся без возврата.
func greedySubset(weights []int64, target int64) []int {
	var indices []int
	var sum int64
	for i, w := range weights {
		if sum+w <= target {
			indices = append(indices, i)
			sum += w
		}
	}
	return indices
}

// sumAt сумма весов по индексам
func sumAt(weights []int64, indices []int) int64 {
	var sum int64
	for _, i := range indices {
		if i >= 0 && i < len(weights) {
			sum += weights[i]
		}
	}
	return sum
}

// simulatedClique первая треть вершин, минимум три
func simulatedClique(params problems.Params) []int {
	k := params.VertexCount / 3
	if k < 3 {
		k = 3
	}
	if k > params.VertexCount {
		k = params.VertexCount
	}
	return identityTour(k)
}

// simulatedAssignment все переменные истинны
func simulatedAssignment(params problems.Params) []int {
	return identityTour(params.VariableCount)
}
