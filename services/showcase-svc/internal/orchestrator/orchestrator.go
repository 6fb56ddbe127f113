// Package orchestrator реализует машину состояний демонстрационной
// оптимизации: выбор задачи, генерация экземпляра, запуск решения с
// косметическим прогрессом и нормализация результата.
//
// Состояния: Idle -> ProblemSelected -> InstanceReady -> Solving ->
// Solved | FailedRecovered. Экземпляр оркестратора привязан к одной
// сессии; все переходы защищены мьютексом, одновременно допускается не
// более одного решения.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resonance/pkg/apperror"
	"resonance/pkg/cache"
	"resonance/pkg/config"
	"resonance/pkg/logger"
	"resonance/pkg/metrics"
	"resonance/pkg/telemetry"
	"resonance/services/showcase-svc/internal/generator"
	"resonance/services/showcase-svc/internal/problems"
	"resonance/services/showcase-svc/internal/remote"
)

// State состояние машины
type State string

const (
	StateIdle            State = "idle"
	StateProblemSelected State = "problem_selected"
	StateInstanceReady   State = "instance_ready"
	StateSolving         State = "solving"
	StateSolved          State = "solved"
	StateFailedRecovered State = "failed_recovered"
)

// Маршруты решения для метрик
const (
	routeRemote    = "remote"
	routeCache     = "cache"
	routeGreedy    = "local_greedy"
	routeSimulated = "simulated"
)

// SubsetSolver контракт удалённого решателя subset-sum
type SubsetSolver interface {
	Solve(ctx context.Context, weights []int64, target int64) (*remote.SolveResult, error)
}

// OptimizationSolution нормализованное решение. Solution интерпретируется
// по типу задачи: перестановка городов для TSP, выбранные индексы для
// subset-sum, вершины клики, истинные переменные для 3-SAT.
type OptimizationSolution struct {
	Solution   []int `json:"solution"`
	Satisfied  bool  `json:"satisfied"`
	Iterations int   `json:"iterations"`
}

// OptimizationMetrics производные метрики для витрины. ClassicalTimeMs и
// QuantumAdvantage выводятся из размера задачи, это оценка для
// повествования, а не замер.
type OptimizationMetrics struct {
	SolutionTimeMs   float64 `json:"solutionTimeMs"`
	ClassicalTimeMs  float64 `json:"classicalTimeMs"`
	QuantumAdvantage float64 `json:"quantumAdvantage"`
	SolutionQuality  float64 `json:"solutionQuality"`
}

// Snapshot read-only модель представления для слоя презентации
type Snapshot struct {
	State             State                        `json:"state"`
	SelectedProblem   *problems.Definition         `json:"selectedProblem,omitempty"`
	Difficulty        *problems.DifficultyConfig   `json:"difficulty,omitempty"`
	TSPInstance       *generator.TSPInstance       `json:"tspInstance,omitempty"`
	SubsetSumInstance *generator.SubsetSumInstance `json:"subsetSumInstance,omitempty"`
	Solution          *OptimizationSolution        `json:"solution,omitempty"`
	Metrics           *OptimizationMetrics         `json:"metrics,omitempty"`
	IsOptimizing      bool                         `json:"isOptimizing"`
	Progress          float64                      `json:"progress"`
}

// Orchestrator машина состояний одной сессии
type Orchestrator struct {
	mu sync.Mutex

	cfg        config.ShowcaseConfig
	solver     SubsetSolver
	solveCache *cache.SolveCache
	metrics    *metrics.Metrics

	state          State
	problem        *problems.Definition
	difficulty     *problems.DifficultyConfig
	tspInstance    *generator.TSPInstance
	subsetInstance *generator.SubsetSumInstance
	solution       *OptimizationSolution
	solMetrics     *OptimizationMetrics
	progress       float64
	cancelProgress func()
	seedOverride   int64
}

// New создаёт оркестратор в состоянии Idle. solveCache может быть nil.
func New(cfg config.ShowcaseConfig, solver SubsetSolver, solveCache *cache.SolveCache) *Orchestrator {
	if cfg.ProgressTick <= 0 {
		cfg.ProgressTick = 100 * time.Millisecond
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = 1.0
	}
	if cfg.ProgressCap <= 0 || cfg.ProgressCap > 100 {
		cfg.ProgressCap = 95.0
	}
	if cfg.OnSolveError == "" {
		cfg.OnSolveError = config.OnSolveErrorFallback
	}

	return &Orchestrator{
		cfg:        cfg,
		solver:     solver,
		solveCache: solveCache,
		metrics:    metrics.Get(),
		state:      StateIdle,
	}
}

// SetSeed фиксирует seed следующих генераций. Ноль возвращает режим
// свежего seed на каждую генерацию.
func (o *Orchestrator) SetSeed(seed int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seedOverride = seed
}

// SelectProblem выбирает задачу из каталога, сбрасывает решение и метрики,
// устанавливает уровень по умолчанию и синхронно генерирует экземпляр
func (o *Orchestrator) SelectProblem(id string) error {
	def, err := problems.Lookup(id)
	if err != nil {
		return err
	}

	params, err := problems.Resolve(def.Type, def.DefaultLevel)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSolving {
		return apperror.ErrSolveInFlight
	}

	o.problem = def
	o.difficulty = &problems.DifficultyConfig{Level: def.DefaultLevel, Params: params}
	o.clearResultLocked()
	o.state = StateProblemSelected

	return o.regenerateLocked()
}

// SetDifficulty заменяет конфигурацию сложности целиком и перегенерирует
// экземпляр, отбрасывая устаревшие решение и метрики
func (o *Orchestrator) SetDifficulty(level problems.Level) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.problem == nil {
		return apperror.ErrNoProblemSelected
	}
	if o.state == StateSolving {
		return apperror.ErrSolveInFlight
	}

	params, err := problems.Resolve(o.problem.Type, level)
	if err != nil {
		return err
	}

	o.difficulty = &problems.DifficultyConfig{Level: level, Params: params}
	o.clearResultLocked()
	return o.regenerateLocked()
}

// Regenerate строит новый экземпляр с той же сложностью и свежим seed
func (o *Orchestrator) Regenerate() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.problem == nil {
		return apperror.ErrNoProblemSelected
	}
	if o.state == StateSolving {
		return apperror.ErrSolveInFlight
	}

	o.clearResultLocked()
	return o.regenerateLocked()
}

// regenerateLocked вызывается под мьютексом
func (o *Orchestrator) regenerateLocked() error {
	seed := o.nextSeedLocked()
	params := o.difficulty.Params
	start := time.Now()

	switch o.problem.Type {
	case problems.TypeTSP:
		inst, err := generator.GenerateTSP(params, seed)
		if err != nil {
			o.metrics.RecordGeneration(string(o.problem.Type), string(o.difficulty.Level), false, 0, time.Since(start))
			return err
		}
		o.tspInstance = inst
		o.subsetInstance = nil
		o.metrics.RecordGeneration(string(o.problem.Type), string(o.difficulty.Level), true, params.CityCount, time.Since(start))

	case problems.TypeSubsetSum:
		inst, err := generator.GenerateSubsetSum(params, seed, o.cfg.EnsureFeasible)
		if err != nil {
			o.metrics.RecordGeneration(string(o.problem.Type), string(o.difficulty.Level), false, 0, time.Since(start))
			return err
		}
		o.subsetInstance = inst
		o.tspInstance = nil
		o.metrics.RecordGeneration(string(o.problem.Type), string(o.difficulty.Level), true, params.ProblemSize, time.Since(start))

	default:
		// clique и 3-SAT решаются без прегенерированного экземпляра
		o.tspInstance = nil
		o.subsetInstance = nil
	}

	o.state = StateInstanceReady
	return nil
}

// nextSeedLocked возвращает seed следующей генерации
func (o *Orchestrator) nextSeedLocked() int64 {
	if o.seedOverride != 0 {
		return o.seedOverride
	}
	return o.cfg.DefaultSeed
}

// clearResultLocked отбрасывает решение, метрики и прогресс
func (o *Orchestrator) clearResultLocked() {
	o.solution = nil
	o.solMetrics = nil
	o.progress = 0
}

// Solve выполняет решение текущего экземпляра. Повторный вызов во время
// работы отклоняется: в сессии не более одного решения одновременно.
func (o *Orchestrator) Solve(ctx context.Context) error {
	o.mu.Lock()

	if o.problem == nil {
		o.mu.Unlock()
		return apperror.ErrNoProblemSelected
	}
	if o.state == StateSolving {
		o.mu.Unlock()
		return apperror.ErrSolveInFlight
	}
	if o.state != StateInstanceReady && o.state != StateSolved && o.state != StateFailedRecovered {
		o.mu.Unlock()
		return apperror.New(apperror.CodeInvalidTransition,
			fmt.Sprintf("cannot solve from state %s", o.state))
	}

	switch o.problem.Type {
	case problems.TypeTSP:
		if o.tspInstance == nil {
			o.mu.Unlock()
			return apperror.ErrNoInstance
		}
	case problems.TypeSubsetSum:
		if o.subsetInstance == nil {
			o.mu.Unlock()
			return apperror.ErrNoInstance
		}
	}

	o.clearResultLocked()
	o.state = StateSolving
	cancel := o.startProgressLocked()
	o.cancelProgress = cancel

	problemType := o.problem.Type
	params := o.difficulty.Params
	tspInst := o.tspInstance
	subsetInst := o.subsetInstance
	o.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.Solve",
		trace.WithAttributes(
			attribute.String(telemetry.AttrProblemType, string(problemType)),
		),
	)
	defer span.End()

	start := time.Now()
	solution, solMetrics, route, err := o.route(ctx, problemType, params, tspInst, subsetInst)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(ctx, err)
		o.metrics.RecordSolve(route, false, elapsed)

		if o.cfg.OnSolveError == config.OnSolveErrorSurface {
			// Ошибка отдаётся вызывающему, состояние откатывается
			o.mu.Lock()
			cancel()
			if o.state == StateSolving {
				o.progress = 0
				o.state = StateInstanceReady
			}
			o.mu.Unlock()
			return err
		}

		// Политика fallback: подставляем детерминированный ответ и
		// завершаемся как решённые
		logger.Log.Warn("Solve failed, substituting fallback",
			"problem_type", problemType,
			"error", err.Error(),
		)
		o.metrics.RecordFallback(string(problemType), string(apperror.Code(err)))
		solution, solMetrics = o.fallback(problemType, params, tspInst, subsetInst, elapsed)
		o.commit(cancel, solution, solMetrics, StateFailedRecovered)
		return nil
	}

	o.metrics.RecordSolve(route, true, elapsed)
	span.SetAttributes(
		attribute.String(telemetry.AttrSolveRoute, route),
		attribute.Bool(telemetry.AttrSatisfied, solution.Satisfied),
	)

	o.commit(cancel, solution, solMetrics, StateSolved)
	return nil
}

// commit фиксирует результат решения. Если сессию сбросили во время
// работы, результат отбрасывается и Idle не перезаписывается.
func (o *Orchestrator) commit(cancel func(), solution *OptimizationSolution, solMetrics *OptimizationMetrics, next State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cancel()
	if o.state != StateSolving {
		return
	}
	o.progress = 100
	o.solution = solution
	o.solMetrics = solMetrics
	o.state = next
}

// Reset возвращает машину в Idle. Идемпотентен; гасит тикер прогресса,
// если решение ещё идёт.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelProgress != nil {
		o.cancelProgress()
		o.cancelProgress = nil
	}

	o.problem = nil
	o.difficulty = nil
	o.tspInstance = nil
	o.subsetInstance = nil
	o.clearResultLocked()
	o.state = StateIdle
}

// Snapshot возвращает копию модели представления
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		State:             o.state,
		SelectedProblem:   o.problem,
		Difficulty:        o.difficulty,
		TSPInstance:       o.tspInstance,
		SubsetSumInstance: o.subsetInstance,
		IsOptimizing:      o.state == StateSolving,
		Progress:          o.progress,
	}

	if o.solution != nil {
		sol := *o.solution
		sol.Solution = append([]int(nil), o.solution.Solution...)
		snap.Solution = &sol
	}
	if o.solMetrics != nil {
		m := *o.solMetrics
		snap.Metrics = &m
	}
	return snap
}

// State возвращает текущее состояние
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// startProgressLocked запускает косметический тикер прогресса.
// Возвращённая функция останавливает тикер ровно один раз независимо от
// числа вызовов; утёкший тикер после сброса - нарушение инварианта.
func (o *Orchestrator) startProgressLocked() func() {
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
	}

	tick := o.cfg.ProgressTick
	step := o.cfg.ProgressStep
	ceiling := o.cfg.ProgressCap

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.mu.Lock()
				if o.state == StateSolving {
					o.progress += step
					if o.progress > ceiling {
						o.progress = ceiling
					}
				}
				o.mu.Unlock()
			}
		}
	}()

	return cancel
}
