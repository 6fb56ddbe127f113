package orchestrator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resonance/pkg/apperror"
	"resonance/pkg/cache"
	"resonance/pkg/config"
	"resonance/pkg/logger"
	"resonance/services/showcase-svc/internal/problems"
	"resonance/services/showcase-svc/internal/remote"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// fakeSolver управляемый решатель для тестов
type fakeSolver struct {
	result  *remote.SolveResult
	err     error
	delay   time.Duration
	calls   int
	started chan struct{}
}

func (f *fakeSolver) Solve(ctx context.Context, weights []int64, target int64) (*remote.SolveResult, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, apperror.Wrap(ctx.Err(), apperror.CodeSolveCancelled, "cancelled")
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testConfig() config.ShowcaseConfig {
	return config.ShowcaseConfig{
		ProgressTick:   5 * time.Millisecond,
		ProgressStep:   10,
		ProgressCap:    95,
		OnSolveError:   config.OnSolveErrorFallback,
		EnsureFeasible: true,
		DefaultSeed:    12345,
	}
}

func TestSelectProblem_GeneratesInstance(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)

	err := o.SelectProblem("tsp")
	require.NoError(t, err)

	snap := o.Snapshot()
	assert.Equal(t, StateInstanceReady, snap.State)
	require.NotNil(t, snap.SelectedProblem)
	assert.Equal(t, "tsp", snap.SelectedProblem.ID)
	require.NotNil(t, snap.Difficulty)
	assert.Equal(t, problems.LevelBeginner, snap.Difficulty.Level)
	require.NotNil(t, snap.TSPInstance)
	assert.Len(t, snap.TSPInstance.Cities, 8)
	assert.Nil(t, snap.SubsetSumInstance)
	assert.Nil(t, snap.Solution)
}

func TestSelectProblem_Unknown(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)

	err := o.SelectProblem("halting")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnknownProblemType, apperror.Code(err))
	assert.Equal(t, StateIdle, o.State())
}

func TestSetDifficulty_ReplacesInstance(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("tsp"))

	err := o.SetDifficulty(problems.LevelExpert)
	require.NoError(t, err)

	snap := o.Snapshot()
	assert.Equal(t, problems.LevelExpert, snap.Difficulty.Level)
	// Эксперт - 40 городов, равномерное распределение
	assert.Len(t, snap.TSPInstance.Cities, 40)
	assert.Nil(t, snap.Solution, "смена сложности должна отбрасывать решение")
	assert.Nil(t, snap.Metrics)
}

func TestSetDifficulty_NoProblem(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)

	err := o.SetDifficulty(problems.LevelAdvanced)
	assert.Equal(t, apperror.CodeNoProblemSelected, apperror.Code(err))
}

func TestRegenerate_NewInstance(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	first := o.Snapshot().SubsetSumInstance
	require.NotNil(t, first)

	o.SetSeed(99)
	require.NoError(t, o.Regenerate())

	second := o.Snapshot().SubsetSumInstance
	require.NotNil(t, second)
	assert.NotEqual(t, first.Weights, second.Weights)
	assert.Equal(t, StateInstanceReady, o.State())
}

func TestSolve_SubsetSumRemote(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	inst := o.Snapshot().SubsetSumInstance
	require.NotNil(t, inst)

	// Индексы с суммой, равной цели: решение должно пометиться выполненным
	indices, ok := pickExactSubset(inst.Weights, inst.Target)
	require.True(t, ok, "генерация с ensure_feasible должна давать достижимую цель")

	solver := &fakeSolver{result: &remote.SolveResult{Indices: indices, Feasible: true, Iterations: 7}}
	o.solver = solver

	err := o.Solve(context.Background())
	require.NoError(t, err)

	snap := o.Snapshot()
	assert.Equal(t, StateSolved, snap.State)
	require.NotNil(t, snap.Solution)
	assert.True(t, snap.Solution.Satisfied)
	assert.Equal(t, indices, snap.Solution.Solution)
	assert.Equal(t, 7, snap.Solution.Iterations)
	assert.Equal(t, 100.0, snap.Progress)
	require.NotNil(t, snap.Metrics)
	assert.Greater(t, snap.Metrics.QuantumAdvantage, 1.0)
}

func TestSolve_SubsetSumMismatch(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	// Решатель вернул пустой набор: сумма ноль никогда не равна цели
	solver := &fakeSolver{result: &remote.SolveResult{Indices: []int{}, Feasible: true}}
	o.solver = solver

	require.NoError(t, o.Solve(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, StateSolved, snap.State)
	assert.False(t, snap.Solution.Satisfied)
	assert.Less(t, snap.Metrics.SolutionQuality, 1.0)
}

func TestSolve_FallbackOnError(t *testing.T) {
	o := New(testConfig(), &fakeSolver{err: apperror.ErrSolverUnavailable}, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	err := o.Solve(context.Background())
	require.NoError(t, err, "политика fallback не отдаёт ошибку наружу")

	snap := o.Snapshot()
	assert.Equal(t, StateFailedRecovered, snap.State)
	require.NotNil(t, snap.Solution)
	assert.True(t, snap.Solution.Satisfied, "заменяющее решение всегда выполнено")
	assert.Equal(t, 100.0, snap.Progress)

	// Жадный набор не превышает цель
	inst := snap.SubsetSumInstance
	var sum int64
	for _, i := range snap.Solution.Solution {
		sum += inst.Weights[i]
	}
	assert.LessOrEqual(t, sum, inst.Target)
}

func TestSolve_SurfaceOnError(t *testing.T) {
	cfg := testConfig()
	cfg.OnSolveError = config.OnSolveErrorSurface
	o := New(cfg, &fakeSolver{err: apperror.ErrSolverUnavailable}, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	err := o.Solve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSolverUnavailable, apperror.Code(err))

	snap := o.Snapshot()
	assert.Equal(t, StateInstanceReady, snap.State)
	assert.Nil(t, snap.Solution)
	assert.Equal(t, 0.0, snap.Progress)
}

func TestSolve_InFlight(t *testing.T) {
	started := make(chan struct{})
	solver := &fakeSolver{
		result:  &remote.SolveResult{Indices: []int{0}},
		delay:   100 * time.Millisecond,
		started: started,
	}
	o := New(testConfig(), solver, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	done := make(chan error, 1)
	go func() { done <- o.Solve(context.Background()) }()

	<-started
	err := o.Solve(context.Background())
	assert.Equal(t, apperror.CodeSolveInFlight, apperror.Code(err))

	require.NoError(t, <-done)
	assert.Equal(t, 1, solver.calls)
}

func TestSolve_NoProblem(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)

	err := o.Solve(context.Background())
	assert.Equal(t, apperror.CodeNoProblemSelected, apperror.Code(err))
}

func TestSolve_TSPGreedy(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("tsp"))

	require.NoError(t, o.Solve(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, StateSolved, snap.State)
	require.NotNil(t, snap.Solution)
	assert.True(t, snap.Solution.Satisfied)
	assert.Len(t, snap.Solution.Solution, 8)

	// Маршрут - перестановка городов
	seen := make(map[int]bool)
	for _, c := range snap.Solution.Solution {
		assert.False(t, seen[c])
		seen[c] = true
	}

	assert.Less(t, snap.Metrics.SolutionQuality, 1.0)
}

func TestSolve_SimulatedClique(t *testing.T) {
	cfg := testConfig()
	o := New(cfg, &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("clique"))

	snap := o.Snapshot()
	assert.Equal(t, StateInstanceReady, snap.State)
	assert.Nil(t, snap.TSPInstance)
	assert.Nil(t, snap.SubsetSumInstance)

	require.NoError(t, o.Solve(context.Background()))

	snap = o.Snapshot()
	assert.Equal(t, StateSolved, snap.State)
	assert.True(t, snap.Solution.Satisfied)
	assert.NotEmpty(t, snap.Solution.Solution)
}

func TestSolve_ProgressCapped(t *testing.T) {
	cfg := testConfig()
	cfg.ProgressTick = 2 * time.Millisecond
	cfg.ProgressStep = 30
	cfg.ProgressCap = 60

	started := make(chan struct{})
	solver := &fakeSolver{
		result:  &remote.SolveResult{Indices: []int{0}},
		delay:   80 * time.Millisecond,
		started: started,
	}
	o := New(cfg, solver, nil)
	require.NoError(t, o.SelectProblem("subset_sum"))

	done := make(chan error, 1)
	go func() { done <- o.Solve(context.Background()) }()

	<-started
	time.Sleep(40 * time.Millisecond)

	snap := o.Snapshot()
	assert.True(t, snap.IsOptimizing)
	assert.Greater(t, snap.Progress, 0.0)
	assert.LessOrEqual(t, snap.Progress, 60.0, "прогресс не должен превышать потолок до ответа")

	require.NoError(t, <-done)
	assert.Equal(t, 100.0, o.Snapshot().Progress)
}

func TestSolve_CacheHit(t *testing.T) {
	solveCache := cache.NewSolveCache(cache.NewMemoryCache(nil), time.Minute)
	solver := &fakeSolver{result: &remote.SolveResult{Indices: []int{0, 1}, Feasible: true}}
	o := New(testConfig(), solver, solveCache)
	require.NoError(t, o.SelectProblem("subset_sum"))

	require.NoError(t, o.Solve(context.Background()))
	require.NoError(t, o.Solve(context.Background()))

	assert.Equal(t, 1, solver.calls, "повторное решение того же экземпляра должно идти из кэша")
	assert.Equal(t, []int{0, 1}, o.Snapshot().Solution.Solution)
}

func TestReset_Idempotent(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("tsp"))
	require.NoError(t, o.Solve(context.Background()))

	o.Reset()
	o.Reset()

	snap := o.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.SelectedProblem)
	assert.Nil(t, snap.Difficulty)
	assert.Nil(t, snap.TSPInstance)
	assert.Nil(t, snap.Solution)
	assert.Equal(t, 0.0, snap.Progress)
}

func TestSnapshot_CopiesSolution(t *testing.T) {
	o := New(testConfig(), &fakeSolver{}, nil)
	require.NoError(t, o.SelectProblem("tsp"))
	require.NoError(t, o.Solve(context.Background()))

	snap := o.Snapshot()
	snap.Solution.Solution[0] = -1

	assert.NotEqual(t, -1, o.Snapshot().Solution.Solution[0])
}

// pickExactSubset находит подмножество с точной суммой перебором по маске.
// Тестовые экземпляры маленькие, полный перебор укладывается в миллисекунды.
func pickExactSubset(weights []int64, target int64) ([]int, bool) {
	n := len(weights)
	if n > 20 {
		n = 20
	}
	for mask := 1; mask < 1<<n; mask++ {
		var sum int64
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sum += weights[i]
			}
		}
		if sum == target {
			var indices []int
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					indices = append(indices, i)
				}
			}
			return indices, true
		}
	}
	return nil, false
}
