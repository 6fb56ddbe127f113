package generator

import (
	"fmt"
	"math/rand"

	"resonance/pkg/apperror"
	"resonance/services/showcase-svc/internal/problems"
)

// SubsetSumInstance is a generated subset-sum problem.
//
// Every weight is a positive integer bounded by the difficulty's MaxWeight.
// Without the feasibility mode there is no guarantee a subset sums exactly
// to Target; downstream display logic branches on the achieved sum instead
// of assuming a perfect match.
type SubsetSumInstance struct {
	Weights []int64 `json:"weights"`
	Target  int64   `json:"target"`
	Seed    int64   `json:"seed"`
}

// GenerateSubsetSum builds a subset-sum instance from the resolved params.
//
// Weights are independent uniform integers in [1, MaxWeight]. The target is
// uniform in TargetRange, or, when ensureFeasible is set, the sum of a
// random non-empty subset of the generated weights. In the feasible mode
// TargetRange is advisory only; the target is never clamped back into it.
func GenerateSubsetSum(params problems.Params, seed int64, ensureFeasible bool) (*SubsetSumInstance, error) {
	if params.ProblemSize < 1 {
		return nil, apperror.NewWithField(apperror.CodeInvalidSetSize,
			fmt.Sprintf("problem size must be at least 1, got %d", params.ProblemSize),
			"problemSize")
	}
	if params.MaxWeight < 1 {
		return nil, apperror.NewWithField(apperror.CodeInvalidWeightBound,
			fmt.Sprintf("max weight must be at least 1, got %d", params.MaxWeight),
			"maxWeight")
	}
	if params.TargetRange[0] > params.TargetRange[1] {
		return nil, apperror.NewWithField(apperror.CodeInvalidTargetRange,
			fmt.Sprintf("inverted target range [%d, %d]", params.TargetRange[0], params.TargetRange[1]),
			"targetRange")
	}

	seed = effectiveSeed(seed)
	rng := rand.New(rand.NewSource(seed))

	weights := make([]int64, params.ProblemSize)
	for i := range weights {
		weights[i] = 1 + rng.Int63n(params.MaxWeight)
	}

	var target int64
	if ensureFeasible {
		target = feasibleTarget(rng, weights)
	} else {
		span := params.TargetRange[1] - params.TargetRange[0] + 1
		target = params.TargetRange[0] + rng.Int63n(span)
	}

	return &SubsetSumInstance{
		Weights: weights,
		Target:  target,
		Seed:    seed,
	}, nil
}

// feasibleTarget returns the sum of a random non-empty subset, so that at
// least one exact certificate exists for the instance.
func feasibleTarget(rng *rand.Rand, weights []int64) int64 {
	var sum int64
	picked := false
	for _, w := range weights {
		if rng.Intn(2) == 1 {
			sum += w
			picked = true
		}
	}
	if !picked {
		// Degenerate draw: fall back to a single random element
		sum = weights[rng.Intn(len(weights))]
	}
	return sum
}
