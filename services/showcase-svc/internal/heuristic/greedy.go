// Package heuristic implements the greedy nearest-neighbor tour
// constructor used both as the classical baseline and as the local
// fallback when the remote solver is unavailable.
//
// The construction is deterministic: ties on distance are broken by the
// lowest city index. It never guarantees optimality; callers must report
// its results with SolutionQuality below 1.
package heuristic

import (
	"fmt"
	"math"

	"resonance/pkg/apperror"
)

// GreedyTour builds a nearest-neighbor tour over the distance matrix.
//
// The tour starts at city 0 and at each step moves to the closest
// unvisited city. The returned slice is a permutation of [0..n-1]; the
// closing edge back to city 0 is implicit and not stored.
//
// Complexity is O(n²) for n cities.
func GreedyTour(dist [][]float64) ([]int, error) {
	if err := validateMatrix(dist); err != nil {
		return nil, err
	}

	n := len(dist)
	tour := make([]int, 0, n)
	visited := make([]bool, n)

	current := 0
	tour = append(tour, current)
	visited[current] = true

	for len(tour) < n {
		next := -1
		best := math.Inf(1)
		for city := 0; city < n; city++ {
			if visited[city] {
				continue
			}
			// Strict less keeps the lowest index on equal distances
			if dist[current][city] < best {
				best = dist[current][city]
				next = city
			}
		}
		if next < 0 {
			return nil, apperror.New(apperror.CodeHeuristicFailed,
				"no unvisited city reachable")
		}
		tour = append(tour, next)
		visited[next] = true
		current = next
	}

	return tour, nil
}

// TourLength sums the tour edges including the implicit closing edge.
func TourLength(dist [][]float64, tour []int) float64 {
	if len(tour) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < len(tour)-1; i++ {
		total += dist[tour[i]][tour[i+1]]
	}
	total += dist[tour[len(tour)-1]][tour[0]]
	return total
}

// ValidatePermutation checks that perm visits every city in [0..n-1]
// exactly once.
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return apperror.New(apperror.CodeInvalidTour,
			fmt.Sprintf("tour length %d, expected %d", len(perm), n))
	}
	seen := make([]bool, n)
	for _, city := range perm {
		if city < 0 || city >= n {
			return apperror.New(apperror.CodeInvalidTour,
				fmt.Sprintf("city index %d out of range [0,%d)", city, n))
		}
		if seen[city] {
			return apperror.New(apperror.CodeInvalidTour,
				fmt.Sprintf("city %d visited twice", city))
		}
		seen[city] = true
	}
	return nil
}

// validateMatrix rejects empty and non-square matrices.
func validateMatrix(dist [][]float64) error {
	if len(dist) == 0 {
		return apperror.New(apperror.CodeEmptyMatrix, "distance matrix is empty")
	}
	n := len(dist)
	for i, row := range dist {
		if len(row) != n {
			return apperror.New(apperror.CodeAsymmetricMatrix,
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), n))
		}
	}
	return nil
}
