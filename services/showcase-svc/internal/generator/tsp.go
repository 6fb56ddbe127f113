// Package generator produces reproducible problem instances from
// difficulty-derived parameters and a seed.
//
// # Determinism
//
// All generation is driven by a private rand.Rand seeded from the caller's
// seed. A fixed (params, seed) pair always yields a bit-identical instance.
// Seed 0 is replaced with the current unix-nano time; callers that need
// reproducibility must pass an explicit non-zero seed.
//
// # Purity
//
// Generators have no side effects. Validation fails fast on out-of-range
// parameters and never silently clamps.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"resonance/pkg/apperror"
	"resonance/services/showcase-svc/internal/problems"
)

// planeSize is the side of the bounded square plane cities are placed on.
const planeSize = 100.0

// clusterStdDev is the Gaussian spread of cities around a cluster center.
const clusterStdDev = planeSize / 12.0

// Point2D is a city position on the plane.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TSPInstance is a generated traveling-salesman problem.
//
// Invariants: DistanceMatrix is square with dimension len(Cities),
// symmetric, with a zero diagonal. Instances are replaced wholesale on
// regeneration, never mutated in place.
type TSPInstance struct {
	Cities         []Point2D   `json:"cities"`
	DistanceMatrix [][]float64 `json:"distanceMatrix"`
	Seed           int64       `json:"seed"`
}

// GenerateTSP builds a TSP instance from the resolved difficulty params.
//
// Clustered layout draws cluster centers uniformly on the plane and places
// members with Gaussian noise around their center, clamped to the plane.
// Uniform layout samples every city independently. The full pairwise
// Euclidean distance matrix is computed once; O(n²) is acceptable at the
// designed city counts.
func GenerateTSP(params problems.Params, seed int64) (*TSPInstance, error) {
	if params.CityCount < 2 {
		return nil, apperror.NewWithField(apperror.CodeInvalidCityCount,
			fmt.Sprintf("city count must be at least 2, got %d", params.CityCount),
			"cityCount")
	}
	if params.Clustered && params.ClusterCount < 1 {
		return nil, apperror.NewWithField(apperror.CodeInvalidClusters,
			fmt.Sprintf("cluster count must be at least 1, got %d", params.ClusterCount),
			"clusterCount")
	}

	seed = effectiveSeed(seed)
	rng := rand.New(rand.NewSource(seed))

	var cities []Point2D
	if params.Clustered {
		cities = clusteredCities(rng, params.CityCount, params.ClusterCount)
	} else {
		cities = uniformCities(rng, params.CityCount)
	}

	return &TSPInstance{
		Cities:         cities,
		DistanceMatrix: distanceMatrix(cities),
		Seed:           seed,
	}, nil
}

// uniformCities samples cities independently over the bounded plane.
func uniformCities(rng *rand.Rand, n int) []Point2D {
	cities := make([]Point2D, n)
	for i := range cities {
		cities[i] = Point2D{
			X: rng.Float64() * planeSize,
			Y: rng.Float64() * planeSize,
		}
	}
	return cities
}

// clusteredCities partitions n cities among k clusters round-robin.
// Centers are drawn first so the assignment of cities to clusters is
// stable for a given seed.
func clusteredCities(rng *rand.Rand, n, k int) []Point2D {
	centers := make([]Point2D, k)
	for i := range centers {
		centers[i] = Point2D{
			X: rng.Float64() * planeSize,
			Y: rng.Float64() * planeSize,
		}
	}

	cities := make([]Point2D, n)
	for i := range cities {
		center := centers[i%k]
		cities[i] = Point2D{
			X: clamp(center.X+rng.NormFloat64()*clusterStdDev, 0, planeSize),
			Y: clamp(center.Y+rng.NormFloat64()*clusterStdDev, 0, planeSize),
		}
	}
	return cities
}

// distanceMatrix computes the full symmetric Euclidean matrix.
func distanceMatrix(cities []Point2D) [][]float64 {
	n := len(cities)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(cities[i], cities[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix
}

func euclidean(a, b Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// effectiveSeed substitutes wall-clock time for the zero seed.
func effectiveSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}
