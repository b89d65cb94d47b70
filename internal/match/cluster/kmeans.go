// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/wayfarer-travel/matchcore/internal/match"
)

// KMeansConfig contains configuration for the k-means model.
type KMeansConfig struct {
	// MaxIterations bounds the Lloyd iteration count.
	// Default: 100.
	MaxIterations int

	// Seed drives centroid initialization. A fixed seed makes cluster
	// assignment reproducible for a given population.
	// Default: 42.
	Seed int64
}

// DefaultKMeansConfig returns default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: 100,
		Seed:          42,
	}
}

// KMeans standardizes feature vectors against the training population
// and partitions them into k clusters. A fitted model is effectively
// immutable; the engine swaps whole models on retrain, so predictions
// are deterministic for a given fitted model and feature vector.
type KMeans struct {
	config KMeansConfig

	mu        sync.RWMutex
	trained   bool
	k         int
	means     []float64
	stddevs   []float64
	centroids [][]float64
}

// NewKMeans creates a fresh untrained model.
func NewKMeans(cfg KMeansConfig) *KMeans {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	return &KMeans{config: cfg}
}

// Factory returns a match.ModelFactory producing fresh models with
// this configuration, one per training run.
func Factory(cfg KMeansConfig) match.ModelFactory {
	return func() match.ClusterModel {
		return NewKMeans(cfg)
	}
}

// Clusters returns the fitted cluster count.
func (m *KMeans) Clusters() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.k
}

// Fit standardizes the population's feature vectors and runs Lloyd's
// algorithm. The caller is responsible for degrading k when the
// population is smaller than the requested count; Fit still clamps k
// to the population size as a final guard.
func (m *KMeans) Fit(ctx context.Context, users []*match.User, k int) error {
	if len(users) == 0 {
		return match.ErrEmptyPopulation
	}
	if k < 1 {
		return fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if k > len(users) {
		k = len(users)
	}

	vectors := make([][]float64, len(users))
	for i, u := range users {
		vectors[i] = Vector(u)
	}

	means, stddevs := standardization(vectors)
	for i := range vectors {
		vectors[i] = standardize(vectors[i], means, stddevs)
	}

	rng := rand.New(rand.NewSource(m.config.Seed)) //nolint:gosec // deterministic clustering, not cryptography
	centroids := initialCentroids(vectors, k, rng)

	assignment := make([]int, len(vectors))
	for iter := 0; iter < m.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		changed := assignToNearest(vectors, centroids, assignment)
		recomputeCentroids(vectors, centroids, assignment, rng)

		if !changed && iter > 0 {
			break
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.k = k
	m.means = means
	m.stddevs = stddevs
	m.centroids = centroids
	m.trained = true
	return nil
}

// Predict standardizes the user's feature vector with the fitted
// parameters and returns the nearest centroid index. Calling Predict
// before Fit is a caller programming error and returns
// match.ErrNotTrained.
func (m *KMeans) Predict(u *match.User) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.trained {
		return 0, match.ErrNotTrained
	}

	v := standardize(Vector(u), m.means, m.stddevs)
	return nearestCentroid(v, m.centroids), nil
}

// standardization computes the per-feature population mean and standard
// deviation. Zero-variance features get a standard deviation of 1 so
// standardization stays finite.
func standardization(vectors [][]float64) (means, stddevs []float64) {
	dims := len(vectors[0])
	means = make([]float64, dims)
	stddevs = make([]float64, dims)

	for _, v := range vectors {
		for d, x := range v {
			means[d] += x
		}
	}
	for d := range means {
		means[d] /= float64(len(vectors))
	}

	for _, v := range vectors {
		for d, x := range v {
			diff := x - means[d]
			stddevs[d] += diff * diff
		}
	}
	for d := range stddevs {
		stddevs[d] = math.Sqrt(stddevs[d] / float64(len(vectors)))
		if stddevs[d] == 0 {
			stddevs[d] = 1
		}
	}

	return means, stddevs
}

// standardize returns the z-scored copy of a vector.
func standardize(v, means, stddevs []float64) []float64 {
	out := make([]float64, len(v))
	for d, x := range v {
		out[d] = (x - means[d]) / stddevs[d]
	}
	return out
}

// initialCentroids samples k distinct points as starting centroids.
func initialCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}
	return centroids
}

// assignToNearest assigns every vector to its nearest centroid.
// Reports whether any assignment changed.
func assignToNearest(vectors, centroids [][]float64, assignment []int) bool {
	changed := false
	for i, v := range vectors {
		nearest := nearestCentroid(v, centroids)
		if assignment[i] != nearest {
			assignment[i] = nearest
			changed = true
		}
	}
	return changed
}

// recomputeCentroids moves each centroid to the mean of its members.
// An empty cluster is reseeded with a random point so k is preserved.
func recomputeCentroids(vectors, centroids [][]float64, assignment []int, rng *rand.Rand) {
	dims := len(vectors[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}

	for i, v := range vectors {
		c := assignment[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += x
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			centroids[c] = append([]float64(nil), vectors[rng.Intn(len(vectors))]...)
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

// nearestCentroid returns the index of the closest centroid by squared
// Euclidean distance, preferring the lowest index on exact ties.
func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(v, centroid); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

// Ensure interface compliance.
var _ match.ClusterModel = (*KMeans)(nil)
