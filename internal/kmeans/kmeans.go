package kmeans

import (
	"math"
	"math/rand"
	"slices"

	"github.com/yyyoichi/clusterkit/distance"
)

// PlusPlus picks k initial centroids from samples.
//
// The first centroid is drawn uniformly. Every next one is drawn with
// probability proportional to the squared distance to its nearest already
// chosen centroid. When every remaining sample coincides with a chosen
// centroid the draw falls back to uniform.
//
// The returned centroids are copies; samples must hold at least k vectors.
func PlusPlus(samples [][]float64, k int, dist distance.Distance, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(samples[rng.Intn(len(samples))]))

	nearest := make([]float64, len(samples))
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}
	for len(centroids) < k {
		last := centroids[len(centroids)-1]
		var total float64
		for i, s := range samples {
			d := dist.Distance(s, last)
			if d*d < nearest[i] {
				nearest[i] = d * d
			}
			total += nearest[i]
		}

		at := -1
		if total > 0 {
			r := rng.Float64() * total
			var cumulative float64
			for i, w := range nearest {
				cumulative += w
				if w > 0 && cumulative >= r {
					at = i
					break
				}
			}
		}
		// Fallback for floating point precision issues and fully coincident data.
		if at == -1 {
			at = rng.Intn(len(samples))
		}
		centroids = append(centroids, slices.Clone(samples[at]))
	}
	return centroids
}

// Nearest returns the index of the centroid closest to x and its distance.
// Ties go to the lowest index.
func Nearest(x []float64, centroids [][]float64, dist distance.Distance) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := dist.Distance(x, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}
