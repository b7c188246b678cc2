package clusterkit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/clusterkit/dataset"
)

// blobs draws perSize samples around every center with the given spread and
// labels them by center index.
func blobs(t *testing.T, centers [][]float64, perSize int, spread float64, seed int64) *dataset.Dataset {
	t.Helper()
	rd := rand.New(rand.NewSource(seed))
	var (
		samples [][]float64
		labels  []string
	)
	for c, center := range centers {
		for range perSize {
			s := make([]float64, len(center))
			for d := range s {
				s[d] = center[d] + rd.NormFloat64()*spread
			}
			samples = append(samples, s)
			labels = append(labels, string(rune('a'+c)))
		}
	}
	ds, err := dataset.NewLabeled(samples, labels)
	require.NoError(t, err)
	return ds
}

func tenPoints(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.NewLabeled([][]float64{
		{0, 0}, {0.5, 0.2}, {-0.3, 0.4}, {0.2, -0.5}, {-0.4, -0.1},
		{10, 10}, {10.4, 9.8}, {9.7, 10.3}, {10.2, 10.5}, {9.6, 9.7},
	}, []string{"a", "a", "a", "a", "a", "b", "b", "b", "b", "b"})
	require.NoError(t, err)
	return ds
}
