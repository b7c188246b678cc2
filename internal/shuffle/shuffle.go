package shuffle

import (
	"math/rand"
)

// Shuffle permutes data in place. The same seed always yields the same order.
func Shuffle[T any](data []T, seed int64) {
	rd := rand.New(rand.NewSource(seed))
	rd.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})
}

// Perm returns a seeded permutation of [0, n).
func Perm(n int, seed int64) []int {
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	Shuffle(index, seed)
	return index
}
