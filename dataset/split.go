package dataset

import (
	"fmt"

	"github.com/yyyoichi/clusterkit/internal/shuffle"
)

// Split randomly partitions the dataset into two new datasets. The first holds
// int(fraction*n) samples and the second holds the rest.
func (d *Dataset) Split(fraction float64, seed int64) (*Dataset, *Dataset, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidFraction, fraction)
	}
	index := shuffle.Perm(d.Len(), seed)
	at := int(fraction * float64(d.Len()))
	return d.Subset(index[:at]), d.Subset(index[at:]), nil
}

// StratifiedSplit partitions a labeled dataset so that each label keeps its
// proportion in both halves. Within a label the first int(fraction*count)
// samples, after a seeded shuffle, go to the left dataset.
func (d *Dataset) StratifiedSplit(fraction float64, seed int64) (*Dataset, *Dataset, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidFraction, fraction)
	}
	strata, err := d.strata()
	if err != nil {
		return nil, nil, err
	}
	var left, right []int
	for i, stratum := range strata {
		shuffle.Shuffle(stratum, seed+int64(i))
		at := int(fraction * float64(len(stratum)))
		left = append(left, stratum[:at]...)
		right = append(right, stratum[at:]...)
	}
	shuffle.Shuffle(left, seed)
	shuffle.Shuffle(right, seed)
	return d.Subset(left), d.Subset(right), nil
}

// Folds splits the dataset into k disjoint folds of near-equal size. When the
// dataset is labeled the folds are stratified.
func (d *Dataset) Folds(k int, seed int64) ([]*Dataset, error) {
	if k < 2 || k > d.Len() {
		return nil, fmt.Errorf("fold count %d out of range [2, %d]", k, d.Len())
	}
	var order []int
	if d.Labeled() {
		strata, err := d.strata()
		if err != nil {
			return nil, err
		}
		for i, stratum := range strata {
			shuffle.Shuffle(stratum, seed+int64(i))
			order = append(order, stratum...)
		}
	} else {
		order = shuffle.Perm(d.Len(), seed)
	}
	folds := make([][]int, k)
	for i, at := range order {
		folds[i%k] = append(folds[i%k], at)
	}
	out := make([]*Dataset, k)
	for i, f := range folds {
		out[i] = d.Subset(f)
	}
	return out, nil
}

// strata groups sample indexes by label in order of first appearance.
func (d *Dataset) strata() ([][]int, error) {
	if !d.Labeled() {
		return nil, ErrUnlabeled
	}
	var (
		groups [][]int
		seen   = map[string]int{}
	)
	for i, l := range d.labels {
		g, ok := seen[l]
		if !ok {
			g = len(groups)
			seen[l] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups, nil
}
