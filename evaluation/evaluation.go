// Package evaluation scores cluster assignments against ground-truth labels.
package evaluation

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrSizeMismatch = errors.New("predictions and labels differ in length")
)

// Metric scores predicted cluster ids against true labels.
type Metric interface {
	Score(predictions []int, labels []string) (float64, error)
}

var (
	_ Metric = Homogeneity{}
	_ Metric = Completeness{}
	_ Metric = VMeasure{}
)

// Table counts samples per predicted cluster and true label.
type Table map[int]map[string]int

// Total returns the number of samples counted in t.
func (t Table) Total() int {
	var n int
	for _, row := range t {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Clusters returns the cluster ids of t in ascending order.
func (t Table) Clusters() []int {
	return slices.Sorted(maps.Keys(t))
}

// ContingencyTable builds a Table from paired predictions and labels.
type ContingencyTable struct{}

func (ContingencyTable) Generate(predictions []int, labels []string) (Table, error) {
	if len(predictions) != len(labels) {
		return nil, fmt.Errorf("%w: %d predictions, %d labels", ErrSizeMismatch, len(predictions), len(labels))
	}
	t := make(Table)
	for i, p := range predictions {
		row, ok := t[p]
		if !ok {
			row = make(map[string]int)
			t[p] = row
		}
		row[labels[i]]++
	}
	return t, nil
}

// Homogeneity is 1 - H(labels|clusters)/H(labels). It is 1 when every
// cluster holds a single label, and 1 by convention when H(labels) is 0.
type Homogeneity struct{}

func (Homogeneity) Score(predictions []int, labels []string) (float64, error) {
	t, err := ContingencyTable{}.Generate(predictions, labels)
	if err != nil {
		return 0, err
	}
	return homogeneity(t), nil
}

// Completeness is 1 - H(clusters|labels)/H(clusters). It is 1 when every
// label falls in a single cluster.
type Completeness struct{}

func (Completeness) Score(predictions []int, labels []string) (float64, error) {
	t, err := ContingencyTable{}.Generate(predictions, labels)
	if err != nil {
		return 0, err
	}
	return completeness(t), nil
}

// VMeasure is the weighted harmonic mean of homogeneity and completeness.
// Beta above 1 weights completeness more. Zero Beta means 1.
type VMeasure struct {
	Beta float64
}

func (v VMeasure) Score(predictions []int, labels []string) (float64, error) {
	t, err := ContingencyTable{}.Generate(predictions, labels)
	if err != nil {
		return 0, err
	}
	beta := v.Beta
	if beta == 0 {
		beta = 1
	}
	h, c := homogeneity(t), completeness(t)
	if h+c == 0 {
		return 0, nil
	}
	return (1 + beta) * h * c / (beta*h + c), nil
}

func homogeneity(t Table) float64 {
	hc := entropy(labelTotals(t))
	if hc == 0 {
		return 1
	}
	return 1 - conditionalEntropy(t, false)/hc
}

func completeness(t Table) float64 {
	hk := entropy(clusterTotals(t))
	if hk == 0 {
		return 1
	}
	return 1 - conditionalEntropy(t, true)/hk
}

func labelTotals(t Table) map[string]int {
	out := make(map[string]int)
	for _, row := range t {
		for l, c := range row {
			out[l] += c
		}
	}
	return out
}

func clusterTotals(t Table) map[int]int {
	out := make(map[int]int, len(t))
	for k, row := range t {
		for _, c := range row {
			out[k] += c
		}
	}
	return out
}

// entropy returns the Shannon entropy in nats of the distribution given by counts.
func entropy[K comparable](counts map[K]int) float64 {
	var n float64
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		p = append(p, float64(c)/n)
	}
	// Sorted so the sum does not depend on map order.
	slices.Sort(p)
	return stat.Entropy(p)
}

// conditionalEntropy returns H(labels|clusters), or H(clusters|labels) when
// byLabel is set.
func conditionalEntropy(t Table, byLabel bool) float64 {
	n := float64(t.Total())
	if n == 0 {
		return 0
	}
	var terms []float64
	if byLabel {
		totals := labelTotals(t)
		for _, row := range t {
			for l, c := range row {
				terms = append(terms, -float64(c)/n*math.Log(float64(c)/float64(totals[l])))
			}
		}
	} else {
		totals := clusterTotals(t)
		for k, row := range t {
			for _, c := range row {
				terms = append(terms, -float64(c)/n*math.Log(float64(c)/float64(totals[k])))
			}
		}
	}
	slices.Sort(terms)
	var h float64
	for _, v := range terms {
		h += v
	}
	return max(h, 0)
}
