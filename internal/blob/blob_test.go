package blob

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestBlobSample(t *testing.T) {
	b := Blob{Center: []float64{10, -5}, Stddev: 2}
	got := b.Sample(4000, rand.NewPCG(1, 2))
	require.Len(t, got, 4000)

	for j, c := range b.Center {
		col := make([]float64, len(got))
		for i := range got {
			col[i] = got[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		assert.InDelta(t, c, mean, 0.2)
		assert.InDelta(t, b.Stddev, std, 0.2)
	}

	flat := Blob{Center: []float64{1, 2}}.Sample(3, rand.NewPCG(1, 2))
	assert.Equal(t, [][]float64{{1, 2}, {1, 2}, {1, 2}}, flat, "zero stddev")
}

func TestNewAgglomerate(t *testing.T) {
	test := []struct {
		name    string
		names   []string
		blobs   []Blob
		weights []float64
		wantErr bool
	}{
		{"ok", []string{"a", "b"}, []Blob{{Center: []float64{0}}, {Center: []float64{1}}}, []float64{1, 2}, false},
		{"empty", nil, nil, nil, true},
		{"count mismatch", []string{"a"}, []Blob{{Center: []float64{0}}}, []float64{1, 1}, true},
		{"dimension mismatch", []string{"a", "b"}, []Blob{{Center: []float64{0}}, {Center: []float64{0, 1}}}, []float64{1, 1}, true},
		{"negative stddev", []string{"a"}, []Blob{{Center: []float64{0}, Stddev: -1}}, []float64{1}, true},
		{"zero weights", []string{"a"}, []Blob{{Center: []float64{0}}}, []float64{0}, true},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAgglomerate(tt.names, tt.blobs, tt.weights)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBlob)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerate(t *testing.T) {
	a, err := NewAgglomerate(
		[]string{"low", "high"},
		[]Blob{{Center: []float64{0, 0}, Stddev: 1}, {Center: []float64{100, 100}, Stddev: 1}},
		[]float64{1, 3},
	)
	require.NoError(t, err)

	ds, err := a.Generate(100, 9)
	require.NoError(t, err)
	assert.Equal(t, 100, ds.Len())
	assert.Equal(t, 2, ds.Dim())

	count := map[string]int{}
	for i, l := range ds.Labels() {
		count[l]++
		if l == "high" {
			assert.Greater(t, ds.Sample(i)[0], 50.0)
		} else {
			assert.Less(t, ds.Sample(i)[0], 50.0)
		}
	}
	assert.Equal(t, map[string]int{"low": 25, "high": 75}, count)

	again, err := a.Generate(100, 9)
	require.NoError(t, err)
	assert.Equal(t, ds.Samples(), again.Samples(), "same seed")

	other, err := a.Generate(100, 10)
	require.NoError(t, err)
	assert.NotEqual(t, ds.Samples(), other.Samples())
}

func TestColors(t *testing.T) {
	c := Colors()
	require.NotNil(t, c)
	assert.Len(t, c.Names(), 10)

	ds, err := c.Generate(5000, 1)
	require.NoError(t, err)
	assert.Equal(t, 5000, ds.Len())
	assert.Equal(t, 3, ds.Dim())
}
