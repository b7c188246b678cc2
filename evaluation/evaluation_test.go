package evaluation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContingencyTable(t *testing.T) {
	table, err := ContingencyTable{}.Generate(
		[]int{0, 0, 1, 1, 1, 2},
		[]string{"red", "red", "blue", "red", "blue", "green"},
	)
	require.NoError(t, err)
	assert.Equal(t, Table{
		0: {"red": 2},
		1: {"blue": 2, "red": 1},
		2: {"green": 1},
	}, table)
	assert.Equal(t, 6, table.Total())
	assert.Equal(t, []int{0, 1, 2}, table.Clusters())

	b, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"0":{"red":2},"1":{"blue":2,"red":1},"2":{"green":1}}`, string(b))

	_, err = ContingencyTable{}.Generate([]int{0}, nil)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestHomogeneity(t *testing.T) {
	test := []struct {
		name   string
		pred   []int
		labels []string
		want   float64
	}{
		{"perfect partition", []int{0, 0, 1, 1}, []string{"a", "a", "b", "b"}, 1},
		{"perfect partition, permuted ids", []int{3, 3, 0, 0}, []string{"a", "a", "b", "b"}, 1},
		{"over-split stays homogeneous", []int{0, 1, 2, 3}, []string{"a", "a", "b", "b"}, 1},
		{"single label", []int{0, 1, 0, 1}, []string{"a", "a", "a", "a"}, 1},
		{"empty", nil, nil, 1},
		{"single cluster", []int{0, 0, 0, 0}, []string{"a", "a", "b", "b"}, 0},
		{"independent", []int{0, 1, 0, 1}, []string{"a", "a", "b", "b"}, 0},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Homogeneity{}.Score(tt.pred, tt.labels)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	got, err := Homogeneity{}.Score([]int{0, 0, 1, 1, 1, 1}, []string{"a", "a", "a", "b", "b", "b"})
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)

	_, err = Homogeneity{}.Score([]int{0, 1}, []string{"a"})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestCompletenessAndVMeasure(t *testing.T) {
	pred := []int{0, 1, 2, 3}
	labels := []string{"a", "a", "b", "b"}

	c, err := Completeness{}.Score(pred, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c, 1e-12)

	v, err := VMeasure{}.Score(pred, labels)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, v, 1e-12)

	weighted, err := VMeasure{Beta: 2}.Score(pred, labels)
	require.NoError(t, err)
	assert.InDelta(t, 3*0.5/2.5, weighted, 1e-12)

	v, err = VMeasure{}.Score([]int{0, 0, 0, 0}, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12, "homogeneity 0 and completeness 1")
}
