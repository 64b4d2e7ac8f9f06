package raster

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	region := testRegion(1, 5)
	src, err := NewGridFrom(region, []float64{0.4, 0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "fifth percentile interpolates", p: 5, want: 0.42},
		{name: "minimum", p: 0, want: 0.4},
		{name: "maximum", p: 100, want: 0.5},
		{name: "median", p: 50, want: 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Quantile(src, nil, tc.p)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestQuantileMask(t *testing.T) {
	region := testRegion(1, 4)
	src, err := NewGridFrom(region, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	mask, err := NewGridFrom(region, []float64{1, 1, 0, Null()})
	require.NoError(t, err)

	// Zero and nodata mask cells are excluded.
	got, err := Quantile(src, mask, 100)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestQuantileDeterministic(t *testing.T) {
	region := testRegion(2, 3)
	src, err := NewGridFrom(region, []float64{7, 3, 9, 1, 5, Null()})
	require.NoError(t, err)

	first, err := Quantile(src, nil, 25)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Quantile(src, nil, 25)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQuantileErrors(t *testing.T) {
	region := testRegion(1, 2)
	src, err := NewGridFrom(region, []float64{1, 2})
	require.NoError(t, err)

	_, err = Quantile(src, nil, 101)
	assert.Error(t, err)

	_, err = Quantile(NewGrid(region), nil, 50)
	assert.True(t, eris.Is(err, ErrNoData))

	empty, err := NewGridFrom(region, []float64{0, 0})
	require.NoError(t, err)
	_, err = Quantile(src, empty, 50)
	assert.True(t, eris.Is(err, ErrNoData))

	_, err = Quantile(src, NewGrid(testRegion(1, 3)), 50)
	assert.Error(t, err)
	assert.False(t, eris.Is(err, ErrNoData))
}
