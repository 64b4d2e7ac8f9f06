package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

func classGrid(region raster.Region, class Class, cells ...[2]int) *raster.Grid {
	g := raster.NewGrid(region)
	for _, rc := range cells {
		g.Set(rc[0], rc[1], float64(class))
	}
	return g
}

func TestResolveExclusivity(t *testing.T) {
	region := raster.Region{Rows: 3, Cols: 3, CellSize: 100}

	// (0,0) is claimed by forest alone, (1,1) by both forest and bare soil,
	// (2,2) by bare soil alone.
	candidates := []Candidate{
		{Class: Forest, Grid: classGrid(region, Forest, [2]int{0, 0}, [2]int{1, 1})},
		{Class: BareSoil, Grid: classGrid(region, BareSoil, [2]int{1, 1}, [2]int{2, 2})},
	}

	res, err := Resolve(candidates, 0)
	require.NoError(t, err)

	assert.Equal(t, float64(Forest), res.Classification.At(0, 0))
	assert.Equal(t, float64(BareSoil), res.Classification.At(2, 2))
	// The double-claimed pixel is dropped, not arbitrated.
	assert.True(t, res.Classification.IsNull(1, 1))

	assert.Equal(t, map[Class]int{Forest: 1, BareSoil: 1}, res.Counts)
}

func TestResolveOrderIndependent(t *testing.T) {
	region := raster.Region{Rows: 2, Cols: 2, CellSize: 100}
	a := Candidate{Class: Water, Grid: classGrid(region, Water, [2]int{0, 0}, [2]int{0, 1})}
	b := Candidate{Class: BuiltUp, Grid: classGrid(region, BuiltUp, [2]int{0, 1}, [2]int{1, 0})}

	forward, err := Resolve([]Candidate{a, b}, 0)
	require.NoError(t, err)
	reverse, err := Resolve([]Candidate{b, a}, 0)
	require.NoError(t, err)

	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if forward.Classification.IsNull(r, c) {
				assert.True(t, reverse.Classification.IsNull(r, c), "cell (%d,%d)", r, c)
			} else {
				assert.Equal(t, forward.Classification.At(r, c), reverse.Classification.At(r, c), "cell (%d,%d)", r, c)
			}
		}
	}
	assert.Equal(t, forward.Counts, reverse.Counts)
}

func TestResolveEmptyCandidateList(t *testing.T) {
	_, err := Resolve(nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputValidation)
}

func TestResolveRegionMismatch(t *testing.T) {
	a := Candidate{Class: Forest, Grid: raster.NewGrid(raster.Region{Rows: 2, Cols: 2, CellSize: 100})}
	b := Candidate{Class: Water, Grid: raster.NewGrid(raster.Region{Rows: 3, Cols: 3, CellSize: 100})}
	_, err := Resolve([]Candidate{a, b}, 0)
	assert.Error(t, err)
}

func TestResolveFullLandscape(t *testing.T) {
	candidates, err := EvaluateAll(testInputs(t), DefaultParams())
	require.NoError(t, err)

	res, err := Resolve(candidates, 0)
	require.NoError(t, err)

	// The synthetic landscape has no overlapping claims, so every candidate
	// pixel survives the merge.
	want := map[Class]int{
		Forest:        3,
		LowVegetation: 4,
		Water:         2,
		BuiltUp:       8,
		MixedBuiltUp:  1,
		BareSoil:      4,
		Agriculture:   5,
	}
	assert.Equal(t, want, res.Counts)
	assert.Equal(t, 27, res.Classification.ValidCount())
}
