package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// testInputs builds a 10x10 synthetic landscape at 100m resolution (1 ha per
// cell) that exercises every class rule:
//
//   - forest source cells (code 82) at (0,0)-(0,2), (0,4) and (0,6); the last
//     one sits below the adaptive NDVI-max threshold and the single cell at
//     (0,4) is removed by the 1 ha area filter
//   - low-vegetation source cells (code 102) at (2,0)-(2,3)
//   - agriculture source cells (code 73) at (4,0)-(4,4)
//   - water polygons at (6,0)-(6,1) with NDWI above the cutoff
//   - building footprints at (8,0) and (8,3); the second has NDVI max in the
//     relaxed band only, so it lands in mixed built-up
//   - a 2x2 low-NDVI-range patch at rows 6-7, cols 5-6 for bare soil
func testInputs(t *testing.T) Inputs {
	t.Helper()
	region := raster.Region{Rows: 10, Cols: 10, CellSize: 100, West: 500000, South: 5600000}

	uniform := func(v float64) *raster.Grid {
		return raster.Eval(region, func(int) float64 { return v })
	}

	landcover := uniform(0)
	for _, c := range []int{0, 1, 2, 4, 6} {
		landcover.Set(0, c, 82)
	}
	for c := 0; c < 4; c++ {
		landcover.Set(2, c, 102)
	}
	for c := 0; c < 5; c++ {
		landcover.Set(4, c, 73)
	}

	ndviMax := uniform(100)
	for _, c := range []int{0, 1, 2, 4} {
		ndviMax.Set(0, c, 0.5)
	}
	ndviMax.Set(0, 6, 0.4)
	ndviMax.Set(8, 3, 210)

	ndviMin := uniform(0)
	for c := 0; c < 4; c++ {
		ndviMin.Set(2, c, 0.6)
	}

	ndviRange := uniform(60)
	for c := 0; c < 5; c++ {
		ndviRange.Set(4, c, 100)
	}
	for _, rc := range [][2]int{{6, 5}, {6, 6}, {7, 5}, {7, 6}} {
		ndviRange.Set(rc[0], rc[1], 10)
	}

	water := raster.NewGrid(region)
	water.Set(6, 0, 1)
	water.Set(6, 1, 1)

	ndwi := uniform(0)
	ndwi.Set(6, 0, 150)
	ndwi.Set(6, 1, 150)

	buildings := raster.NewGrid(region)
	buildings.Set(8, 0, 1)
	buildings.Set(8, 3, 1)

	return Inputs{
		Red:            uniform(100),
		Green:          uniform(100),
		Blue:           uniform(100),
		Imperviousness: raster.NewGrid(region),
		Landcover:      landcover,
		Elevation:      uniform(100),
		NDVIMax:        ndviMax,
		NDVIMin:        ndviMin,
		NDVIRange:      ndviRange,
		NDWI:           ndwi,
		Coastline:      uniform(1),
		Buildings:      buildings,
		Roads:          raster.NewGrid(region),
		Water:          water,
	}
}

func candidateByClass(t *testing.T, candidates []Candidate, class Class) Candidate {
	t.Helper()
	for _, c := range candidates {
		if c.Class == class {
			return c
		}
	}
	t.Fatalf("no candidate for class %s", class.Name())
	return Candidate{}
}

func TestEvaluateAllForest(t *testing.T) {
	candidates, err := EvaluateAll(testInputs(t), DefaultParams())
	require.NoError(t, err)

	forest := candidateByClass(t, candidates, Forest)

	// The adaptive 5th percentile over the masked NDVI-max distribution
	// (0.4, 0.5, 0.5, 0.5, 0.5) is 0.42: the 0.4 cell fails the threshold
	// and the isolated survivor at (0,4) falls to the 1 ha area filter.
	assert.Equal(t, 3, forest.Pixels)
	assert.Equal(t, float64(Forest), forest.Grid.At(0, 0))
	assert.Equal(t, float64(Forest), forest.Grid.At(0, 1))
	assert.Equal(t, float64(Forest), forest.Grid.At(0, 2))
	assert.True(t, forest.Grid.IsNull(0, 4))
	assert.True(t, forest.Grid.IsNull(0, 6))
}

func TestEvaluateAllPerClass(t *testing.T) {
	candidates, err := EvaluateAll(testInputs(t), DefaultParams())
	require.NoError(t, err)
	require.Len(t, candidates, len(All))

	tests := []struct {
		class  Class
		pixels int
	}{
		{Forest, 3},
		{LowVegetation, 4},
		{Water, 2},
		{BuiltUp, 8},
		{MixedBuiltUp, 1},
		{BareSoil, 4},
		{Agriculture, 5},
	}
	for _, tc := range tests {
		t.Run(tc.class.Name(), func(t *testing.T) {
			cand := candidateByClass(t, candidates, tc.class)
			assert.Equal(t, tc.pixels, cand.Pixels)
		})
	}
}

func TestEvaluateAllMixedExcludesConfident(t *testing.T) {
	candidates, err := EvaluateAll(testInputs(t), DefaultParams())
	require.NoError(t, err)

	builtUp := candidateByClass(t, candidates, BuiltUp)
	mixed := candidateByClass(t, candidates, MixedBuiltUp)

	// The building at (8,3) exceeds the confident NDVI-max ceiling but not
	// the relaxed one; its buffer neighborhood is confidently built-up.
	assert.True(t, builtUp.Grid.IsNull(8, 3))
	assert.Equal(t, float64(MixedBuiltUp), mixed.Grid.At(8, 3))
	assert.Equal(t, float64(BuiltUp), builtUp.Grid.At(8, 2))
	assert.Equal(t, float64(BuiltUp), builtUp.Grid.At(8, 0))

	// No pixel is claimed by both rules.
	region := builtUp.Grid.Region()
	for r := 0; r < region.Rows; r++ {
		for c := 0; c < region.Cols; c++ {
			both := !builtUp.Grid.IsNull(r, c) && !mixed.Grid.IsNull(r, c)
			assert.False(t, both, "cell (%d,%d)", r, c)
		}
	}
}

func TestEvaluateAllWaterRule(t *testing.T) {
	in := testInputs(t)

	// A bright pixel never classifies as water even above the NDWI cutoff.
	in.Red.Set(6, 1, 600)
	in.Green.Set(6, 1, 600)
	in.Blue.Set(6, 1, 600)

	candidates, err := EvaluateAll(in, DefaultParams())
	require.NoError(t, err)

	water := candidateByClass(t, candidates, Water)
	assert.Equal(t, 1, water.Pixels)
	assert.Equal(t, float64(Water), water.Grid.At(6, 0))
	assert.True(t, water.Grid.IsNull(6, 1))
}

func TestEvaluateAllElevationCeiling(t *testing.T) {
	in := testInputs(t)
	in.Elevation.Set(8, 0, 1200)

	candidates, err := EvaluateAll(in, DefaultParams())
	require.NoError(t, err)

	builtUp := candidateByClass(t, candidates, BuiltUp)
	assert.True(t, builtUp.Grid.IsNull(8, 0))
	assert.Equal(t, float64(BuiltUp), builtUp.Grid.At(7, 0))
}

func TestEvaluateAllValidation(t *testing.T) {
	in := testInputs(t)
	in.NDWI = nil

	_, err := EvaluateAll(in, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingLayer)

	in = testInputs(t)
	in.Elevation = raster.NewGrid(raster.Region{Rows: 2, Cols: 2, CellSize: 100})
	_, err = EvaluateAll(in, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputValidation)
}

func TestEvaluateAllInsufficientData(t *testing.T) {
	in := testInputs(t)
	// No low-vegetation source cells anywhere: the adaptive threshold for
	// that class cannot be resolved and the whole run fails.
	region := in.Landcover.Region()
	for r := 0; r < region.Rows; r++ {
		for c := 0; c < region.Cols; c++ {
			if in.Landcover.At(r, c) == 102 {
				in.Landcover.Set(r, c, 0)
			}
		}
	}

	_, err := EvaluateAll(in, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCategoryMask(t *testing.T) {
	region := raster.Region{Rows: 1, Cols: 4, CellSize: 100}
	layer, err := raster.NewGridFrom(region, []float64{82, 83, 50, raster.Null()})
	require.NoError(t, err)

	mask := CategoryMask(layer, []int{82, 83})
	assert.Equal(t, 1.0, mask.At(0, 0))
	assert.Equal(t, 1.0, mask.At(0, 1))
	assert.True(t, mask.IsNull(0, 2))
	assert.True(t, mask.IsNull(0, 3))
}
