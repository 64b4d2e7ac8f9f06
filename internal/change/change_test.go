package change

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/raster"
)

// changePair builds two 4x4 classifications at 100m resolution that agree
// everywhere except (1,1), which turns from forest into agriculture.
func changePair(t *testing.T) (*raster.Grid, *raster.Grid) {
	t.Helper()
	region := raster.Region{Rows: 4, Cols: 4, CellSize: 100, West: 500000, South: 5600000}
	t1 := uniformGrid(region, float64(classify.Forest))
	t2 := t1.Clone()
	t2.Set(1, 1, float64(classify.Agriculture))
	return t1, t2
}

func TestPairCode(t *testing.T) {
	t1, t2 := changePair(t)

	raw, err := PairCode(t1, t2)
	require.NoError(t, err)

	assert.Equal(t, 0.0, raw.At(0, 0))
	assert.Equal(t, 1060.0, raw.At(1, 1))
}

func TestPairCodeNodataPropagates(t *testing.T) {
	region := raster.Region{Rows: 1, Cols: 2, CellSize: 100}
	t1, err := raster.NewGridFrom(region, []float64{10, raster.Null()})
	require.NoError(t, err)
	t2, err := raster.NewGridFrom(region, []float64{20, 20})
	require.NoError(t, err)

	raw, err := PairCode(t1, t2)
	require.NoError(t, err)
	assert.Equal(t, 1020.0, raw.At(0, 0))
	assert.True(t, raw.IsNull(0, 1))
}

func TestPairCodeRegionMismatch(t *testing.T) {
	a := raster.NewGrid(raster.Region{Rows: 2, Cols: 2, CellSize: 100})
	b := raster.NewGrid(raster.Region{Rows: 3, Cols: 3, CellSize: 100})

	_, err := PairCode(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrInputValidation)
}

func TestDetectDirections(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5})
	require.NoError(t, err)

	forest := product.PerClass[classify.Forest]
	agr := product.PerClass[classify.Agriculture]
	require.NotNil(t, forest)
	require.NotNil(t, agr)

	// The changed pixel held forest at time 1 and agriculture at time 2.
	assert.Equal(t, float64(Lost), forest.At(1, 1))
	assert.Equal(t, float64(Gained), agr.At(1, 1))
	assert.Equal(t, 1, forest.ValidCount())
	assert.Equal(t, 1, agr.ValidCount())

	// Unchanged classes produce empty rasters.
	assert.Equal(t, 0, product.PerClass[classify.Water].ValidCount())
}

func TestDetectGainGate(t *testing.T) {
	t1, t2 := changePair(t)

	// Confidence at the changed pixel stays below the threshold, so the
	// change is suppressed.
	gain := uniformGrid(t1.Region(), 0.3)

	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5, EmitTotal: true})
	require.NoError(t, err)

	assert.Equal(t, 0, product.PerClass[classify.Forest].ValidCount())
	assert.Equal(t, 0, product.PerClass[classify.Agriculture].ValidCount())
	require.NotNil(t, product.Total)
	assert.Equal(t, 0.0, product.Total.At(1, 1))
}

func TestDetectThresholdIsExclusive(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 0.5)

	// Confidence equal to the threshold does not pass.
	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0, product.PerClass[classify.Forest].ValidCount())
}

func TestDetectMinArea(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	// The single changed cell covers 1 ha and fails a 1.5 ha floor.
	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 0, product.PerClass[classify.Forest].ValidCount())
}

func TestDetectModeFilter(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	// Majority filtering absorbs the isolated changed pixel into the
	// unchanged neighborhood before gating.
	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5, ModeWindow: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, product.PerClass[classify.Forest].ValidCount())
	assert.Equal(t, 0, product.PerClass[classify.Agriculture].ValidCount())
}

func TestDetectEmitTotal(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	product, err := Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5, EmitTotal: true})
	require.NoError(t, err)
	require.NotNil(t, product.Total)
	assert.Equal(t, 1060.0, product.Total.At(1, 1))
	assert.Equal(t, 0.0, product.Total.At(0, 0))

	// Without the flag no total raster is produced.
	product, err = Detect(t1, t2, gain, Options{GainThreshold: 0.5, MinAreaHa: 0.5})
	require.NoError(t, err)
	assert.Nil(t, product.Total)
}

func TestDetectClassSelection(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	product, err := Detect(t1, t2, gain, Options{
		GainThreshold: 0.5,
		MinAreaHa:     0.5,
		Classes:       []classify.Class{classify.Forest},
	})
	require.NoError(t, err)
	assert.Len(t, product.PerClass, 1)
	assert.Contains(t, product.PerClass, classify.Forest)
}

func TestDetectValidation(t *testing.T) {
	t1, t2 := changePair(t)
	gain := uniformGrid(t1.Region(), 1)

	_, err := Detect(nil, t2, gain, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrInputValidation)

	_, err = Detect(t1, t2, nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrMissingLayer)

	other := raster.NewGrid(raster.Region{Rows: 2, Cols: 2, CellSize: 100})
	_, err = Detect(t1, other, gain, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrInputValidation)
}
