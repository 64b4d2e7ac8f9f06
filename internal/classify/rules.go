package classify

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Candidate is one class's binary claim raster: the class code where the
// rule holds, nodata elsewhere. Pixels is the claim count after area
// filtering. An empty candidate is valid.
type Candidate struct {
	Class  Class
	Grid   *raster.Grid
	Pixels int
}

// sharedLayers are derived layers read by more than one rule. They are
// computed once before evaluation fans out and are immutable afterwards,
// which is what makes the per-class fan-out safe.
type sharedLayers struct {
	roadsBuf         *raster.Grid
	buildingsBuf     *raster.Grid
	buildingsBufSoil *raster.Grid
	waterBuf         *raster.Grid
	impBuf           *raster.Grid
	bright           *raster.Grid
}

type evaluation struct {
	in     Inputs
	params Params
	region raster.Region
	shared sharedLayers
}

func newEvaluation(in Inputs, params Params) *evaluation {
	region := in.Region()
	p := params

	// The imperviousness buffer runs at a coarser resolution and is restored
	// to the working region afterwards.
	coarse := raster.Resample(in.Imperviousness, region.WithCellSize(p.ImperviousnessResM))
	impBuf := raster.Resample(raster.Buffer(coarse, p.ImperviousnessBufferM), region)

	bright := raster.Eval(region, func(i int) float64 {
		r, g, b := in.Red.Cell(i), in.Green.Cell(i), in.Blue.Cell(i)
		if r > p.ReflectanceThreshold && g > p.ReflectanceThreshold && b > p.ReflectanceThreshold {
			return 1
		}
		return raster.Null()
	})

	return &evaluation{
		in:     in,
		params: params,
		region: region,
		shared: sharedLayers{
			roadsBuf:         raster.Buffer(in.Roads, p.RoadBufferM),
			buildingsBuf:     raster.Buffer(in.Buildings, p.BuildingBufferM),
			buildingsBufSoil: raster.Buffer(in.Buildings, p.BuildingBufferSoilM),
			waterBuf:         raster.Buffer(in.Water, p.WaterBufferM),
			impBuf:           impBuf,
			bright:           bright,
		},
	}
}

func present(g *raster.Grid, i int) bool {
	v := g.Cell(i)
	return !math.IsNaN(v) && v != 0
}

// categoryThresholdRule builds the shared shape of the forest, low-vegetation
// and agriculture rules: restrict to landcover codes, resolve a percentile
// threshold of an index under that mask, keep pixels passing a comparison.
func (e *evaluation) categoryThresholdRule(class Class, codes []int, index *raster.Grid, pct float64, pass func(v, threshold float64) bool, extra func(i int) bool) (*raster.Grid, error) {
	mask := CategoryMask(e.in.Landcover, codes)
	threshold, err := Percentile(index, mask, pct)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: %s threshold", class.Name())
	}
	zap.L().Debug("classify: resolved adaptive threshold",
		zap.String("class", class.Name()),
		zap.Float64("percentile", pct),
		zap.Float64("threshold", threshold),
	)
	return raster.Eval(e.region, func(i int) float64 {
		if raster.IsNullValue(mask.Cell(i)) {
			return raster.Null()
		}
		v := index.Cell(i)
		if math.IsNaN(v) || !pass(v, threshold) {
			return raster.Null()
		}
		if extra != nil && !extra(i) {
			return raster.Null()
		}
		return float64(class)
	}), nil
}

func (e *evaluation) forest() (*raster.Grid, error) {
	return e.categoryThresholdRule(Forest, e.params.ForestCodes, e.in.NDVIMax,
		e.params.ForestNDVIMaxPct, func(v, t float64) bool { return v > t }, nil)
}

func (e *evaluation) lowVegetation() (*raster.Grid, error) {
	return e.categoryThresholdRule(LowVegetation, e.params.LowVegCodes, e.in.NDVIMin,
		e.params.LowVegNDVIMinPct, func(v, t float64) bool { return v >= t }, nil)
}

func (e *evaluation) agriculture() (*raster.Grid, error) {
	shared := e.shared
	return e.categoryThresholdRule(Agriculture, e.params.AgricultureCodes, e.in.NDVIRange,
		e.params.AgrNDVIRangePct, func(v, t float64) bool { return v >= t },
		func(i int) bool {
			return raster.IsNullValue(shared.buildingsBufSoil.Cell(i)) &&
				raster.IsNullValue(shared.roadsBuf.Cell(i))
		})
}

// water: NDWI above the fixed cutoff, outside the road buffer, not bright,
// restricted to the water layer's extent.
func (e *evaluation) water() (*raster.Grid, error) {
	p := e.params
	return raster.Eval(e.region, func(i int) float64 {
		if !present(e.in.Water, i) {
			return raster.Null()
		}
		ndwi := e.in.NDWI.Cell(i)
		if math.IsNaN(ndwi) || ndwi <= p.NDWIThreshold {
			return raster.Null()
		}
		if !raster.IsNullValue(e.shared.roadsBuf.Cell(i)) {
			return raster.Null()
		}
		if !raster.IsNullValue(e.shared.bright.Cell(i)) {
			return raster.Null()
		}
		return float64(Water)
	}), nil
}

// builtUp evaluates the confident built-up predicate; ceiling selects the
// NDVI-max bound so the mixed rule can reuse the body with its relaxed one.
func (e *evaluation) builtUp(class Class, ceiling float64, exclude *raster.Grid) *raster.Grid {
	p := e.params
	agr := make(map[int]bool, len(p.AgricultureCodes))
	for _, c := range p.AgricultureCodes {
		agr[c] = true
	}
	return raster.Eval(e.region, func(i int) float64 {
		if exclude != nil && !raster.IsNullValue(exclude.Cell(i)) {
			return raster.Null()
		}
		if !present(e.in.Coastline, i) {
			return raster.Null()
		}
		ndviMax := e.in.NDVIMax.Cell(i)
		if math.IsNaN(ndviMax) || ndviMax > ceiling {
			return raster.Null()
		}
		if !raster.IsNullValue(e.shared.waterBuf.Cell(i)) {
			return raster.Null()
		}
		lc := e.in.Landcover.Cell(i)
		if math.IsNaN(lc) || agr[int(math.Round(lc))] {
			return raster.Null()
		}
		if raster.IsNullValue(e.shared.buildingsBuf.Cell(i)) &&
			raster.IsNullValue(e.shared.roadsBuf.Cell(i)) {
			return raster.Null()
		}
		elev := e.in.Elevation.Cell(i)
		if math.IsNaN(elev) || elev >= p.ElevationCeiling {
			return raster.Null()
		}
		return float64(class)
	})
}

// bareSoil: outside all built infrastructure buffers, low NDVI range and
// maximum, off water, inside the coastline.
func (e *evaluation) bareSoil() (*raster.Grid, error) {
	p := e.params
	return raster.Eval(e.region, func(i int) float64 {
		if !present(e.in.Coastline, i) {
			return raster.Null()
		}
		if !raster.IsNullValue(e.shared.buildingsBufSoil.Cell(i)) ||
			!raster.IsNullValue(e.shared.roadsBuf.Cell(i)) ||
			!raster.IsNullValue(e.shared.impBuf.Cell(i)) {
			return raster.Null()
		}
		rng := e.in.NDVIRange.Cell(i)
		if math.IsNaN(rng) || rng > p.NDVIRangeCeiling {
			return raster.Null()
		}
		ndviMax := e.in.NDVIMax.Cell(i)
		if math.IsNaN(ndviMax) || ndviMax > p.NDVIMaxCeiling {
			return raster.Null()
		}
		if present(e.in.Water, i) {
			return raster.Null()
		}
		return float64(BareSoil)
	}), nil
}

// EvaluateAll runs every class rule and returns the candidates in evaluation
// order. The rules read only immutable inputs and precomputed shared layers,
// so the independent classes run concurrently; built-up and mixed built-up
// stay in one goroutine because the mixed rule excludes the confident
// candidate's pixels.
func EvaluateAll(in Inputs, params Params) ([]Candidate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := newEvaluation(in, params)

	minArea := map[Class]float64{
		Forest:        params.ForestMinAreaHa,
		LowVegetation: params.LowVegMinAreaHa,
		BareSoil:      params.BareSoilMinAreaHa,
		Agriculture:   params.AgrMinAreaHa,
	}

	// Each goroutine writes only its own slots, indexed by position in All.
	slot := make(map[Class]int, len(All))
	for i, class := range All {
		slot[class] = i
	}
	grids := make([]*raster.Grid, len(All))

	var g errgroup.Group
	run := func(class Class, build func() (*raster.Grid, error)) {
		g.Go(func() error {
			grid, err := build()
			if err != nil {
				return err
			}
			grids[slot[class]] = grid
			return nil
		})
	}
	run(Forest, e.forest)
	run(LowVegetation, e.lowVegetation)
	run(Water, e.water)
	run(BareSoil, e.bareSoil)
	run(Agriculture, e.agriculture)
	g.Go(func() error {
		confident := e.builtUp(BuiltUp, params.NDVIMaxCeiling, nil)
		grids[slot[BuiltUp]] = confident
		grids[slot[MixedBuiltUp]] = e.builtUp(MixedBuiltUp, params.NDVIMaxCeilingMixed, confident)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(All))
	for _, class := range All {
		grid := grids[slot[class]]
		if ha := minArea[class]; ha > 0 {
			filtered, err := raster.ReclassArea(grid, ha, raster.AreaGreater)
			if err != nil {
				return nil, eris.Wrapf(err, "classify: %s area filter", class.Name())
			}
			grid = filtered
		}
		pixels := grid.ValidCount()
		if pixels == 0 {
			zap.L().Warn("classify: class rule selected no pixels",
				zap.String("class", class.Name()),
				zap.Int("pixels", 0),
			)
		}
		candidates = append(candidates, Candidate{Class: class, Grid: grid, Pixels: pixels})
	}
	return candidates, nil
}
