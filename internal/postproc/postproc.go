// Package postproc turns a 7-class classification into the final 6-class
// product by removing the transitional mixed built-up class and applying a
// fixed sequence of elevation, coastline, patch-size and water corrections.
package postproc

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Params are the corrector's fixed constants.
type Params struct {
	// MixedElevation is the elevation above which mixed built-up pixels are
	// treated as built-up before gap filling.
	MixedElevation float64
	// BuiltUpElevation is the ceiling above which built-up becomes bare soil.
	BuiltUpElevation float64
	// AgricultureElevation is the ceiling above which agriculture becomes
	// low vegetation.
	AgricultureElevation float64
	// MinAgrPatchHa reassigns agriculture regions smaller than this to low
	// vegetation.
	MinAgrPatchHa float64
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		MixedElevation:       1000,
		BuiltUpElevation:     1500,
		AgricultureElevation: 800,
		MinAgrPatchHa:        1.5,
	}
}

// Correct applies the ordered correction passes to a 7-class raster and
// returns the 6-class product. Every pass runs over the full extent and is a
// pure function of the previous pass's output; the order is fixed because
// reordering changes results.
func Correct(class7, elevation, coastline, water, roads *raster.Grid, params Params) (*raster.Grid, error) {
	for name, g := range map[string]*raster.Grid{
		"classification": class7,
		"elevation":      elevation,
		"coastline":      coastline,
		"water":          water,
		"roads":          roads,
	} {
		if g == nil {
			return nil, eris.Wrapf(classify.ErrMissingLayer, "postproc: %s", name)
		}
	}
	if err := raster.SameRegion(class7, elevation, coastline, water, roads); err != nil {
		return nil, eris.Wrap(classify.ErrInputValidation, err.Error())
	}
	region := class7.Region()

	mixed := float64(classify.MixedBuiltUp)
	builtUp := float64(classify.BuiltUp)
	bareSoil := float64(classify.BareSoil)
	agriculture := float64(classify.Agriculture)
	lowVeg := float64(classify.LowVegetation)

	// 1. High-elevation mixed built-up counts as built-up for gap filling.
	step1 := raster.Eval(region, func(i int) float64 {
		v := class7.Cell(i)
		if v == mixed && elevation.Cell(i) > params.MixedElevation {
			return builtUp
		}
		return v
	})

	// 2. Remaining mixed built-up pixels become gaps.
	step2 := raster.Eval(region, func(i int) float64 {
		v := step1.Cell(i)
		if v == mixed {
			return raster.Null()
		}
		return v
	})

	// 3. Fill gaps with the nearest non-gap class, rounded to a class code.
	filled := raster.GrowFill(step2)
	step3 := raster.Eval(region, func(i int) float64 {
		v := filled.Cell(i)
		if math.IsNaN(v) {
			return v
		}
		return math.Round(v)
	})

	// 4. Built-up outside the coastline is bare soil.
	step4 := raster.Eval(region, func(i int) float64 {
		v := step3.Cell(i)
		c := coastline.Cell(i)
		if v == builtUp && (math.IsNaN(c) || c == 0) {
			return bareSoil
		}
		return v
	})

	// 5. Elevation ceilings: built-up to bare soil, agriculture to low
	// vegetation.
	step5 := raster.Eval(region, func(i int) float64 {
		v := step4.Cell(i)
		elev := elevation.Cell(i)
		if v == builtUp && elev > params.BuiltUpElevation {
			return bareSoil
		}
		if v == agriculture && elev > params.AgricultureElevation {
			return lowVeg
		}
		return v
	})

	// 6. Agriculture patches below the size threshold merge into low
	// vegetation.
	agrOnly := raster.Eval(region, func(i int) float64 {
		if step5.Cell(i) == agriculture {
			return agriculture
		}
		return raster.Null()
	})
	smallAgr, err := raster.ReclassArea(agrOnly, params.MinAgrPatchHa, raster.AreaLesser)
	if err != nil {
		return nil, eris.Wrap(err, "postproc: small patch filter")
	}
	step6 := raster.Eval(region, func(i int) float64 {
		if !raster.IsNullValue(smallAgr.Cell(i)) {
			return lowVeg
		}
		return step5.Cell(i)
	})

	// 7. Water-layer pixels off roads that are still coded built-up become
	// agriculture.
	out := raster.Eval(region, func(i int) float64 {
		v := step6.Cell(i)
		w := water.Cell(i)
		r := roads.Cell(i)
		if !math.IsNaN(w) && w != 0 && (math.IsNaN(r) || r == 0) && v == builtUp {
			return agriculture
		}
		return v
	})

	zap.L().Info("postproc: corrections applied",
		zap.Int("pixels", out.ValidCount()),
	)
	return out, nil
}
