// Package change detects per-class land-cover changes between two
// classification rasters, gated by a change-confidence layer and a minimum
// changed-area threshold.
package change

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Direction codes of the per-class change rasters.
const (
	// Lost marks pixels holding the class at time 1.
	Lost = 1
	// Gained marks pixels holding the class at time 2.
	Gained = 2
)

// Options tune the change detection run.
type Options struct {
	// GainThreshold suppresses changes whose confidence does not exceed it.
	GainThreshold float64
	// MinAreaHa removes connected change regions smaller than this.
	MinAreaHa float64
	// Classes selects the per-class outputs; empty means the six final
	// classes.
	Classes []classify.Class
	// ModeWindow applies a majority filter of this odd size to the raw
	// change product before gating; zero disables it.
	ModeWindow int
	// EmitTotal requests the gated total change raster in the product.
	EmitTotal bool
}

// Product is the result of one change detection run.
type Product struct {
	// Total is the confidence-gated raw change raster (pair codes, 0 where
	// unchanged); nil unless requested.
	Total *raster.Grid
	// PerClass maps each requested class to its direction raster.
	PerClass map[classify.Class]*raster.Grid
}

// PairCode builds the categorical change-type raster for two aligned
// classifications: t1*100 + t2 where the class differs, 0 where it does not.
// A pixel that is nodata in either input is nodata.
func PairCode(t1, t2 *raster.Grid) (*raster.Grid, error) {
	if err := raster.SameRegion(t1, t2); err != nil {
		return nil, eris.Wrap(classify.ErrInputValidation, err.Error())
	}
	return raster.Eval(t1.Region(), func(i int) float64 {
		a, b := t1.Cell(i), t2.Cell(i)
		if math.IsNaN(a) || math.IsNaN(b) {
			return raster.Null()
		}
		if a == b {
			return 0
		}
		return a*100 + b
	}), nil
}

// Detect runs the full change pipeline: pair differencing, optional mode
// filtering, confidence gating, per-class direction rasters and minimum-area
// filtering. The gain layer is required; callers that do not have one
// precomputed derive it with GainLayer.
func Detect(t1, t2, gain *raster.Grid, opts Options) (*Product, error) {
	if t1 == nil || t2 == nil {
		return nil, eris.Wrap(classify.ErrInputValidation, "change: exactly two classification rasters required")
	}
	if gain == nil {
		return nil, eris.Wrap(classify.ErrMissingLayer, "change: information gain layer")
	}
	if err := raster.SameRegion(t1, t2, gain); err != nil {
		return nil, eris.Wrap(classify.ErrInputValidation, err.Error())
	}

	raw, err := PairCode(t1, t2)
	if err != nil {
		return nil, err
	}
	if opts.ModeWindow > 0 {
		raw = raster.ModeFilter(raw, opts.ModeWindow)
	}

	region := t1.Region()
	thresh := opts.GainThreshold

	// Gate the raw product: low-confidence pixels become "no change".
	gated := raster.Eval(region, func(i int) float64 {
		g := gain.Cell(i)
		if math.IsNaN(g) || g <= thresh {
			return 0
		}
		return raw.Cell(i)
	})

	// Binary mask of confident, actual changes.
	changed := raster.Eval(region, func(i int) float64 {
		g := gain.Cell(i)
		v := gated.Cell(i)
		if math.IsNaN(g) || g <= thresh || math.IsNaN(v) || v == 0 {
			return raster.Null()
		}
		return 1
	})

	classes := opts.Classes
	if len(classes) == 0 {
		classes = classify.Final
	}

	product := &Product{PerClass: make(map[classify.Class]*raster.Grid, len(classes))}
	if opts.EmitTotal {
		product.Total = gated
	}

	for _, class := range classes {
		code := float64(class)
		perClass := raster.Eval(region, func(i int) float64 {
			if raster.IsNullValue(changed.Cell(i)) {
				return raster.Null()
			}
			if t1.Cell(i) == code {
				return Lost
			}
			if t2.Cell(i) == code {
				return Gained
			}
			return raster.Null()
		})
		filtered, rerr := raster.ReclassArea(perClass, opts.MinAreaHa, raster.AreaGreater)
		if rerr != nil {
			return nil, eris.Wrapf(rerr, "change: %s area filter", class.Name())
		}
		product.PerClass[class] = filtered
		zap.L().Info("change: class product ready",
			zap.String("class", class.Name()),
			zap.Int("pixels", filtered.ValidCount()),
		)
	}
	return product, nil
}
