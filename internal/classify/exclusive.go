package classify

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Resolution is the mutually exclusive merge of the candidate rasters.
type Resolution struct {
	// Classification holds exactly one class code per valid pixel.
	Classification *raster.Grid
	// Counts is the surviving pixel count per class.
	Counts map[Class]int
}

// Resolve merges candidates into a single classification. Each pixel's claim
// count is the number of candidates assigning a value there; only pixels
// claimed by exactly one class survive, so ambiguity is resolved by exclusion
// rather than priority and merge order cannot matter. Classes whose surviving
// count falls below minSamples are reported as warnings; minSamples <= 0
// disables the check.
func Resolve(candidates []Candidate, minSamples int) (Resolution, error) {
	if len(candidates) == 0 {
		return Resolution{}, eris.Wrap(ErrInputValidation, "classify: no candidate rasters")
	}
	grids := make([]*raster.Grid, len(candidates))
	for i, cand := range candidates {
		grids[i] = cand.Grid
	}
	if err := raster.SameRegion(grids...); err != nil {
		return Resolution{}, err
	}
	region := grids[0].Region()

	claims := raster.Eval(region, func(i int) float64 {
		n := 0.0
		for _, g := range grids {
			if !raster.IsNullValue(g.Cell(i)) {
				n++
			}
		}
		return n
	})

	merged := raster.Eval(region, func(i int) float64 {
		if claims.Cell(i) != 1 {
			return raster.Null()
		}
		for _, g := range grids {
			if v := g.Cell(i); !raster.IsNullValue(v) {
				return v
			}
		}
		return raster.Null()
	})

	counts := make(map[Class]int, len(candidates))
	for _, cand := range candidates {
		counts[cand.Class] = 0
	}
	for i := 0; i < region.Size(); i++ {
		v := merged.Cell(i)
		if raster.IsNullValue(v) {
			continue
		}
		if class, ok := ClassByCode(int(v)); ok {
			counts[class]++
		}
	}

	if minSamples > 0 {
		for _, cand := range candidates {
			if n := counts[cand.Class]; n < minSamples {
				zap.L().Warn("classify: class below requested sample size",
					zap.String("class", cand.Class.Name()),
					zap.Int("pixels", n),
					zap.Int("requested", minSamples),
				)
			}
		}
	}

	return Resolution{Classification: merged, Counts: counts}, nil
}
