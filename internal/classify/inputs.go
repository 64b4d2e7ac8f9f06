package classify

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Inputs bundles the layers consumed by the rule evaluator. All layers must
// share one region.
type Inputs struct {
	Red            *raster.Grid
	Green          *raster.Grid
	Blue           *raster.Grid
	Imperviousness *raster.Grid
	Landcover      *raster.Grid
	Elevation      *raster.Grid
	NDVIMax        *raster.Grid
	NDVIMin        *raster.Grid
	NDVIRange      *raster.Grid
	NDWI           *raster.Grid
	Coastline      *raster.Grid
	Buildings      *raster.Grid
	Roads          *raster.Grid
	Water          *raster.Grid
}

// Validate checks layer presence and region agreement. A nil layer is
// ErrMissingLayer naming the layer; a region mismatch is ErrInputValidation.
func (in Inputs) Validate() error {
	named := []struct {
		name string
		grid *raster.Grid
	}{
		{"red", in.Red},
		{"green", in.Green},
		{"blue", in.Blue},
		{"imperviousness", in.Imperviousness},
		{"landcover", in.Landcover},
		{"elevation", in.Elevation},
		{"ndvi_max", in.NDVIMax},
		{"ndvi_min", in.NDVIMin},
		{"ndvi_range", in.NDVIRange},
		{"ndwi", in.NDWI},
		{"coastline", in.Coastline},
		{"buildings", in.Buildings},
		{"roads", in.Roads},
		{"water", in.Water},
	}
	grids := make([]*raster.Grid, 0, len(named))
	for _, l := range named {
		if l.grid == nil {
			return eris.Wrapf(ErrMissingLayer, "classify: %s", l.name)
		}
		grids = append(grids, l.grid)
	}
	if err := raster.SameRegion(grids...); err != nil {
		return eris.Wrap(ErrInputValidation, err.Error())
	}
	return nil
}

// Region returns the shared region. Validate must have succeeded.
func (in Inputs) Region() raster.Region {
	return in.Landcover.Region()
}

// CategoryMask returns a mask grid that is 1 where layer holds one of the
// given category codes and nodata elsewhere.
func CategoryMask(layer *raster.Grid, codes []int) *raster.Grid {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return raster.Eval(layer.Region(), func(i int) float64 {
		v := layer.Cell(i)
		if math.IsNaN(v) || !set[int(math.Round(v))] {
			return raster.Null()
		}
		return 1
	})
}
