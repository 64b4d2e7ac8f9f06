package raster

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// ErrNoData is returned when a statistic is requested over a region with no
// valid cells.
var ErrNoData = eris.New("raster: no valid cells in masked region")

// Quantile returns the value at percentile p (0..100) of src's value
// distribution, restricted to cells where mask is valid and nonzero. A nil
// mask means the full grid. The estimate interpolates linearly between the
// order statistics at rank p*(n-1), so identical inputs always produce
// identical output.
func Quantile(src, mask *Grid, p float64) (float64, error) {
	if p < 0 || p > 100 {
		return 0, eris.Errorf("raster: percentile %f outside [0,100]", p)
	}
	if mask != nil {
		if err := SameRegion(src, mask); err != nil {
			return 0, err
		}
	}
	vals := make([]float64, 0, len(src.cells))
	for i, v := range src.cells {
		if math.IsNaN(v) {
			continue
		}
		if mask != nil {
			m := mask.cells[i]
			if math.IsNaN(m) || m == 0 {
				continue
			}
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return 0, ErrNoData
	}
	sort.Float64s(vals)
	pos := p / 100 * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo], nil
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac, nil
}
