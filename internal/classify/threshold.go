package classify

import (
	"github.com/rotisserie/eris"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Percentile resolves an adaptive threshold: the value at percentile p of
// index's distribution restricted to cells where mask is valid and nonzero.
// It is pure with respect to its inputs and bit-reproducible; linear
// interpolation over the sorted sample is used throughout. An empty masked
// region is ErrInsufficientData.
func Percentile(index, mask *raster.Grid, p float64) (float64, error) {
	v, err := raster.Quantile(index, mask, p)
	if err != nil {
		if eris.Is(err, raster.ErrNoData) {
			return 0, eris.Wrapf(ErrInsufficientData, "classify: percentile %.0f", p)
		}
		return 0, eris.Wrap(err, "classify: percentile")
	}
	return v, nil
}
