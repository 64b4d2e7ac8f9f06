package change

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/incora-geo/landcover-cli/internal/raster"
)

// GainLayer computes a per-pixel change-confidence layer from two categorical
// classifications. The grids are tiled into window x window blocks advanced by
// half the window size; each block's value is the Jensen-Shannon divergence
// between the two maps' category distributions inside the block, in bits
// normalized to [0,1]. Identical distributions score 0, disjoint ones 1.
// Every cell takes the value of the last block covering it.
func GainLayer(t1, t2 *raster.Grid, window int) (*raster.Grid, error) {
	if err := raster.SameRegion(t1, t2); err != nil {
		return nil, err
	}
	if window < 2 {
		window = 2
	}
	step := window / 2
	region := t1.Region()
	out := raster.NewGrid(region)

	for r0 := 0; r0 < region.Rows; r0 += step {
		for c0 := 0; c0 < region.Cols; c0 += step {
			r1 := r0 + window
			if r1 > region.Rows {
				r1 = region.Rows
			}
			c1 := c0 + window
			if c1 > region.Cols {
				c1 = region.Cols
			}
			gain := blockGain(t1, t2, r0, r1, c0, c1)
			for r := r0; r < r1; r++ {
				for c := c0; c < c1; c++ {
					out.Set(r, c, gain)
				}
			}
		}
	}
	return out, nil
}

// blockGain is the Jensen-Shannon divergence between the category histograms
// of the two maps over one block.
func blockGain(t1, t2 *raster.Grid, r0, r1, c0, c1 int) float64 {
	h1 := map[int]float64{}
	h2 := map[int]float64{}
	n1, n2 := 0.0, 0.0
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if !t1.IsNull(r, c) {
				h1[int(math.Round(t1.At(r, c)))]++
				n1++
			}
			if !t2.IsNull(r, c) {
				h2[int(math.Round(t2.At(r, c)))]++
				n2++
			}
		}
	}
	if n1 == 0 || n2 == 0 {
		return raster.Null()
	}
	catSet := map[int]bool{}
	for cat := range h1 {
		catSet[cat] = true
	}
	for cat := range h2 {
		catSet[cat] = true
	}
	cats := make([]int, 0, len(catSet))
	for cat := range catSet {
		cats = append(cats, cat)
	}
	sort.Ints(cats)

	p := make([]float64, len(cats))
	q := make([]float64, len(cats))
	for i, cat := range cats {
		p[i] = h1[cat] / n1
		q[i] = h2[cat] / n2
	}

	// JensenShannon works in nats; dividing by ln 2 rescales to [0,1].
	jsd := stat.JensenShannon(p, q) / math.Ln2
	if jsd < 0 {
		jsd = 0
	}
	if jsd > 1 {
		jsd = 1
	}
	return jsd
}
