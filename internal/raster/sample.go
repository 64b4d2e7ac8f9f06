package raster

import (
	"math"
	"math/rand"
	"sort"
)

// CellSample is one sampled cell of a categorical raster.
type CellSample struct {
	Row      int
	Col      int
	Category int
}

// SampleCategory draws up to nPerClass random cells for every distinct
// non-nodata category of src. Categories with fewer cells than requested
// yield all of their cells; the caller decides whether that is a problem.
// Categories are processed in ascending order and cell order within a
// category is fixed before shuffling, so an identically seeded rng
// reproduces the sample exactly.
func SampleCategory(src *Grid, nPerClass int, rng *rand.Rand) ([]CellSample, map[int]int) {
	cols := src.region.Cols
	byCat := make(map[int][]int)
	for i, v := range src.cells {
		if math.IsNaN(v) {
			continue
		}
		cat := int(math.Round(v))
		byCat[cat] = append(byCat[cat], i)
	}

	cats := make([]int, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Ints(cats)

	var samples []CellSample
	counts := make(map[int]int, len(cats))
	for _, cat := range cats {
		cells := byCat[cat]
		rng.Shuffle(len(cells), func(a, b int) {
			cells[a], cells[b] = cells[b], cells[a]
		})
		n := nPerClass
		if n > len(cells) {
			n = len(cells)
		}
		picked := cells[:n]
		sort.Ints(picked)
		for _, i := range picked {
			samples = append(samples, CellSample{Row: i / cols, Col: i % cols, Category: cat})
		}
		counts[cat] = n
	}
	return samples, counts
}
