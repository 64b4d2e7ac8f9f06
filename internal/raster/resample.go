package raster

import "math"

// Resample maps src into the target region by nearest-neighbor lookup through
// geographic coordinates. It is used to run an operation at a coarser
// resolution and restore the result to the working region afterwards.
func Resample(src *Grid, target Region) *Grid {
	sr := src.region
	out := &Grid{region: target, cells: make([]float64, target.Size())}
	for r := 0; r < target.Rows; r++ {
		y := target.South + (float64(target.Rows-r)-0.5)*target.CellSize
		srcRow := int(math.Floor(float64(sr.Rows) - (y-sr.South)/sr.CellSize))
		if srcRow < 0 {
			srcRow = 0
		}
		if srcRow >= sr.Rows {
			srcRow = sr.Rows - 1
		}
		for c := 0; c < target.Cols; c++ {
			x := target.West + (float64(c)+0.5)*target.CellSize
			srcCol := int(math.Floor((x - sr.West) / sr.CellSize))
			if srcCol < 0 {
				srcCol = 0
			}
			if srcCol >= sr.Cols {
				srcCol = sr.Cols - 1
			}
			out.cells[r*target.Cols+c] = src.cells[srcRow*sr.Cols+srcCol]
		}
	}
	return out
}

// ModeFilter replaces every valid cell with the majority category inside a
// window x window neighborhood (window must be odd). Ties break toward the
// smaller category so the result is deterministic. Nodata cells stay nodata
// and do not vote.
func ModeFilter(src *Grid, window int) *Grid {
	if window < 3 || window%2 == 0 {
		return src.Clone()
	}
	half := window / 2
	region := src.region
	out := NewGrid(region)
	votes := make(map[int]int, window*window)
	for r := 0; r < region.Rows; r++ {
		for c := 0; c < region.Cols; c++ {
			if src.IsNull(r, c) {
				continue
			}
			for k := range votes {
				delete(votes, k)
			}
			for dr := -half; dr <= half; dr++ {
				for dc := -half; dc <= half; dc++ {
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= region.Rows || cc < 0 || cc >= region.Cols || src.IsNull(rr, cc) {
						continue
					}
					votes[int(math.Round(src.At(rr, cc)))]++
				}
			}
			best, bestN := 0, -1
			for cat, n := range votes {
				if n > bestN || (n == bestN && cat < best) {
					best, bestN = cat, n
				}
			}
			out.Set(r, c, float64(best))
		}
	}
	return out
}
