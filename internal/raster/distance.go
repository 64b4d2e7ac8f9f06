package raster

import "math"

// distanceTransform computes, for every cell, the squared Euclidean distance
// (in cell units) to the nearest seed cell, and that seed's linear index.
// Cells in a grid with no seeds get +Inf and index -1.
//
// Column pass records the nearest seed row per column, then a row pass runs
// the Felzenszwalb-Huttenlocher lower-envelope transform over the column
// distances, keeping track of the winning column so the seed can be recovered.
func distanceTransform(region Region, seed func(i int) bool) (dist []float64, nearest []int) {
	rows, cols := region.Rows, region.Cols
	n := rows * cols
	dist = make([]float64, n)
	nearest = make([]int, n)

	// Nearest seed row within each column.
	colDist := make([]float64, n)
	colSeed := make([]int, n)
	for c := 0; c < cols; c++ {
		prev := -1
		for r := 0; r < rows; r++ {
			i := r*cols + c
			if seed(i) {
				prev = r
			}
			if prev >= 0 {
				d := float64(r - prev)
				colDist[i] = d * d
				colSeed[i] = prev
			} else {
				colDist[i] = math.Inf(1)
				colSeed[i] = -1
			}
		}
		next := -1
		for r := rows - 1; r >= 0; r-- {
			i := r*cols + c
			if seed(i) {
				next = r
			}
			if next >= 0 {
				d := float64(next - r)
				if d*d < colDist[i] {
					colDist[i] = d * d
					colSeed[i] = next
				}
			}
		}
	}

	// Lower envelope of parabolas per row.
	v := make([]int, cols)      // columns of parabolas in the envelope
	z := make([]float64, cols+1) // boundaries between parabolas
	for r := 0; r < rows; r++ {
		base := r * cols
		f := func(c int) float64 { return colDist[base+c] }

		k := 0
		v[0] = 0
		z[0] = math.Inf(-1)
		z[1] = math.Inf(1)
		for q := 1; q < cols; q++ {
			if math.IsInf(f(q), 1) {
				continue
			}
			var s float64
			for {
				p := v[k]
				if math.IsInf(f(p), 1) {
					// A parabola at infinite height is dominated everywhere.
					if k == 0 {
						s = math.Inf(-1)
						break
					}
					k--
					continue
				}
				s = ((f(q) + float64(q*q)) - (f(p) + float64(p*p))) / float64(2*q-2*p)
				if s > z[k] {
					break
				}
				if k == 0 {
					s = math.Inf(-1)
					break
				}
				k--
			}
			k++
			v[k] = q
			z[k] = s
			z[k+1] = math.Inf(1)
		}

		k = 0
		for c := 0; c < cols; c++ {
			i := base + c
			for z[k+1] < float64(c) {
				k++
			}
			p := v[k]
			if math.IsInf(f(p), 1) {
				dist[i] = math.Inf(1)
				nearest[i] = -1
				continue
			}
			d := float64(c - p)
			dist[i] = d*d + f(p)
			nearest[i] = colSeed[base+p]*cols + p
		}
	}
	return dist, nearest
}

// Buffer returns a grid that is 1 within the given distance (meters) of any
// valid, nonzero cell of src, and nodata elsewhere. Source cells themselves
// are part of the buffer.
func Buffer(src *Grid, meters float64) *Grid {
	region := src.region
	dist, _ := distanceTransform(region, func(i int) bool {
		v := src.cells[i]
		return !math.IsNaN(v) && v != 0
	})
	maxSq := (meters / region.CellSize) * (meters / region.CellSize)
	return Eval(region, func(i int) float64 {
		if dist[i] <= maxSq {
			return 1
		}
		return math.NaN()
	})
}

// GrowFill fills every nodata cell of src with the value of the nearest valid
// cell. A grid with no valid cells is returned unchanged.
func GrowFill(src *Grid) *Grid {
	region := src.region
	_, nearest := distanceTransform(region, func(i int) bool {
		return !math.IsNaN(src.cells[i])
	})
	return Eval(region, func(i int) float64 {
		if !math.IsNaN(src.cells[i]) {
			return src.cells[i]
		}
		if nearest[i] < 0 {
			return math.NaN()
		}
		return src.cells[nearest[i]]
	})
}
