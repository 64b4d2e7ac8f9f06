package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// AreaMode selects which side of the area comparison survives ReclassArea.
type AreaMode int

const (
	// AreaGreater keeps components whose area is strictly greater than the
	// threshold.
	AreaGreater AreaMode = iota
	// AreaLesser keeps components whose area is strictly smaller than the
	// threshold.
	AreaLesser
)

// ReclassArea filters connected components by area. Components are maximal
// 4-connected sets of equal-valued cells; their area is compared against
// thresholdHa in hectares and failing components become nodata. The operation
// is idempotent: surviving components already satisfy the comparison.
func ReclassArea(src *Grid, thresholdHa float64, mode AreaMode) (*Grid, error) {
	if thresholdHa < 0 {
		return nil, eris.Errorf("raster: negative area threshold %f", thresholdHa)
	}
	region := src.region
	cols := region.Cols
	n := region.Size()

	label := make([]int, n)
	for i := range label {
		label[i] = -1
	}
	var sizes []int

	// Iterative flood fill; recursion depth is unbounded on large components.
	stack := make([]int, 0, 64)
	for i := 0; i < n; i++ {
		if label[i] >= 0 || math.IsNaN(src.cells[i]) {
			continue
		}
		id := len(sizes)
		value := src.cells[i]
		count := 0
		stack = append(stack[:0], i)
		label[i] = id
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			count++
			c := j % cols
			neighbors := [4]int{-1, -1, -1, -1}
			if j >= cols {
				neighbors[0] = j - cols
			}
			if j+cols < n {
				neighbors[1] = j + cols
			}
			if c > 0 {
				neighbors[2] = j - 1
			}
			if c < cols-1 {
				neighbors[3] = j + 1
			}
			for _, nb := range neighbors {
				if nb < 0 || label[nb] >= 0 || src.cells[nb] != value {
					continue
				}
				label[nb] = id
				stack = append(stack, nb)
			}
		}
		sizes = append(sizes, count)
	}

	cellHa := region.CellAreaHa()
	keep := make([]bool, len(sizes))
	for id, count := range sizes {
		area := float64(count) * cellHa
		if mode == AreaGreater {
			keep[id] = area > thresholdHa
		} else {
			keep[id] = area < thresholdHa
		}
	}

	return Eval(region, func(i int) float64 {
		if label[i] < 0 || !keep[label[i]] {
			return math.NaN()
		}
		return src.cells[i]
	}), nil
}
