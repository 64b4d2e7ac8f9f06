// Package raster provides in-memory raster layers and the spatial primitives
// the classification pipelines are built on: per-pixel algebra, distance
// buffering, connected-component area filtering, quantile statistics,
// nearest-value fill and stratified category sampling.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Region describes the extent and resolution shared by co-processed layers.
// West/South are the coordinates of the lower-left corner; CellSize is the
// cell edge length in meters.
type Region struct {
	Rows     int
	Cols     int
	CellSize float64
	West     float64
	South    float64
}

// WithCellSize returns the same extent at a different resolution.
func (r Region) WithCellSize(cellSize float64) Region {
	rows := int(math.Round(float64(r.Rows) * r.CellSize / cellSize))
	cols := int(math.Round(float64(r.Cols) * r.CellSize / cellSize))
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return Region{Rows: rows, Cols: cols, CellSize: cellSize, West: r.West, South: r.South}
}

// CellAreaHa returns the area of a single cell in hectares.
func (r Region) CellAreaHa() float64 {
	return r.CellSize * r.CellSize / 10000.0
}

// Size returns the number of cells in the region.
func (r Region) Size() int {
	return r.Rows * r.Cols
}

// Grid is a single raster layer: a row-major float64 cell array over a Region.
// NaN marks nodata and propagates through all operations.
type Grid struct {
	region Region
	cells  []float64
}

// NewGrid allocates a grid over region with every cell set to nodata.
func NewGrid(region Region) *Grid {
	cells := make([]float64, region.Size())
	for i := range cells {
		cells[i] = math.NaN()
	}
	return &Grid{region: region, cells: cells}
}

// NewGridFrom builds a grid from row-major cell values. The slice length must
// match the region size.
func NewGridFrom(region Region, cells []float64) (*Grid, error) {
	if len(cells) != region.Size() {
		return nil, eris.Errorf("raster: cell count %d does not match region %dx%d", len(cells), region.Rows, region.Cols)
	}
	g := &Grid{region: region, cells: make([]float64, len(cells))}
	copy(g.cells, cells)
	return g, nil
}

// Region returns the grid's region.
func (g *Grid) Region() Region {
	return g.region
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{region: g.region, cells: make([]float64, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// At returns the cell value at row r, column c.
func (g *Grid) At(r, c int) float64 {
	return g.cells[r*g.region.Cols+c]
}

// Set assigns the cell value at row r, column c.
func (g *Grid) Set(r, c int, v float64) {
	g.cells[r*g.region.Cols+c] = v
}

// SetNull marks the cell at row r, column c as nodata.
func (g *Grid) SetNull(r, c int) {
	g.Set(r, c, math.NaN())
}

// IsNull reports whether the cell at row r, column c is nodata.
func (g *Grid) IsNull(r, c int) bool {
	return math.IsNaN(g.At(r, c))
}

// ValidCount returns the number of non-nodata cells.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.cells {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// CellCenter returns the geographic coordinates of the center of cell (r, c).
func (g *Grid) CellCenter(r, c int) (x, y float64) {
	x = g.region.West + (float64(c)+0.5)*g.region.CellSize
	y = g.region.South + (float64(g.region.Rows-r)-0.5)*g.region.CellSize
	return x, y
}

// IsNullValue reports whether v is the nodata sentinel.
func IsNullValue(v float64) bool {
	return math.IsNaN(v)
}

// Null returns the nodata sentinel.
func Null() float64 {
	return math.NaN()
}

// SameRegion verifies that all grids share one region. Layers consumed
// together must agree in extent and resolution.
func SameRegion(grids ...*Grid) error {
	if len(grids) == 0 {
		return nil
	}
	ref := grids[0].region
	for _, g := range grids[1:] {
		if g.region != ref {
			return eris.Errorf("raster: region mismatch: %+v vs %+v", ref, g.region)
		}
	}
	return nil
}

// Eval computes a new grid over region by applying fn to every cell index.
// It is the map-algebra primitive: callers close over input grids and read
// them through the index. fn returning NaN produces nodata.
func Eval(region Region, fn func(i int) float64) *Grid {
	g := &Grid{region: region, cells: make([]float64, region.Size())}
	for i := range g.cells {
		g.cells[i] = fn(i)
	}
	return g
}

// Cell returns the value at linear index i.
func (g *Grid) Cell(i int) float64 {
	return g.cells[i]
}

// SetCell assigns the value at linear index i.
func (g *Grid) SetCell(i int, v float64) {
	g.cells[i] = v
}
