package raster

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadASCIIGrid loads an ESRI ASCII Grid (.asc) file. The nodata_value header
// is optional and defaults to -9999; matching cells become nodata.
func ReadASCIIGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	header := map[string]float64{}
	nodata := -9999.0
	var cells []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])
		if cells == nil && len(fields) == 2 && isHeaderKey(key) {
			v, perr := strconv.ParseFloat(fields[1], 64)
			if perr != nil {
				return nil, eris.Wrapf(perr, "raster: parse header %s in %s", key, path)
			}
			if key == "nodata_value" {
				nodata = v
			} else {
				header[key] = v
			}
			continue
		}
		if cells == nil {
			for _, req := range []string{"ncols", "nrows", "cellsize"} {
				if _, ok := header[req]; !ok {
					return nil, eris.Errorf("raster: %s missing header %s", path, req)
				}
			}
			cells = make([]float64, 0, int(header["ncols"])*int(header["nrows"]))
		}
		for _, field := range fields {
			v, perr := strconv.ParseFloat(field, 64)
			if perr != nil {
				return nil, eris.Wrapf(perr, "raster: parse cell in %s", path)
			}
			if v == nodata {
				v = math.NaN()
			}
			cells = append(cells, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: read %s", path)
	}
	if cells == nil {
		return nil, eris.Errorf("raster: %s contains no cell data", path)
	}

	region := Region{
		Rows:     int(header["nrows"]),
		Cols:     int(header["ncols"]),
		CellSize: header["cellsize"],
		West:     header["xllcorner"],
		South:    header["yllcorner"],
	}
	g, err := NewGridFrom(region, cells)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: %s", path)
	}
	return g, nil
}

func isHeaderKey(key string) bool {
	switch key {
	case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value":
		return true
	}
	return false
}

// WriteASCIIGrid writes g to an ESRI ASCII Grid file with -9999 as the
// nodata value.
func WriteASCIIGrid(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	w := bufio.NewWriter(f)

	region := g.Region()
	fmt.Fprintf(w, "ncols %d\n", region.Cols)
	fmt.Fprintf(w, "nrows %d\n", region.Rows)
	fmt.Fprintf(w, "xllcorner %g\n", region.West)
	fmt.Fprintf(w, "yllcorner %g\n", region.South)
	fmt.Fprintf(w, "cellsize %g\n", region.CellSize)
	fmt.Fprintf(w, "nodata_value -9999\n")
	for r := 0; r < region.Rows; r++ {
		for c := 0; c < region.Cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					_ = f.Close()
					return eris.Wrapf(err, "raster: write %s", path)
				}
			}
			v := g.At(r, c)
			if math.IsNaN(v) {
				_, err = w.WriteString("-9999")
			} else {
				_, err = w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err != nil {
				_ = f.Close()
				return eris.Wrapf(err, "raster: write %s", path)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "raster: write %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "raster: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "raster: close %s", path)
	}
	return nil
}
