// Package vector writes training-point shapefiles.
package vector

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/training"
)

// WritePoints writes the training points to a POINT shapefile with the
// attribute columns lulc_class_int and lulc_class_str.
func WritePoints(path string, points []training.Point) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "vector: create shapefile %s", path)
	}

	fields := []shp.Field{
		shp.NumberField("lulc_class_int", 10),
		shp.StringField("lulc_class_str", 25),
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return eris.Wrapf(err, "vector: set fields %s", path)
	}

	for _, p := range points {
		row := w.Write(&shp.Point{X: p.X, Y: p.Y})
		if err := w.WriteAttribute(int(row), 0, int(p.Class)); err != nil {
			w.Close()
			return eris.Wrapf(err, "vector: write lulc_class_int row %d", row)
		}
		if err := w.WriteAttribute(int(row), 1, p.Name); err != nil {
			w.Close()
			return eris.Wrapf(err, "vector: write lulc_class_str row %d", row)
		}
	}

	w.Close()
	zap.L().Info("vector: shapefile written",
		zap.String("path", path),
		zap.Int("points", len(points)),
	)
	return nil
}
