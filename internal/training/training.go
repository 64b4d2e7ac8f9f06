// Package training generates stratified training points for the seven
// land-cover classes: rule evaluation, exclusivity resolution and per-class
// random sampling on the resulting classification.
package training

import (
	"math/rand"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/raster"
)

// Point is one sampled training point with its class attributes.
type Point struct {
	X     float64
	Y     float64
	Class classify.Class
	Name  string
}

// Result carries the products of a training run.
type Result struct {
	// Classification is the mutually exclusive merged raster the points were
	// drawn from.
	Classification *raster.Grid
	// PixelCounts is the surviving pixel count per class.
	PixelCounts map[classify.Class]int
	// Points are the sampled, attributed training points.
	Points []Point
	// PointCounts is the number of points drawn per class.
	PointCounts map[classify.Class]int
}

// Run executes the training-data pipeline. npoints is the requested sample
// size per class; classes yielding fewer candidate pixels or points are
// reported as warnings and the run continues. The seed makes sampling
// reproducible.
func Run(in classify.Inputs, params classify.Params, npoints int, seed int64) (*Result, error) {
	if npoints <= 0 {
		return nil, eris.Wrap(classify.ErrInputValidation, "training: npoints must be positive")
	}

	candidates, err := classify.EvaluateAll(in, params)
	if err != nil {
		return nil, err
	}
	resolution, err := classify.Resolve(candidates, npoints)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	samples, _ := raster.SampleCategory(resolution.Classification, npoints, rng)

	points := make([]Point, 0, len(samples))
	pointCounts := make(map[classify.Class]int, len(classify.All))
	for _, s := range samples {
		class, ok := classify.ClassByCode(s.Category)
		if !ok {
			continue
		}
		x, y := resolution.Classification.CellCenter(s.Row, s.Col)
		points = append(points, Point{X: x, Y: y, Class: class, Name: class.Name()})
		pointCounts[class]++
	}

	for _, class := range classify.All {
		if n := pointCounts[class]; n < npoints {
			zap.L().Warn("training: fewer points than requested",
				zap.String("class", class.Name()),
				zap.Int("points", n),
				zap.Int("requested", npoints),
			)
		}
	}

	zap.L().Info("training: sample generated",
		zap.Int("points", len(points)),
		zap.Int("classes", len(pointCounts)),
	)

	return &Result{
		Classification: resolution.Classification,
		PixelCounts:    resolution.Counts,
		Points:         points,
		PointCounts:    pointCounts,
	}, nil
}
