package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/postproc"
	"github.com/incora-geo/landcover-cli/internal/raster"
	"github.com/incora-geo/landcover-cli/internal/store"
)

// openStore opens the run store and ensures the schema exists.
func openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// loadGrid reads one ASCII grid input, failing with the layer name attached.
func loadGrid(name, path string) (*raster.Grid, error) {
	if path == "" {
		return nil, eris.Wrapf(classify.ErrMissingLayer, "input %s", name)
	}
	g, err := raster.ReadASCIIGrid(path)
	if err != nil {
		return nil, eris.Wrapf(err, "input %s", name)
	}
	zap.L().Debug("loaded raster",
		zap.String("layer", name),
		zap.String("path", path),
		zap.Int("rows", g.Region().Rows),
		zap.Int("cols", g.Region().Cols),
	)
	return g, nil
}

// classifyParams maps configuration onto the rule evaluator's parameters.
func classifyParams() classify.Params {
	c := cfg.Classify
	p := classify.DefaultParams()
	p.ReflectanceThreshold = c.ReflectanceThreshold
	p.NDWIThreshold = c.NDWIThreshold
	p.NDVIMaxCeiling = c.NDVIMaxCeiling
	p.NDVIMaxCeilingMixed = c.NDVIMaxCeilingMixed
	p.NDVIRangeCeiling = c.NDVIRangeCeiling
	p.ElevationCeiling = c.ElevationCeiling
	p.RoadBufferM = c.RoadBufferM
	p.BuildingBufferM = c.BuildingBufferM
	p.BuildingBufferSoilM = c.BuildingBufferSoilM
	p.WaterBufferM = c.WaterBufferM
	p.ImperviousnessBufferM = c.ImperviousnessBufferM
	p.ImperviousnessResM = c.ImperviousnessResM
	if len(c.ForestCodes) > 0 {
		p.ForestCodes = c.ForestCodes
	}
	if len(c.LowVegCodes) > 0 {
		p.LowVegCodes = c.LowVegCodes
	}
	if len(c.AgricultureCodes) > 0 {
		p.AgricultureCodes = c.AgricultureCodes
	}
	return p
}

// postprocParams maps configuration onto the corrector's parameters.
func postprocParams() postproc.Params {
	c := cfg.Postproc
	return postproc.Params{
		MixedElevation:       c.MixedElevation,
		BuiltUpElevation:     c.BuiltUpElevation,
		AgricultureElevation: c.AgricultureElevation,
		MinAgrPatchHa:        c.MinAgrPatchHa,
	}
}
