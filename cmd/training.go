package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/store"
	"github.com/incora-geo/landcover-cli/internal/training"
	"github.com/incora-geo/landcover-cli/internal/vector"
)

var trainingCmd = &cobra.Command{
	Use:   "training",
	Short: "Generate stratified training points",
	Long:  "Evaluates the per-class rules over the input layers, resolves overlaps into a mutually exclusive classification and samples training points per class into a point shapefile.",
	RunE:  runTraining,
}

// trainingLayerFlags maps flag names to the evaluator's input slots.
var trainingLayerFlags = []string{
	"red", "green", "blue", "imperviousness", "landcover", "elevation",
	"ndvi-max", "ndvi-min", "ndvi-range", "ndwi", "coastline",
	"buildings", "roads", "water",
}

func init() {
	for _, name := range trainingLayerFlags {
		trainingCmd.Flags().String(name, "", "Input "+name+" raster (.asc)")
		_ = trainingCmd.MarkFlagRequired(name)
	}
	trainingCmd.Flags().IntP("npoints", "n", 100, "Sampling points per class")
	trainingCmd.Flags().StringP("output", "o", "", "Output point shapefile (.shp)")
	trainingCmd.Flags().Int64("seed", 0, "Sampling seed (0 uses the configured seed)")
	_ = trainingCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(trainingCmd)
}

func runTraining(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("training"); err != nil {
		return err
	}

	paths := make(map[string]string, len(trainingLayerFlags))
	for _, name := range trainingLayerFlags {
		paths[name], _ = cmd.Flags().GetString(name)
	}
	npoints, _ := cmd.Flags().GetInt("npoints")
	output, _ := cmd.Flags().GetString("output")
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = cfg.Classify.SampleSeed
	}

	var in classify.Inputs
	var err error
	if in.Red, err = loadGrid("red", paths["red"]); err != nil {
		return err
	}
	if in.Green, err = loadGrid("green", paths["green"]); err != nil {
		return err
	}
	if in.Blue, err = loadGrid("blue", paths["blue"]); err != nil {
		return err
	}
	if in.Imperviousness, err = loadGrid("imperviousness", paths["imperviousness"]); err != nil {
		return err
	}
	if in.Landcover, err = loadGrid("landcover", paths["landcover"]); err != nil {
		return err
	}
	if in.Elevation, err = loadGrid("elevation", paths["elevation"]); err != nil {
		return err
	}
	if in.NDVIMax, err = loadGrid("ndvi-max", paths["ndvi-max"]); err != nil {
		return err
	}
	if in.NDVIMin, err = loadGrid("ndvi-min", paths["ndvi-min"]); err != nil {
		return err
	}
	if in.NDVIRange, err = loadGrid("ndvi-range", paths["ndvi-range"]); err != nil {
		return err
	}
	if in.NDWI, err = loadGrid("ndwi", paths["ndwi"]); err != nil {
		return err
	}
	if in.Coastline, err = loadGrid("coastline", paths["coastline"]); err != nil {
		return err
	}
	if in.Buildings, err = loadGrid("buildings", paths["buildings"]); err != nil {
		return err
	}
	if in.Roads, err = loadGrid("roads", paths["roads"]); err != nil {
		return err
	}
	if in.Water, err = loadGrid("water", paths["water"]); err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	params, _ := json.Marshal(map[string]any{"npoints": npoints, "seed": seed, "output": output})
	run, err := s.CreateRun(ctx, "training", string(params))
	if err != nil {
		return err
	}

	result, err := training.Run(in, classifyParams(), npoints, seed)
	if err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}

	if err := vector.WritePoints(output, result.Points); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}

	if err := s.SaveCounts(ctx, run.ID, result.PixelCounts); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}
	if err := s.SaveTrainingPoints(ctx, run.ID, result.Points); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}
	if err := s.FinishRun(ctx, run.ID, store.StatusCompleted); err != nil {
		return err
	}

	zap.L().Info("training run completed",
		zap.String("run_id", run.ID),
		zap.String("output", output),
		zap.Int("points", len(result.Points)),
	)
	return nil
}
