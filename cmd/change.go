package main

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/change"
	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/raster"
	"github.com/incora-geo/landcover-cli/internal/store"
)

var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Detect per-class land-cover changes",
	Long:  "Compares two classification rasters, gates changes by an information-gain confidence layer and a minimum changed-area threshold, and writes per-class change rasters encoding direction (1 = class in the first input, 2 = class in the second).",
	RunE:  runChange,
}

// classOutputFlags maps output flags to the class each one selects.
var classOutputFlags = map[string]classify.Class{
	"output-forest": classify.Forest,
	"output-lowveg": classify.LowVegetation,
	"output-water":  classify.Water,
	"output-bu":     classify.BuiltUp,
	"output-bare":   classify.BareSoil,
	"output-agr":    classify.Agriculture,
}

func init() {
	changeCmd.Flags().StringP("input", "i", "", "Two comma-separated classification rasters, earlier first")
	changeCmd.Flags().String("gain", "", "Precomputed information gain raster (computed from the inputs if omitted)")
	changeCmd.Flags().String("output-cd", "", "Total change detection raster")
	for flag := range classOutputFlags {
		changeCmd.Flags().String(flag, "", "Per-class change raster")
	}
	changeCmd.Flags().Float64("minsize", 0, "Minimum changed-area size in ha (0 uses the configured value)")
	changeCmd.Flags().Float64("gain-thresh", 0, "Information gain threshold (0 uses the configured value)")
	changeCmd.Flags().BoolP("filter", "f", false, "Apply a mode filter to the change product")
	changeCmd.Flags().Int("mode-winsize", 3, "Mode filter window size")
	changeCmd.Flags().Int("gain-winsize", 0, "Information gain window size (0 uses the configured value)")
	_ = changeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(changeCmd)
}

func runChange(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("change"); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return eris.Wrap(classify.ErrInputValidation, "change: input must consist of two raster maps")
	}

	t1, err := loadGrid("input[0]", strings.TrimSpace(parts[0]))
	if err != nil {
		return err
	}
	t2, err := loadGrid("input[1]", strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	gainPath, _ := cmd.Flags().GetString("gain")
	gainWindow, _ := cmd.Flags().GetInt("gain-winsize")
	if gainWindow == 0 {
		gainWindow = cfg.Change.GainWindow
	}
	var gain *raster.Grid
	if gainPath != "" {
		if gain, err = loadGrid("gain", gainPath); err != nil {
			return err
		}
	} else {
		zap.L().Info("computing information gain", zap.Int("window", gainWindow))
		if gain, err = change.GainLayer(t1, t2, gainWindow); err != nil {
			return err
		}
	}

	minSize, _ := cmd.Flags().GetFloat64("minsize")
	if minSize == 0 {
		minSize = cfg.Change.MinSizeHa
	}
	gainThresh, _ := cmd.Flags().GetFloat64("gain-thresh")
	if gainThresh == 0 {
		gainThresh = cfg.Change.GainThreshold
	}
	modeFilter, _ := cmd.Flags().GetBool("filter")
	modeWindow := 0
	if modeFilter {
		modeWindow, _ = cmd.Flags().GetInt("mode-winsize")
	}

	outputs := make(map[classify.Class]string)
	var classes []classify.Class
	for flag, class := range classOutputFlags {
		path, _ := cmd.Flags().GetString(flag)
		if path != "" {
			outputs[class] = path
			classes = append(classes, class)
		}
	}
	outputCD, _ := cmd.Flags().GetString("output-cd")

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	params, _ := json.Marshal(map[string]any{
		"gain_threshold": gainThresh,
		"min_size_ha":    minSize,
		"mode_window":    modeWindow,
	})
	run, err := s.CreateRun(ctx, "change", string(params))
	if err != nil {
		return err
	}

	product, err := change.Detect(t1, t2, gain, change.Options{
		GainThreshold: gainThresh,
		MinAreaHa:     minSize,
		Classes:       classes,
		ModeWindow:    modeWindow,
		EmitTotal:     outputCD != "",
	})
	if err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}

	counts := make(map[classify.Class]int, len(product.PerClass))
	if outputCD != "" {
		if err := raster.WriteASCIIGrid(outputCD, product.Total); err != nil {
			_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
			return err
		}
	}
	for class, grid := range product.PerClass {
		counts[class] = grid.ValidCount()
		path, ok := outputs[class]
		if !ok {
			continue
		}
		if err := raster.WriteASCIIGrid(path, grid); err != nil {
			_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
			return err
		}
	}

	if err := s.SaveCounts(ctx, run.ID, counts); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}
	if err := s.FinishRun(ctx, run.ID, store.StatusCompleted); err != nil {
		return err
	}

	zap.L().Info("change run completed",
		zap.String("run_id", run.ID),
		zap.Int("class_outputs", len(outputs)),
	)
	return nil
}
