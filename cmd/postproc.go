package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/postproc"
	"github.com/incora-geo/landcover-cli/internal/raster"
	"github.com/incora-geo/landcover-cli/internal/store"
)

var postprocCmd = &cobra.Command{
	Use:   "postproc",
	Short: "Post-process a 7-class classification into 6 classes",
	Long:  "Removes the transitional mixed built-up class and applies the ordered elevation, coastline, patch-size and water corrections.",
	RunE:  runPostproc,
}

func init() {
	postprocCmd.Flags().String("classification", "", "Input 7-class classification raster")
	postprocCmd.Flags().String("elevation", "", "Input digital elevation model")
	postprocCmd.Flags().String("coastline", "", "Input binary land/sea raster")
	postprocCmd.Flags().String("water", "", "Input water/non-water raster")
	postprocCmd.Flags().String("roads", "", "Input roads raster")
	postprocCmd.Flags().StringP("output", "o", "", "Output 6-class classification raster")
	for _, flag := range []string{"classification", "elevation", "coastline", "water", "roads", "output"} {
		_ = postprocCmd.MarkFlagRequired(flag)
	}
	rootCmd.AddCommand(postprocCmd)
}

func runPostproc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("postproc"); err != nil {
		return err
	}

	class7, err := loadGrid("classification", flagString(cmd, "classification"))
	if err != nil {
		return err
	}
	elevation, err := loadGrid("elevation", flagString(cmd, "elevation"))
	if err != nil {
		return err
	}
	coastline, err := loadGrid("coastline", flagString(cmd, "coastline"))
	if err != nil {
		return err
	}
	water, err := loadGrid("water", flagString(cmd, "water"))
	if err != nil {
		return err
	}
	roads, err := loadGrid("roads", flagString(cmd, "roads"))
	if err != nil {
		return err
	}
	output := flagString(cmd, "output")

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	params, _ := json.Marshal(map[string]any{"output": output})
	run, err := s.CreateRun(ctx, "postproc", string(params))
	if err != nil {
		return err
	}

	corrected, err := postproc.Correct(class7, elevation, coastline, water, roads, postprocParams())
	if err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}

	if err := raster.WriteASCIIGrid(output, corrected); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}

	counts := make(map[classify.Class]int, len(classify.Final))
	for _, class := range classify.Final {
		counts[class] = 0
	}
	region := corrected.Region()
	for i := 0; i < region.Size(); i++ {
		v := corrected.Cell(i)
		if raster.IsNullValue(v) {
			continue
		}
		if class, ok := classify.ClassByCode(int(v)); ok {
			counts[class]++
		}
	}
	if err := s.SaveCounts(ctx, run.ID, counts); err != nil {
		_ = s.FinishRun(ctx, run.ID, store.StatusFailed)
		return err
	}
	if err := s.FinishRun(ctx, run.ID, store.StatusCompleted); err != nil {
		return err
	}

	zap.L().Info("postproc run completed",
		zap.String("run_id", run.ID),
		zap.String("output", output),
	)
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
