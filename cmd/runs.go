package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-9s  %-9s  %s\n", "ID", "KIND", "STATUS", "CREATED")
	for _, r := range runs {
		fmt.Printf("%-36s  %-9s  %-9s  %s\n", r.ID, r.Kind, r.Status, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
