// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/detect"
	"github.com/meshintel/newsgraph/internal/logging"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run the anomaly detectors",
}

var detectRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Check for topic surges, reactivations, and new actors",
	Long: `Run executes all anomaly detectors against the current database:
clusters whose weekly article count outgrew the previous week, dormant
storylines with fresh articles, and entities appearing for the first
time. Duplicate alerts inside the dedup window are suppressed.`,
	RunE: runDetect,
}

func init() {
	detectCmd.AddCommand(detectRunCmd)
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	d := detect.New(st, detectConfig())
	stats, err := d.Run(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	logging.Info("detect finished",
		"alerts", stats.AlertsCreated,
		"surges", stats.Surges,
		"reactivations", stats.Reactivations,
		"new_actors", stats.NewActors)
	return nil
}
