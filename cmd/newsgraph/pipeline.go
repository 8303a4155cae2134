// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/detect"
	"github.com/meshintel/newsgraph/internal/graph"
	"github.com/meshintel/newsgraph/internal/storyline"
)

// pipelineStages in execution order, addressable via --from.
var pipelineStages = []string{"graph", "thread", "momentum", "detect"}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the analysis stages in order",
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the graph, thread storylines, score momentum, detect anomalies",
	Long: `Run executes the full analysis over already-ingested data: graph build,
storyline threading, momentum scoring, and anomaly detection. Use --force
to rebuild edges and storylines from scratch, and --from to resume at a
later stage (graph, thread, momentum, detect).`,
	RunE: runPipeline,
}

func init() {
	pipelineRunCmd.Flags().Bool("force", false, "rebuild edges and storylines from scratch")
	pipelineRunCmd.Flags().String("from", "graph", "stage to start from (graph, thread, momentum, detect)")

	pipelineCmd.AddCommand(pipelineRunCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	from, _ := cmd.Flags().GetString("from")
	start := slices.Index(pipelineStages, from)
	if start < 0 {
		return fmt.Errorf("unknown stage %q (stages: graph, thread, momentum, detect)", from)
	}

	ctx := context.Background()
	out := os.Stdout

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if start == 0 {
		ix, err := buildIndex(ctx, st)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "==> graph build")
		gStats, err := graph.NewBuilder(st, ix, graphConfig()).Build(ctx, force, out)
		if err != nil {
			return err
		}
		if gStats.Errors > 0 && gStats.EdgesCreated == 0 && gStats.Skipped == 0 {
			return fmt.Errorf("graph build failed for all %d article(s)", gStats.Errors)
		}
	}

	if start <= 1 {
		fmt.Fprintln(out, "==> storyline threading")
		if _, err := storyline.NewThreader(st, storylineConfig()).Thread(ctx, force, out); err != nil {
			return err
		}
	}

	if start <= 2 {
		fmt.Fprintln(out, "==> momentum")
		if _, err := storyline.NewMomentum(st).Recompute(ctx, out); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "==> detect")
	if _, err := detect.New(st, detectConfig()).Run(ctx, out); err != nil {
		return err
	}
	return nil
}
