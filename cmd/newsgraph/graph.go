// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/graph"
	"github.com/meshintel/newsgraph/internal/logging"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build and inspect the article similarity graph",
}

var graphBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Derive similarity edges for all embedded articles",
	Long: `Build runs a k-nearest-neighbor query for every article with an
embedding and stores an edge, in both directions, for each neighbor at or
above the similarity threshold. Articles that already have edges are
skipped; --force deletes and rebuilds their edges.`,
	RunE: runGraphBuild,
}

func init() {
	graphBuildCmd.Flags().Bool("force", false, "rebuild edges for articles that already have them")

	graphCmd.AddCommand(graphBuildCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphBuild(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	ctx := context.Background()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ix, err := buildIndex(ctx, st)
	if err != nil {
		return err
	}

	b := graph.NewBuilder(st, ix, graphConfig())
	stats, err := b.Build(ctx, force, os.Stdout)
	if err != nil {
		return err
	}
	logging.Info("graph build finished",
		"edges", stats.EdgesCreated, "skipped", stats.Skipped, "errors", stats.Errors)
	if stats.Errors > 0 {
		return fmt.Errorf("%d article(s) failed graph build", stats.Errors)
	}
	return nil
}
