// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/logging"
	"github.com/meshintel/newsgraph/internal/storyline"
)

var storylinesCmd = &cobra.Command{
	Use:   "storylines",
	Short: "Thread, score, and export storylines",
	Long: `Storylines groups similar articles into narrative threads by walking
the similarity graph tier by tier, maintains each thread's momentum score
and lifecycle status, and exports threads with their ordered members.`,
}

var storylinesThreadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Group articles into storylines from the similarity graph",
	Long: `Thread classifies similarity edges into tiers (near-duplicate,
continuation, related) and greedily grows storylines, strongest tier
first. Existing storylines are left alone unless --force is given, which
rebuilds from scratch. Momentum is recomputed after threading.`,
	RunE: runStorylinesThread,
}

var storylinesMomentumCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Recompute momentum scores and lifecycle status",
	RunE:  runStorylinesMomentum,
}

var storylinesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all storylines with their members to stdout",
	RunE:  runStorylinesExport,
}

func init() {
	storylinesThreadCmd.Flags().Bool("force", false, "discard existing storylines and rethread")
	storylinesExportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	storylinesCmd.AddCommand(storylinesThreadCmd, storylinesMomentumCmd, storylinesExportCmd)
	rootCmd.AddCommand(storylinesCmd)
}

func runStorylinesThread(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	ctx := context.Background()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	th := storyline.NewThreader(st, storylineConfig())
	stats, err := th.Thread(ctx, force, os.Stdout)
	if err != nil {
		return err
	}
	logging.Info("threading finished",
		"storylines", stats.StorylinesCreated, "articles", stats.ArticlesGrouped, "skipped", stats.Skipped)
	if stats.Skipped {
		return nil
	}

	// Fresh storylines start unscored; compute momentum right away.
	_, err = storyline.NewMomentum(st).Recompute(ctx, os.Stdout)
	return err
}

func runStorylinesMomentum(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := storyline.NewMomentum(st).Recompute(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	logging.Info("momentum recomputed",
		"updated", stats.Updated, "active", stats.Active, "dormant", stats.Dormant, "concluded", stats.Concluded)
	return nil
}

func runStorylinesExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	return storyline.Export(context.Background(), st, format, os.Stdout)
}
