// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the database contents",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	articles, err := st.ArticleCount(ctx)
	if err != nil {
		return err
	}
	embeddings, err := st.EmbeddingCount(ctx)
	if err != nil {
		return err
	}
	edges, err := st.EdgeCount(ctx)
	if err != nil {
		return err
	}
	storylines, err := st.StorylineCount(ctx)
	if err != nil {
		return err
	}
	alertTotal, alertUnacked, err := st.AlertCount(ctx)
	if err != nil {
		return err
	}

	w := os.Stdout
	fmt.Fprintf(w, "database:   %s\n", dbPath(cmd))
	fmt.Fprintf(w, "articles:   %d (%d with embeddings)\n", articles, embeddings)
	fmt.Fprintf(w, "edges:      %d\n", edges)
	fmt.Fprintf(w, "storylines: %d\n", storylines)
	fmt.Fprintf(w, "alerts:     %d (%d unacknowledged)\n", alertTotal, alertUnacked)
	return nil
}
