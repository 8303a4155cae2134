// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/ingest"
	"github.com/meshintel/newsgraph/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load articles and NLP artifacts into the database",
	Long: `Ingest loads the outputs of the upstream NLP batch: article metadata
from CSV, plus embedding vectors, entity mentions, and cluster assignments
from JSONL files. Articles are deduplicated by URL.`,
}

var ingestArticlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Load article metadata from a CSV file",
	RunE:  runIngestArticles,
}

var ingestVectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Load embedding vectors from a JSONL file",
	RunE:  makeJSONLRunner(ingest.Vectors),
}

var ingestEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Load entity mentions from a JSONL file",
	RunE:  makeJSONLRunner(ingest.Entities),
}

var ingestClustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Load cluster assignments from a JSONL file",
	RunE:  makeJSONLRunner(ingest.Clusters),
}

func init() {
	ingestArticlesCmd.Flags().String("csv", "", "path to the articles CSV file (required)")
	ingestArticlesCmd.MarkFlagRequired("csv")

	for _, c := range []*cobra.Command{ingestVectorsCmd, ingestEntitiesCmd, ingestClustersCmd} {
		c.Flags().String("file", "", "path to the JSONL file (required)")
		c.MarkFlagRequired("file")
	}

	ingestCmd.AddCommand(ingestArticlesCmd, ingestVectorsCmd, ingestEntitiesCmd, ingestClustersCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestArticles(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("csv")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := ingest.Articles(context.Background(), st, f, os.Stdout)
	if err != nil {
		return err
	}
	if stats.Errors > 0 {
		return fmt.Errorf("%d row(s) failed ingestion", stats.Errors)
	}
	return nil
}

// jsonlLoader is the shared shape of the JSONL ingest functions.
type jsonlLoader func(ctx context.Context, st *store.Store, r io.Reader, w io.Writer) (ingest.Stats, error)

// makeJSONLRunner adapts a JSONL loader into a cobra RunE.
func makeJSONLRunner(load jsonlLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := load(context.Background(), st, f, os.Stdout)
		if err != nil {
			return err
		}
		if stats.Errors > 0 {
			return fmt.Errorf("%d line(s) failed ingestion", stats.Errors)
		}
		return nil
	}
}
