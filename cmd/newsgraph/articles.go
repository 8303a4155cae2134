// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Query ingested articles",
}

var articlesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over article titles and summaries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArticlesSearch,
}

func init() {
	articlesSearchCmd.Flags().Int("limit", 20, "maximum number of results")

	articlesCmd.AddCommand(articlesSearchCmd)
	rootCmd.AddCommand(articlesCmd)
}

func runArticlesSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	hits, err := st.SearchArticles(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-10s  %-20s  %s\n", "ID", "Date", "Outlet", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, h := range hits {
		outlet := h.Article.Outlet
		if len(outlet) > 20 {
			outlet = outlet[:20]
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-10s  %-20s  %s\n", h.Article.ID, h.Article.Date, outlet, h.Article.Title)
	}
	return nil
}
