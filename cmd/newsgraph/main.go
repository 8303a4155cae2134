// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the newsgraph CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/newsgraph/internal/logging"
	"github.com/meshintel/newsgraph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the newsgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "newsgraph",
	Short: "Infer relationships between news articles",
	Long: `newsgraph builds a similarity graph over embedded news articles, threads
the graph into storylines, scores each storyline's momentum, and raises
alerts on anomalies in the coverage.

Each stage is a subcommand: ingest, graph, storylines, detect, and alerts.
Use "pipeline run" to execute the analysis stages in order.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./newsgraph.yaml or ~/.config/newsgraph/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: instance/newsgraph.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("newsgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "newsgraph"))
		}
	}

	viper.SetEnvPrefix("NEWSGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		os.Exit(1)
	}
}
