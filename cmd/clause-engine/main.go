// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the clause-engine CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from the log flags before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the clause-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "clause-engine",
	Short: "Extract clause tuples and trigger events from parsed German corpora",
	Long: `clause-engine reads dependency-parsed corpus shards, turns every sentence
into a predicate/subject/object tuple and keeps the ones whose predicate is a
trigger verb embedding another clause. Matching sentences are written as
candidates, and every trigger/event pair is written with its polarity.

Large corpora are split across worker processes with the parallel command;
events can be aggregated in a SQLite store and tallied per event lemma.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		if err := bindFlags(cmd); err != nil {
			return err
		}
		logger = logging.New(logConfig())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./clause-engine.yaml or ~/.config/clause-engine/clause-engine.yaml)")

	// Logging flags.
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file with rotation instead of stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clause-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "clause-engine"))
		}
	}

	viper.SetEnvPrefix("CLAUSE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
