// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cris-reconcile CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cris-reconcile/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the cris-reconcile CLI.
var rootCmd = &cobra.Command{
	Use:   "cris-reconcile",
	Short: "Reconcile CRIS publications against OpenAlex",
	Long: `cris-reconcile pages through validated publications in a CRIS registry and
matches each one against OpenAlex, first by DOI, then by PubMed ID, then by
title and publication year. Matched works are enriched with Scopus citation
counts and BIP! impact scores, checked for a home-institution affiliation,
and appended to a tab-separated output file with the strategy that matched.

Configuration comes from cris-reconcile.yaml, CRIS_RECONCILE_* environment
variables, .env files and credential files in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		set, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		for _, name := range set.Unreadable {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s\n", name)
		}
		if applied := set.Apply(viper.GetViper()); len(applied) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", applied)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cris-reconcile.yaml or ~/.config/cris-reconcile/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
}

func initConfig() {
	loadEnvFiles(".env.local", ".env")

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cris-reconcile")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cris-reconcile"))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())
	bindLegacyEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadEnvFiles loads .env style files into the process environment. Files
// earlier in the list win; variables already set are never overridden.
func loadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", f, err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
