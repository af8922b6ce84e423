package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor runs conversational flows",
	Long: `Arbor loads flow definitions (YAML, JSON or Markdown frontmatter) from a
directory and runs them as resumable conversations, in the terminal or over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the flow definitions")
	flags.String("commands", "", "YAML or JSON file of shell commands callable as actions")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
}

func logger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return cli.NewLogger(os.Stderr, level, format)
}

// addStoreFlags registers the execution store flags on cmd.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "memory", "Execution store: memory, file:<dir> or redis://host:port/db")
	cmd.Flags().Duration("store-ttl", 24*time.Hour, "Expiry of executions in Redis (0 keeps them)")
	cmd.Flags().StringSlice("encryption-key", nil, "Base64 AES-256 keys; the first encrypts, the rest decrypt (env ARBOR_ENCRYPTION_KEY)")
	cmd.Flags().StringSlice("mask", nil, "Regular expressions of attribute names masked before saving")
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	url, _ := cmd.Flags().GetString("store")
	ttl, _ := cmd.Flags().GetDuration("store-ttl")
	keys, _ := cmd.Flags().GetStringSlice("encryption-key")
	mask, _ := cmd.Flags().GetStringSlice("mask")
	if len(keys) == 0 {
		if env := os.Getenv("ARBOR_ENCRYPTION_KEY"); env != "" {
			keys = []string{env}
		}
	}
	return cli.StoreOptions{URL: url, TTL: ttl, EncryptionKeys: keys, MaskPatterns: mask}
}
