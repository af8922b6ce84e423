package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every flow definition",
	Long:  `Builds every flow of --dir and reports unknown states, actions, flows and malformed expressions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger(cmd)
		if err != nil {
			return err
		}
		var cfg cli.AppConfig
		cfg.Dir, _ = cmd.Flags().GetString("dir")
		cfg.Commands, _ = cmd.Flags().GetString("commands")
		if err := cli.Validate(cfg, os.Stdout, log); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Println("All flows are valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
