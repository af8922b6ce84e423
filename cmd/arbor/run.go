package main

import (
	"context"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flow]",
	Short: "Converse with a flow in the terminal",
	Long: `Launches a flow and reads events from stdin. A reply is an event id
followed by key=value parameters, e.g. "submit name=Ada". Type "quit" or
close the input to pause; with a persistent store the execution can be
continued later with --resume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Store: storeOptions(cmd)}
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.Commands, _ = cmd.Flags().GetString("commands")
		opts.Input, _ = cmd.Flags().GetString("input")
		opts.Resume, _ = cmd.Flags().GetString("resume")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Development, _ = cmd.Flags().GetBool("watch")
		if len(args) > 0 {
			opts.FlowID = args[0]
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Run(ctx, opts, os.Stdin, os.Stdout, log)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addStoreFlags(runCmd)
	runCmd.Flags().String("input", "", "Flow input as a JSON object")
	runCmd.Flags().String("resume", "", "Continue the stored execution with this key")
	runCmd.Flags().Bool("json", false, "Exchange JSON-Lines on stdin/stdout")
	runCmd.Flags().Bool("watch", false, "Rebuild flows when their definitions change")
}
