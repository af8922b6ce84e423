package main

import (
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flow]",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of a flow. With --execution the
states the execution visited and the one it is paused in are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger(cmd)
		if err != nil {
			return err
		}
		opts := cli.GraphOptions{Store: storeOptions(cmd)}
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.Commands, _ = cmd.Flags().GetString("commands")
		opts.Execution, _ = cmd.Flags().GetString("execution")
		if len(args) > 0 {
			opts.FlowID = args[0]
		}
		return cli.Graph(cmd.Context(), opts, os.Stdout, log)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addStoreFlags(graphCmd)
	graphCmd.Flags().String("execution", "", "Overlay the progress of this stored execution")
}
