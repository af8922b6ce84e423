package main

import (
	"context"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the flows of --dir over a JSON API: launch, resume, inspect and server-sent diffs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger(cmd)
		if err != nil {
			return err
		}
		opts := cli.ServeOptions{Store: storeOptions(cmd)}
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.Commands, _ = cmd.Flags().GetString("commands")
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.Metrics, _ = cmd.Flags().GetBool("metrics")
		opts.Development, _ = cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Serve(ctx, opts, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addStoreFlags(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Bool("watch", false, "Rebuild flows when their definitions change")
}
