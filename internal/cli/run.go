package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/process"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/executor"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Dir    string
	FlowID string
	// Input is a JSON object passed as the flow input.
	Input string
	// Resume continues a stored execution instead of launching FlowID.
	Resume      string
	JSON        bool
	Development bool
	Commands    string
	Store       StoreOptions
}

// AppConfig selects what OpenApp loads.
type AppConfig struct {
	Dir string
	// Commands is a YAML or JSON file of shell commands callable as actions.
	Commands    string
	Development bool
}

// OpenApp loads the flows of cfg.Dir with the store, locker, command
// actions and logging listener every command shares.
func OpenApp(cfg AppConfig, p *Persistence, logger *slog.Logger, opts ...arbor.Option) (*arbor.App, error) {
	all := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithStore(p.Store),
		arbor.WithListeners(observability.NewLoggingListener(logger)),
		arbor.WithDevelopment(cfg.Development),
	}
	if p.Locker != nil {
		all = append(all, arbor.WithExecutorOptions(executor.WithLocker(p.Locker)))
	}
	if cfg.Commands != "" {
		commands, err := process.LoadCommands(cfg.Commands)
		if err != nil {
			return nil, err
		}
		actions, err := process.Actions(commands, filepath.Dir(cfg.Commands))
		if err != nil {
			return nil, err
		}
		for name, a := range actions {
			all = append(all, arbor.WithAction(name, a))
		}
		logger.Debug("command actions loaded", "file", cfg.Commands, "count", len(actions))
	}
	app, err := arbor.New(cfg.Dir, append(all, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing arbor: %w", err)
	}
	return app, nil
}

// Run converses with a flow over in and out until it ends or the input
// runs out. A suspended execution can be continued later with its key when
// the store is persistent.
func Run(ctx *SignalContext, opts RunOptions, in io.Reader, out io.Writer, logger *slog.Logger) error {
	if opts.FlowID == "" && opts.Resume == "" {
		return fmt.Errorf("a flow id or --resume key is required")
	}
	input, err := parseInput(opts.Input)
	if err != nil {
		return err
	}

	p, err := OpenStore(opts.Store, logger)
	if err != nil {
		return err
	}
	app, err := OpenApp(AppConfig{Dir: opts.Dir, Commands: opts.Commands, Development: opts.Development}, p, logger)
	if err != nil {
		return err
	}

	handler, rich := newHandler(opts.JSON, in, out)
	if rich {
		tui.PrintBanner(out, arbor.Version)
	}
	r := runner.New(app, runner.WithHandler(handler), runner.WithLogger(logger))

	var resp *ports.Response
	if opts.Resume != "" {
		resp, err = r.Continue(ctx, opts.Resume)
	} else {
		resp, err = r.Run(ctx, opts.FlowID, input)
	}
	if err != nil {
		return err
	}

	if resp != nil && !resp.Ended && !opts.JSON {
		if sig := ctx.Signal(); sig != nil {
			fmt.Fprintln(out)
		}
		if p.Kind == "memory" {
			fmt.Fprintf(out, ">>> Stopped at '%s'.\n", resp.StateID)
		} else {
			fmt.Fprintf(out, ">>> Paused at '%s'. Continue with --resume %s\n", resp.StateID, resp.Key)
		}
	}
	return nil
}

// newHandler picks the JSON-Lines handler, or the text handler with
// markdown rendering when both ends are a terminal.
func newHandler(jsonMode bool, in io.Reader, out io.Writer) (runner.IOHandler, bool) {
	if jsonMode {
		return runner.NewJSONHandler(in, out), false
	}
	if !tui.Interactive(in, out) {
		return runner.NewTextHandler(in, out), false
	}
	var opts []runner.TextHandlerOption
	if render, err := tui.NewRenderer(); err == nil {
		opts = append(opts, runner.WithTextHandlerRenderer(render))
	}
	return runner.NewTextHandler(in, out, opts...), true
}

func parseInput(raw string) (*attr.Map, error) {
	if raw == "" {
		return nil, nil
	}
	input := attr.New()
	if err := json.Unmarshal([]byte(raw), input); err != nil {
		return nil, fmt.Errorf("error parsing --input JSON: %w", err)
	}
	return input, nil
}
