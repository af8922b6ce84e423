package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/internal/presentation/graph"
)

// Validate builds every flow of cfg.Dir and reports each failure on out.
func Validate(cfg AppConfig, out io.Writer, logger *slog.Logger) error {
	p, err := OpenStore(StoreOptions{}, logger)
	if err != nil {
		return err
	}
	app, err := OpenApp(cfg, p, logger)
	if err != nil {
		return err
	}
	ids := app.FlowIDs()
	if len(ids) == 0 {
		return fmt.Errorf("no flows found in %s", cfg.Dir)
	}
	failed := 0
	for _, id := range ids {
		if _, err := app.Flows.Lookup(id); err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d flows are invalid", failed, len(ids))
	}
	return nil
}

// GraphOptions selects the flow to draw and, optionally, the execution
// whose progress is overlaid on it.
type GraphOptions struct {
	Dir       string
	FlowID    string
	Execution string
	Commands  string
	Store     StoreOptions
}

// Graph writes the Mermaid diagram of a flow to out.
func Graph(ctx context.Context, opts GraphOptions, out io.Writer, logger *slog.Logger) error {
	p, err := OpenStore(opts.Store, logger)
	if err != nil {
		return err
	}
	app, err := OpenApp(AppConfig{Dir: opts.Dir, Commands: opts.Commands}, p, logger)
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	flowID := opts.FlowID
	if opts.Execution != "" {
		exec, err := app.Inspect(ctx, opts.Execution)
		if err != nil {
			return err
		}
		if flowID == "" {
			flowID = exec.FlowID
		}
		overlay = graph.OverlayFor(exec, flowID)
	}
	if flowID == "" {
		ids := app.FlowIDs()
		if len(ids) != 1 {
			return fmt.Errorf("a flow id is required, available: %v", ids)
		}
		flowID = ids[0]
	}

	m, err := app.Model(flowID)
	if err != nil {
		return err
	}
	fmt.Fprint(out, graph.GenerateMermaid(m, overlay))
	return nil
}
