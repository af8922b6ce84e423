/*
Package runner drives a conversation with a flow from a terminal or a pipe.

The Runner launches (or resumes) an execution through a ports.FlowExecutor,
presents every rendered view through an IOHandler and turns the user's
replies into events until the flow ends. Handlers decouple the interaction
mode from the loop:

  - TextHandler: interactive CLI. A reply is an event id followed by
    key=value request parameters, e.g. "submit name=Ada age=36".
  - JSONHandler: JSON Lines. Responses are written one per line and
    commands are read as {"event": "...", "params": {...}}.

# Usage

	r := runner.New(exec, runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	resp, err := r.Run(ctx, "booking", nil)
*/
package runner
