/*
Package arbor is a conversational flow runtime: flows are state machines of
view, action, decision, subflow and end states that pause at every view and
resume when the user signals an event.

Flows are declared as YAML, JSON or Markdown-frontmatter documents and
compiled into immutable definitions. An execution is the persisted
conversation: a stack of flow sessions sharing a conversation scope. Hosts
drive executions through a FlowExecutor, which loads the snapshot, resumes
it with the event, saves it again and answers with what to render.

# Usage

	app, err := arbor.New("./flows", arbor.WithAction("audit", audit))
	if err != nil {
		log.Fatal(err)
	}

	resp, err := app.Launch(ctx, "booking", attr.Of("hotel", "Ritz"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Rendering.Content)

	resp, err = app.Resume(ctx, resp.Key, "proceed", attr.Of("nights", "3"))

The runner package wraps the same loop for terminals and JSON-Lines pipes,
and pkg/adapters/http exposes it over HTTP.
*/
package arbor
