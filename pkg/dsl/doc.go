/*
Package dsl provides a Go DSL for constructing Arbor flows in code.

It produces the same model.FlowModel a YAML document would, so flows written
in Go go through the same validation and builder as declarative ones. This
is useful for dynamic flow generation, unit testing and IDE
autocompletion.

Example usage:

	f := dsl.New("signup")
	f.Var("account", "")

	f.View("form").
		On("submit", "check").Bind("email", "account.email", "").
		On("cancel", "cancelled")

	f.Decision("check", "account.email != ''", "done", "form")
	f.End("done").Output("email", "account.email")
	f.End("cancelled")

	flow, err := f.Build(builder.NewServices())
*/
package dsl
