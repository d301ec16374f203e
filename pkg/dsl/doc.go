/*
Package dsl provides a fluent Go builder for tgflow schemas.

It is an alternative to YAML documents and markdown directories when dialogs
are easier to express in code, e.g. when buttons call Go functions directly.

Example usage:

	b := dsl.New()

	b.Add("start").
		Text("Welcome! What do you need?").
		Go("Pricing", "pricing").
		Row().
		Button("Talk to a human", actions.Emit("handoff"))

	b.Add("pricing").
		Text("Plans start at $5.").
		Go("Back", "start").
		Command("pricing", "Show our plans")

	s, err := b.Build()
	// ... pass s to tgflow.New(...)
*/
package dsl
