// Package schema compiles a declarative dialog schema into fast lookup tables
// and validates it.
//
// Validation never stops at the first problem: every issue is collected with
// its path and reported as a single *ValidationError.
//
// Basic usage:
//
//	compiled, err := schema.Compile(domain.Schema{
//	    StartDialogID: "start",
//	    Dialogs: []domain.Dialog{
//	        {ID: "start", Text: domain.Text("Hello")},
//	    },
//	}, true)
//	if err != nil {
//	    for _, issue := range schema.Issues(err) {
//	        log.Println(issue.Path, issue.Message)
//	    }
//	}
//
// Schemas can also be loaded from YAML documents with Load, resolving action
// names through a Registry:
//
//	reg := schema.NewRegistry()
//	reg.Register("greet", greetAction)
//	raw, err := schema.Load(file, reg)
package schema
