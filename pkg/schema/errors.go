package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue is a single schema validation failure.
type Issue struct {
	Path    string // e.g. "dialogs[2].inline_buttons[0][1]"
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationError aggregates every issue found in a schema.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid schema: " + e.Issues[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid schema: %d validation errors:\n", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, issue)
	}
	return sb.String()
}

// Issues returns all validation issues if err is a ValidationError.
// Otherwise returns nil.
func Issues(err error) []Issue {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues
	}
	return nil
}

type issues []Issue

func (is *issues) add(path, format string, args ...any) {
	*is = append(*is, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Issues: is}
}
