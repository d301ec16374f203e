package domain

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
)

// Action is application code triggered by a button, command or fallback.
type Action interface {
	Run(ctx context.Context, ac *ActionContext) error
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, ac *ActionContext) error

// Run calls f(ctx, ac).
func (f ActionFunc) Run(ctx context.Context, ac *ActionContext) error {
	return f(ctx, ac)
}

// Actions is the normalized, ordered sequence of actions bound to a trigger.
// A single handler is a sequence of length one.
type Actions []Action

// Do normalizes its arguments into an Actions sequence, skipping nil entries.
func Do(actions ...Action) Actions {
	out := make(Actions, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Namer is implemented by actions that carry a stable identity.
type Namer interface {
	Name() string
}

// Navigator is implemented by actions that navigate to a known dialog.
type Navigator interface {
	Target() string
}

// ActionName returns a stable identity for an action within one build.
func ActionName(a Action) string {
	switch v := a.(type) {
	case nil:
		return ""
	case Namer:
		return v.Name()
	case ActionFunc:
		if fn := runtime.FuncForPC(reflect.ValueOf(v).Pointer()); fn != nil {
			return fn.Name()
		}
	}
	return fmt.Sprintf("%T", a)
}

// Identity returns the discriminator used to tell structurally identical
// buttons with different behavior apart.
func (as Actions) Identity() string {
	if len(as) == 0 {
		return ""
	}
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = ActionName(a)
	}
	return fmt.Sprintf("%d:%s", len(as), strings.Join(names, ","))
}

// Targets lists the dialogs the sequence is known to navigate to.
func (as Actions) Targets() []string {
	var out []string
	for _, a := range as {
		if n, ok := a.(Navigator); ok && n.Target() != "" {
			out = append(out, n.Target())
		}
	}
	return out
}

// ActionContext is passed to every action.
type ActionContext struct {
	Conversation ConversationID
	Bot          Controller
	// Update is the inbound event that triggered the action, nil for programmatic calls.
	Update *Update
	// CommandArgs holds the text after the command name for command actions.
	CommandArgs string
	Logger      *slog.Logger
}

// HookContext is passed to dialog enter and leave hooks.
type HookContext struct {
	ActionContext
	// OtherDialogID is the target dialog on leave and the previous dialog on enter.
	OtherDialogID string
}

// DialogHook runs when a conversation enters or leaves a dialog.
type DialogHook func(ctx context.Context, hc *HookContext) error

// Controller is the runtime surface available to actions.
type Controller interface {
	ChangeDialog(ctx context.Context, id ConversationID, dialogID string) error
	Reset(ctx context.Context, id ConversationID) error
	StartDialogID() string

	SendMessage(ctx context.Context, id ConversationID, text string, opts *SendOptions) (Message, error)
	DeleteMessage(ctx context.Context, id ConversationID, messageID int64) (bool, error)

	WaitForText(ctx context.Context, id ConversationID, opts *WaitOptions) (WaitResult, error)
	WaitForFile(ctx context.Context, id ConversationID, opts *WaitOptions) (WaitResult, error)

	State(id ConversationID) State
	SetData(id ConversationID, key string, value any)
	Data(id ConversationID, key string) (any, bool)
	DeleteData(id ConversationID, key string) bool

	Emit(ctx context.Context, event string, id ConversationID, args ...any)
}
