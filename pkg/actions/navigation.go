package actions

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

type goTo struct {
	target string
}

// GoTo navigates the conversation to the given dialog.
func GoTo(dialogID string) domain.Action {
	return goTo{target: dialogID}
}

func (g goTo) Run(ctx context.Context, ac *domain.ActionContext) error {
	return ac.Bot.ChangeDialog(ctx, ac.Conversation, g.target)
}

func (g goTo) Name() string { return "goto:" + g.target }

func (g goTo) Target() string { return g.target }

type goToStart struct{}

// GoToStart navigates the conversation to the start dialog.
func GoToStart() domain.Action {
	return goToStart{}
}

func (goToStart) Run(ctx context.Context, ac *domain.ActionContext) error {
	return ac.Bot.ChangeDialog(ctx, ac.Conversation, ac.Bot.StartDialogID())
}

func (goToStart) Name() string { return "start" }

// Reset clears the conversation state and shows the start dialog.
func Reset() domain.Action {
	return Named("reset", domain.ActionFunc(func(ctx context.Context, ac *domain.ActionContext) error {
		return ac.Bot.Reset(ctx, ac.Conversation)
	}))
}

type named struct {
	domain.Action
	name string
}

func (n named) Name() string { return n.name }

// Target forwards the wrapped action's navigation target, if any.
func (n named) Target() string {
	if nav, ok := n.Action.(domain.Navigator); ok {
		return nav.Target()
	}
	return ""
}

// Named gives an action a stable identity, used for button tokens.
func Named(name string, a domain.Action) domain.Action {
	return named{Action: a, name: name}
}
