package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tgflow/internal/presentation/graph"
	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/schema"
)

func compile(t *testing.T, s domain.Schema) *schema.Compiled {
	t.Helper()
	c, err := schema.Compile(s, false)
	require.NoError(t, err)
	return c
}

func inline(text string, as ...domain.Action) domain.InlineButton {
	return domain.InlineButton{Text: domain.Text(text), Action: domain.Do(as...)}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		schema   domain.Schema
		contains []string
		excludes []string
	}{
		{
			name: "Dialog Shapes",
			schema: domain.Schema{
				StartDialogID: "start",
				ErrorDialogID: "oops",
				Dialogs: []domain.Dialog{
					{ID: "start"},
					{ID: "oops"},
					{ID: "ask", ReplyButtons: domain.ReplyRows(domain.Row(domain.ReplyButton{Text: domain.Text("Yes")}))},
					{ID: "plain"},
				},
			},
			contains: []string{
				`start(("start"))`,
				`oops{{"oops"}}`,
				`ask[/"ask"/]`,
				`plain["plain"]`,
			},
		},
		{
			name: "Button Edges",
			schema: domain.Schema{
				StartDialogID: "start",
				Dialogs: []domain.Dialog{
					{ID: "start", InlineButtons: domain.InlineRows(domain.Row(
						inline(`Say "hi"`, actions.GoTo("hello")),
						inline("Docs"),
					))},
					{ID: "hello", InlineButtons: domain.InlineRows(domain.Row(inline("Home", actions.GoToStart())))},
					{ID: "menu", ReplyButtons: domain.ReplyRows(domain.Row(domain.ReplyButton{
						Text:   domain.Text("Back"),
						Action: domain.Do(actions.GoTo("start")),
					}))},
				},
			},
			contains: []string{
				`start -- "Say 'hi'" --> hello`,
				`hello -- "Home" --> start`,
				`menu -- "⌨ Back" --> start`,
			},
			excludes: []string{`"Docs"`},
		},
		{
			name: "Cross Folder Jump",
			schema: domain.Schema{
				StartDialogID: "main/start",
				Dialogs: []domain.Dialog{
					{ID: "main/start", InlineButtons: domain.InlineRows(domain.Row(inline("Go", actions.GoTo("billing/plans"))))},
					{ID: "billing/plans"},
				},
			},
			contains: []string{
				`main_start -. "Go" .-> billing_plans`,
				`billing_plans["billing/plans"]`,
			},
		},
		{
			name: "Commands And Fallback",
			schema: domain.Schema{
				StartDialogID: "start",
				Dialogs:       []domain.Dialog{{ID: "start"}, {ID: "help"}},
				Commands: []domain.Command{
					{Name: "help", Action: domain.Do(actions.GoTo("help"))},
				},
				Fallback: domain.Do(actions.GoToStart()),
			},
			contains: []string{
				`cmd_help>"/help"]`,
				`cmd_help -.-> help`,
				`fallback(["fallback"])`,
				`fallback -.-> start`,
			},
			excludes: []string{"reply_fallback"},
		},
		{
			name: "Dynamic Keyboard",
			schema: domain.Schema{
				StartDialogID: "start",
				Dialogs: []domain.Dialog{{
					ID: "start",
					InlineButtons: domain.InlineFunc(func(context.Context, domain.ConversationID) ([][]domain.InlineButton, error) {
						return nil, nil
					}),
				}},
			},
			contains: []string{`start(("start <br/> ⚙️ dynamic"))`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(compile(t, tt.schema), nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	c := compile(t, domain.Schema{
		StartDialogID: "start",
		Dialogs:       []domain.Dialog{{ID: "start"}, {ID: "step-2"}},
	})

	got := graph.GenerateMermaid(c, &graph.GraphOverlay{
		VisitedDialogs: []string{"start", "start", "step-2"},
		CurrentDialog:  "step-2",
	})

	assert.Equal(t, 1, strings.Count(got, "class start visited;"))
	assert.Contains(t, got, "class step_2 visited;")
	assert.Contains(t, got, "class step_2 current;")
	assert.NotContains(t, graph.GenerateMermaid(c, nil), "classDef")
}
