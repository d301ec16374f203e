/*
Package tgflow is a conversational dialog engine for Telegram-style chat bots.

A bot is described as a graph of dialogs. Each dialog shows text or images, an
inline keyboard attached to the message and optionally a persistent reply
keyboard. Buttons run actions; the most common action moves the conversation to
another dialog. The runtime keeps one navigation state per conversation and
reconciles every transition with the chat, editing the last message in place
when it can and replacing it when it must.

# Concept

The engine sits between an inbound update source and a messaging Platform. It
never talks to the network itself: adapters in pkg/adapters provide the
Telegram Bot API client, a terminal simulator and the storage used for
conversation state. Your application supplies the schema and the actions.

# Key Features

  - Deterministic button tokens: inline callback data is derived from the
    button content, so keyboards survive restarts of the renderer.
  - Edit-in-place rendering with fallback to delete-and-send.
  - Blocking input waits (WaitForText, WaitForFile) with timeout, cancel
    keywords and validation.
  - Onion middleware around every update, plus lifecycle hooks for metrics.
  - Declarative schemas in YAML or markdown with frontmatter.

# Usage

	s := domain.Schema{
		StartDialogID: "menu",
		Dialogs: []domain.Dialog{
			{
				ID:   "menu",
				Text: domain.Text("Welcome!"),
				InlineButtons: domain.InlineRows(domain.Row(
					domain.InlineButton{Text: domain.Text("About"), Action: domain.Do(actions.GoTo("about"))},
				)),
			},
			{ID: "about", Text: domain.Text("A tiny bot.")},
		},
	}

	platform, _ := telegram.New(os.Getenv("TGFLOW_TOKEN"))
	bot, err := tgflow.New(s, platform, tgflow.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer bot.Stop()

	// Feed updates from long polling (see telegram.Bridge) or any other source.
	_ = bot.HandleUpdate(ctx, update)
*/
package tgflow
