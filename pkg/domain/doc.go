/*
Package domain contains the core models of the tgflow dialog runtime.

It defines the entities every other package speaks in terms of: dialogs and their
buttons, the per-conversation navigation State, inbound Updates, platform-shaped
keyboard markup, input waits and the lifecycle events emitted by the runtime.
The package is free of I/O and depends only on the standard library, following
Hexagonal Architecture principles.

# Key Entities

  - Dialog: a named screen with text, images, inline and reply buttons, and enter/leave hooks.
  - Schema: the declarative list of dialogs and commands a bot is built from.
  - State: the navigation snapshot of one conversation.
  - Source: a value that is either static or resolved per conversation.
  - Action: application code triggered by buttons, commands and fallbacks.
  - Update: a normalized inbound event from the messaging platform.
*/
package domain
