/*
Package ports defines the driven ports (interfaces) of the tgflow runtime.

These interfaces decouple the dialog runtime from the messaging platform and from
the conversation state storage, so tests can substitute in-memory fakes.

# Key Interfaces

  - StateStore: holds one navigation State per conversation.
  - Platform: sends, edits and deletes messages and downloads files.
*/
package ports
