package domain

import "time"

// ConversationID identifies one end-user conversation (the platform chat id).
type ConversationID int64

// NoMessage marks a conversation that has no rendered message yet.
const NoMessage int64 = -1

// MessageKind describes the transport shape of the last rendered message.
type MessageKind string

const (
	KindText       MessageKind = "text"
	KindPhoto      MessageKind = "photo"
	KindMediaGroup MessageKind = "media_group"
)

// InputWait references the active wait of a conversation.
type InputWait struct {
	ID    string      `json:"id"`
	Kinds []InputKind `json:"kinds"`
}

// State represents the navigation snapshot of a single conversation.
type State struct {
	// Conversation is the identifier of the conversation this record belongs to.
	Conversation ConversationID `json:"conversation"`

	// CurrentDialogID is always a valid dialog id or the configured start dialog.
	CurrentDialogID string `json:"current_dialog_id"`

	// LastMessageID is the id of the last rendered bot message, or NoMessage.
	LastMessageID int64 `json:"last_message_id"`

	// LastKind is the transport shape of the last rendered message.
	LastKind MessageKind `json:"last_kind"`

	// Wait is set while the conversation waits for user input.
	// At most one wait is active per conversation.
	Wait *InputWait `json:"wait,omitempty"`

	// ReplyKeyboardActive tracks whether a persistent reply keyboard is shown.
	ReplyKeyboardActive bool `json:"reply_keyboard_active"`

	// Data holds application-defined values for the conversation lifetime.
	Data map[string]any `json:"data"`

	LastActivity time.Time `json:"last_activity"`
}

// NewState creates a clean state positioned at the given dialog.
func NewState(id ConversationID, startDialogID string) *State {
	return &State{
		Conversation:    id,
		CurrentDialogID: startDialogID,
		LastMessageID:   NoMessage,
		LastKind:        KindText,
		Data:            make(map[string]any),
		LastActivity:    time.Now(),
	}
}

// IsWaiting reports whether an input wait is active.
func (s State) IsWaiting() bool {
	return s.Wait != nil
}

// HasMessage reports whether a bot message has been rendered.
func (s State) HasMessage() bool {
	return s.LastMessageID != NoMessage
}

// Clone returns a copy that shares no mutable data with s.
func (s *State) Clone() State {
	c := *s
	c.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		c.Data[k] = v
	}
	if s.Wait != nil {
		w := *s.Wait
		w.Kinds = append([]InputKind(nil), s.Wait.Kinds...)
		c.Wait = &w
	}
	return c
}
