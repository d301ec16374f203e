package ports

import (
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// StateStore holds the navigation state of every conversation.
// Operations never fail: absent records are created with defaults.
// Implementations must be safe for concurrent use.
type StateStore interface {
	// GetOrCreate returns the live record for id, creating it at the start dialog.
	// Repeated calls return the same record.
	GetOrCreate(id domain.ConversationID) *domain.State

	// Snapshot returns a copy of the record, creating it if needed.
	Snapshot(id domain.ConversationID) domain.State

	// Exists reports whether a record is present without creating one.
	Exists(id domain.ConversationID) bool

	SetDialog(id domain.ConversationID, dialogID string)
	SetLastRender(id domain.ConversationID, messageID int64, kind domain.MessageKind)
	SetLastMessage(id domain.ConversationID, messageID int64)
	SetWait(id domain.ConversationID, waitID string, kinds []domain.InputKind)
	ClearWait(id domain.ConversationID)
	// ClearWaitIf clears the wait only while it still references waitID.
	ClearWaitIf(id domain.ConversationID, waitID string) bool
	SetReplyKeyboardActive(id domain.ConversationID, active bool)

	SetData(id domain.ConversationID, key string, value any)
	Data(id domain.ConversationID, key string) (any, bool)
	DeleteData(id domain.ConversationID, key string) bool

	// Reset restores the record to its defaults, keeping its identity.
	Reset(id domain.ConversationID)
	Remove(id domain.ConversationID)
	// Sweep removes records idle for longer than maxIdle and returns their ids.
	Sweep(maxIdle time.Duration) []domain.ConversationID
	List() []domain.ConversationID
}
