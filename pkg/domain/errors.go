package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDialogNotFound is returned when a dialog id is not in the compiled schema.
var ErrDialogNotFound = errors.New("dialog not found")

// ErrStopped is returned by operations on a stopped runtime.
var ErrStopped = errors.New("bot stopped")

// ErrWaitSuperseded is the cancellation reason of a wait replaced by a newer
// wait in the same conversation.
var ErrWaitSuperseded = errors.New("wait superseded by a newer request")

// DialogNotFoundError carries the unknown dialog id.
type DialogNotFoundError struct {
	DialogID     string
	Conversation ConversationID
}

func (e *DialogNotFoundError) Error() string {
	return fmt.Sprintf("dialog %q not found", e.DialogID)
}

func (e *DialogNotFoundError) Unwrap() error { return ErrDialogNotFound }

// PlatformErrorKind classifies platform failures.
type PlatformErrorKind int

const (
	PlatformUnknown PlatformErrorKind = iota
	// PlatformNotModified means the edit would not change anything.
	PlatformNotModified
	// PlatformMessageNotFound means the target message no longer exists.
	PlatformMessageNotFound
	// PlatformBlocked means the user blocked the bot or was deactivated.
	PlatformBlocked
	// PlatformChatNotFound means the chat is unavailable.
	PlatformChatNotFound
	// PlatformQueryTooOld means a callback query can no longer be answered.
	PlatformQueryTooOld
)

func (k PlatformErrorKind) String() string {
	switch k {
	case PlatformNotModified:
		return "not_modified"
	case PlatformMessageNotFound:
		return "message_not_found"
	case PlatformBlocked:
		return "blocked"
	case PlatformChatNotFound:
		return "chat_not_found"
	case PlatformQueryTooOld:
		return "query_too_old"
	}
	return "unknown"
}

// PlatformError wraps a failed platform call.
type PlatformError struct {
	Op          string
	Code        int
	Description string
	Err         error
}

func (e *PlatformError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Code, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Description)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Kind classifies the error by its description.
func (e *PlatformError) Kind() PlatformErrorKind {
	return classifyDescription(e.Description)
}

var platformPatterns = []struct {
	substr string
	kind   PlatformErrorKind
}{
	{"message is not modified", PlatformNotModified},
	{"message to edit not found", PlatformMessageNotFound},
	{"message to delete not found", PlatformMessageNotFound},
	{"message can't be deleted", PlatformMessageNotFound},
	{"bot was blocked by the user", PlatformBlocked},
	{"user is deactivated", PlatformBlocked},
	{"chat not found", PlatformChatNotFound},
	{"query is too old", PlatformQueryTooOld},
}

func classifyDescription(desc string) PlatformErrorKind {
	desc = strings.ToLower(desc)
	for _, p := range platformPatterns {
		if strings.Contains(desc, p.substr) {
			return p.kind
		}
	}
	return PlatformUnknown
}

// ClassifyPlatformError classifies any error returned by a Platform.
func ClassifyPlatformError(err error) PlatformErrorKind {
	if err == nil {
		return PlatformUnknown
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		if k := pe.Kind(); k != PlatformUnknown {
			return k
		}
	}
	return classifyDescription(err.Error())
}

// IsFatalPlatformError reports errors that must be surfaced and not retried.
func IsFatalPlatformError(err error) bool {
	switch ClassifyPlatformError(err) {
	case PlatformBlocked, PlatformChatNotFound:
		return true
	}
	return false
}
