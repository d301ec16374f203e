package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventDialogEnter  EventType = "dialog_enter"
	EventDialogLeave  EventType = "dialog_leave"
	EventRender       EventType = "render"
	EventWaitResolved EventType = "wait_resolved"
	EventActionError  EventType = "action_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp    time.Time      `json:"timestamp"`
	Type         EventType      `json:"type"`
	Conversation ConversationID `json:"conversation"`
}

// DialogEvent represents entry or exit from a dialog.
type DialogEvent struct {
	EventBase
	DialogID string `json:"dialog_id"`
	// OtherDialogID is the target on leave and the previous dialog on enter.
	OtherDialogID string `json:"other_dialog_id,omitempty"`
}

// RenderMode describes how the render-reconciliation reached the user.
type RenderMode string

const (
	RenderEdit       RenderMode = "edit"
	RenderSend       RenderMode = "send"
	RenderPhoto      RenderMode = "photo"
	RenderMediaGroup RenderMode = "media_group"
	RenderUnchanged  RenderMode = "unchanged"
	RenderFallback   RenderMode = "fallback"
)

// RenderEvent reports a completed render.
type RenderEvent struct {
	EventBase
	DialogID  string     `json:"dialog_id"`
	Mode      RenderMode `json:"mode"`
	MessageID int64      `json:"message_id"`
}

// WaitEvent reports a resolved input wait.
type WaitEvent struct {
	EventBase
	WaitID string     `json:"wait_id"`
	Status WaitStatus `json:"status"`
}

// ActionErrorEvent reports an error caught at the dispatch boundary.
type ActionErrorEvent struct {
	EventBase
	DialogID string `json:"dialog_id"`
	Err      error  `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnDialogEnter  func(context.Context, *DialogEvent)
	OnDialogLeave  func(context.Context, *DialogEvent)
	OnRender       func(context.Context, *RenderEvent)
	OnWaitResolved func(context.Context, *WaitEvent)
	OnActionError  func(context.Context, *ActionErrorEvent)
}
