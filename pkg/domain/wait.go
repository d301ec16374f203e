package domain

import (
	"context"
	"time"
)

// InputKind is a kind of user input a wait accepts.
type InputKind string

const (
	InputText     InputKind = "text"
	InputDocument InputKind = "document"
	InputPhoto    InputKind = "photo"
	InputVideo    InputKind = "video"
	InputAudio    InputKind = "audio"
	InputVoice    InputKind = "voice"
	InputContact  InputKind = "contact"
	InputLocation InputKind = "location"
)

// Accepts reports whether kind is in kinds.
func Accepts(kinds []InputKind, kind InputKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Validator checks a text input. A non-nil error rejects the input and its
// message is shown to the user; the wait stays open.
type Validator func(ctx context.Context, input string) error

// WaitOptions configure an input wait. Zero values fall back to runtime defaults.
type WaitOptions struct {
	// Prompt is sent to the user before waiting, when set.
	Prompt string
	// Timeout of zero uses the configured default; a negative value disables the timer.
	Timeout           time.Duration
	Kinds             []InputKind
	Validator         Validator
	CancelKeywords    []string
	TimeoutMessage    string
	CancelMessage     string
	ValidationMessage string
}

// WaitStatus is the outcome of a wait.
type WaitStatus int

const (
	WaitSuccess WaitStatus = iota
	WaitCancelled
	WaitTimedOut
	// WaitFailed means matching input arrived but could not be delivered,
	// such as a file whose download failed. Error holds the cause.
	WaitFailed
)

func (s WaitStatus) String() string {
	switch s {
	case WaitSuccess:
		return "success"
	case WaitCancelled:
		return "cancelled"
	case WaitTimedOut:
		return "timed_out"
	case WaitFailed:
		return "failed"
	}
	return "unknown"
}

// FileInput describes a file received while waiting.
type FileInput struct {
	FileID   string
	FileName string
	MimeType string
	Content  []byte
}

// WaitResult is delivered exactly once per wait.
type WaitResult struct {
	Status   WaitStatus
	Value    string
	File     *FileInput
	Contact  *Contact
	Location *Location
	// Error describes why a wait ended without input.
	Error string
}

// OK reports whether the wait resolved with input.
func (r WaitResult) OK() bool { return r.Status == WaitSuccess }

func (r WaitResult) Cancelled() bool { return r.Status == WaitCancelled }

func (r WaitResult) TimedOut() bool { return r.Status == WaitTimedOut }

func (r WaitResult) Failed() bool { return r.Status == WaitFailed }
