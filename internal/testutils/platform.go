package testutils

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Platform operation names recorded by FakePlatform.
const (
	OpSend       = "send"
	OpEdit       = "edit"
	OpDelete     = "delete"
	OpPhoto      = "photo"
	OpMediaGroup = "media_group"
	OpAnswer     = "answer"
	OpDownload   = "download"
)

// Call is one recorded platform call.
type Call struct {
	Op        string
	Chat      domain.ConversationID
	MessageID int64
	Text      string
	Opts      *domain.SendOptions
	Photos    []domain.MediaPhoto
}

type liveMessage struct {
	text   string
	inline *domain.InlineKeyboard
}

// FakePlatform is an in-memory ports.Platform that records every call.
// It behaves like the Telegram API for the cases the runtime cares about:
// editing or deleting an unknown message fails with "not found" and an edit
// that changes nothing fails with "not modified".
type FakePlatform struct {
	mu       sync.Mutex
	nextID   int64
	live     map[domain.ConversationID]map[int64]liveMessage
	calls    []Call
	failures map[string][]error
	files    map[string]*domain.File
}

// NewFakePlatform creates an empty fake.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		nextID:   100,
		live:     make(map[domain.ConversationID]map[int64]liveMessage),
		failures: make(map[string][]error),
		files:    make(map[string]*domain.File),
	}
}

// PlatformErr builds a classified platform error.
func PlatformErr(op, description string) *domain.PlatformError {
	return &domain.PlatformError{Op: op, Code: 400, Description: description}
}

// FailNext makes the next call of op fail with err. Calls queue up.
func (f *FakePlatform) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

// AddFile registers content returned by DownloadFile.
func (f *FakePlatform) AddFile(fileID string, file *domain.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[fileID] = file
}

// Calls returns every recorded call.
func (f *FakePlatform) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsOf returns the recorded calls of one operation.
func (f *FakePlatform) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the sequence of recorded operation names.
func (f *FakePlatform) Ops() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

// LastCall returns the most recent call, or an empty Call.
func (f *FakePlatform) LastCall() Call {
	calls := f.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// ClearCalls forgets recorded calls but keeps live messages.
func (f *FakePlatform) ClearCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Live returns the text of the messages still present in chat.
func (f *FakePlatform) Live(chat domain.ConversationID) map[int64]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]string, len(f.live[chat]))
	for id, m := range f.live[chat] {
		out[id] = m.text
	}
	return out
}

// Token returns the callback token of the first inline key labeled text in
// the newest message that carries one.
func (f *FakePlatform) Token(text string) string {
	calls := f.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		opts := calls[i].Opts
		if opts == nil || opts.Inline == nil {
			continue
		}
		for _, row := range opts.Inline.Rows {
			for _, key := range row {
				if key.Text == text {
					return key.CallbackData
				}
			}
		}
	}
	return ""
}

// record stores the call and pops a programmed failure. Callers hold the lock.
func (f *FakePlatform) record(c Call) error {
	f.calls = append(f.calls, c)
	if q := f.failures[c.Op]; len(q) > 0 {
		f.failures[c.Op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *FakePlatform) store(chat domain.ConversationID, m liveMessage) int64 {
	f.nextID++
	if f.live[chat] == nil {
		f.live[chat] = make(map[int64]liveMessage)
	}
	f.live[chat][f.nextID] = m
	return f.nextID
}

func (f *FakePlatform) SendMessage(ctx context.Context, chat domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpSend, Chat: chat, Text: text, Opts: opts}); err != nil {
		return domain.Message{}, err
	}
	m := liveMessage{text: text}
	if opts != nil {
		m.inline = opts.Inline
	}
	id := f.store(chat, m)
	f.calls[len(f.calls)-1].MessageID = id
	return domain.Message{ID: id, Conversation: chat}, nil
}

func (f *FakePlatform) EditMessageText(ctx context.Context, chat domain.ConversationID, messageID int64, text string, opts *domain.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpEdit, Chat: chat, MessageID: messageID, Text: text, Opts: opts}); err != nil {
		return err
	}
	m, ok := f.live[chat][messageID]
	if !ok {
		return PlatformErr("editMessageText", "Bad Request: message to edit not found")
	}
	var inline *domain.InlineKeyboard
	if opts != nil {
		inline = opts.Inline
	}
	if m.text == text && reflect.DeepEqual(m.inline, inline) {
		return PlatformErr("editMessageText", "Bad Request: message is not modified")
	}
	f.live[chat][messageID] = liveMessage{text: text, inline: inline}
	return nil
}

func (f *FakePlatform) DeleteMessage(ctx context.Context, chat domain.ConversationID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpDelete, Chat: chat, MessageID: messageID}); err != nil {
		return err
	}
	if _, ok := f.live[chat][messageID]; !ok {
		return PlatformErr("deleteMessage", "Bad Request: message to delete not found")
	}
	delete(f.live[chat], messageID)
	return nil
}

func (f *FakePlatform) SendPhoto(ctx context.Context, chat domain.ConversationID, ref, caption string, opts *domain.SendOptions) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpPhoto, Chat: chat, Text: caption, Opts: opts, Photos: []domain.MediaPhoto{{Ref: ref, Caption: caption}}}); err != nil {
		return domain.Message{}, err
	}
	id := f.store(chat, liveMessage{text: caption})
	f.calls[len(f.calls)-1].MessageID = id
	return domain.Message{ID: id, Conversation: chat}, nil
}

func (f *FakePlatform) SendMediaGroup(ctx context.Context, chat domain.ConversationID, photos []domain.MediaPhoto, opts *domain.SendOptions) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpMediaGroup, Chat: chat, Opts: opts, Photos: photos}); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, len(photos))
	for i, p := range photos {
		msgs[i] = domain.Message{ID: f.store(chat, liveMessage{text: p.Caption}), Conversation: chat}
	}
	if len(msgs) > 0 {
		f.calls[len(f.calls)-1].MessageID = msgs[len(msgs)-1].ID
	}
	return msgs, nil
}

func (f *FakePlatform) AnswerCallback(ctx context.Context, callbackID string, answer *domain.CallbackAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := Call{Op: OpAnswer, Text: callbackID}
	return f.record(c)
}

func (f *FakePlatform) DownloadFile(ctx context.Context, fileID string) (*domain.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpDownload, Text: fileID}); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %q not found", fileID)
	}
	return file, nil
}
