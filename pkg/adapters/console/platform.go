package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/ports"
	"github.com/muesli/termenv"
)

// Button is a pressable inline button shown on the terminal.
type Button struct {
	Number    int
	Text      string
	Token     string
	MessageID int64
}

type message struct {
	text   string
	inline *domain.InlineKeyboard
}

type chat struct {
	messages map[int64]*message
	reply    []string
}

// Platform prints dialogs to a terminal and keeps enough state to turn typed
// input back into button presses.
type Platform struct {
	mu     sync.Mutex
	out    io.Writer
	render func(string) (string, error)
	output *termenv.Output
	nextID int64
	chats  map[domain.ConversationID]*chat
}

var _ ports.Platform = (*Platform)(nil)

// Option configures the Platform.
type Option func(*Platform)

// WithRenderer transforms message text before printing, e.g. markdown to ANSI.
func WithRenderer(fn func(string) (string, error)) Option {
	return func(p *Platform) {
		p.render = fn
	}
}

// WithColors forces a color profile; the default is detected from out.
func WithColors(profile termenv.Profile) Option {
	return func(p *Platform) {
		p.output = termenv.NewOutput(p.out, termenv.WithProfile(profile))
	}
}

// New creates a console platform writing to out.
func New(out io.Writer, opts ...Option) *Platform {
	p := &Platform{
		out:    out,
		nextID: 1,
		chats:  make(map[domain.ConversationID]*chat),
	}
	p.output = termenv.NewOutput(out)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Platform) chat(id domain.ConversationID) *chat {
	c, ok := p.chats[id]
	if !ok {
		c = &chat{messages: make(map[int64]*message)}
		p.chats[id] = c
	}
	return c
}

func (p *Platform) store(id domain.ConversationID, m *message) int64 {
	msgID := p.nextID
	p.nextID++
	p.chat(id).messages[msgID] = m
	return msgID
}

func (p *Platform) SendMessage(ctx context.Context, id domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := &message{text: text}
	if opts != nil {
		m.inline = opts.Inline
	}
	msgID := p.store(id, m)
	p.print(msgID, "", text)
	p.printMarkup(id, opts)
	return domain.Message{ID: msgID, Conversation: id}, nil
}

func (p *Platform) EditMessageText(ctx context.Context, id domain.ConversationID, messageID int64, text string, opts *domain.SendOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.chat(id).messages[messageID]
	if !ok {
		return notFound("editMessageText", "message to edit not found")
	}
	var inline *domain.InlineKeyboard
	if opts != nil {
		inline = opts.Inline
	}
	if m.text == text && sameInline(m.inline, inline) {
		return notFound("editMessageText", "message is not modified: specified new message content and reply markup are exactly the same")
	}
	m.text, m.inline = text, inline
	p.print(messageID, "edited", text)
	p.printMarkup(id, opts)
	return nil
}

func (p *Platform) DeleteMessage(ctx context.Context, id domain.ConversationID, messageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.chat(id)
	if _, ok := c.messages[messageID]; !ok {
		return notFound("deleteMessage", "message to delete not found")
	}
	delete(c.messages, messageID)
	return nil
}

func (p *Platform) SendPhoto(ctx context.Context, id domain.ConversationID, ref, caption string, opts *domain.SendOptions) (domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := &message{text: caption}
	if opts != nil {
		m.inline = opts.Inline
	}
	msgID := p.store(id, m)
	p.print(msgID, "photo "+ref, caption)
	p.printMarkup(id, opts)
	return domain.Message{ID: msgID, Conversation: id}, nil
}

func (p *Platform) SendMediaGroup(ctx context.Context, id domain.ConversationID, photos []domain.MediaPhoto, opts *domain.SendOptions) ([]domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Message, 0, len(photos))
	for _, ph := range photos {
		msgID := p.store(id, &message{text: ph.Caption})
		p.print(msgID, "photo "+ph.Ref, ph.Caption)
		out = append(out, domain.Message{ID: msgID, Conversation: id})
	}
	return out, nil
}

func (p *Platform) AnswerCallback(ctx context.Context, callbackID string, answer *domain.CallbackAnswer) error {
	if answer == nil || answer.Text == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.output.String("  ("+answer.Text+")").Faint())
	return nil
}

// DownloadFile treats the file id as a local path, so simulated uploads can
// reference files on disk.
func (p *Platform) DownloadFile(ctx context.Context, fileID string) (*domain.File, error) {
	content, err := os.ReadFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileID, err)
	}
	return &domain.File{Name: filepath.Base(fileID), Content: content}, nil
}

// Buttons returns the callback buttons of every live message in the chat,
// numbered in display order.
func (p *Platform) Buttons(id domain.ConversationID) []Button {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.chat(id)
	ids := make([]int64, 0, len(c.messages))
	for msgID, m := range c.messages {
		if m.inline != nil {
			ids = append(ids, msgID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Button
	for _, msgID := range ids {
		for _, row := range c.messages[msgID].inline.Rows {
			for _, k := range row {
				if k.CallbackData == "" {
					continue
				}
				out = append(out, Button{Number: len(out) + 1, Text: k.Text, Token: k.CallbackData, MessageID: msgID})
			}
		}
	}
	return out
}

// ReplyKeys returns the labels of the reply keyboard shown in the chat.
func (p *Platform) ReplyKeys(id domain.ConversationID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.chat(id).reply...)
}

// Live returns the number of messages currently visible in the chat.
func (p *Platform) Live(id domain.ConversationID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chat(id).messages)
}

func (p *Platform) print(msgID int64, note, text string) {
	if p.render != nil {
		if rendered, err := p.render(text); err == nil {
			text = rendered
		}
	}
	label := fmt.Sprintf("#%d", msgID)
	if note != "" {
		label += " " + note
	}
	fmt.Fprintf(p.out, "%s %s\n", p.output.String("["+label+"]").Faint(), strings.TrimSpace(text))
}

func (p *Platform) printMarkup(id domain.ConversationID, opts *domain.SendOptions) {
	if opts == nil {
		return
	}
	c := p.chat(id)
	switch {
	case opts.Inline != nil:
		for _, row := range opts.Inline.Rows {
			labels := make([]string, 0, len(row))
			for _, k := range row {
				switch {
				case k.URL != "":
					labels = append(labels, fmt.Sprintf("[%s ↗ %s]", k.Text, k.URL))
				case k.WebApp != "":
					labels = append(labels, fmt.Sprintf("[%s ⧉]", k.Text))
				default:
					labels = append(labels, "["+k.Text+"]")
				}
			}
			fmt.Fprintln(p.out, "  "+p.output.String(strings.Join(labels, " ")).Bold().String())
		}
	case opts.Reply != nil:
		c.reply = c.reply[:0]
		var rows []string
		for _, row := range opts.Reply.Rows {
			labels := make([]string, 0, len(row))
			for _, k := range row {
				c.reply = append(c.reply, k.Text)
				labels = append(labels, k.Text)
			}
			rows = append(rows, strings.Join(labels, " | "))
		}
		fmt.Fprintln(p.out, "  "+p.output.String("⌨ "+strings.Join(rows, " / ")).Italic().String())
	case opts.Remove != nil:
		c.reply = nil
	}
}

func sameInline(a, b *domain.InlineKeyboard) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		if len(a.Rows[i]) != len(b.Rows[i]) {
			return false
		}
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

func notFound(op, description string) error {
	return &domain.PlatformError{Op: op, Code: 400, Description: "Bad Request: " + description}
}
