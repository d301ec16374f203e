package dsl

import (
	"fmt"

	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/schema"
)

// Builder manages the schema construction.
type Builder struct {
	dialogs       map[string]*DialogBuilder
	order         []string
	commands      []domain.Command
	start         string
	errorDialog   string
	fallback      domain.Actions
	replyFallback domain.Actions
}

// New creates a new schema builder. The start dialog defaults to "start".
func New() *Builder {
	return &Builder{
		dialogs: make(map[string]*DialogBuilder),
		start:   "start",
	}
}

// Add creates a new dialog.
// If the dialog already exists, it returns the existing builder.
func (b *Builder) Add(id string) *DialogBuilder {
	if db, ok := b.dialogs[id]; ok {
		return db
	}
	db := &DialogBuilder{
		dialog:  domain.Dialog{ID: id},
		builder: b,
	}
	b.dialogs[id] = db
	b.order = append(b.order, id)
	return db
}

// Start sets the start dialog.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// ErrorDialog sets the dialog shown when an action fails.
func (b *Builder) ErrorDialog(id string) *Builder {
	b.errorDialog = id
	return b
}

// Fallback sets the actions run for unmatched text.
func (b *Builder) Fallback(as ...domain.Action) *Builder {
	b.fallback = domain.Do(as...)
	return b
}

// ReplyFallback sets the actions run for unmatched text while a reply keyboard is shown.
func (b *Builder) ReplyFallback(as ...domain.Action) *Builder {
	b.replyFallback = domain.Do(as...)
	return b
}

// Command registers a slash command.
func (b *Builder) Command(name, description string, as ...domain.Action) *Builder {
	b.commands = append(b.commands, domain.Command{
		Name:        name,
		Description: description,
		Action:      domain.Do(as...),
	})
	return b
}

// Build assembles and validates the schema.
func (b *Builder) Build() (domain.Schema, error) {
	s := domain.Schema{
		StartDialogID: b.start,
		ErrorDialogID: b.errorDialog,
		Fallback:      b.fallback,
		ReplyFallback: b.replyFallback,
		Commands:      append([]domain.Command(nil), b.commands...),
	}
	for _, id := range b.order {
		s.Dialogs = append(s.Dialogs, b.dialogs[id].Build())
	}

	if err := schema.Validate(s); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to build schema: %w", err)
	}
	return s, nil
}

// DialogBuilder provides a fluent API for configuring a dialog.
type DialogBuilder struct {
	dialog  domain.Dialog
	inline  [][]domain.InlineButton
	reply   [][]domain.ReplyButton
	builder *Builder
}

// Text sets a static dialog text.
func (d *DialogBuilder) Text(text string) *DialogBuilder {
	d.dialog.Text = domain.Text(text)
	return d
}

// TextFunc computes the dialog text at render time.
func (d *DialogBuilder) TextFunc(fn domain.Resolver[string]) *DialogBuilder {
	d.dialog.Text = domain.TextFunc(fn)
	return d
}

// Images attaches image references (URLs or file ids).
func (d *DialogBuilder) Images(refs ...string) *DialogBuilder {
	d.dialog.Images = domain.Images(refs...)
	return d
}

// Button appends an inline button to the current row.
func (d *DialogBuilder) Button(text string, as ...domain.Action) *DialogBuilder {
	return d.addInline(domain.InlineButton{Text: domain.Text(text), Action: domain.Do(as...)})
}

// Go appends an inline button navigating to target.
func (d *DialogBuilder) Go(text, target string) *DialogBuilder {
	return d.Button(text, actions.GoTo(target))
}

// Link appends an inline URL button.
func (d *DialogBuilder) Link(text, url string) *DialogBuilder {
	return d.addInline(domain.InlineButton{Text: domain.Text(text), URL: domain.Text(url)})
}

// Row starts a new inline button row.
func (d *DialogBuilder) Row() *DialogBuilder {
	if n := len(d.inline); n > 0 && len(d.inline[n-1]) > 0 {
		d.inline = append(d.inline, nil)
	}
	return d
}

func (d *DialogBuilder) addInline(btn domain.InlineButton) *DialogBuilder {
	if len(d.inline) == 0 {
		d.inline = append(d.inline, nil)
	}
	last := len(d.inline) - 1
	d.inline[last] = append(d.inline[last], btn)
	return d
}

// Reply appends a reply keyboard button to the current reply row.
func (d *DialogBuilder) Reply(text string, as ...domain.Action) *DialogBuilder {
	return d.addReply(domain.ReplyButton{Text: domain.Text(text), Action: domain.Do(as...)})
}

// RequestContact appends a reply button that shares the user's phone number.
func (d *DialogBuilder) RequestContact(text string) *DialogBuilder {
	return d.addReply(domain.ReplyButton{Text: domain.Text(text), RequestContact: true})
}

// RequestLocation appends a reply button that shares the user's location.
func (d *DialogBuilder) RequestLocation(text string) *DialogBuilder {
	return d.addReply(domain.ReplyButton{Text: domain.Text(text), RequestLocation: true})
}

// ReplyRow starts a new reply keyboard row.
func (d *DialogBuilder) ReplyRow() *DialogBuilder {
	if n := len(d.reply); n > 0 && len(d.reply[n-1]) > 0 {
		d.reply = append(d.reply, nil)
	}
	return d
}

func (d *DialogBuilder) addReply(btn domain.ReplyButton) *DialogBuilder {
	if len(d.reply) == 0 {
		d.reply = append(d.reply, nil)
	}
	last := len(d.reply) - 1
	d.reply[last] = append(d.reply[last], btn)
	return d
}

// ReplyOptions tunes the reply keyboard.
func (d *DialogBuilder) ReplyOptions(opts domain.ReplyKeyboardOptions) *DialogBuilder {
	d.dialog.ReplyKeyboardOptions = &opts
	return d
}

// RemoveReplyKeyboard hides a previously shown reply keyboard.
func (d *DialogBuilder) RemoveReplyKeyboard() *DialogBuilder {
	d.dialog.RemoveReplyKeyboard = true
	return d
}

// NoLinkPreview disables link previews.
func (d *DialogBuilder) NoLinkPreview() *DialogBuilder {
	d.dialog.DisableLinkPreview = true
	return d
}

// Protect prevents forwarding and saving of the dialog message.
func (d *DialogBuilder) Protect() *DialogBuilder {
	d.dialog.ProtectContent = true
	return d
}

// OnEnter sets the hook run when a conversation enters the dialog.
func (d *DialogBuilder) OnEnter(hook domain.DialogHook) *DialogBuilder {
	d.dialog.OnEnter = hook
	return d
}

// OnLeave sets the hook run when a conversation leaves the dialog.
func (d *DialogBuilder) OnLeave(hook domain.DialogHook) *DialogBuilder {
	d.dialog.OnLeave = hook
	return d
}

// Command registers a slash command that navigates to this dialog.
func (d *DialogBuilder) Command(name, description string) *DialogBuilder {
	d.builder.Command(name, description, actions.GoTo(d.dialog.ID))
	return d
}

// Build returns the underlying domain.Dialog.
// This is primarily used by the Builder, but exposed for advanced usage.
func (d *DialogBuilder) Build() domain.Dialog {
	out := d.dialog
	if rows := nonEmpty(d.inline); len(rows) > 0 {
		out.InlineButtons = domain.InlineRows(rows...)
	}
	if rows := nonEmpty(d.reply); len(rows) > 0 {
		out.ReplyButtons = domain.ReplyRows(rows...)
	}
	return out
}

func nonEmpty[B any](rows [][]B) [][]B {
	out := make([][]B, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			out = append(out, append([]B(nil), r...))
		}
	}
	return out
}
