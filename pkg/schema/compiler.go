package schema

import (
	"strings"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Compiled is the immutable lookup form of a schema.
type Compiled struct {
	dialogs       map[string]*domain.Dialog
	dialogOrder   []*domain.Dialog
	commands      map[string]*domain.Command
	commandOrder  []*domain.Command
	startDialogID string
	errorDialogID string
	fallback      domain.Actions
	replyFallback domain.Actions
}

// Compile builds lookup tables from a raw schema, validating it first when
// validate is true. Without validation, the first definition of a duplicated
// dialog id or command name wins.
func Compile(s domain.Schema, validate bool) (*Compiled, error) {
	if validate {
		if err := Validate(s); err != nil {
			return nil, err
		}
	}

	c := &Compiled{
		dialogs:       make(map[string]*domain.Dialog, len(s.Dialogs)),
		commands:      make(map[string]*domain.Command, len(s.Commands)),
		startDialogID: s.StartDialogID,
		errorDialogID: s.ErrorDialogID,
		fallback:      append(domain.Actions(nil), s.Fallback...),
		replyFallback: append(domain.Actions(nil), s.ReplyFallback...),
	}

	for i := range s.Dialogs {
		d := s.Dialogs[i]
		if _, dup := c.dialogs[d.ID]; dup {
			continue
		}
		c.dialogs[d.ID] = &d
		c.dialogOrder = append(c.dialogOrder, &d)
	}

	for i := range s.Commands {
		cmd := s.Commands[i]
		name := normalizeCommand(cmd.Name)
		if _, dup := c.commands[name]; dup {
			continue
		}
		cmd.Name = name
		c.commands[name] = &cmd
		c.commandOrder = append(c.commandOrder, &cmd)
	}

	return c, nil
}

func normalizeCommand(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}

// Dialog returns the dialog with the given id.
func (c *Compiled) Dialog(id string) (*domain.Dialog, bool) {
	d, ok := c.dialogs[id]
	return d, ok
}

// Command looks a command up case-insensitively, with or without its leading slash.
func (c *Compiled) Command(name string) (*domain.Command, bool) {
	cmd, ok := c.commands[normalizeCommand(name)]
	return cmd, ok
}

// Dialogs returns the dialogs in definition order.
func (c *Compiled) Dialogs() []*domain.Dialog {
	return append([]*domain.Dialog(nil), c.dialogOrder...)
}

// Commands returns the commands in definition order.
func (c *Compiled) Commands() []*domain.Command {
	return append([]*domain.Command(nil), c.commandOrder...)
}

func (c *Compiled) StartDialogID() string { return c.startDialogID }

func (c *Compiled) ErrorDialogID() string { return c.errorDialogID }

func (c *Compiled) Fallback() domain.Actions { return c.fallback }

func (c *Compiled) ReplyFallback() domain.Actions { return c.replyFallback }
