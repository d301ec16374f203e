package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/tgflow/pkg/domain"
)

const (
	MaxCommandLength     = 32
	MaxDescriptionLength = 256
	MaxCallbackDataBytes = 64
	MaxPlaceholderLength = 64
)

var commandName = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validate checks a raw schema and returns a *ValidationError listing every issue.
func Validate(s domain.Schema) error {
	var is issues

	if len(s.Dialogs) == 0 {
		is.add("dialogs", "at least one dialog is required")
	}

	ids := make(map[string]int, len(s.Dialogs))
	for i, d := range s.Dialogs {
		path := fmt.Sprintf("dialogs[%d]", i)
		if strings.TrimSpace(d.ID) == "" {
			is.add(path+".id", "dialog id must not be empty")
			continue
		}
		if first, dup := ids[d.ID]; dup {
			is.add(path+".id", "duplicate dialog id %q (first defined at dialogs[%d])", d.ID, first)
			continue
		}
		ids[d.ID] = i
		validateDialog(&is, path, d)
	}

	if s.StartDialogID == "" {
		is.add("start_dialog", "start dialog is required")
	} else if _, ok := ids[s.StartDialogID]; !ok && len(s.Dialogs) > 0 {
		is.add("start_dialog", "start dialog %q does not exist", s.StartDialogID)
	}
	if s.ErrorDialogID != "" {
		if _, ok := ids[s.ErrorDialogID]; !ok {
			is.add("error_dialog", "error dialog %q does not exist", s.ErrorDialogID)
		}
	}

	names := make(map[string]int, len(s.Commands))
	for i, c := range s.Commands {
		path := fmt.Sprintf("commands[%d]", i)
		name := strings.ToLower(strings.TrimPrefix(c.Name, "/"))
		switch {
		case name == "":
			is.add(path+".name", "command name must not be empty")
			continue
		case utf8.RuneCountInString(name) > MaxCommandLength:
			is.add(path+".name", "command name must be at most %d characters", MaxCommandLength)
		case !commandName.MatchString(name):
			is.add(path+".name", "command name %q may only contain lowercase letters, digits and underscores", c.Name)
		}
		if first, dup := names[name]; dup {
			is.add(path+".name", "duplicate command %q (first defined at commands[%d])", name, first)
		} else {
			names[name] = i
		}
		if utf8.RuneCountInString(c.Description) > MaxDescriptionLength {
			is.add(path+".description", "description must be at most %d characters", MaxDescriptionLength)
		}
	}

	return is.err()
}

func validateDialog(is *issues, path string, d domain.Dialog) {
	if rows, ok := d.InlineButtons.StaticValue(); ok {
		for r, row := range rows {
			for c, b := range row {
				validateInline(is, fmt.Sprintf("%s.inline_buttons[%d][%d]", path, r, c), b)
			}
		}
	}
	if d.ReplyKeyboardOptions != nil && utf8.RuneCountInString(d.ReplyKeyboardOptions.Placeholder) > MaxPlaceholderLength {
		is.add(path+".reply_keyboard_options.placeholder", "placeholder must be at most %d characters", MaxPlaceholderLength)
	}
	if d.RemoveReplyKeyboard && d.ReplyButtons.IsSet() {
		is.add(path+".remove_reply_keyboard", "cannot remove the reply keyboard and define reply buttons")
	}
}

func validateInline(is *issues, path string, b domain.InlineButton) {
	if !b.Text.IsSet() {
		is.add(path+".text", "button text is required")
	}
	hasAction := len(b.Action) > 0
	if hasAction && b.URL.IsSet() {
		is.add(path, "button cannot have both an action and a url")
	}
	if hasAction && b.WebApp.IsSet() {
		is.add(path, "button cannot have both an action and a web_app")
	}
	if b.URL.IsSet() && b.WebApp.IsSet() {
		is.add(path, "button cannot have both a url and a web_app")
	}
	if len(b.CallbackData) > MaxCallbackDataBytes {
		is.add(path+".callback_data", "callback data must be at most %d bytes", MaxCallbackDataBytes)
	}
}
