package telegram

import (
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/aretw0/tgflow/pkg/domain"
)

func inlineMarkup(kb *domain.InlineKeyboard) gotgbot.InlineKeyboardMarkup {
	rows := make([][]gotgbot.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]gotgbot.InlineKeyboardButton, 0, len(row))
		for _, k := range row {
			b := gotgbot.InlineKeyboardButton{Text: k.Text}
			switch {
			case k.URL != "":
				b.Url = k.URL
			case k.WebApp != "":
				b.WebApp = &gotgbot.WebAppInfo{Url: k.WebApp}
			default:
				b.CallbackData = k.CallbackData
			}
			buttons = append(buttons, b)
		}
		rows = append(rows, buttons)
	}
	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func replyMarkup(kb *domain.ReplyKeyboard) gotgbot.ReplyKeyboardMarkup {
	rows := make([][]gotgbot.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]gotgbot.KeyboardButton, 0, len(row))
		for _, k := range row {
			b := gotgbot.KeyboardButton{
				Text:            k.Text,
				RequestContact:  k.RequestContact,
				RequestLocation: k.RequestLocation,
			}
			if k.RequestPoll != nil {
				b.RequestPoll = &gotgbot.KeyboardButtonPollType{Type: string(k.RequestPoll.Type)}
			}
			buttons = append(buttons, b)
		}
		rows = append(rows, buttons)
	}
	return gotgbot.ReplyKeyboardMarkup{
		Keyboard:              rows,
		IsPersistent:          kb.Persistent,
		ResizeKeyboard:        kb.Resize,
		OneTimeKeyboard:       kb.OneTime,
		InputFieldPlaceholder: kb.Placeholder,
		Selective:             kb.Selective,
	}
}

// markup picks the single markup of opts; inline wins over reply, which wins over remove.
func markup(opts *domain.SendOptions) gotgbot.ReplyMarkup {
	if opts == nil {
		return nil
	}
	switch {
	case opts.Inline != nil:
		return inlineMarkup(opts.Inline)
	case opts.Reply != nil:
		return replyMarkup(opts.Reply)
	case opts.Remove != nil:
		return gotgbot.ReplyKeyboardRemove{RemoveKeyboard: true, Selective: opts.Remove.Selective}
	}
	return nil
}

func linkPreview(opts *domain.SendOptions) *gotgbot.LinkPreviewOptions {
	if opts == nil || !opts.DisableLinkPreview {
		return nil
	}
	return &gotgbot.LinkPreviewOptions{IsDisabled: true}
}

func photoRef(ref string) gotgbot.InputFileOrString {
	if isURL(ref) {
		return gotgbot.InputFileByURL(ref)
	}
	return gotgbot.InputFileByID(ref)
}
