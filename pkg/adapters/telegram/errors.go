package telegram

import (
	"errors"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/aretw0/tgflow/pkg/domain"
)

// wrapError converts a Bot API failure into a *domain.PlatformError so the
// runtime can classify it.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var tgErr *gotgbot.TelegramError
	if errors.As(err, &tgErr) {
		return &domain.PlatformError{Op: op, Code: tgErr.Code, Description: tgErr.Description, Err: err}
	}
	return &domain.PlatformError{Op: op, Description: err.Error(), Err: err}
}
