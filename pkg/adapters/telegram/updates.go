package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/aretw0/tgflow/pkg/domain"
)

// Handler consumes normalized updates. *tgflow.Bot satisfies it.
type Handler interface {
	HandleUpdate(ctx context.Context, u *domain.Update) error
}

// ConvertUpdate normalizes a Bot API update. It returns nil for update types
// the runtime does not handle.
func ConvertUpdate(u *gotgbot.Update) *domain.Update {
	if u == nil {
		return nil
	}
	if cq := u.CallbackQuery; cq != nil {
		out := &domain.Update{
			Kind:         domain.UpdateCallback,
			UserID:       cq.From.Id,
			Username:     cq.From.Username,
			CallbackID:   cq.Id,
			CallbackData: cq.Data,
			Timestamp:    time.Now(),
		}
		if cq.Message != nil {
			out.Conversation = domain.ConversationID(cq.Message.GetChat().Id)
			out.MessageID = cq.Message.GetMessageId()
		} else {
			// Inline-mode callbacks carry no chat; answer them in the user's private chat.
			out.Conversation = domain.ConversationID(cq.From.Id)
		}
		return out
	}

	m := u.Message
	if m == nil {
		return nil
	}
	out := &domain.Update{
		Conversation: domain.ConversationID(m.Chat.Id),
		MessageID:    m.MessageId,
		Timestamp:    time.Unix(m.Date, 0),
	}
	if m.From != nil {
		out.UserID = m.From.Id
		out.Username = m.From.Username
	}

	switch {
	case m.Document != nil:
		out.Kind = domain.UpdateDocument
		out.Document = &domain.Document{
			FileID:   m.Document.FileId,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
			Size:     m.Document.FileSize,
		}
	case len(m.Photo) > 0:
		out.Kind = domain.UpdatePhoto
		for _, ph := range m.Photo {
			out.Photos = append(out.Photos, domain.Photo{FileID: ph.FileId, Width: ph.Width, Height: ph.Height, FileSize: ph.FileSize})
		}
	case m.Contact != nil:
		out.Kind = domain.UpdateContact
		out.Contact = &domain.Contact{
			PhoneNumber: m.Contact.PhoneNumber,
			FirstName:   m.Contact.FirstName,
			LastName:    m.Contact.LastName,
			UserID:      m.Contact.UserId,
		}
	case m.Location != nil:
		out.Kind = domain.UpdateLocation
		out.Location = &domain.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	case m.Text != "":
		out.Kind = domain.UpdateMessage
		out.Text = m.Text
		if name, args, ok := domain.ParseCommand(m.Text); ok {
			out.Kind, out.Command, out.CommandArgs = domain.UpdateCommand, name, args
		}
	default:
		return nil
	}
	return out
}

// Bridge feeds long-polled updates into a Handler. Each update is handled on
// its own goroutine. An action blocked on an input wait keeps its goroutine
// until the wait resolves, so by default the number of goroutines is not capped.
type Bridge struct {
	platform    *Platform
	handler     Handler
	logger      *slog.Logger
	dropPending bool
	maxRoutines int
}

// unlimitedRoutines tells the gotgbot dispatcher not to cap handler goroutines.
const unlimitedRoutines = -1

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithDropPendingUpdates skips updates queued while the bot was offline.
func WithDropPendingUpdates(drop bool) BridgeOption {
	return func(b *Bridge) {
		b.dropPending = drop
	}
}

// WithMaxRoutines caps concurrently handled updates; n <= 0 removes the cap.
// Handlers blocked on an input wait hold a slot, so a cap must exceed the
// number of conversations expected to wait at once or the replies that would
// resolve those waits are never dispatched.
func WithMaxRoutines(n int) BridgeOption {
	return func(b *Bridge) {
		b.maxRoutines = n
	}
}

// NewBridge connects platform updates to h.
func NewBridge(platform *Platform, h Handler, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		platform:    platform,
		handler:     h,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRoutines: unlimitedRoutines,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run polls until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	bot := b.platform.Bot()
	if bot == nil {
		return errors.New("polling requires a platform created with New")
	}

	maxRoutines := b.maxRoutines
	if maxRoutines <= 0 {
		// gotgbot reads zero as its default cap of 50.
		maxRoutines = unlimitedRoutines
	}
	d := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(_ *gotgbot.Bot, _ *ext.Context, err error) ext.DispatcherAction {
			b.logger.Error("update handling failed", "err", err)
			return ext.DispatcherActionNoop
		},
		MaxRoutines: maxRoutines,
	})
	handle := func(_ *gotgbot.Bot, c *ext.Context) error {
		return b.dispatch(ctx, c.Update)
	}
	d.AddHandler(handlers.NewCallback(callbackquery.All, handle))
	d.AddHandler(handlers.NewMessage(message.All, handle))

	updater := ext.NewUpdater(d, nil)
	err := updater.StartPolling(bot, &ext.PollingOpts{
		DropPendingUpdates: b.dropPending,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return err
	}
	b.logger.Info("polling started", "username", bot.User.Username)

	<-ctx.Done()
	if err := updater.Stop(); err != nil {
		return err
	}
	b.logger.Info("polling stopped")
	return nil
}

func (b *Bridge) dispatch(ctx context.Context, raw *gotgbot.Update) error {
	u := ConvertUpdate(raw)
	if u == nil {
		return nil
	}
	b.logger.Debug("update received", "conversation", u.Conversation, "kind", u.Kind)
	return b.handler.HandleUpdate(ctx, u)
}
