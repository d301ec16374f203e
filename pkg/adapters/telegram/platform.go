package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/ports"
)

// DefaultFileURL is the base of file download links; the token and file path are appended.
const DefaultFileURL = "https://api.telegram.org/file/bot"

// API is the subset of *gotgbot.Bot used by the Platform.
type API interface {
	SendMessageWithContext(ctx context.Context, chatId int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
	EditMessageTextWithContext(ctx context.Context, text string, opts *gotgbot.EditMessageTextOpts) (*gotgbot.Message, bool, error)
	DeleteMessageWithContext(ctx context.Context, chatId int64, messageId int64, opts *gotgbot.DeleteMessageOpts) (bool, error)
	SendPhotoWithContext(ctx context.Context, chatId int64, photo gotgbot.InputFileOrString, opts *gotgbot.SendPhotoOpts) (*gotgbot.Message, error)
	SendMediaGroupWithContext(ctx context.Context, chatId int64, media []gotgbot.InputMedia, opts *gotgbot.SendMediaGroupOpts) ([]gotgbot.Message, error)
	AnswerCallbackQueryWithContext(ctx context.Context, callbackQueryId string, opts *gotgbot.AnswerCallbackQueryOpts) (bool, error)
	GetFileWithContext(ctx context.Context, fileId string, opts *gotgbot.GetFileOpts) (*gotgbot.File, error)
	SetMyCommandsWithContext(ctx context.Context, commands []gotgbot.BotCommand, opts *gotgbot.SetMyCommandsOpts) (bool, error)
}

var _ API = (*gotgbot.Bot)(nil)

// Platform implements ports.Platform over the Telegram Bot API.
type Platform struct {
	api     API
	bot     *gotgbot.Bot
	token   string
	apiURL  string
	fileURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Platform = (*Platform)(nil)

// Option configures the Platform.
type Option func(*Platform)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Platform) {
		p.logger = logger
	}
}

// WithFileURL overrides DefaultFileURL, e.g. for a self-hosted Bot API server.
func WithFileURL(base string) Option {
	return func(p *Platform) {
		p.fileURL = base
	}
}

// WithHTTPClient sets the client used for file downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Platform) {
		p.client = c
	}
}

// WithAPIURL points the client at a self-hosted Bot API server.
func WithAPIURL(url string) Option {
	return func(p *Platform) {
		p.apiURL = url
	}
}

// New connects to the Bot API with token. The token is checked with getMe.
func New(token string, opts ...Option) (*Platform, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	p := newPlatform(token, opts)

	var botOpts *gotgbot.BotOpts
	if p.apiURL != "" && p.apiURL != gotgbot.DefaultAPIURL {
		botOpts = &gotgbot.BotOpts{
			BotClient: &gotgbot.BaseBotClient{
				DefaultRequestOpts: &gotgbot.RequestOpts{
					Timeout: gotgbot.DefaultTimeout,
					APIURL:  p.apiURL,
				},
			},
		}
	}
	b, err := gotgbot.NewBot(token, botOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	p.api, p.bot = b, b
	return p, nil
}

// NewWithAPI builds a Platform on any API implementation.
func NewWithAPI(api API, token string, opts ...Option) *Platform {
	p := newPlatform(token, opts)
	p.api = api
	if b, ok := api.(*gotgbot.Bot); ok {
		p.bot = b
	}
	return p
}

func newPlatform(token string, opts []Option) *Platform {
	p := &Platform{
		token:   token,
		fileURL: DefaultFileURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bot returns the underlying client, or nil when built on a custom API.
func (p *Platform) Bot() *gotgbot.Bot { return p.bot }

func (p *Platform) SendMessage(ctx context.Context, chat domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error) {
	o := &gotgbot.SendMessageOpts{
		LinkPreviewOptions: linkPreview(opts),
		ReplyMarkup:        markup(opts),
	}
	if opts != nil {
		o.ParseMode = opts.ParseMode
		o.ProtectContent = opts.ProtectContent
	}
	msg, err := p.api.SendMessageWithContext(ctx, int64(chat), text, o)
	if err != nil {
		return domain.Message{}, wrapError("sendMessage", err)
	}
	return domain.Message{ID: msg.MessageId, Conversation: chat}, nil
}

// EditMessageText edits text and inline markup. Reply keyboards cannot be
// attached by an edit; only opts.Inline is used.
func (p *Platform) EditMessageText(ctx context.Context, chat domain.ConversationID, messageID int64, text string, opts *domain.SendOptions) error {
	o := &gotgbot.EditMessageTextOpts{
		ChatId:             int64(chat),
		MessageId:          messageID,
		LinkPreviewOptions: linkPreview(opts),
	}
	if opts != nil {
		o.ParseMode = opts.ParseMode
		if opts.Inline != nil {
			o.ReplyMarkup = inlineMarkup(opts.Inline)
		}
	}
	_, _, err := p.api.EditMessageTextWithContext(ctx, text, o)
	return wrapError("editMessageText", err)
}

func (p *Platform) DeleteMessage(ctx context.Context, chat domain.ConversationID, messageID int64) error {
	_, err := p.api.DeleteMessageWithContext(ctx, int64(chat), messageID, nil)
	return wrapError("deleteMessage", err)
}

func (p *Platform) SendPhoto(ctx context.Context, chat domain.ConversationID, ref, caption string, opts *domain.SendOptions) (domain.Message, error) {
	o := &gotgbot.SendPhotoOpts{
		Caption:     caption,
		ReplyMarkup: markup(opts),
	}
	if opts != nil {
		o.ParseMode = opts.ParseMode
		o.ProtectContent = opts.ProtectContent
	}
	msg, err := p.api.SendPhotoWithContext(ctx, int64(chat), photoRef(ref), o)
	if err != nil {
		return domain.Message{}, wrapError("sendPhoto", err)
	}
	return domain.Message{ID: msg.MessageId, Conversation: chat}, nil
}

func (p *Platform) SendMediaGroup(ctx context.Context, chat domain.ConversationID, photos []domain.MediaPhoto, opts *domain.SendOptions) ([]domain.Message, error) {
	media := make([]gotgbot.InputMedia, 0, len(photos))
	for _, ph := range photos {
		media = append(media, gotgbot.InputMediaPhoto{
			Media:     photoRef(ph.Ref),
			Caption:   ph.Caption,
			ParseMode: ph.ParseMode,
		})
	}
	o := &gotgbot.SendMediaGroupOpts{}
	if opts != nil {
		o.ProtectContent = opts.ProtectContent
	}
	msgs, err := p.api.SendMediaGroupWithContext(ctx, int64(chat), media, o)
	if err != nil {
		return nil, wrapError("sendMediaGroup", err)
	}
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.Message{ID: m.MessageId, Conversation: chat})
	}
	return out, nil
}

func (p *Platform) AnswerCallback(ctx context.Context, callbackID string, answer *domain.CallbackAnswer) error {
	o := &gotgbot.AnswerCallbackQueryOpts{}
	if answer != nil {
		o.Text = answer.Text
		o.ShowAlert = answer.ShowAlert
	}
	_, err := p.api.AnswerCallbackQueryWithContext(ctx, callbackID, o)
	return wrapError("answerCallbackQuery", err)
}

// DownloadFile resolves the file path with getFile and fetches the content.
func (p *Platform) DownloadFile(ctx context.Context, fileID string) (*domain.File, error) {
	f, err := p.api.GetFileWithContext(ctx, fileID, nil)
	if err != nil {
		return nil, wrapError("getFile", err)
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("file %s has no download path", fileID)
	}

	url := strings.TrimSuffix(p.fileURL, "/") + p.token + "/" + f.FilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file %s: status %d", fileID, resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return &domain.File{
		Name:     path.Base(f.FilePath),
		MimeType: resp.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

// SetCommands publishes the command menu. Commands without a description
// use their name, since the Bot API requires one.
func (p *Platform) SetCommands(ctx context.Context, commands []*domain.Command) error {
	out := make([]gotgbot.BotCommand, 0, len(commands))
	for _, c := range commands {
		desc := c.Description
		if desc == "" {
			desc = c.Name
		}
		out = append(out, gotgbot.BotCommand{Command: c.Name, Description: desc})
	}
	_, err := p.api.SetMyCommandsWithContext(ctx, out, nil)
	return wrapError("setMyCommands", err)
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
