package ports

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Platform is the messaging platform collaborator consumed by the runtime.
// Failures should be returned as *domain.PlatformError so they can be classified.
type Platform interface {
	SendMessage(ctx context.Context, chat domain.ConversationID, text string, opts *domain.SendOptions) (domain.Message, error)
	EditMessageText(ctx context.Context, chat domain.ConversationID, messageID int64, text string, opts *domain.SendOptions) error
	DeleteMessage(ctx context.Context, chat domain.ConversationID, messageID int64) error
	SendPhoto(ctx context.Context, chat domain.ConversationID, ref, caption string, opts *domain.SendOptions) (domain.Message, error)
	SendMediaGroup(ctx context.Context, chat domain.ConversationID, photos []domain.MediaPhoto, opts *domain.SendOptions) ([]domain.Message, error)
	AnswerCallback(ctx context.Context, callbackID string, answer *domain.CallbackAnswer) error
	DownloadFile(ctx context.Context, fileID string) (*domain.File, error)
}
