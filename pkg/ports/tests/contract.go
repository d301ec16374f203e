package tests

import (
	"context"
	"testing"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/ports"
)

// PlatformContractTest is a reusable test suite that verifies if an adapter complies with ports.Platform.
// The platform must accept chat 1 and report a missing message as a classified PlatformError.
func PlatformContractTest(t *testing.T, platform ports.Platform) {
	t.Helper()
	ctx := context.Background()
	const chat domain.ConversationID = 1

	// 1. Send then edit in place
	t.Run("SendAndEdit", func(t *testing.T) {
		msg, err := platform.SendMessage(ctx, chat, "hello", &domain.SendOptions{
			Inline: &domain.InlineKeyboard{Rows: [][]domain.InlineKey{{{Text: "Next", CallbackData: "tok"}}}},
		})
		if err != nil {
			t.Fatalf("unexpected error sending message: %v", err)
		}
		if msg.ID <= 0 {
			t.Errorf("expected a positive message id, got %d", msg.ID)
		}
		if err := platform.EditMessageText(ctx, chat, msg.ID, "hello again", nil); err != nil {
			t.Errorf("unexpected error editing message: %v", err)
		}
	})

	// 2. Ids are distinct
	t.Run("DistinctIDs", func(t *testing.T) {
		a, err := platform.SendMessage(ctx, chat, "a", nil)
		if err != nil {
			t.Fatalf("send a: %v", err)
		}
		b, err := platform.SendMessage(ctx, chat, "b", nil)
		if err != nil {
			t.Fatalf("send b: %v", err)
		}
		if a.ID == b.ID {
			t.Errorf("expected distinct ids, both were %d", a.ID)
		}
	})

	// 3. Delete, then delete again
	t.Run("DeleteMissing", func(t *testing.T) {
		msg, err := platform.SendMessage(ctx, chat, "bye", nil)
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if err := platform.DeleteMessage(ctx, chat, msg.ID); err != nil {
			t.Fatalf("unexpected error deleting message: %v", err)
		}
		err = platform.DeleteMessage(ctx, chat, msg.ID)
		if kind := domain.ClassifyPlatformError(err); kind != domain.PlatformMessageNotFound {
			t.Errorf("expected message_not_found on second delete, got %v (%v)", kind, err)
		}
	})

	// 4. Photos
	t.Run("Photos", func(t *testing.T) {
		if _, err := platform.SendPhoto(ctx, chat, "photo-1", "caption", nil); err != nil {
			t.Errorf("unexpected error sending photo: %v", err)
		}
		msgs, err := platform.SendMediaGroup(ctx, chat, []domain.MediaPhoto{{Ref: "a", Caption: "first"}, {Ref: "b"}}, nil)
		if err != nil {
			t.Fatalf("unexpected error sending media group: %v", err)
		}
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages in group, got %d", len(msgs))
		}
	})
}
