package runtime

import (
	"context"

	"github.com/aretw0/tgflow/pkg/domain"
)

// WaitForText suspends the caller until the conversation sends text, the
// user cancels, or the wait times out. A wait already pending in the
// conversation is cancelled first.
func (e *Engine) WaitForText(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	o := e.waitOptions(opts)
	o.Kinds = []domain.InputKind{domain.InputText}
	return e.wait(ctx, id, o)
}

// WaitForFile waits for a document, or for the kinds set in opts.
func (e *Engine) WaitForFile(ctx context.Context, id domain.ConversationID, opts *domain.WaitOptions) (domain.WaitResult, error) {
	o := e.waitOptions(opts)
	if len(o.Kinds) == 0 {
		o.Kinds = []domain.InputKind{domain.InputDocument}
	}
	return e.wait(ctx, id, o)
}

func (e *Engine) waitOptions(opts *domain.WaitOptions) domain.WaitOptions {
	var o domain.WaitOptions
	if opts != nil {
		o = *opts
	}
	if len(o.CancelKeywords) == 0 {
		o.CancelKeywords = e.config.CancelKeywords
	}
	return o
}

func (e *Engine) wait(ctx context.Context, id domain.ConversationID, o domain.WaitOptions) (domain.WaitResult, error) {
	if e.stopped.Load() {
		return domain.WaitResult{}, domain.ErrStopped
	}

	e.cancelPendingWait(id, e.store.Snapshot(id), domain.ErrWaitSuperseded.Error())

	w := e.waits.Create(id, o)
	e.store.SetWait(id, w.ID, o.Kinds)
	defer e.store.ClearWaitIf(id, w.ID)

	if o.Prompt != "" {
		if _, err := e.SendMessage(ctx, id, o.Prompt, nil); err != nil {
			e.waits.Cancel(w.ID, err.Error())
			return domain.WaitResult{}, err
		}
	}

	res := w.Await(ctx)
	if res.TimedOut() && o.TimeoutMessage != "" {
		e.notify(ctx, id, o.TimeoutMessage)
	}
	return res, nil
}

// handleTextInput feeds text to the pending wait: cancel keywords cancel it,
// rejected input re-prompts and keeps it open, anything else resolves it.
func (e *Engine) handleTextInput(ctx context.Context, u *domain.Update, waitID string) error {
	id := u.Conversation
	e.deleteUserMessage(ctx, u)

	if e.waits.IsCancelInput(waitID, u.Text) {
		opts, _ := e.waits.Options(waitID)
		if e.waits.Cancel(waitID, "") {
			e.store.ClearWaitIf(id, waitID)
			if opts.CancelMessage != "" {
				e.notify(ctx, id, opts.CancelMessage)
			}
		}
		return nil
	}

	if ok, msg := e.waits.Validate(ctx, waitID, u.Text); !ok {
		_, err := e.SendMessage(ctx, id, msg, nil)
		return err
	}

	e.resolveWait(id, waitID, domain.WaitResult{Status: domain.WaitSuccess, Value: u.Text})
	return nil
}

func (e *Engine) handleFile(ctx context.Context, u *domain.Update) error {
	if ok, err := e.runMiddleware(ctx, u); !ok {
		return err
	}
	id := u.Conversation

	kind := domain.InputDocument
	if u.Kind == domain.UpdatePhoto {
		kind = domain.InputPhoto
	}
	info := e.pendingWait(id)
	if info == nil || !domain.Accepts(info.Kinds, kind) {
		e.logger.Debug("file ignored, no matching wait", "conversation", id, "kind", kind)
		return nil
	}

	res := domain.WaitResult{Status: domain.WaitSuccess}
	switch kind {
	case domain.InputDocument:
		if u.Document == nil {
			return nil
		}
		res.File = &domain.FileInput{
			FileID:   u.Document.FileID,
			FileName: u.Document.FileName,
			MimeType: u.Document.MimeType,
		}
		file, err := e.platform.DownloadFile(ctx, u.Document.FileID)
		if err != nil {
			e.logger.Warn("failed to download file", "conversation", id, "file_id", u.Document.FileID, "err", err)
			res.Status, res.Error = domain.WaitFailed, err.Error()
			break
		}
		res.File.Content = file.Content
		if res.File.FileName == "" {
			res.File.FileName = file.Name
		}
		if res.File.MimeType == "" {
			res.File.MimeType = file.MimeType
		}
	case domain.InputPhoto:
		p := u.LargestPhoto()
		if p == nil {
			return nil
		}
		res.File = &domain.FileInput{FileID: p.FileID}
	}

	e.deleteUserMessage(ctx, u)
	e.resolveWait(id, info.ID, res)
	return nil
}

func (e *Engine) resolveWait(id domain.ConversationID, waitID string, res domain.WaitResult) {
	if e.waits.Resolve(waitID, res) {
		e.store.ClearWaitIf(id, waitID)
	}
}

// notify sends an informational message, logging failures.
func (e *Engine) notify(ctx context.Context, id domain.ConversationID, text string) {
	if _, err := e.SendMessage(ctx, id, text, nil); err != nil {
		e.logger.Warn("failed to send notice", "conversation", id, "err", err)
	}
}
