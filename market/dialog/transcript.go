package dialog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/state"
)

// Transcript keeps a chat limited to the messages of the current screen.
type Transcript struct {
	transport Transport
}

// NewTranscript binds the transcript manager to a transport.
func NewTranscript(t Transport) *Transcript {
	return &Transcript{transport: t}
}

// ClearScreen deletes the remembered user messages, then the previous screen.
// Failures are logged and otherwise ignored; both lists end up empty.
func (t *Transcript) ClearScreen(ctx context.Context, chatID int64, sess *state.Session) {
	t.deleteAll(ctx, chatID, "inbound", sess.TakeInbound())
	t.deleteAll(ctx, chatID, "outbound", sess.TakeOutbound())
}

func (t *Transcript) deleteAll(ctx context.Context, chatID int64, list string, ids []int) {
	for _, id := range ids {
		if err := t.transport.Delete(ctx, chatID, id); err != nil {
			logger.Warn(ctx, logger.CompDialog, "transcript.delete.fail",
				slog.String("list", list),
				slog.Int("message_id", id),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
}

// Render sends the messages of a screen and records their ids as the current screen.
// A failed send does not stop the remaining messages.
func (t *Transcript) Render(ctx context.Context, chatID int64, sess *state.Session, msgs ...Message) error {
	var errs []error
	for _, m := range msgs {
		id, err := t.transport.Send(ctx, chatID, m.Text, m.Keyboard)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sess.RecordOutbound(id)
	}
	return errors.Join(errs...)
}

// Show clears the chat and renders the next screen.
func (t *Transcript) Show(ctx context.Context, chatID int64, sess *state.Session, msgs ...Message) error {
	t.ClearScreen(ctx, chatID, sess)
	return t.Render(ctx, chatID, sess, msgs...)
}
