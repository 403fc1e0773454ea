package bot

import (
	"context"
	"errors"
	"sync/atomic"

	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/core/telegram/middleware"
	"github.com/m3rciful/postbot/market/dialog"

	tele "gopkg.in/telebot.v4"
)

var errNotBound = errors.New("bot: transport not bound to a bot")

type updateKey struct{}

// withUpdate remembers the update being handled so sends are attributed to its summary line.
func withUpdate(ctx context.Context, c tele.Context) context.Context {
	return context.WithValue(ctx, updateKey{}, c)
}

func updateFrom(ctx context.Context) tele.Context {
	c, _ := ctx.Value(updateKey{}).(tele.Context)
	return c
}

// Transport implements dialog.Transport over the Telegram Bot API.
// Sends are synchronous; deletes go through the shared dispatcher with a single attempt.
type Transport struct {
	api atomic.Value // tele.API
}

// NewTransport returns an unbound transport; Bind must be called before the first update.
func NewTransport() *Transport {
	return &Transport{}
}

// Bind attaches the bot client.
func (t *Transport) Bind(api tele.API) {
	if api != nil {
		t.api.Store(api)
	}
}

func (t *Transport) client(ctx context.Context) (tele.API, error) {
	if c := updateFrom(ctx); c != nil && c.Bot() != nil {
		return c.Bot(), nil
	}
	if api, ok := t.api.Load().(tele.API); ok {
		return api, nil
	}
	return nil, errNotBound
}

// Send delivers a screen message and returns its id.
func (t *Transport) Send(ctx context.Context, chatID int64, text string, kb dialog.Keyboard) (int, error) {
	api, err := t.client(ctx)
	if err != nil {
		return 0, err
	}
	markup := inlineMarkup(kb)
	msg, err := tghelpers.SendMessage(ctx, api, chatID, text, markup)
	if err != nil {
		return 0, err
	}
	middleware.CountMessage(updateFrom(ctx), markup != nil)
	return msg.ID, nil
}

// Delete removes a chat message.
func (t *Transport) Delete(ctx context.Context, chatID int64, messageID int) error {
	api, err := t.client(ctx)
	if err != nil {
		return err
	}
	return tghelpers.DeleteMessage(ctx, api, chatID, messageID)
}

func inlineMarkup(kb dialog.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: b.Unique, Data: b.Data})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}
