package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/market/dialog"

	tele "gopkg.in/telebot.v4"
)

// Handler decides the dialog action of each update and hands it to the controller.
type Handler struct {
	ctrl *dialog.Controller
}

// NewHandler binds update handling to ctrl.
func NewHandler(ctrl *dialog.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// Register adds the commands and callbacks of the marketplace to reg.
func (h *Handler) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.onStart,
		Description: "Open the marketplace",
	})
	reg.RegisterCommand("/topup", commands.Command{
		Handler:     h.onTopUp,
		Description: "Credit a user's wallet",
		Usage:       "/topup <userid> <amount>",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/listusers", commands.Command{
		Handler:     h.onListUsers,
		Description: "List wallets",
		AdminOnly:   true,
	})

	var errs []error
	for _, tag := range dialog.Tags() {
		errs = append(errs, reg.RegisterCallback(tag, h.onCallback))
	}
	reg.SetTextFallback(h.onText)
	return errors.Join(errs...)
}

// InProgress reports whether free text from the user is a listing body.
func (h *Handler) InProgress(userID int64) bool {
	return h.ctrl.Sessions().InProgress(userID)
}

// ManagerHandler consumes the listing body of an in-progress creation.
func (h *Handler) ManagerHandler(c tele.Context) error {
	return h.onText(c)
}

// OnAdminReject answers callers outside the admin allow-list.
func (h *Handler) OnAdminReject(c tele.Context) error {
	return h.dispatch(c, dialog.AdminDenied{})
}

func (h *Handler) onStart(c tele.Context) error {
	return h.dispatch(c, dialog.Start{})
}

func (h *Handler) onTopUp(c tele.Context) error {
	return h.dispatch(c, dialog.AdminTopUp{Args: c.Args()})
}

func (h *Handler) onListUsers(c tele.Context) error {
	return h.dispatch(c, dialog.AdminListUsers{})
}

func (h *Handler) onText(c tele.Context) error {
	return h.dispatch(c, dialog.SubmitText{Text: c.Text()})
}

func (h *Handler) onCallback(c tele.Context) error {
	tag, payload := callbacks.ParseCallbackData(c.Callback())
	action, err := dialog.Decode(tag, payload)
	if err != nil {
		logger.Warn(tghelpers.BuildContext(c), logger.CompDialog, "callback.decode.fail",
			slog.String("cb_key", tag),
			slog.String("err", err.Error()),
		)
		return callbacks.Answer(c, &tele.CallbackResponse{Text: "Unsupported action"})
	}
	return h.dispatch(c, action)
}

func (h *Handler) dispatch(c tele.Context, a dialog.Action) error {
	ev, ok := eventFrom(c, a)
	if !ok {
		return nil
	}
	ctx := withUpdate(tghelpers.BuildContext(c), c)
	reply, err := h.ctrl.Handle(ctx, ev)
	if reply.Alert != "" {
		if answerErr := callbacks.Answer(c, &tele.CallbackResponse{Text: reply.Alert, ShowAlert: true}); answerErr != nil {
			logger.Warn(ctx, logger.CompDialog, "callback.answer.fail",
				slog.String("err", logger.SanitizeLimit(answerErr.Error(), 256)),
			)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventFrom extracts the chat, sender, and user message of an update.
// Callback updates carry the bot's own screen message, which is not recorded as inbound.
func eventFrom(c tele.Context, a dialog.Action) (dialog.Event, bool) {
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return dialog.Event{}, false
	}
	ev := dialog.Event{
		ChatID:   chat.ID,
		UserID:   sender.ID,
		Username: sender.Username,
		Action:   a,
	}
	if c.Callback() == nil {
		if m := c.Message(); m != nil {
			ev.MessageID = m.ID
		}
	}
	return ev, true
}
