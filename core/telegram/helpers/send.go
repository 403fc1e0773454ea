package helpers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
	"github.com/m3rciful/postbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func fallbackOnQueueErr(ctx context.Context, action, endpoint string, err error, run func() error) error {
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendMessage sends text to a chat synchronously so the caller can keep the message id.
// The caller counts the delivered message.
func SendMessage(ctx context.Context, api tele.API, chatID int64, text string, markup *tele.ReplyMarkup) (*tele.Message, error) {
	opts := &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true}
	msg, err := api.Send(tele.ChatID(chatID), text, opts)
	if err != nil {
		logger.Error(ctx, "tg.sender", "send.fail",
			slog.String("action", "send.screen"),
			slog.String("endpoint", "sendMessage"),
			slog.Int64("chat_id", chatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil, err
	}
	return msg, nil
}

// DeleteMessage removes a chat message through the dispatcher with a single attempt.
// Enqueue failures fall back to an inline call; delivery failures are counted and logged by the dispatcher.
func DeleteMessage(ctx context.Context, api tele.API, chatID int64, messageID int) error {
	run := func() error {
		err := api.Delete(&tele.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(messageID)})
		if err != nil {
			metrics.MessageDeleteFailures.Inc()
		}
		return err
	}
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}
	if err := disp.Enqueue(ctx, "message.delete", "deleteMessage", run); err != nil {
		return fallbackOnQueueErr(ctx, "message.delete", "deleteMessage", err, run)
	}
	return nil
}
