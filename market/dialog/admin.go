package dialog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/market/i18n"
)

// Administrative replies are always English.
const adminLocale = i18n.EN

func (c *Controller) adminTopUp(ctx context.Context, ev Event, sess *state.Session, args []string) error {
	if len(args) < 2 {
		return c.show(ctx, ev, sess, []Message{text(tr(adminLocale, "admin_topup_usage"))})
	}
	userID, errUser := strconv.ParseInt(args[0], 10, 64)
	amount, errAmount := strconv.ParseInt(args[1], 10, 64)
	if errUser != nil || errAmount != nil || amount <= 0 {
		return c.show(ctx, ev, sess, []Message{text(tr(adminLocale, "admin_topup_invalid"))})
	}
	if err := c.ledger.Credit(ctx, userID, amount); err != nil {
		return err
	}
	metrics.LedgerCredits.WithLabelValues("admin").Inc()
	logger.Info(ctx, logger.CompAdmin, "wallet.topup",
		slog.Int64("wallet_user_id", userID),
		slog.Int64("amount", amount),
	)
	msg := tr(adminLocale, "admin_topup_done", i18n.Params{"amount": amount, "id": userID})
	return c.show(ctx, ev, sess, []Message{text(msg)})
}

func (c *Controller) adminListUsers(ctx context.Context, ev Event, sess *state.Session) error {
	wallets, err := c.ledger.Wallets(ctx)
	if err != nil {
		return err
	}
	return c.show(ctx, ev, sess, usersScreen(adminLocale, wallets))
}
