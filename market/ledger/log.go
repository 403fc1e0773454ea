package ledger

import (
	"context"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
)

func recordDebit(ctx context.Context, userID, amount int64, ok bool) {
	result := "ok"
	if !ok {
		result = "insufficient"
	}
	metrics.LedgerDebits.WithLabelValues(result).Inc()
	logger.Info(ctx, logger.CompLedger, "wallet.debit",
		slog.String("result", result),
		slog.Int64("wallet_user_id", userID),
		slog.Int64("amount", amount),
	)
}

func recordCredit(ctx context.Context, userID, amount int64) {
	logger.Info(ctx, logger.CompLedger, "wallet.credit",
		slog.Int64("wallet_user_id", userID),
		slog.Int64("amount", amount),
	)
}
