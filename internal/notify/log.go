// internal/notify/log.go
package notify

import (
	"context"
	"log/slog"

	"tochcoin-wallet/internal/domain"
)

// LogNotifier writes ledger events and reward notices to the log. It is used when no
// broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) LedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	n.logger.InfoContext(ctx, "ledger event",
		"event_id", event.EventID,
		"transaction_id", event.TransactionID,
		"user_id", event.UserID,
		"amount", event.Amount,
		"type", event.Type,
		"source", event.Source,
		"balance", event.BalanceAfter,
	)
	return nil
}

func (n *LogNotifier) Reward(ctx context.Context, notice domain.RewardNotice) error {
	n.logger.InfoContext(ctx, "reward granted",
		"user_id", notice.UserID,
		"amount", notice.Amount,
		"source", notice.Source,
		"title", notice.Title,
		"balance", notice.NewBalance,
	)
	return nil
}
