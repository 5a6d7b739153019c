package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nmwangi/efootball-league/repositories"
)

const (
	dispatchInterval = 15 * time.Second
	dispatchBatchCap = 50
)

// StartWorker runs a background loop that sends claimed notifications.
// Blocks until ctx is cancelled; intended to be called with `go`.
func StartWorker(ctx context.Context, store *Store, tokens repositories.DeviceTokenRepository, sender *FCMSender, logger *slog.Logger) {
	logger.Info("notification dispatch worker started", slog.Duration("interval", dispatchInterval))
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, failed, err := dispatchBatch(ctx, store, tokens, sender, logger)
			if err != nil {
				logger.Error("notification dispatch error", slog.Any("error", err))
			} else if sent+failed > 0 {
				logger.Info("notification batch dispatched", slog.Int("sent", sent), slog.Int("failed", failed))
			}
		case <-ctx.Done():
			logger.Info("notification dispatch worker stopped")
			return
		}
	}
}

func dispatchBatch(ctx context.Context, store *Store, tokens repositories.DeviceTokenRepository, sender *FCMSender, logger *slog.Logger) (sent, failed int, err error) {
	claimed, err := store.ClaimDue(ctx, dispatchBatchCap)
	if err != nil {
		return 0, 0, err
	}

	for _, row := range claimed {
		var deviceTokens []string
		var tokErr error
		if row.PlayerID != nil {
			deviceTokens, tokErr = tokens.ListTokens(ctx, *row.PlayerID)
		} else {
			deviceTokens, tokErr = tokens.ListAllTokens(ctx)
		}
		if tokErr != nil || len(deviceTokens) == 0 {
			reason := "no device tokens"
			if tokErr != nil {
				reason = tokErr.Error()
			}
			_ = store.MarkFailed(ctx, row.ID, reason)
			failed++
			continue
		}

		data := map[string]string{
			"entity_type": row.EntityType,
			"entity_id":   strconv.Itoa(row.EntityID),
		}
		if sendErr := sender.SendMulti(ctx, deviceTokens, row.Title, row.Message, data); sendErr != nil {
			logger.Warn("push send failed",
				slog.Int("notification_id", row.ID),
				slog.Any("error", sendErr))
			_ = store.MarkFailed(ctx, row.ID, fmt.Sprintf("send: %v", sendErr))
			failed++
		} else {
			_ = store.MarkSent(ctx, row.ID)
			sent++
		}
	}
	return sent, failed, nil
}
