package notifications

import (
	"context"
	"fmt"
	"log/slog"
)

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when not configured, all methods are no-ops.
type FCMSender struct {
	credentialsFile string
	logger          *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials
// file. Returns nil if credentialsFile is empty (notifications disabled).
func NewFCMSender(credentialsFile string, logger *slog.Logger) *FCMSender {
	if credentialsFile == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMSender{
		credentialsFile: credentialsFile,
		logger:          logger,
	}
}

// SendMulti sends a notification to multiple device tokens. The FCM SDK
// call lands behind this boundary when the dependency is brought in;
// until then sends are logged so the dispatch path stays exercised
// end to end.
func (s *FCMSender) SendMulti(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if s == nil {
		return nil
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no tokens to send to")
	}

	s.logger.Info("push send",
		slog.Int("tokens", len(tokens)),
		slog.String("title", title),
		slog.String("body", body))
	return nil
}
