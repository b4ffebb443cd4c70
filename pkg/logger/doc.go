// Package logger wraps log/slog with a small option-based factory and
// attribute helpers shared across the notification subsystem.
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithFormat(logger.FormatText),
//		logger.WithAttr(logger.Component("ws")),
//	)
//	log.Info("connected", logger.UserID(userID))
//
// Attr helpers keep attribute keys consistent so logs from the
// dispatcher, gateway, and storage layers aggregate cleanly.
package logger
