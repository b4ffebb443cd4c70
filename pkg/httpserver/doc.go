// Package httpserver wraps net/http with graceful shutdown for the
// notification service.
//
// Run binds the listen address synchronously, serves in the background,
// and blocks until the caller's context is cancelled or the listener
// fails. The host process owns signal handling; cancelling the context
// is the only external stop trigger. Shutdown drains in-flight requests
// within a configurable grace period.
//
// The server sets a read-header timeout and an idle timeout but no body
// deadlines, because the live websocket channel hijacks its connections
// and holds them open indefinitely.
//
// Healthcheck builds liveness/readiness probe handlers from dependency
// check functions such as pgxpool.Pool.Ping.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Errors returned by Run and Shutdown wrap the ErrStart and ErrShutdown
// sentinels for errors.Is checks.
package httpserver
