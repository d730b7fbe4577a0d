// Package httpserver provides a graceful HTTP server used by the payment
// webhook gateway.
//
// The Server wraps net/http with context-driven shutdown, SIGINT/SIGTERM
// handling, start/stop hooks and environment-driven configuration:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStartHook(func(l *slog.Logger) { l.Info("listening") }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Fatal(err)
//	}
package httpserver
