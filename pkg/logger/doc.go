// Package logger builds *slog.Logger instances for the toggle runtime and
// provides attribute helpers that keep key names consistent across components.
//
// New applies functional options on top of production defaults (JSON, info
// level, stderr) and wraps the handler with LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks for every record:
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "billing"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.Warn("toggle fetch failed", logger.StatusCode(503), logger.ETag(etag))
//
// Components default to Nop so a library never writes logs unless the host
// application passes a logger in.
package logger
