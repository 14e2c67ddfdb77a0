package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger is chi's request logger writing through the global zerolog logger.
func RequestLogger() func(next http.Handler) http.Handler {
	return chiMiddleware.RequestLogger(zerologFormatter{})
}

type zerologFormatter struct{}

func (zerologFormatter) NewLogEntry(r *http.Request) chiMiddleware.LogEntry {
	return &zerologEntry{
		logger: log.With().
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Logger(),
	}
}

type zerologEntry struct {
	logger zerolog.Logger
}

func (e *zerologEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	var ev *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		ev = e.logger.Error()
	case status >= http.StatusBadRequest:
		ev = e.logger.Warn()
	default:
		ev = e.logger.Info()
	}
	ev.Int("status", status).Int("bytes", bytes).Dur("elapsed", elapsed).Msg("Request")
}

func (e *zerologEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().Interface("panic", v).Bytes("stack", stack).Msg("Request panicked")
}
