package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// accessRecorder captures the status and body size the handler produced.
type accessRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func newAccessRecorder(w http.ResponseWriter) *accessRecorder {
	return &accessRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *accessRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *accessRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger writes one access record per request carrying the fields of the
// Apache combined log format: remote address, remote user, time, request
// line, status, response bytes, referrer and user agent. Request ID and
// latency ride along. 5xx logs at error level, 4xx at warn.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newAccessRecorder(w)

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("remote_user", remoteUser(r)),
				slog.Time("time", start),
				slog.String("method", r.Method),
				slog.String("url", r.URL.RequestURI()),
				slog.String("proto", r.Proto),
				slog.Int("status", rec.status),
				slog.Int("bytes", rec.bytes),
				slog.String("referrer", dashIfEmpty(r.Referer())),
				slog.String("user_agent", dashIfEmpty(r.UserAgent())),
				slog.String("request_id", GetRequestID(r.Context())),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
		})
	}
}

// remoteUser is the basic-auth user name; the password is never read out.
func remoteUser(r *http.Request) string {
	user, _, ok := r.BasicAuth()
	if !ok {
		return "-"
	}
	return dashIfEmpty(user)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
