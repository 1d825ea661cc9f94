package middleware

import (
	"log/slog"
	"net/url"
	"time"

	"conduit/config"
	deliverycontext "conduit/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// redactedQueryParams never reach the access log. OAuth callbacks carry the
// authorization code and state in the query string.
var redactedQueryParams = []string{"code", "state", "apiKey", "api_key", "token"}

// LoggerMiddleware writes one access log line per request when debug is on.
type LoggerMiddleware struct {
	logger *slog.Logger
	debug  bool
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(logger *slog.Logger, config *config.Config) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger,
		debug:  config.Env.Debug,
	}
}

// Handle processes request logging
func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.debug {
			return next(c)
		}

		start := time.Now()
		err := next(c)
		m.logRequest(c, start, err)

		return err
	}
}

func (m *LoggerMiddleware) logRequest(c echo.Context, start time.Time, err error) {
	req := c.Request()
	res := c.Response()

	fields := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("uri", req.URL.Path),
		slog.Int("status", res.Status),
		slog.Duration("latency", time.Since(start)),
		slog.String("remote_ip", c.RealIP()),
		slog.String("user_agent", req.UserAgent()),
	}

	if query := redactQuery(req.URL.Query()); query != "" {
		fields = append(fields, slog.String("query", query))
	}
	if err != nil {
		fields = append(fields, slog.Any("error", err))
	}

	logLevel := slog.LevelInfo
	if res.Status >= 400 {
		logLevel = slog.LevelWarn
	}
	if res.Status >= 500 {
		logLevel = slog.LevelError
	}

	// The request-scoped logger already carries request_id and, once authenticated, user_id.
	ctx := req.Context()
	deliverycontext.GetLoggerOrDefault(ctx, m.logger).LogAttrs(ctx, logLevel, "HTTP Request", fields...)
}

func redactQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	for _, key := range redactedQueryParams {
		if values.Has(key) {
			values.Set(key, "[REDACTED]")
		}
	}

	return values.Encode()
}
