package middleware

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// RequestIDHeader is read from and echoed on every response.
const RequestIDHeader = "X-Request-ID"

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	InitLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// InitLogger rebuilds Logger for env and level and installs it as the slog
// default, so packages logging through slog.*Context get the same fields.
func InitLogger(env, level string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(&ctxHandler{handler})
	slog.SetDefault(Logger)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestID assigns each request an id, reusing a sane inbound X-Request-ID.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := strings.TrimSpace(c.Get(RequestIDHeader))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Locals("requestid", rid)
		c.Set(RequestIDHeader, rid)
		return c.Next()
	}
}

// ContextMiddleware injects request ID, user ID and trace ID from Fiber locals
// into the request context so the context-aware logger can pick them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(enrichContext(c))
		return c.Next()
	}
}

func enrichContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()

	if rid, ok := c.Locals("requestid").(string); ok {
		ctx = context.WithValue(ctx, RequestIDKey, rid)
	}
	if uid, ok := c.Locals("userID").(uint); ok {
		ctx = context.WithValue(ctx, UserIDKey, uid)
	}
	if tid, ok := c.Locals("traceID").(string); ok {
		ctx = context.WithValue(ctx, TraceIDKey, tid)
	}
	return ctx
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		// The auth middleware may have stamped a user after ContextMiddleware ran.
		ctx := enrichContext(c)
		switch {
		case err != nil:
			fields = append(fields, slog.String("error", err.Error()))
			Logger.ErrorContext(ctx, "request failed", fields...)
		case status >= fiber.StatusInternalServerError:
			Logger.ErrorContext(ctx, "request processed", fields...)
		default:
			Logger.InfoContext(ctx, "request processed", fields...)
		}

		return err
	}
}
