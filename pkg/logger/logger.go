package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// New builds a logger from LOG_LEVEL. Text output in debug mode,
// JSON otherwise.
func New() *Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// LogHTTPRequest logs one completed HTTP request.
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogOrderCreated logs a new order with its reservation size.
func (l *Logger) LogOrderCreated(ctx context.Context, orderID, eventID, method string, tickets int) {
	l.Logger.InfoContext(ctx,
		"Order Created",
		slog.String("order_id", orderID),
		slog.String("event_id", eventID),
		slog.String("payment_method", method),
		slog.Int("tickets", tickets),
	)
}

// LogOrderCompleted logs an order reaching its paid terminal state.
func (l *Logger) LogOrderCompleted(ctx context.Context, orderID string, totalMinor int64) {
	l.Logger.InfoContext(ctx,
		"Order Completed",
		slog.String("order_id", orderID),
		slog.Int64("total_minor", totalMinor),
	)
}

func (l *Logger) LogOrderCancelled(ctx context.Context, orderID, reason string) {
	l.Logger.InfoContext(ctx,
		"Order Cancelled",
		slog.String("order_id", orderID),
		slog.String("reason", reason),
	)
}

// LogSweepRun logs the outcome of one cash-hold expiry pass.
func (l *Logger) LogSweepRun(ctx context.Context, expired, ticketsReleased int, duration time.Duration) {
	l.Logger.InfoContext(ctx,
		"Cash Hold Sweep",
		slog.Int("expired_orders", expired),
		slog.Int("tickets_released", ticketsReleased),
		slog.Duration("duration", duration),
	)
}

func (l *Logger) LogCommissionPosted(ctx context.Context, staffID, orderID string, amountMinor int64) {
	l.Logger.InfoContext(ctx,
		"Commission Posted",
		slog.String("staff_id", staffID),
		slog.String("order_id", orderID),
		slog.Int64("amount_minor", amountMinor),
	)
}

// ErrorWithContext logs err with structured fields attached.
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

var defaultLogger = New()

// GetDefault returns the process-wide logger.
func GetDefault() *Logger {
	return defaultLogger
}

func SetDefault(logger *Logger) {
	defaultLogger = logger
}
