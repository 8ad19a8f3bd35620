package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	LoggerKey    ctxKey = "logger"
	TraceIDKey   ctxKey = "trace_id"
)

var globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init inicializa o logger global
func Init(level string, jsonFormat bool) {
	InitWithWriter(level, jsonFormat, os.Stdout)
}

// InitWithWriter inicializa o logger global escrevendo em out
func InitWithWriter(level string, jsonFormat bool, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := out
	if !jsonFormat {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	globalLogger = zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "trello-exporter").
		Logger()
}

// Global retorna o logger global
func Global() *zerolog.Logger {
	return &globalLogger
}

// Get retorna logger do contexto ou global
func Get(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &globalLogger
}

// FromGin extrai o logger do contexto Gin
func FromGin(c *gin.Context) *zerolog.Logger {
	return Get(c.Request.Context())
}

// WithRequestID adiciona request_id ao logger e contexto
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := globalLogger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, LoggerKey, &l)
	return ctx
}

// WithTraceID adiciona um trace ID para rastreamento distribuído
func WithTraceID(ctx context.Context, traceID string) context.Context {
	existingLogger := Get(ctx)
	l := existingLogger.With().Str("trace_id", traceID).Logger()
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	ctx = context.WithValue(ctx, LoggerKey, &l)
	return ctx
}

// GetRequestID extrai request_id do contexto
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTraceID extrai trace_id do contexto
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}
