// Package logger структурированный журнал поверх log/slog.
//
// В ENV=production пишет JSON, иначе читаемый текст:
//
//	log := logger.New("info")
//	log.Info("evaluation finished", "tier", "LOW", "score", 20)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger обёртка над slog.Logger.
type Logger struct {
	*slog.Logger
}

// New создаёт журнал в stdout с заданным уровнем (debug, info, warn, error).
// Неизвестный уровень трактуется как info.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter создаёт журнал, пишущий в w.
func NewWithWriter(level string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if os.Getenv("ENV") == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{slog.New(handler)}
}

// ParseLevel переводит строку в slog.Level.
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

// With возвращает журнал с дополнительными атрибутами.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// ContextKey тип ключей контекста.
type ContextKey string

const (
	// ContextKeyEvaluationID идентификатор одной оценки (отпечаток изображения).
	ContextKeyEvaluationID ContextKey = "evaluation_id"
	// ContextKeyUserID пользователь бота.
	ContextKeyUserID ContextKey = "user_id"
)

// WithContext добавляет известные значения из контекста.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	out := l
	if id := ctx.Value(ContextKeyEvaluationID); id != nil {
		out = out.With("evaluation_id", id)
	}
	if uid := ctx.Value(ContextKeyUserID); uid != nil {
		out = out.With("user_id", uid)
	}
	return out
}

// Nop журнал, который всё отбрасывает. Для тестов.
func Nop() *Logger {
	return NewWithWriter("error", io.Discard)
}
