package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Annotate adds key=value to the request logger carried by ctx. Every line
// logged through it afterwards, including the request line, has the field.
// It is a no-op when ctx carries no logger.
func Annotate(ctx context.Context, key, value string) {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str(key, value)
	})
}

// FromContext returns the request logger carried by ctx, or fallback.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
