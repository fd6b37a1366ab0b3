package pg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// gooseLogger routes goose's printf-style output into slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}
