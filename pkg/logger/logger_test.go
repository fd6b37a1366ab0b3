package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/logger"
)

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func TestNew_ProductionJSON(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithEnvironment("prod", "predictvip"),
		logger.WithOutput(buf),
		logger.WithContextValueFunc("request_id", requestID),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.DebugContext(ctx, "dropped")
	log.InfoContext(ctx, "subscription activated", logger.PlanType("1_month"), logger.Error(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "subscription activated", entry["msg"])
	assert.Equal(t, "predictvip", entry["service"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "1_month", entry["plan_type"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_DevelopmentText(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithEnvironment("", "svc"), logger.WithOutput(buf))
	log.Debug("msg", logger.Transition("pending", "active", "admin_activated"))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "env=development")
	assert.Contains(t, out, "transition.from=pending")
	assert.Contains(t, out, "transition.to=active")
}

func TestNew_EmptyContextValueSkipped(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithLevel(slog.LevelWarn),
		logger.WithContextValueFunc("request_id", requestID),
	)
	log.InfoContext(context.Background(), "below level")
	assert.Empty(t, buf.String())

	log.WarnContext(context.Background(), "no request id")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}

func TestError_Nil(t *testing.T) {
	t.Parallel()
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}
