package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIHandler_WritesMessageWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Info("scan complete", "score", 4.83, "rows", 12)

	out := buf.String()
	assert.Contains(t, out, "scan complete")
	assert.Contains(t, out, "score=4.83")
	assert.Contains(t, out, "rows=12")
}

func TestCLIHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHandler(&buf, slog.LevelInfo)

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(h)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestCLIHandler_GroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo)).WithGroup("scan")

	logger.Info("started")
	assert.Contains(t, buf.String(), "[scan] started")
}

func TestCLIHandler_WithAttrsCarried(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo)).With("restart", 3)

	logger.Info("converged")
	require.Contains(t, buf.String(), "restart=3")
}

func TestCLIHandler_ErrorColored(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Error("boom")
	assert.Contains(t, buf.String(), colorRed)
}
