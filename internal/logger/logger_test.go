package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestWithRequestID_AnnotatesLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "json", slog.LevelInfo))

	id := NewRequestID()
	ctx = WithRequestID(ctx, id)
	FromContext(ctx).Info("fetch")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, id, line["request_id"])
	assert.Equal(t, id, RequestIDFromContext(ctx))
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestInitialize_FileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "clickdash.log")
	err := Initialize(Config{Level: "info", OutputPath: path, MaxSize: 1, FileOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { defaultLogger = nil })

	Get().Info("hello")
	assert.FileExists(t, path)
}
