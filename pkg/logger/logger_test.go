package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, getLogLevel(in), in)
	}
}

func TestNewWithWriter_JSONInReleaseMode(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")
	l.WithComponent("sweeper").LogSweep(context.Background(), true, 3, 0)

	out := buf.String()
	assert.Contains(t, out, `"msg":"Expired Hold Sweep"`)
	assert.Contains(t, out, `"freed_seats":3`)
	assert.Contains(t, out, `"component":"sweeper"`)
}

func TestErrorWithContext(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")
	l.ErrorWithContext(context.Background(), "settle failed", errors.New("boom"), map[string]interface{}{"reference": "ref_1"})

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"reference":"ref_1"`)
}
