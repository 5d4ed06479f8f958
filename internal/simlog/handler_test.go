package simlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerHandleAllLevels(t *testing.T) {
	bufWo := bytes.NewBuffer(nil)
	bufWe := bytes.NewBuffer(nil)

	h := &Handler{
		We:  &lockedWriter{w: bufWe},
		Wo:  &lockedWriter{w: bufWo},
		Lvl: slog.LevelDebug,
	}

	record := slog.Record{
		Time:    time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC),
		Message: "tick advanced",
		Level:   slog.LevelDebug,
	}
	record.Add(KeyTick, uint64(42))
	record.Add(KeyPrefix, "101")
	record.Add(KeyEvent, "Split")
	record.Add(KeySeed, "[1, 2, 3, 4]")
	record.Add(slog.Group("section", slog.String("state", "Stable")))

	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		record.Level = lvl
		require.NoError(t, h.Handle(context.Background(), record))
	}

	assert.NotEmpty(t, bufWo.String())
	assert.NotEmpty(t, bufWe.String())
	assert.Contains(t, bufWo.String(), "tick advanced")
}

func TestHandlerRespectsDisableColors(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	h := &Handler{
		We:            &lockedWriter{w: buf},
		Wo:            &lockedWriter{w: buf},
		Lvl:           slog.LevelInfo,
		DisableColors: true,
	}

	record := slog.Record{Time: time.Now(), Message: "no colors here", Level: slog.LevelInfo}
	require.NoError(t, h.Handle(context.Background(), record))
	assert.NotContains(t, buf.String(), "\033[")
}

func TestHandlerEnabledRespectsLevel(t *testing.T) {
	h := NewDefaultHandler(slog.LevelWarn, true)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestWithAttrsAndWithGroupPreserveConfig(t *testing.T) {
	h := NewDefaultHandler(slog.LevelDebug, true)
	withAttrs := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(*Handler)
	assert.True(t, withAttrs.DisableColors)
	withGroup := h.WithGroup("g").(*Handler)
	assert.True(t, withGroup.DisableColors)
}
