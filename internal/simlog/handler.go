// Package simlog is a single-line, level-colored slog.Handler for the
// simulator's CLI output. It is adapted from the corpus's own
// internal/slogpretty package (itself derivative of
// https://gitlab.com/greyxor/slogor), swapping out its HTTP-request
// attribute coloring for the simulator's own attribute keys (tick, prefix,
// event, seed, ...) and adding the `-C`/`--disable-colors` toggle spec.md
// §6 asks for.
package simlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/maqi/datachains-sim/internal/ansi"
)

const (
	maxBufferSize     = 16 << 10 // 16384
	initialBufferSize = 1024
)

// Attribute keys given special coloring by appendAttr.
const (
	KeyTick   = "tick"
	KeyPrefix = "prefix"
	KeyEvent  = "event"
	KeySeed   = "seed"
	KeyError  = "error"
)

var _ slog.Handler = (*Handler)(nil)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

var timeFormat = fmt.Sprintf("%s %s", time.DateOnly, time.TimeOnly)

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

// GroupOrAttrs records either a pending slog group name or a bound attr,
// applied in order when a record is finally rendered.
type GroupOrAttrs struct {
	attr  slog.Attr
	group string
}

// Handler is a compact, single-line slog.Handler tuned for the simulator's
// tick-by-tick console output.
type Handler struct {
	We            io.Writer
	Wo            io.Writer
	Lvl           slog.Leveler
	Goa           []GroupOrAttrs
	DisableColors bool
}

// NewDefaultHandler returns a Handler writing level >= lvl records to
// stdout, and ERROR records to stderr, colored unless disableColors is set.
func NewDefaultHandler(lvl slog.Leveler, disableColors bool) *Handler {
	return &Handler{
		We:            &lockedWriter{w: os.Stderr},
		Wo:            &lockedWriter{w: os.Stdout},
		Lvl:           lvl,
		DisableColors: disableColors,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = append(buf, "[SIM] "...)

	if !record.Time.IsZero() {
		buf = h.color(buf, ansi.Faint)
		buf = append(buf, record.Time.Format(timeFormat)...)
		buf = h.color(buf, ansi.NormalIntensity)
		buf = append(buf, " "...)
	}

	buf = append(buf, "| "...)
	switch record.Level {
	case slog.LevelInfo:
		buf = h.color(buf, ansi.FgGreen)
		buf = append(buf, record.Level.String()...)
		buf = append(buf, " "...)
	case slog.LevelError:
		buf = h.color(buf, ansi.FgRed)
		buf = append(buf, record.Level.String()...)
	case slog.LevelWarn:
		buf = h.color(buf, ansi.FgYellow)
		buf = append(buf, record.Level.String()...)
		buf = append(buf, " "...)
	case slog.LevelDebug:
		buf = h.color(buf, ansi.FgMagenta)
		buf = append(buf, record.Level.String()...)
	}

	buf = h.color(buf, ansi.Reset)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, " | "...)

	lastGroup := ""
	for _, goa := range h.Goa {
		switch {
		case goa.group != "":
			lastGroup += goa.group + "."
		default:
			attr := goa.attr
			if lastGroup != "" {
				attr.Key = lastGroup + attr.Key
			}
			buf = h.appendAttr(record.Level, buf, attr)
		}
	}

	if record.NumAttrs() > 0 {
		record.Attrs(func(attr slog.Attr) bool {
			if lastGroup != "" {
				attr.Key = lastGroup + attr.Key
			}
			buf = h.appendAttr(record.Level, buf, attr)
			return true
		})
	}

	// Replace the latest space with an EOL.
	if len(buf) > 0 {
		buf[len(buf)-1] = '\n'
	}

	if record.Level >= slog.LevelError {
		if _, err := h.We.Write(buf); err != nil {
			return fmt.Errorf("failed to write buffer: %w", err)
		}
	} else {
		if _, err := h.Wo.Write(buf); err != nil {
			return fmt.Errorf("failed to write buffer: %w", err)
		}
	}

	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]GroupOrAttrs, len(attrs))
	for i, attr := range attrs {
		newAttrs[i] = GroupOrAttrs{attr: attr}
	}

	return &Handler{
		We:            h.We,
		Wo:            h.Wo,
		Lvl:           h.Lvl,
		DisableColors: h.DisableColors,
		Goa:           append(h.Goa, newAttrs...),
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		We:            h.We,
		Wo:            h.Wo,
		Lvl:           h.Lvl,
		DisableColors: h.DisableColors,
		Goa:           append(h.Goa, GroupOrAttrs{group: name}),
	}
}

// color appends code to buf unless colors are disabled.
func (h *Handler) color(buf []byte, code string) []byte {
	if h.DisableColors {
		return buf
	}
	return append(buf, code...)
}

// appendAttr appends one attribute to buf, colored by its key.
func (h *Handler) appendAttr(level slog.Level, buf []byte, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	buf = h.color(buf, ansi.Faint)
	buf = h.color(buf, ansi.Bold)
	buf = append(buf, attr.Key...)
	buf = append(buf, "="...)
	buf = h.color(buf, ansi.NormalIntensity)

	var addWhitespace bool
	switch attr.Key {
	case KeyTick:
		buf = h.color(buf, ansi.BgBlue)
		addWhitespace = true
	case KeyEvent:
		buf = h.color(buf, levelColor(level))
		addWhitespace = true
	case KeyPrefix:
		buf = h.color(buf, ansi.FgYellow)
	case KeySeed:
		buf = h.color(buf, ansi.FgCyan)
	case KeyError:
		buf = h.color(buf, ansi.FgRed)
	default:
		buf = h.color(buf, ansi.FgCyan)
	}

	if addWhitespace {
		buf = append(buf, " "+attr.Value.String()+" "...)
	} else {
		buf = append(buf, attr.Value.String()...)
	}
	buf = h.color(buf, ansi.Reset)
	buf = append(buf, " "...)

	return buf
}

func levelColor(level slog.Level) string {
	switch level {
	case slog.LevelInfo:
		return ansi.BgBlue
	case slog.LevelWarn:
		return ansi.BgYellow
	case slog.LevelError:
		return ansi.BgRed
	default:
		return ansi.BgMagenta
	}
}

type lockedWriter struct {
	w io.Writer
	sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	n, err = w.w.Write(p)
	w.Unlock()
	return
}
