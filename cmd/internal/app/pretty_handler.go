package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiPurple = "\x1b[35m"
	ansiCyan   = "\x1b[36m"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string { return ansiEscape.ReplaceAllString(s, "") }

// prettyHandler writes one key=value line per record for local development.
// Attributes added with WithAttrs are formatted once, when they are added.
type prettyHandler struct {
	out       io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	addSource bool
	color     bool

	prefix string // open groups, "a.b."
	bound  []byte // pre-rendered WithAttrs output
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) slog.Handler {
	h := &prettyHandler{out: w, mu: &sync.Mutex{}, level: slog.LevelInfo, color: color}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

func (h *prettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = append(buf, "ts="...)
		buf = h.paint(buf, ansiDim, r.Time.Format("15:04:05.000"))
		buf = append(buf, ' ')
	}
	buf = append(buf, "lvl="...)
	buf = h.levelTag(buf, r.Level)
	buf = append(buf, " msg="...)
	buf = h.paint(buf, ansiBold, stripANSI(r.Message))

	if h.addSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if f.File != "" {
			buf = append(buf, " src="...)
			buf = h.paint(buf, ansiDim, filepath.Base(f.File)+":"+strconv.Itoa(f.Line))
		}
	}

	buf = append(buf, h.bound...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	cp := *h
	cp.bound = append([]byte(nil), h.bound...)
	for _, a := range attrs {
		cp.bound = h.appendAttr(cp.bound, h.prefix, a)
	}
	return &cp
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name = strings.TrimSpace(name); name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func (h *prettyHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	key := strings.TrimSpace(a.Key)
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		if key != "" {
			prefix += key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, prefix, ga)
		}
		return buf
	}
	if key == "" {
		return buf
	}

	full := prefix + key
	buf = append(buf, ' ')
	buf = append(buf, prettyKeys.Replace(full)...)
	buf = append(buf, '=')
	return h.appendValue(buf, full, a.Value)
}

// prettyKeys shortens a few request-log keys.
var prettyKeys = strings.NewReplacer("status_class", "class", "duration_ms", "duration")

func (h *prettyHandler) appendValue(buf []byte, key string, v slog.Value) []byte {
	switch {
	case key == "status" && v.Kind() == slog.KindInt64:
		code := int(v.Int64())
		return h.paint(buf, statusColor(code), strconv.Itoa(code))
	case key == "duration_ms" && v.Kind() == slog.KindInt64:
		return append(strconv.AppendInt(buf, v.Int64(), 10), "ms"...)
	case key == "result":
		res := strings.ToLower(strings.TrimSpace(v.String()))
		return h.paint(buf, resultColors[res], res)
	}
	return append(buf, quoteIfNeeded(v.String())...)
}

func (h *prettyHandler) levelTag(buf []byte, l slog.Level) []byte {
	switch {
	case l >= slog.LevelError:
		return h.paint(buf, ansiRed, "[ERROR]")
	case l >= slog.LevelWarn:
		return h.paint(buf, ansiYellow, "[WARN]")
	case l >= slog.LevelInfo:
		return h.paint(buf, ansiBlue, "[INFO]")
	default:
		return h.paint(buf, ansiPurple, "[DEBUG]")
	}
}

// paint appends s, wrapped in code when colors are on and code is set.
func (h *prettyHandler) paint(buf []byte, code, s string) []byte {
	if !h.color || code == "" {
		return append(buf, s...)
	}
	buf = append(buf, code...)
	buf = append(buf, s...)
	return append(buf, ansiReset...)
}

var resultColors = map[string]string{
	"success":      ansiGreen,
	"client_error": ansiYellow,
	"server_error": ansiRed,
}

func statusColor(code int) string {
	switch {
	case code >= 500:
		return ansiRed
	case code >= 400:
		return ansiYellow
	case code >= 300:
		return ansiCyan
	}
	return ansiGreen
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
