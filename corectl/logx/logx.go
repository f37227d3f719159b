// Package logx is a hand-rolled, allocation-free logger: it writes each part
// directly with print rather than building a string with fmt/append, and
// optionally mirrors every line to a secondary UART sink. Grounded on the
// teacher's Logger (main.go), generalized from a single global into a
// reusable type with level-tagged lines (Warn/Error/Info) for corectl.
package logx

import (
	"github.com/jangala-dev/nodecore/x/shmring"
	"github.com/jangala-dev/nodecore/x/strconvx"
	"github.com/jangala-dev/nodecore/x/strx"
)

// Logger mirrors every message to the console and, if set, a ring-buffered
// UART sink. Accepts string|int|bool parts; no fmt.Sprintf on the log path.
// Zero value is usable; an unset Name falls back to "node" so a component
// that forgets to tag itself still produces attributable lines.
type Logger struct {
	mirror *shmring.Ring
	name   string
}

var nl = [...]byte{'\n'}

// SetMirror attaches a secondary sink (e.g. a log-mirror UART ring).
func (l *Logger) SetMirror(r *shmring.Ring) { l.mirror = r }

// SetName tags this logger's lines with a component name (e.g. "gateway").
func (l *Logger) SetName(name string) { l.name = name }

func (l *Logger) writeString(s string) {
	if s == "" {
		return
	}
	print(s)
	if l.mirror != nil {
		_ = l.mirror.TryWriteFrom([]byte(s))
	}
}

func (l *Logger) writePart(v any) {
	switch x := v.(type) {
	case string:
		l.writeString(x)
	case int:
		l.writeString(strconvx.Itoa(x))
	case int32:
		l.writeString(strconvx.Itoa(int(x)))
	case int64:
		l.writeString(strconvx.Itoa(int(x)))
	case uint8:
		l.writeString(strconvx.Itoa(int(x)))
	case uint32:
		l.writeString(strconvx.Itoa(int(x)))
	case uint64:
		l.writeString(strconvx.Itoa(int(x)))
	case bool:
		if x {
			l.writeString("true")
		} else {
			l.writeString("false")
		}
	default:
		l.writeString("?")
	}
}

func (l *Logger) print(tag string, parts ...any) {
	l.writeString(tag)
	l.writeString(strx.Coalesce(l.name, "node"))
	l.writeString(" ")
	for i := range parts {
		l.writePart(parts[i])
	}
	print("\n")
	if l.mirror != nil {
		_ = l.mirror.TryWriteFrom(nl[:])
	}
}

// Info logs a routine, non-actionable line.
func (l *Logger) Info(parts ...any) { l.print("[info] ", parts...) }

// Warn logs a degraded-but-continuing condition (spec status level Warning).
func (l *Logger) Warn(parts ...any) { l.print("[warn] ", parts...) }

// Error logs a condition that raised the status level to Attention.
func (l *Logger) Error(parts ...any) { l.print("[error] ", parts...) }
