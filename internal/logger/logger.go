// Package logger is the process-wide log. Lines go to stderr as
// "LEVEL\tmessage". Warnings always print; debug and info lines and
// section headers need --verbose.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type sink struct {
	w     zapcore.WriteSyncer
	sugar *zap.SugaredLogger
}

var (
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cur   atomic.Pointer[sink]
)

func init() { SetOutput(os.Stderr) }

func newSink(w io.Writer) *sink {
	enc := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	ws := zapcore.AddSync(w)
	return &sink{w: ws, sugar: zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level)).Sugar()}
}

// SetVerbose lowers the threshold to debug, or raises it back to warn.
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

func IsVerbose() bool { return level.Enabled(zapcore.DebugLevel) }

// SetOutput redirects every later line to w.
func SetOutput(w io.Writer) { cur.Store(newSink(w)) }

func Debug(format string, args ...any) { cur.Load().sugar.Debugf(format, args...) }
func Info(format string, args ...any)  { cur.Load().sugar.Infof(format, args...) }
func Warn(format string, args ...any)  { cur.Load().sugar.Warnf(format, args...) }

// Section prints a bare "=== name ===" header between phases of a verbose run.
func Section(name string) {
	if IsVerbose() {
		fmt.Fprintf(cur.Load().w, "\n=== %s ===\n", name)
	}
}

// Sync flushes buffered lines. Errors from syncing a terminal are ignored.
func Sync() { _ = cur.Load().sugar.Sync() }
