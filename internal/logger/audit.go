package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Audit log keys, shared with the history reader
const (
	AuditTimeKey    = "timestamp"
	AuditLevelKey   = "level"
	AuditMessageKey = "message"
)

// AuditConfig configures the rotating analysis audit log
type AuditConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AuditLogger writes one JSON line per analysis outcome
type AuditLogger struct {
	zl     *zap.Logger
	closer io.Closer
}

// NewAuditLogger opens a lumberjack-rotated audit log. An empty filename yields a no-op logger.
func NewAuditLogger(cfg AuditConfig) (*AuditLogger, error) {
	if cfg.Filename == "" {
		return &AuditLogger{zl: zap.NewNop()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o750); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return &AuditLogger{
		zl:     zap.New(newAuditCore(zapcore.AddSync(rotator))),
		closer: rotator,
	}, nil
}

// NewAuditLoggerWithWriter writes audit lines to w
func NewAuditLoggerWithWriter(w io.Writer) *AuditLogger {
	return &AuditLogger{zl: zap.New(newAuditCore(zapcore.AddSync(w)))}
}

func newAuditCore(ws zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = AuditTimeKey
	encCfg.LevelKey = AuditLevelKey
	encCfg.MessageKey = AuditMessageKey
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""

	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, zapcore.InfoLevel)
}

// Record writes an audit entry; failed entries are written at error level
func (a *AuditLogger) Record(msg string, failed bool, fields ...Field) {
	if failed {
		a.zl.Error(msg, toZap(fields)...)
		return
	}
	a.zl.Info(msg, toZap(fields)...)
}

// Close flushes and closes the underlying file
func (a *AuditLogger) Close() error {
	_ = a.zl.Sync()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
