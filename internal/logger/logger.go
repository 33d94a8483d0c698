// Package logger は zap をベースにしたロガーを提供します。
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ログレベル
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// New は指定レベルのコンソール出力ロガーを作成します。
// 未知のレベル文字列は info として扱います。
func New(level string) *zap.Logger {
	return zap.New(newConsoleCore(toZapLevel(level), zapcore.Lock(os.Stdout)))
}

// Nop は何も出力しないロガーを返します（テスト用）。
func Nop() *zap.Logger {
	return zap.NewNop()
}

func toZapLevel(level string) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newConsoleCore(level zapcore.Level, out zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), out, zap.NewAtomicLevelAt(level))
}
