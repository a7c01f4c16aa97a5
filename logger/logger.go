package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdout carries the CodeGeneratorResponse, so logs never go there.
type fileSink struct {
	fd *os.File
}

func (c fileSink) Write(p []byte) (n int, err error) {
	return c.fd.Write(p)
}

func (c fileSink) Sync() error {
	return c.fd.Sync()
}

func levelFromEnv() zapcore.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zapcore.WarnLevel
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.WarnLevel
	}
	return level
}

func sinkFromEnv() *os.File {
	logPath := os.Getenv("LOG_FILE")
	if logPath == "" {
		return os.Stderr
	}
	// truncated on every run
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

// New builds the console logger used by the plugin.
func New(fd *os.File, level zapcore.Level) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zap.New(zapcore.NewCore(enc, &fileSink{fd: fd}, level)).Named("protoc-gen-go-micropb")
}

var Logger = New(sinkFromEnv(), levelFromEnv())

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}
