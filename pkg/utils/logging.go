// Package utils reúne utilidades compartilhadas pelos binários.
package utils

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// Logger devolve o logger do processo. Com LOG_FILE definido, os eventos
// vão em JSON para o arquivo e para stdout ao mesmo tempo; sem LOG_FILE,
// usa a configuração de produção do zap.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		logger = build()
	})
	return logger
}

func build() *zap.Logger {
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		return production()
	}

	_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return production()
	}

	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel),
		zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	))
}

func production() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
