package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"user-registry-api/config"
)

const (
	appLogFile   = "app.log"
	errorLogFile = "error.log"
)

// New builds a JSON logger on stdout. With cfg.Dir set it also writes
// app.log (level and above) and error.log (errors only) into that directory.
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Dir != "" {
		if err = os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		appLog, _, err := zap.Open(filepath.Join(cfg.Dir, appLogFile))
		if err != nil {
			return nil, err
		}
		errLog, _, err := zap.Open(filepath.Join(cfg.Dir, errorLogFile))
		if err != nil {
			return nil, err
		}
		cores = append(cores,
			zapcore.NewCore(enc, appLog, level),
			zapcore.NewCore(enc, errLog, zapcore.ErrorLevel),
		)
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
