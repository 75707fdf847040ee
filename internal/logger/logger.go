// Package logger builds the process wide zap logger.
package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger at debug level for env "dev" and a JSON
// logger at info level otherwise.  The logger also replaces zap's
// globals and the standard library logger so stray log.Printf calls end
// up in the same stream.
func New(env string) *zap.Logger {
	var (
		encoder zapcore.Encoder
		level   = zapcore.InfoLevel
	)
	if env == "dev" || env == "" {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
		level = zapcore.DebugLevel
	} else {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	logger := zap.New(core, zap.AddCaller()).With(zap.String("env", envOrDev(env)))

	zap.ReplaceGlobals(logger)
	log.SetOutput(zap.NewStdLog(logger).Writer())

	return logger
}

func envOrDev(env string) string {
	if env == "" {
		return "dev"
	}
	return env
}
