package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. pretty selects a colored console encoder,
// otherwise lines are JSON with millisecond timestamps.
func New(pretty bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewZapLogger(zapcore.AddSync(os.Stdout), pretty, lvl), nil
}

func baseEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeDuration = zapcore.SecondsDurationEncoder
	ec.TimeKey = "time"
	return ec
}

func jsonEncoder() zapcore.Encoder {
	ec := baseEncoderConfig()
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendInt64(t.UnixMilli())
	}
	return zapcore.NewJSONEncoder(ec)
}

func consoleEncoder() zapcore.Encoder {
	ec := baseEncoderConfig()
	ec.ConsoleSeparator = " "
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05 PM")
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func NewZapLogger(syncer zapcore.WriteSyncer, pretty bool, level zapcore.LevelEnabler) *zap.Logger {
	encoder := jsonEncoder()
	if pretty {
		encoder = consoleEncoder()
	}

	logger := zap.New(
		zapcore.NewCore(encoder, syncer, level),
		zap.AddStacktrace(zap.ErrorLevel),
	)

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return logger.With(
		zap.String("hostname", host),
		zap.Int("pid", os.Getpid()),
	)
}
