package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "trip-planner"

// New собирает zap-логгер. В debug пишет цветную консоль, иначе JSON
// с полями service и env для агрегатора логов
func New(level, env string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	if zapLevel == zapcore.DebugLevel {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return config.Build()
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeDuration = zapcore.MillisDurationEncoder

	fields := map[string]interface{}{"service": serviceName}
	if env != "" {
		fields["env"] = env
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLevel),
		Encoding:          "json",
		EncoderConfig:     encoder,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     fields,
		DisableStacktrace: zapLevel > zapcore.ErrorLevel,
	}
	return config.Build()
}
