package logger

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the logging contract the rest of the repo depends on.
// Printf exists so the instance can be handed to fasthttp as its Logger.
type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(msg string, values ...any)
	Fatal(err error, values ...any)
	Printf(format string, args ...any)
}

type zapLogger struct {
	log *zap.SugaredLogger
}

var instance *zapLogger

func init() {
	var cfg zap.Config
	if os.Getenv("LOG_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if _, err := Init(cfg); err != nil {
		panic(err)
	}
}

// Init builds the process-wide logger from a zap config. The caller skip of 2
// keeps call sites pointing at the code that logged, not this wrapper.
func Init(cfg zap.Config) (Logger, error) {
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	l = l.WithOptions(zap.AddCallerSkip(2))
	instance = &zapLogger{log: l.Sugar()}
	return instance, nil
}

func GetLogger() Logger {
	if instance == nil {
		panic("logger not initialized")
	}
	return instance
}

// Sync flushes buffered entries. Call it on shutdown.
func Sync() {
	if instance != nil {
		instance.log.Sync() //nolint
	}
}

func Info(msg string, values ...any)  { GetLogger().Info(msg, values...) }
func Warn(msg string, values ...any)  { GetLogger().Warn(msg, values...) }
func Error(msg string, values ...any) { GetLogger().Error(msg, values...) }
func Debug(msg string, values ...any) { GetLogger().Debug(msg, values...) }
func Panic(msg string, values ...any) { GetLogger().Panic(msg, values...) }
func Fatal(err error, values ...any)  { GetLogger().Fatal(err, values...) }

func (l *zapLogger) Info(msg string, values ...any)  { l.log.Infow(msg, values...) }
func (l *zapLogger) Warn(msg string, values ...any)  { l.log.Warnw(msg, values...) }
func (l *zapLogger) Error(msg string, values ...any) { l.log.Errorw(msg, values...) }
func (l *zapLogger) Debug(msg string, values ...any) { l.log.Debugw(msg, values...) }
func (l *zapLogger) Panic(msg string, values ...any) { l.log.Panicw(msg, values...) }
func (l *zapLogger) Fatal(err error, values ...any)  { l.log.Fatalw(err.Error(), values...) }

func (l *zapLogger) Printf(format string, args ...any) { l.log.Infof(format, args...) }
