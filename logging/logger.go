package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	FATAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case FATAL:
		return zapcore.FatalLevel
	case ERROR:
		return zapcore.ErrorLevel
	case WARNING:
		return zapcore.WarnLevel
	case DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

var (
	mu     sync.RWMutex
	base   *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	quiet  bool
	steps  = make(map[Step]time.Time)
	stepMu sync.Mutex
)

func init() {
	base = newBase()
}

func newBase() *zap.Logger {
	conf := zap.NewDevelopmentConfig()
	conf.Level = level
	conf.DisableStacktrace = true
	conf.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.Stamp)
	l, err := conf.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger replaces the zap logger all component loggers write to.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func SetLevel(l Level) {
	level.SetLevel(l.zapLevel())
}

func SetQuiet(q bool) {
	mu.Lock()
	quiet = q
	mu.Unlock()
}

func Debugf(msg string, args ...interface{}) {
	current().Sugar().Debugf(msg, args...)
}

func Infof(msg string, args ...interface{}) {
	current().Sugar().Infof(msg, args...)
}

func Warnf(msg string, args ...interface{}) {
	current().Sugar().Warnf(msg, args...)
}

func Errorf(msg string, args ...interface{}) {
	current().Sugar().Errorf(msg, args...)
}

func Fatalf(msg string, args ...interface{}) {
	current().Sugar().Fatalf(msg, args...)
}

// Progress logs a progress message unless logging is quiet.
func Progress(msg string) {
	mu.RLock()
	q := quiet
	mu.RUnlock()
	if !q {
		current().Info(msg)
	}
}

type Logger struct {
	Component string
	fields    []zap.Field
}

func NewLogger(component string) *Logger {
	return &Logger{Component: component}
}

// With returns a copy of the logger that adds fields to every record.
func (l *Logger) With(fields ...zap.Field) *Logger {
	nl := &Logger{Component: l.Component}
	nl.fields = append(append(nl.fields, l.fields...), fields...)
	return nl
}

func (l *Logger) zap() *zap.Logger {
	z := current()
	if l.Component != "" {
		z = z.Named(l.Component)
	}
	if len(l.fields) > 0 {
		z = z.With(l.fields...)
	}
	return z
}

func (l *Logger) Print(args ...interface{}) {
	l.zap().Info(fmt.Sprint(args...))
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	l.zap().Info(fmt.Sprintf(msg, args...))
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	l.zap().Debug(fmt.Sprintf(msg, args...))
}

func (l *Logger) Fatal(args ...interface{}) {
	l.zap().Fatal(fmt.Sprint(args...))
}

func (l *Logger) Fatalf(msg string, args ...interface{}) {
	l.zap().Fatal(fmt.Sprintf(msg, args...))
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.zap().Error(fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(args ...interface{}) {
	l.zap().Warn(fmt.Sprint(args...))
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.zap().Warn(fmt.Sprintf(msg, args...))
}

type Step struct {
	Component string
	Name      string
}

func (l *Logger) StartStep(msg string) string {
	stepMu.Lock()
	steps[Step{l.Component, msg}] = time.Now()
	stepMu.Unlock()
	Progress(msg)
	return msg
}

func (l *Logger) StopStep(msg string) {
	step := Step{l.Component, msg}
	stepMu.Lock()
	startTime, ok := steps[step]
	delete(steps, step)
	stepMu.Unlock()
	if !ok {
		return
	}
	l.zap().Info(msg+" took: "+time.Since(startTime).String(),
		zap.Duration("duration", time.Since(startTime)))
}

// Shutdown flushes buffered records.
func Shutdown() {
	_ = current().Sync()
}
