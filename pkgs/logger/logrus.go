package logger

import (
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// LogrusLogger is a Logger backed by sirupsen/logrus. When a log
// directory is configured it also writes namespaced, daily-rotated
// files via file-rotatelogs/lfshook, leaving stdout as a
// human-readable tee.
type LogrusLogger struct {
	entry *logrus.Entry
}

// New creates a LogrusLogger that writes to stdout. When logDir is
// non-empty, entries are additionally rotated to
// "<logDir>/gitsocial.%Y%m%d.log" via lfshook.
func New(logDir string) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	if logDir != "" {
		if writer, err := rotatelogs.New(
			logDir+"/gitsocial.%Y%m%d.log",
			rotatelogs.WithMaxAge(30*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		); err == nil {
			l.AddHook(lfshook.NewHook(lfshook.WriterMap{
				logrus.InfoLevel:  writer,
				logrus.WarnLevel:  writer,
				logrus.ErrorLevel: writer,
				logrus.DebugLevel: writer,
				logrus.FatalLevel: writer,
			}, &logrus.TextFormatter{FullTimestamp: true}))
		}
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) SetToDebug() { l.entry.Logger.SetLevel(logrus.DebugLevel) }
func (l *LogrusLogger) SetToInfo()  { l.entry.Logger.SetLevel(logrus.InfoLevel) }
func (l *LogrusLogger) SetToError() { l.entry.Logger.SetLevel(logrus.ErrorLevel) }

// Module returns a logger namespaced under ns, as a sub-field on every
// subsequent entry.
func (l *LogrusLogger) Module(ns string) Logger {
	return &LogrusLogger{entry: l.entry.WithField("module", ns)}
}

func fields(keyValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keyValues[i+1]
	}
	return f
}

func (l *LogrusLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *LogrusLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(msg)
}

func (l *LogrusLogger) Warn(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Warn(msg)
}
