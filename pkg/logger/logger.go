package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It writes to stdout until SetupLogger runs.
var Log = logrus.New()

// SetupLogger 初始化日志配置: stdout plus a dated file under logs/
func SetupLogger() error {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(logrus.InfoLevel)
	return nil
}

// SetLevel parses a logrus level name, keeping the current level on bad input
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		Log.SetLevel(lvl)
	}
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	Log.Infof(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	Log.Warnf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	Log.Errorf(format, v...)
}

func WithError(err error) *logrus.Entry {
	return Log.WithError(err)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
