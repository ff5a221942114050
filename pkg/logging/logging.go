package logging

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileLogger writes JSON log lines to the given path while mirroring
// warnings and above to stderr. The returned file is owned by the caller.
func FileLogger(level logrus.Level, logPath string) (*os.File, *logrus.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&stderrHook{
		writer: os.Stderr,
		levels: []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
			logrus.WarnLevel,
		},
	})
	return f, logger, nil
}

// ConsoleLogger is used by tests and one-off commands.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

type stderrHook struct {
	writer *os.File
	levels []logrus.Level
}

func (h *stderrHook) Levels() []logrus.Level {
	return h.levels
}

func (h *stderrHook) Fire(entry *logrus.Entry) error {
	line, err := (&logrus.TextFormatter{FullTimestamp: true}).Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}
