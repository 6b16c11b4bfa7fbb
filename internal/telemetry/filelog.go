// Package telemetry writes the flat, append-only telemetry log that mirrors
// the structured telemetry store.
package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FileLog appends one JSON object per line:
// {"timestamp": ..., "level": ..., "message": ..., "data": {...}}.
type FileLog struct {
	log    *logrus.Logger
	closer io.Closer
	mu     sync.Mutex
}

func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	fl := NewFileLog(f)
	fl.closer = f
	return fl, nil
}

// NewFileLog writes to w; the caller keeps ownership of w.
func NewFileLog(w io.Writer) *FileLog {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		DataKey:         "data",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyLevel: "level",
		},
	})
	return &FileLog{log: l}
}

// Write records one line. level is "INFO" or "ERROR"; anything else is INFO.
func (f *FileLog) Write(level, message string, data map[string]any) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.log.WithFields(logrus.Fields(data))
	if level == "ERROR" {
		e.Error(message)
		return
	}
	e.Info(message)
}

func (f *FileLog) Close() error {
	if f == nil || f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
