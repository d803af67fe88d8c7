package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

type Logger struct {
	fileLogger    *log.Logger
	closer        io.Closer
	stdout        io.Writer
	level         Level
	includeStdout bool
	component     string
	mu            *sync.Mutex
}

// New opens (or creates) the log file at filePath. An empty path
// disables the file output.
func New(filePath string, level Level, includeStdout bool) (*Logger, error) {
	if filePath == "" {
		return NewWithWriter(io.Discard, level, includeStdout), nil
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	l := NewWithWriter(f, level, includeStdout)
	l.closer = f
	return l, nil
}

// NewWithWriter logs to w instead of a file.
func NewWithWriter(w io.Writer, level Level, includeStdout bool) *Logger {
	return &Logger{
		fileLogger:    log.New(w, "", 0),
		stdout:        os.Stdout,
		level:         level,
		includeStdout: includeStdout,
		mu:            &sync.Mutex{},
	}
}

// Named returns a logger sharing l's outputs whose lines carry component.
func (l *Logger) Named(component string) *Logger {
	c := *l
	c.closer = nil
	c.component = component
	return &c
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) log(lvl Level, prefix string, format string, v ...interface{}) {
	if lvl < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	if l.component != "" {
		msg = "(" + l.component + ") " + msg
	}
	fullMsg := fmt.Sprintf("%s [%s] %s", timestamp, prefix, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.fileLogger.Println(fullMsg)

	// Debug stays out of the terminal so CLI output remains readable
	if l.includeStdout && lvl >= LevelInfo {
		fmt.Fprintln(l.stdout, fullMsg)
	}
}

func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, "DEBUG", f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, "INFO", f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, "WARN", f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, "ERROR", f, v...) }
func (l *Logger) Fatal(f string, v ...any) { l.log(LevelFatal, "FATAL", f, v...); os.Exit(1) }

func (l *Logger) Write(p []byte) (n int, err error) {
	// Echo and other libraries often include a newline at the end
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}
