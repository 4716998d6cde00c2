package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Log(message string)
}

type fileLogger struct {
	mutex      sync.Mutex
	path       string
	fileWriter *bufio.Writer
	console    io.Writer
	now        func() time.Time
}

// NewFileLogger logs to the file specified by `path`. If the file is unavailable, writes to the console.
// Safe for concurrent use: every request is processed in its own goroutine and they all share one logger.
func NewFileLogger(path string) Logger {
	return &fileLogger{
		path:    path,
		console: os.Stdout,
		now:     time.Now,
	}
}

func (f *fileLogger) Log(message string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	line := f.format(message)
	if f.fileWriterReady() {
		_, err := f.fileWriter.WriteString(line)
		if err != nil {
			f.logErrorToConsole(err.Error())
			f.logMessageToConsole(line)
		}
		err = f.fileWriter.Flush()
		if err != nil {
			f.logErrorToConsole(err.Error())
		}
	} else {
		f.logMessageToConsole(line)
	}
}

func (f *fileLogger) format(message string) string {
	line := f.now().Format("2006-01-02 15:04:05.000") + " " + message
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return line
}

func (f *fileLogger) logErrorToConsole(message string) {
	_, _ = fmt.Fprintf(f.console, "Error: %s. Logging switched to console.\n", message)
}

func (f *fileLogger) logMessageToConsole(message string) {
	_, _ = fmt.Fprint(f.console, message)
}

func (f *fileLogger) fileWriterReady() bool {
	if f.fileWriter != nil {
		return true
	}
	if f.path == "" {
		return false
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		f.logErrorToConsole(err.Error())
		f.path = "" // don't retry on every message
		return false
	}
	f.fileWriter = bufio.NewWriter(file)
	return true
}

type nopLogger struct{}

// NewNopLogger discards everything. Useful in tests.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Log(string) {}
