package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sjsage522/pricesheet/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(source string, err error)
	LogInfo(format string, args ...interface{})
}

// ErrorJournal appends per-source failures to a file and sends info
// messages to the structured logger.
type ErrorJournal struct {
	mu        sync.Mutex
	errorFile string
}

// NewErrorJournal creates a journal writing to errorFile. An empty path
// disables the file and errors only reach the structured logger.
func NewErrorJournal(errorFile string) *ErrorJournal {
	return &ErrorJournal{errorFile: errorFile}
}

// LogError logs an error to the journal file with source name and timestamp
func (l *ErrorJournal) LogError(source string, err error) {
	logger.ForScraper(source).Error().Err(err).Msg("source failed")
	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.errorFile); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if fileErr != nil {
		logger.Warn("cannot open error journal %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, source, err.Error())
}

// LogInfo logs an informational message
func (l *ErrorJournal) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
