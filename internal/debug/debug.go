package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnvVar names the environment variable holding the log path.
const EnvVar = "HELIX_DEBUG"

// DefaultPath is used by Init when no path is given.
const DefaultPath = "helix-debug.log"

var (
	logFile *os.File
	runID   = uuid.NewString()[:8]
	envOnce sync.Once
	mu      sync.Mutex
)

// Init initializes debug logging to the specified file path.
// If path is empty, uses DefaultPath in the current directory.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked(path)
}

// initLocked does the actual init work. Caller must hold mu.
func initLocked(path string) error {
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return nil
}

// Enabled reports whether messages are being written.
func Enabled() bool {
	fromEnv()
	mu.Lock()
	defer mu.Unlock()
	return logFile != nil
}

// RunID returns the id stamped on this process's log lines.
func RunID() string {
	return runID
}

// Close closes the debug log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// fromEnv opens the HELIX_DEBUG log the first time logging is attempted.
func fromEnv() {
	envOnce.Do(func() {
		path := os.Getenv(EnvVar)
		if path == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if logFile == nil {
			// a log that cannot be opened stays disabled
			_ = initLocked(path)
		}
	})
}

// Log writes a message to the debug log with a timestamp.
func Log(format string, args ...any) {
	fromEnv()
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(logFile, "[%s] [%s] %s\n", timestamp, runID, msg)
	logFile.Sync()
}

// Logf is an alias for Log.
func Logf(format string, args ...any) {
	Log(format, args...)
}
