package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	out     io.Writer
	closer  io.Closer
	mu      sync.Mutex
	enabled bool

	// only restricts output to these categories when non-empty
	only map[string]bool

	counters = make(map[string]int)
)

// Path returns ~/.config/luthier/debug.log
func Path() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "luthier", "debug.log")
}

// Enable starts debug logging to Path()
func Enable() error {
	return EnableAt(Path())
}

// EnableAt starts debug logging to logPath, truncating it
func EnableAt(logPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("debug log dir: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if !EnableWriter(f) {
		f.Close()
		return nil
	}
	mu.Lock()
	closer = f
	mu.Unlock()
	return nil
}

// EnableWriter sends the log to w. It reports false if logging was
// already on, in which case w is left unused.
func EnableWriter(w io.Writer) bool {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return false
	}
	out = w
	enabled = true
	write("debug", "=== Debug logging started ===")
	return true
}

// Only limits logging to the named categories. No names logs everything.
func Only(categories ...string) {
	mu.Lock()
	defer mu.Unlock()

	only = nil
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			if only == nil {
				only = make(map[string]bool)
			}
			only[c] = true
		}
	}
}

// Disable stops debug logging and forgets filters and counters
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}
	out = nil
	enabled = false
	only = nil
	counters = make(map[string]int)
}

// Enabled reports whether logging is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// write formats one line; mu must be held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := out.(*os.File); ok {
		f.Sync() // flush so lines survive a crash
	}
}

// Log writes a message under category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil {
		return
	}
	if only != nil && !only[category] && category != "debug" {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery logs only every nth call with the same category and format,
// for per-step playback events.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
