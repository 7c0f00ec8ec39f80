package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Counter is a monotonically increasing sequence persisted to a file. The
// in-process mutex serialises concurrent requests; the file lock serialises
// concurrent processes. The value is written atomically via rename.
type Counter struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewCounter constructs a counter stored at path.
func NewCounter(path string) *Counter {
	return &Counter{path: path, lock: flock.New(path + ".lock")}
}

// Next increments and returns the sequence value.
func (c *Counter) Next() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock counter: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()

	value, err := c.read()
	if err != nil {
		return 0, err
	}
	value++
	if err := c.write(value); err != nil {
		return 0, err
	}
	return value, nil
}

func (c *Counter) read() (uint64, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %q: %w", text, err)
	}
	return value, nil
}

func (c *Counter) write(value uint64) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("ensure counter dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(value, 10)), 0o644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("commit counter: %w", err)
	}
	return nil
}
