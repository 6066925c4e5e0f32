// Package cleanup runs the shutdown hooks of the process: writing the
// settings and the workspace, closing the log file.
package cleanup

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sppas/phoenix/internal/logger"
)

type hook struct {
	name string
	fn   func() error
}

var (
	mu    sync.Mutex
	hooks []hook
)

// Register adds a named hook. Hooks run in reverse order of registration.
func Register(name string, fn func() error) {
	if fn == nil {
		return
	}
	mu.Lock()
	hooks = append(hooks, hook{name: name, fn: fn})
	mu.Unlock()
}

// RunAll runs and forgets every hook. A failing hook does not stop the
// others; their errors are joined.
func RunAll() error {
	mu.Lock()
	local := hooks
	hooks = nil
	mu.Unlock()

	var errs []error
	for i := len(local) - 1; i >= 0; i-- {
		h := local[i]
		if err := h.fn(); err != nil {
			logger.Warn("Shutdown step failed", "step", h.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		logger.Debug("Shutdown step done", "step", h.name)
	}
	return errors.Join(errs...)
}
