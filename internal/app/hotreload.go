package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HotReloader watches the running binary and calls back once when a newer
// build replaces it. Development aid only: a restart drops all tracker state.
type HotReloader struct {
	execPath    string
	startupTime time.Time

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	onNewBinary func()
	fired       bool
	done        chan struct{}
}

// NewHotReloader creates a hot reloader for the current executable.
func NewHotReloader() (*HotReloader, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	// go build writes a new file; follow symlinks to the real one.
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}
	return NewHotReloaderFor(execPath)
}

// NewHotReloaderFor watches an arbitrary file path.
func NewHotReloaderFor(path string) (*HotReloader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &HotReloader{
		execPath:    path,
		startupTime: info.ModTime(),
	}, nil
}

// OnNewBinary sets the callback invoked when a newer binary appears.
// It runs on the watcher goroutine.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.mu.Lock()
	h.onNewBinary = callback
	h.mu.Unlock()
}

// Start begins watching the binary's directory.
func (h *HotReloader) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: the linker replaces the file rather than writing it.
	if err := w.Add(filepath.Dir(h.execPath)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(h.execPath), err)
	}

	h.mu.Lock()
	h.watcher = w
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go h.watchLoop(w, done)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (h *HotReloader) Stop() error {
	h.mu.Lock()
	w := h.watcher
	h.watcher = nil
	done := h.done
	h.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

func (h *HotReloader) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != h.execPath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if h.checkForUpdate() {
				h.fire()
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (h *HotReloader) fire() {
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	cb := h.onNewBinary
	h.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// checkForUpdate returns true if the binary has been modified since startup.
func (h *HotReloader) checkForUpdate() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(h.startupTime)
}

// ExecPath returns the watched path.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// StartupTime returns the binary's modification time when watching began.
func (h *HotReloader) StartupTime() time.Time {
	return h.startupTime
}

// Restart replaces the current process with the new binary.
// It does not return on success.
func (h *HotReloader) Restart() error {
	return RestartProcess(h.execPath)
}

// RestartProcess execs execPath with the current arguments and environment.
func RestartProcess(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
