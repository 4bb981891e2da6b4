// Package filesystem discovers importable files in a local folder and
// reports changes to them as they happen.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/marginalia/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before its change is emitted.
const DefaultDebounce = 250 * time.Millisecond

// ErrClosed is returned when a closed connector is asked to watch.
var ErrClosed = errors.New("filesystem connector closed")

// ChangeType classifies a file change.
type ChangeType int

// Change types.
const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the string representation.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one file event under the root.
type Change struct {
	Type ChangeType
	Path string
}

// Option configures a Connector.
type Option func(*Connector)

// WithFilter restricts the connector to files the filter accepts.
// The filter is given the full path; it must not touch the disk, since
// deleted files are filtered too.
func WithFilter(accept func(path string) bool) Option {
	return func(c *Connector) {
		c.accept = accept
	}
}

// WithDebounce sets the quiet period before a change is emitted.
// Zero emits every event as it arrives.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		c.debounce = d
	}
}

// Connector scans and watches one folder tree. Hidden files and folders are skipped.
type Connector struct {
	rootPath string
	accept   func(path string) bool
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath: rootPath,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the watched folder.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

// Scan returns every accepted file under the root, sorted.
func (c *Connector) Scan(ctx context.Context) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if c.accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch reports changes under the root until ctx is cancelled or the
// connector is closed. The channel is closed when watching stops.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher

	changes := make(chan Change)
	go c.run(ctx, watcher, changes)
	return changes, nil
}

// Close stops any active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Connector) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Change) {
	defer close(out)

	pending := make(map[string]Change)
	var order []string

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	send := func(change Change) bool {
		select {
		case out <- change:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				c.watchNewDir(watcher, event.Name)
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			if c.debounce <= 0 {
				if !send(*change) {
					return
				}
				continue
			}
			if prev, seen := pending[change.Path]; seen {
				pending[change.Path] = mergeChanges(prev, *change)
			} else {
				pending[change.Path] = *change
				order = append(order, change.Path)
			}
			timer.Reset(c.debounce)

		case <-timer.C:
			for _, path := range order {
				if !send(pending[path]) {
					return
				}
			}
			pending = make(map[string]Change)
			order = order[:0]

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error under %s: %v", c.rootPath, err)
		}
	}
}

// handleFsEvent converts a raw event into a change, or nil when the event
// is irrelevant: directories, hidden or rejected files, and bare chmods.
func (c *Connector) handleFsEvent(event fsnotify.Event) *Change {
	if event.Name == "" || isHidden(relativeTo(c.rootPath, event.Name)) {
		return nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if !c.accepts(event.Name) {
			return nil
		}
		return &Change{Type: ChangeDeleted, Path: event.Name}
	}

	var changeType ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = ChangeUpdated
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if !c.accepts(event.Name) {
		return nil
	}
	return &Change{Type: changeType, Path: event.Name}
}

func (c *Connector) watchNewDir(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || isHidden(filepath.Base(path)) {
		return
	}
	if err := addTree(watcher, path); err != nil {
		logger.Warn("Cannot watch %s: %v", path, err)
	}
}

func (c *Connector) accepts(path string) bool {
	return c.accept == nil || c.accept(path)
}

// mergeChanges folds a later change for the same path into an earlier one.
// A file created and then written is still new.
func mergeChanges(prev, next Change) Change {
	if prev.Type == ChangeCreated && next.Type == ChangeUpdated {
		return prev
	}
	return next
}

// addTree watches root and every non-hidden folder below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
