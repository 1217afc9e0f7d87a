package autoinvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names are inherited from the original data layout so an existing
// investments directory remains usable.
const (
	mainCacheFilename     = "investment-history-cache-main.json"
	progressCacheFilename = "investment-history-cache-progress.json"
)

// ErrEmptyCache is returned by PopNext when the progress cache has no entry
// left. The engine checks IsEmpty before popping; hitting this error is an
// invariant violation.
var ErrEmptyCache = errors.New("order cache is empty")

// OrderCache is the durable pair of files tracking the current cycle:
//
//   - the main cache holds the full batch, written once when the cycle is
//     seeded and used as the record of the original intent;
//   - the progress cache starts identical and shrinks by one line per
//     successful pop.
//
// The progress cache is persisted before PopNext returns, so a crash after
// the return cannot resurrect the popped order on resume.
type OrderCache struct {
	dir string
}

// NewOrderCache returns a cache persisting under the given directory.
func NewOrderCache(dir string) *OrderCache { return &OrderCache{dir: dir} }

func (c *OrderCache) mainPath() string     { return filepath.Join(c.dir, mainCacheFilename) }
func (c *OrderCache) progressPath() string { return filepath.Join(c.dir, progressCacheFilename) }

// Seed overwrites both caches with the given batch. The main cache is
// written first so the progress cache never holds a line the main cache
// lacks.
func (c *OrderCache) Seed(b *Batch) error {
	if err := c.store(c.mainPath(), b); err != nil {
		return fmt.Errorf("seeding main cache: %w", err)
	}
	if err := c.store(c.progressPath(), b); err != nil {
		return fmt.Errorf("seeding progress cache: %w", err)
	}
	return nil
}

// IsEmpty returns true iff the progress cache has no line left.
func (c *OrderCache) IsEmpty() (bool, error) {
	b, err := c.load(c.progressPath())
	if err != nil {
		return false, err
	}
	return b.IsEmpty(), nil
}

// PopNext removes the next line from the progress cache, durably persisting
// the removal before returning it. The selection order is the persisted file
// order.
func (c *OrderCache) PopNext() (Line, error) {
	b, err := c.load(c.progressPath())
	if err != nil {
		return Line{}, err
	}
	line, ok := b.PopFirst()
	if !ok {
		return Line{}, ErrEmptyCache
	}
	if err := c.store(c.progressPath(), b); err != nil {
		return Line{}, fmt.Errorf("persisting pop of %q: %w", line.Symbol, err)
	}
	return line, nil
}

// SnapshotMain reads the full original batch for the current cycle.
func (c *OrderCache) SnapshotMain() (*Batch, error) {
	return c.load(c.mainPath())
}

// SnapshotProgress reads the remaining worklist. Used for status reporting
// and tests; the engine itself drains through PopNext.
func (c *OrderCache) SnapshotProgress() (*Batch, error) {
	return c.load(c.progressPath())
}

// Clear resets both caches to empty. The progress cache is cleared first so
// it never holds a line the main cache lacks.
func (c *OrderCache) Clear() error {
	if err := c.store(c.progressPath(), NewBatch()); err != nil {
		return fmt.Errorf("clearing progress cache: %w", err)
	}
	if err := c.store(c.mainPath(), NewBatch()); err != nil {
		return fmt.Errorf("clearing main cache: %w", err)
	}
	return nil
}

// load reads a batch file; a missing file is an empty batch.
func (c *OrderCache) load(path string) (*Batch, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBatch(), nil
	}
	if err != nil {
		return nil, err
	}
	b := NewBatch()
	if err := json.Unmarshal(content, b); err != nil {
		return nil, fmt.Errorf("corrupt cache file %q: %w", path, err)
	}
	return b, nil
}

// store writes a batch file atomically (temp file then rename) so a crash
// mid-write cannot leave a half-written cache.
func (c *OrderCache) store(path string, b *Batch) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	content, err := json.Marshal(b)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".cache-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
