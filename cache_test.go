package autoinvest

import (
	"errors"
	"testing"
)

func TestOrderCacheSeedAndReload(t *testing.T) {
	dir := t.TempDir()
	if err := NewOrderCache(dir).Seed(testBatch("VTI", 25, "AAPL", 10)); err != nil {
		t.Fatal(err)
	}

	// A fresh instance must see the seeded state: everything goes through
	// the files.
	c := NewOrderCache(dir)
	main, err := c.SnapshotMain()
	if err != nil {
		t.Fatal(err)
	}
	progress, err := c.SnapshotProgress()
	if err != nil {
		t.Fatal(err)
	}
	if !main.Equal(testBatch("VTI", 25, "AAPL", 10)) {
		t.Errorf("main after seed = %v", symbols(main))
	}
	if !progress.Equal(main) {
		t.Error("progress must equal main immediately after seeding")
	}
}

func TestOrderCachePopSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	if err := NewOrderCache(dir).Seed(testBatch("VTI", 25, "AAPL", 10, "BTC", 5)); err != nil {
		t.Fatal(err)
	}

	line, err := NewOrderCache(dir).PopNext()
	if err != nil {
		t.Fatal(err)
	}
	if line.Symbol != "VTI" || !line.Amount.Equal(USD(25)) {
		t.Fatalf("PopNext() = %v, want VTI $25.00", line)
	}

	// Simulate a crash right after the pop: a new instance must not see VTI
	// again.
	c := NewOrderCache(dir)
	progress, err := c.SnapshotProgress()
	if err != nil {
		t.Fatal(err)
	}
	if !progress.Equal(testBatch("AAPL", 10, "BTC", 5)) {
		t.Errorf("progress after restart = %v, want [AAPL BTC]", symbols(progress))
	}
	main, err := c.SnapshotMain()
	if err != nil {
		t.Fatal(err)
	}
	if !progress.SubsetOf(main) {
		t.Error("progress is not a subset of main")
	}
}

func TestOrderCachePopOrder(t *testing.T) {
	c := NewOrderCache(t.TempDir())
	if err := c.Seed(testBatch("VTI", 25, "AAPL", 10, "BTC", 5)); err != nil {
		t.Fatal(err)
	}
	want := []string{"VTI", "AAPL", "BTC"}
	for _, symbol := range want {
		line, err := c.PopNext()
		if err != nil {
			t.Fatal(err)
		}
		if line.Symbol != symbol {
			t.Errorf("PopNext() = %q, want %q", line.Symbol, symbol)
		}
	}
	if _, err := c.PopNext(); !errors.Is(err, ErrEmptyCache) {
		t.Errorf("PopNext() on empty cache = %v, want ErrEmptyCache", err)
	}
}

func TestOrderCacheEmptyOnMissingFiles(t *testing.T) {
	c := NewOrderCache(t.TempDir())
	empty, err := c.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("a cache with no files should be empty")
	}
	if _, err := c.PopNext(); !errors.Is(err, ErrEmptyCache) {
		t.Errorf("PopNext() = %v, want ErrEmptyCache", err)
	}
}

func TestOrderCacheClear(t *testing.T) {
	c := NewOrderCache(t.TempDir())
	if err := c.Seed(testBatch("VTI", 25)); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	empty, err := c.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("progress not empty after Clear")
	}
	main, err := c.SnapshotMain()
	if err != nil {
		t.Fatal(err)
	}
	if !main.IsEmpty() {
		t.Error("main not empty after Clear")
	}
}
