package fallback

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_ReloadsDatasetOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	if err := os.WriteFile(path, []byte(`[{"id":"1","name":"Ancien"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	idx := newTestIndex(t, "")
	if err := idx.Rebuild(d.Records()); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, ReloadOnChange(d, idx, zap.NewNop()), WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`[{"id":"1","name":"Ancien"},{"id":"2","name":"Nouveau"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return d.Len() == 2 })
	waitFor(t, 2*time.Second, func() bool {
		n, _ := idx.DocCount()
		return n == 2
	})
}

func TestWatcher_DebouncesBurstsAndIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	if err := os.WriteFile(path, []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`[]`), 0600); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 })
	time.Sleep(250 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times, want 1", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	w := NewWatcher(path, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
