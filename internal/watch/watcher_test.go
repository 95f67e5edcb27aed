// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type changeLog struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newChangeLog() *changeLog {
	return &changeLog{ch: make(chan struct{}, 64)}
}

func (c *changeLog) record(changed []string) {
	c.mu.Lock()
	c.calls = append(c.calls, changed)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *changeLog) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func (c *changeLog) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, cfg Config) (*Watcher, context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	// Let the event loop start before files change.
	time.Sleep(50 * time.Millisecond)
	return w, cancel, errCh
}

func stop(t *testing.T, cancel context.CancelFunc, errCh <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_ReportsTrackedFilesOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tracked := filepath.Join(dir, "src", "index.js")
	untracked := filepath.Join(dir, "src", "notes.txt")
	writeFile(t, tracked, "1")
	writeFile(t, untracked, "1")

	log := newChangeLog()
	_, cancel, errCh := startWatcher(t, Config{
		BaseDir:  dir,
		Files:    []string{tracked},
		OnChange: log.record,
	})

	writeFile(t, untracked, "2")
	writeFile(t, tracked, "2")
	log.wait(t)
	stop(t, cancel, errCh)

	for _, call := range log.snapshot() {
		if !slices.Equal(call, []string{"src/index.js"}) {
			t.Errorf("unexpected change set %v", call)
		}
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []string{filepath.Join(dir, "a.js"), filepath.Join(dir, "b.js"), filepath.Join(dir, "c.js")}
	for _, f := range files {
		writeFile(t, f, "0")
	}

	log := newChangeLog()
	_, cancel, errCh := startWatcher(t, Config{
		BaseDir:  dir,
		Files:    files,
		Debounce: 150 * time.Millisecond,
		OnChange: log.record,
	})

	for _, f := range files {
		writeFile(t, f, "1")
		time.Sleep(10 * time.Millisecond)
	}
	log.wait(t)
	time.Sleep(300 * time.Millisecond)
	stop(t, cancel, errCh)

	calls := log.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one coalesced notification, got %v", calls)
	}
	if !slices.Equal(calls[0], []string{"a.js", "b.js", "c.js"}) {
		t.Errorf("changed = %v", calls[0])
	}
}

func TestWatcher_Ignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := filepath.Join(dir, "gen", "out.js")
	src := filepath.Join(dir, "src.js")
	writeFile(t, gen, "0")
	writeFile(t, src, "0")

	log := newChangeLog()
	_, cancel, errCh := startWatcher(t, Config{
		BaseDir:  dir,
		Files:    []string{gen, src},
		Ignore:   []string{"gen/**"},
		OnChange: log.record,
	})

	writeFile(t, gen, "1")
	time.Sleep(100 * time.Millisecond)
	writeFile(t, src, "1")
	log.wait(t)
	stop(t, cancel, errCh)

	for _, call := range log.snapshot() {
		if slices.Contains(call, "gen/out.js") {
			t.Errorf("ignored path reported: %v", call)
		}
	}
}

func TestWatcher_SetFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a", "a.js")
	b := filepath.Join(dir, "b", "b.js")
	writeFile(t, a, "0")
	writeFile(t, b, "0")

	w, err := New(Config{BaseDir: dir, Files: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	if got := w.Dirs(); !slices.Equal(got, []string{filepath.Dir(a)}) {
		t.Errorf("Dirs() = %v", got)
	}

	if err := w.SetFiles([]string{b}); err != nil {
		t.Fatalf("SetFiles() error: %v", err)
	}
	if got := w.Files(); !slices.Equal(got, []string{b}) {
		t.Errorf("Files() = %v", got)
	}
	if got := w.Dirs(); !slices.Equal(got, []string{filepath.Dir(b)}) {
		t.Errorf("Dirs() = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("Run() on canceled context = %v", err)
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bad ignore glob", cfg: Config{BaseDir: t.TempDir(), Ignore: []string{"[oops"}}},
		{name: "negative debounce", cfg: Config{BaseDir: t.TempDir(), Debounce: -time.Second}},
		{name: "missing directory", cfg: Config{BaseDir: t.TempDir(), Files: []string{"/definitely/not/here/x.js"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	got := DefaultIgnores()
	if !slices.Contains(got, "**/node_modules/**") {
		t.Errorf("DefaultIgnores() = %v", got)
	}
	got[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() must return a copy")
	}
}
