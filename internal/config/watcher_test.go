package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startRuntimeWatcher(t *testing.T, path string, opts ...WatcherOption[Runtime]) *Watcher[Runtime] {
	t.Helper()
	opts = append([]WatcherOption[Runtime]{WithDebounce[Runtime](50 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, LoadRuntime, newTestLogger(), opts...)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[minecraft]\necho_level = \"INFO\"\n")

	received := make(chan Runtime, 1)
	w := NewConfigWatcher(path, LoadRuntime, newTestLogger(), WithDebounce[Runtime](50*time.Millisecond))
	w.OnReload(func(rt Runtime) { received <- rt })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("[minecraft]\necho_level = \"ERROR\"\nsave_cool_time = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case rt := <-received:
		if rt.EchoLevel != "ERROR" || rt.SaveCoolTime != 5 {
			t.Errorf("got %+v", rt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherReloadsOnRenameOver(t *testing.T) {
	path := writeConfig(t, "[minecraft]\necho_level = \"INFO\"\n")

	received := make(chan Runtime, 4)
	w := startRuntimeWatcher(t, path)
	w.OnReload(func(rt Runtime) { received <- rt })

	tmp := filepath.Join(filepath.Dir(path), ".config.toml.swp")
	if err := os.WriteFile(tmp, []byte("[minecraft]\necho_level = \"WARN\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case rt := <-received:
		if rt.EchoLevel != "WARN" {
			t.Errorf("EchoLevel = %q, want WARN", rt.EchoLevel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherDebounce(t *testing.T) {
	path := writeConfig(t, "[minecraft]\nsave_cool_time = 0\n")

	var loads atomic.Int32
	loader := func(p string) (Runtime, error) {
		loads.Add(1)
		return LoadRuntime(p)
	}

	received := make(chan Runtime, 10)
	w := NewConfigWatcher(path, loader, newTestLogger(), WithDebounce[Runtime](150*time.Millisecond))
	w.OnReload(func(rt Runtime) { received <- rt })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	for i := 1; i <= 5; i++ {
		content := []byte("[minecraft]\nsave_cool_time = " + string(rune('0'+i)) + "\n")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case rt := <-received:
		if rt.SaveCoolTime != 5 {
			t.Errorf("SaveCoolTime = %v, want the last write", rt.SaveCoolTime)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}

	time.Sleep(300 * time.Millisecond)
	if n := loads.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := writeConfig(t, "[minecraft]\nsave_cool_time = 1\n")

	errs := make(chan error, 1)
	w := startRuntimeWatcher(t, path, WithErrorHandler[Runtime](func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))
	w.OnReload(func(Runtime) { t.Error("handler called for invalid config") })

	if err := os.WriteFile(path, []byte("[minecraft\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := writeConfig(t, "[minecraft]\nsave_cool_time = 1\n")

	var first, second atomic.Int32
	done := make(chan struct{}, 1)
	w := startRuntimeWatcher(t, path)
	unsubscribe := w.OnReload(func(Runtime) { first.Add(1) })
	w.OnReload(func(Runtime) {
		second.Add(1)
		done <- struct{}{}
	})
	unsubscribe()

	if err := os.WriteFile(path, []byte("[minecraft]\nsave_cool_time = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
	if first.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
	if second.Load() != 1 {
		t.Errorf("second handler called %d times", second.Load())
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, "[minecraft]\nsave_cool_time = 1\n")

	var calls atomic.Int32
	w := startRuntimeWatcher(t, path)
	w.OnReload(func(Runtime) { calls.Add(1) })

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("handler called %d times for unrelated file", calls.Load())
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	w := NewConfigWatcher("unused.toml", LoadRuntime, newTestLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
