package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (s *sender) SendMessage(text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	if s.fail[text] {
		return -1, errors.New("pipe closed")
	}
	return len(text) + 1, nil
}

func (s *sender) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestRelayForwardsLines(t *testing.T) {
	s := &sender{}
	err := Relay(context.Background(), strings.NewReader("list\nsay hello world\n\nstop"), s, testLogger())
	if err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	want := []string{"list", "say hello world", "", "stop"}
	got := s.got()
	if len(got) != len(want) {
		t.Fatalf("sent %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRelayContinuesAfterWriteFailure(t *testing.T) {
	s := &sender{fail: map[string]bool{"first": true}}
	if err := Relay(context.Background(), strings.NewReader("first\nsecond\n"), s, testLogger()); err != nil {
		t.Fatalf("Relay() error = %v", err)
	}
	if got := s.got(); len(got) != 2 || got[1] != "second" {
		t.Errorf("sent %q, want both lines attempted", got)
	}
}

func TestRelayStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Relay(ctx, pr, &sender{}, testLogger())
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Relay() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Relay did not return after cancel")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestRelayReturnsReadError(t *testing.T) {
	if err := Relay(context.Background(), failingReader{}, &sender{}, testLogger()); err == nil {
		t.Error("Relay() error = nil, want read error")
	}
}
