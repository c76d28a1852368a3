package serverlog

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyMatched(t *testing.T) {
	c := MustClassifier("")

	tests := []struct {
		raw     string
		thread  string
		level   Severity
		message string
	}{
		{"[12:00:01] [Server thread/INFO]: Alice joined the game", "Server thread", SeverityInfo, "Alice joined the game"},
		{"[23:59:59] [Server Watchdog/WARN]: Can't keep up!", "Server Watchdog", SeverityWarn, "Can't keep up!"},
		{"[00:00:00] [Worker-Main-2/ERROR]: ", "Worker-Main-2", SeverityError, ""},
		{"[01:02:03] [User Authenticator #1/INFO]: UUID of player Bob is 1234", "User Authenticator #1", SeverityInfo, "UUID of player Bob is 1234"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			line := c.Classify(tt.raw, SourceStdout)
			m, ok := line.Matched()
			if !ok {
				t.Fatalf("expected match for %q", tt.raw)
			}
			if m.Thread != tt.thread {
				t.Errorf("thread = %q, want %q", m.Thread, tt.thread)
			}
			if m.Level != tt.level {
				t.Errorf("level = %v, want %v", m.Level, tt.level)
			}
			if line.Message() != tt.message {
				t.Errorf("message = %q, want %q", line.Message(), tt.message)
			}
			if line.Severity() != tt.level {
				t.Errorf("Severity() = %v, want %v", line.Severity(), tt.level)
			}

			rebuilt := fmt.Sprintf("[%s:%s:%s] [%s/%s]: %s", m.Hour, m.Minute, m.Second, m.Thread, m.Level, m.Message)
			if rebuilt != tt.raw {
				t.Errorf("round trip = %q, want %q", rebuilt, tt.raw)
			}
		})
	}
}

func TestClassifyUnmatched(t *testing.T) {
	c := MustClassifier("")

	tests := []string{
		"",
		"Starting net.minecraft.server.Main",
		"[12:00:01] [Server thread/DEBUG]: not a server level",
		"[12:00:01] [Server thread/info]: lowercase level",
		"prefix [12:00:01] [Server thread/INFO]: not at start",
		"[1:00:01] [Server thread/INFO]: short hour",
		"\tat java.lang.Thread.run(Thread.java:833)",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			line := c.Classify(raw, SourceStderr)
			if _, ok := line.Matched(); ok {
				t.Fatalf("unexpected match for %q", raw)
			}
			if line.Severity() != SeverityUnknown {
				t.Errorf("severity = %v, want UNKNOWN", line.Severity())
			}
			if line.Message() != raw {
				t.Errorf("message = %q, want raw line", line.Message())
			}
			u, ok := line.Result.(Unmatched)
			if !ok || u.Text != raw {
				t.Errorf("result = %#v, want Unmatched{%q}", line.Result, raw)
			}
			if line.Source != SourceStderr {
				t.Errorf("source = %q, want stderr", line.Source)
			}
		})
	}
}

func TestClassifyCustomPattern(t *testing.T) {
	// Paper-style output with a date prefix.
	pattern := `\d{4}-\d{2}-\d{2} (?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2}) ` +
		`(?P<level>INFO|WARN|ERROR|DEBUG) \[(?P<thread>[^\]]+)\] (?P<message>.*)`
	c, err := NewClassifier(pattern)
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}

	line := c.Classify("2024-05-01 08:15:00 WARN [main] Low memory", SourceStdout)
	m, ok := line.Matched()
	if !ok {
		t.Fatal("expected match")
	}
	if m.Hour != "08" || m.Minute != "15" || m.Second != "00" {
		t.Errorf("time = %s:%s:%s, want 08:15:00", m.Hour, m.Minute, m.Second)
	}
	if m.Thread != "main" || m.Level != SeverityWarn || m.Message != "Low memory" {
		t.Errorf("unexpected fields %#v", m)
	}

	// DEBUG passes the custom pattern but is not a server level.
	debug := c.Classify("2024-05-01 08:15:00 DEBUG [main] verbose", SourceStdout)
	if _, ok := debug.Matched(); ok {
		t.Error("DEBUG line should be unmatched")
	}

	if c.Pattern() != pattern {
		t.Errorf("Pattern() = %q", c.Pattern())
	}
}

func TestNewClassifierErrors(t *testing.T) {
	_, err := NewClassifier(`(?P<hour>\d+) (?P<message>.*)`)
	if !errors.Is(err, ErrMissingGroup) {
		t.Errorf("missing groups: error = %v, want ErrMissingGroup", err)
	}

	if _, err := NewClassifier(`(?P<hour>[`); err == nil {
		t.Error("invalid regexp: expected error")
	}
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityInfo, SeverityWarn, SeverityError, SeverityUnknown}
	for i, lower := range ordered {
		for j, higher := range ordered {
			if got, want := higher.AtLeast(lower), j >= i; got != want {
				t.Errorf("%v.AtLeast(%v) = %v, want %v", higher, lower, got, want)
			}
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"INFO", SeverityInfo},
		{"info", SeverityInfo},
		{"Warning", SeverityWarn},
		{"WARN", SeverityWarn},
		{" error ", SeverityError},
		{"unknown", SeverityUnknown},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if err != nil {
			t.Errorf("ParseSeverity(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSeverity("verbose"); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("ParseSeverity(verbose) error = %v, want ErrInvalidSeverity", err)
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter(SeverityWarn)
	if f.Allows(SeverityInfo) {
		t.Error("WARN filter should drop INFO")
	}
	if !f.Allows(SeverityWarn) || !f.Allows(SeverityError) {
		t.Error("WARN filter should pass WARN and ERROR")
	}
	if !f.Allows(SeverityUnknown) {
		t.Error("UNKNOWN always passes")
	}

	f.Set(SeverityUnknown)
	if f.Allows(SeverityError) {
		t.Error("UNKNOWN filter should drop ERROR")
	}
	if f.Minimum() != SeverityUnknown {
		t.Errorf("Minimum() = %v", f.Minimum())
	}

	var nilFilter *Filter
	if !nilFilter.Allows(SeverityInfo) {
		t.Error("nil filter allows everything")
	}
}
