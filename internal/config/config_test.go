package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// testOptions mirrors the shape of the application's options.
type testOptions struct {
	Config string `help:"Config file path"`

	RunServerCommand string   `toml:"minecraft.run_server_command" env:"RUN_SERVER_COMMAND"`
	SaveCoolTime     float64  `toml:"minecraft.save_cool_time" env:"SAVE_COOL_TIME"`
	APIEnabled       bool     `toml:"server.api_enabled" env:"API_ENABLED"`
	NotifyQueueSize  int      `toml:"notify.queue_size" env:"NOTIFY_QUEUE_SIZE"`
	Tags             []string `toml:"server.tags" env:"TAGS"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[minecraft]
run_server_command = "java -jar server.jar nogui"
save_cool_time = 90.5

[server]
api_enabled = true
tags = ["survival", "modded"]

[notify]
queue_size = 32
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:           path,
		RunServerCommand: "java -jar server.jar nogui",
		SaveCoolTime:     90.5,
		APIEnabled:       true,
		NotifyQueueSize:  32,
		Tags:             []string{"survival", "modded"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("opts = %+v, want %+v", *opts, want)
	}
}

func TestLoadConfigIntegerIntoFloat(t *testing.T) {
	path := writeConfig(t, "[minecraft]\nsave_cool_time = 60\n")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.SaveCoolTime != 60 {
		t.Errorf("SaveCoolTime = %v, want 60", opts.SaveCoolTime)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
[minecraft]
run_server_command = "toml command"
save_cool_time = 10

[notify]
queue_size = 8
`)
	t.Setenv("MCSUPERVISOR_RUN_SERVER_COMMAND", "env command")
	t.Setenv("MCSUPERVISOR_SAVE_COOL_TIME", "2.5")
	t.Setenv("MCSUPERVISOR_TAGS", " a , b ")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.RunServerCommand != "env command" {
		t.Errorf("RunServerCommand = %q, want env override", opts.RunServerCommand)
	}
	if opts.SaveCoolTime != 2.5 {
		t.Errorf("SaveCoolTime = %v, want 2.5", opts.SaveCoolTime)
	}
	if opts.NotifyQueueSize != 8 {
		t.Errorf("NotifyQueueSize = %d, want 8 from TOML", opts.NotifyQueueSize)
	}
	if !reflect.DeepEqual(opts.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v", opts.Tags)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), NotifyQueueSize: 64}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.NotifyQueueSize != 64 {
		t.Errorf("default overwritten: %d", opts.NotifyQueueSize)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[minecraft\ninvalid toml syntax\n")
	if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"minecraft": map[string]any{
			"echo_level": "WARN",
			"nested":     map[string]any{"value": "deep"},
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"minecraft.echo_level", "WARN"},
		{"minecraft.nested.value", "deep"},
		{"missing", nil},
		{"minecraft.missing", nil},
		{"root.child", nil},
	}

	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	s := &testOptions{}
	v := reflect.ValueOf(s).Elem()

	setFieldValueFromString(v.FieldByName("APIEnabled"), "true")
	setFieldValueFromString(v.FieldByName("NotifyQueueSize"), "12")
	setFieldValueFromString(v.FieldByName("SaveCoolTime"), "0.25")
	setFieldValueFromString(v.FieldByName("NotifyQueueSize"), "not a number")

	if !s.APIEnabled || s.NotifyQueueSize != 12 || s.SaveCoolTime != 0.25 {
		t.Errorf("opts = %+v", *s)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":             "port",
		"LoggingLevel":     "logging-level",
		"RunServerCommand": "run-server-command",
		"APIEnabled":       "api-enabled",
		"SlackWebhookURL":  "slack-webhook-url",
		"LoggingAPI":       "logging-api",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetFieldValueNumberIntoString(t *testing.T) {
	var opts struct {
		Cooldown string
		Timeout  string
	}
	v := reflect.ValueOf(&opts).Elem()
	setFieldValue(v.Field(0), int64(60))
	setFieldValue(v.Field(1), 2.5)

	if opts.Cooldown != "60" || opts.Timeout != "2.5" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
process = "debug"
notify = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	want := map[string]string{"process": "debug", "notify": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	if def := LoadLoggingConfig(""); def.Level != "info" || def.Format != "text" {
		t.Errorf("default = %+v", def)
	}
}

func TestLoadRuntime(t *testing.T) {
	path := writeConfig(t, `
[minecraft]
echo_level = "WARN"
save_cool_time = 1.5
run_server_command = "ignored here"
`)

	rt, err := LoadRuntime(path)
	if err != nil {
		t.Fatalf("LoadRuntime() error = %v", err)
	}
	if rt.EchoLevel != "WARN" {
		t.Errorf("EchoLevel = %q", rt.EchoLevel)
	}
	if got := rt.SaveCooldown(); got != 1500*time.Millisecond {
		t.Errorf("SaveCooldown() = %v, want 1.5s", got)
	}
}

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime(writeConfig(t, "[slack]\nwebhook_url = \"x\"\n"))
	if err != nil {
		t.Fatalf("LoadRuntime() error = %v", err)
	}
	if rt != DefaultRuntime() {
		t.Errorf("rt = %+v, want defaults", rt)
	}
}

func TestLoadRuntimeErrors(t *testing.T) {
	if _, err := LoadRuntime(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadRuntime(writeConfig(t, "[minecraft]\nsave_cool_time = -1\n")); err == nil {
		t.Error("expected error for negative cooldown")
	}
}
