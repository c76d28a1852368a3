package config

import (
	"fmt"
	"os"
	"reflect"
	"time"
)

// Runtime is the part of the configuration applied while the server runs.
type Runtime struct {
	EchoLevel    string  `toml:"minecraft.echo_level"`
	SaveCoolTime float64 `toml:"minecraft.save_cool_time"`
}

// DefaultRuntime returns the values used when the file omits a key.
func DefaultRuntime() Runtime {
	return Runtime{
		EchoLevel:    "INFO",
		SaveCoolTime: 60,
	}
}

// SaveCooldown returns SaveCoolTime as a duration.
func (r Runtime) SaveCooldown() time.Duration {
	return Seconds(r.SaveCoolTime)
}

// LoadRuntime reads the reloadable keys from the TOML file at path.
func LoadRuntime(path string) (Runtime, error) {
	rt := DefaultRuntime()

	data, err := os.ReadFile(path)
	if err != nil {
		return rt, fmt.Errorf("read config: %w", err)
	}
	if err := applyTOML(reflect.ValueOf(&rt).Elem(), data, nil); err != nil {
		return rt, err
	}
	if rt.SaveCoolTime < 0 {
		return rt, fmt.Errorf("minecraft.save_cool_time must not be negative, got %v", rt.SaveCoolTime)
	}
	return rt, nil
}

// Seconds converts fractional seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
