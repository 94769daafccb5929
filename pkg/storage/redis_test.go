package storage

import (
	"errors"
	"testing"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
)

func TestRedisKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		path   string
		want   string
	}{
		{"bare name", "powerlog:", "powerlog-20240101-120000.dat", "powerlog:powerlog-20240101-120000.dat"},
		{"nested path", "powerlog:", "/var/log/pm/powerlog-20240101-120000.dat", "powerlog:powerlog-20240101-120000.dat"},
		{"custom prefix", "telemetry/", "out.dat", "telemetry/out.dat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redisKey(tt.prefix, tt.path); got != tt.want {
				t.Errorf("redisKey(%q, %q) = %q, want %q", tt.prefix, tt.path, got, tt.want)
			}
		})
	}
}

func TestRedisTargetNilClient(t *testing.T) {
	target := NewRedisTargetWithConfig(RedisConfig{})

	err := target.Open("out.dat")
	if err == nil {
		t.Fatal("Open with nil client should fail")
	}
	if !errors.Is(err, commonerrors.ErrInvalidConfiguration) {
		t.Errorf("Open error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRedisTargetNotOpen(t *testing.T) {
	target := NewRedisTarget(nil)

	if _, err := target.Write([]byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Write before Open = %v, want ErrNotOpen", err)
	}
	if err := target.Sync(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Sync before Open = %v, want ErrNotOpen", err)
	}
	if err := target.Close(); err != nil {
		t.Errorf("Close on unopened target = %v, want nil", err)
	}
}

func TestRedisTargetDefaults(t *testing.T) {
	target := NewRedisTargetWithConfig(RedisConfig{})

	if target.config.KeyPrefix != "powerlog:" {
		t.Errorf("default KeyPrefix = %q, want %q", target.config.KeyPrefix, "powerlog:")
	}
	if target.config.OpTimeout != DefaultRedisConfig().OpTimeout {
		t.Errorf("default OpTimeout = %v, want %v", target.config.OpTimeout, DefaultRedisConfig().OpTimeout)
	}
}
