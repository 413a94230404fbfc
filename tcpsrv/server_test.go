// File: tcpsrv/server_test.go

package tcpsrv

import (
	"context"
	"errors"
	"testing"

	"github.com/foliort/winasync/iocp"
)

func TestConfigValidateRequiresPort(t *testing.T) {
	cfg := Config{OnAccept: func(context.Context, *Conn) error { return nil }}
	if err := cfg.validate(); err == nil {
		t.Fatal("validate() = nil, want error for missing Port")
	}
}

func TestConfigValidateRequiresOnAccept(t *testing.T) {
	cfg := Config{Port: 8080}
	if err := cfg.validate(); err == nil {
		t.Fatal("validate() = nil, want error for missing OnAccept")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	if got := cfg.concurrentAccepts(); got != defaultConcurrentAccepts {
		t.Fatalf("concurrentAccepts() = %d, want %d", got, defaultConcurrentAccepts)
	}
	if got := cfg.backlog(); got != defaultBacklog {
		t.Fatalf("backlog() = %d, want %d", got, defaultBacklog)
	}
}

func TestConfigOverrides(t *testing.T) {
	cfg := Config{ConcurrentAccepts: 16, Backlog: 32}
	if got := cfg.concurrentAccepts(); got != 16 {
		t.Fatalf("concurrentAccepts() = %d, want 16", got)
	}
	if got := cfg.backlog(); got != 32 {
		t.Fatalf("backlog() = %d, want 32", got)
	}
}

func TestBuildReportsNotSupportedOffWindows(t *testing.T) {
	_, err := Build(context.Background(), nil, Config{
		Port:     8080,
		OnAccept: func(context.Context, *Conn) error { return nil },
	})
	if !errors.Is(err, iocp.ErrNotSupported) {
		t.Fatalf("Build() err = %v, want %v", err, iocp.ErrNotSupported)
	}
}
