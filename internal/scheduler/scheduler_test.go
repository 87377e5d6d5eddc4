package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegisterValidSpec(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.Register("budget-check", "0 */6 * * *", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestRegisterInvalidSpec(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.Register("broken", "not a cron spec", func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())

	if err := s.Register("noop", "@every 1h", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	s.Start()
	s.Stop()
}
