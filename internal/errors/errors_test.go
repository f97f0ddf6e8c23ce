package errors

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"plain error", fmt.Errorf("remote unavailable"), "Error: remote unavailable"},
		{"wrapped error", fmt.Errorf("sync: %w", fmt.Errorf("timeout")), "Error: sync: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("unknown task %q", "fajr2")
	want := `Error: unknown task "fajr2"`
	if got != want {
		t.Errorf("Formatf() = %q, want %q", got, want)
	}
}

func TestFormatRemoteTimeout(t *testing.T) {
	err := fmt.Errorf("sync failed: %w", context.DeadlineExceeded)
	got := Format(err)
	if !strings.HasPrefix(got, "Error: sync failed: context deadline exceeded\n  ") {
		t.Errorf("unexpected format %q", got)
	}
	if Hint(fmt.Errorf("plain")) != "" {
		t.Error("expected no hint for a plain error")
	}
	if Hint(context.Canceled) == "" {
		t.Error("expected a hint for cancellation")
	}
}
