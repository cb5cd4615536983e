package cmd

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitError(t *testing.T) {
	err := &ExitError{Code: ExitFileError, Err: errors.New("read security.txt: permission denied")}
	if err.Error() != "read security.txt: permission denied" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}

	silent := &ExitError{Code: ExitInvalid}
	if silent.Error() != "exit status 1" {
		t.Fatalf("unexpected error string: %s", silent.Error())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitValid},
		{name: "plain", err: errors.New("boom"), want: ExitInvalid},
		{name: "usage", err: usageError("missing %s", "file"), want: ExitUsage},
		{name: "wrapped", err: fmt.Errorf("check: %w", &ExitError{Code: ExitFileError}), want: ExitFileError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
