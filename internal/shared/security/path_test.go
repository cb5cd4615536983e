package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithin(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		elems   []string
		wantErr error
	}{
		{name: "file", elems: []string{"results.json"}},
		{name: "nested", elems: []string{"batch", "results.json"}},
		{name: "cleaned", elems: []string{"batch", "..", "results.json"}},
		{name: "parent", elems: []string{".."}, wantErr: ErrPathEscape},
		{name: "escape", elems: []string{"..", "etc", "passwd"}, wantErr: ErrPathEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(base, tt.elems...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(got, base) {
				t.Fatalf("resolved path %s is outside %s", got, base)
			}
		})
	}

	if _, err := ResolveWithin(""); err == nil {
		t.Fatal("expected an error for an empty base")
	}
}

func TestCreateWithin(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	f, err := CreateWithin(dir, "results.json")
	if err != nil {
		t.Fatalf("CreateWithin returned error: %v", err)
	}
	if _, err := f.WriteString("[]"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	if err != nil || string(data) != "[]" {
		t.Fatalf("unexpected file contents %q (%v)", data, err)
	}

	if _, err := CreateWithin(dir, "../escape.json"); !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
}
