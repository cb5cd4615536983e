// Package security keeps file output under the directory the operator chose.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
)

// ErrPathEscape is returned when a name would resolve outside its base
// directory.
var ErrPathEscape = errors.New("path escapes base directory")

// ResolveWithin joins elems under base and returns the absolute result,
// refusing anything that climbs out of base.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	target := filepath.Join(append([]string{root}, elems...)...)

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// CreateWithin creates (or truncates) name inside dir, creating dir first.
func CreateWithin(dir, name string) (*os.File, error) {
	path, err := ResolveWithin(dir, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePerm)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}
