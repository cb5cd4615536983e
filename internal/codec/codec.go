// Package codec renders check results as JSON or YAML and reads them back.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts the format names case-insensitively. "yml" is an
// alias for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want text, json or yaml)", apperrors.ErrInvalidInput, s)
}

// Encode writes v as indented JSON or as YAML. YAML output mirrors the JSON
// field names.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrSerializationFailed, err)
		}
		return nil
	case FormatYAML:
		tree, err := jsonTree(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrSerializationFailed, err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: format %q cannot be encoded", apperrors.ErrInvalidInput, format)
}

// jsonTree converts v into generic maps and slices through its JSON form,
// so custom MarshalJSON methods shape the YAML too.
func jsonTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSerializationFailed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSerializationFailed, err)
	}
	return numbers(tree), nil
}

// numbers turns json.Number leaves into int64 or float64 so YAML prints
// them unquoted.
func numbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = numbers(val)
		}
	case []any:
		for i, val := range t {
			t[i] = numbers(val)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
	}
	return v
}

func MarshalCheckResult(r checker.CheckResult) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: check result: %v", apperrors.ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCheckResult rebuilds a result, including its violations and
// document.
func UnmarshalCheckResult(data []byte) (checker.CheckResult, error) {
	var r checker.CheckResult
	if err := json.Unmarshal(data, &r); err != nil {
		if errors.Is(err, apperrors.ErrDeserializationFailed) {
			return checker.CheckResult{}, err
		}
		return checker.CheckResult{}, fmt.Errorf("%w: check result: %v", apperrors.ErrDeserializationFailed, err)
	}
	return r, nil
}
