// Package violation models the errors and warnings reported against a
// security.txt file, its fetch, or its contents.
package violation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Violation describes a single deviation from RFC 9116.
type Violation struct {
	kind           Kind
	params         any
	messageFormat  string
	messageValues  []any
	since          string
	correctValue   string
	howToFixFormat string
	howToFixValues []any
	specSection    string
	seeAlso        []string
}

// Error is a violation with error severity.
type Error struct {
	Violation
}

// Warning is a violation with warning severity.
type Warning struct {
	Violation
}

func (v Violation) Kind() Kind {
	return v.kind
}

// Message renders the message template with its values.
func (v Violation) Message() string {
	return render(v.messageFormat, v.messageValues)
}

func (v Violation) MessageFormat() string {
	return v.messageFormat
}

func (v Violation) MessageValues() []any {
	return v.messageValues
}

// Since returns the draft revision that introduced the rule, or "" if unknown.
func (v Violation) Since() string {
	return v.since
}

// CorrectValue returns a suggested replacement, or "" when there is none.
func (v Violation) CorrectValue() string {
	return v.correctValue
}

// HowToFix renders the remediation hint.
func (v Violation) HowToFix() string {
	return render(v.howToFixFormat, v.howToFixValues)
}

func (v Violation) HowToFixFormat() string {
	return v.howToFixFormat
}

func (v Violation) HowToFixValues() []any {
	return v.howToFixValues
}

// SpecSection returns the RFC 9116 section the rule comes from.
func (v Violation) SpecSection() string {
	return v.specSection
}

func (v Violation) SeeAlsoSections() []string {
	return v.seeAlso
}

// String formats the violation the way the CLI prints it.
func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(v.Message())
	if fix := v.HowToFix(); fix != "" {
		b.WriteString(" (How to fix: ")
		b.WriteString(fix)
		if v.correctValue != "" {
			b.WriteString(", e.g. ")
			b.WriteString(strings.TrimRight(v.correctValue, "\n"))
		}
		b.WriteString(")")
	}
	return b.String()
}

// Record returns the reconstructable form of the violation.
func (v Violation) Record() (Record, error) {
	rec := Record{Kind: v.kind}
	if v.params != nil {
		raw, err := json.Marshal(v.params)
		if err != nil {
			return Record{}, fmt.Errorf("encode %s params: %w", v.kind, err)
		}
		rec.Params = raw
	}
	return rec, nil
}

// MarshalJSON writes the record plus the rendered texts. The rendered texts
// are informational and ignored when decoding.
func (v Violation) MarshalJSON() ([]byte, error) {
	rec, err := v.Record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Record
		Message      string   `json:"message"`
		Since        string   `json:"since,omitempty"`
		CorrectValue string   `json:"correctValue,omitempty"`
		HowToFix     string   `json:"howToFix,omitempty"`
		SpecSection  string   `json:"specSection,omitempty"`
		SeeAlso      []string `json:"seeAlsoSections,omitempty"`
	}{
		Record:       rec,
		Message:      v.Message(),
		Since:        v.since,
		CorrectValue: v.correctValue,
		HowToFix:     v.HowToFix(),
		SpecSection:  v.specSection,
		SeeAlso:      v.seeAlso,
	})
}

// UnmarshalJSON rebuilds an error from its record.
func (e *Error) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	decoded, err := DecodeError(rec)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// UnmarshalJSON rebuilds a warning from its record.
func (w *Warning) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	decoded, err := DecodeWarning(rec)
	if err != nil {
		return err
	}
	*w = decoded
	return nil
}

func render(format string, values []any) string {
	if len(values) == 0 {
		return format
	}
	return fmt.Sprintf(format, values...)
}

// Params returns the constructor arguments the violation was built from.
func (v Violation) Params() any {
	return v.params
}
