package securitytxt

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// fieldJSON holds a string value, or the tag list for Preferred-Languages.
type fieldJSON struct {
	Name  Field           `json:"name"`
	Value json.RawMessage `json:"value"`
}

type securityTxtJSON struct {
	Fields    []fieldJSON            `json:"fields"`
	Signature *SignatureVerifyResult `json:"signatureVerifyResult,omitempty"`
}

// MarshalJSON writes the stored fields in file order.
func (s *SecurityTxt) MarshalJSON() ([]byte, error) {
	out := securityTxtJSON{
		Fields:    make([]fieldJSON, 0, len(s.fields)),
		Signature: s.signature,
	}
	for _, f := range s.fields {
		var value any = f.Value()
		if p, ok := f.(PreferredLanguages); ok {
			value = nonNilStrings(p.Languages())
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, fieldJSON{Name: f.Field(), Value: raw})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the document at the Silent level. The receiver's
// clock is kept if one was set.
func (s *SecurityTxt) UnmarshalJSON(data []byte) error {
	var in securityTxtJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: security.txt: %v", apperrors.ErrDeserializationFailed, err)
	}

	now := s.now
	if now == nil {
		now = time.Now
	}
	doc := New(WithClock(now))
	for _, f := range in.Fields {
		value, err := decodeField(f, now())
		if err != nil {
			return err
		}
		doc.Apply(value, Silent)
	}
	if in.Signature != nil {
		doc.SetSignature(*in.Signature)
	}
	*s = *doc
	return nil
}

func decodeField(f fieldJSON, now time.Time) (FieldValue, error) {
	if f.Name == FieldPreferredLanguages {
		languages := []string{}
		if err := json.Unmarshal(f.Value, &languages); err != nil {
			return nil, fmt.Errorf("%w: preferred languages: %v", apperrors.ErrDeserializationFailed, err)
		}
		return NewPreferredLanguages(languages), nil
	}

	var value string
	if err := json.Unmarshal(f.Value, &value); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrDeserializationFailed, f.Name, err)
	}
	switch {
	case f.Name == FieldExpires:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("%w: expires %q: %v", apperrors.ErrDeserializationFailed, value, err)
		}
		return NewExpires(t, now), nil
	case f.Name.IsURI():
		return NewURIField(f.Name, value), nil
	}
	return nil, fmt.Errorf("%w: unknown field %q", apperrors.ErrDeserializationFailed, f.Name)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
