package securitytxt

import "strings"

// Field is a security.txt field name as written in RFC 9116.
type Field string

const (
	FieldAcknowledgments    Field = "Acknowledgments"
	FieldCanonical          Field = "Canonical"
	FieldContact            Field = "Contact"
	FieldEncryption         Field = "Encryption"
	FieldExpires            Field = "Expires"
	FieldHiring             Field = "Hiring"
	FieldPolicy             Field = "Policy"
	FieldPreferredLanguages Field = "Preferred-Languages"
)

var allFields = []Field{
	FieldAcknowledgments,
	FieldCanonical,
	FieldContact,
	FieldEncryption,
	FieldExpires,
	FieldHiring,
	FieldPolicy,
	FieldPreferredLanguages,
}

// Fields returns every known field in a stable order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// LookupField finds a field by its case-insensitive name.
func LookupField(name string) (Field, bool) {
	for _, f := range allFields {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

// IsURI reports whether the field holds a URI value.
func (f Field) IsURI() bool {
	switch f {
	case FieldAcknowledgments, FieldCanonical, FieldContact, FieldEncryption, FieldHiring, FieldPolicy:
		return true
	}
	return false
}

func (f Field) String() string {
	return string(f)
}
