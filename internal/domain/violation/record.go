package violation

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// Record is the serialized form of a violation: its kind and the arguments
// needed to rebuild it.
type Record struct {
	Kind   Kind            `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
}

type builder interface {
	build() Violation
}

type decodeFunc func(json.RawMessage) (Violation, error)

func decodeAs[P builder](raw json.RawMessage) (Violation, error) {
	var p P
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &p); err != nil {
			return Violation{}, err
		}
	}
	return p.build(), nil
}

var errorDecoders = map[Kind]decodeFunc{
	KindContentTypeInvalid:                  decodeAs[contentTypeInvalid],
	KindContentTypeWrongCharset:             decodeAs[contentTypeWrongCharset],
	KindExpired:                             decodeAs[expired],
	KindExpiresOldFormat:                    decodeAs[expiresOldFormat],
	KindExpiresWrongFormat:                  decodeAs[expiresWrongFormat],
	KindFieldNotURI:                         decodeAs[fieldNotURI],
	KindFieldURINotHTTPS:                    decodeAs[fieldURINotHTTPS],
	KindLineNoEOL:                           decodeAs[lineNoEOL],
	KindMultipleExpires:                     decodeAs[multipleExpires],
	KindMultiplePreferredLanguages:          decodeAs[multiplePreferredLanguages],
	KindNoContact:                           decodeAs[noContact],
	KindNoExpires:                           decodeAs[noExpires],
	KindPreferredLanguagesCommonMistake:     decodeAs[preferredLanguagesCommonMistake],
	KindPreferredLanguagesEmpty:             decodeAs[preferredLanguagesEmpty],
	KindPreferredLanguagesSeparatorNotComma: decodeAs[preferredLanguagesSeparatorNotComma],
	KindPreferredLanguagesWrongLanguageTags: decodeAs[preferredLanguagesWrongLanguageTags],
	KindSchemeNotHTTPS:                      decodeAs[schemeNotHTTPS],
	KindSignatureInvalid:                    decodeAs[signatureInvalid],
}

var warningDecoders = map[Kind]decodeFunc{
	KindCanonicalURLMismatch: decodeAs[canonicalURLMismatch],
	KindExpiresTooLong:       decodeAs[expiresTooLong],
	KindPossibleFieldTypo:    decodeAs[possibleFieldTypo],
	KindSignatureUnavailable: decodeAs[signatureUnavailable],
	KindSignedButNoCanonical: decodeAs[signedButNoCanonical],
	KindTopLevelDiffers:      decodeAs[topLevelDiffers],
	KindTopLevelPathOnly:     decodeAs[topLevelPathOnly],
	KindWellKnownPathOnly:    decodeAs[wellKnownPathOnly],
}

// DecodeError rebuilds an error from its record. Unknown kinds and warning
// kinds are rejected.
func DecodeError(rec Record) (Error, error) {
	v, err := decode(errorDecoders, rec)
	if err != nil {
		return Error{}, err
	}
	return Error{v}, nil
}

// DecodeWarning rebuilds a warning from its record.
func DecodeWarning(rec Record) (Warning, error) {
	v, err := decode(warningDecoders, rec)
	if err != nil {
		return Warning{}, err
	}
	return Warning{v}, nil
}

// IsWarningKind reports whether kind is in the warning set.
func IsWarningKind(kind Kind) bool {
	_, ok := warningDecoders[kind]
	return ok
}

func decode(decoders map[Kind]decodeFunc, rec Record) (Violation, error) {
	fn, ok := decoders[rec.Kind]
	if !ok {
		return Violation{}, fmt.Errorf("%w: unknown violation kind %q", apperrors.ErrDeserializationFailed, rec.Kind)
	}
	v, err := fn(rec.Params)
	if err != nil {
		return Violation{}, fmt.Errorf("%w: %s params: %v", apperrors.ErrDeserializationFailed, rec.Kind, err)
	}
	return v, nil
}
