package securitytxt

import "github.com/khanhnv2901/securitytxt/internal/domain/violation"

// ValidationLevel decides when a field value is stored relative to its
// validation.
type ValidationLevel int

const (
	// Strict validates first and stores only valid values.
	Strict ValidationLevel = iota
	// Lenient stores every value and then reports what is wrong with it.
	Lenient
	// Silent stores every value without validating. Used when rebuilding
	// documents from trusted serialized data.
	Silent
)

func (l ValidationLevel) String() string {
	switch l {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	case Silent:
		return "silent"
	}
	return "unknown"
}

// apply runs store and the checks in the order the level dictates. Warnings
// are only looked at once the value passed validation.
func (l ValidationLevel) apply(store func(), validate, warn func() violation.Outcome) violation.Outcome {
	switch l {
	case Silent:
		store()
		return violation.OK()
	case Lenient:
		store()
		if o := validate(); !o.IsOK() {
			return o
		}
	default:
		if o := validate(); !o.IsOK() {
			return o
		}
		store()
	}
	return warn()
}
