package violation

// Outcome is the result of applying a single step: success, an error, or a
// warning.
type Outcome struct {
	err  *Error
	warn *Warning
}

// OK returns a successful outcome.
func OK() Outcome {
	return Outcome{}
}

func Fail(e Error) Outcome {
	return Outcome{err: &e}
}

func Warn(w Warning) Outcome {
	return Outcome{warn: &w}
}

func (o Outcome) IsOK() bool {
	return o.err == nil && o.warn == nil
}

// AsError reports the error carried by the outcome, if any.
func (o Outcome) AsError() (Error, bool) {
	if o.err == nil {
		return Error{}, false
	}
	return *o.err, true
}

// AsWarning reports the warning carried by the outcome, if any.
func (o Outcome) AsWarning() (Warning, bool) {
	if o.warn == nil {
		return Warning{}, false
	}
	return *o.warn, true
}
