package reasoncodes

import (
	"errors"
	"fmt"
)

// Error is a locally recoverable failure carrying its reason code and the
// offending field, signal or index. Two errors match under errors.Is when
// their codes are equal, so the sentinels below can be used as targets.
type Error struct {
	Code   ReasonCode
	Field  string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Detail != "":
		return fmt.Sprintf("%s(%s): %s", e.Code, e.Field, e.Detail)
	case e.Field != "":
		return fmt.Sprintf("%s(%s)", e.Code, e.Field)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	default:
		return string(e.Code)
	}
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func New(code ReasonCode, field string) *Error {
	return &Error{Code: code, Field: field}
}

func Newf(code ReasonCode, field, format string, args ...any) *Error {
	return &Error{Code: code, Field: field, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the reason code from err, or "" when err carries none.
func CodeOf(err error) ReasonCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	ErrMissingField            = &Error{Code: MissingField}
	ErrShapeMismatch           = &Error{Code: ShapeMismatch}
	ErrInvalidDateField        = &Error{Code: InvalidDateField}
	ErrUnknownSignal           = &Error{Code: UnknownSignal}
	ErrPolicyRuleFormat        = &Error{Code: PolicyRuleFormatError}
	ErrInvalidSignature        = &Error{Code: InvalidSignature}
	ErrDivisionByZero          = &Error{Code: DivisionByZero}
	ErrEncodingOverflow        = &Error{Code: EncodingOverflow}
	ErrInsufficientShares      = &Error{Code: InsufficientShares}
	ErrDuplicateShareIndex     = &Error{Code: DuplicateShareIndex}
	ErrInvalidThreshold        = &Error{Code: InvalidThreshold}
	ErrInvalidShareIndex       = &Error{Code: InvalidShareIndex}
	ErrUnknownTrustee          = &Error{Code: UnknownTrustee}
	ErrProofAlreadyExists      = &Error{Code: ProofAlreadyExists}
	ErrInvalidStateTransition  = &Error{Code: InvalidStateTransition}
	ErrProofVerificationFailed = &Error{Code: ProofVerificationFailed}
	ErrArtifactDigestMismatch  = &Error{Code: ArtifactDigestMismatch}
)

// FieldOf returns the offending field, signal or index named by err.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
