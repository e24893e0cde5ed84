// Package ltmerr defines the shared, testable error taxonomy used across
// the manifest resolver, TVF codec, transaction codec and result decoder.
package ltmerr

import "fmt"

// Code identifies one member of the taxonomy in spec.md §7.
type Code string

const (
	CodeBadAddress          Code = "BadAddress"
	CodeUnknownConstant     Code = "UnknownConstant"
	CodeUnknownSigner       Code = "UnknownSigner"
	CodeUnresolvedAddress   Code = "UnresolvedAddress"
	CodeMissingFeePayer     Code = "MissingFeePayer"
	CodeUnknownFeePayer     Code = "UnknownFeePayer"
	CodeKeyAddressMismatch  Code = "KeyAddressMismatch"
	CodeInvalidKeyset       Code = "InvalidKeyset"
	CodeUnsupportedInstr    Code = "UnsupportedInstruction"
	CodeAmbiguousInstr      Code = "AmbiguousInstruction"
	CodeInlineTypeMismatch  Code = "InlineTypeMismatch"
	CodeTruncated           Code = "Truncated"
	CodeHeaderMismatch      Code = "HeaderMismatch"
	CodeOverlong            Code = "Overlong"
	CodeSizeExceeded        Code = "SizeExceeded"
	CodeIndexOutOfRange     Code = "IndexOutOfRange"
	CodeUnpairedSignature   Code = "UnpairedSignature"
	CodeVmHeaderInvalid     Code = "VmHeaderInvalid"
	CodeSizeBudgetExceeded  Code = "SizeBudgetExceeded"
	CodeCryptoFailure       Code = "CryptoFailure"
	CodeNoSignatures        Code = "NoSignatures"
)

// Error is the concrete error type raised by every package in this module.
// It carries a stable Code for programmatic matching alongside a
// human-readable Msg for diagnosis.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New builds an *Error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error with the given code, unwrapping
// through any github.com/pkg/errors context wrapping along the way.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
