package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	ErrInvalidEmail      = errors.New("invalid email")
	ErrSchoolNotFound    = errors.New("school not found")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrUsernameExhausted = errors.New("could not allocate a unique username")

	// Storage-level uniqueness violations raised by account repositories.
	ErrAccountExists = errors.New("account already exists")
	ErrUsernameTaken = errors.New("username already taken")
)

// CodeErrorKind names the reason a verification code was rejected.
type CodeErrorKind string

const (
	CodeNotFound    CodeErrorKind = "NotFound"
	CodeMismatch    CodeErrorKind = "Mismatch"
	CodeAlreadyUsed CodeErrorKind = "AlreadyUsed"
	CodeExpired     CodeErrorKind = "Expired"
)

var codeErrorMessages = map[CodeErrorKind]string{
	CodeNotFound:    "No verification code found for this email.",
	CodeMismatch:    "Invalid verification code.",
	CodeAlreadyUsed: "This verification code has already been used.",
	CodeExpired:     "Verification code has expired.",
}

// CodeError is returned when redeeming a verification code fails.
// It unwraps to ErrInvalidCode.
type CodeError struct {
	Kind CodeErrorKind
}

func NewCodeError(kind CodeErrorKind) *CodeError { return &CodeError{Kind: kind} }

func (e *CodeError) Error() string {
	if msg, ok := codeErrorMessages[e.Kind]; ok {
		return msg
	}
	return ErrInvalidCode.Error()
}

func (e *CodeError) Unwrap() error { return ErrInvalidCode }

// CodeErrorKindOf extracts the rejection kind from err, if any.
func CodeErrorKindOf(err error) (CodeErrorKind, bool) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
