package account

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrUserNotFound is returned by stores when no user matches a lookup
var ErrUserNotFound = errors.New("user not found")

// ErrorKind is the caller visible failure class, carried in the error TextCode
type ErrorKind string

const (
	KindInvalidCredentials  ErrorKind = "INVALID_CREDENTIALS"
	KindMissingCredential   ErrorKind = "MISSING_CREDENTIAL"
	KindMalformedCredential ErrorKind = "MALFORMED_CREDENTIAL"
	KindInvalidToken        ErrorKind = "INVALID_TOKEN"
	KindAccountInactive     ErrorKind = "ACCOUNT_INACTIVE"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidationFailed    ErrorKind = "VALIDATION_FAILED"
	KindUnknownRole         ErrorKind = "UNKNOWN_ROLE"
	KindProtectedRole       ErrorKind = "PROTECTED_ROLE"
)

// Reason is an internal diagnostic kept in error metadata. Reasons are
// never part of the public projection of an error.
type Reason string

const (
	ReasonTokenInvalidSignature Reason = "TOKEN_INVALID_SIGNATURE"
	ReasonTokenExpired          Reason = "TOKEN_EXPIRED"
	ReasonTokenKindMismatch     Reason = "TOKEN_KIND_MISMATCH"
	ReasonTokenMalformedSubject Reason = "TOKEN_MALFORMED_SUBJECT"
	ReasonTokenMalformed        Reason = "TOKEN_MALFORMED"
	ReasonUserNotFound          Reason = "USER_NOT_FOUND"
	ReasonUserInactive          Reason = "USER_INACTIVE"
	ReasonUserAlreadyActive     Reason = "USER_ALREADY_ACTIVE"
	ReasonPasswordMismatch      Reason = "PASSWORD_MISMATCH"
)

const (
	metaReason = "reason"
	metaField  = "field"
	metaUserID = "user_id"
)

type kindDef struct {
	message  string
	category goerrors.Category
	code     int
}

var kindDefs = map[ErrorKind]kindDef{
	KindInvalidCredentials:  {"Your credentials are invalid", goerrors.CategoryAuth, goerrors.CodeBadRequest},
	KindMissingCredential:   {"Authentication is required", goerrors.CategoryAuth, goerrors.CodeUnauthorized},
	KindMalformedCredential: {"Invalid token", goerrors.CategoryAuth, goerrors.CodeUnauthorized},
	KindInvalidToken:        {"Invalid token", goerrors.CategoryAuth, goerrors.CodeUnauthorized},
	KindAccountInactive:     {"Your account is not active.", goerrors.CategoryAuth, goerrors.CodeUnauthorized},
	KindNotFound:            {"Not Found", goerrors.CategoryNotFound, goerrors.CodeNotFound},
	KindValidationFailed:    {"This value is invalid.", goerrors.CategoryValidation, goerrors.CodeBadRequest},
	KindUnknownRole:         {"Tried to add an invalid role.", goerrors.CategoryBadInput, goerrors.CodeBadRequest},
	KindProtectedRole:       {"This role can not be removed from a user.", goerrors.CategoryBadInput, goerrors.CodeBadRequest},
}

// NewError builds the rich error for the given kind
func NewError(kind ErrorKind) *goerrors.Error {
	def, ok := kindDefs[kind]
	if !ok {
		return goerrors.New(string(kind), goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	return goerrors.New(def.message, def.category).
		WithTextCode(string(kind)).
		WithCode(def.code)
}

func newReasonError(kind ErrorKind, reason Reason, extra map[string]any) *goerrors.Error {
	meta := map[string]any{metaReason: string(reason)}
	for k, v := range extra {
		meta[k] = v
	}
	return NewError(kind).WithMetadata(meta)
}

// NewValidationError builds a field scoped ValidationFailed error
func NewValidationError(field, message string) *goerrors.Error {
	if message == "" {
		message = kindDefs[KindValidationFailed].message
	}
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(string(KindValidationFailed)).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{metaField: field})
}

func internalError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(goerrors.CodeInternal)
}

// KindOf returns the ErrorKind carried by err, or "" when err is not a
// typed account error.
func KindOf(err error) ErrorKind {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return ""
	}
	kind := ErrorKind(richErr.TextCode)
	if _, ok := kindDefs[kind]; ok {
		return kind
	}
	return ""
}

// ReasonOf returns the internal diagnostic for err
func ReasonOf(err error) Reason {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return ""
	}
	r, _ := richErr.Metadata[metaReason].(string)
	return Reason(r)
}

// FieldOf returns the offending field of a ValidationFailed error
func FieldOf(err error) string {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return ""
	}
	field, _ := richErr.Metadata[metaField].(string)
	return field
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicError projects err onto what may be shown to a client: message,
// text code, status code and, for validation failures, the field. Internal
// reasons and wrapped causes are dropped.
func PublicError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	kind := KindOf(err)
	if kind == "" {
		return goerrors.New("An unexpected server error occurred", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	if kind == KindValidationFailed {
		var richErr *goerrors.Error
		errors.As(err, &richErr)
		return NewValidationError(FieldOf(err), richErr.Message)
	}

	return NewError(kind)
}
