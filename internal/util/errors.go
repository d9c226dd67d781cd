package util

// ErrKind classifies failures for transport mapping.
type ErrKind int

const (
	KindInternal ErrKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
)

// AppError is a tagged error carried from store/service code up to the
// handler, where Fail maps it to a status code.
type AppError struct {
	Kind    ErrKind
	Message string
	Fields  []string // violated fields, validation only
}

func (e *AppError) Error() string {
	return e.Message
}

// ValidationErr reports malformed or missing fields.
func ValidationErr(msg string, fields ...string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFoundErr reports an unknown id.
func NotFoundErr(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

// ConflictErr reports a uniqueness or foreign-key violation.
func ConflictErr(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// ForbiddenErr reports insufficient privilege.
func ForbiddenErr(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

// InternalErr wraps everything else.
func InternalErr(msg string) *AppError {
	return &AppError{Kind: KindInternal, Message: msg}
}
