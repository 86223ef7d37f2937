package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers and the HTTP layer.
type Kind string

const (
	KindInvalidReference   Kind = "invalid_reference"
	KindNotFound           Kind = "not_found"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindUnsupportedType    Kind = "unsupported_type"
	KindValidation         Kind = "validation"
	KindDuplicateKey       Kind = "duplicate_key"
	KindInvalidContentType Kind = "invalid_content_type"
	KindStorage            Kind = "storage"
)

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrInvalidReference   = &Error{Kind: KindInvalidReference}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrPayloadTooLarge    = &Error{Kind: KindPayloadTooLarge}
	ErrUnsupportedType    = &Error{Kind: KindUnsupportedType}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrDuplicateKey       = &Error{Kind: KindDuplicateKey}
	ErrInvalidContentType = &Error{Kind: KindInvalidContentType}
	ErrStorage            = &Error{Kind: KindStorage}
)

// FieldError names one violated field of a validated document.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is the structured error returned by the storage and content layers.
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	Ref    string
	Fields []FieldError
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	default:
		b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Ref != "" {
		fmt.Fprintf(&b, " [%s]", e.Ref)
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			names = append(names, f.Field)
		}
		fmt.Fprintf(&b, ": %s", strings.Join(names, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func InvalidReference(op, ref string, err error) *Error {
	return &Error{Kind: KindInvalidReference, Op: op, Ref: ref, Err: err}
}

func NotFound(op, ref string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Ref: ref}
}

func PayloadTooLarge(op, name string, size, limit int64) *Error {
	return &Error{
		Kind: KindPayloadTooLarge,
		Op:   op,
		Ref:  name,
		Msg:  fmt.Sprintf("file size %d exceeds limit of %d bytes", size, limit),
	}
}

func UnsupportedType(op, name, mimeType string) *Error {
	return &Error{
		Kind: KindUnsupportedType,
		Op:   op,
		Ref:  name,
		Msg:  fmt.Sprintf("mime type %q is not allowed", mimeType),
	}
}

func Validation(op string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

func DuplicateKey(op, field string, err error) *Error {
	return &Error{Kind: KindDuplicateKey, Op: op, Field: field, Err: err}
}

func InvalidContentType(op, contentType string) *Error {
	return &Error{
		Kind: KindInvalidContentType,
		Op:   op,
		Ref:  contentType,
		Msg:  fmt.Sprintf("content type %q is not one of article, notice, gallery", contentType),
	}
}

func Storage(op, ref string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Ref: ref, Err: err}
}
