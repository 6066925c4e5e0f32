package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindParse           Kind = "parse"
	KindModelViolation  Kind = "model_violation"
	KindMediaLoad       Kind = "media_load"
	KindUnsupportedFile Kind = "unsupported_file"
	KindDirty           Kind = "dirty"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind Kind
	// SafeMessage is shown to the user in dialogs and lane error rows.
	SafeMessage string
	// Cause keeps the original error for logs and errors.Is matching.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindParse:
		return "The label text does not match the tier's tag type."
	case KindModelViolation:
		return "The change would break the tier's time ordering."
	case KindMediaLoad:
		return "The media file could not be loaded."
	case KindUnsupportedFile:
		return "The file type is not supported."
	case KindDirty:
		return "The file has unsaved changes."
	default:
		return "An internal error occurred."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		if cause != nil {
			msg = cause.Error()
		} else {
			msg = defaultSafeMessage(kind)
		}
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Parse(err error) error {
	return New(KindParse, "", err)
}

func ModelViolation(err error) error {
	return New(KindModelViolation, "", err)
}

func MediaLoad(err error) error {
	return New(KindMediaLoad, "", err)
}

func UnsupportedFile(err error) error {
	return New(KindUnsupportedFile, "", err)
}

func Dirty(err error) error {
	return New(KindDirty, "", err)
}

func Internal(err error) error {
	return New(KindInternal, defaultSafeMessage(KindInternal), err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsParse(err error) bool          { return is(err, KindParse) }
func IsModelViolation(err error) bool { return is(err, KindModelViolation) }
func IsMediaLoad(err error) bool      { return is(err, KindMediaLoad) }
func IsUnsupported(err error) bool    { return is(err, KindUnsupportedFile) }
func IsDirty(err error) bool          { return is(err, KindDirty) }

// IsRecoverable reports whether the error should be shown in a dialog
// rather than logged with a stack trace.
func IsRecoverable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	return k != KindInternal
}
