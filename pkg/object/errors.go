package object

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound matches any *MissingObjectError via errors.Is.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCorruptObject matches any *CorruptObjectError via errors.Is.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrIncorrectType matches any *IncorrectTypeError via errors.Is.
	ErrIncorrectType = errors.New("incorrect object type")
)

// MissingObjectError reports that a byte source cannot supply an object.
type MissingObjectError struct {
	ID   ObjectID
	Type ObjectType // empty when any type was acceptable
}

func (e *MissingObjectError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("missing object %s", e.ID)
	}
	return fmt.Sprintf("missing %s %s", e.Type, e.ID)
}

func (e *MissingObjectError) Is(target error) bool { return target == ErrObjectNotFound }

// CorruptObjectError reports malformed canonical bytes.
type CorruptObjectError struct {
	ID     ObjectID
	Type   ObjectType
	Reason string
}

func (e *CorruptObjectError) Error() string {
	return fmt.Sprintf("corrupt %s %s: %s", e.typeName(), e.ID, e.Reason)
}

func (e *CorruptObjectError) typeName() string {
	if e.Type == "" {
		return "object"
	}
	return string(e.Type)
}

func (e *CorruptObjectError) Is(target error) bool { return target == ErrCorruptObject }

// IncorrectTypeError reports an object whose stored type differs from the requested one.
type IncorrectTypeError struct {
	ID   ObjectID
	Want ObjectType
	Got  ObjectType
}

func (e *IncorrectTypeError) Error() string {
	return fmt.Sprintf("object %s: type mismatch: got %q, want %q", e.ID, e.Got, e.Want)
}

func (e *IncorrectTypeError) Is(target error) bool { return target == ErrIncorrectType }

func corrupt(id ObjectID, t ObjectType, format string, args ...any) *CorruptObjectError {
	return &CorruptObjectError{ID: id, Type: t, Reason: fmt.Sprintf(format, args...)}
}
