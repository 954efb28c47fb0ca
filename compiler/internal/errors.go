package internal

import (
	"fmt"
)

// ErrorKind classifies why a compilation unit was rejected.
type ErrorKind int

const (
	DeclarationErrorKind ErrorKind = iota // duplicate field, argument, local or function.
	TypeErrorKind
	ReferenceErrorKind
	StructuralErrorKind // a tree shape the lowering or the walkers cannot handle.
	OutputErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case DeclarationErrorKind:
		return "declaration error"
	case TypeErrorKind:
		return "type error"
	case ReferenceErrorKind:
		return "reference error"
	case StructuralErrorKind:
		return "structural error"
	case OutputErrorKind:
		return "output error"
	}
	return "error"
}

type CompileError struct {
	Kind ErrorKind
	// Func is the scope key of the function being processed, empty for class level errors.
	Func string
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Func == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s in %s: %s", e.Kind, e.Func, e.Msg)
}

func makeError(kind ErrorKind, fn string, format string, msg ...interface{}) error {
	return &CompileError{Kind: kind, Func: fn, Msg: fmt.Sprintf(format, msg...)}
}

func makeDeclarationError(format string, msg ...interface{}) error {
	return makeError(DeclarationErrorKind, "", format, msg...)
}

func makeStructuralError(format string, msg ...interface{}) error {
	return makeError(StructuralErrorKind, "", format, msg...)
}

func makeTypeError(fn string, format string, msg ...interface{}) error {
	return makeError(TypeErrorKind, fn, format, msg...)
}

func makeReferenceError(fn string, format string, msg ...interface{}) error {
	return makeError(ReferenceErrorKind, fn, format, msg...)
}
