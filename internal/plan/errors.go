package plan

import (
	"errors"
	"fmt"
)

// The four terminal failure kinds. All abort the call before any schedule is
// produced; due-date overruns are warnings on the Result instead.
var (
	ErrInputShape     = errors.New("invalid input")
	ErrTaskValidation = errors.New("invalid task")
	ErrDependency     = errors.New("invalid dependency")
	ErrCycle          = errors.New("dependency cycle")
)

// Error wraps a failure kind with a human-readable detail message.
//
// Match the kind with errors.Is:
//
//	if errors.Is(err, plan.ErrCycle) { ... }
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func inputShapef(format string, args ...any) error {
	return &Error{Kind: ErrInputShape, Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrTaskValidation, Msg: fmt.Sprintf(format, args...)}
}

func dependencyf(format string, args ...any) error {
	return &Error{Kind: ErrDependency, Msg: fmt.Sprintf(format, args...)}
}

func cyclef(format string, args ...any) error {
	return &Error{Kind: ErrCycle, Msg: fmt.Sprintf(format, args...)}
}
