// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package errors

import (
	"fmt"
	"reflect"
	"strings"

	"go.e43.eu/xdrc/internal/tags"
)

const (
	// maxUint is the maximum value a uint can hold
	maxUint = ^uint(0)
	// maxInt is the maximum value an int can hold
	maxInt = int(maxUint >> 1)
)

type xerror string

func (e xerror) Error() string {
	return string(e)
}

const (
	// Array or slice longer than permitted by the schema
	// (or XDR; for values where the schema specifies no limit, it is implicitly
	// treated as if 0xFFFFFFFF were specified; though in that case the error can
	// only be reached on encode)
	ErrLengthExceedsMax = xerror("xdr: Variable length object too long")

	// Array or slice length longer than we can decode
	//
	// This can only occur on 32-bit platforms, if the schema permits arrays of
	// more than 0x8000_0000 items.
	ErrLengthExceedsPlatformLimit = xerror("xdr: Variable length object too long for platform")

	// Length of fixed length object incorrect
	ErrLengthIncorrect = xerror("xdr: Length incorrect")

	// Union switch arm undefined
	ErrUnionSwitchArmUndefined = xerror("xdr: Union switch arm undefined")

	// Decode expected pointer parameter
	ErrNotPointer = xerror("xdr: Expected pointer parameter")

	// Invalid value for type
	ErrInvalidValue = xerror("xdr: Invalid value for type")

	// Pointer was unexpectedly nil
	ErrNilPointer = xerror("xdr: Unexpected nil pointer")

	// The value has a shape which this coder refuses to marshal
	ErrUnsupportedShape = xerror("xdr: Unsupported shape")

	// A dispatcher was handed a version or procedure it has no handler for
	ErrProcUnavailable = xerror("xdr: Procedure unavailable")
)

type InvalidTypeError struct {
	T reflect.Type
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("xdr: Type '%s' unsupported", e.T)
}

type InvalidTagForTypeError struct {
	T   reflect.Type
	Tag tags.XDRTag
}

func (e InvalidTagForTypeError) Error() string {
	return fmt.Sprintf("xdr: Tag '%s' unsupported for type '%s'", e.Tag, e.T)
}

// UnsupportedShapeError is returned for types the coder has been configured
// to reject (for example strings, booleans or maps without extended types)
type UnsupportedShapeError struct {
	T     reflect.Type
	Shape string
}

func (e UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

func (e UnsupportedShapeError) Error() string {
	return fmt.Sprintf("%s %s (type '%s')", ErrUnsupportedShape, e.Shape, e.T)
}

type LengthError struct {
	Actual, Max uint64
}

func (err LengthError) Is(target error) bool {
	switch target {
	case ErrLengthExceedsMax:
		return err.Actual > err.Max
	case ErrLengthExceedsPlatformLimit:
		return err.Actual > uint64(maxInt)
	default:
		return false
	}
}

func (err LengthError) Error() string {
	if err.Actual > err.Max {
		return fmt.Sprintf("%s (%d > %d)", ErrLengthExceedsMax, err.Actual, err.Max)
	} else {
		return fmt.Sprintf("%s (%d > %d)", ErrLengthExceedsPlatformLimit, err.Actual, maxInt)
	}
}

type FieldError struct {
	Underlying error
	Path       string
}

func (err FieldError) Unwrap() error {
	return err.Underlying
}

func (err FieldError) Error() string {
	uerr := strings.TrimPrefix(err.Underlying.Error(), "xdr: ")
	return fmt.Sprintf("xdr: %s (at %s)", uerr, err.Path)
}

func WithFieldError(err error, parts ...string) error {
	if err == nil {
		return nil
	}

	var combined string
	if parts[0] == "" {
		parts[0] = "<anonymous>"
	}

	switch len(parts) {
	case 1:
		combined = parts[0]
	case 3:
		combined = fmt.Sprintf("%s.%s(%s)", parts[0], parts[1], parts[2])
	default:
		combined = strings.Join(parts, ".")
	}

	switch err := err.(type) {
	case FieldError:
		err.Path = fmt.Sprintf("%s %s", combined, err.Path)
		return err
	default:
		return FieldError{err, combined}
	}
}
