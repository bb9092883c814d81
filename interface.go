// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xdrc is the runtime half of the xdrc IDL compiler: it encodes and
// decodes values of generated types in the XDR (External Data Representation)
// format of RFC 4506.
//
// Encoding is driven by reflection over the Go types emitted by the code
// generator. The mapping from Go types to XDR is:
//
//                        Go | XDR
//     ----------------------+--------------------
//      int8,  int16,  int32 | int
//     uint8, uint16, uint32 | unsigned int
//                     int64 | hyper
//                    uint64 | unsigned hyper
//                   float32 | float
//                   float64 | double
//                        *T | T (Go pointers are ignored)
//                       []T | T ident<>
//                  struct{} | void
//              struct{ ...} | struct { ... }
//
// Every integer, whatever its Go width, occupies one four byte XDR unit.
// Narrow Go types are range checked when decoding.
//
// Struct fields carry no names on the wire; their identity is their position.
//
// By default the following shapes are rejected with an UnsupportedShapeError,
// on both encode and decode: bool, string, fixed-size arrays, opaque byte
// buffers, optional data and maps. A Coder built with WithExtendedTypes
// handles the first five using the RFC 4506 layouts:
//
//                 XDR | Go
//     ----------------+--------------------------------
//     bool            | bool
//     T ident[N]      | [N]T
//     T *ident        |  *T     `xdr:"opt"`
//     string ident[N] | string  `xdr:"len:N"`
//     string ident<N> | string  `xdr:"maxlen:N"`
//     opaque ident<>  | []byte  `xdr:"opaque"`
//     opaque ident[N] | [N]byte `xdr:"opaque"`
//     opaque ident<N> | []byte  `xdr:"maxlen:N/opaque"`
//
// Maps, complex numbers and the Unsupported placeholder are always rejected.
//
// Tags are applied heirarchically: tags separated by forward slashes apply in
// turn from the outer to the inner type. An empty entry skips a level.
//
//     `-`         the field is skipped
//     `opt`       pointer encoded as optional data (extended types only)
//     `opaque`    byte slice or array encoded densely (extended types only)
//     `len:N`     fixed length string
//     `maxlen:N`  maximum length of a string or slice
//
// Unions are structs whose first field is tagged `union:switch`; every other
// field is tagged with the labels of the arm it holds:
//
//                                           XDR | Go
//     ------------------------------------------+-------------------------------------------
//     union my_union switch(int switch_field) { | type MyUnion struct {
//                                               |   SwitchField  int32    `xdr:"union:switch"`
//       case 1:  type_a  field_a;               |   FieldA       TypeA    `xdr:"union:1"`
//       case 2:  void;                          |   Case2        struct{} `xdr:"union:2"`
//       default: type_c  field_default;         |   Default      TypeC    `xdr:"union:default"`
//     }                                         | }
//
// The discriminant is an unsigned 32-bit word. How it selects an arm depends
// on the coder's VariantSelection. With ByOrdinal (the default) the word is the
// position of the arm among the declared variants, where every label counts as
// its own variant and the default arm counts at its declared position; with
// the example above, 0 selects FieldA, 1 selects Case2 and 2 selects Default.
// With ByLabel the word is matched against the labels as RFC 4506 specifies.
// The switch field always holds the word as read from the wire.
//
// Types implementing Enum are encoded the same way: by the ordinal of their
// value within XDRVariants, or by the value itself under ByLabel.
//
// You can specify custom behaviour for your type using the Marshaler interface. If implemented,
// it replaces the default behaviour. Codecs for third party types may be registered on a
// Coder created with NewCoder; the default (global) Coder does not accept registrations.
package xdrc

import (
	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/coder"
	"go.e43.eu/xdrc/internal/errors"
)

// interface Coder is the top-level interface to the XDR library
//
// A coder (which may be safely used from multiple threads) provides the ability
// to marshal objects to and from XDR. It also contains a repository of Codecs
// which know how to marshal various types
type Coder = xdrinterfaces.Coder

// interface Encoder is the interface to the XDR encoder
type Encoder = xdrinterfaces.Encoder

// interface Decoder is the interface to the XDR decoder
type Decoder = xdrinterfaces.Decoder

type Codec = xdrinterfaces.Codec

type Marshaler = xdrinterfaces.Marshaler

// Enum is implemented by generated enumerations
type Enum = xdrinterfaces.Enum

// Unsupported is emitted by the generator for IDL types with no Go mapping
type Unsupported = xdrinterfaces.Unsupported

type VariantSelection = coder.VariantSelection

const (
	ByOrdinal = coder.ByOrdinal
	ByLabel   = coder.ByLabel
)

type Option = coder.Option

// WithVariantSelection sets how discriminants select union arms and enum members
func WithVariantSelection(s VariantSelection) Option {
	return coder.WithVariantSelection(s)
}

// WithExtendedTypes enables bool, string, opaque, fixed array and optional data
func WithExtendedTypes() Option {
	return coder.WithExtendedTypes()
}

const (
	ErrLengthExceedsMax           = errors.ErrLengthExceedsMax
	ErrLengthExceedsPlatformLimit = errors.ErrLengthExceedsPlatformLimit
	ErrLengthIncorrect            = errors.ErrLengthIncorrect
	ErrUnionSwitchArmUndefined    = errors.ErrUnionSwitchArmUndefined
	ErrNotPointer                 = errors.ErrNotPointer
	ErrInvalidValue               = errors.ErrInvalidValue
	ErrNilPointer                 = errors.ErrNilPointer
	ErrUnsupportedShape           = errors.ErrUnsupportedShape

	// ErrProcUnavailable is returned by generated dispatchers for a version
	// or procedure without a handler
	ErrProcUnavailable = errors.ErrProcUnavailable
)

type (
	UnsupportedShapeError = errors.UnsupportedShapeError
	LengthError           = errors.LengthError
	FieldError            = errors.FieldError
	InvalidTypeError      = errors.InvalidTypeError
)
