// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xdrinterfaces holds the interfaces shared by the xdrc codec, its
// implementation packages and code generated by xdrc
package xdrinterfaces

import (
	"io"
	"reflect"
)

// Marshaler is implemented by types which encode and decode themselves. The
// codec calls it in place of reflection
type Marshaler interface {
	MarshalXDR(e Encoder) error
	UnmarshalXDR(d Decoder) error
}

// Enum is implemented by generated enumerations. XDRVariants lists the member
// values in declaration order; the index of a value in that list is its
// ordinal on the wire.
type Enum interface {
	XDRVariants() []int32
}

// Unsupported takes the place of an IDL type with no Go mapping. Encoding or
// decoding it always fails.
type Unsupported struct{}

// Codec defines how a type the codec does not handle itself is carried on the
// wire. Codecs are registered with a Coder for a specific type; prefer a
// Marshaler for types you own.
type Codec interface {
	Encode(e Encoder, v reflect.Value) error
	Decode(d Decoder, v reflect.Value) error
}

// Coder is the entry point to the codec
//
// A Coder holds the options it was built with and a cache of the codecs
// derived for each type it has seen. It is safe for concurrent use; the
// encoders and decoders it creates are not.
type Coder interface {
	// Marshal encodes o into a new buffer
	Marshal(o interface{}) ([]byte, error)
	// Unmarshal decodes buf into *op
	Unmarshal(buf []byte, op interface{}) error

	// Write encodes o to w
	Write(w io.Writer, o interface{}) error
	// Read decodes *op from r
	Read(r io.Reader, op interface{}) error

	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder

	// RegisterCodec installs c for the type of template. It panics if the
	// type already has a codec or may not have one registered.
	RegisterCodec(template interface{}, c Codec)
	RegisterCodecReflect(type_ reflect.Type, c Codec)
}

// Encoder writes one XDR stream
type Encoder interface {
	EncodeBool(b bool) error
	EncodeInt(i int32) error
	EncodeUnsignedInt(i uint32) error
	EncodeHyper(h int64) error
	EncodeUnsignedHyper(h uint64) error
	EncodeFloat(f float32) error
	EncodeDouble(d float64) error

	// EncodeOpaque writes a length prefixed byte string
	EncodeOpaque(b []byte) error
	// EncodeFixedOpaque writes b padded to a multiple of four bytes, without
	// a length prefix
	EncodeFixedOpaque(b []byte) error

	EncodeString(s string) error
	EncodeFixedString(s string) error

	// Encode writes o using the codec for its type
	Encode(o interface{}) error
	EncodeValue(v reflect.Value) error

	// BytesWritten is the number of bytes written so far, padding included
	BytesWritten() int64
}

// Decoder reads one XDR stream
type Decoder interface {
	DecodeBool() (bool, error)
	DecodeInt() (int32, error)
	DecodeUnsignedInt() (uint32, error)
	DecodeHyper() (int64, error)
	DecodeUnsignedHyper() (uint64, error)
	DecodeFloat() (float32, error)
	DecodeDouble() (float64, error)

	// DecodeOpaque reads a length prefixed byte string of at most maxLen
	// bytes into a new buffer
	DecodeOpaque(maxLen int) ([]byte, error)
	// DecodeFixedOpaque fills buf and consumes its padding
	DecodeFixedOpaque(buf []byte) error

	DecodeString(maxLen int) (string, error)
	DecodeFixedString(len int) (string, error)

	// Decode reads *op using the codec for its type
	Decode(op interface{}) error
	// DecodeValue reads into v, which must be settable
	DecodeValue(v reflect.Value) error

	// BytesRead is the number of bytes consumed so far, padding included
	BytesRead() int64
}
