// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sync"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
	"go.e43.eu/xdrc/internal/tags"
)

const (
	// maxUint is the maximum value a uint can hold
	maxUint = ^uint(0)
	// maxInt is the maximum value an int can hold
	maxInt = int(maxUint >> 1)
)

var (
	marshalerType   = reflect.TypeOf((*xdrinterfaces.Marshaler)(nil)).Elem()
	enumType        = reflect.TypeOf((*xdrinterfaces.Enum)(nil)).Elem()
	unsupportedType = reflect.TypeOf(xdrinterfaces.Unsupported{})
)

type xCodec = xdrinterfaces.Codec

// VariantSelection controls how a union discriminant or enum value on the
// wire is mapped to a declared variant
type VariantSelection int

const (
	// The wire value is the position of the variant in declaration order
	ByOrdinal VariantSelection = iota
	// The wire value is the variant's declared case label (RFC 4506)
	ByLabel
)

func (s VariantSelection) String() string {
	switch s {
	case ByOrdinal:
		return "ordinal"
	case ByLabel:
		return "label"
	default:
		return fmt.Sprintf("VariantSelection(%d)", int(s))
	}
}

// Option configures a Coder
type Option func(*Coder)

// WithVariantSelection sets how variants are selected from the wire
func WithVariantSelection(s VariantSelection) Option {
	return func(cr *Coder) {
		cr.selection = s
	}
}

// WithExtendedTypes enables the RFC 4506 codecs for bool, string, opaque,
// fixed length arrays and optional data, which are rejected by default
func WithExtendedTypes() Option {
	return func(cr *Coder) {
		cr.extended = true
	}
}

type xType struct {
	Type       reflect.Type
	EncodedTag string
}

type Coder struct {
	knownBaseCodecs sync.Map // map[reflect.Type]xCodec
	knownCodecs     sync.Map // map[xType]xCodec

	selection VariantSelection
	extended  bool
}

func NewCoder(opts ...Option) *Coder {
	cr := new(Coder)
	for _, opt := range opts {
		opt(cr)
	}
	return cr
}

func (cr *Coder) getBaseCodec(t reflect.Type) xCodec {
	c, ok := cr.knownBaseCodecs.Load(t)
	if ok {
		return c.(xCodec)
	}
	return cr.getNewCodec(xType{t, ""}, nil)
}

func (cr *Coder) getCodec(t reflect.Type, tag tags.XDRTag) xCodec {
	xt := xType{t, tag.ByteString()}
	c, ok := cr.knownCodecs.Load(xt)
	if ok {
		return c.(xCodec)
	}
	return cr.getNewCodec(xt, tag)
}

// Types of object you are prevented from registering codecs for
var prohibitedCustomCodecKinds = map[reflect.Kind]struct{}{
	reflect.Invalid:       {},
	reflect.Array:         {},
	reflect.Slice:         {},
	reflect.String:        {},
	reflect.Map:           {},
	reflect.Ptr:           {},
	reflect.Chan:          {},
	reflect.Func:          {},
	reflect.UnsafePointer: {},
}

var prohibitedPrimitives = map[reflect.Type]struct{}{
	reflect.TypeOf(false):      {},
	reflect.TypeOf(int8(0)):    {},
	reflect.TypeOf(int16(0)):   {},
	reflect.TypeOf(int32(0)):   {},
	reflect.TypeOf(int64(0)):   {},
	reflect.TypeOf(int(0)):     {},
	reflect.TypeOf(uint8(0)):   {},
	reflect.TypeOf(uint16(0)):  {},
	reflect.TypeOf(uint32(0)):  {},
	reflect.TypeOf(uint64(0)):  {},
	reflect.TypeOf(uint(0)):    {},
	reflect.TypeOf(uintptr(0)): {},
	reflect.TypeOf(float32(0)): {},
	reflect.TypeOf(float64(0)): {},
	unsupportedType:            {},
}

func (cr *Coder) RegisterCodec(template interface{}, c xdrinterfaces.Codec) {
	cr.RegisterCodecReflect(reflect.TypeOf(template), c)
}

func (cr *Coder) RegisterCodecReflect(t reflect.Type, c xdrinterfaces.Codec) {
	if _, badKind := prohibitedCustomCodecKinds[t.Kind()]; badKind {
		panic(fmt.Sprintf("Attempt to register codec for type %s which is of a prohibited kind", t))
	}

	if _, isPrimitive := prohibitedPrimitives[t]; isPrimitive {
		panic(fmt.Sprintf("Attempt to register codec for primitive %s is prohibited", t))
	}

	xt := xType{t, ""}
	existing, found := cr.knownCodecs.LoadOrStore(xt, c)
	if found && existing.(xCodec) != c {
		panic(fmt.Sprintf("Attempt to register codec '%s' for type '%s' but '%s' is already registered", c, t, existing))
	}
	if !found {
		cr.knownBaseCodecs.Store(t, c)
	}
}

func (cr *Coder) getNewCodec(xt xType, tag tags.XDRTag) xCodec {
	// A deferred codec stands in while we build, so that cycles in the type
	// graph (and concurrent lookups of the same type) resolve to one codec.
	dc := newDeferredCodec()

	c, ok := cr.knownCodecs.LoadOrStore(xt, dc)
	if ok {
		return c.(xCodec)
	}

	cc := cr.buildCodec(xt.Type, tag)

	cr.knownCodecs.Store(xt, cc)
	if tag.Empty() {
		cr.knownBaseCodecs.Store(xt.Type, cc)
	}
	dc.resolve(cc)
	return cc
}

// reject builds a codec which fails every call with an UnsupportedShapeError
func reject(t reflect.Type, shape string) xCodec {
	return &errorCodec{errors.UnsupportedShapeError{T: t, Shape: shape}}
}

func (cr *Coder) buildCodec(t reflect.Type, tag tags.XDRTag) xdrinterfaces.Codec {
	if tag.Kind() == tags.Opt {
		if !cr.extended {
			return reject(t, "optional")
		}
		return makeOptCodec(cr, t, tag)
	}

	if t == unsupportedType {
		return reject(t, "unmapped type")
	}

	k := t.Kind()

	switch k {
	case reflect.Ptr:
		return makePtrCodec(cr, t, tag)

	case reflect.String:
		if !cr.extended {
			return reject(t, "string")
		}
		return makeStringCodec(t, tag)

	case reflect.Array:
		if !cr.extended {
			return reject(t, "fixed-size array")
		}
		return makeArrayCodec(cr, t, tag)

	case reflect.Slice:
		return makeSliceCodec(cr, t, tag)

	case reflect.Map:
		return reject(t, "map")

	case reflect.Complex64, reflect.Complex128:
		return reject(t, "complex number")
	}

	// None of the remaining types admit any tags
	if !tag.Empty() {
		return &errorCodec{errors.InvalidTagForTypeError{T: t, Tag: tag}}
	}

	switch {
	case t.Implements(marshalerType):
		return &marshalerCodecI
	case t.Implements(enumType):
		return makeEnumCodec(cr, t)
	}

	switch k {
	case reflect.Bool:
		if !cr.extended {
			return reject(t, "bool")
		}
		return boolCodecI
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return intCodecI
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return uintCodecI
	case reflect.Int64:
		return hyperCodecI
	case reflect.Uint64:
		return uhyperCodecI
	case reflect.Float32:
		return floatCodecI
	case reflect.Float64:
		return doubleCodecI
	case reflect.Struct:
		return makeStructCodec(cr, t)
	default:
		return &errorCodec{errors.InvalidTypeError{T: t}}
	}
}

func (cr *Coder) NewEncoder(w io.Writer) xdrinterfaces.Encoder {
	return cr.newEncoder(w)
}

func (cr *Coder) newEncoder(w io.Writer) *encoder {
	e := encoderPool.Get().(*encoder)
	e.reset(cr, w)
	return e
}

func (cr *Coder) NewDecoder(r io.Reader) xdrinterfaces.Decoder {
	return cr.newDecoder(r)
}

func (cr *Coder) newDecoder(r io.Reader) *decoder {
	d := decoderPool.Get().(*decoder)
	d.r = r
	d.cr = cr
	d.n = 0
	return d
}

func (cr *Coder) Marshal(o interface{}) ([]byte, error) {
	e := marshalEncoderPool.Get().(*marshalEncoder)
	defer e.release()

	e.reset(cr)
	err := e.Encode(o)

	return append([]byte(nil), e.b.Bytes()...), err
}

func (cr *Coder) Unmarshal(buf []byte, op interface{}) error {
	var r bytes.Reader
	r.Reset(buf)
	d := cr.newDecoder(&r)
	err := d.Decode(op)
	d.release()
	return err
}

var writerPool = sync.Pool{
	New: func() interface{} {
		return bufio.NewWriter(nil)
	},
}

func (cr *Coder) Write(w io.Writer, o interface{}) error {
	switch w.(type) {
	case *bytes.Buffer, *bufio.Writer:
		e := cr.newEncoder(w)
		err := e.Encode(o)
		e.release()
		return err
	}

	bw := writerPool.Get().(*bufio.Writer)
	bw.Reset(w)
	e := cr.newEncoder(bw)
	err := e.Encode(o)
	e.release()
	if err == nil {
		err = bw.Flush()
	}
	bw.Reset(nil)
	writerPool.Put(bw)
	return err
}

func (cr *Coder) Read(r io.Reader, op interface{}) error {
	d := cr.newDecoder(r)
	err := d.Decode(op)
	d.release()
	return err
}
