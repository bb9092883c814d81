// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
)

// boolCodec handles booleans
type boolCodec struct{}

var boolCodecI xCodec = boolCodec{}

func (boolCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeBool(v.Bool())
}

func (boolCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	b, e := d.DecodeBool()
	v.SetBool(b)
	return e
}

// intCodec and uintCodec handle [u]int8 through [u]int32. Every width occupies
// a full four byte XDR unit; narrower Go types are range checked on decode.
type intCodec struct{}
type uintCodec struct{}

var (
	intCodecI  xCodec = intCodec{}
	uintCodecI xCodec = uintCodec{}
)

func (intCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeInt(int32(v.Int()))
}

func (intCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	i, err := d.DecodeInt()
	if err != nil {
		return err
	}
	if v.OverflowInt(int64(i)) {
		return errors.ErrInvalidValue
	}
	v.SetInt(int64(i))
	return nil
}

func (uintCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeUnsignedInt(uint32(v.Uint()))
}

func (uintCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	i, err := d.DecodeUnsignedInt()
	if err != nil {
		return err
	}
	if v.OverflowUint(uint64(i)) {
		return errors.ErrInvalidValue
	}
	v.SetUint(uint64(i))
	return nil
}

// [u]hyperCodec handles hyper ([u]int64) integers
type hyperCodec struct{}
type uhyperCodec struct{}

var (
	hyperCodecI  xCodec = hyperCodec{}
	uhyperCodecI xCodec = uhyperCodec{}
)

func (hyperCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeHyper(v.Int())
}

func (hyperCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	i, e := d.DecodeHyper()
	v.SetInt(i)
	return e
}

func (uhyperCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeUnsignedHyper(v.Uint())
}

func (uhyperCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	i, e := d.DecodeUnsignedHyper()
	v.SetUint(i)
	return e
}

// floatCodec handles floats
type floatCodec struct{}

var floatCodecI xCodec = floatCodec{}

func (floatCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeFloat(float32(v.Float()))
}

func (floatCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	f, e := d.DecodeFloat()
	v.SetFloat(float64(f))
	return e
}

// doubleCodec handles doubles
type doubleCodec struct{}

var doubleCodecI xCodec = doubleCodec{}

func (doubleCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	return e.EncodeDouble(v.Float())
}

func (doubleCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	f, e := d.DecodeDouble()
	v.SetFloat(f)
	return e
}
