// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"
	"sync"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
	"go.e43.eu/xdrc/internal/tags"
)

func newForT(t reflect.Type) func() interface{} {
	return func() interface{} {
		return reflect.New(t)
	}
}

type opaqueArrayCodec struct {
	bufs sync.Pool
	len  int
}

var _ xCodec = &opaqueArrayCodec{}

type arrayCodec struct {
	elem xCodec
	len  int
}

func makeArrayCodec(cr *Coder, t reflect.Type, tag tags.XDRTag) xdrinterfaces.Codec {
	switch {
	case tag.Kind() != tags.Noop:
		return &errorCodec{errors.InvalidTagForTypeError{T: t, Tag: tag}}
	case tag.Next().Kind() == tags.Opaque:
		c := new(opaqueArrayCodec)
		c.bufs.New = newForT(t)
		c.len = t.Len()
		return c
	default:
		return &arrayCodec{
			elem: cr.getCodec(t.Elem(), tag.Next()),
			len:  t.Len(),
		}
	}
}

func (c *opaqueArrayCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	// An unaddressable array cannot be sliced, so copy it into a pooled
	// temporary first
	if !v.CanAddr() {
		p := c.bufs.Get().(reflect.Value)
		defer c.bufs.Put(p)

		e := p.Elem()
		e.Set(v)
		v = e
	}

	s := v.Slice(0, v.Len()).Bytes()
	return e.EncodeFixedOpaque(s)
}

func (c *opaqueArrayCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	l := v.Len()
	s := v.Slice(0, l).Bytes()
	return d.DecodeFixedOpaque(s)
}

func (c *arrayCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	for i, l := 0, v.Len(); i < l; i++ {
		if err := c.elem.Encode(e, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *arrayCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	for i, l := 0, v.Len(); i < l; i++ {
		if err := c.elem.Decode(d, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

type opaqueSliceCodec struct {
	maxlen  int
	origMax uint32
}

var _ xCodec = &opaqueSliceCodec{}

type sliceCodec struct {
	elem    xCodec
	t       reflect.Type
	maxlen  int
	origMax uint32
}

func makeSliceCodec(cr *Coder, t reflect.Type, tag tags.XDRTag) xdrinterfaces.Codec {
	maxlen := ^uint32(0)

	switch tag.Kind() {
	case tags.MaxLen:
		maxlen = tag.OnlyValue()
	case tags.Noop:
		// Nothing
	default:
		return &errorCodec{errors.InvalidTagForTypeError{T: t, Tag: tag}}
	}

	// Cap lengths at maxInt
	origMax := maxlen
	if uint64(maxlen) > uint64(maxInt) {
		// Do two step assignment to prevent the compiler from being too smart
		// and complaining at us on builds where this code is unreachable
		i := maxInt
		maxlen = uint32(i)
	}

	switch {
	case tag.Next().Kind() == tags.Opaque && !cr.extended:
		return reject(t, "opaque")
	case tag.Next().Kind() == tags.Opaque:
		return &opaqueSliceCodec{int(maxlen), origMax}
	default:
		return &sliceCodec{
			elem:    cr.getCodec(t.Elem(), tag.Next()),
			t:       t,
			maxlen:  int(maxlen),
			origMax: origMax,
		}
	}
}

func (c *opaqueSliceCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	s := v.Bytes()
	if len(s) > c.maxlen {
		return errors.LengthError{Actual: uint64(len(s)), Max: uint64(c.origMax)}
	}

	return e.EncodeOpaque(s)
}

func (c *opaqueSliceCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	s, err := d.DecodeOpaque(c.maxlen)
	if err != nil {
		if le, ok := err.(errors.LengthError); ok {
			le.Max = uint64(c.origMax)
			return le
		}
		return err
	}
	v.SetBytes(s)
	return nil
}

func (c *sliceCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	l := v.Len()
	if uint64(l) > uint64(c.maxlen) {
		return errors.LengthError{Actual: uint64(l), Max: uint64(c.origMax)}
	}

	if err := e.EncodeUnsignedInt(uint32(l)); err != nil {
		return err
	}

	for i := 0; i < l; i++ {
		if err := c.elem.Encode(e, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *sliceCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	l, err := d.DecodeUnsignedInt()
	switch {
	case err != nil:
		return err
	case l == 0:
		// No element reads follow a zero count
		v.Set(reflect.Zero(c.t))
		return nil
	case l > uint32(c.maxlen):
		return errors.LengthError{Actual: uint64(l), Max: uint64(c.origMax)}
	}

	// Grow as elements arrive rather than trusting the count up front
	n := int(l)
	if sz := c.t.Elem().Size(); sz > 0 && uint64(n)*uint64(sz) > maxPrealloc {
		n = int(maxPrealloc / sz)
	}
	s := reflect.MakeSlice(c.t, 0, n)
	zero := reflect.Zero(c.t.Elem())

	for i := uint32(0); i < l; i++ {
		s = reflect.Append(s, zero)
		if err := c.elem.Decode(d, s.Index(int(i))); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%d]", i))
		}
	}
	v.Set(s)
	return nil
}
