// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
)

// enumCodec handles types implementing xdrinterfaces.Enum. In ordinal mode the
// wire carries the member's position; in label mode it carries the member
// value itself, which must be one of the declared members.
type enumCodec struct {
	name      string
	variants  []int32
	ordinals  map[int32]uint32
	byOrdinal bool
}

var _ xCodec = &enumCodec{}

func makeEnumCodec(cr *Coder, t reflect.Type) xCodec {
	switch t.Kind() {
	case reflect.Int32, reflect.Int64, reflect.Int:
	default:
		return &errorCodec{fmt.Errorf("xdr: Enum type %s must be a signed integer", t)}
	}

	variants := reflect.Zero(t).Interface().(xdrinterfaces.Enum).XDRVariants()
	c := &enumCodec{
		name:      t.Name(),
		variants:  variants,
		ordinals:  make(map[int32]uint32, len(variants)),
		byOrdinal: cr.selection == ByOrdinal,
	}
	for i, v := range variants {
		if _, dup := c.ordinals[v]; dup {
			return &errorCodec{fmt.Errorf("xdr: Enum value %d of %s duplicated", v, t)}
		}
		c.ordinals[v] = uint32(i)
	}
	return c
}

func (c *enumCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	val := int32(v.Int())
	ord, ok := c.ordinals[val]
	if !ok {
		return errors.WithFieldError(errors.ErrInvalidValue, c.name, fmt.Sprint(val))
	}

	if c.byOrdinal {
		return e.EncodeUnsignedInt(ord)
	}
	return e.EncodeInt(val)
}

func (c *enumCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	w, err := d.DecodeUnsignedInt()
	if err != nil {
		return err
	}

	if c.byOrdinal {
		if uint64(w) >= uint64(len(c.variants)) {
			return errors.WithFieldError(errors.ErrInvalidValue, c.name, fmt.Sprintf("ordinal %d", w))
		}
		v.SetInt(int64(c.variants[w]))
		return nil
	}

	if _, ok := c.ordinals[int32(w)]; !ok {
		return errors.WithFieldError(errors.ErrInvalidValue, c.name, fmt.Sprint(int32(w)))
	}
	v.SetInt(int64(int32(w)))
	return nil
}
