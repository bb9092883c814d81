// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
	"go.e43.eu/xdrc/internal/tags"
)

type field struct {
	index int
	codec xCodec
	name  string
}

func makeField(cr *Coder, f reflect.StructField, tag tags.XDRTag) field {
	return field{
		index: f.Index[0],
		codec: cr.getCodec(f.Type, tag),
		name:  f.Name,
	}
}

func (f *field) encode(e xdrinterfaces.Encoder, p reflect.Value) error {
	return f.codec.Encode(e, p.Field(f.index))
}

func (f *field) decode(d xdrinterfaces.Decoder, p reflect.Value) error {
	return f.codec.Decode(d, p.Field(f.index))
}

// structCodec encodes fields positionally, in declaration order
type structCodec struct {
	name   string
	fields []field
}

var _ xCodec = &structCodec{}

type switchKind byte

const (
	switchKindBool switchKind = iota
	switchKindInt
	switchKindUint
)

// unionCodec handles structs whose first field is tagged `union:switch`.
//
// arms lists the body field for every variant in declaration order; a field
// carrying several labels contributes one variant per label and the default
// arm is a variant at its declared position. In ordinal mode the discriminant
// indexes arms; in label mode it is looked up in cases.
type unionCodec struct {
	name        string
	switchIndex int
	switchName  string
	switchKind  switchKind
	bodyFields  []field
	arms        []int
	cases       map[uint32]int
	defaultCase int
	byOrdinal   bool

	// labels holds the label of each entry of arms; the default arm has
	// noLabel
	labels []int64
	// members is set when the switch is an enumeration. The switch field then
	// always holds a member value; in ordinal mode that is the label of the
	// selected arm, or defaultMember for the default arm
	members       map[int32]bool
	defaultMember int64
}

const noLabel = -1 << 40

var _ xCodec = &unionCodec{}

func makeStructCodec(cr *Coder, t reflect.Type) xdrinterfaces.Codec {
	var (
		f   reflect.StructField
		tag tags.XDRTag
		err error
	)

	// Iterate until we figure out if we're a union or not
	isUnion := tags.MaybeInUnion
	i, fieldCount := 0, t.NumField()
	for ; i < fieldCount && isUnion == tags.MaybeInUnion; i++ {
		f = t.Field(i)
		tag, err = tags.ParseStructTag(f.Type, f.Tag, &isUnion)
		if err != nil {
			return &errorCodec{fmt.Errorf("Parsing tag of field '%s' of '%s': %v", f.Name, t, err)}
		}
	}

	switch isUnion {
	case tags.MaybeInUnion:
		// No unskipped fields: void
		return &structCodec{name: t.Name()}

	case tags.NotInUnion:
		c := &structCodec{
			name:   t.Name(),
			fields: make([]field, 0, fieldCount),
		}

		c.fields = append(c.fields, makeField(cr, f, tag))
		for ; i < fieldCount; i++ {
			f = t.Field(i)
			tag, err = tags.ParseStructTag(f.Type, f.Tag, &isUnion)
			if err != nil {
				return &errorCodec{fmt.Errorf("Parsing tag of field '%s' of '%s': %v", f.Name, t, err)}
			}
			if tag.Kind() == tags.Skip {
				continue
			}
			c.fields = append(c.fields, makeField(cr, f, tag))
		}
		return c

	default:
		return makeUnionCodec(cr, t, f, tag, i)
	}
}

func makeUnionCodec(cr *Coder, t reflect.Type, sw reflect.StructField, swTag tags.XDRTag, i int) xdrinterfaces.Codec {
	if !swTag.Next().Empty() {
		return &errorCodec{fmt.Errorf("Union switch of %s must not carry further tags", t)}
	}

	var kind switchKind
	switch sw.Type.Kind() {
	case reflect.Int32:
		kind = switchKindInt
	case reflect.Uint32:
		kind = switchKindUint
	default:
		kind = switchKindBool
	}

	fieldCount := t.NumField()
	c := &unionCodec{
		name:        t.Name(),
		switchIndex: sw.Index[0],
		switchName:  sw.Name,
		switchKind:  kind,
		bodyFields:  make([]field, fieldCount),
		cases:       make(map[uint32]int, fieldCount-1),
		defaultCase: -1,
		byOrdinal:   cr.selection == ByOrdinal,
	}

	isUnion := tags.InUnion
	for ; i < fieldCount; i++ {
		f := t.Field(i)
		tag, err := tags.ParseStructTag(f.Type, f.Tag, &isUnion)
		if err != nil {
			return &errorCodec{fmt.Errorf("Parsing tag of field '%s' of '%s': %v", f.Name, t, err)}
		}
		if tag.Kind() == tags.Skip {
			continue
		}

		c.bodyFields[i] = makeField(cr, f, tag.Next())

		switch tag.Kind() {
		case tags.UnionCases:
			for _, v := range tag.Values() {
				if _, ok := c.cases[v]; ok {
					return &errorCodec{fmt.Errorf("Union value 0x%08x of %s duplicated", v, t)}
				}
				c.cases[v] = i
				c.arms = append(c.arms, i)
				c.labels = append(c.labels, int64(v))
			}

		case tags.UnionDefault:
			if c.defaultCase != -1 {
				return &errorCodec{fmt.Errorf("Default case of %s duplicated", t)}
			}
			c.defaultCase = i
			c.arms = append(c.arms, i)
			c.labels = append(c.labels, noLabel)
		}
	}

	if sw.Type.Implements(enumType) {
		c.members = map[int32]bool{}
		c.defaultMember = noLabel
		for _, m := range reflect.Zero(sw.Type).Interface().(xdrinterfaces.Enum).XDRVariants() {
			c.members[m] = true
			if _, covered := c.cases[uint32(m)]; !covered && c.defaultMember == noLabel {
				c.defaultMember = int64(m)
			}
		}
	}
	return c
}

func (c *structCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	for _, f := range c.fields {
		if err := f.encode(e, v); err != nil {
			return errors.WithFieldError(err, c.name, f.name)
		}
	}
	return nil
}

func (c *structCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	for _, f := range c.fields {
		if err := f.decode(d, v); err != nil {
			return errors.WithFieldError(err, c.name, f.name)
		}
	}
	return nil
}

// arm returns the body field index selected by discriminant w, or -1
func (c *unionCodec) arm(w uint32) int {
	if c.byOrdinal {
		if uint64(w) >= uint64(len(c.arms)) {
			return -1
		}
		return c.arms[w]
	}

	if i, ok := c.cases[w]; ok {
		return i
	}
	return c.defaultCase
}

func (c *unionCodec) Encode(e xdrinterfaces.Encoder, v reflect.Value) error {
	swv := v.Field(c.switchIndex)

	var w uint32
	switch c.switchKind {
	case switchKindBool:
		if swv.Bool() {
			w = 1
		}
	case switchKindUint:
		w = uint32(swv.Uint())
	default:
		w = uint32(swv.Int())
	}

	i := -1
	if c.members == nil {
		i = c.arm(w)
	} else {
		var err error
		if w, i, err = c.memberArm(int32(w)); err != nil {
			return errors.WithFieldError(err, c.name, c.switchName, "union:switch")
		}
	}
	if i == -1 {
		return errors.WithFieldError(errors.ErrUnionSwitchArmUndefined,
			c.name, c.switchName, fmt.Sprintf("union:0x%x", w))
	}

	if err := e.EncodeUnsignedInt(w); err != nil {
		return errors.WithFieldError(err, c.name, c.switchName, "union:switch")
	}

	f := c.bodyFields[i]
	if err := f.encode(e, v); err != nil {
		return errors.WithFieldError(err, c.name, f.name, fmt.Sprintf("union:0x%x", w))
	}
	return nil
}

func (c *unionCodec) Decode(d xdrinterfaces.Decoder, v reflect.Value) error {
	w, err := d.DecodeUnsignedInt()
	if err != nil {
		return errors.WithFieldError(err, c.name, c.switchName, "union:switch")
	}

	swv := v.Field(c.switchIndex)
	switch c.switchKind {
	case switchKindBool:
		if w > 1 {
			return errors.WithFieldError(errors.ErrInvalidValue, c.name, c.switchName, "union:switch")
		}
		swv.SetBool(w == 1)
	case switchKindUint:
		swv.SetUint(uint64(w))
	default:
		swv.SetInt(int64(int32(w)))
	}

	i := c.arm(w)
	if i == -1 {
		return errors.WithFieldError(errors.ErrUnionSwitchArmUndefined,
			c.name, c.switchName, fmt.Sprintf("union:0x%x", w))
	}

	if c.members != nil {
		m, err := c.member(w)
		if err != nil {
			return errors.WithFieldError(err, c.name, c.switchName, "union:switch")
		}
		swv.SetInt(m)
	}

	f := c.bodyFields[i]
	if err := f.decode(d, v); err != nil {
		return errors.WithFieldError(err, c.name, f.name, fmt.Sprintf("union:0x%x", w))
	}
	return nil
}

// memberArm maps the enum member held by the switch field to the wire
// discriminant and the arm it selects
func (c *unionCodec) memberArm(m int32) (uint32, int, error) {
	if !c.members[m] {
		return 0, -1, errors.ErrInvalidValue
	}
	if !c.byOrdinal {
		return uint32(m), c.arm(uint32(m)), nil
	}

	want := int64(uint32(m))
	if _, ok := c.cases[uint32(m)]; !ok {
		want = noLabel
	}
	for ord, l := range c.labels {
		if l == want {
			return uint32(ord), c.arms[ord], nil
		}
	}
	return uint32(m), -1, nil
}

// member returns the enum member the switch field holds for a decoded
// discriminant
func (c *unionCodec) member(w uint32) (int64, error) {
	if !c.byOrdinal {
		if !c.members[int32(w)] {
			return 0, errors.ErrInvalidValue
		}
		return int64(int32(w)), nil
	}

	if l := c.labels[w]; l != noLabel {
		return int64(int32(uint32(l))), nil
	}
	if c.defaultMember == noLabel {
		return 0, errors.ErrInvalidValue
	}
	return c.defaultMember, nil
}
