// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package tags

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// XDRTag is a decoded `xdr:"..."` struct tag. It is a sequence of entries, one per
// "layer" of Go type nested on a field. For the field
//    Foo *[]int32 `xdr:"opt/maxlen:4"`
// the pointer layer carries "opt" and the slice layer carries "maxlen:4".
//
// Entries are packed into a byte string so that a tag may be used as part of a
// map key during codec resolution. The kind byte selects the layout:
//   0b00 flag, no value
//   0b10 one 32-bit value follows
//   0b11 a 32-bit count follows, then that many 32-bit values
//
// Union tags describe the enclosing struct rather than the field's own type and
// are always the first entry.
type XDRTag []byte
type XDRTagKind byte

const (
	// No-op tag, used to skip a layer. Never trailing.
	Noop XDRTagKind = 0x00 | iota
	// `xdr:"-"`; must be the only entry
	Skip
	// Pointer encoded as an XDR optional-data (`T *ident`)
	Opt
	// Byte member of a slice or array encoded densely (`opaque`)
	Opaque
	// The field is the discriminant of the enclosing union
	UnionSwitch
	// The field is the default arm of the enclosing union
	UnionDefault

	// Fixed length of a string or slice
	Len XDRTagKind = 0x80 | iota
	// Maximum length of a string or slice
	MaxLen

	// The field is the arm of the enclosing union for each listed label
	UnionCases = 0xC0 | iota
)

// Empty returns if this tag is empty
func (t XDRTag) Empty() bool {
	return len(t) == 0
}

// Kind returns the kind of the first entry
func (t XDRTag) Kind() XDRTagKind {
	if len(t) > 0 {
		return XDRTagKind(t[0])
	}
	return Noop
}

func (t XDRTag) valAt(offs int) uint32 {
	_ = t[offs+3]
	return uint32(t[offs])<<24 | uint32(t[offs+1])<<16 | uint32(t[offs+2])<<8 | uint32(t[offs+3])
}

func (t XDRTag) thisLen() int {
	switch {
	case len(t) == 0:
		return 0
	case t[0] < 0x80:
		return 1
	case t[0] < 0xC0:
		return 5
	default:
		return 5 + int(t.valAt(1))*4
	}
}

// Next returns the entries following the first one
func (t XDRTag) Next() XDRTag {
	l := t.thisLen()
	if len(t) == l {
		return XDRTag(nil)
	}
	return XDRTag(t[l:])
}

// OnlyValue returns the value of a single valued entry
func (t XDRTag) OnlyValue() uint32 {
	return t.valAt(1)
}

// Values returns every value carried by the first entry
func (t XDRTag) Values() []uint32 {
	switch {
	case len(t) == 0 || t[0] < 0x80:
		return nil
	case t[0] < 0xC0:
		return []uint32{t.valAt(1)}
	}

	n := int(t.valAt(1))
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = t.valAt(5 + 4*i)
	}
	return vals
}

// Append adds an entry to the end of the tag
func (t XDRTag) Append(k XDRTagKind, values ...uint32) XDRTag {
	tb := []byte(t)
	switch {
	case k < 0x80:
		if len(values) != 0 {
			panic(fmt.Sprintf("Attempt to append valueless tag %x with values %v", k, values))
		}
		return XDRTag(append(tb, byte(k)))

	case k < 0xC0:
		if len(values) != 1 {
			panic(fmt.Sprintf("Attempt to append single-value tag %x with %d values", k, len(values)))
		}
		tb = append(tb, byte(k))
		return XDRTag(appendU32(tb, values[0]))

	default:
		tb = appendU32(append(tb, byte(k)), uint32(len(values)))
		for _, v := range values {
			tb = appendU32(tb, v)
		}
		return XDRTag(tb)
	}
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Prepend adds an entry to the start of the tag
func (t XDRTag) Prepend(k XDRTagKind, values ...uint32) XDRTag {
	var nt XDRTag
	nt = nt.Append(k, values...)
	return XDRTag(append([]byte(nt), []byte(t)...))
}

// Trimmed returns this tag with any trailing Noops removed
func (t XDRTag) Trimmed() XDRTag {
	var e, mark int
	for ct := t; !ct.Empty(); ct = ct.Next() {
		e += ct.thisLen()
		if ct.Kind() != Noop {
			mark = e
		}
	}
	return XDRTag(t[0:mark])
}

// ByteString returns the tag as a string usable as a map key
func (t XDRTag) ByteString() string {
	return string([]byte(t))
}

func (t XDRTag) String() string {
	if t.Empty() {
		return "Noop<empty>"
	}

	s := fmt.Sprintf("[%x]", t.Kind())
	if vals := t.Values(); len(vals) != 0 {
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = fmt.Sprintf("%08x", v)
		}
		s += "(" + strings.Join(strs, ", ") + ")"
	}

	if nt := t.Next(); !nt.Empty() {
		s = fmt.Sprintf("%s;%s", s, nt)
	}
	return s
}

var skipTag = XDRTag([]byte{byte(Skip)})

func validForUnionSwitch(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int32, reflect.Uint32:
		return true
	default:
		return false
	}
}

// IsInUnion tracks whether the struct being parsed is a union. It starts as
// MaybeInUnion and is bound by the first unskipped field.
type IsInUnion int

const (
	MaybeInUnion IsInUnion = iota
	NotInUnion
	InUnion
)

// ParseStructTag parses the `xdr` tag of a struct field of type t
func ParseStructTag(t reflect.Type, rtag reflect.StructTag, isUnion *IsInUnion) (XDRTag, error) {
	return ParseTag(t, rtag.Get("xdr"), isUnion)
}

func parseU32(s string) (uint32, error) {
	u64, err := strconv.ParseUint(s, 0, 32)
	return uint32(u64), err
}

// parseLabel accepts both signed and unsigned 32-bit case labels; negative
// labels are stored as their two's complement wire value.
func parseLabel(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if i64 < math.MinInt32 || i64 > math.MaxUint32 {
		return 0, fmt.Errorf("case label %s out of range", s)
	}
	return uint32(i64), nil
}

func parseLabels(s string) ([]uint32, error) {
	vals := strings.Split(s, ",")
	labels := make([]uint32, 0, len(vals))
	for _, v := range vals {
		l, err := parseLabel(v)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// ParseTag parses the body of an `xdr` tag
func ParseTag(t reflect.Type, stags string, isUnion *IsInUnion) (xt XDRTag, err error) {
	stags = strings.TrimSpace(stags)
	if stags == "-" {
		return skipTag, nil
	}

	parts := strings.Split(stags, "/")

	if strings.HasPrefix(parts[0], "union:") {
		p := parts[0]
		parts = parts[1:]

		switch {
		case p == "union:switch":
			if *isUnion != MaybeInUnion {
				return xt, errors.New("`union:switch` must tag the first field of a union")
			}
			if !validForUnionSwitch(t) {
				return xt, fmt.Errorf("Type %s not legal for union switch", t)
			}
			*isUnion = InUnion
			xt = xt.Append(UnionSwitch)

		case *isUnion != InUnion:
			return xt, fmt.Errorf("'%s' union tag not valid as we are not inside a union", p)

		case p == "union:false":
			xt = xt.Append(UnionCases, 0)
		case p == "union:true":
			xt = xt.Append(UnionCases, 1)
		case p == "union:default":
			xt = xt.Append(UnionDefault)
		default:
			vals, err := parseLabels(strings.TrimPrefix(p, "union:"))
			if err != nil {
				return xt, fmt.Errorf("Parsing `union:` values: %v", err)
			}
			xt = xt.Append(UnionCases, vals...)
		}
	} else if *isUnion == InUnion {
		return xt, errors.New("Every field inside a union struct must have a `union:` leading tag")
	} else {
		*isUnion = NotInUnion
	}

	for i, n := 0, len(parts); i < n; i++ {
		p := strings.TrimSpace(parts[i])
		switch {
		case p == "":
			xt = xt.Append(Noop)

		case p == "opt":
			if t.Kind() != reflect.Ptr {
				return xt, fmt.Errorf("Type %s cannot be 'opt'", t)
			}
			xt = xt.Append(Opt)

		case p == "opaque":
			// `opaque` may be written on the []byte or [N]byte itself
			switch t.Kind() {
			case reflect.Array, reflect.Slice:
				xt = xt.Append(Noop)
				t = t.Elem()
			}
			if t.Kind() != reflect.Uint8 && t.Kind() != reflect.Int8 {
				return xt, fmt.Errorf("'opaque' label applied to %s, but only applicable to bytes", t)
			}
			xt = xt.Append(Opaque)

		case strings.HasPrefix(p, "len:"):
			l, err := parseU32(p[4:])
			if err != nil {
				return xt, fmt.Errorf("Error parsing XDR `len:` tag: %v", err)
			}
			switch t.Kind() {
			case reflect.String, reflect.Slice:
				xt = xt.Append(Len, l)
			default:
				return xt, fmt.Errorf("Cannot apply `len:` tag to %s; must be slice or string", t)
			}

		case strings.HasPrefix(p, "maxlen:"):
			l, err := parseU32(p[7:])
			if err != nil {
				return xt, fmt.Errorf("Error parsing XDR `maxlen:` tag: %v", err)
			}
			switch t.Kind() {
			case reflect.String, reflect.Slice:
				xt = xt.Append(MaxLen, l)
			default:
				return xt, fmt.Errorf("Cannot apply `maxlen:` tag to %s; must be slice or string", t)
			}

		default:
			return xt, fmt.Errorf("Unknown XDR tag '%s'", p)
		}

		if i+1 != n {
			switch t.Kind() {
			case reflect.Array, reflect.Ptr, reflect.Slice:
				t = t.Elem()
			default:
				return xt, fmt.Errorf("Trailing tags (%v) after reaching type %s", parts[i:], t)
			}
		}
	}

	return xt.Trimmed(), nil
}
