// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"io"
	"math"
	"reflect"
	"sync"

	xdrinterfaces "go.e43.eu/xdrc/interfaces"
	"go.e43.eu/xdrc/internal/errors"
)

var decoderPool = sync.Pool{
	New: func() interface{} {
		return new(decoder)
	},
}

// maxPrealloc bounds the memory allocated for a sequence ahead of reading it,
// since the count on the wire is not trusted
const maxPrealloc = 64 << 10

type decoder struct {
	r  io.Reader
	cr *Coder

	// bytes consumed this session
	n int64
	// depth counts the values being decoded; start is the session offset the
	// outermost one began at
	depth int
	start int64
}

var _ xdrinterfaces.Decoder = &decoder{}

// read fills buf from the underlying reader and accounts for what was consumed
func (d *decoder) read(buf []byte) error {
	n, err := io.ReadFull(d.r, buf)
	d.n += int64(n)
	if err == io.EOF && d.depth > 0 && d.n > d.start {
		// The stream ended part way through a value
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (d *decoder) BytesRead() int64 {
	return d.n
}

func (d *decoder) DecodeBool() (bool, error) {
	i, err := d.DecodeUnsignedInt()
	switch {
	case err != nil:
		return false, err
	case i == 0:
		return false, nil
	case i == 1:
		return true, nil
	default:
		return false, errors.ErrInvalidValue
	}
}

func (d *decoder) DecodeInt() (int32, error) {
	u, err := d.DecodeUnsignedInt()
	return int32(u), err
}

func (d *decoder) DecodeUnsignedInt() (uint32, error) {
	var b [4]byte
	err := d.read(b[:])
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), err
}

func (d *decoder) DecodeHyper() (int64, error) {
	u, err := d.DecodeUnsignedHyper()
	return int64(u), err
}

func (d *decoder) DecodeUnsignedHyper() (uint64, error) {
	var b [8]byte
	err := d.read(b[:])
	return (uint64(b[0])<<56 |
		uint64(b[1])<<48 |
		uint64(b[2])<<40 |
		uint64(b[3])<<32 |
		uint64(b[4])<<24 |
		uint64(b[5])<<16 |
		uint64(b[6])<<8 |
		uint64(b[7])), err
}

func (d *decoder) DecodeFloat() (float32, error) {
	i, err := d.DecodeUnsignedInt()
	return math.Float32frombits(i), err
}

func (d *decoder) DecodeDouble() (float64, error) {
	i, err := d.DecodeUnsignedHyper()
	return math.Float64frombits(i), err
}

func (d *decoder) DecodeOpaque(maxLen int) ([]byte, error) {
	l, err := d.DecodeUnsignedInt()
	switch {
	case err != nil:
		return nil, err
	case l == 0:
		return nil, nil
	case uint64(l) > uint64(maxLen):
		return nil, errors.LengthError{Actual: uint64(l), Max: uint64(maxLen)}
	}

	lPad := (int(l) + 3) &^ 3
	buf := make([]byte, 0, min(lPad, maxPrealloc))
	for len(buf) < lPad {
		chunk := min(lPad-len(buf), maxPrealloc)
		buf = append(buf, make([]byte, chunk)...)
		if err := d.read(buf[len(buf)-chunk:]); err != nil {
			return nil, err
		}
	}
	return buf[0:int(l)], nil
}

func (d *decoder) DecodeFixedOpaque(buf []byte) error {
	var discard [4]byte

	if err := d.read(buf); err != nil {
		return err
	}

	if n := ((len(buf) + 3) &^ 3) - len(buf); n != 0 {
		return d.read(discard[0:n])
	}
	return nil
}

func (d *decoder) DecodeString(maxLen int) (string, error) {
	b, err := d.DecodeOpaque(maxLen)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) DecodeFixedString(len int) (string, error) {
	b := make([]byte, len)
	err := d.DecodeFixedOpaque(b)
	return string(b), err
}

func (d *decoder) Decode(op interface{}) error {
	v := reflect.ValueOf(op)
	if !v.IsValid() || v.Type().Kind() != reflect.Ptr || v.IsNil() {
		return errors.ErrNotPointer
	}

	return d.decodeValue(v.Elem())
}

func (d *decoder) DecodeValue(v reflect.Value) error {
	if !v.CanSet() {
		return errors.ErrNotPointer
	}
	return d.decodeValue(v)
}

func (d *decoder) decodeValue(v reflect.Value) error {
	if d.depth == 0 {
		d.start = d.n
	}
	d.depth++
	defer func() { d.depth-- }()
	return d.cr.getCodec(v.Type(), nil).Decode(d, v)
}

func (d *decoder) release() {
	d.r = nil
	d.cr = nil
	d.depth = 0
	decoderPool.Put(d)
}
