// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package shapes

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.e43.eu/xdrc"
)

var (
	ordinalCoder = xdrc.NewCoder(xdrc.WithExtendedTypes())
	labelCoder   = xdrc.NewCoder(xdrc.WithExtendedTypes(), xdrc.WithVariantSelection(xdrc.ByLabel))
)

func hyper(v int64) *int64 {
	return &v
}

func record() Record {
	return Record{
		Id:      7,
		Tone:    LIGHT,
		Path:    []Point{{1, 2}, {3, 4}},
		Corners: [2]Point{{-1, -2}, {5, 6}},
		Payload: Blob{1, 2, 3},
		Digest:  [4]byte{0xde, 0xad, 0xbe, 0xef},
		Label:   "north",
		Offset:  hyper(-9),
		Live:    true,
		Weight:  1.5,
	}
}

func TestRoundTrip(t *testing.T) {
	sparse := record()
	sparse.Path = nil
	sparse.Offset = nil
	sparse.Label = ""

	cases := []struct {
		name   string
		coder  xdrc.Coder
		values []interface{}
	}{
		{"ordinal", ordinalCoder, []interface{}{
			Point{X: -3, Y: 4},
			record(),
			sparse,
			Reading{S: DARK, Level: 12},
			Reading{S: LIGHT, RawLight: Blob{9}},
			Reading{S: CLEAR, RawClear: Blob{8, 7}},
			Reading{S: DIM},
			Result{Code: 0, Rec: record()},
			Result{Code: 1},
		}},
		{"label", labelCoder, []interface{}{
			Point{X: -3, Y: 4},
			record(),
			sparse,
			Reading{S: DARK, Level: 12},
			Reading{S: LIGHT, RawLight: Blob{9}},
			Reading{S: CLEAR, RawClear: Blob{8, 7}},
			Reading{S: DIM},
			Result{Code: 0, Rec: record()},
			Result{Code: -1},
		}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			for _, in := range c.values {
				buf, err := c.coder.Marshal(in)
				require.NoError(t, err, "%#v", in)

				out := reflect.New(reflect.TypeOf(in))
				require.NoError(t, c.coder.Unmarshal(buf, out.Interface()))
				assert.Equal(t, in, out.Elem().Interface())
			}
		})
	}
}

func TestWireForm(t *testing.T) {
	cases := []struct {
		name  string
		coder xdrc.Coder
		in    interface{}
		wire  []byte
	}{
		{"ordinal enum", ordinalCoder, CLEAR, []byte{0, 0, 0, 2}},
		{"label enum", labelCoder, CLEAR, []byte{0xff, 0xff, 0xff, 0xfb}},
		{"ordinal shared arm", ordinalCoder, Reading{S: CLEAR, RawClear: Blob{8}},
			[]byte{0, 0, 0, 2, 0, 0, 0, 1, 8, 0, 0, 0}},
		{"label shared arm", labelCoder, Reading{S: CLEAR, RawClear: Blob{8}},
			[]byte{0xff, 0xff, 0xff, 0xfb, 0, 0, 0, 1, 8, 0, 0, 0}},
		{"ordinal default arm", ordinalCoder, Reading{S: DIM}, []byte{0, 0, 0, 3}},
		{"label default arm", labelCoder, Reading{S: DIM}, []byte{0, 0, 0, 30}},
		{"label negative case", labelCoder, Result{Code: -1}, []byte{0xff, 0xff, 0xff, 0xff}},
		{"point", ordinalCoder, Point{X: 1, Y: -1}, []byte{0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf, err := c.coder.Marshal(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.wire, buf)
		})
	}
}

func TestPayloadBound(t *testing.T) {
	in := Reading{S: LIGHT, RawLight: make(Blob, 17)}
	_, err := labelCoder.Marshal(in)
	assert.ErrorIs(t, err, xdrc.ErrLengthExceedsMax)
}

func TestDefaultCoderRejectsExtendedShapes(t *testing.T) {
	_, err := xdrc.Marshal(record())
	assert.ErrorIs(t, err, xdrc.ErrUnsupportedShape)

	buf, err := xdrc.Marshal(Point{X: 2, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 2, 0, 0, 0, 3}, buf)
}
