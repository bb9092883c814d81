// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xdrc

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"testing"
)

func EncodeBenchmarkCommon(b *testing.B, cr Coder, ob interface{}) {
	b.Run("XDRMarshal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := cr.Marshal(ob); err != nil {
				b.Fatalf("Marshal: %s", err)
			}
		}
	})

	b.Run("JSONMarshal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := json.Marshal(ob); err != nil {
				b.Fatalf("json.Marshal: %s", err)
			}
		}
	})

	b.Run("XDREncoderDiscard", func(b *testing.B) {
		w := cr.NewEncoder(io.Discard)
		for i := 0; i < b.N; i++ {
			if err := w.Encode(ob); err != nil {
				b.Fatalf("Encode: %s", err)
			}
		}
	})

	b.Run("XDREncoderBuffer", func(b *testing.B) {
		var buf bytes.Buffer
		w := cr.NewEncoder(&buf)
		for i := 0; i < b.N; i++ {
			if err := w.Encode(ob); err != nil {
				b.Fatalf("Encode: %s", err)
			}
			if (i % 2048) == 0 {
				buf.Reset()
			}
		}
	})
}

func DecodeBenchmarkCommon(b *testing.B, cr Coder, ob interface{}) {
	buf, err := cr.Marshal(ob)
	if err != nil {
		b.Fatalf("Marshal: %s", err)
	}
	t := reflect.TypeOf(ob)

	b.Run("XDRUnmarshal", func(b *testing.B) {
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			if err := cr.Unmarshal(buf, reflect.New(t).Interface()); err != nil {
				b.Fatalf("Unmarshal: %s", err)
			}
		}
	})
}

func BenchmarkInt32Encode(b *testing.B) {
	EncodeBenchmarkCommon(b, &DefaultCoder, int32(123))
}

func BenchmarkInt64Encode(b *testing.B) {
	EncodeBenchmarkCommon(b, &DefaultCoder, int64(768))
}

type benchRecord struct {
	X    int32
	Y    int64
	Path []point `xdr:"maxlen:32"`
	Kind color
}

var benchRecordValue = benchRecord{
	X:    123456,
	Y:    12345678,
	Path: []point{{1, 2}, {3, 4}, {5, 6}, {7, 8}},
	Kind: green,
}

func BenchmarkSimpleStructEncode(b *testing.B) {
	EncodeBenchmarkCommon(b, &DefaultCoder, &benchRecordValue)
}

func BenchmarkSimpleStructDecode(b *testing.B) {
	DecodeBenchmarkCommon(b, &DefaultCoder, benchRecordValue)
}

func BenchmarkUnionStructsEncode(b *testing.B) {
	vals := []sample{
		{D: 0, One: 123},
		{D: 1, Two: 1 << 40},
		{D: 2, Other: 512},
		{D: 0, One: 456},
	}
	EncodeBenchmarkCommon(b, &DefaultCoder, vals)
}

func BenchmarkExtendedStructEncode(b *testing.B) {
	type S struct {
		X int32
		S string `xdr:"maxlen:32"`
		O []byte `xdr:"maxlen:32/opaque"`
	}

	EncodeBenchmarkCommon(b, extendedCoder, &S{
		X: 123456,
		S: "Hello Encoders",
		O: []byte("Byte Slice"),
	})
}
