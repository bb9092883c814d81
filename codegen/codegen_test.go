// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Sink which renders each call as a line of pseudo-Go
type recorder struct {
	lines []string
	depth int
}

func (r *recorder) printf(format string, args ...interface{}) {
	r.lines = append(r.lines, strings.Repeat("\t", r.depth)+fmt.Sprintf(format, args...))
}

func (r *recorder) Comment(text string) { r.printf("// %s", text) }

func (r *recorder) Const(name string, value int64) { r.printf("const %s = %d", name, value) }

func (r *recorder) Alias(name string, t TypeRef) { r.printf("type %s = %s", name, t) }

func (r *recorder) OpenBlock(kind BlockKind, name string) {
	r.printf("%s %s {", kind, name)
	r.depth++
}

func (r *recorder) Field(name string, t TypeRef, tag string) {
	if tag == "" {
		r.printf("%s %s", name, t)
	} else {
		r.printf("%s %s `%s`", name, t, tag)
	}
}

func (r *recorder) Member(name string, value int64) { r.printf("%s = %d", name, value) }

func (r *recorder) Handler(name string, params []Param, result *TypeRef) {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = p.Name + " " + p.Type.String()
	}
	res := "error"
	if result != nil {
		res = "(" + result.String() + ", error)"
	}
	r.printf("%s(%s) %s", name, strings.Join(ps, ", "), res)
}

func (r *recorder) Dispatch(d *Dispatch) {
	r.printf("dispatch %s(%s) %s -> %s", d.Func, d.Service, d.Request, d.Response)
	for _, v := range d.Versions {
		r.printf("\tversion %d %s", v.Case, v.Field)
		for _, p := range v.Procs {
			r.printf("\t\tproc %d %s %s %q void=%v", p.Case, p.Field, p.Handler, p.Args, p.Void)
		}
	}
}

func (r *recorder) CloseBlock() {
	r.depth--
	r.printf("}")
}

func compile(t *testing.T, src string, opts ...Option) (*recorder, *Report) {
	t.Helper()
	r := &recorder{}
	rep, err := Compile(r, []byte(src), opts...)
	require.NoError(t, err)
	assert.Zero(t, r.depth, "every block should be closed")
	return r, rep
}

func TestMapName(t *testing.T) {
	for in, out := range map[string]string{
		"foo_bar_t": "FooBar",
		"a":         "A",
		"at":        "At",
		"t":         "T",
		"point":     "Point",
		"FOO_BAR":   "FooBar",
		"x_t_y":     "XTY",
		"u_int":     "UInt",
		"v_1":       "V1",
		"_t":        "",
		"":          "",
	} {
		assert.Equal(t, out, MapName(in), "MapName(%q)", in)
	}
}

func TestTypedef(t *testing.T) {
	r, rep := compile(t, `typedef unsigned int foo;
typedef hyper stamps<>;
typedef point pair[2];
typedef opaque hash[32];
typedef opaque blob<MAX>;
typedef string name<255>;
typedef point *link;
const MAX = 64;
`)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{
		"type Foo = uint32",
		"type Stamps = []int64",
		"type Pair = [2]Point",
		"type Hash = [32]byte",
		"type Blob = []byte",
		"type Name = string",
		"type Link = *Point",
		"const MAX = 64",
	}, r.lines)
}

func TestTypedefLayersAtUseSites(t *testing.T) {
	r, rep := compile(t, `typedef opaque blob<8>;
typedef int *maybe;
typedef int few<2>;
typedef opaque digest[4];
typedef blob blobs<>;
struct s {
	blob b;
	maybe m;
	few f;
	few many<3>;
	digest d[2];
	blob *ob;
	blobs all;
};
union u switch (int k) {
	case 1: blob one;
	default: maybe other;
};
program P { version V { blob get(few) = 1; } = 1; } = 5;
`)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{
		"type Blob = []byte",
		"type Maybe = *int32",
		"type Few = []int32",
		"type Digest = [4]byte",
		"type Blobs = []Blob",
		"struct S {",
		"\tB Blob `maxlen:8/opaque`",
		"\tM Maybe `opt`",
		"\tF Few `maxlen:2`",
		"\tMany []Few `maxlen:3/maxlen:2`",
		"\tD [2]Digest `/opaque`",
		"\tOb *Blob `opt/maxlen:8/opaque`",
		"\tAll Blobs `/maxlen:8/opaque`",
		"}",
		"struct U {",
		"\tK int32 `union:switch`",
		"\tOne Blob `union:1/maxlen:8/opaque`",
		"\t// Default arm of the union",
		"\tDefault Maybe `union:default/opt`",
		"}",
	}, r.lines[:20])
	assert.Contains(t, r.lines, "\tGet Few `union:1/maxlen:2`")
	assert.Contains(t, r.lines, "\tGet Blob `union:1/maxlen:8/opaque`")
}

func TestTypedefCycle(t *testing.T) {
	_, rep := compile(t, "typedef loop loop;\nstruct s { loop l; };")
	assert.Equal(t, []string{"loop", "s"}, rep.Skipped())
}

func TestStructFieldOrder(t *testing.T) {
	r, rep := compile(t, `struct point { int x; int y; };
struct shape_t {
	unsigned hyper id;
	point corners<MAX_CORNERS>;
	point origin;
	opaque digest[4];
	string label<16>;
	point *next;
	void;
	float weights[3];
};
const MAX_CORNERS = 8;`)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{"point", "shape_t", "MAX_CORNERS"}, rep.Generated)
	assert.Equal(t, []string{
		"struct Point {",
		"\tX int32",
		"\tY int32",
		"}",
		"struct Shape {",
		"\tId uint64",
		"\tCorners []Point `maxlen:8`",
		"\tOrigin Point",
		"\tDigest [4]byte `opaque`",
		"\tLabel string",
		"\tNext *Point `opt`",
		"\tWeights [3]float32",
		"}",
		"const MAX_CORNERS = 8",
	}, r.lines)
}

func TestEnum(t *testing.T) {
	r, rep := compile(t, "enum color { RED=0, GREEN=1, BLUE=2 };\nenum auto { A, B, C = 10, D, E = A };")
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{
		"enum Color {",
		"\tRED = 0",
		"\tGREEN = 1",
		"\tBLUE = 2",
		"}",
		"enum Auto {",
		"\tA = 0",
		"\tB = 1",
		"\tC = 10",
		"\tD = 11",
		"\tE = 0",
		"}",
	}, r.lines)
}

func TestUnion(t *testing.T) {
	r, rep := compile(t, `enum kind { SMALL = 1, LARGE = 2 };
union sample switch (int d) {
	case 1:
		int one;
	case 2:
		hyper two;
	default:
		unsigned int other;
};
union shared switch (kind k) {
	case SMALL:
	case LARGE:
		int v;
	case 5:
		void;
	case -1:
		opaque data<4>;
	default:
		void;
};`)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{
		"enum Kind {",
		"\tSMALL = 1",
		"\tLARGE = 2",
		"}",
		"struct Sample {",
		"\tD int32 `union:switch`",
		"\tOne int32 `union:1`",
		"\tTwo int64 `union:2`",
		"\t// Default arm of the union",
		"\tDefault uint32 `union:default`",
		"}",
		"struct Shared {",
		"\tK Kind `union:switch`",
		"\tVSmall int32 `union:1`",
		"\tVLarge int32 `union:2`",
		"\tCase5 struct{} `union:5`",
		"\tData []byte `union:-1/maxlen:4/opaque`",
		"\t// Default arm of the union",
		"\tDefault struct{} `union:default`",
		"}",
	}, r.lines)
}

const calc = `program CALC_PROG {
	version CALC_V1 {
		int add(int a, int b) = 1;
		void reset(void) = 2;
		hyper square(hyper) = 5;
	} = 1;
	version CALC_V2 {
		int negate(int) = 1;
	} = 3;
} = 0x20000001;
`

func TestProgram(t *testing.T) {
	r, rep := compile(t, calc)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{"CALC_PROG"}, rep.Generated)
	assert.Equal(t, []string{
		"struct CalcProgRequest {",
		"\tVersion uint32 `union:switch`",
		"\tV1 CalcProgRequestV1 `union:1`",
		"\tV3 CalcProgRequestV3 `union:3`",
		"}",
		"struct CalcProgResponse {",
		"\tVersion uint32 `union:switch`",
		"\tV1 CalcProgResponseV1 `union:1`",
		"\tV3 CalcProgResponseV3 `union:3`",
		"}",
		"struct CalcProgAddV1Args {",
		"\tA int32",
		"\tB int32",
		"}",
		"struct CalcProgRequestV1 {",
		"\tProc uint32 `union:switch`",
		"\tAdd CalcProgAddV1Args `union:1`",
		"\tReset struct{} `union:2`",
		"\tSquare int64 `union:5`",
		"}",
		"struct CalcProgResponseV1 {",
		"\tProc uint32 `union:switch`",
		"\tAdd int32 `union:1`",
		"\tReset struct{} `union:2`",
		"\tSquare int64 `union:5`",
		"}",
		"struct CalcProgRequestV3 {",
		"\tProc uint32 `union:switch`",
		"\tNegate int32 `union:1`",
		"}",
		"struct CalcProgResponseV3 {",
		"\tProc uint32 `union:switch`",
		"\tNegate int32 `union:1`",
		"}",
		"type CalcProgServiceRequest = CalcProgRequest",
		"type CalcProgServiceResponse = CalcProgResponse",
		"type CalcProgServiceError = error",
		"interface CalcProgService {",
		"\tadd_v1(arg0 int32, arg1 int32) (int32, error)",
		"\treset_v1() error",
		"\tsquare_v1(arg0 int64) (int64, error)",
		"\tnegate_v3(arg0 int32) (int32, error)",
		"}",
		"dispatch DispatchCalcProg(CalcProgService) CalcProgRequest -> CalcProgResponse",
		"\tversion 0 V1",
		`		proc 0 Add add_v1 ["A" "B"] void=false`,
		`		proc 1 Reset reset_v1 [] void=true`,
		`		proc 2 Square square_v1 [""] void=false`,
		"\tversion 1 V3",
		`		proc 0 Negate negate_v3 [""] void=false`,
	}, r.lines)
}

func TestProgramLabelDiscriminants(t *testing.T) {
	r, _ := compile(t, calc, WithDiscriminants(Label))
	assert.Contains(t, r.lines, "\tversion 1 V1")
	assert.Contains(t, r.lines, "\tversion 3 V3")
	assert.Contains(t, r.lines, `		proc 5 Square square_v1 [""] void=false`)
}

func TestNamespace(t *testing.T) {
	r, rep := compile(t, `namespace my_ns {
	program P { version V { void ping(void) = 0; } = 1; } = 9;
};`)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, []string{"my_ns.P"}, rep.Generated)
	assert.Equal(t, "namespace MyNs {", r.lines[0])
	assert.Equal(t, "}", r.lines[len(r.lines)-1])
	assert.Contains(t, r.lines, "\tstruct MyNsPRequest {")
	assert.Contains(t, r.lines, "\tinterface MyNsPService {")
	assert.Contains(t, r.lines, "\t\tping_v1() error")
}

func TestPartialFailure(t *testing.T) {
	r, rep := compile(t, `struct good_a { int x; };
struct broken { struct { int y; } inner; };
union bad_label switch (int d) { case NOPE: int z; };
struct good_b { hyper h; };
typedef int big[-1];
const type = 3;
`)
	assert.Equal(t, []string{"good_a", "good_b"}, rep.Generated)
	assert.Equal(t, []string{"broken", "bad_label", "big", "type"}, rep.Skipped())
	assert.Equal(t, []string{
		"struct GoodA {",
		"\tX int32",
		"}",
		"struct GoodB {",
		"\tH int64",
		"}",
	}, r.lines)
}

func TestUnsupportedPrimitive(t *testing.T) {
	r, rep := compile(t, "struct wide { quadruple q; int i; };")
	require.Len(t, rep.Diagnostics, 1)
	assert.False(t, rep.Diagnostics[0].Skipped)
	assert.Equal(t, "wide", rep.Diagnostics[0].Definition)
	assert.Equal(t, []string{"wide"}, rep.Generated)
	assert.Equal(t, []string{
		"struct Wide {",
		"\tQ xdrc.Unsupported",
		"\tI int32",
		"}",
	}, r.lines)
}

func TestCompileParseFailure(t *testing.T) {
	r := &recorder{}
	rep, err := Compile(r, []byte("struct point { int x; "))
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, rep)
	assert.Empty(t, r.lines, "the sink must not be touched")
}

func TestDuplicateFields(t *testing.T) {
	_, rep := compile(t, "struct dup { int a; hyper A; };")
	require.Len(t, rep.Diagnostics, 1)
	assert.True(t, rep.Diagnostics[0].Skipped)
	assert.Contains(t, rep.Diagnostics[0].Error(), "duplicate field A")
}

func TestParseDiscriminants(t *testing.T) {
	d, err := ParseDiscriminants("LABEL")
	require.NoError(t, err)
	assert.Equal(t, Label, d)

	d, err = ParseDiscriminants("")
	require.NoError(t, err)
	assert.Equal(t, Ordinal, d)

	_, err = ParseDiscriminants("positional")
	assert.Error(t, err)
}

func TestStrictShapes(t *testing.T) {
	const src = `struct s {
	int plain;
	string name<>;
	int *next;
	bool flags<4>;
};`

	_, rep := compile(t, src)
	assert.Empty(t, rep.Diagnostics)

	_, rep = compile(t, src, WithStrictShapes())
	require.Len(t, rep.Diagnostics, 3)
	for _, d := range rep.Diagnostics {
		assert.False(t, d.Skipped)
		assert.Equal(t, "s", d.Definition)
	}
	assert.Contains(t, rep.Diagnostics[0].Message, "Name uses string")
	assert.Contains(t, rep.Diagnostics[1].Message, "Next uses optional data")
	assert.Contains(t, rep.Diagnostics[2].Message, "Flags uses bool")
	assert.Equal(t, []string{"s"}, rep.Generated)
}
