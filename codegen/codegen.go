// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package codegen walks an XDR syntax tree and drives a Sink with the Go
// declarations which represent it
//
// Definitions are generated in source order. A definition which cannot be
// generated is skipped and recorded in the returned Report; the others are
// still generated. The generated types carry xdr struct tags which the
// go.e43.eu/xdrc codec understands, so that values of them can be
// marshalled and unmarshalled directly.
package codegen

import (
	"fmt"
	"strings"

	"github.com/coreos/pkg/capnslog"

	"go.e43.eu/xdrc/ast"
	"go.e43.eu/xdrc/parser"
)

var plog = capnslog.NewPackageLogger("go.e43.eu/xdrc", "codegen")

type xerror string

func (e xerror) Error() string {
	return string(e)
}

// ErrParse is returned by Compile when the source does not parse. The sink
// is not called.
const ErrParse = xerror("source does not parse as XDR")

// Discriminants selects the values which generated dispatch code compares
// union discriminants against
type Discriminants int

const (
	// Ordinal compares against the declaration position, matching a coder
	// using xdrc.ByOrdinal
	Ordinal Discriminants = iota
	// Label compares against the declared version and procedure numbers,
	// matching a coder using xdrc.ByLabel
	Label
)

func (d Discriminants) String() string {
	switch d {
	case Ordinal:
		return "ordinal"
	case Label:
		return "label"
	}
	return fmt.Sprintf("Discriminants(%d)", int(d))
}

// ParseDiscriminants parses the String form of a Discriminants
func ParseDiscriminants(s string) (Discriminants, error) {
	switch strings.ToLower(s) {
	case "", "ordinal":
		return Ordinal, nil
	case "label":
		return Label, nil
	}
	return Ordinal, fmt.Errorf("unknown discriminant numbering %q", s)
}

type options struct {
	discriminants Discriminants
	strict        bool
}

// Option configures a generator run
type Option func(*options)

// WithDiscriminants selects the discriminant numbering used by generated
// dispatch functions
func WithDiscriminants(d Discriminants) Option {
	return func(o *options) {
		o.discriminants = d
	}
}

// WithStrictShapes warns about every generated field whose type the default
// coder rejects, such as strings and optional data. Such types need a coder
// built with xdrc.WithExtendedTypes
func WithStrictShapes() Option {
	return func(o *options) {
		o.strict = true
	}
}

// Compile parses src and generates it into sink
//
// A source which does not parse returns ErrParse. Otherwise the call
// succeeds, even if definitions had to be skipped; see Report.
func Compile(sink Sink, src []byte, opts ...Option) (*Report, error) {
	nodes, ok := parser.Parse(src)
	if !ok {
		return nil, ErrParse
	}
	return Generate(sink, nodes, opts...), nil
}

// Generate generates an already parsed syntax tree into sink
func Generate(sink Sink, nodes []ast.Node, opts ...Option) *Report {
	g := &generator{
		syms:      collectSymbols(nodes),
		report:    &Report{},
		aliases:   map[string][]string{},
		resolving: map[string]bool{},
	}
	for _, opt := range opts {
		opt(&g.options)
	}

	for _, n := range nodes {
		g.definition(sink, n)
	}
	return g.report
}

type generator struct {
	options
	syms   symbols
	report *Report

	// def names the definition being generated, for diagnostics
	def string
	// prefix is prepended to the names generated for programs
	prefix string

	// aliases caches the tag layers of each typedef
	aliases   map[string][]string
	resolving map[string]bool
	// muted suppresses warnings while a typedef is resolved for a use site
	muted int
}

func (g *generator) definition(sink Sink, n ast.Node) {
	var gen func(Sink) error
	switch d := n.(type) {
	case *ast.Blank, *ast.Comment, *ast.CodeSnippet:
		return
	case *ast.ConstantDef:
		gen = func(s Sink) error { return g.constant(s, d) }
	case *ast.TypeDef:
		gen = func(s Sink) error { return g.typedef(s, d) }
	case *ast.EnumDef:
		gen = func(s Sink) error { return g.enum(s, d) }
	case *ast.StructDef:
		gen = func(s Sink) error { return g.structure(s, d) }
	case *ast.UnionDef:
		gen = func(s Sink) error { return g.union(s, d) }
	case *ast.Program:
		gen = func(s Sink) error { return g.program(s, d) }
	case *ast.Namespace:
		g.namespace(sink, d)
		return
	default:
		g.diagnose(Diagnostic{
			Definition: ast.DefName(n),
			Message:    fmt.Sprintf("cannot generate %T", n),
			Skipped:    true,
		})
		return
	}
	g.generate(sink, ast.DefName(n), gen)
}

// generate runs gen into a buffer and replays it onto sink if it succeeds
func (g *generator) generate(sink Sink, name string, gen func(Sink) error) bool {
	g.def = name
	var buf buffer
	if err := gen(&buf); err != nil {
		g.diagnose(Diagnostic{Definition: name, Message: err.Error(), Skipped: true})
		return false
	}

	buf.replay(sink)
	g.report.Generated = append(g.report.Generated, name)
	plog.Debugf("generated %s", name)
	return true
}

func (g *generator) namespace(sink Sink, ns *ast.Namespace) {
	name := MapName(ns.Name.Name)
	if err := checkIdent(name); err != nil {
		g.diagnose(Diagnostic{Definition: ns.Name.Name, Message: err.Error(), Skipped: true})
		return
	}

	sink.OpenBlock(NamespaceBlock, name)
	g.prefix = name
	for _, prog := range ns.Programs {
		prog := prog
		g.generate(sink, ns.Name.Name+"."+prog.Name.Name, func(s Sink) error {
			return g.program(s, prog)
		})
	}
	g.prefix = ""
	sink.CloseBlock()
}

func (g *generator) diagnose(d Diagnostic) {
	plog.Warning(d.Error())
	g.report.Diagnostics = append(g.report.Diagnostics, d)
}

// warn records a problem which did not stop the current definition
func (g *generator) warn(format string, args ...interface{}) {
	if g.muted > 0 {
		return
	}
	g.diagnose(Diagnostic{Definition: g.def, Message: fmt.Sprintf(format, args...)})
}

//
// Symbols
//

// symbols holds the values of constants and enum members, so that
// identifiers used as sizes, bounds and labels can be resolved
type symbols struct {
	values   map[string]int64
	enums    map[string]bool
	typedefs map[string]*ast.TypeDef
}

func collectSymbols(nodes []ast.Node) symbols {
	s := symbols{
		values:   map[string]int64{"FALSE": 0, "TRUE": 1},
		enums:    map[string]bool{},
		typedefs: map[string]*ast.TypeDef{},
	}

	for _, n := range nodes {
		switch d := n.(type) {
		case *ast.ConstantDef:
			s.values[d.ID.Name] = d.Value.Value
		case *ast.TypeDef:
			if id := ast.DeclName(d.Decl); id != nil {
				s.typedefs[id.Name] = d
			}
		}
	}

	for _, n := range nodes {
		e, ok := n.(*ast.EnumDef)
		if !ok {
			continue
		}
		s.enums[e.ID.Name] = true

		prev := int64(-1)
		for _, m := range e.Members {
			v, err := s.memberValue(m, prev)
			if err != nil {
				break
			}
			s.values[m.Name.Name] = v
			prev = v
		}
	}
	return s
}

// memberValue returns the value of an enum member. A member without a value
// follows on from the previous one
func (s *symbols) memberValue(m ast.EnumMember, prev int64) (int64, error) {
	if _, ok := m.Value.(*ast.Blank); ok {
		return prev + 1, nil
	}
	return s.resolve(m.Value)
}

func (s *symbols) resolve(n ast.Node) (int64, error) {
	switch v := n.(type) {
	case *ast.Constant:
		return v.Value, nil
	case *ast.Ident:
		if val, ok := s.values[v.Name]; ok {
			return val, nil
		}
		return 0, fmt.Errorf("undefined constant %q", v.Name)
	}
	return 0, fmt.Errorf("expected a constant, found %T", n)
}
