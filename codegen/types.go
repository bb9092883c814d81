// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.e43.eu/xdrc/ast"
)

var primitives = map[ast.Primitive]string{
	ast.UnsignedInt:   "uint32",
	ast.Int:           "int32",
	ast.UnsignedHyper: "uint64",
	ast.Hyper:         "int64",
	ast.Float:         "float32",
	ast.Double:        "float64",
	ast.Bool:          "bool",
}

// typeRef maps a type specifier to a Go type. Unmapped primitives become the
// unsupported placeholder, with a warning
func (g *generator) typeRef(n ast.Node) (TypeRef, error) {
	switch t := n.(type) {
	case *ast.Type:
		if name, ok := primitives[t.Primitive]; ok {
			return Builtin(name), nil
		}
		g.warn("%s has no Go equivalent", t.Primitive)
		return TypeRef{Kind: UnsupportedType}, nil

	case *ast.Ident:
		name := MapName(t.Name)
		if err := checkIdent(name); err != nil {
			return TypeRef{}, err
		}
		return Named(name), nil

	case *ast.EnumType, *ast.StructType, *ast.UnionType:
		return TypeRef{}, fmt.Errorf("inline type definitions are not supported")
	}
	return TypeRef{}, fmt.Errorf("expected a type, found %T", n)
}

// member is a resolved declaration
type member struct {
	// name is the declared name, empty for void
	name string
	typ  TypeRef
	// layers are the xdr tag layers the type needs
	layers []string
}

func (m member) void() bool {
	return m.typ.Kind == VoidType
}

// tag joins a leading tag layer with the member's own layers
func (m member) tag(lead ...string) string {
	return strings.Join(append(lead, m.layers...), "/")
}

func (g *generator) member(n ast.Node) (member, error) {
	var (
		m    member
		elem ast.Node
		err  error
	)

	if id := ast.DeclName(n); id != nil {
		m.name = id.Name
	}

	switch d := n.(type) {
	case *ast.VoidDecl:
		m.typ = Void()
		return m, nil

	case *ast.Decl:
		if m.typ, err = g.typeRef(d.Type); err == nil {
			m.layers, err = g.aliasLayers(d.Type)
		}

	case *ast.PointerDecl:
		elem = d.Type
		m.layers = []string{"opt"}

	case *ast.OpaqueDecl:
		var size int64
		size, err = g.length(d.Size)
		m.typ = ArrayOf(size, Builtin("byte"))
		m.layers = []string{"opaque"}

	case *ast.VarOpaqueDecl:
		m.typ = SliceOf(Builtin("byte"))
		m.layers, err = g.bound(d.Bound)
		m.layers = append(m.layers, "opaque")

	case *ast.StringDecl:
		// The bound is not carried into the generated type
		m.typ = Builtin("string")

	case *ast.ArrayDecl:
		var size int64
		if size, err = g.length(d.Size); err == nil {
			var et TypeRef
			et, err = g.typeRef(d.Type)
			m.typ = ArrayOf(size, et)
			m.layers = []string{""}
			elem = d.Type
		}

	case *ast.VarArrayDecl:
		if m.layers, err = g.bound(d.Bound); err == nil {
			var et TypeRef
			et, err = g.typeRef(d.Type)
			m.typ = SliceOf(et)
			if len(m.layers) == 0 {
				m.layers = []string{""}
			}
			elem = d.Type
		}

	default:
		return m, fmt.Errorf("expected a declaration, found %T", n)
	}

	if err == nil && elem != nil {
		if _, ok := n.(*ast.PointerDecl); ok {
			var et TypeRef
			et, err = g.typeRef(elem)
			m.typ = PointerTo(et)
		}
		if err == nil {
			var inner []string
			inner, err = g.aliasLayers(elem)
			m.layers = append(m.layers, inner...)
		}
	}
	if err != nil {
		return m, fmt.Errorf("%s: %w", m.name, err)
	}
	m.layers = trimLayers(m.layers)
	return m, nil
}

// trimLayers drops trailing empty layers, which the tag parser treats as no-ops
func trimLayers(layers []string) []string {
	for len(layers) > 0 && layers[len(layers)-1] == "" {
		layers = layers[:len(layers)-1]
	}
	if len(layers) == 0 {
		return nil
	}
	return layers
}

// aliasLayers returns the tag layers a typedef needs wherever it is used. A
// Go alias cannot carry a tag, so the opaque, opt and maxlen layers of the
// aliased declaration are repeated on every field, arm and argument naming it
func (g *generator) aliasLayers(n ast.Node) ([]string, error) {
	id, ok := n.(*ast.Ident)
	if !ok {
		return nil, nil
	}
	td, ok := g.syms.typedefs[id.Name]
	if !ok {
		return nil, nil
	}
	if layers, ok := g.aliases[id.Name]; ok {
		return layers, nil
	}
	if g.resolving[id.Name] {
		return nil, fmt.Errorf("typedef %s refers to itself", id.Name)
	}

	g.resolving[id.Name] = true
	g.muted++
	m, err := g.member(td.Decl)
	g.muted--
	delete(g.resolving, id.Name)
	if err != nil {
		return nil, fmt.Errorf("typedef %s: %w", id.Name, err)
	}

	g.aliases[id.Name] = m.layers
	return m.layers, nil
}

// length resolves a fixed size
func (g *generator) length(n ast.Node) (int64, error) {
	v, err := g.syms.resolve(n)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("size %d out of range", v)
	}
	return v, nil
}

// bound resolves an optional variable length bound to its tag layer
func (g *generator) bound(n ast.Node) ([]string, error) {
	if n == nil {
		return nil, nil
	}
	v, err := g.length(n)
	if err != nil {
		return nil, err
	}
	return []string{"maxlen:" + strconv.FormatInt(v, 10)}, nil
}

// extendedShape returns the part of a member which needs the extended coder
func extendedShape(t TypeRef, layers []string) string {
	for _, l := range layers {
		switch l {
		case "opt":
			return "optional data"
		case "opaque":
			return "opaque data"
		}
	}
	switch t.Kind {
	case BuiltinType:
		if t.Name == "bool" || t.Name == "string" {
			return t.Name
		}
	case ArrayType:
		return "a fixed length array"
	case SliceType:
		return extendedShape(*t.Elem, nil)
	}
	return ""
}

func (g *generator) checkShape(name string, m member) {
	if !g.strict {
		return
	}
	if shape := extendedShape(m.typ, m.layers); shape != "" {
		g.warn("%s uses %s, which only a coder with extended types accepts", name, shape)
	}
}

// fields tracks the field names of one struct, rejecting duplicates
type fields map[string]bool

func (f fields) add(name string) error {
	if err := checkIdent(name); err != nil {
		return err
	}
	if f[name] {
		return fmt.Errorf("duplicate field %s", name)
	}
	f[name] = true
	return nil
}

//
// Definitions
//

func (g *generator) constant(s Sink, c *ast.ConstantDef) error {
	if err := checkIdent(c.ID.Name); err != nil {
		return err
	}
	s.Const(c.ID.Name, c.Value.Value)
	return nil
}

func (g *generator) typedef(s Sink, t *ast.TypeDef) error {
	m, err := g.member(t.Decl)
	if err != nil {
		return err
	}
	if m.void() {
		return fmt.Errorf("cannot alias void")
	}

	name := MapName(m.name)
	if err := checkIdent(name); err != nil {
		return err
	}
	g.checkShape(name, m)
	s.Alias(name, m.typ)
	return nil
}

func (g *generator) enum(s Sink, e *ast.EnumDef) error {
	name := MapName(e.ID.Name)
	if err := checkIdent(name); err != nil {
		return err
	}

	s.OpenBlock(EnumBlock, name)
	prev := int64(-1)
	for _, m := range e.Members {
		if err := checkIdent(m.Name.Name); err != nil {
			return err
		}
		v, err := g.syms.memberValue(m, prev)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name.Name, err)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("%s: value %d does not fit in an int32", m.Name.Name, v)
		}
		s.Member(m.Name.Name, v)
		prev = v
	}
	s.CloseBlock()
	return nil
}

func (g *generator) structure(s Sink, d *ast.StructDef) error {
	name := MapName(d.ID.Name)
	if err := checkIdent(name); err != nil {
		return err
	}

	seen := fields{}
	s.OpenBlock(StructBlock, name)
	for _, f := range d.Fields {
		m, err := g.member(f)
		if err != nil {
			return err
		}
		if m.void() {
			continue
		}

		fname := exportName(m.name)
		if err := seen.add(fname); err != nil {
			return err
		}
		g.checkShape(fname, m)
		s.Field(fname, m.typ, m.tag())
	}
	s.CloseBlock()
	return nil
}

// discriminant checks the union switch declaration
func (g *generator) discriminant(n ast.Node) (member, error) {
	d, ok := n.(*ast.Decl)
	if !ok {
		return member{}, fmt.Errorf("union discriminant must be a simple declaration")
	}
	switch t := d.Type.(type) {
	case *ast.Type:
		switch t.Primitive {
		case ast.Int, ast.UnsignedInt, ast.Bool:
		default:
			return member{}, fmt.Errorf("union discriminant cannot be %s", t.Primitive)
		}
	case *ast.Ident:
	default:
		return member{}, fmt.Errorf("union discriminant must be an int, unsigned int, bool or enum")
	}
	return g.member(d)
}

// label resolves a case label to a value which fits a 32 bit discriminant
func (g *generator) label(n ast.Node) (string, int64, error) {
	v, err := g.syms.resolve(n)
	if err != nil {
		return "", 0, err
	}
	if v < math.MinInt32 || v > math.MaxUint32 {
		return "", 0, fmt.Errorf("case label %d out of range", v)
	}
	if id, ok := n.(*ast.Ident); ok {
		return id.Name, v, nil
	}
	return "", v, nil
}

func (g *generator) union(s Sink, u *ast.UnionDef) error {
	name := MapName(u.ID.Name)
	if err := checkIdent(name); err != nil {
		return err
	}

	disc, err := g.discriminant(u.Discriminant)
	if err != nil {
		return err
	}

	seen := fields{}
	s.OpenBlock(StructBlock, name)

	dname := exportName(disc.name)
	if err := seen.add(dname); err != nil {
		return err
	}
	s.Field(dname, disc.typ, "union:switch")

	for _, c := range u.Cases {
		m, err := g.member(c.Decl)
		if err != nil {
			return err
		}

		// Every label is a variant of its own
		for _, lv := range c.Values {
			label, v, err := g.label(lv)
			if err != nil {
				return err
			}

			fname := exportName(m.name)
			if m.void() || len(c.Values) > 1 {
				if m.void() {
					fname = "Case"
				}
				fname += labelName(label, v)
			}
			if err := seen.add(fname); err != nil {
				return err
			}
			g.checkShape(fname, m)
			s.Field(fname, m.typ, m.tag("union:"+strconv.FormatInt(v, 10)))
		}
	}

	if u.Default != nil {
		m, err := g.member(u.Default)
		if err != nil {
			return err
		}
		if err := seen.add("Default"); err != nil {
			return err
		}
		g.checkShape("Default", m)
		s.Comment("Default arm of the union")
		s.Field("Default", m.typ, m.tag("union:default"))
	}

	s.CloseBlock()
	return nil
}
