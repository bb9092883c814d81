// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package parser turns XDR IDL source into an ast syntax tree
//
// The grammar is an ordered choice grammar: at every alternation point the
// alternatives are tried in a fixed order, each restarting at the same
// offset, and the first one that matches wins. The orders are listed at the
// alternation points below.
//
// Inside a definition whitespace and // comments between tokens are ignored.
// At the top level they are kept as Blank and Comment nodes, and lines
// starting with % become CodeSnippet nodes.
package parser

import (
	"bytes"
	"math"
	"strconv"

	"go.e43.eu/xdrc/ast"
)

type rule func(p *parser) (ast.Node, bool)

type parser struct {
	src []byte
	pos int
}

// Parse parses an entire IDL source file. It returns false if the grammar
// does not consume all of src; no partial result is returned.
func Parse(src []byte) ([]ast.Node, bool) {
	p := &parser{src: src}
	nodes := []ast.Node{}
	for p.pos < len(p.src) {
		n, ok := p.first(
			(*parser).typedefDef,
			(*parser).constDef,
			(*parser).enumDef,
			(*parser).unionDef,
			(*parser).structDef,
			(*parser).programDef,
			(*parser).namespaceDef,
			(*parser).comment,
			(*parser).codeSnippet,
			(*parser).blank,
		)
		if !ok {
			return nil, false
		}
		nodes = append(nodes, n)
	}
	return nodes, true
}

// first tries each alternative in order from the current offset
func (p *parser) first(alts ...rule) (ast.Node, bool) {
	start := p.pos
	for _, alt := range alts {
		if n, ok := alt(p); ok {
			return n, true
		}
		p.pos = start
	}
	return nil, false
}

//
// Lexical helpers
//

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isIdent(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func span(b []byte, pred func(byte) bool) int {
	n := 0
	for n < len(b) && pred(b[n]) {
		n++
	}
	return n
}

func (p *parser) rest() []byte {
	return p.src[p.pos:]
}

// lineEnd returns the offset just past the next newline, or the end of input
func (p *parser) lineEnd() int {
	if i := bytes.IndexByte(p.rest(), '\n'); i >= 0 {
		return p.pos + i + 1
	}
	return len(p.src)
}

// skip passes over whitespace and // comments
func (p *parser) skip() {
	for p.pos < len(p.src) {
		switch {
		case isSpace(p.src[p.pos]):
			p.pos++
		case bytes.HasPrefix(p.rest(), []byte("//")):
			p.pos = p.lineEnd()
		default:
			return
		}
	}
}

// word matches kw at the current offset. The match must end at an identifier
// boundary, so "int" does not match the start of "integer"
func (p *parser) word(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.src) || string(p.src[p.pos:end]) != kw {
		return false
	}
	if end < len(p.src) && isIdent(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *parser) keyword(kw string) bool {
	p.skip()
	return p.word(kw)
}

func (p *parser) keywords(kws ...string) bool {
	for _, kw := range kws {
		if !p.keyword(kw) {
			return false
		}
	}
	return true
}

func (p *parser) punct(s string) bool {
	p.skip()
	if !bytes.HasPrefix(p.rest(), []byte(s)) {
		return false
	}
	p.pos += len(s)
	return true
}

func (p *parser) ident() (*ast.Ident, bool) {
	p.skip()
	n := span(p.rest(), isIdent)
	if n == 0 {
		return nil, false
	}
	id := &ast.Ident{Name: string(p.src[p.pos : p.pos+n])}
	p.pos += n
	return id, true
}

func (p *parser) identNode() (ast.Node, bool) {
	id, ok := p.ident()
	return id, ok
}

//
// Values
//

// constant alternatives: hex (0x), octal (0 followed by at least one octal
// digit), decimal. A leading - negates. Literals outside the int64 range do
// not match.
func (p *parser) constant() (*ast.Constant, bool) {
	p.skip()
	neg := false
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		neg = true
		p.pos++
	}

	rest := p.rest()
	var digits []byte
	base := 10
	switch {
	case len(rest) > 2 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') && isHex(rest[2]):
		digits = rest[2 : 2+span(rest[2:], isHex)]
		base = 16
		p.pos += 2 + len(digits)
	case len(rest) > 1 && rest[0] == '0' && isOctal(rest[1]):
		digits = rest[1 : 1+span(rest[1:], isOctal)]
		base = 8
		p.pos += 1 + len(digits)
	default:
		digits = rest[:span(rest, isDigit)]
		p.pos += len(digits)
	}
	if len(digits) == 0 {
		return nil, false
	}

	u, err := strconv.ParseUint(string(digits), base, 64)
	if err != nil {
		return nil, false
	}
	switch {
	case !neg && u <= math.MaxInt64:
		return &ast.Constant{Value: int64(u)}, true
	case neg && u <= 1<<63:
		return &ast.Constant{Value: -int64(u)}, true
	}
	return nil, false
}

func (p *parser) constantNode() (ast.Node, bool) {
	c, ok := p.constant()
	return c, ok
}

// value alternatives: constant, identifier
func (p *parser) value() (ast.Node, bool) {
	return p.first((*parser).constantNode, (*parser).identNode)
}

//
// Types
//

var builtinTypes = []struct {
	words []string
	prim  ast.Primitive
}{
	{[]string{"unsigned", "int"}, ast.UnsignedInt},
	{[]string{"int"}, ast.Int},
	{[]string{"unsigned", "hyper"}, ast.UnsignedHyper},
	{[]string{"hyper"}, ast.Hyper},
	{[]string{"float"}, ast.Float},
	{[]string{"double"}, ast.Double},
	{[]string{"quadruple"}, ast.Quadruple},
	{[]string{"bool"}, ast.Bool},
	{[]string{"u_int32_t"}, ast.UnsignedInt},
	{[]string{"int32_t"}, ast.Int},
	{[]string{"u_int64_t"}, ast.UnsignedHyper},
}

// typeSpec alternatives: the builtin types in table order, then inline enum,
// inline struct, inline union, identifier
func (p *parser) typeSpec() (ast.Node, bool) {
	start := p.pos
	for _, b := range builtinTypes {
		if p.keywords(b.words...) {
			return &ast.Type{Primitive: b.prim}, true
		}
		p.pos = start
	}
	return p.first(
		(*parser).enumType,
		(*parser).structType,
		(*parser).unionType,
		(*parser).identNode,
	)
}

func (p *parser) enumType() (ast.Node, bool) {
	if !p.keyword("enum") {
		return nil, false
	}
	members, ok := p.enumBody()
	if !ok {
		return nil, false
	}
	return &ast.EnumType{Members: members}, true
}

func (p *parser) structType() (ast.Node, bool) {
	if !p.keyword("struct") {
		return nil, false
	}
	fields, ok := p.structBody()
	if !ok {
		return nil, false
	}
	return &ast.StructType{Fields: fields}, true
}

func (p *parser) unionType() (ast.Node, bool) {
	if !p.keyword("union") {
		return nil, false
	}
	u, ok := p.unionBody()
	if !ok {
		return nil, false
	}
	return u, true
}

//
// Declarations
//

// declaration alternatives: fixed opaque, variable opaque, string, fixed
// array, variable array, pointer, simple, void
func (p *parser) declaration() (ast.Node, bool) {
	return p.first(
		(*parser).opaqueFixed,
		(*parser).opaqueVar,
		(*parser).stringVar,
		(*parser).arrayFixed,
		(*parser).arrayVar,
		(*parser).pointerDecl,
		(*parser).simpleDecl,
		(*parser).voidDecl,
	)
}

// fixedSize matches [value]
func (p *parser) fixedSize() (ast.Node, bool) {
	if !p.punct("[") {
		return nil, false
	}
	v, ok := p.value()
	if !ok || !p.punct("]") {
		return nil, false
	}
	return v, true
}

// varBound matches <value> or <>. The bound is nil when omitted
func (p *parser) varBound() (ast.Node, bool) {
	if !p.punct("<") {
		return nil, false
	}
	v, _ := p.value()
	if !p.punct(">") {
		return nil, false
	}
	return v, true
}

func (p *parser) opaqueFixed() (ast.Node, bool) {
	if !p.keyword("opaque") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	size, ok := p.fixedSize()
	if !ok {
		return nil, false
	}
	return &ast.OpaqueDecl{ID: id, Size: size}, true
}

func (p *parser) opaqueVar() (ast.Node, bool) {
	if !p.keyword("opaque") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	bound, ok := p.varBound()
	if !ok {
		return nil, false
	}
	return &ast.VarOpaqueDecl{ID: id, Bound: bound}, true
}

func (p *parser) stringVar() (ast.Node, bool) {
	if !p.keyword("string") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	bound, ok := p.varBound()
	if !ok {
		return nil, false
	}
	return &ast.StringDecl{ID: id, Bound: bound}, true
}

// typed matches `type id`, the common prefix of the array, pointer and simple
// declarations. The pointer form has a * between the two
func (p *parser) typed(pointer bool) (ast.Node, *ast.Ident, bool) {
	ty, ok := p.typeSpec()
	if !ok {
		return nil, nil, false
	}
	if pointer && !p.punct("*") {
		return nil, nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, nil, false
	}
	return ty, id, true
}

func (p *parser) arrayFixed() (ast.Node, bool) {
	ty, id, ok := p.typed(false)
	if !ok {
		return nil, false
	}
	size, ok := p.fixedSize()
	if !ok {
		return nil, false
	}
	return &ast.ArrayDecl{Type: ty, ID: id, Size: size}, true
}

func (p *parser) arrayVar() (ast.Node, bool) {
	ty, id, ok := p.typed(false)
	if !ok {
		return nil, false
	}
	bound, ok := p.varBound()
	if !ok {
		return nil, false
	}
	return &ast.VarArrayDecl{Type: ty, ID: id, Bound: bound}, true
}

func (p *parser) pointerDecl() (ast.Node, bool) {
	ty, id, ok := p.typed(true)
	if !ok {
		return nil, false
	}
	return &ast.PointerDecl{Type: ty, ID: id}, true
}

func (p *parser) simpleDecl() (ast.Node, bool) {
	ty, id, ok := p.typed(false)
	if !ok {
		return nil, false
	}
	return &ast.Decl{Type: ty, ID: id}, true
}

func (p *parser) voidDecl() (ast.Node, bool) {
	if !p.keyword("void") {
		return nil, false
	}
	return &ast.VoidDecl{}, true
}

//
// Bodies
//

// enumBody matches { (id [= value] ,?)* }
func (p *parser) enumBody() ([]ast.EnumMember, bool) {
	if !p.punct("{") {
		return nil, false
	}
	members := []ast.EnumMember{}
	for !p.punct("}") {
		name, ok := p.ident()
		if !ok {
			return nil, false
		}
		var val ast.Node = &ast.Blank{}
		if p.punct("=") {
			if val, ok = p.value(); !ok {
				return nil, false
			}
		}
		members = append(members, ast.EnumMember{Name: name, Value: val})
		p.punct(",")
	}
	return members, true
}

// structBody matches { (declaration ;)* }
func (p *parser) structBody() ([]ast.Node, bool) {
	if !p.punct("{") {
		return nil, false
	}
	fields := []ast.Node{}
	for !p.punct("}") {
		d, ok := p.declaration()
		if !ok || !p.punct(";") {
			return nil, false
		}
		fields = append(fields, d)
	}
	return fields, true
}

// unionCase matches (case value :)+ declaration ;
func (p *parser) unionCase() (ast.UnionCase, bool) {
	var c ast.UnionCase
	for {
		mark := p.pos
		if !p.keyword("case") {
			p.pos = mark
			break
		}
		v, ok := p.value()
		if !ok || !p.punct(":") {
			return c, false
		}
		c.Values = append(c.Values, v)
	}
	if len(c.Values) == 0 {
		return c, false
	}

	d, ok := p.declaration()
	if !ok || !p.punct(";") {
		return c, false
	}
	c.Decl = d
	return c, true
}

// unionBody matches switch (declaration) { case+ [default : declaration ;] }
func (p *parser) unionBody() (*ast.UnionType, bool) {
	if !p.keyword("switch") || !p.punct("(") {
		return nil, false
	}
	disc, ok := p.declaration()
	if !ok || !p.punct(")") || !p.punct("{") {
		return nil, false
	}

	u := &ast.UnionType{Discriminant: disc}
	for {
		mark := p.pos
		c, ok := p.unionCase()
		if !ok {
			p.pos = mark
			break
		}
		u.Cases = append(u.Cases, c)
	}
	if len(u.Cases) == 0 {
		return nil, false
	}

	mark := p.pos
	if p.keyword("default") && p.punct(":") {
		d, ok := p.declaration()
		if !ok || !p.punct(";") {
			return nil, false
		}
		u.Default = d
	} else {
		p.pos = mark
	}

	if !p.punct("}") {
		return nil, false
	}
	return u, true
}

//
// Top level definitions
//
// These match their keyword without skipping, so that whitespace and
// comments before them are kept as nodes of their own.
//

func (p *parser) typedefDef() (ast.Node, bool) {
	if !p.word("typedef") {
		return nil, false
	}
	d, ok := p.declaration()
	if !ok || !p.punct(";") {
		return nil, false
	}
	return &ast.TypeDef{Decl: d}, true
}

func (p *parser) constDef() (ast.Node, bool) {
	if !p.word("const") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok || !p.punct("=") {
		return nil, false
	}
	v, ok := p.constant()
	if !ok || !p.punct(";") {
		return nil, false
	}
	return &ast.ConstantDef{ID: id, Value: v}, true
}

func (p *parser) enumDef() (ast.Node, bool) {
	if !p.word("enum") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	members, ok := p.enumBody()
	if !ok || !p.punct(";") {
		return nil, false
	}
	return &ast.EnumDef{ID: id, Members: members}, true
}

func (p *parser) unionDef() (ast.Node, bool) {
	if !p.word("union") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	u, ok := p.unionBody()
	if !ok || !p.punct(";") {
		return nil, false
	}
	return &ast.UnionDef{ID: id, Discriminant: u.Discriminant, Cases: u.Cases, Default: u.Default}, true
}

func (p *parser) structDef() (ast.Node, bool) {
	if !p.word("struct") {
		return nil, false
	}
	id, ok := p.ident()
	if !ok {
		return nil, false
	}
	fields, ok := p.structBody()
	if !ok || !p.punct(";") {
		return nil, false
	}
	return &ast.StructDef{ID: id, Fields: fields}, true
}

func (p *parser) programDef() (ast.Node, bool) {
	if !p.word("program") {
		return nil, false
	}
	prog, ok := p.programRest()
	return prog, ok
}

// programRest matches the remainder of id { version+ } = constant ;
func (p *parser) programRest() (*ast.Program, bool) {
	name, ok := p.ident()
	if !ok || !p.punct("{") {
		return nil, false
	}
	prog := &ast.Program{Name: name}
	for {
		mark := p.pos
		v, ok := p.version()
		if !ok {
			p.pos = mark
			break
		}
		prog.Versions = append(prog.Versions, v)
	}
	if len(prog.Versions) == 0 || !p.punct("}") || !p.punct("=") {
		return nil, false
	}
	if prog.Number, ok = p.constant(); !ok || !p.punct(";") {
		return nil, false
	}
	return prog, true
}

// version matches version id { proc+ } = constant ;
func (p *parser) version() (*ast.Version, bool) {
	if !p.keyword("version") {
		return nil, false
	}
	name, ok := p.ident()
	if !ok || !p.punct("{") {
		return nil, false
	}
	v := &ast.Version{Name: name}
	for {
		mark := p.pos
		pr, ok := p.proc()
		if !ok {
			p.pos = mark
			break
		}
		v.Procs = append(v.Procs, pr)
	}
	if len(v.Procs) == 0 || !p.punct("}") || !p.punct("=") {
		return nil, false
	}
	if v.Number, ok = p.constant(); !ok || !p.punct(";") {
		return nil, false
	}
	return v, true
}

// procReturn alternatives: void, type specifier
func (p *parser) procReturn() (ast.Node, bool) {
	return p.first((*parser).voidDecl, (*parser).typeSpec)
}

// procArg alternatives: void, type specifier with an optional name
func (p *parser) procArg() (ast.Node, bool) {
	return p.first((*parser).voidDecl, (*parser).namedArg)
}

func (p *parser) namedArg() (ast.Node, bool) {
	ty, ok := p.typeSpec()
	if !ok {
		return nil, false
	}
	mark := p.pos
	if id, ok := p.ident(); ok {
		return &ast.Decl{Type: ty, ID: id}, true
	}
	p.pos = mark
	return ty, true
}

// proc matches ret id ( [arg (, arg)*] ) = constant ;
func (p *parser) proc() (*ast.Proc, bool) {
	ret, ok := p.procReturn()
	if !ok {
		return nil, false
	}
	name, ok := p.ident()
	if !ok || !p.punct("(") {
		return nil, false
	}

	pr := &ast.Proc{Return: ret, Name: name, Args: []ast.Node{}}
	mark := p.pos
	if arg, ok := p.procArg(); ok {
		pr.Args = append(pr.Args, arg)
		for p.punct(",") {
			if arg, ok = p.procArg(); !ok {
				return nil, false
			}
			pr.Args = append(pr.Args, arg)
		}
	} else {
		p.pos = mark
	}

	if !p.punct(")") || !p.punct("=") {
		return nil, false
	}
	if pr.Number, ok = p.constant(); !ok || !p.punct(";") {
		return nil, false
	}
	return pr, true
}

func (p *parser) namespaceDef() (ast.Node, bool) {
	if !p.word("namespace") {
		return nil, false
	}
	name, ok := p.ident()
	if !ok || !p.punct("{") {
		return nil, false
	}
	ns := &ast.Namespace{Name: name, Programs: []*ast.Program{}}
	for {
		mark := p.pos
		if !p.keyword("program") {
			p.pos = mark
			break
		}
		prog, ok := p.programRest()
		if !ok {
			return nil, false
		}
		ns.Programs = append(ns.Programs, prog)
	}
	if !p.punct("}") || !p.punct(";") {
		return nil, false
	}
	return ns, true
}

func (p *parser) comment() (ast.Node, bool) {
	if !bytes.HasPrefix(p.rest(), []byte("//")) {
		return nil, false
	}
	return &ast.Comment{Text: p.line()}, true
}

func (p *parser) codeSnippet() (ast.Node, bool) {
	if !bytes.HasPrefix(p.rest(), []byte("%")) {
		return nil, false
	}
	return &ast.CodeSnippet{Text: p.line()}, true
}

// line consumes the rest of the current line and returns it without the
// line terminator
func (p *parser) line() string {
	end := p.lineEnd()
	text := bytes.TrimRight(p.src[p.pos:end], "\r\n")
	p.pos = end
	return string(text)
}

func (p *parser) blank() (ast.Node, bool) {
	n := span(p.rest(), isSpace)
	if n == 0 {
		return nil, false
	}
	p.pos += n
	return &ast.Blank{}, true
}
