// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package ast defines the syntax tree produced by the XDR IDL parser
//
// Every node exclusively owns its children. Member, field, case and argument
// slices are kept in source order; that order is the wire order and nothing
// downstream may reorder it.
package ast

// Node is implemented by every syntax tree node
type Node interface {
	node()
}

// Primitive identifies a built in XDR scalar type
type Primitive int

const (
	Bool Primitive = iota
	Int
	UnsignedInt
	Hyper
	UnsignedHyper
	Float
	Double
	Quadruple
)

var primitiveNames = [...]string{
	Bool:          "bool",
	Int:           "int",
	UnsignedInt:   "unsigned int",
	Hyper:         "hyper",
	UnsignedHyper: "unsigned hyper",
	Float:         "float",
	Double:        "double",
	Quadruple:     "quadruple",
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return "Primitive(?)"
	}
	return primitiveNames[p]
}

// Constant is a numeric literal
type Constant struct {
	Value int64
}

// Type is a built in type specifier
type Type struct {
	Primitive Primitive
}

// Ident is an identifier reference or definition name
type Ident struct {
	Name string
}

// Blank is a run of whitespace at the top level, or an enum member without
// an explicit value
type Blank struct{}

// VoidDecl is the void declaration. It occupies no bytes on the wire
type VoidDecl struct{}

// Comment holds a top level // comment, including the leading slashes
type Comment struct {
	Text string
}

// CodeSnippet holds a top level % pass-through line
type CodeSnippet struct {
	Text string
}

// Decl is `type id`
type Decl struct {
	Type Node
	ID   *Ident
}

// PointerDecl is `type *id`
type PointerDecl struct {
	Type Node
	ID   *Ident
}

// OpaqueDecl is `opaque id[size]`
type OpaqueDecl struct {
	ID   *Ident
	Size Node
}

// VarOpaqueDecl is `opaque id<bound>`. Bound is nil when omitted
type VarOpaqueDecl struct {
	ID    *Ident
	Bound Node
}

// StringDecl is `string id<bound>`. Bound is nil when omitted
type StringDecl struct {
	ID    *Ident
	Bound Node
}

// ArrayDecl is `type id[size]`
type ArrayDecl struct {
	Type Node
	ID   *Ident
	Size Node
}

// VarArrayDecl is `type id<bound>`. Bound is nil when omitted
type VarArrayDecl struct {
	Type  Node
	ID    *Ident
	Bound Node
}

// EnumMember is one `name = value` entry. Value is a *Constant, an *Ident or
// a *Blank when no value was given
type EnumMember struct {
	Name  *Ident
	Value Node
}

// UnionCase is one arm of a union; Values holds every label which shares the
// arm's declaration
type UnionCase struct {
	Values []Node
	Decl   Node
}

// EnumDef is `enum id { ... };`
type EnumDef struct {
	ID      *Ident
	Members []EnumMember
}

// StructDef is `struct id { ... };`
type StructDef struct {
	ID     *Ident
	Fields []Node
}

// UnionDef is `union id switch (decl) { ... };`. Default is nil when the
// union has no default arm
type UnionDef struct {
	ID           *Ident
	Discriminant Node
	Cases        []UnionCase
	Default      Node
}

// EnumType is an anonymous enum used as a type specifier
type EnumType struct {
	Members []EnumMember
}

// StructType is an anonymous struct used as a type specifier
type StructType struct {
	Fields []Node
}

// UnionType is an anonymous union used as a type specifier
type UnionType struct {
	Discriminant Node
	Cases        []UnionCase
	Default      Node
}

// ConstantDef is `const id = value;`
type ConstantDef struct {
	ID    *Ident
	Value *Constant
}

// TypeDef is `typedef decl;`
type TypeDef struct {
	Decl Node
}

// Program is `program id { versions } = number;`
type Program struct {
	Name     *Ident
	Number   *Constant
	Versions []*Version
}

// Version is `version id { procs } = number;`
type Version struct {
	Name   *Ident
	Number *Constant
	Procs  []*Proc
}

// Proc is `ret id(args) = number;`. Return is a type specifier or *VoidDecl.
// Each argument is a type specifier, a *Decl when the argument is named, or
// *VoidDecl
type Proc struct {
	Return Node
	Name   *Ident
	Args   []Node
	Number *Constant
}

// Namespace is `namespace id { programs };`
type Namespace struct {
	Name     *Ident
	Programs []*Program
}

func (*Constant) node()      {}
func (*Type) node()          {}
func (*Ident) node()         {}
func (*Blank) node()         {}
func (*VoidDecl) node()      {}
func (*Comment) node()       {}
func (*CodeSnippet) node()   {}
func (*Decl) node()          {}
func (*PointerDecl) node()   {}
func (*OpaqueDecl) node()    {}
func (*VarOpaqueDecl) node() {}
func (*StringDecl) node()    {}
func (*ArrayDecl) node()     {}
func (*VarArrayDecl) node()  {}
func (*EnumDef) node()       {}
func (*StructDef) node()     {}
func (*UnionDef) node()      {}
func (*EnumType) node()      {}
func (*StructType) node()    {}
func (*UnionType) node()     {}
func (*ConstantDef) node()   {}
func (*TypeDef) node()       {}
func (*Program) node()       {}
func (*Version) node()       {}
func (*Proc) node()          {}
func (*Namespace) node()     {}

// DeclName returns the identifier declared by a declaration node, or nil for
// void and non-declaration nodes
func DeclName(n Node) *Ident {
	switch d := n.(type) {
	case *Decl:
		return d.ID
	case *PointerDecl:
		return d.ID
	case *OpaqueDecl:
		return d.ID
	case *VarOpaqueDecl:
		return d.ID
	case *StringDecl:
		return d.ID
	case *ArrayDecl:
		return d.ID
	case *VarArrayDecl:
		return d.ID
	}
	return nil
}

// DefName returns the name of a top level definition, or "" for nodes which
// define nothing
func DefName(n Node) string {
	var id *Ident
	switch d := n.(type) {
	case *EnumDef:
		id = d.ID
	case *StructDef:
		id = d.ID
	case *UnionDef:
		id = d.ID
	case *ConstantDef:
		id = d.ID
	case *TypeDef:
		id = DeclName(d.Decl)
	case *Program:
		id = d.Name
	case *Namespace:
		id = d.Name
	}
	if id == nil {
		return ""
	}
	return id.Name
}
