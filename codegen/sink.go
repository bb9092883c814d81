// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
)

// BlockKind selects what a block opened on a Sink declares
type BlockKind int

const (
	// StructBlock declares a struct type; its body is Field and Comment calls
	StructBlock BlockKind = iota
	// EnumBlock declares an int32 enumeration; its body is Member calls
	EnumBlock
	// InterfaceBlock declares a service interface; its body is Handler calls
	InterfaceBlock
	// NamespaceBlock groups the declarations of a namespace
	NamespaceBlock
)

func (k BlockKind) String() string {
	switch k {
	case StructBlock:
		return "struct"
	case EnumBlock:
		return "enum"
	case InterfaceBlock:
		return "interface"
	case NamespaceBlock:
		return "namespace"
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

// TypeKind identifies the shape of a TypeRef
type TypeKind int

const (
	// BuiltinType is a predeclared Go type named by Name
	BuiltinType TypeKind = iota
	// NamedType is a type generated from the IDL, named by Name
	NamedType
	// UnsupportedType is the placeholder emitted for unmapped IDL types
	UnsupportedType
	// VoidType is the empty struct
	VoidType
	SliceType
	ArrayType
	PointerType
)

// TypeRef describes a Go type to a Sink
type TypeRef struct {
	Kind TypeKind
	Name string
	Len  int64
	Elem *TypeRef
}

func Builtin(name string) TypeRef { return TypeRef{Kind: BuiltinType, Name: name} }
func Named(name string) TypeRef   { return TypeRef{Kind: NamedType, Name: name} }
func Void() TypeRef               { return TypeRef{Kind: VoidType} }
func SliceOf(t TypeRef) TypeRef   { return TypeRef{Kind: SliceType, Elem: &t} }
func PointerTo(t TypeRef) TypeRef { return TypeRef{Kind: PointerType, Elem: &t} }

func ArrayOf(n int64, t TypeRef) TypeRef {
	return TypeRef{Kind: ArrayType, Len: n, Elem: &t}
}

// String renders the type in Go syntax
func (t TypeRef) String() string {
	switch t.Kind {
	case BuiltinType, NamedType:
		return t.Name
	case UnsupportedType:
		return "xdrc.Unsupported"
	case VoidType:
		return "struct{}"
	case SliceType:
		return "[]" + t.Elem.String()
	case ArrayType:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem)
	case PointerType:
		return "*" + t.Elem.String()
	}
	return "?"
}

// Param is a named handler parameter
type Param struct {
	Name string
	Type TypeRef
}

// Dispatch describes a function which routes a program request to the
// handler of a service
type Dispatch struct {
	Func     string
	Service  string
	Request  string
	Response string
	Versions []DispatchVersion
}

// DispatchVersion is one arm of the version switch
type DispatchVersion struct {
	// Case is compared against the Version discriminant
	Case int64
	// Field holds the version's request and response
	Field string
	Procs []DispatchProc
}

// DispatchProc is one arm of a version's procedure switch
type DispatchProc struct {
	// Case is compared against the Proc discriminant
	Case int64
	// Field holds the procedure's arguments and result
	Field   string
	Handler string
	// Args lists the argument fields to pass in order. An empty string
	// passes Field itself
	Args []string
	// Void is set when the handler returns only an error
	Void bool
}

// Sink receives the structured output of the generator and renders it
//
// Blocks nest; every OpenBlock is matched by a CloseBlock. Comment applies
// to the declaration or field which follows it.
type Sink interface {
	Comment(text string)
	Const(name string, value int64)
	Alias(name string, t TypeRef)
	OpenBlock(kind BlockKind, name string)
	Field(name string, t TypeRef, tag string)
	Member(name string, value int64)
	Handler(name string, params []Param, result *TypeRef)
	Dispatch(d *Dispatch)
	CloseBlock()
}

// buffer is a Sink which holds calls until they are replayed onto another
// Sink. A definition is generated into a buffer so that a failure part way
// through leaves nothing behind
type buffer []func(Sink)

func (b *buffer) add(f func(Sink)) { *b = append(*b, f) }

func (b *buffer) Comment(text string) {
	b.add(func(s Sink) { s.Comment(text) })
}

func (b *buffer) Const(name string, value int64) {
	b.add(func(s Sink) { s.Const(name, value) })
}

func (b *buffer) Alias(name string, t TypeRef) {
	b.add(func(s Sink) { s.Alias(name, t) })
}

func (b *buffer) OpenBlock(kind BlockKind, name string) {
	b.add(func(s Sink) { s.OpenBlock(kind, name) })
}

func (b *buffer) Field(name string, t TypeRef, tag string) {
	b.add(func(s Sink) { s.Field(name, t, tag) })
}

func (b *buffer) Member(name string, value int64) {
	b.add(func(s Sink) { s.Member(name, value) })
}

func (b *buffer) Handler(name string, params []Param, result *TypeRef) {
	b.add(func(s Sink) { s.Handler(name, params, result) })
}

func (b *buffer) Dispatch(d *Dispatch) {
	b.add(func(s Sink) { s.Dispatch(d) })
}

func (b *buffer) CloseBlock() {
	b.add(func(s Sink) { s.CloseBlock() })
}

func (b buffer) replay(s Sink) {
	for _, f := range b {
		f(s)
	}
}
