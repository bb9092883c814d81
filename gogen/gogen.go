// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package gogen renders generator output as Go source using jennifer
package gogen

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"

	"go.e43.eu/xdrc/codegen"
)

const xdrcPath = "go.e43.eu/xdrc"

// Header is the comment generated files start with
const Header = "Code generated by xdrc. DO NOT EDIT."

type member struct {
	name  string
	value int64
}

type block struct {
	kind    codegen.BlockKind
	name    string
	items   []jen.Code
	members []member
}

// File is a codegen.Sink which builds one Go source file
type File struct {
	f     *jen.File
	stack []*block
}

var _ codegen.Sink = (*File)(nil)

// NewFile creates a file for package pkg
func NewFile(pkg string) *File {
	f := jen.NewFile(pkg)
	f.HeaderComment(Header)
	f.ImportName(xdrcPath, "xdrc")
	return &File{f: f}
}

// Render writes the formatted source
func (f *File) Render(w io.Writer) error {
	if len(f.stack) != 0 {
		return fmt.Errorf("%s %s was not closed", f.top().kind, f.top().name)
	}
	return f.f.Render(w)
}

func (f *File) top() *block {
	if len(f.stack) == 0 {
		return nil
	}
	return f.stack[len(f.stack)-1]
}

// body returns the open struct or interface block, if any
func (f *File) body() *block {
	if b := f.top(); b != nil && b.kind != codegen.NamespaceBlock {
		return b
	}
	return nil
}

func typeCode(t codegen.TypeRef) jen.Code {
	switch t.Kind {
	case codegen.BuiltinType, codegen.NamedType:
		return jen.Id(t.Name)
	case codegen.UnsupportedType:
		return jen.Qual(xdrcPath, "Unsupported")
	case codegen.VoidType:
		return jen.Struct()
	case codegen.SliceType:
		return jen.Index().Add(typeCode(*t.Elem))
	case codegen.ArrayType:
		return jen.Index(jen.Lit(int(t.Len))).Add(typeCode(*t.Elem))
	case codegen.PointerType:
		return jen.Op("*").Add(typeCode(*t.Elem))
	}
	panic(fmt.Sprintf("gogen: unknown type kind %d", t.Kind))
}

func (f *File) Comment(text string) {
	if b := f.body(); b != nil {
		b.items = append(b.items, jen.Comment(text))
		return
	}
	f.f.Comment(text)
}

func (f *File) Const(name string, value int64) {
	f.f.Const().Id(name).Op("=").Lit(int(value))
}

func (f *File) Alias(name string, t codegen.TypeRef) {
	f.f.Type().Id(name).Op("=").Add(typeCode(t))
}

func (f *File) OpenBlock(kind codegen.BlockKind, name string) {
	if kind == codegen.NamespaceBlock {
		f.f.Commentf("Namespace %s", name)
	}
	f.stack = append(f.stack, &block{kind: kind, name: name})
}

func (f *File) Field(name string, t codegen.TypeRef, tag string) {
	field := jen.Id(name).Add(typeCode(t))
	if tag != "" {
		field.Tag(map[string]string{"xdr": tag})
	}
	b := f.body()
	b.items = append(b.items, field)
}

func (f *File) Member(name string, value int64) {
	b := f.body()
	b.members = append(b.members, member{name, value})
}

func (f *File) Handler(name string, params []codegen.Param, result *codegen.TypeRef) {
	ps := make([]jen.Code, len(params))
	for i, p := range params {
		ps[i] = jen.Id(p.Name).Add(typeCode(p.Type))
	}

	m := jen.Id(name).Params(ps...)
	if result == nil {
		m.Error()
	} else {
		m.Params(typeCode(*result), jen.Error())
	}
	b := f.body()
	b.items = append(b.items, m)
}

func (f *File) CloseBlock() {
	b := f.top()
	f.stack = f.stack[:len(f.stack)-1]

	switch b.kind {
	case codegen.StructBlock:
		f.f.Type().Id(b.name).Struct(b.items...)
	case codegen.InterfaceBlock:
		f.f.Type().Id(b.name).Interface(b.items...)
	case codegen.EnumBlock:
		f.enum(b)
	}
}

func (f *File) enum(b *block) {
	f.f.Type().Id(b.name).Int32()

	defs := make([]jen.Code, len(b.members))
	variants := make([]jen.Code, len(b.members))
	for i, m := range b.members {
		defs[i] = jen.Id(m.name).Id(b.name).Op("=").Lit(int(m.value))
		variants[i] = jen.Int32().Call(jen.Id(m.name))
	}
	if len(defs) > 0 {
		f.f.Const().Defs(defs...)
	}

	f.f.Comment("XDRVariants lists the members in declaration order")
	f.f.Func().Params(jen.Id(b.name)).Id("XDRVariants").Params().Index().Int32().Block(
		jen.Return(jen.Index().Int32().Values(variants...)),
	)
}

func unavailable() jen.Code {
	return jen.Return(jen.Nil(), jen.Qual(xdrcPath, "ErrProcUnavailable"))
}

func (f *File) Dispatch(d *codegen.Dispatch) {
	var versions []jen.Code
	for _, v := range d.Versions {
		var procs []jen.Code
		for _, p := range v.Procs {
			procs = append(procs, jen.Case(jen.Lit(int(p.Case))).Block(dispatchProc(v, p)...))
		}
		procs = append(procs, jen.Default().Block(unavailable()))

		versions = append(versions, jen.Case(jen.Lit(int(v.Case))).Block(
			jen.Id("res").Dot(v.Field).Dot("Proc").Op("=").Id("req").Dot(v.Field).Dot("Proc"),
			jen.Switch(jen.Id("req").Dot(v.Field).Dot("Proc")).Block(procs...),
		))
	}
	versions = append(versions, jen.Default().Block(unavailable()))

	f.f.Commentf("%s calls the handler on srv which serves the version and procedure req selects", d.Func)
	f.f.Func().Id(d.Func).Params(
		jen.Id("srv").Id(d.Service),
		jen.Id("req").Op("*").Id(d.Request),
	).Params(jen.Op("*").Id(d.Response), jen.Error()).Block(
		jen.Id("res").Op(":=").Op("&").Id(d.Response).Values(jen.Dict{
			jen.Id("Version"): jen.Id("req").Dot("Version"),
		}),
		jen.Switch(jen.Id("req").Dot("Version")).Block(versions...),
		jen.Return(jen.Id("res"), jen.Nil()),
	)
}

func dispatchProc(v codegen.DispatchVersion, p codegen.DispatchProc) []jen.Code {
	args := make([]jen.Code, len(p.Args))
	for i, a := range p.Args {
		arg := jen.Id("req").Dot(v.Field).Dot(p.Field)
		if a != "" {
			arg.Dot(a)
		}
		args[i] = arg
	}
	call := jen.Id("srv").Dot(p.Handler).Call(args...)

	if p.Void {
		return []jen.Code{
			jen.If(jen.Err().Op(":=").Add(call), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
		}
	}
	return []jen.Code{
		jen.List(jen.Id("r"), jen.Err()).Op(":=").Add(call),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Id("res").Dot(v.Field).Dot(p.Field).Op("=").Id("r"),
	}
}
