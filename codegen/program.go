// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
	"math"
	"strconv"

	"go.e43.eu/xdrc/ast"
)

type procPlan struct {
	name    string
	field   string
	handler string
	number  int64

	// args holds the non-void arguments
	args []member
	// argType carries the arguments in the request union
	argType TypeRef
	// argStruct names the generated struct when there are several arguments
	argStruct string
	result    *TypeRef
	// resultLayers are the tag layers of a typedef'd result
	resultLayers []string
}

type versionPlan struct {
	number int64
	field  string
	req    string
	res    string
	procs  []procPlan
}

func number(c *ast.Constant, what string) (int64, error) {
	if c.Value < 0 || c.Value > math.MaxUint32 {
		return 0, fmt.Errorf("%s number %d out of range", what, c.Value)
	}
	return c.Value, nil
}

func (g *generator) planProc(prog string, version int64, p *ast.Proc, seen fields) (procPlan, error) {
	pp := procPlan{
		name:    p.Name.Name,
		field:   MapName(p.Name.Name),
		handler: handlerName(p.Name.Name, version),
	}

	var err error
	if pp.number, err = number(p.Number, "procedure"); err != nil {
		return pp, err
	}
	if err := seen.add(pp.field); err != nil {
		return pp, err
	}

	if _, void := p.Return.(*ast.VoidDecl); !void {
		t, err := g.typeRef(p.Return)
		if err != nil {
			return pp, fmt.Errorf("%s: %w", pp.name, err)
		}
		pp.result = &t
		if pp.resultLayers, err = g.aliasLayers(p.Return); err != nil {
			return pp, fmt.Errorf("%s: %w", pp.name, err)
		}
	}

	names := fields{}
	for i, a := range p.Args {
		if _, void := a.(*ast.VoidDecl); void {
			continue
		}

		m := member{name: fmt.Sprintf("Arg%d", i)}
		ty := a
		if d, ok := a.(*ast.Decl); ok {
			m.name, ty = exportName(d.ID.Name), d.Type
		}
		if err := names.add(m.name); err != nil {
			return pp, fmt.Errorf("%s: %w", pp.name, err)
		}
		if m.typ, err = g.typeRef(ty); err != nil {
			return pp, fmt.Errorf("%s: %w", pp.name, err)
		}
		if m.layers, err = g.aliasLayers(ty); err != nil {
			return pp, fmt.Errorf("%s: %w", pp.name, err)
		}
		pp.args = append(pp.args, m)
	}

	switch len(pp.args) {
	case 0:
		pp.argType = Void()
	case 1:
		pp.argType = pp.args[0].typ
	default:
		pp.argStruct = fmt.Sprintf("%s%sV%dArgs", prog, pp.field, version)
		pp.argType = Named(pp.argStruct)
	}
	return pp, nil
}

func (g *generator) planProgram(name string, p *ast.Program) ([]versionPlan, error) {
	var versions []versionPlan
	seen := fields{}
	for _, v := range p.Versions {
		n, err := number(v.Number, "version")
		if err != nil {
			return nil, err
		}

		vp := versionPlan{
			number: n,
			field:  fmt.Sprintf("V%d", n),
			req:    fmt.Sprintf("%sRequestV%d", name, n),
			res:    fmt.Sprintf("%sResponseV%d", name, n),
		}
		if err := seen.add(vp.field); err != nil {
			return nil, err
		}

		procs := fields{"Proc": true}
		numbers := map[int64]bool{}
		for _, p := range v.Procs {
			pp, err := g.planProc(name, n, p, procs)
			if err != nil {
				return nil, err
			}
			if numbers[pp.number] {
				return nil, fmt.Errorf("%s: duplicate procedure number %d", pp.name, pp.number)
			}
			numbers[pp.number] = true
			vp.procs = append(vp.procs, pp)
		}
		versions = append(versions, vp)
	}
	return versions, nil
}

// program generates the request and response unions of a program, the
// service interface its implementations satisfy and the function which
// dispatches requests to them
func (g *generator) program(s Sink, p *ast.Program) error {
	name := g.prefix + MapName(p.Name.Name)
	if err := checkIdent(name); err != nil {
		return err
	}
	if _, err := number(p.Number, "program"); err != nil {
		return err
	}

	versions, err := g.planProgram(name, p)
	if err != nil {
		return err
	}

	// Version selectors
	for _, sel := range []struct{ name, kind string }{
		{name + "Request", "req"},
		{name + "Response", "res"},
	} {
		s.OpenBlock(StructBlock, sel.name)
		s.Field("Version", Builtin("uint32"), "union:switch")
		for _, v := range versions {
			inner := v.req
			if sel.kind == "res" {
				inner = v.res
			}
			s.Field(v.field, Named(inner), "union:"+strconv.FormatInt(v.number, 10))
		}
		s.CloseBlock()
	}

	for _, v := range versions {
		for _, pp := range v.procs {
			if pp.argStruct == "" {
				continue
			}
			s.OpenBlock(StructBlock, pp.argStruct)
			for _, a := range pp.args {
				s.Field(a.name, a.typ, a.tag())
			}
			s.CloseBlock()
		}

		s.OpenBlock(StructBlock, v.req)
		s.Field("Proc", Builtin("uint32"), "union:switch")
		for _, pp := range v.procs {
			arm := member{typ: pp.argType}
			if len(pp.args) == 1 {
				arm.layers = pp.args[0].layers
			}
			s.Field(pp.field, arm.typ, arm.tag("union:"+strconv.FormatInt(pp.number, 10)))
		}
		s.CloseBlock()

		s.OpenBlock(StructBlock, v.res)
		s.Field("Proc", Builtin("uint32"), "union:switch")
		for _, pp := range v.procs {
			arm := member{typ: Void()}
			if pp.result != nil {
				arm = member{typ: *pp.result, layers: pp.resultLayers}
			}
			s.Field(pp.field, arm.typ, arm.tag("union:"+strconv.FormatInt(pp.number, 10)))
		}
		s.CloseBlock()
	}

	g.service(s, name, versions)
	return nil
}

func (g *generator) service(s Sink, name string, versions []versionPlan) {
	svc := name + "Service"
	s.Alias(svc+"Request", Named(name+"Request"))
	s.Alias(svc+"Response", Named(name+"Response"))
	s.Alias(svc+"Error", Builtin("error"))

	s.OpenBlock(InterfaceBlock, svc)
	for _, v := range versions {
		for _, pp := range v.procs {
			params := make([]Param, len(pp.args))
			for i, a := range pp.args {
				params[i] = Param{Name: fmt.Sprintf("arg%d", i), Type: a.typ}
			}
			s.Handler(pp.handler, params, pp.result)
		}
	}
	s.CloseBlock()

	d := &Dispatch{
		Func:     "Dispatch" + name,
		Service:  svc,
		Request:  name + "Request",
		Response: name + "Response",
	}
	for vi, v := range versions {
		dv := DispatchVersion{Case: g.discriminantCase(vi, v.number), Field: v.field}
		for pi, pp := range v.procs {
			dp := DispatchProc{
				Case:    g.discriminantCase(pi, pp.number),
				Field:   pp.field,
				Handler: pp.handler,
				Void:    pp.result == nil,
			}
			switch {
			case pp.argStruct != "":
				for _, a := range pp.args {
					dp.Args = append(dp.Args, a.name)
				}
			case len(pp.args) == 1:
				dp.Args = []string{""}
			}
			dv.Procs = append(dv.Procs, dp)
		}
		d.Versions = append(d.Versions, dv)
	}
	s.Dispatch(d)
}

func (g *generator) discriminantCase(ordinal int, label int64) int64 {
	if g.discriminants == Label {
		return label
	}
	return int64(ordinal)
}
