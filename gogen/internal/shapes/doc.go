// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package shapes is generated from shapes.x, which declares one of each
// shape the generator emits. Its tests marshal the generated types, and
// gogen checks that shapes.go matches what it renders today.
package shapes

//go:generate go run go.e43.eu/xdrc/cmd/xdrc generate --package shapes --out . shapes.x
