// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MapName converts a snake_case IDL name into the CamelCase name used for
// generated types
//
// Each _ separated segment has its first letter upper cased and the rest
// lower cased. A t which ends the name directly after an underscore is
// dropped, so "foo_bar_t" becomes "FooBar" but "at" stays "At".
func MapName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	under, first := false, true
	for i, c := range name {
		last := i+utf8.RuneLen(c) == len(name)
		switch {
		case c == 't' && last && under:
		case c == '_':
			under = true
		case under || first:
			b.WriteRune(unicode.ToUpper(c))
			under, first = false, false
		default:
			b.WriteRune(unicode.ToLower(c))
		}
	}
	return b.String()
}

// exportName upper cases the first letter of a field or argument name so
// that reflection can set it
func exportName(name string) string {
	c, n := utf8.DecodeRuneInString(name)
	if n == 0 {
		return name
	}
	return string(unicode.ToUpper(c)) + name[n:]
}

// handlerName is the service method for a procedure of a version
func handlerName(proc string, version int64) string {
	return fmt.Sprintf("%s_v%d", strings.ToLower(proc), version)
}

// labelName renders a case label as part of a field name
func labelName(label string, value int64) string {
	if label != "" {
		return MapName(label)
	}
	if value < 0 {
		return fmt.Sprintf("Neg%d", -value)
	}
	return fmt.Sprintf("%d", value)
}

func checkIdent(name string) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("%q is not a valid Go identifier", name)
	}
	return nil
}
