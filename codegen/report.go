// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package codegen

import (
	"fmt"
)

// Diagnostic reports a problem with one definition
type Diagnostic struct {
	// Definition names the definition concerned
	Definition string
	Message    string
	// Skipped is set when nothing was generated for the definition. When
	// clear, the definition was generated with a placeholder
	Skipped bool
}

func (d Diagnostic) Error() string {
	if d.Definition == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Definition, d.Message)
}

// Report collects the outcome of a generator run
type Report struct {
	Diagnostics []Diagnostic
	// Generated lists the definitions emitted to the sink, in source order
	Generated []string
}

// Skipped returns the definitions for which nothing was generated
func (r *Report) Skipped() []string {
	var names []string
	for _, d := range r.Diagnostics {
		if d.Skipped {
			names = append(names, d.Definition)
		}
	}
	return names
}
