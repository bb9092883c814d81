// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"

	"go.e43.eu/xdrc/codegen"
	"go.e43.eu/xdrc/gogen"
	"go.e43.eu/xdrc/internal/config"
)

var (
	errSkipped = errors.New("some definitions were skipped")
	errStale   = errors.New("generated files are out of date")
)

// unit is one input file and the file generated from it
type unit struct {
	input  string
	output string
	source []byte
	report *codegen.Report
}

// expand resolves the input patterns to a sorted list of files
func expand(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no inputs given")
	}

	seen := map[string]bool{}
	var files []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s matches no files", p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// outputName names the Go file generated from input
func outputName(dir, input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".go")
}

// compile generates every input in parallel
func compile(cfg *config.Config) ([]*unit, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	files, err := expand(cfg.Inputs)
	if err != nil {
		return nil, err
	}

	units := make([]*unit, len(files))
	outputs := map[string]string{}
	for i, f := range files {
		u := &unit{input: f, output: outputName(cfg.Output, f)}
		if prev, ok := outputs[u.output]; ok {
			return nil, fmt.Errorf("%s and %s would both generate %s", prev, f, u.output)
		}
		outputs[u.output] = f
		units[i] = u
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, u := range units {
		u := u
		g.Go(func() error {
			return u.compile(cfg.Package, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

func (u *unit) compile(pkg string, opts []codegen.Option) error {
	src, err := os.ReadFile(u.input)
	if err != nil {
		return tracerr.Wrap(err)
	}

	f := gogen.NewFile(pkg)
	u.report, err = codegen.Compile(f, src, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", u.input, err)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", u.input, err))
	}
	u.source = buf.Bytes()

	plog.Infof("%s: generated %d definitions", u.input, len(u.report.Generated))
	for _, d := range u.report.Diagnostics {
		plog.Warningf("%s: %s", u.input, d.Error())
	}
	return nil
}

func skipped(units []*unit) error {
	for _, u := range units {
		if len(u.report.Skipped()) > 0 {
			return errSkipped
		}
	}
	return nil
}

func generate(cfg *config.Config) error {
	units, err := compile(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return tracerr.Wrap(err)
	}
	for _, u := range units {
		if err := os.WriteFile(u.output, u.source, 0o644); err != nil {
			return tracerr.Wrap(err)
		}
		plog.Debugf("wrote %s", u.output)
	}
	return skipped(units)
}

// check compares each generated file with what is on disk and prints a
// unified diff of those which differ
func check(cfg *config.Config, w io.Writer) error {
	units, err := compile(cfg)
	if err != nil {
		return err
	}

	stale := false
	for _, u := range units {
		have, err := os.ReadFile(u.output)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return tracerr.Wrap(err)
		}
		if bytes.Equal(have, u.source) {
			continue
		}

		stale = true
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(have)),
			B:        difflib.SplitLines(string(u.source)),
			FromFile: u.output,
			ToFile:   u.output + " (regenerated)",
			Context:  3,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(w, diff)
	}

	if stale {
		return errStale
	}
	return skipped(units)
}
