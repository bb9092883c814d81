// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calc = `program CALC {
	version CALC_V1 {
		int add(int a, int b) = 1;
	} = 1;
} = 0x20000001;
`

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T, files map[string]string) *workspace {
	w := &workspace{dir: t.TempDir()}
	for name, body := range files {
		path := filepath.Join(w.dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	w.config = filepath.Join(w.dir, "xdrc.yaml")
	cfg := "package: calc\noutput: " + filepath.Join(w.dir, "gen") +
		"\ninputs:\n  - " + filepath.Join(w.dir, "idl", "**", "*.x") + "\n"
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
	return w
}

func (w *workspace) run(args ...string) (string, error) {
	var out, errs bytes.Buffer
	app := newApp(&out, &errs)
	err := app.Run(append([]string{"xdrc", "--config", w.config, "--log-level", "ERROR"}, args...))
	return out.String(), err
}

func TestGenerateAndCheck(t *testing.T) {
	w := newWorkspace(t, map[string]string{"idl/v1/calc.x": calc})

	_, err := w.run("generate")
	require.NoError(t, err)

	gen := filepath.Join(w.dir, "gen", "calc.go")
	src, err := os.ReadFile(gen)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package calc")
	assert.Contains(t, string(src), "func DispatchCalc(")

	out, err := w.run("check")
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, os.WriteFile(gen, []byte("package calc\n"), 0o644))
	out, err = w.run("check")
	assert.ErrorIs(t, err, errStale)
	assert.Contains(t, out, "--- "+gen)
	assert.Contains(t, out, "+++ "+gen+" (regenerated)")
	assert.Contains(t, out, "+type CalcRequest struct {")
}

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	w := newWorkspace(t, map[string]string{"idl/calc.x": calc})
	out := filepath.Join(w.dir, "elsewhere")

	_, err := w.run("generate", "--package", "other", "--out", out, filepath.Join(w.dir, "idl", "calc.x"))
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(out, "calc.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package other")
}

func TestGenerateReportsSkipped(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"idl/mixed.x": "struct ok { int a; };\nstruct bad { missing b[NOPE]; };\n",
	})

	_, err := w.run("generate")
	assert.ErrorIs(t, err, errSkipped)

	src, err := os.ReadFile(filepath.Join(w.dir, "gen", "mixed.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "type Ok struct")
	assert.NotContains(t, string(src), "type Bad struct")
}

func TestGenerateErrors(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"idl/a/same.x": "typedef int a;",
		"idl/b/same.x": "typedef int b;",
		"broken.x":     "struct {",
	})

	_, err := w.run("generate")
	assert.Error(t, err, "two inputs generating one file")

	_, err = w.run("generate", filepath.Join(w.dir, "broken.x"))
	assert.Error(t, err)

	_, err = w.run("generate", filepath.Join(w.dir, "*.none"))
	assert.Error(t, err)

	_, err = w.run("generate", "--discriminants", "positional")
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	w := newWorkspace(t, map[string]string{"point.x": "struct point { int x; };"})

	out, err := w.run("dump", filepath.Join(w.dir, "point.x"))
	require.NoError(t, err)
	assert.Contains(t, out, "StructDef")
	assert.Contains(t, out, `"point"`)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, filepath.Join("gen", "nfs.go"), outputName("gen", filepath.Join("idl", "nfs.x")))
	assert.Equal(t, filepath.Join("gen", "mount.go"), outputName("gen", "mount"))
}

func TestConfigPrintsEffectiveSettings(t *testing.T) {
	w := newWorkspace(t, nil)

	out, err := w.run("config", "--package", "other", "--discriminants", "label")
	require.NoError(t, err)
	assert.Contains(t, out, "package: other\n")
	assert.Contains(t, out, "output: "+filepath.Join(w.dir, "gen")+"\n")
	assert.Contains(t, out, "discriminants: label\n")
	assert.Contains(t, out, "  - "+filepath.Join(w.dir, "idl", "**", "*.x")+"\n")
}
