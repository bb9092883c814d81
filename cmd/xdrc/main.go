// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Command xdrc compiles XDR interface definitions into Go source
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/repr"
	"github.com/coreos/pkg/capnslog"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"go.e43.eu/xdrc/internal/config"
	"go.e43.eu/xdrc/parser"
)

var plog = capnslog.NewPackageLogger("go.e43.eu/xdrc", "xdrc")

const configKey = "config"

func settings(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

// setup loads the configuration and configures logging. Flags given on the
// command line override the file
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return tracerr.Wrap(err)
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	level, err := capnslog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	capnslog.SetFormatter(capnslog.NewPrettyFormatter(c.App.ErrWriter, false))
	capnslog.SetGlobalLogLevel(level)

	c.App.Metadata[configKey] = cfg
	return nil
}

func generatorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "package",
			Usage: "name of the generated Go package",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "directory generated files are written to",
		},
		&cli.StringFlag{
			Name:  "discriminants",
			Usage: "numbering used by dispatch functions: ordinal or label",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "warn about types which need a coder with extended types",
		},
	}
}

// override applies the generator flags to the configuration
func override(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("package") {
		cfg.Package = c.String("package")
	}
	if c.IsSet("out") {
		cfg.Output = c.String("out")
	}
	if c.IsSet("discriminants") {
		cfg.Discriminants = c.String("discriminants")
	}
	if c.IsSet("strict") {
		cfg.Strict = c.Bool("strict")
	}
	if c.NArg() > 0 {
		cfg.Inputs = c.Args().Slice()
	}
	return cfg.Validate()
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "xdrc",
		Usage:     "XDR interface definition compiler",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (default " + config.DefaultFile + " if present)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG or TRACE",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print errors with their stack trace and source",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "generate Go source from IDL files",
				ArgsUsage: "[pattern...]",
				Flags:     generatorFlags(),
				Action: func(c *cli.Context) error {
					cfg := settings(c)
					if err := override(c, cfg); err != nil {
						return err
					}
					return generate(cfg)
				},
			},
			{
				Name:      "check",
				Usage:     "report generated files which are out of date",
				ArgsUsage: "[pattern...]",
				Flags:     generatorFlags(),
				Action: func(c *cli.Context) error {
					cfg := settings(c)
					if err := override(c, cfg); err != nil {
						return err
					}
					return check(cfg, c.App.Writer)
				},
			},
			{
				Name:  "config",
				Usage: "print the effective configuration",
				Flags: generatorFlags(),
				Action: func(c *cli.Context) error {
					cfg := settings(c)
					if err := override(c, cfg); err != nil {
						return err
					}
					data, err := cfg.Marshal()
					if err != nil {
						return tracerr.Wrap(err)
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
			{
				Name:      "dump",
				Usage:     "print the syntax tree of an IDL file",
				ArgsUsage: "file",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("dump takes one file")
					}
					src, err := os.ReadFile(c.Args().First())
					if err != nil {
						return tracerr.Wrap(err)
					}
					nodes, ok := parser.Parse(src)
					if !ok {
						return fmt.Errorf("%s does not parse as XDR", c.Args().First())
					}
					repr.New(c.App.Writer, repr.Indent("  ")).Println(nodes)
					return nil
				},
			},
		},
	}
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		if c.Bool("trace") {
			tracerr.PrintSourceColor(err)
		} else {
			fmt.Fprintf(os.Stderr, "xdrc: %v\n", err)
		}
		os.Exit(1)
	}
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
