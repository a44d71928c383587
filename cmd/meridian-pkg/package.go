// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/meridian-index/meridian/cmd/meridian-pkg/cli"
	"github.com/meridian-index/meridian/lib/addr"
)

func packageCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "package",
		Summary: "Show a package's modules and declared structs",
		Usage:   "meridian-pkg package <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "inspect the package stored at 0x2",
				Command:     "meridian-pkg package 0x2",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the config file")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one package id, got %d arguments", len(args))
			}
			app, err := openApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return showPackage(context.Background(), app, args[0], stdout)
		},
	}
}

// showPackage fetches the package at the given id and writes a
// summary of its identity, modules, and struct declarations.
func showPackage(ctx context.Context, app *resolverApp, idText string, w io.Writer) error {
	id, err := addr.Parse(idText)
	if err != nil {
		return err
	}

	pkg, err := app.cache.Package(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "package %s\n", pkg.StorageID.Short())
	fmt.Fprintf(w, "  runtime id: %s\n", pkg.RuntimeID.Short())
	fmt.Fprintf(w, "  version:    %d\n", pkg.Version)
	for _, name := range pkg.ModuleNames() {
		module, _ := pkg.Module(name)
		fmt.Fprintf(w, "  module %s\n", name)
		for _, structName := range module.Bytecode.StructNames() {
			declaration, _ := module.Bytecode.Struct(structName)
			definingID, _ := module.DefiningID(structName)
			if declaration.TypeParams > 0 {
				fmt.Fprintf(w, "    struct %s (%d type parameters, defined in %s)\n",
					structName, declaration.TypeParams, definingID.Short())
			} else {
				fmt.Fprintf(w, "    struct %s (defined in %s)\n", structName, definingID.Short())
			}
		}
	}
	return nil
}
