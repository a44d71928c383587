// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meridian-index/meridian/cmd/meridian-pkg/cli"
	"github.com/meridian-index/meridian/lib/typelayout"
)

func layoutCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "layout",
		Summary: "Resolve a type reference to its concrete layout",
		Usage:   "meridian-pkg layout <type> [flags]",
		Examples: []cli.Example{
			{
				Description: "resolve a plain struct",
				Command:     "meridian-pkg layout '0x2::coin::Coin<0xa1::market::MRD>'",
			},
			{
				Description: "vectors and primitives work too",
				Command:     "meridian-pkg layout 'vector<u8>'",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("layout", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the config file")
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected a type reference")
			}
			// Allow the type to be given unquoted across several
			// arguments; shells split on the spaces inside
			// generic argument lists.
			app, err := openApp(configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return showLayout(context.Background(), app, strings.Join(args, " "), stdout)
		},
	}
}

// showLayout resolves a type reference and writes its layout tree.
func showLayout(ctx context.Context, app *resolverApp, tagText string, w io.Writer) error {
	tag, err := typelayout.ParseTag(tagText)
	if err != nil {
		return err
	}
	layout, err := app.resolver.TypeLayout(ctx, tag)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, typelayout.Render(layout))
	return nil
}
