package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/registry"
	"github.com/wippyai/napi-host/resolver"
)

func newResolveCmd(a *app) *cobra.Command {
	var pkg, from string

	cmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Show how a specifier resolves without loading anything",
		Example: `  napihost resolve ./addon.node --package my-pkg --from ./lib/index
  napihost resolve core:fs --package app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := a.describe(args[0], pkg, from)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package the requiring module belongs to")
	cmd.Flags().StringVarP(&from, "from", "f", "./index", "package-relative path of the requiring module")
	return cmd
}

// describe mirrors resolver.Resolve for configured aliases and default
// resolution.
func (a *app) describe(specifier, pkg, from string) ([]string, error) {
	if !resolver.IsModulePathLike(specifier) {
		return nil, errors.InvalidSpecifier("requiredPath", specifier)
	}
	if !resolver.IsModulePathLike(from) {
		return nil, errors.InvalidSpecifier("requiredFrom", from)
	}

	lines := []string{"specifier: " + specifier}
	prefix, stripped := resolver.RPartition(specifier, ':')
	var subpath string
	if prefix != "" {
		target, ok := a.cfg.Aliases[prefix]
		if !ok {
			return nil, errors.UnsupportedPrefix(prefix)
		}
		lines = append(lines, "dispatch:  alias "+prefix+" -> "+target)
		pkg = target
		subpath = resolver.Rebase(stripped)
	} else {
		lines = append(lines, "dispatch:  relative to "+from)
		subpath = resolver.Merge(from, stripped)
	}
	if !resolver.IsModulePathLike(subpath) {
		return nil, errors.InvalidSpecifier("subpath", subpath)
	}
	if !strings.HasPrefix(subpath, "./") {
		return nil, errors.RootEscape(pkg, subpath)
	}

	return append(lines,
		"package:   "+pkg,
		"subpath:   "+subpath,
		"addon:     "+registry.Key(pkg, subpath),
		"library:   "+a.cfg.Layout().LibraryPath(pkg, subpath),
	), nil
}
