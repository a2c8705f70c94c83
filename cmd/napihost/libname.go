package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/napi-host/dynlib"
)

func newLibnameCmd(a *app) *cobra.Command {
	var goos, format string

	cmd := &cobra.Command{
		Use:   "libname <package> [subpath]",
		Short: "Print the library path an addon is loaded from",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subpath := ""
			if len(args) == 2 {
				subpath = args[1]
			}
			layout := a.cfg.Layout()
			if goos != "" {
				layout.GOOS = goos
			}
			if format != "" {
				layout.Format = dynlib.Format(format)
			}
			fmt.Fprintln(cmd.OutOrStdout(), layout.LibraryPath(args[0], subpath))
			return nil
		},
	}
	cmd.Flags().StringVar(&goos, "goos", "", "target platform naming scheme (darwin, windows, linux, ...)")
	cmd.Flags().StringVar(&format, "format", "", "native or wasm")
	return cmd
}
