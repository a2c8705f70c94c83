package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/napi-host/napi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "napihost %s\n", version)
			fmt.Fprintf(out, "node-api version %d (default module version %d)\n",
				napi.Version, napi.DefaultModuleAPIVersion)
		},
	}
}
