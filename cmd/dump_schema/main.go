// Package main prints the header of a NetCDF classic or NetCDF-4 file in
// the style of ncdump -h. With --hex it dumps raw bytes instead, which
// helps when a file is rejected before its header can be parsed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scigolib/scalemerge"
)

func newRootCmd() *cobra.Command {
	var (
		hex    bool
		offset int64
		length int
	)

	cmd := &cobra.Command{
		Use:           "dump_schema [flags] <file>",
		Short:         "Print the dimensions, variables and attributes of a file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hex {
				return dumpFileHex(cmd.OutOrStdout(), args[0], offset, length)
			}

			src, err := scalemerge.OpenSource(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			return writeSchema(cmd.OutOrStdout(), src)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&hex, "hex", false, "dump raw bytes instead of the header")
	flags.Int64Var(&offset, "offset", 0, "offset in file to start dumping from (with --hex)")
	flags.IntVar(&length, "length", 128, "number of bytes to dump (with --hex)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
