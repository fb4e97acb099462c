// Command merge_scales merges per-filter-scale result files into one file
// with a leading scale dimension.
//
// Usage:
//
//	merge_scales --file_pattern 'postprocess_*.nc' --output_filename postprocess.nc --print_level 1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// runMain executes the command and returns the exit code.
func runMain(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	if code := runMain(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}
