// Command scale_diagnostics computes band diagnostics from a merged
// multi-scale file.
//
// Usage:
//
//	scale_diagnostics ke-bands --input postprocess.nc --source input.nc --worker_index 0 --worker_count 4
//	scale_diagnostics enstrophy-flux --input postprocess.nc --output EN_fluxes.nc
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
