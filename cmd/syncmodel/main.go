// Command syncmodel runs, explores and replays synchronization scenarios.
//
// Usage:
//
//	syncmodel validate ./scenarios
//	syncmodel run ./scenarios --db ./runs.db
//	syncmodel explore locks.yaml
//	syncmodel replay --db ./runs.db
//	syncmodel trace --db ./runs.db --run fair-lock-handoff
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/syncmodel/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
