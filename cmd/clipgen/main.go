// Command clipgen builds the synthetic test clips on demand and serves them.
//
//	generate  Build missing clips (all of them with --force), with a progress UI on a terminal
//	status    Report readiness, missing clips and encoder health
//	serve     HTTP surface (/artifacts, /status, /generate, /runs, /metrics), optional watcher and mount
//	mount     Read-only FUSE view of the generated clips
//	runs      List journaled generation runs
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
