// Command chorecal runs the household chore calendar: the HTTP API and month
// page, the daily reminder, and a handful of offline tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chorecal/cmd/chorecal/commands"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New()
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return 1
	}
	return 0
}
