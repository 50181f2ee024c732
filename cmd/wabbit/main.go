// wabbit is the command-line interface for the wabbit plugin host.
//
// It loads a YAML configuration describing auth and management plugins,
// starts them and lets operators check configuration, inspect registrations
// and try out credentials.
//
// Usage:
//
//	wabbit validate --config wabbit.yaml
//	wabbit inspect --config wabbit.yaml --format json
//	wabbit login --config wabbit.yaml --user alice --password ...
//	wabbit --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufield/wabbit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.RedactError(err))
		os.Exit(cli.ExitCode(err))
	}
}
