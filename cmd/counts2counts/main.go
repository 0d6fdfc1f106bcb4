// Package main provides the entry point for the counts2counts CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tbrown91/cgat/cmd/counts2counts/commands"
	"github.com/tbrown91/cgat/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
