package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/fernleaf/nursery/cmd"
)

const version = "0.1.0"

func main() {
	root := cmd.NewRootCmd()

	// fang adds --version, completions and man pages, and cancels the
	// command context on interrupt so serve can drain.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
