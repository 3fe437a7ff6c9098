package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/cli"
	"studynotes-dashboard/internal/config"
)

func main() {
	cfg := config.LoadClient()

	path := cfg.CredentialsPath
	if path == "" {
		var err error
		if path, err = api.DefaultTokenPath(); err != nil {
			fmt.Fprintf(os.Stderr, "notesctl: %v\n", err)
			os.Exit(1)
		}
	}

	// Ctrl-C cancels any running poll.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.NewApp(cfg, api.NewFileStore(path)))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "notesctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
