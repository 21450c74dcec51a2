package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/smartos-go/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, rt := cli.NewRootCmd(cli.Options{Verbose: isVerbose()})
	defer func() { _ = rt.Close() }()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("SMARTOS_DEBUG"), "1") || strings.EqualFold(os.Getenv("SMARTOS_DEBUG"), "true")
}
