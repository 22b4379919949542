// Package main starts the finance check server and handles termination.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	finanzcheckcmd "github.com/jonzim-cmd/zahlungsformen/internal/cmd/finanzcheck"
	entrypoint "github.com/jonzim-cmd/zahlungsformen/internal/platform/cmd"
)

func main() {
	cfg, err := finanzcheckcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceFinanceCheck))

	ctx, stop := entrypoint.SignalContext(context.Background())
	defer stop()

	if err := finanzcheckcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
