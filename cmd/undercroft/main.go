package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	undercroftcmd "github.com/louisbranch/undercroft/internal/cmd/undercroft"
	"github.com/louisbranch/undercroft/internal/platform/config"
)

func main() {
	cfg, err := undercroftcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[UNDERCROFT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := undercroftcmd.Run(ctx, cfg); err != nil {
		stop()
		code, msg := undercroftcmd.ExitCode(err)
		config.Exitf(code, "undercroft: %s", msg)
	}
}
