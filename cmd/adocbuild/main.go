package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"adocbuild.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Jobs []string `short:"j" help:"Render only the named jobs (default: all)"`
	} `cmd:"" help:"Render all configured documentation jobs"`

	Plan struct{} `cmd:"" help:"Print the configured task graph without executing it"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Watch struct {
		MetricsListen string `help:"Serve Prometheus metrics on this address while watching" placeholder:"ADDR"`
	} `cmd:"" help:"Rebuild documentation whenever a source file changes"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx, CLI.Config, CLI.Build.Jobs)
	case "plan":
		err = runPlan(CLI.Config)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "watch":
		err = runWatch(ctx, CLI.Config, CLI.Watch.MetricsListen)
	}
	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
