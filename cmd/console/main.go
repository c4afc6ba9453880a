// Package main is the entrypoint for the userdesk terminal console.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/console"
	"github.com/userdesk/userdesk/internal/controller"
	"github.com/userdesk/userdesk/internal/logging"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/remote"
)

// version is set at build time.
var version = "dev"

type cliFlags struct {
	APIURL  string
	LogFile string
	Version bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadConsole()
	if err != nil {
		return err
	}

	var flags cliFlags
	fs := flag.NewFlagSet("userdesk", flag.ContinueOnError)
	fs.StringVar(&flags.APIURL, "api-url", cfg.APIURL, "users collection endpoint")
	fs.StringVar(&flags.LogFile, "log-file", cfg.LogFile, "path of the rotating log file")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	logFile := logging.RotatingFile(flags.LogFile)
	defer logFile.Close()
	logger := logging.New(logFile, cfg.LogLevel, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewInMemory()
	client := remote.New(flags.APIURL,
		remote.WithTimeout(cfg.HTTPTimeout),
		remote.WithLogger(logger),
		remote.WithRecorder(recorder),
	)
	notes := notify.New(notify.WithTTL(cfg.NotificationTTL))
	defer notes.Close()

	ctrl := controller.New(client, notes, logger)
	logger.Info("starting console", "api_url", client.BaseURL(), "version", version)

	c := console.New(ctrl, notes, os.Stdin, os.Stdout, console.WithLogger(logger),
		console.WithMetrics(recorder),
	)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
