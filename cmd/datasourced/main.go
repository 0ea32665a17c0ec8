// Command datasourced serves datasource endpoints from a YAML
// configuration: one /ds/<name> endpoint per configured table source,
// backed by CSV files or SQL databases.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/chartdata/go-datasource/server"

	// Database drivers for sql sources.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type options struct {
	Config  string `short:"c" long:"config" description:"YAML configuration file" required:"true"`
	Addr    string `long:"addr" description:"Listen address, overrides the configuration file"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		logrus.Fatal(err)
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if len(cfg.Sources) == 0 {
		logrus.Fatal("no sources configured")
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		RequestTimeout: cfg.RequestTimeout.Duration,
	})
	for _, src := range cfg.Sources {
		provider, err := buildProvider(src)
		if err != nil {
			logrus.Fatal(err)
		}
		srv.Handle(src.Name, provider)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	select {
	case err := <-done:
		if err != nil {
			logrus.Fatal(err)
		}
	case sig := <-stop:
		logrus.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("shutdown failed")
		}
	}
}
