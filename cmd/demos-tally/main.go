package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/demos-tally/api/client"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/service"
	"github.com/vocdoni/demos-tally/tally"
)

func main() {
	conf := defaultConfig()
	fs := flag.NewFlagSet("demos-tally", flag.ExitOnError)
	configPath := fs.String("config", "", "TOML configuration file")
	progress := fs.Duration("progress", service.DefaultProgressInterval, "interval of the progress log")
	conf.registerFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *configPath != "" {
		if err := conf.loadFile(*configPath, fs); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	conf.applyEnv()

	level, ok := log.ParseLevel(conf.LogLevel)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", conf.LogLevel)
		os.Exit(2)
	}
	log.Init(level, conf.LogOutput, nil)

	timeout, err := time.ParseDuration(conf.Timeout)
	if err != nil {
		log.Fatalf("invalid timeout %q: %v", conf.Timeout, err)
	}
	cli, err := client.NewWithoutPing(conf.ElectionURL)
	if err != nil {
		log.Fatalf("invalid election url: %v", err)
	}
	cli.SetTimeout(timeout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ts := service.NewTally(&tally.Config{
		ElectionURL: conf.ElectionURL,
		SecretKey:   conf.SecretKey,
		Workers:     conf.Workers,
		PageSize:    conf.PageSize,
	}, cli, *progress)
	start := time.Now()
	if err := ts.Start(ctx); err != nil {
		log.Fatal(err)
	}
	res, err := ts.Wait()
	ts.Stop()
	if err != nil {
		log.Errorw(err, "tally failed, nothing was submitted to the election")
		os.Exit(1)
	}
	log.Infow("tally submitted", "ballots", ts.Processed(), "elapsed", time.Since(start).String())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatal(err)
	}
}
