package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/service"
	"github.com/vocdoni/demos-tally/storage"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	host := flag.String("host", "0.0.0.0", "address to listen on")
	port := flag.IntP("port", "p", 8080, "port to listen on")
	datadir := flag.String("datadir", "", "database directory, in memory if empty")
	logLevel := flag.String("log-level", log.LogLevelInfo, "log level (debug, info, warn, error)")
	logOutput := flag.String("log-output", "stdout", "log output (stdout, stderr or a file path)")
	flag.Parse()

	level, ok := log.ParseLevel(*logLevel)
	if !ok {
		log.Fatalf("invalid log level %q", *logLevel)
	}
	log.Init(level, *logOutput, nil)

	var database db.Database
	if *datadir == "" {
		log.Warn("no datadir given, data is kept in memory")
		database = memdb.New()
	} else {
		var err error
		if database, err = metadb.New(db.TypePebble, *datadir); err != nil {
			log.Fatalf("failed to open database at %s: %v", *datadir, err)
		}
	}
	stg := storage.New(database)
	defer stg.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := service.NewAPI(stg, *host, *port)
	if err := api.Start(ctx); err != nil {
		log.Fatal(err)
	}
	<-ctx.Done()
	log.Info("shutting down")
	api.Stop()
}
