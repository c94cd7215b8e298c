// The scraper binary runs one ingestion pass and exits. It is meant to be
// invoked by cron or a CI schedule; it does not loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cosmicclassroom/contentd/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	flag.Parse()

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Scrape(ctx, *cfgFileName); err != nil {
		fmt.Fprintf(os.Stderr, "scrape failed: %s\n", err)
		os.Exit(1)
	}
}
