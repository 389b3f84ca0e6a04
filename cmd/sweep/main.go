// Command sweep resets expired weekly and monthly window scores and can
// recompute every field's ranks. It is meant for an external cron job when
// the in-process scheduler is disabled.
//
// Usage:
//
//	sweep --window=all --recompute
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/ranking-backend/internal/app"
)

func main() {
	window := flag.String("window", "all", "windows to sweep: weekly, monthly, all or none")
	recompute := flag.Bool("recompute", false, "recompute ranks for every field after sweeping")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := app.RunSweep(ctx, *window, *recompute); err != nil {
		log.Printf("sweep: %v", err)
		os.Exit(1)
	}
}
