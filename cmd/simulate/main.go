package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/courtside/internal/simulation"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	defaults := simulation.DefaultConfig()
	var (
		baseURL    = flag.String("url", defaults.BaseURL, "Base URL of the service")
		matches    = flag.Int("matches", defaults.Matches, "Number of matches to play")
		seed       = flag.Int64("seed", 0, "Seed for all random choices (0 picks one)")
		maxRallies = flag.Int("max-rallies", defaults.MaxRallies, "Give up on a match after this many rallies")
		minBench   = flag.Int("min-bench", defaults.MinBench, "Regular players each roster carries beyond the starting six")
		timeout    = flag.Duration("timeout", defaults.Timeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file (default: simulation_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every applied command")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulation.ShowHelp()
		return
	}

	closer, err := simulation.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := defaults
	cfg.BaseURL = *baseURL
	cfg.Matches = *matches
	cfg.Seed = *seed
	cfg.MaxRallies = *maxRallies
	cfg.MinBench = *minBench
	cfg.Timeout = *timeout
	cfg.Verbose = *verbose

	if _, err := simulation.Run(ctx, &cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		closer.Close()
		os.Exit(1)
	}
}
