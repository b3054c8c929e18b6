package simulation

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/courtside/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends the logger to stdout and logFile. An empty logFile
// gets a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "simulation_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Courtside Rules Simulation
==========================

Plays complete random matches against a running referee service and checks
every returned state against the rules of the game.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -matches int
        Number of matches to play (default 1)
  -seed int
        Seed for all random choices; 0 picks one from the clock
  -max-rallies int
        Give up on a match after this many rallies (default 1000)
  -min-bench int
        Regular players each roster carries beyond the starting six (default 0)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file (default: simulation_TIMESTAMP.log)
  -verbose
        Log every applied command
  -help
        Show this help message

Examples:
  # One match against a local service
  go run ./cmd/simulate

  # Replay a failing run
  go run ./cmd/simulate -seed 1718000000 -matches 5 -verbose

Checks:
  - A finished set always meets its win condition and an open one never does
  - Sets won always match the finished sets
  - No libero ever stands in the front row
  - No team exceeds the substitution limit
  - A replayed command never changes the match
  - The winner has exactly three sets and at most five sets are played

Note: the simulation resets the match on the target service. Do not point
it at a service refereeing a real game.
`)
}
