// Package simulation plays whole random matches against a running referee
// service over its HTTP API and checks that every state it observes obeys
// the rules of the game.
package simulation

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Matches    int           // Number of matches to play back to back
	Seed       int64         // Seed for every random choice; 0 picks one
	MaxRallies int           // Safety stop per match
	MinBench   int           // Regular players each roster carries beyond the starting six
	SubRate    float64       // Chance per rally of a regular substitution
	LiberoRate float64       // Chance per rally of a libero exchange
	UndoRate   float64       // Chance per rally of a point taken back
	ReplayRate float64       // Chance per rally of resending a command with its key
	Timeout    time.Duration // HTTP request timeout
	Verbose    bool          // Log every command
}

// DefaultConfig returns the settings used by cmd/simulate.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:9080",
		Matches:    1,
		MaxRallies: 1000,
		SubRate:    0.04,
		LiberoRate: 0.06,
		UndoRate:   0.02,
		ReplayRate: 0.03,
		Timeout:    30 * time.Second,
	}
}

// Stats holds what a run did.
type Stats struct {
	Matches       int
	Sets          int
	Rallies       int
	PointsRemoved int
	Substitutions int
	LiberoMoves   int
	Replays       int
	Rejected      int
	States        int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
