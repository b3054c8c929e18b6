// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is returned when text does not name a known enum value.
var ErrUnknownValue = errors.New("unknown value")

// Side identifies one of the two teams of a match.
type Side int

const (
	// SideNone is the zero value and never a valid team.
	SideNone Side = iota
	SideA
	SideB
)

// Sides lists the valid sides in display order.
var Sides = [...]Side{SideA, SideB}

// Other returns the opposing side.
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// Valid reports whether s names a team.
func (s Side) Valid() bool { return s == SideA || s == SideB }

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return ""
	}
}

// ParseSide accepts "A"/"B" (case-insensitive).
func ParseSide(v string) (Side, error) {
	switch v {
	case "A", "a":
		return SideA, nil
	case "B", "b":
		return SideB, nil
	}
	return SideNone, fmt.Errorf("side %q: %w", v, ErrUnknownValue)
}

// MarshalText encodes the side as "A" or "B".
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte{}, nil
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes "A" or "B"; the empty string yields SideNone.
func (s *Side) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = SideNone
		return nil
	}
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Step is the top-level screen the operator is on.
type Step int

const (
	StepSetup Step = iota
	StepCoinToss
	StepMatch
)

func (s Step) String() string {
	switch s {
	case StepSetup:
		return "setup"
	case StepCoinToss:
		return "coinToss"
	case StepMatch:
		return "match"
	default:
		return "unknown"
	}
}

// ParseStep decodes the persisted step name.
func ParseStep(v string) (Step, error) {
	switch v {
	case "setup":
		return StepSetup, nil
	case "coinToss":
		return StepCoinToss, nil
	case "match":
		return StepMatch, nil
	}
	return StepSetup, fmt.Errorf("step %q: %w", v, ErrUnknownValue)
}

// MarshalText encodes the step as its persisted name.
func (s Step) MarshalText() ([]byte, error) {
	if s < StepSetup || s > StepMatch {
		return nil, fmt.Errorf("step %d: %w", int(s), ErrUnknownValue)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a persisted step name.
func (s *Step) UnmarshalText(b []byte) error {
	v, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
