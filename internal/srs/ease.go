// Package srs holds the client-side ease-factor heuristic applied before a
// flashcard difficulty rating is submitted. The backend may apply its own
// scheduling on top; callers adopt whatever progress the server returns.
package srs

import (
	"fmt"
	"math"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

const (
	DefaultEase = 2.5
	MinEase     = 1.3
)

type Progress struct {
	EaseFactor  float64
	Repetitions int
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// Apply returns the progress after rating a card. It is deterministic in
// (ease, repetitions, difficulty); a zero ease counts as DefaultEase.
func Apply(p Progress, d Difficulty) (Progress, error) {
	ease := p.EaseFactor
	if ease <= 0 {
		ease = DefaultEase
	}
	reps := p.Repetitions
	if reps < 0 {
		reps = 0
	}

	switch d {
	case Easy:
		ease += 0.1
		reps++
	case Medium:
		ease -= 0.05
		reps++
	case Hard:
		ease -= 0.2
		reps = 0
	default:
		return p, fmt.Errorf("unknown difficulty %q", d)
	}

	return Progress{
		EaseFactor:  math.Max(MinEase, round2(ease)),
		Repetitions: reps,
	}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
