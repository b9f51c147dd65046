// Package template expands compact interval descriptions ("N repetitions of
// these phases") into the flat, numbered phase sequence stored for a workout.
package template

import (
	"fmt"

	"jejak/backend/internal/domain"
)

// Minutes converts whole minutes to phase seconds.
func Minutes(n int) int {
	return n * 60
}

// Seconds returns n unchanged; it exists so authored durations read uniformly.
func Seconds(n int) int {
	return n
}

// Repeat expands blocks count times. Repetition is the outer loop and block
// order the inner one, so every phase of repetition 1 comes before any phase
// of repetition 2. Each copy keeps the source duration and cadence and is
// renamed "<name> (<i>/<count>)" with i starting at 1.
func Repeat(count int, blocks []domain.Phase) []domain.Phase {
	if count <= 0 || len(blocks) == 0 {
		return []domain.Phase{}
	}
	out := make([]domain.Phase, 0, count*len(blocks))
	for i := 1; i <= count; i++ {
		for _, b := range blocks {
			out = append(out, domain.Phase{
				Name:            fmt.Sprintf("%s (%d/%d)", b.Name, i, count),
				DurationSeconds: b.DurationSeconds,
				BPM:             b.BPM,
			})
		}
	}
	return out
}

// Compose flattens an optional warmup, any number of already expanded blocks
// and an optional cooldown into one ordered sequence.
func Compose(warmup *domain.Phase, blocks [][]domain.Phase, cooldown *domain.Phase) []domain.Phase {
	n := 0
	for _, b := range blocks {
		n += len(b)
	}
	out := make([]domain.Phase, 0, n+2)
	if warmup != nil {
		out = append(out, *warmup)
	}
	for _, b := range blocks {
		out = append(out, b...)
	}
	if cooldown != nil {
		out = append(out, *cooldown)
	}
	return out
}
