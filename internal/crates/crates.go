// Package crates tracks returnable Sobraga crates (consigne): empties on hand
// and full crates ready to sell.
package crates

import (
	"errors"
	"fmt"

	"bistrogest/internal/models"
)

// EmptiesPerFull is how many empty crates the supplier swaps for one full crate.
const EmptiesPerFull = 12

var (
	ErrNotEnoughEmpties = errors.New("not enough empty crates for an exchange")
	ErrUnknownField     = errors.New("unknown crate counter")
)

type Field string

const (
	Empties Field = "sobragaEmpties"
	Full    Field = "sobragaFull"
)

// Adjust adds delta to one counter, never going below zero.
func Adjust(s models.CrateStock, f Field, delta int) (models.CrateStock, error) {
	switch f {
	case Empties:
		s.SobragaEmpties = clamp(s.SobragaEmpties + delta)
	case Full:
		s.SobragaFull = clamp(s.SobragaFull + delta)
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return s, nil
}

// Exchange trades EmptiesPerFull empties for one full crate. The input is
// returned unchanged on error.
func Exchange(s models.CrateStock) (models.CrateStock, error) {
	if s.SobragaEmpties < EmptiesPerFull {
		return s, ErrNotEnoughEmpties
	}
	s.SobragaEmpties -= EmptiesPerFull
	s.SobragaFull++
	return s, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
