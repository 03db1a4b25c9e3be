package crates

import (
	"testing"

	"bistrogest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange(t *testing.T) {
	got, err := Exchange(models.CrateStock{SobragaEmpties: 12, SobragaFull: 2})
	require.NoError(t, err)
	assert.Equal(t, models.CrateStock{SobragaEmpties: 0, SobragaFull: 3}, got)

	in := models.CrateStock{SobragaEmpties: 11, SobragaFull: 2}
	got, err = Exchange(in)
	assert.ErrorIs(t, err, ErrNotEnoughEmpties)
	assert.Equal(t, in, got)
}

func TestAdjustClampsAtZero(t *testing.T) {
	s := models.CrateStock{SobragaEmpties: 2, SobragaFull: 1}

	s, err := Adjust(s, Empties, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, s.SobragaEmpties)

	s, err = Adjust(s, Full, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, s.SobragaFull)

	_, err = Adjust(s, "bottles", 1)
	assert.ErrorIs(t, err, ErrUnknownField)
}
