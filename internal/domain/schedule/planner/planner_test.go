package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSlotsSingle(t *testing.T) {
	slots := ComputeSlots(9, 30, 1)

	require.Len(t, slots, 1)
	assert.Equal(t, Slot{Hour: 9, Minute: 30}, slots[0])
}

func TestComputeSlotsZeroCap(t *testing.T) {
	slots := ComputeSlots(12, 0, 0)

	require.Len(t, slots, 1)
	assert.Equal(t, Slot{Hour: 12, Minute: 0}, slots[0])
}

func TestComputeSlotsDistribution(t *testing.T) {
	slots := ComputeSlots(9, 0, 5)

	require.Len(t, slots, 5)
	assert.Equal(t, Slot{Hour: 9, Minute: 0}, slots[0])

	// Additional slots stay inside the daytime window, strictly
	// increasing, minute always zero
	prev := windowStartHour
	for _, s := range slots[1:] {
		assert.Greater(t, s.Hour, prev)
		assert.Less(t, s.Hour, windowEndHour)
		assert.Equal(t, 0, s.Minute)
		prev = s.Hour
	}
}

func TestComputeSlotsExactHours(t *testing.T) {
	slots := ComputeSlots(9, 0, 4)

	require.Len(t, slots, 4)
	assert.Equal(t, 12, slots[1].Hour)
	assert.Equal(t, 15, slots[2].Hour)
	assert.Equal(t, 18, slots[3].Hour)
}

func TestComputeSlotsDeterministic(t *testing.T) {
	a := ComputeSlots(10, 15, 7)
	b := ComputeSlots(10, 15, 7)

	assert.Equal(t, a, b)
}

func TestSlotAt(t *testing.T) {
	day := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	s := Slot{Hour: 9, Minute: 30}

	at := s.At(day)

	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), at)
}
