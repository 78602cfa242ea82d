package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionStatusTransitions(t *testing.T) {
	cases := []struct {
		from    DeletionStatus
		to      DeletionStatus
		allowed bool
	}{
		{DeletionStatusPending, DeletionStatusProcessing, true},
		{DeletionStatusPending, DeletionStatusExpired, true},
		{DeletionStatusPending, DeletionStatusCompleted, false},
		{DeletionStatusPending, DeletionStatusCancelled, false},
		{DeletionStatusProcessing, DeletionStatusCompleted, true},
		{DeletionStatusProcessing, DeletionStatusFailed, true},
		{DeletionStatusProcessing, DeletionStatusCancelled, true},
		{DeletionStatusProcessing, DeletionStatusPending, false},
		{DeletionStatusProcessing, DeletionStatusExpired, false},
		{DeletionStatusCompleted, DeletionStatusProcessing, false},
		{DeletionStatusCancelled, DeletionStatusProcessing, false},
		{DeletionStatusExpired, DeletionStatusProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestDeletionTypeIsValid(t *testing.T) {
	assert.True(t, DeletionTypeSoft.IsValid())
	assert.True(t, DeletionTypeHard.IsValid())
	assert.True(t, DeletionTypeAnonymize.IsValid())
	assert.False(t, DeletionType("PURGE").IsValid())
}
