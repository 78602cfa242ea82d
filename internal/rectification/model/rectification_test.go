package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectificationTransitions(t *testing.T) {
	testCases := []struct {
		from    RectificationStatus
		to      RectificationStatus
		allowed bool
	}{
		{RectificationStatusPending, RectificationStatusProcessing, true},
		{RectificationStatusPending, RectificationStatusFailed, true},
		{RectificationStatusProcessing, RectificationStatusCompleted, true},
		{RectificationStatusProcessing, RectificationStatusFailed, true},
		{RectificationStatusPending, RectificationStatusCompleted, false},
		{RectificationStatusCompleted, RectificationStatusProcessing, false},
		{RectificationStatusFailed, RectificationStatusPending, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, 1, PriorityFor("email"))
	assert.Equal(t, 1, PriorityFor("contactEmail"))
	assert.Equal(t, 2, PriorityFor("phone"))
	assert.Equal(t, 2, PriorityFor("PHONE_NUMBER"))
	assert.Equal(t, 3, PriorityFor("firstName"))
	assert.Equal(t, 3, PriorityFor("birthdate"))
	assert.Equal(t, 4, PriorityFor("emergencyContact"))
	assert.Equal(t, 10, PriorityFor("height"))
}
