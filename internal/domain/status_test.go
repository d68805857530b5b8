package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{StatusDraft, StatusScheduled, StatusSending, StatusSent, StatusRead, StatusFailed}

func TestCanTransitionTo_FullTable(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusDraft:     {StatusDraft: true, StatusScheduled: true, StatusSending: true},
		StatusScheduled: {StatusScheduled: true, StatusSending: true},
		StatusSending:   {StatusSent: true, StatusFailed: true},
		StatusSent:      {StatusRead: true},
		StatusRead:      {},
		StatusFailed:    {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestCanTransitionTo_NoRegressions(t *testing.T) {
	assert.False(t, StatusSent.CanTransitionTo(StatusScheduled))
	assert.False(t, StatusSent.CanTransitionTo(StatusDraft))
	assert.False(t, StatusSending.CanTransitionTo(StatusDraft))
	assert.False(t, StatusScheduled.CanTransitionTo(StatusDraft))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusRead.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, StatusSending.Terminal())
	assert.False(t, StatusSent.Terminal())
}

func TestEditable(t *testing.T) {
	assert.True(t, StatusDraft.Editable())
	assert.True(t, StatusScheduled.Editable())
	for _, s := range []Status{StatusSending, StatusSent, StatusRead, StatusFailed} {
		assert.False(t, s.Editable(), "%s", s)
	}
}

func TestValid(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

func TestTransitionError(t *testing.T) {
	err := TransitionError(StatusRead, StatusSending)
	assert.True(t, errors.Is(err, ErrStateViolation))
	assert.Contains(t, err.Error(), "read -> sending")
}
