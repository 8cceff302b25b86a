package playground

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestReduce(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		initial  State
		action   Action
		expected State
	}{
		{
			name:     "set key",
			initial:  State{},
			action:   SetAPIKey(strPtr("abc123")),
			expected: State{APIKey: "abc123", KeySavedAt: now},
		},
		{
			name:     "nil payload clears key",
			initial:  State{APIKey: "abc123", KeySavedAt: now},
			action:   ClearAPIKey(),
			expected: State{},
		},
		{
			name:     "empty string clears key",
			initial:  State{APIKey: "abc123", KeySavedAt: now},
			action:   SetAPIKey(strPtr("")),
			expected: State{},
		},
		{
			name:     "show dialog",
			initial:  State{APIKey: "k"},
			action:   SetShowAuthDialog(true),
			expected: State{APIKey: "k", ShowAuthDialog: true},
		},
		{
			name:     "malformed payload ignored",
			initial:  State{ShowAuthDialog: true},
			action:   Action{Type: ActionSetShowAuthDialog, Payload: "yes"},
			expected: State{ShowAuthDialog: true},
		},
		{
			name:     "unknown action ignored",
			initial:  State{APIKey: "k"},
			action:   Action{Type: "SOMETHING_ELSE"},
			expected: State{APIKey: "k"},
		},
		{
			name:     "reset",
			initial:  State{APIKey: "k", ShowAuthDialog: true, KeySavedAt: now},
			action:   Action{Type: ActionReset},
			expected: State{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reduce(tt.initial, tt.action, now))
		})
	}
}

func TestStoreDispatchNotifiesOnChange(t *testing.T) {
	store := NewStore(State{})

	var calls int
	var lastAction Action
	store.Subscribe(func(prev, next State, action Action) {
		calls++
		lastAction = action
	})

	store.Dispatch(SetShowAuthDialog(true))
	assert.Equal(t, 1, calls)
	assert.Equal(t, ActionSetShowAuthDialog, lastAction.Type)

	// No change, no notification
	store.Dispatch(SetShowAuthDialog(true))
	assert.Equal(t, 1, calls)

	next := store.Dispatch(SetAPIKey(strPtr("token")))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "token", next.APIKey)
	assert.True(t, store.State().HasAPIKey())
	assert.False(t, store.State().KeySavedAt.IsZero())
}
