package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	farDate := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		state     EventState
		actor     Actor
		action    StateAction
		eventDate time.Time
		want      EventState
		wantErr   error
	}{
		{
			name:  "owner resubmits pending event",
			state: StatePending, actor: ActorOwner, action: ActionSendToReview,
			eventDate: farDate, want: StatePending,
		},
		{
			name:  "owner resubmits canceled event",
			state: StateCanceled, actor: ActorOwner, action: ActionSendToReview,
			eventDate: farDate, want: StatePending,
		},
		{
			name:  "owner send to review too close to start",
			state: StatePending, actor: ActorOwner, action: ActionSendToReview,
			eventDate: now.Add(90 * time.Minute), wantErr: ErrConditionsNotMet,
		},
		{
			name:  "owner send to review exactly at lead boundary",
			state: StatePending, actor: ActorOwner, action: ActionSendToReview,
			eventDate: now.Add(OwnerLeadTime), wantErr: ErrConditionsNotMet,
		},
		{
			name:  "owner cancels pending event",
			state: StatePending, actor: ActorOwner, action: ActionCancelReview,
			eventDate: now.Add(time.Minute), want: StateCanceled,
		},
		{
			name:  "owner cannot cancel published event",
			state: StatePublished, actor: ActorOwner, action: ActionCancelReview,
			eventDate: farDate, wantErr: ErrConflict,
		},
		{
			name:  "owner cannot publish",
			state: StatePending, actor: ActorOwner, action: ActionPublishEvent,
			eventDate: farDate, wantErr: ErrConflict,
		},
		{
			name:  "moderator publishes pending event",
			state: StatePending, actor: ActorModerator, action: ActionPublishEvent,
			eventDate: farDate, want: StatePublished,
		},
		{
			name:  "moderator publish within one hour of start",
			state: StatePending, actor: ActorModerator, action: ActionPublishEvent,
			eventDate: now.Add(30 * time.Minute), wantErr: ErrConditionsNotMet,
		},
		{
			name:  "moderator publish just over one hour before start",
			state: StatePending, actor: ActorModerator, action: ActionPublishEvent,
			eventDate: now.Add(ModeratorLeadTime + time.Second), want: StatePublished,
		},
		{
			name:  "moderator rejects pending event",
			state: StatePending, actor: ActorModerator, action: ActionRejectEvent,
			eventDate: now, want: StateCanceled,
		},
		{
			name:  "moderator publish on canceled event",
			state: StateCanceled, actor: ActorModerator, action: ActionPublishEvent,
			eventDate: farDate, wantErr: ErrConflict,
		},
		{
			name:  "moderator reject on published event",
			state: StatePublished, actor: ActorModerator, action: ActionRejectEvent,
			eventDate: farDate, wantErr: ErrConflict,
		},
		{
			name:  "moderator send to review is not in the table",
			state: StatePending, actor: ActorModerator, action: ActionSendToReview,
			eventDate: farDate, wantErr: ErrConflict,
		},
		{
			name:  "unknown action literal",
			state: StatePending, actor: ActorOwner, action: StateAction("FREEZE"),
			eventDate: farDate, wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.state, tt.actor, tt.action, now, tt.eventDate)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransitionTerminalMessages(t *testing.T) {
	now := time.Now()

	_, err := Transition(StatePublished, ActorModerator, ActionPublishEvent, now, now.Add(48*time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already published")

	_, err = Transition(StateCanceled, ActorModerator, ActionRejectEvent, now, now.Add(48*time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already canceled")
}

func TestParseStateAction(t *testing.T) {
	got, err := ParseStateAction("PUBLISH_EVENT")
	require.NoError(t, err)
	assert.Equal(t, ActionPublishEvent, got)

	_, err = ParseStateAction("publish")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestNewPage(t *testing.T) {
	p, err := NewPage(20, 10)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 2, Size: 10}, p)
	assert.Equal(t, 20, p.Offset())

	// from inside a page maps to the page containing it
	p, err = NewPage(25, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Number)

	_, err = NewPage(0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewPage(-1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
