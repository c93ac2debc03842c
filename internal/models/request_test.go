package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from RequestStatus
		to   RequestStatus
		want bool
	}{
		{RequestStatusOpen, RequestStatusAccepted, true},
		{RequestStatusOpen, RequestStatusInProgress, false},
		{RequestStatusOpen, RequestStatusCompleted, false},
		{RequestStatusAccepted, RequestStatusInProgress, true},
		{RequestStatusAccepted, RequestStatusCompleted, true},
		{RequestStatusAccepted, RequestStatusOpen, false},
		{RequestStatusInProgress, RequestStatusCompleted, true},
		{RequestStatusInProgress, RequestStatusAccepted, false},
		{RequestStatusCompleted, RequestStatusOpen, false},
		{"cancelled", RequestStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestSourcesFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []RequestStatus{RequestStatusOpen}, SourcesFor(RequestStatusAccepted))
	assert.Equal(t, []RequestStatus{RequestStatusAccepted}, SourcesFor(RequestStatusInProgress))
	assert.ElementsMatch(t, []RequestStatus{RequestStatusAccepted, RequestStatusInProgress}, SourcesFor(RequestStatusCompleted))
	assert.Empty(t, SourcesFor(RequestStatusOpen))
}

func TestRequestAction_Target(t *testing.T) {
	t.Parallel()

	to, ok := ActionAccept.Target()
	assert.True(t, ok)
	assert.Equal(t, RequestStatusAccepted, to)

	_, ok = ActionDecline.Target()
	assert.False(t, ok)
	assert.False(t, RequestAction("cancel").Valid())
}

func TestHuman_EligibleForWork(t *testing.T) {
	t.Parallel()

	h := Human{Verified: true, Status: AccountStatusActive, ReviewStatus: ReviewStatusPending}
	assert.True(t, h.EligibleForWork(false))
	assert.False(t, h.EligibleForWork(true))

	h.ReviewStatus = ReviewStatusApproved
	assert.True(t, h.EligibleForWork(true))

	h.Status = AccountStatusSuspended
	assert.False(t, h.EligibleForWork(false))

	h = Human{Verified: false, Status: AccountStatusActive, ReviewStatus: ReviewStatusApproved}
	assert.False(t, h.EligibleForWork(false))
}

func TestTagList_RoundTrip(t *testing.T) {
	t.Parallel()

	v, err := TagList{"node", "python", "a|b"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, "|node|python|ab|", v)

	var out TagList
	assert.NoError(t, out.Scan("|node|python|"))
	assert.Equal(t, TagList{"node", "python"}, out)
	assert.True(t, out.Contains("node"))

	empty, err := TagList{}.Value()
	assert.NoError(t, err)
	assert.Equal(t, "", empty)
	assert.Equal(t, `%|data\_analysis|%`, TagPattern("data_analysis"))
}
