package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutomaticTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusPaid, true},
		{StatusDraft, StatusOverdue, false},
		{StatusDraft, StatusPending, false},
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusOverdue, true},
		{StatusOverdue, StatusPaid, true},
		{StatusOverdue, StatusPending, false},
		{StatusPaid, StatusPending, false},
		{StatusPaid, StatusOverdue, false},
		{StatusPaid, StatusPaid, false},
		{Status("VOID"), StatusPaid, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
			got, changed := Promote(tc.from, tc.to)
			assert.Equal(t, tc.want, changed)
			if tc.want {
				assert.Equal(t, tc.to, got)
			} else {
				assert.Equal(t, tc.from, got)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusPaid, StatusOverdue} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("paid").Valid())
	assert.Equal(t, "overdue", StatusOverdue.StatusClass())
}
