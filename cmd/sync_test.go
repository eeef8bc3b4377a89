package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-cli/pkg/salesforce"
)

func TestMapOpportunities(t *testing.T) {
	opps := []salesforce.Opportunity{
		{
			ID:          "006A",
			OwnerID:     "005A",
			Amount:      50000,
			StageName:   "Closed Won",
			CreatedDate: "2025-04-01T09:30:00.000+0000",
			CloseDate:   "2025-05-20",
			HealthScore: 22,
			IsClosed:    true,
		},
		{
			ID:          "006B",
			OwnerID:     "005B",
			Amount:      12000,
			StageName:   "Commit - Q2",
			Partner:     "Acme Partners",
			CreatedDate: "2025-04-05T10:00:00.000+0000",
			CloseDate:   "2025-06-30", // projected close, still open
			IsClosed:    false,
		},
		{
			ID:          "006C",
			CreatedDate: "garbage",
		},
	}

	deals := mapOpportunities(opps)
	require.Len(t, deals, 2)

	assert.Equal(t, "006A", deals[0].ID)
	assert.Equal(t, "005A", deals[0].RepID)
	assert.Equal(t, time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC), deals[0].CreatedAt)
	require.NotNil(t, deals[0].ClosedAt)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), *deals[0].ClosedAt)

	// Open opportunities never get a close date, whatever CloseDate says.
	assert.Nil(t, deals[1].ClosedAt)
	assert.Equal(t, "Acme Partners", deals[1].Partner)
}

func TestMapUsers(t *testing.T) {
	users := []salesforce.User{
		{ID: "005A", Name: "Dana", ManagerID: "005M", IsActive: true},
		{ID: "", Name: "ghost"},
		{ID: "005X", Name: "Former", IsActive: false},
	}

	reps := mapUsers(users)
	require.Len(t, reps, 2)
	assert.Equal(t, "005M", reps[0].ParentID)
	assert.False(t, reps[1].Active)
}

func TestParseSFTime(t *testing.T) {
	got, ok := parseSFTime("2025-04-01T09:30:00.000+0000")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC), got)

	got, ok = parseSFTime("2025-05-20")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), got)

	_, ok = parseSFTime("n/a")
	assert.False(t, ok)
}
