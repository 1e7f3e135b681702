package services

import (
	"testing"
	"time"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	accused := f.userAt(t, f.society, models.RoleResident, "B-204")
	committee := f.user(t, models.RoleCommitteeMember)

	first := f.complaint(t, owner, against("B-204"))
	f.complaint(t, owner)
	_, err := f.complaints.UpdateStatus(f.ctx, committee, first.ID, models.StatusResolved, "")
	require.NoError(t, err)

	st, err := f.stats.Dashboard(f.ctx, owner, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.OpenComplaints)
	assert.EqualValues(t, 1, st.ResolvedComplaints)
	assert.EqualValues(t, 2, st.MyComplaints)
	assert.Zero(t, st.ComplaintsAgainstMe)
	assert.Equal(t, 12, st.MyKarma)
	assert.Equal(t, 12, st.MyKarmaChangeThisWeek)
	assert.EqualValues(t, 2, st.NewThisWeek)
	assert.EqualValues(t, 1, st.ResolvedThisWeek)
	assert.EqualValues(t, 1, st.UnreadNotifications)
	// (12 - 5 + 0) / 3 users
	assert.InDelta(t, 2.33, st.SocietyKarmaAverage, 0.001)

	st, err = f.stats.Dashboard(f.ctx, accused, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.ComplaintsAgainstMe)
	assert.Equal(t, -5, st.MyKarma)
}

func TestDashboardMatchesFlatIgnoringCase(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	c := f.complaint(t, owner, against("c-12"))
	require.Nil(t, c.AccusedUserID)

	// Moves in after the complaint was filed, so only the flat links them.
	newcomer := f.userAt(t, f.society, models.RoleResident, "c-12")
	st, err := f.stats.Dashboard(f.ctx, newcomer, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.ComplaintsAgainstMe)
}

func TestSocietyStats(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	f.userAt(t, f.society, models.RoleResident, "B-204")
	secretary := f.user(t, models.RoleSecretary)

	_, err := f.stats.Society(f.ctx, owner)
	requireKind(t, err, KindAuthorization)

	for i := 0; i < 3; i++ {
		c := f.complaint(t, owner, against("B-204"))
		_, err := f.complaints.UpdateStatus(f.ctx, secretary, c.ID, models.StatusResolved, "")
		require.NoError(t, err)
	}
	f.complaint(t, owner, func(in *ComplaintInput) {
		in.Category = models.CategoryParking
		in.Priority = models.PriorityHigh
	})

	st, err := f.stats.Society(f.ctx, secretary)
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.TotalComplaints)
	assert.EqualValues(t, 3, st.ResolvedComplaints)
	assert.InDelta(t, 75.0, st.ResolutionRate, 0.001)
	assert.EqualValues(t, 3, st.CategoryWise[models.CategoryNoise])
	assert.EqualValues(t, 1, st.CategoryWise[models.CategoryParking])
	assert.EqualValues(t, 3, st.StatusWise[models.StatusResolved])
	assert.EqualValues(t, 1, st.PriorityWise[models.PriorityHigh])
	assert.Zero(t, st.PriorityWise[models.PriorityMedium], "resolved complaints are not pending")
	assert.InDelta(t, 0, st.AverageResolutionDays, 0.1)

	require.Len(t, st.RepeatOffenders, 1)
	assert.Equal(t, "B-204", st.RepeatOffenders[0].FlatNumber)
	assert.EqualValues(t, 3, st.RepeatOffenders[0].Count)
	require.Len(t, st.ActiveComplainers, 1)
	assert.Equal(t, owner.UserID, st.ActiveComplainers[0].UserID)
	assert.EqualValues(t, 4, st.ActiveComplainers[0].Count)

	f.stats.Invalidate(f.ctx, f.society.ID)
}
