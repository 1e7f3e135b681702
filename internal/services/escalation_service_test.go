package services

import (
	"sync"
	"testing"
	"time"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestEscalateByComplainant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	accused := f.userAt(t, f.society, models.RoleResident, "B-204")
	committee := f.user(t, models.RoleCommitteeMember)
	secretary := f.user(t, models.RoleSecretary)
	admin := f.user(t, models.RoleAdmin)
	c := f.complaint(t, owner, against("B-204"))

	esc, err := f.escalations.Escalate(f.ctx, owner, c.ID, models.EscalateToSecretary, "  No response for a week  ")
	require.NoError(t, err)
	assert.Equal(t, "No response for a week", esc.Reason)
	assert.Equal(t, models.StatusOpen, esc.PreviousStatus)
	assert.False(t, esc.IsAutoEscalated)
	assert.Equal(t, models.StatusEscalated, f.reload(t, c.ID).Status)

	assert.Equal(t, -10, f.karmaOf(t, accused))
	assert.Len(t, f.inboxOfType(t, secretary, models.NotifyEscalation), 1)
	assert.Len(t, f.inboxOfType(t, admin, models.NotifyEscalation), 1)
	assert.Empty(t, f.inboxOfType(t, committee, models.NotifyEscalation))
	assert.Empty(t, f.inboxOfType(t, owner, models.NotifyEscalation), "actor is not notified of their own escalation")
	f.requireConsistent(t)
}

func TestEscalateByCommitteeNotifiesComplainant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	committee := f.user(t, models.RoleCommitteeMember)
	other := f.user(t, models.RoleCommitteeMember)
	c := f.complaint(t, owner)

	_, err := f.escalations.Escalate(f.ctx, committee, c.ID, models.EscalateToCommittee, "Needs a full committee decision")
	require.NoError(t, err)
	assert.Len(t, f.inboxOfType(t, owner, models.NotifyEscalation), 1)
	assert.Len(t, f.inboxOfType(t, other, models.NotifyEscalation), 1)
	assert.Empty(t, f.inboxOfType(t, committee, models.NotifyEscalation))
}

func TestEscalateRejections(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	stranger := f.user(t, models.RoleResident)
	committee := f.user(t, models.RoleCommitteeMember)
	c := f.complaint(t, owner)

	_, err := f.escalations.Escalate(f.ctx, owner, c.ID, models.EscalateToSecretary, "too short")
	requireKind(t, err, KindValidation)
	_, err = f.escalations.Escalate(f.ctx, owner, c.ID, "police", "Nobody is responding at all")
	requireKind(t, err, KindValidation)
	_, err = f.escalations.Escalate(f.ctx, stranger, c.ID, models.EscalateToSecretary, "Nobody is responding at all")
	requireKind(t, err, KindAuthorization)

	for _, status := range []models.ComplaintStatus{models.StatusResolved, models.StatusClosed, models.StatusRejected} {
		done := f.complaint(t, owner)
		_, err := f.complaints.UpdateStatus(f.ctx, committee, done.ID, status, "")
		require.NoError(t, err)
		_, err = f.escalations.Escalate(f.ctx, owner, done.ID, models.EscalateToLegal, "I am still not satisfied")
		requireKind(t, err, KindConflict)
		assert.Equal(t, status, f.reload(t, done.ID).Status)
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Escalation{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAcknowledgeEscalation(t *testing.T) {
	f := newFixture(t)
	other := f.newSociety(t, "Elsewhere", true, 7)
	owner := f.user(t, models.RoleResident)
	committee := f.user(t, models.RoleCommitteeMember)
	outsider := f.userAt(t, other, models.RoleAdmin, "Z-1")
	c := f.complaint(t, owner)

	esc, err := f.escalations.Escalate(f.ctx, owner, c.ID, models.EscalateToSecretary, "No response for a week")
	require.NoError(t, err)

	_, err = f.escalations.Acknowledge(f.ctx, owner, esc.ID, "")
	requireKind(t, err, KindAuthorization)
	_, err = f.escalations.Acknowledge(f.ctx, outsider, esc.ID, "")
	requireKind(t, err, KindNotFound)

	acked, err := f.escalations.Acknowledge(f.ctx, committee, esc.ID, "Meeting scheduled for Sunday")
	require.NoError(t, err)
	assert.True(t, acked.IsAcknowledged)
	require.NotNil(t, acked.AcknowledgedByID)
	assert.Equal(t, committee.UserID, *acked.AcknowledgedByID)
	assert.NotNil(t, acked.AcknowledgedAt)

	notes := f.inboxOfType(t, owner, models.NotifyEscalationAck)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Meeting scheduled for Sunday")

	_, err = f.escalations.Acknowledge(f.ctx, committee, esc.ID, "")
	requireKind(t, err, KindConflict)
}

func TestListEscalations(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	accused := f.userAt(t, f.society, models.RoleResident, "B-204")
	stranger := f.user(t, models.RoleResident)
	secretary := f.user(t, models.RoleSecretary)

	first := f.complaint(t, owner, against("B-204"))
	second := f.complaint(t, owner)
	stale := f.complaint(t, owner)
	f.backdate(t, stale.ID, "created_at", 9*day)

	esc, err := f.escalations.Escalate(f.ctx, owner, first.ID, models.EscalateToLegal, "Repeated damage to my car")
	require.NoError(t, err)
	_, err = f.escalations.Escalate(f.ctx, owner, second.ID, models.EscalateToCommittee, "Needs a committee decision")
	require.NoError(t, err)
	_, err = f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	_, err = f.escalations.Acknowledge(f.ctx, secretary, esc.ID, "")
	require.NoError(t, err)

	_, err = f.escalations.List(f.ctx, owner, EscalationFilter{}, Page{})
	requireKind(t, err, KindAuthorization)

	page, err := f.escalations.List(f.ctx, secretary, EscalationFilter{}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = f.escalations.List(f.ctx, secretary, EscalationFilter{Acknowledged: ptr(false)}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = f.escalations.List(f.ctx, secretary, EscalationFilter{Target: models.EscalateToLegal}, Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, esc.ID, page.Items[0].ID)

	page, err = f.escalations.List(f.ctx, secretary, EscalationFilter{AutoOnly: true}, Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, stale.ID, page.Items[0].ComplaintID)

	history, err := f.escalations.ForComplaint(f.ctx, accused, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	_, err = f.escalations.ForComplaint(f.ctx, stranger, first.ID)
	requireKind(t, err, KindAuthorization)
}

func TestAutoEscalateSweep(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	secretary := f.user(t, models.RoleSecretary)
	committee := f.user(t, models.RoleCommitteeMember)

	stale := f.complaint(t, owner)
	fresh := f.complaint(t, owner)
	handled := f.complaint(t, owner)
	f.backdate(t, stale.ID, "created_at", 8*day)
	f.backdate(t, fresh.ID, "created_at", 6*day)
	f.backdate(t, handled.ID, "created_at", 8*day)
	_, err := f.complaints.UpdateStatus(f.ctx, committee, handled.ID, models.StatusAcknowledged, "")
	require.NoError(t, err)

	res, err := f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 1, Escalated: 1}, res)

	assert.Equal(t, models.StatusEscalated, f.reload(t, stale.ID).Status)
	assert.Equal(t, models.StatusOpen, f.reload(t, fresh.ID).Status)
	assert.Equal(t, models.StatusAcknowledged, f.reload(t, handled.ID).Status)

	var esc models.Escalation
	require.NoError(t, f.db.First(&esc, "complaint_id = ?", stale.ID).Error)
	assert.True(t, esc.IsAutoEscalated)
	assert.Equal(t, models.EscalateToSecretary, esc.EscalatedTo)
	assert.Equal(t, owner.UserID, esc.EscalatedByID)
	assert.Equal(t, models.StatusOpen, esc.PreviousStatus)
	assert.Len(t, f.inboxOfType(t, secretary, models.NotifyEscalation), 1)
	assert.Len(t, f.inboxOfType(t, owner, models.NotifyEscalation), 1)

	res, err = f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Escalated)

	// Reopened complaints are never auto-escalated a second time.
	_, err = f.complaints.UpdateStatus(f.ctx, committee, stale.ID, models.StatusOpen, "")
	require.NoError(t, err)
	res, err = f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Equal(t, models.StatusOpen, f.reload(t, stale.ID).Status)
}

func TestAutoEscalateUsesSocietyWindow(t *testing.T) {
	f := newFixture(t)
	quick := f.newSociety(t, "Quick Heights", true, 3)
	slowOwner := f.user(t, models.RoleResident)
	quickOwner := f.userAt(t, quick, models.RoleResident, "Q-1")

	slow := f.complaint(t, slowOwner)
	fast, err := f.complaints.Create(f.ctx, quickOwner, validInput())
	require.NoError(t, err)
	f.backdate(t, slow.ID, "created_at", 4*day)
	f.backdate(t, fast.ID, "created_at", 4*day)

	res, err := f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, models.StatusOpen, f.reload(t, slow.ID).Status)
	assert.Equal(t, models.StatusEscalated, f.reload(t, fast.ID).Status)
}

func TestConcurrentSweepsEscalateOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	stale := make([]*models.Complaint, 5)
	for i := range stale {
		stale[i] = f.complaint(t, owner)
		f.backdate(t, stale[i].ID, "created_at", 10*day)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.escalations.AutoEscalateSweep(f.ctx, time.Now())
			assert.NoError(t, err)
			mu.Lock()
			total += res.Escalated
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(stale), total)
	var n int64
	require.NoError(t, f.db.Model(&models.Escalation{}).Where("is_auto_escalated = ?", true).Count(&n).Error)
	assert.EqualValues(t, len(stale), n)
}

func TestOneAutoEscalationPerComplaint(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	c := f.complaint(t, owner)

	auto := func() *models.Escalation {
		return &models.Escalation{
			ComplaintID: c.ID, EscalatedByID: owner.UserID, EscalatedTo: models.EscalateToSecretary,
			Reason: "Auto-escalated", PreviousStatus: models.StatusOpen, IsAutoEscalated: true,
		}
	}
	require.NoError(t, f.db.Create(auto()).Error)
	assert.Error(t, f.db.Create(auto()).Error)

	manual := auto()
	manual.IsAutoEscalated = false
	require.NoError(t, f.db.Create(manual).Error)
	manual = auto()
	manual.IsAutoEscalated = false
	require.NoError(t, f.db.Create(manual).Error)
}

func TestAutoEscalateFallsBackToDefaultWindow(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	c := f.complaint(t, owner)
	f.backdate(t, c.ID, "created_at", 3*day)
	require.NoError(t, f.db.Model(f.society).UpdateColumn("auto_escalate_days", 0).Error)

	res, err := f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Escalated)

	f.escalations.SetDefaultWindow(2)
	res, err = f.escalations.AutoEscalateSweep(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
}
