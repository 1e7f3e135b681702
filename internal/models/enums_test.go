package models_test

import (
	"testing"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRoleLevels(t *testing.T) {
	assert.True(t, models.RoleAdmin.AtLeast(models.RoleSecretary))
	assert.True(t, models.RoleSecretary.AtLeast(models.RoleCommitteeMember))
	assert.True(t, models.RoleCommitteeMember.IsCommitteeOrAbove())
	assert.False(t, models.RoleResident.IsCommitteeOrAbove())
	assert.False(t, models.Role("janitor").Valid())
	assert.False(t, models.Role("janitor").AtLeast(models.RoleResident))
}

func TestTerminalStatusesAreLocked(t *testing.T) {
	for _, from := range []models.ComplaintStatus{models.StatusResolved, models.StatusClosed, models.StatusRejected} {
		assert.True(t, from.IsTerminal(), from)
		assert.False(t, from.Escalatable(), from)
		for _, to := range models.AllStatuses {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNonTerminalTransitions(t *testing.T) {
	open := []models.ComplaintStatus{models.StatusOpen, models.StatusAcknowledged, models.StatusInProgress, models.StatusEscalated}
	for _, from := range open {
		assert.False(t, from.IsTerminal())
		assert.True(t, from.Escalatable(), from)
		assert.False(t, from.CanTransitionTo(from), "self transition %s", from)
		assert.False(t, from.CanTransitionTo("ARCHIVED"))
		for _, to := range models.AllStatuses {
			if to != from {
				assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	}
}

func TestKarmaPointTable(t *testing.T) {
	expected := map[models.KarmaReason]int{
		"COMPLAINT_FILED":            1,
		"COMPLAINT_RESOLVED":         10,
		"COMPLAINT_AGAINST_RESOLVED": -5,
		"REPEAT_OFFENDER":            -50,
		"HELPFUL_VOTE":               2,
		"FALSE_COMPLAINT":            -20,
		"COMMUNITY_CONTRIBUTION":     15,
		"MONTHLY_BONUS":              10,
		"ESCALATION_PENALTY":         -10,
		"MANUAL_ADJUSTMENT":          0,
	}
	assert.Equal(t, expected, models.KarmaPoints)
	assert.False(t, models.KarmaReason("BRIBE").Valid())
}

func TestEscalationRecipients(t *testing.T) {
	assert.Equal(t, []models.Role{models.RoleSecretary, models.RoleAdmin}, models.EscalateToSecretary.Recipients())
	assert.Equal(t, []models.Role{models.RoleCommitteeMember, models.RoleSecretary, models.RoleAdmin}, models.EscalateToCommittee.Recipients())
	assert.Equal(t, []models.Role{models.RoleAdmin}, models.EscalateToLegal.Recipients())
	assert.Nil(t, models.EscalationTarget("police").Recipients())
}

func TestVoteCounterColumn(t *testing.T) {
	assert.Equal(t, "support_count", models.VoteSupport.CounterColumn())
	assert.Equal(t, "oppose_count", models.VoteOppose.CounterColumn())
	assert.False(t, models.VoteType("abstain").Valid())
}

func TestComplaintBeforeCreateDefaults(t *testing.T) {
	c := &models.Complaint{}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.StatusOpen, c.Status)
	assert.Equal(t, models.PriorityMedium, c.Priority)
}

func TestSocietyEscalationDays(t *testing.T) {
	assert.Equal(t, 3, (&models.Society{AutoEscalateDays: 3}).EscalationDays(10))
	assert.Equal(t, 10, (&models.Society{}).EscalationDays(10))
	assert.Equal(t, models.DefaultAutoEscalateDays, (&models.Society{}).EscalationDays(0))
}
