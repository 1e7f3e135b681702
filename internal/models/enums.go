package models

// Role is a user's capability level inside a society.
type Role string

const (
	RoleResident        Role = "resident"
	RoleCommitteeMember Role = "committee_member"
	RoleSecretary       Role = "secretary"
	RoleAdmin           Role = "admin"
)

// Level orders roles so that permission checks compare numerically.
// Unknown roles rank below resident.
func (r Role) Level() int {
	switch r {
	case RoleResident:
		return 0
	case RoleCommitteeMember:
		return 1
	case RoleSecretary:
		return 2
	case RoleAdmin:
		return 3
	default:
		return -1
	}
}

func (r Role) AtLeast(min Role) bool {
	return r.Level() >= min.Level()
}

func (r Role) Valid() bool {
	return r.Level() >= 0
}

// IsCommitteeOrAbove reports whether the role can triage complaints.
func (r Role) IsCommitteeOrAbove() bool {
	return r.AtLeast(RoleCommitteeMember)
}

type ComplaintStatus string

const (
	StatusOpen         ComplaintStatus = "OPEN"
	StatusAcknowledged ComplaintStatus = "ACKNOWLEDGED"
	StatusInProgress   ComplaintStatus = "IN_PROGRESS"
	StatusEscalated    ComplaintStatus = "ESCALATED"
	StatusResolved     ComplaintStatus = "RESOLVED"
	StatusClosed       ComplaintStatus = "CLOSED"
	StatusRejected     ComplaintStatus = "REJECTED"
)

var AllStatuses = []ComplaintStatus{
	StatusOpen, StatusAcknowledged, StatusInProgress, StatusEscalated,
	StatusResolved, StatusClosed, StatusRejected,
}

func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAcknowledged, StatusInProgress, StatusEscalated,
		StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s ComplaintStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusClosed, StatusRejected:
		return true
	case StatusOpen, StatusAcknowledged, StatusInProgress, StatusEscalated:
		return false
	}
	return false
}

// CanTransitionTo applies the lifecycle table: terminal states are locked,
// every other state may move to any different valid state.
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusOpen, StatusAcknowledged, StatusInProgress, StatusEscalated:
		return true
	case StatusResolved, StatusClosed, StatusRejected:
		return false
	}
	return false
}

// Escalatable reports whether a manual escalation may be filed.
func (s ComplaintStatus) Escalatable() bool {
	return !s.IsTerminal()
}

type Category string

const (
	CategoryNoise       Category = "noise"
	CategoryParking     Category = "parking"
	CategoryPet         Category = "pet"
	CategoryMaintenance Category = "maintenance"
	CategoryCleanliness Category = "cleanliness"
	CategorySecurity    Category = "security"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryHarassment  Category = "harassment"
	CategoryOther       Category = "other"
)

var AllCategories = []Category{
	CategoryNoise, CategoryParking, CategoryPet, CategoryMaintenance, CategoryCleanliness,
	CategorySecurity, CategoryWater, CategoryElectricity, CategoryHarassment, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Urgent priorities alert the society's secretaries on filing.
func (p Priority) Urgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Rank is used for sorting, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	}
	return -1
}

type VoteType string

const (
	VoteSupport VoteType = "support"
	VoteOppose  VoteType = "oppose"
)

func (v VoteType) Valid() bool {
	return v == VoteSupport || v == VoteOppose
}

// CounterColumn is the denormalized complaint column tracking this vote type.
func (v VoteType) CounterColumn() string {
	switch v {
	case VoteSupport:
		return "support_count"
	case VoteOppose:
		return "oppose_count"
	}
	return ""
}

type EscalationTarget string

const (
	EscalateToSecretary EscalationTarget = "secretary"
	EscalateToCommittee EscalationTarget = "committee"
	EscalateToLegal     EscalationTarget = "legal"
)

func (t EscalationTarget) Valid() bool {
	switch t {
	case EscalateToSecretary, EscalateToCommittee, EscalateToLegal:
		return true
	}
	return false
}

// Recipients lists the roles notified when a complaint is escalated to t.
func (t EscalationTarget) Recipients() []Role {
	switch t {
	case EscalateToSecretary:
		return []Role{RoleSecretary, RoleAdmin}
	case EscalateToCommittee:
		return []Role{RoleCommitteeMember, RoleSecretary, RoleAdmin}
	case EscalateToLegal:
		return []Role{RoleAdmin}
	}
	return nil
}

type KarmaReason string

const (
	KarmaComplaintFiled           KarmaReason = "COMPLAINT_FILED"
	KarmaComplaintResolved        KarmaReason = "COMPLAINT_RESOLVED"
	KarmaComplaintAgainstResolved KarmaReason = "COMPLAINT_AGAINST_RESOLVED"
	KarmaRepeatOffender           KarmaReason = "REPEAT_OFFENDER"
	KarmaHelpfulVote              KarmaReason = "HELPFUL_VOTE"
	KarmaFalseComplaint           KarmaReason = "FALSE_COMPLAINT"
	KarmaCommunityContribution    KarmaReason = "COMMUNITY_CONTRIBUTION"
	KarmaMonthlyBonus             KarmaReason = "MONTHLY_BONUS"
	KarmaEscalationPenalty        KarmaReason = "ESCALATION_PENALTY"
	KarmaManualAdjustment         KarmaReason = "MANUAL_ADJUSTMENT"
)

// KarmaPoints is the fixed point table. MANUAL_ADJUSTMENT carries
// caller-supplied points.
var KarmaPoints = map[KarmaReason]int{
	KarmaComplaintFiled:           1,
	KarmaComplaintResolved:        10,
	KarmaComplaintAgainstResolved: -5,
	KarmaRepeatOffender:           -50,
	KarmaHelpfulVote:              2,
	KarmaFalseComplaint:           -20,
	KarmaCommunityContribution:    15,
	KarmaMonthlyBonus:             10,
	KarmaEscalationPenalty:        -10,
	KarmaManualAdjustment:         0,
}

func (r KarmaReason) Valid() bool {
	_, ok := KarmaPoints[r]
	return ok
}

// Points returns the table value for r.
func (r KarmaReason) Points() int {
	return KarmaPoints[r]
}

type NotificationType string

const (
	NotifyComplaintFiled    NotificationType = "complaint_filed"
	NotifyComplaintAgainst  NotificationType = "complaint_against"
	NotifyStatusChanged     NotificationType = "status_changed"
	NotifyNewVote           NotificationType = "new_vote"
	NotifyNewComment        NotificationType = "new_comment"
	NotifyEscalation        NotificationType = "escalation"
	NotifyEscalationAck     NotificationType = "escalation_acknowledged"
	NotifyReminder          NotificationType = "reminder"
	NotifyKarma             NotificationType = "karma"
	NotifyWeeklyReport      NotificationType = "weekly_report"
	NotifyHighPriorityAlert NotificationType = "high_priority_alert"
)
