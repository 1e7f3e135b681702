package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteService keeps at most one vote per user and complaint, and keeps the
// complaint's support/oppose counters in step with the vote rows.
type VoteService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewVoteService(db *gorm.DB, notifier Notifier) *VoteService {
	return &VoteService{db: db, notifier: notifier}
}

// VoteResult is the caller's vote after a cast plus the complaint counters.
type VoteResult struct {
	Vote         models.Vote `json:"vote"`
	IsNew        bool        `json:"is_new"`
	SupportCount int         `json:"support_count"`
	OpposeCount  int         `json:"oppose_count"`
}

func incrementCounter(tx *gorm.DB, complaintID uuid.UUID, vt models.VoteType) error {
	col := vt.CounterColumn()
	return tx.Model(&models.Complaint{}).Where("id = ?", complaintID).
		UpdateColumn(col, gorm.Expr(col+" + 1")).Error
}

// decrementCounter never takes a counter below zero.
func decrementCounter(tx *gorm.DB, complaintID uuid.UUID, vt models.VoteType) error {
	col := vt.CounterColumn()
	return tx.Model(&models.Complaint{}).Where("id = ?", complaintID).
		UpdateColumn(col, gorm.Expr("CASE WHEN "+col+" > 0 THEN "+col+" - 1 ELSE 0 END")).Error
}

func readCounters(tx *gorm.DB, complaintID uuid.UUID, res *VoteResult) error {
	var c models.Complaint
	if err := tx.Select("support_count", "oppose_count").First(&c, "id = ?", complaintID).Error; err != nil {
		return fmt.Errorf("reload counters: %w", err)
	}
	res.SupportCount = c.SupportCount
	res.OpposeCount = c.OpposeCount
	return nil
}

// CastVote records or changes the actor's vote. isAnonymous defaults to
// true when nil.
func (s *VoteService) CastVote(ctx context.Context, actor Actor, complaintID uuid.UUID, voteType models.VoteType, isAnonymous *bool) (*VoteResult, error) {
	if !voteType.Valid() {
		return nil, FieldError("vote_type", "vote_type must be support or oppose")
	}
	anonymous := true
	if isAnonymous != nil {
		anonymous = *isAnonymous
	}

	var (
		res       VoteResult
		complaint *models.Complaint
		box       outbox
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		complaint, err = loadComplaint(tx, actor.SocietyID, complaintID, true)
		if err != nil {
			return err
		}
		if complaint.ComplainantID == actor.UserID {
			return AuthorizationError("cannot vote on your own complaint")
		}

		var existing models.Vote
		err = tx.Where("complaint_id = ? AND user_id = ?", complaintID, actor.UserID).First(&existing).Error
		switch {
		case err == nil:
			res.Vote = existing
			if existing.VoteType != voteType {
				if err := decrementCounter(tx, complaintID, existing.VoteType); err != nil {
					return fmt.Errorf("decrement %s: %w", existing.VoteType, err)
				}
				if err := incrementCounter(tx, complaintID, voteType); err != nil {
					return fmt.Errorf("increment %s: %w", voteType, err)
				}
				if err := tx.Model(&res.Vote).Updates(map[string]interface{}{
					"vote_type":    voteType,
					"is_anonymous": anonymous,
				}).Error; err != nil {
					return fmt.Errorf("update vote: %w", err)
				}
				res.Vote.VoteType = voteType
				res.Vote.IsAnonymous = anonymous
			}
			return readCounters(tx, complaintID, &res)

		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				ComplaintID: complaintID,
				UserID:      actor.UserID,
				VoteType:    voteType,
				IsAnonymous: anonymous,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if result.Error != nil {
				return fmt.Errorf("insert vote: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ConflictError("vote already recorded, retry")
			}
			if err := incrementCounter(tx, complaintID, voteType); err != nil {
				return fmt.Errorf("increment %s: %w", voteType, err)
			}
			if _, err := awardKarma(tx, actor.UserID, models.KarmaHelpfulVote, 0, "", &complaint.ID); err != nil {
				return err
			}
			res.Vote = vote
			res.IsNew = true

			if voteType == models.VoteSupport && !anonymous {
				box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyNewVote,
					"New support", "Someone supported your complaint \""+complaint.Title+"\"."))
			}
			return readCounters(tx, complaintID, &res)

		default:
			return fmt.Errorf("load vote: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return &res, nil
}

// RemoveVote deletes the actor's vote and reports whether one existed.
func (s *VoteService) RemoveVote(ctx context.Context, actor Actor, complaintID uuid.UUID) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadComplaint(tx, actor.SocietyID, complaintID, true); err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("complaint_id = ? AND user_id = ?", complaintID, actor.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load vote: %w", err)
		}

		result := tx.Delete(&existing)
		if result.Error != nil {
			return fmt.Errorf("delete vote: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := decrementCounter(tx, complaintID, existing.VoteType); err != nil {
			return fmt.Errorf("decrement %s: %w", existing.VoteType, err)
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GetUserVote returns the actor's vote on the complaint, or nil.
func (s *VoteService) GetUserVote(ctx context.Context, actor Actor, complaintID uuid.UUID) (*models.Vote, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadComplaint(db, actor.SocietyID, complaintID, false); err != nil {
		return nil, err
	}
	var vote models.Vote
	err := db.Where("complaint_id = ? AND user_id = ?", complaintID, actor.UserID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vote: %w", err)
	}
	return &vote, nil
}

// UserVotes returns the actor's vote type on each of complaintIDs that they
// voted on.
func (s *VoteService) UserVotes(ctx context.Context, actor Actor, complaintIDs []uuid.UUID) (map[uuid.UUID]models.VoteType, error) {
	out := make(map[uuid.UUID]models.VoteType, len(complaintIDs))
	if len(complaintIDs) == 0 {
		return out, nil
	}
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Select("complaint_id", "vote_type").
		Where("user_id = ? AND complaint_id IN ?", actor.UserID, complaintIDs).
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("load user votes: %w", err)
	}
	for _, v := range votes {
		out[v.ComplaintID] = v.VoteType
	}
	return out, nil
}

// VoteSummary lists votes with voter identity hidden unless the vote is
// public or the viewer is secretary-or-above.
type VoteSummary struct {
	SupportCount int           `json:"support_count"`
	OpposeCount  int           `json:"oppose_count"`
	Votes        []VoterRecord `json:"votes"`
}

type VoterRecord struct {
	VoteType models.VoteType `json:"vote_type"`
	UserID   *uuid.UUID      `json:"user_id,omitempty"`
	FullName string          `json:"full_name,omitempty"`
}

func (s *VoteService) ListVotes(ctx context.Context, actor Actor, complaintID uuid.UUID) (*VoteSummary, error) {
	db := s.db.WithContext(ctx)
	complaint, err := loadComplaint(db, actor.SocietyID, complaintID, false)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		UserID      uuid.UUID
		VoteType    models.VoteType
		IsAnonymous bool
		FullName    string
	}
	err = db.Table("votes").
		Select("votes.user_id, votes.vote_type, votes.is_anonymous, users.full_name").
		Joins("JOIN users ON users.id = votes.user_id").
		Where("votes.complaint_id = ?", complaintID).
		Order("votes.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	summary := &VoteSummary{
		SupportCount: complaint.SupportCount,
		OpposeCount:  complaint.OpposeCount,
		Votes:        make([]VoterRecord, 0, len(rows)),
	}
	for _, r := range rows {
		rec := VoterRecord{VoteType: r.VoteType}
		if !r.IsAnonymous || actor.IsSecretaryOrAbove() || r.UserID == actor.UserID {
			id := r.UserID
			rec.UserID = &id
			rec.FullName = r.FullName
		}
		summary.Votes = append(summary.Votes, rec)
	}
	return summary, nil
}
