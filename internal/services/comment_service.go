package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CommentMaxLen = 2000

type CommentService struct {
	db       *gorm.DB
	notifier Notifier
	filter   *ContentFilter
}

func NewCommentService(db *gorm.DB, notifier Notifier, filter *ContentFilter) *CommentService {
	return &CommentService{db: db, notifier: notifier, filter: filter}
}

// CommentView is a comment with its author's name, hidden for anonymous
// comments unless the viewer wrote it or is secretary-or-above.
type CommentView struct {
	models.Comment
	AuthorName string `json:"author_name"`
}

const anonymousAuthor = "Anonymous Resident"

func (s *CommentService) validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	errs := fieldErrors{}
	checkLength(errs, "text", text, 1, CommentMaxLen)
	if err := errs.err(); err != nil {
		return "", err
	}
	return text, s.filter.Check("text", text)
}

// AddComment attaches a comment to a complaint. The comment is official when
// the author is committee-or-above at the time of writing.
func (s *CommentService) AddComment(ctx context.Context, actor Actor, complaintID uuid.UUID, text string, isAnonymous bool) (*models.Comment, error) {
	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}

	var (
		comment *models.Comment
		box     outbox
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := loadComplaint(tx, actor.SocietyID, complaintID, false)
		if err != nil {
			return err
		}
		author, err := findSocietyUser(tx, actor.SocietyID, actor.UserID)
		if err != nil {
			return err
		}

		official := author.IsCommitteeOrAbove()
		comment = &models.Comment{
			ComplaintID: complaint.ID,
			UserID:      author.ID,
			Text:        text,
			IsAnonymous: isAnonymous && !official,
			IsOfficial:  official,
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}

		name := author.FullName
		switch {
		case official:
			name += " (Committee)"
		case comment.IsAnonymous:
			name = anonymousAuthor
		}
		if complaint.ComplainantID != author.ID {
			box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyNewComment,
				"New comment on your complaint",
				fmt.Sprintf("%s commented on \"%s\".", name, complaint.Title)))
		}
		if official && complaint.AccusedUserID != nil && *complaint.AccusedUserID != author.ID {
			box.add(complaintNotice(complaint, *complaint.AccusedUserID, models.NotifyNewComment,
				"Official response on complaint",
				fmt.Sprintf("%s commented on complaint \"%s\".", name, complaint.Title)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return comment, nil
}

// loadComment fetches a comment whose complaint belongs to the society.
func loadComment(db *gorm.DB, societyID, commentID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := db.Joins("JOIN complaints ON complaints.id = comments.complaint_id").
		Where("comments.id = ? AND complaints.society_id = ?", commentID, societyID).
		Select("comments.*").
		First(&comment).Error
	if err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return &comment, nil
}

// UpdateComment lets the author change the text of their comment.
func (s *CommentService) UpdateComment(ctx context.Context, actor Actor, commentID uuid.UUID, text string) (*models.Comment, error) {
	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	comment, err := loadComment(db, actor.SocietyID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.UserID {
		return nil, AuthorizationError("you can only edit your own comments")
	}
	if err := db.Model(comment).Update("text", text).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	comment.Text = text
	return comment, nil
}

// DeleteComment removes a comment. Authors can delete their own comments,
// secretaries and admins can delete any.
func (s *CommentService) DeleteComment(ctx context.Context, actor Actor, commentID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	comment, err := loadComment(db, actor.SocietyID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.UserID && !actor.IsSecretaryOrAbove() {
		return AuthorizationError("you cannot delete this comment")
	}
	if err := db.Delete(comment).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// ListComments returns a complaint's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, actor Actor, complaintID uuid.UUID, p Page) (PageResult[CommentView], error) {
	db := s.db.WithContext(ctx)
	if _, err := loadComplaint(db, actor.SocietyID, complaintID, false); err != nil {
		return PageResult[CommentView]{}, err
	}

	query := db.Model(&models.Comment{}).Where("complaint_id = ?", complaintID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PageResult[CommentView]{}, fmt.Errorf("count comments: %w", err)
	}

	var rows []struct {
		models.Comment
		FullName string
	}
	err := query.
		Select("comments.*, users.full_name").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Order("comments.created_at DESC").
		Scopes(p.scope).
		Scan(&rows).Error
	if err != nil {
		return PageResult[CommentView]{}, fmt.Errorf("list comments: %w", err)
	}

	views := make([]CommentView, len(rows))
	for i, r := range rows {
		name := r.FullName
		if r.IsAnonymous && r.UserID != actor.UserID && !actor.IsSecretaryOrAbove() {
			name = anonymousAuthor
			r.Comment.UserID = uuid.Nil
		}
		views[i] = CommentView{Comment: r.Comment, AuthorName: name}
	}
	return newPageResult(views, total, p), nil
}
