package services

import (
	"strings"
	"testing"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	accused := f.userAt(t, f.society, models.RoleResident, "B-204")
	neighbour := f.user(t, models.RoleResident)
	committee := f.user(t, models.RoleCommitteeMember)
	c := f.complaint(t, owner, against("B-204"))

	comment, err := f.comments.AddComment(f.ctx, neighbour, c.ID, "  Same problem on our floor.  ", true)
	require.NoError(t, err)
	assert.Equal(t, "Same problem on our floor.", comment.Text)
	assert.True(t, comment.IsAnonymous)
	assert.False(t, comment.IsOfficial)
	notes := f.inboxOfType(t, owner, models.NotifyNewComment)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Anonymous Resident")
	assert.Empty(t, f.inboxOfType(t, accused, models.NotifyNewComment))

	official, err := f.comments.AddComment(f.ctx, committee, c.ID, "We will inspect on Saturday.", true)
	require.NoError(t, err)
	assert.True(t, official.IsOfficial)
	assert.False(t, official.IsAnonymous, "official comments are never anonymous")
	assert.Len(t, f.inboxOfType(t, accused, models.NotifyNewComment), 1)

	_, err = f.comments.AddComment(f.ctx, owner, c.ID, "Thank you.", false)
	require.NoError(t, err)
	assert.Len(t, f.inboxOfType(t, owner, models.NotifyNewComment), 2, "own comments do not notify")
}

func TestAddCommentValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	c := f.complaint(t, owner)

	for name, text := range map[string]string{
		"blank":     "   ",
		"too long":  strings.Repeat("a ", CommentMaxLen),
		"profanity": "What a bastard.",
		"shouting":  "Fix this!!!!!!!!!!",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.comments.AddComment(f.ctx, owner, c.ID, text, false)
			requireKind(t, err, KindValidation)
		})
	}

	_, err := f.comments.AddComment(f.ctx, owner, uuid.New(), "Hello there", false)
	requireKind(t, err, KindNotFound)
}

func TestUpdateAndDeleteComment(t *testing.T) {
	f := newFixture(t)
	other := f.newSociety(t, "Elsewhere", true, 7)
	owner := f.user(t, models.RoleResident)
	author := f.user(t, models.RoleResident)
	committee := f.user(t, models.RoleCommitteeMember)
	secretary := f.user(t, models.RoleSecretary)
	outsider := f.userAt(t, other, models.RoleAdmin, "Z-1")
	c := f.complaint(t, owner)

	comment, err := f.comments.AddComment(f.ctx, author, c.ID, "First draft", false)
	require.NoError(t, err)

	_, err = f.comments.UpdateComment(f.ctx, committee, comment.ID, "Edited by someone else")
	requireKind(t, err, KindAuthorization)
	updated, err := f.comments.UpdateComment(f.ctx, author, comment.ID, "Second draft")
	require.NoError(t, err)
	assert.Equal(t, "Second draft", updated.Text)

	requireKind(t, f.comments.DeleteComment(f.ctx, committee, comment.ID), KindAuthorization)
	requireKind(t, f.comments.DeleteComment(f.ctx, outsider, comment.ID), KindNotFound)
	require.NoError(t, f.comments.DeleteComment(f.ctx, secretary, comment.ID))

	mine, err := f.comments.AddComment(f.ctx, author, c.ID, "Another thought", false)
	require.NoError(t, err)
	require.NoError(t, f.comments.DeleteComment(f.ctx, author, mine.ID))
	requireKind(t, f.comments.DeleteComment(f.ctx, author, mine.ID), KindNotFound)
}

func TestListCommentsMasksAnonymousAuthors(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleResident)
	hidden := f.user(t, models.RoleResident)
	secretary := f.user(t, models.RoleSecretary)
	c := f.complaint(t, owner)

	_, err := f.comments.AddComment(f.ctx, hidden, c.ID, "I hear it too.", true)
	require.NoError(t, err)
	_, err = f.comments.AddComment(f.ctx, owner, c.ID, "Thanks for confirming.", false)
	require.NoError(t, err)

	byText := func(page PageResult[CommentView]) map[string]CommentView {
		out := map[string]CommentView{}
		for _, v := range page.Items {
			out[v.Text] = v
		}
		return out
	}

	page, err := f.comments.ListComments(f.ctx, owner, c.ID, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	views := byText(page)
	assert.Equal(t, "Anonymous Resident", views["I hear it too."].AuthorName)
	assert.Equal(t, uuid.Nil, views["I hear it too."].UserID)
	assert.NotEqual(t, "Anonymous Resident", views["Thanks for confirming."].AuthorName)

	page, err = f.comments.ListComments(f.ctx, hidden, c.ID, Page{})
	require.NoError(t, err)
	assert.Equal(t, hidden.UserID, byText(page)["I hear it too."].UserID)

	page, err = f.comments.ListComments(f.ctx, secretary, c.ID, Page{})
	require.NoError(t, err)
	assert.NotEqual(t, "Anonymous Resident", byText(page)["I hear it too."].AuthorName)
}
