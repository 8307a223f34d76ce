package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

func makeDraft(owner, repo string, prNumber int) model.Draft {
	return model.Draft{
		Owner:        owner,
		Repo:         repo,
		PRNumber:     prNumber,
		CommitID:     "abc123",
		CreatedAt:    time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		LogFileIndex: 0,
	}
}

func makeComment(owner, repo string, prNumber int, path string, line int) model.DraftComment {
	now := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	return model.DraftComment{
		Owner:     owner,
		Repo:      repo,
		PRNumber:  prNumber,
		FilePath:  path,
		Line:      line,
		Side:      model.SideRight,
		Body:      "needs a nil check",
		CommitID:  "abc123",
		Status:    model.CommentActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDraftRepo_CreateAndGetDraft(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	draft := makeDraft("octocat", "hello-world", 7)
	draft.Body = "overall looks good"
	require.NoError(t, repo.CreateDraft(ctx, draft))

	got, err := repo.GetDraft(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "octocat", got.Owner)
	assert.Equal(t, "hello-world", got.Repo)
	assert.Equal(t, 7, got.PRNumber)
	assert.Equal(t, "abc123", got.CommitID)
	assert.Equal(t, "overall looks good", got.Body)
	assert.Empty(t, got.LocalFolder)
	assert.Equal(t, draft.CreatedAt, got.CreatedAt)
	assert.Equal(t, 0, got.LogFileIndex)
}

func TestDraftRepo_GetDraft_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)

	got, err := repo.GetDraft(context.Background(), "octocat", "hello-world", 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRepo_UpdateLocalFolder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	draft := makeDraft("octocat", "hello-world", 7)
	require.NoError(t, repo.CreateDraft(ctx, draft))

	require.NoError(t, repo.UpdateLocalFolder(ctx, "octocat", "hello-world", 7, "/home/me/project"))

	got, err := repo.GetDraft(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/home/me/project", got.LocalFolder)
	assert.True(t, got.IsLocal())
}

func TestDraftRepo_UpdateDraftCommit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))

	affected, err := repo.UpdateDraftCommit(ctx, "octocat", "hello-world", 7, "def456")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	got, err := repo.GetDraft(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Equal(t, "def456", got.CommitID)

	affected, err = repo.UpdateDraftCommit(ctx, "octocat", "hello-world", 404, "def456")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestDraftRepo_DeleteDraft_CascadesComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))
	_, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "main.go", 12))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDraft(ctx, "octocat", "hello-world", 7))

	got, err := repo.GetDraft(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	comments, err := repo.ListAllComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestDraftRepo_InsertAndListComments_Ordering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))

	// Inserted out of order; reads must come back sorted by path then line.
	_, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "zeta.go", 5))
	require.NoError(t, err)
	_, err = repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "alpha.go", 30))
	require.NoError(t, err)
	_, err = repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "alpha.go", 2))
	require.NoError(t, err)

	comments, err := repo.ListActiveComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.Len(t, comments, 3)

	assert.Equal(t, "alpha.go", comments[0].FilePath)
	assert.Equal(t, 2, comments[0].Line)
	assert.Equal(t, "alpha.go", comments[1].FilePath)
	assert.Equal(t, 30, comments[1].Line)
	assert.Equal(t, "zeta.go", comments[2].FilePath)
}

func TestDraftRepo_InsertComment_ThreadedReply(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))

	parentID := int64(987654)
	reply := makeComment("octocat", "hello-world", 7, "main.go", 42)
	reply.InReplyToID = &parentID

	id, err := repo.InsertComment(ctx, reply)
	require.NoError(t, err)

	got, err := repo.GetComment(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.InReplyToID)
	assert.Equal(t, parentID, *got.InReplyToID)
}

func TestDraftRepo_SoftDelete_ExcludedFromActiveButListed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))
	id, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "main.go", 12))
	require.NoError(t, err)

	require.NoError(t, repo.SoftDeleteComment(ctx, id))

	active, err := repo.ListActiveComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListAllComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.CommentSoftDeleted, all[0].Status)
	assert.True(t, all[0].IsDeleted())

	count, err := repo.CountActiveComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDraftRepo_HardDelete_RemovesRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))
	id, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "main.go", 12))
	require.NoError(t, err)

	require.NoError(t, repo.HardDeleteComment(ctx, id))

	got, err := repo.GetComment(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := repo.ListAllComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDraftRepo_UpdateCommentBody(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))
	id, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "main.go", 12))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateCommentBody(ctx, id, "actually, use errors.Is here"))

	got, err := repo.GetComment(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "actually, use errors.Is here", got.Body)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestDraftRepo_RenameCommentPath(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDraft(ctx, makeDraft("octocat", "hello-world", 7)))
	_, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "old.go", 1))
	require.NoError(t, err)
	_, err = repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "old.go", 9))
	require.NoError(t, err)
	deletedID, err := repo.InsertComment(ctx, makeComment("octocat", "hello-world", 7, "old.go", 20))
	require.NoError(t, err)
	require.NoError(t, repo.SoftDeleteComment(ctx, deletedID))

	affected, err := repo.RenameCommentPath(ctx, "octocat", "hello-world", 7, "old.go", "new.go")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	active, err := repo.ListActiveComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, c := range active {
		assert.Equal(t, "new.go", c.FilePath)
	}

	// Soft-deleted rows keep their original path.
	deleted, err := repo.GetComment(ctx, deletedID)
	require.NoError(t, err)
	assert.Equal(t, "old.go", deleted.FilePath)

	affected, err = repo.RenameCommentPath(ctx, "octocat", "hello-world", 7, "missing.go", "x.go")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestDraftRepo_ListDrafts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDraftRepo(db)
	ctx := context.Background()

	first := makeDraft("octocat", "hello-world", 1)
	second := makeDraft("octocat", "hello-world", 2)
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	require.NoError(t, repo.CreateDraft(ctx, second))
	require.NoError(t, repo.CreateDraft(ctx, first))

	drafts, err := repo.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, 1, drafts[0].PRNumber)
	assert.Equal(t, 2, drafts[1].PRNumber)
}
