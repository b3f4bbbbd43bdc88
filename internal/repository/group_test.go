package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/db"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

func newGroupRepo(t *testing.T) *GroupRepo {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return NewGroupRepo(writeDB, readDB)
}

func TestGroupCRUD(t *testing.T) {
	repo := newGroupRepo(t)
	ctx := context.Background()

	created, err := repo.CreateGroup(ctx, &domain.Group{
		Name:        "restricted",
		Description: "internal content",
		ReadAccess:  domain.ReadAccessGroup,
		WriteAccess: domain.WriteAccessGroup,
		IPRanges:    []string{"10.0.0.1-10.0.0.10", "192.168.1.7"},
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetGroup(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "restricted", got.Name)
	assert.Equal(t, []string{"10.0.0.1-10.0.0.10", "192.168.1.7"}, got.IPRanges)

	got.Name = "renamed"
	got.IPRanges = nil
	require.NoError(t, repo.UpdateGroup(ctx, got))

	got, err = repo.GetGroup(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Empty(t, got.IPRanges)

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, repo.DeleteGroup(ctx, created.ID))
	_, err = repo.GetGroup(ctx, created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = repo.DeleteGroup(ctx, created.ID)
	assert.ErrorAs(t, err, &notFound)
}

func TestAssignmentRoundTrip(t *testing.T) {
	repo := newGroupRepo(t)
	ctx := context.Background()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &domain.Assignment{
		GroupKey:        "1",
		GeneralType:     domain.GeneralPost,
		ObjectType:      "page",
		ObjectID:        "42",
		FromDate:        &from,
		LockedRecursive: true,
	}
	require.NoError(t, repo.UpsertAssignment(ctx, a))

	rows, err := repo.ListAssignments(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "page", rows[0].ObjectType)
	assert.True(t, rows[0].LockedRecursive)
	require.NotNil(t, rows[0].FromDate)
	assert.True(t, rows[0].FromDate.Equal(from))
	assert.Nil(t, rows[0].ToDate)

	// Upsert replaces the row in place.
	a.LockedRecursive = false
	a.FromDate = nil
	require.NoError(t, repo.UpsertAssignment(ctx, a))
	rows, err = repo.ListAssignments(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].LockedRecursive)
	assert.Nil(t, rows[0].FromDate)

	require.NoError(t, repo.DeleteAssignment(ctx, "1", "page", "42"))
	rows, err = repo.ListAssignments(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, repo.DeleteAssignment(ctx, "1", "page", "42"), &notFound)
}

func TestDynamicGroupKeys(t *testing.T) {
	repo := newGroupRepo(t)
	ctx := context.Background()

	for _, key := range []string{"1", "role|editor", "user|42", "role|editor"} {
		require.NoError(t, repo.UpsertAssignment(ctx, &domain.Assignment{
			GroupKey:    key,
			GeneralType: domain.GeneralPost,
			ObjectType:  "post",
			ObjectID:    "obj-" + key,
		}))
	}

	keys, err := repo.ListDynamicGroupKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"role|editor", "user|42"}, keys)
}

func TestDeleteAssignmentsForGroup(t *testing.T) {
	repo := newGroupRepo(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, repo.UpsertAssignment(ctx, &domain.Assignment{
			GroupKey:    "9",
			GeneralType: domain.GeneralPost,
			ObjectType:  "post",
			ObjectID:    id,
		}))
	}
	require.NoError(t, repo.DeleteAssignmentsForGroup(ctx, "9"))

	rows, err := repo.ListAssignments(ctx, "9")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDefaultAssignmentRoundTrip(t *testing.T) {
	repo := newGroupRepo(t)
	ctx := context.Background()

	fromOff := 24 * time.Hour
	require.NoError(t, repo.UpsertDefaultAssignment(ctx, &domain.DefaultAssignment{
		GroupKey:   "1",
		ObjectType: "page",
		FromOffset: &fromOff,
	}))

	rows, err := repo.ListDefaultAssignments(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].FromOffset)
	assert.Equal(t, 24*time.Hour, *rows[0].FromOffset)
	assert.Nil(t, rows[0].ToOffset)

	require.NoError(t, repo.DeleteDefaultAssignment(ctx, "1", "page"))
	rows, err = repo.ListDefaultAssignments(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
