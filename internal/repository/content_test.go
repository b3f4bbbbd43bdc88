package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/db"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

func seedContent(t *testing.T, writeDB *sql.DB) {
	t.Helper()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO posts (id, post_type, parent_id, author_id) VALUES (?, ?, ?, ?)`, []any{"1", "post", "", "7"}},
		{`INSERT INTO posts (id, post_type, parent_id, author_id) VALUES (?, ?, ?, ?)`, []any{"2", "post", "1", "7"}},
		{`INSERT INTO posts (id, post_type, parent_id, author_id) VALUES (?, ?, ?, ?)`, []any{"3", "page", "1", "8"}},
		{`INSERT INTO posts (id, post_type, parent_id, author_id) VALUES (?, ?, ?, ?)`, []any{"4", "revision", "2", "7"}},
		{`INSERT INTO terms (id, taxonomy, parent_id) VALUES (?, ?, ?)`, []any{"10", "category", ""}},
		{`INSERT INTO terms (id, taxonomy, parent_id) VALUES (?, ?, ?)`, []any{"11", "category", "10"}},
		{`INSERT INTO term_relationships (post_id, term_id) VALUES (?, ?)`, []any{"2", "11"}},
		{`INSERT INTO term_relationships (post_id, term_id) VALUES (?, ?)`, []any{"4", "11"}},
		{`INSERT INTO users (id, login) VALUES (?, ?)`, []any{"7", "alice"}},
		{`INSERT INTO users (id, login) VALUES (?, ?)`, []any{"8", "bob"}},
		{`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, []any{"7", "editor"}},
		{`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, []any{"7", "author"}},
	}
	for _, s := range stmts {
		_, err := writeDB.Exec(s.query, s.args...)
		require.NoError(t, err)
	}
}

func TestContentRepoEdges(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedContent(t, writeDB)
	repo := NewContentRepo(readDB)
	ctx := context.Background()

	edges, err := repo.PostEdges(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Edge{
		{ID: "2", ParentID: "1", Type: "post"},
		{ID: "3", ParentID: "1", Type: "page"},
	}, edges, "roots and revisions are not edge rows")

	termEdges, err := repo.TermEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{{ID: "11", ParentID: "10", Type: "category"}}, termEdges)
}

func TestContentRepoRelations(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedContent(t, writeDB)
	repo := NewContentRepo(readDB)

	relations, err := repo.TermPostRelations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Relation{
		{PostID: "2", PostType: "post", TermID: "11", Taxonomy: "category"},
	}, relations, "revision relations are skipped")
}

func TestContentRepoPostInfo(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedContent(t, writeDB)
	repo := NewContentRepo(readDB)
	ctx := context.Background()

	info, err := repo.PostInfo(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, &domain.PostInfo{ID: "3", Type: "page", AuthorID: "8"}, info)

	_, err = repo.PostInfo(ctx, "999")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestContentRepoAuthorAndUsers(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedContent(t, writeDB)
	repo := NewContentRepo(readDB)
	ctx := context.Background()

	own, err := repo.PostIDsByAuthor(ctx, "7")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, own, "revisions don't count as authored content")

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, ids)

	roles, err := repo.UserRoles(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "editor"}, roles)

	roles, err = repo.UserRoles(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, roles)
}
