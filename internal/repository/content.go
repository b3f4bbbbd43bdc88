package repository

import (
	"context"
	"database/sql"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// ContentRepo implements domain.ContentRepository over the SQLite content
// tables. Reads go through the read pool.
type ContentRepo struct {
	db *sql.DB
}

// NewContentRepo creates a ContentRepo on the given pool.
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// PostEdges returns the parent edges of the post hierarchy. Revisions are
// not part of the visible hierarchy and are skipped.
func (r *ContentRepo) PostEdges(ctx context.Context) ([]domain.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, post_type
		FROM posts
		WHERE parent_id != '' AND post_type != 'revision'`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// TermEdges returns the parent edges of the term hierarchy.
func (r *ContentRepo) TermEdges(ctx context.Context) ([]domain.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, taxonomy
		FROM terms
		WHERE parent_id != ''`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]domain.Edge, error) {
	var edges []domain.Edge
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.ID, &e.ParentID, &e.Type); err != nil {
			return nil, mapDBError(err)
		}
		edges = append(edges, e)
	}
	return edges, mapDBError(rows.Err())
}

// TermPostRelations returns the direct term/post associations with the
// concrete types joined in.
func (r *ContentRepo) TermPostRelations(ctx context.Context) ([]domain.Relation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tr.post_id, p.post_type, tr.term_id, t.taxonomy
		FROM term_relationships tr
		JOIN posts p ON p.id = tr.post_id
		JOIN terms t ON t.id = tr.term_id
		WHERE p.post_type != 'revision'`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var relations []domain.Relation
	for rows.Next() {
		var rel domain.Relation
		if err := rows.Scan(&rel.PostID, &rel.PostType, &rel.TermID, &rel.Taxonomy); err != nil {
			return nil, mapDBError(err)
		}
		relations = append(relations, rel)
	}
	return relations, mapDBError(rows.Err())
}

// PostInfo returns the type and author of a single post.
func (r *ContentRepo) PostInfo(ctx context.Context, id string) (*domain.PostInfo, error) {
	var info domain.PostInfo
	err := r.db.QueryRowContext(ctx, `
		SELECT id, post_type, author_id FROM posts WHERE id = ?`, id).
		Scan(&info.ID, &info.Type, &info.AuthorID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &info, nil
}

// PostIDsByAuthor returns the ids of all posts written by the author.
func (r *ContentRepo) PostIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM posts WHERE author_id = ? AND post_type != 'revision'`, authorID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ListUserIDs returns every known user id.
func (r *ContentRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// UserRoles returns the roles held by the user, empty for unknown users.
func (r *ContentRepo) UserRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, mapDBError(err)
		}
		values = append(values, v)
	}
	return values, mapDBError(rows.Err())
}
