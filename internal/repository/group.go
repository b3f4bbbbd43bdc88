package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// GroupRepo implements domain.GroupRepository over SQLite. Mutations go
// through the write pool, reads through the read pool.
type GroupRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewGroupRepo creates a GroupRepo on the given pools.
func NewGroupRepo(writeDB, readDB *sql.DB) *GroupRepo {
	return &GroupRepo{writeDB: writeDB, readDB: readDB}
}

// CreateGroup inserts a group and returns it with its assigned id.
func (r *GroupRepo) CreateGroup(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	now := time.Now().UTC()
	res, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO groups (name, description, read_access, write_access, ip_ranges, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.Name, g.Description, g.ReadAccess, g.WriteAccess, joinRanges(g.IPRanges), now)
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, mapDBError(err)
	}

	created := *g
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

// GetGroup returns the group with the given id.
func (r *GroupRepo) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	row := r.readDB.QueryRowContext(ctx, `
		SELECT id, name, description, read_access, write_access, ip_ranges, created_at
		FROM groups WHERE id = ?`, id)
	return scanGroup(row)
}

// ListGroups returns every persisted group ordered by id.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, name, description, read_access, write_access, ip_ranges, created_at
		FROM groups ORDER BY id`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		var ranges string
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.ReadAccess, &g.WriteAccess, &ranges, &g.CreatedAt); err != nil {
			return nil, mapDBError(err)
		}
		g.IPRanges = splitRanges(ranges)
		groups = append(groups, g)
	}
	return groups, mapDBError(rows.Err())
}

// UpdateGroup rewrites the mutable columns of a group.
func (r *GroupRepo) UpdateGroup(ctx context.Context, g *domain.Group) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, description = ?, read_access = ?, write_access = ?, ip_ranges = ?
		WHERE id = ?`,
		g.Name, g.Description, g.ReadAccess, g.WriteAccess, joinRanges(g.IPRanges), g.ID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res)
}

// DeleteGroup removes a group row. Assignment cleanup is the caller's call.
func (r *GroupRepo) DeleteGroup(ctx context.Context, id int64) error {
	res, err := r.writeDB.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res)
}

// ListDynamicGroupKeys returns the distinct dynamic group keys referenced by
// assignment rows. Persisted group keys are plain integers and carry no
// separator, so the LIKE filter selects exactly the dynamic ones.
func (r *GroupRepo) ListDynamicGroupKeys(ctx context.Context) ([]string, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT DISTINCT group_key FROM group_assignments
		WHERE group_key LIKE '%|%' ORDER BY group_key`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ListAssignments returns every assignment row of the group.
func (r *GroupRepo) ListAssignments(ctx context.Context, groupKey string) ([]domain.Assignment, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT group_key, general_type, object_type, object_id, from_date, to_date, locked_recursive
		FROM group_assignments WHERE group_key = ?`, groupKey)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var from, to sql.NullTime
		var locked int64
		if err := rows.Scan(&a.GroupKey, &a.GeneralType, &a.ObjectType, &a.ObjectID, &from, &to, &locked); err != nil {
			return nil, mapDBError(err)
		}
		if from.Valid {
			t := from.Time
			a.FromDate = &t
		}
		if to.Valid {
			t := to.Time
			a.ToDate = &t
		}
		a.LockedRecursive = locked != 0
		assignments = append(assignments, a)
	}
	return assignments, mapDBError(rows.Err())
}

// UpsertAssignment inserts or replaces the assignment row for (group, object).
func (r *GroupRepo) UpsertAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO group_assignments
			(group_key, general_type, object_type, object_id, from_date, to_date, locked_recursive)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (group_key, object_type, object_id) DO UPDATE SET
			general_type = excluded.general_type,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			locked_recursive = excluded.locked_recursive`,
		a.GroupKey, a.GeneralType, a.ObjectType, a.ObjectID,
		nullTime(a.FromDate), nullTime(a.ToDate), boolToInt(a.LockedRecursive))
	return mapDBError(err)
}

// DeleteAssignment removes one assignment row.
func (r *GroupRepo) DeleteAssignment(ctx context.Context, groupKey, objectType, objectID string) error {
	res, err := r.writeDB.ExecContext(ctx, `
		DELETE FROM group_assignments
		WHERE group_key = ? AND object_type = ? AND object_id = ?`,
		groupKey, objectType, objectID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res)
}

// DeleteAssignmentsForGroup removes every assignment row of the group.
func (r *GroupRepo) DeleteAssignmentsForGroup(ctx context.Context, groupKey string) error {
	_, err := r.writeDB.ExecContext(ctx, `
		DELETE FROM group_assignments WHERE group_key = ?`, groupKey)
	return mapDBError(err)
}

// ListDefaultAssignments returns the group's default-assignment rows.
func (r *GroupRepo) ListDefaultAssignments(ctx context.Context, groupKey string) ([]domain.DefaultAssignment, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT group_key, object_type, from_offset_seconds, to_offset_seconds
		FROM group_default_assignments WHERE group_key = ?`, groupKey)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var defaults []domain.DefaultAssignment
	for rows.Next() {
		var d domain.DefaultAssignment
		var from, to sql.NullInt64
		if err := rows.Scan(&d.GroupKey, &d.ObjectType, &from, &to); err != nil {
			return nil, mapDBError(err)
		}
		if from.Valid {
			off := time.Duration(from.Int64) * time.Second
			d.FromOffset = &off
		}
		if to.Valid {
			off := time.Duration(to.Int64) * time.Second
			d.ToOffset = &off
		}
		defaults = append(defaults, d)
	}
	return defaults, mapDBError(rows.Err())
}

// UpsertDefaultAssignment inserts or replaces the default-assignment row.
func (r *GroupRepo) UpsertDefaultAssignment(ctx context.Context, d *domain.DefaultAssignment) error {
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO group_default_assignments
			(group_key, object_type, from_offset_seconds, to_offset_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (group_key, object_type) DO UPDATE SET
			from_offset_seconds = excluded.from_offset_seconds,
			to_offset_seconds = excluded.to_offset_seconds`,
		d.GroupKey, d.ObjectType, nullSeconds(d.FromOffset), nullSeconds(d.ToOffset))
	return mapDBError(err)
}

// DeleteDefaultAssignment removes the default-assignment row for the type.
func (r *GroupRepo) DeleteDefaultAssignment(ctx context.Context, groupKey, objectType string) error {
	res, err := r.writeDB.ExecContext(ctx, `
		DELETE FROM group_default_assignments
		WHERE group_key = ? AND object_type = ?`, groupKey, objectType)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res)
}

func scanGroup(row *sql.Row) (*domain.Group, error) {
	var g domain.Group
	var ranges string
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.ReadAccess, &g.WriteAccess, &ranges, &g.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	g.IPRanges = splitRanges(ranges)
	return &g, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapDBError(err)
	}
	if n == 0 {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullSeconds(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(d.Seconds()), Valid: true}
}
