package domain

import "context"

// CacheStore is the external key-value cache collaborator. A miss is never an
// error: Get returns found=false and the caller rebuilds lazily.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Add(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}

// ContentRepository provides the raw content rows the map builders and the
// decision engine consume: post and term hierarchies, term/post relations,
// and the user/role data behind user membership.
type ContentRepository interface {
	// PostEdges returns (id, parentID, postType) rows for posts that have a
	// parent, excluding revisions.
	PostEdges(ctx context.Context) ([]Edge, error)
	// TermEdges returns (id, parentID, taxonomy) rows for terms that have a
	// parent.
	TermEdges(ctx context.Context) ([]Edge, error)
	// TermPostRelations returns the direct term/post associations.
	TermPostRelations(ctx context.Context) ([]Relation, error)

	PostInfo(ctx context.Context, id string) (*PostInfo, error)
	PostIDsByAuthor(ctx context.Context, authorID string) ([]string, error)

	ListUserIDs(ctx context.Context) ([]string, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
}

// GroupRepository persists groups and their assignments. Assignment rows are
// keyed by a group key: the decimal id of a persisted group or the composite
// key of a dynamic group.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g *Group) (*Group, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	UpdateGroup(ctx context.Context, g *Group) error
	DeleteGroup(ctx context.Context, id int64) error

	// ListDynamicGroupKeys returns the distinct dynamic group keys referenced
	// by existing assignment rows.
	ListDynamicGroupKeys(ctx context.Context) ([]string, error)

	ListAssignments(ctx context.Context, groupKey string) ([]Assignment, error)
	UpsertAssignment(ctx context.Context, a *Assignment) error
	DeleteAssignment(ctx context.Context, groupKey, objectType, objectID string) error
	DeleteAssignmentsForGroup(ctx context.Context, groupKey string) error

	ListDefaultAssignments(ctx context.Context, groupKey string) ([]DefaultAssignment, error)
	UpsertDefaultAssignment(ctx context.Context, d *DefaultAssignment) error
	DeleteDefaultAssignment(ctx context.Context, groupKey, objectType string) error
}
