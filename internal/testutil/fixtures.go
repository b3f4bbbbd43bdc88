// Package testutil provides shared in-memory implementations of domain
// interfaces for use in tests across the codebase.
package testutil

import (
	"context"
	"sort"
	"strings"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// === Content repository fixture ===

// FakeContent implements domain.ContentRepository over in-memory slices.
type FakeContent struct {
	Posts     []domain.PostInfo
	PostTree  []domain.Edge
	TermTree  []domain.Edge
	Relations []domain.Relation
	Users     map[string][]string // user id -> roles
}

// NewFakeContent creates an empty content fixture.
func NewFakeContent() *FakeContent {
	return &FakeContent{Users: map[string][]string{}}
}

// AddPost records a post; parentID empty means root.
func (f *FakeContent) AddPost(id, postType, authorID, parentID string) {
	f.Posts = append(f.Posts, domain.PostInfo{ID: id, Type: postType, AuthorID: authorID})
	if parentID != "" {
		f.PostTree = append(f.PostTree, domain.Edge{ID: id, ParentID: parentID, Type: postType})
	}
}

// AddTerm records a term; parentID empty means root.
func (f *FakeContent) AddTerm(id, taxonomy, parentID string) {
	if parentID != "" {
		f.TermTree = append(f.TermTree, domain.Edge{ID: id, ParentID: parentID, Type: taxonomy})
	}
}

// Tag associates a post with a term.
func (f *FakeContent) Tag(postID, postType, termID, taxonomy string) {
	f.Relations = append(f.Relations, domain.Relation{
		PostID: postID, PostType: postType, TermID: termID, Taxonomy: taxonomy,
	})
}

// AddUser records a user with roles.
func (f *FakeContent) AddUser(id string, roles ...string) {
	f.Users[id] = roles
}

func (f *FakeContent) PostEdges(context.Context) ([]domain.Edge, error) { return f.PostTree, nil }
func (f *FakeContent) TermEdges(context.Context) ([]domain.Edge, error) { return f.TermTree, nil }

func (f *FakeContent) TermPostRelations(context.Context) ([]domain.Relation, error) {
	return f.Relations, nil
}

func (f *FakeContent) PostInfo(_ context.Context, id string) (*domain.PostInfo, error) {
	for i := range f.Posts {
		if f.Posts[i].ID == id {
			return &f.Posts[i], nil
		}
	}
	return nil, domain.ErrNotFound("post %s not found", id)
}

func (f *FakeContent) PostIDsByAuthor(_ context.Context, authorID string) ([]string, error) {
	var ids []string
	for _, p := range f.Posts {
		if p.AuthorID == authorID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (f *FakeContent) ListUserIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.Users))
	for id := range f.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FakeContent) UserRoles(_ context.Context, userID string) ([]string, error) {
	return f.Users[userID], nil
}

// === Group repository fixture ===

// FakeGroups implements domain.GroupRepository over in-memory maps.
type FakeGroups struct {
	Groups      map[int64]*domain.Group
	Assignments map[string][]domain.Assignment // group key -> assignments
	Defaults    map[string][]domain.DefaultAssignment
	nextID      int64
}

// NewFakeGroups creates an empty group fixture.
func NewFakeGroups() *FakeGroups {
	return &FakeGroups{
		Groups:      map[int64]*domain.Group{},
		Assignments: map[string][]domain.Assignment{},
		Defaults:    map[string][]domain.DefaultAssignment{},
	}
}

// Assign is a test shorthand adding an active unbounded assignment.
func (f *FakeGroups) Assign(groupKey, generalType, objectType, objectID string) {
	f.Assignments[groupKey] = append(f.Assignments[groupKey], domain.Assignment{
		GroupKey:    groupKey,
		GeneralType: generalType,
		ObjectType:  objectType,
		ObjectID:    objectID,
	})
}

func (f *FakeGroups) CreateGroup(_ context.Context, g *domain.Group) (*domain.Group, error) {
	f.nextID++
	created := *g
	created.ID = f.nextID
	f.Groups[created.ID] = &created
	return &created, nil
}

func (f *FakeGroups) GetGroup(_ context.Context, id int64) (*domain.Group, error) {
	g, ok := f.Groups[id]
	if !ok {
		return nil, domain.ErrNotFound("group %d not found", id)
	}
	return g, nil
}

func (f *FakeGroups) ListGroups(context.Context) ([]domain.Group, error) {
	ids := make([]int64, 0, len(f.Groups))
	for id := range f.Groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.Groups[id])
	}
	return out, nil
}

func (f *FakeGroups) UpdateGroup(_ context.Context, g *domain.Group) error {
	if _, ok := f.Groups[g.ID]; !ok {
		return domain.ErrNotFound("group %d not found", g.ID)
	}
	updated := *g
	f.Groups[g.ID] = &updated
	return nil
}

func (f *FakeGroups) DeleteGroup(_ context.Context, id int64) error {
	delete(f.Groups, id)
	return nil
}

func (f *FakeGroups) ListDynamicGroupKeys(context.Context) ([]string, error) {
	var keys []string
	for key := range f.Assignments {
		if strings.Contains(key, "|") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FakeGroups) ListAssignments(_ context.Context, groupKey string) ([]domain.Assignment, error) {
	return f.Assignments[groupKey], nil
}

func (f *FakeGroups) UpsertAssignment(_ context.Context, a *domain.Assignment) error {
	rows := f.Assignments[a.GroupKey]
	for i := range rows {
		if rows[i].ObjectType == a.ObjectType && rows[i].ObjectID == a.ObjectID {
			rows[i] = *a
			return nil
		}
	}
	f.Assignments[a.GroupKey] = append(rows, *a)
	return nil
}

func (f *FakeGroups) DeleteAssignment(_ context.Context, groupKey, objectType, objectID string) error {
	rows := f.Assignments[groupKey]
	for i := range rows {
		if rows[i].ObjectType == objectType && rows[i].ObjectID == objectID {
			f.Assignments[groupKey] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *FakeGroups) DeleteAssignmentsForGroup(_ context.Context, groupKey string) error {
	delete(f.Assignments, groupKey)
	return nil
}

func (f *FakeGroups) ListDefaultAssignments(_ context.Context, groupKey string) ([]domain.DefaultAssignment, error) {
	return f.Defaults[groupKey], nil
}

func (f *FakeGroups) UpsertDefaultAssignment(_ context.Context, d *domain.DefaultAssignment) error {
	rows := f.Defaults[d.GroupKey]
	for i := range rows {
		if rows[i].ObjectType == d.ObjectType {
			rows[i] = *d
			return nil
		}
	}
	f.Defaults[d.GroupKey] = append(rows, *d)
	return nil
}

func (f *FakeGroups) DeleteDefaultAssignment(_ context.Context, groupKey, objectType string) error {
	rows := f.Defaults[groupKey]
	for i := range rows {
		if rows[i].ObjectType == objectType {
			f.Defaults[groupKey] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}
