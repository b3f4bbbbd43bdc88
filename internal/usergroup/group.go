// Package usergroup implements the runtime view of access groups: persisted
// groups loaded from the repository and dynamic groups materialized from the
// assignment rows that reference them.
package usergroup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
)

// Group is one access group with its assignment index and memoized
// membership lookups. It is safe for concurrent use; all loads are lazy.
type Group struct {
	key         string
	name        string
	readAccess  string
	writeAccess string
	ipRanges    []string

	persisted   *domain.Group // nil for dynamic groups
	dynamicType string
	dynamicID   string

	repo domain.GroupRepository
	reg  *registry.Registry
	now  func() time.Time

	mu          sync.Mutex
	ignoreDates bool
	assignments map[string]map[string]*domain.Assignment // type key -> object id
	defaults    map[string]*domain.DefaultAssignment
	memberMemo  map[string]memberResult
	fullMemo    map[string]map[string]string
}

type memberResult struct {
	isMember bool
	info     *domain.AssignmentInfo
}

// NewPersisted wraps a saved group row.
func NewPersisted(g *domain.Group, repo domain.GroupRepository, reg *registry.Registry) *Group {
	return &Group{
		key:         g.Key(),
		name:        g.Name,
		readAccess:  g.ReadAccess,
		writeAccess: g.WriteAccess,
		ipRanges:    g.IPRanges,
		persisted:   g,
		repo:        repo,
		reg:         reg,
		now:         time.Now,
	}
}

// NewDynamic materializes the implicit group for a role, a single user, or
// (with the reserved user id) anonymous visitors.
func NewDynamic(dynamicType, identifier string, repo domain.GroupRepository, reg *registry.Registry) *Group {
	name := fmt.Sprintf("%s: %s", dynamicType, identifier)
	if dynamicType == domain.DynamicGroupUser && identifier == domain.NotLoggedInUserID {
		name = "not logged in users"
	}
	return &Group{
		key:         domain.DynamicGroupKey(dynamicType, identifier),
		name:        name,
		readAccess:  domain.ReadAccessGroup,
		writeAccess: domain.WriteAccessGroup,
		dynamicType: dynamicType,
		dynamicID:   identifier,
		repo:        repo,
		reg:         reg,
		now:         time.Now,
	}
}

// Key returns the group identity used in assignment rows.
func (g *Group) Key() string { return g.key }

// Name returns the display name.
func (g *Group) Name() string { return g.name }

// ReadAccess returns the group's read-access policy.
func (g *Group) ReadAccess() string { return g.readAccess }

// WriteAccess returns the group's write-access policy.
func (g *Group) WriteAccess() string { return g.writeAccess }

// IPRanges returns the configured IP ranges, nil for dynamic groups.
func (g *Group) IPRanges() []string { return g.ipRanges }

// IsDynamic reports whether this is an implicit, non-persisted group.
func (g *Group) IsDynamic() bool { return g.persisted == nil }

// Persisted returns the underlying row for persisted groups, nil otherwise.
func (g *Group) Persisted() *domain.Group { return g.persisted }

// DynamicRef returns the dynamic type and identifier for dynamic groups.
func (g *Group) DynamicRef() (dynamicType, identifier string) {
	return g.dynamicType, g.dynamicID
}

// SetIgnoreDates toggles administrative enumeration mode: assignment date
// windows are not applied. Toggling drops all memoized lookups.
func (g *Group) SetIgnoreDates(ignore bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ignoreDates != ignore {
		g.ignoreDates = ignore
		g.memberMemo = nil
		g.fullMemo = nil
	}
}

// loadAssignments populates the assignment index on first use. Each
// assignment is indexed under both its concrete and its general type.
// Callers must hold g.mu.
func (g *Group) loadAssignments(ctx context.Context) error {
	if g.assignments != nil {
		return nil
	}

	rows, err := g.repo.ListAssignments(ctx, g.key)
	if err != nil {
		return fmt.Errorf("load assignments for group %s: %w", g.key, err)
	}

	index := map[string]map[string]*domain.Assignment{}
	for i := range rows {
		a := &rows[i]
		for _, typeKey := range []string{a.ObjectType, a.GeneralType} {
			if index[typeKey] == nil {
				index[typeKey] = map[string]*domain.Assignment{}
			}
			index[typeKey][a.ObjectID] = a
		}
	}
	g.assignments = index
	return nil
}

// Assignment returns the active direct assignment for (objectType,
// objectID). Date windows apply unless ignore-dates mode is set.
func (g *Group) Assignment(ctx context.Context, objectType, objectID string) (*domain.Assignment, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadAssignments(ctx); err != nil {
		return nil, false, err
	}
	a, ok := g.assignments[objectType][objectID]
	if !ok {
		return nil, false, nil
	}
	if !g.ignoreDates && !a.ActiveAt(g.now()) {
		return nil, false, nil
	}
	return a, true, nil
}

// AssignedObjects returns the active direct assignments for objectType as
// objectID -> concreteType.
func (g *Group) AssignedObjects(ctx context.Context, objectType string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadAssignments(ctx); err != nil {
		return nil, err
	}

	objects := map[string]string{}
	for id, a := range g.assignments[objectType] {
		if g.ignoreDates || a.ActiveAt(g.now()) {
			objects[id] = a.ObjectType
		}
	}
	return objects, nil
}

// IsObjectMember resolves full membership of an object through the
// registered handler for its category. An unrecognized object type is not a
// member of anything; a missing handler for a recognized category is a
// configuration error and propagates.
func (g *Group) IsObjectMember(ctx context.Context, objectType, objectID string, lockRecursive bool) (bool, *domain.AssignmentInfo, error) {
	if _, ok := g.reg.GeneralObjectType(objectType); !ok {
		return false, nil, nil
	}

	memoKey := fmt.Sprintf("%t|%s|%s", lockRecursive, objectType, objectID)
	g.mu.Lock()
	if cached, ok := g.memberMemo[memoKey]; ok {
		g.mu.Unlock()
		return cached.isMember, cached.info, nil
	}
	g.mu.Unlock()

	handler, err := g.reg.MembershipHandler(objectType)
	if err != nil {
		return false, nil, err
	}

	isMember, info, err := handler.IsMember(ctx, g, lockRecursive, objectID)
	if err != nil {
		return false, nil, err
	}

	g.mu.Lock()
	if g.memberMemo == nil {
		g.memberMemo = map[string]memberResult{}
	}
	g.memberMemo[memoKey] = memberResult{isMember: isMember, info: info}
	g.mu.Unlock()
	return isMember, info, nil
}

// FullObjects enumerates the full membership set for objectType through the
// registered handler.
func (g *Group) FullObjects(ctx context.Context, objectType string, lockRecursive bool) (map[string]string, error) {
	if _, ok := g.reg.GeneralObjectType(objectType); !ok {
		return map[string]string{}, nil
	}

	memoKey := fmt.Sprintf("%t|%s", lockRecursive, objectType)
	g.mu.Lock()
	if cached, ok := g.fullMemo[memoKey]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	handler, err := g.reg.MembershipHandler(objectType)
	if err != nil {
		return nil, err
	}

	objects, err := handler.FullObjects(ctx, g, lockRecursive, objectType)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.fullMemo == nil {
		g.fullMemo = map[string]map[string]string{}
	}
	g.fullMemo[memoKey] = objects
	g.mu.Unlock()
	return objects, nil
}

// IsLockedRecursive reports whether the direct assignment for the object
// exists and carries the locked-recursive flag.
func (g *Group) IsLockedRecursive(ctx context.Context, objectType, objectID string) (bool, error) {
	a, ok, err := g.Assignment(ctx, objectType, objectID)
	if err != nil || !ok {
		return false, err
	}
	return a.LockedRecursive, nil
}

// IsDefaultForObjectType reports whether the group is the default for newly
// created objects of the type, with the relative window offsets when set.
func (g *Group) IsDefaultForObjectType(ctx context.Context, objectType string) (bool, *time.Duration, *time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.defaults == nil {
		rows, err := g.repo.ListDefaultAssignments(ctx, g.key)
		if err != nil {
			return false, nil, nil, fmt.Errorf("load default assignments for group %s: %w", g.key, err)
		}
		g.defaults = map[string]*domain.DefaultAssignment{}
		for i := range rows {
			g.defaults[rows[i].ObjectType] = &rows[i]
		}
	}

	d, ok := g.defaults[objectType]
	if !ok {
		return false, nil, nil, nil
	}
	return true, d.FromOffset, d.ToOffset, nil
}

// Reset drops every memoized lookup and the assignment index, forcing a
// reload on next use. The collaborator mutating assignments calls this.
func (g *Group) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assignments = nil
	g.defaults = nil
	g.memberMemo = nil
	g.fullMemo = nil
}
