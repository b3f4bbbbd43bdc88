// Package access implements the access decision engine: given a viewer and
// an object, decide whether access is granted, and compute the excluded
// object sets hidden from the viewer's listings.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
	"github.com/GM-Alex/user-access-manager-sub006/internal/usergroup"
)

// DefaultFullAccessCapability grants its holders unrestricted access and an
// empty exclusion set.
const DefaultFullAccessCapability = "manage_user_groups"

// Settings are the configuration toggles the engine reads.
type Settings struct {
	// AuthorsAccessToOwnContent grants authors access to posts they wrote
	// regardless of group restrictions.
	AuthorsAccessToOwnContent bool
	// LockRecursive enables inheritance: children of assigned objects are
	// treated as members too.
	LockRecursive bool
	// FullAccessCapability overrides the administrative capability name.
	FullAccessCapability string
	// HiddenPostTypes maps a post type to whether restricted posts of that
	// type are hidden from front-end listings. Unlisted types are not hidden.
	HiddenPostTypes map[string]bool
}

func (s Settings) capability() string {
	if s.FullAccessCapability == "" {
		return DefaultFullAccessCapability
	}
	return s.FullAccessCapability
}

// Engine holds the long-lived collaborators. Per-request memoization lives
// in Evaluation.
type Engine struct {
	reg      *registry.Registry
	groups   *usergroup.Manager
	content  domain.ContentRepository
	settings Settings
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(reg *registry.Registry, groups *usergroup.Manager, content domain.ContentRepository, settings Settings, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{reg: reg, groups: groups, content: content, settings: settings, logger: logger}
}

// Invalidate drops the cached group set. Group and assignment mutations
// must invalidate before the next evaluation.
func (e *Engine) Invalidate() {
	e.groups.Invalidate()
}

// ObjectMembership returns every group the object belongs to, keyed by group
// key, with the explanation of why membership holds.
func (e *Engine) ObjectMembership(ctx context.Context, objectType, objectID string) (map[string]*domain.AssignmentInfo, error) {
	full, err := e.groups.FullGroups(ctx)
	if err != nil {
		return nil, err
	}

	memberships := map[string]*domain.AssignmentInfo{}
	for key, g := range full {
		ok, info, err := g.IsObjectMember(ctx, objectType, objectID, e.settings.LockRecursive)
		if err != nil {
			return nil, err
		}
		if ok {
			memberships[key] = info
		}
	}
	return memberships, nil
}

// Begin starts a request-scoped evaluation for the viewer. All decisions and
// exclusion sets are memoized on the returned Evaluation until Reset.
func (e *Engine) Begin(viewer domain.Viewer) *Evaluation {
	return &Evaluation{engine: e, viewer: viewer}
}

// Evaluation memoizes access decisions for one viewer over one request.
type Evaluation struct {
	engine *Engine
	viewer domain.Viewer

	mu            sync.Mutex
	decisions     map[string]bool
	viewerGroups  map[string]*usergroup.Group
	excludedPosts map[string]bool
	excludedTerms map[string]bool
}

// Viewer returns the evaluation's viewer.
func (ev *Evaluation) Viewer() domain.Viewer { return ev.viewer }

// Reset drops all memoized results.
func (ev *Evaluation) Reset() {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.decisions = nil
	ev.viewerGroups = nil
	ev.excludedPosts = nil
	ev.excludedTerms = nil
}

// CheckObjectAccess decides whether the viewer may see the object.
// Decision order: unknown object types are unrestricted; the administrative
// capability grants everything; authors reach their own posts when so
// configured; otherwise the object's groups must intersect the viewer's.
func (ev *Evaluation) CheckObjectAccess(ctx context.Context, objectType, objectID string) (bool, error) {
	memoKey := fmt.Sprintf("%t|%s|%s", ev.viewer.AdminContext, objectType, objectID)
	ev.mu.Lock()
	if granted, ok := ev.decisions[memoKey]; ok {
		ev.mu.Unlock()
		return granted, nil
	}
	ev.mu.Unlock()

	granted, err := ev.checkObjectAccess(ctx, objectType, objectID)
	if err != nil {
		return false, err
	}

	ev.mu.Lock()
	if ev.decisions == nil {
		ev.decisions = map[string]bool{}
	}
	ev.decisions[memoKey] = granted
	ev.mu.Unlock()
	return granted, nil
}

func (ev *Evaluation) checkObjectAccess(ctx context.Context, objectType, objectID string) (bool, error) {
	e := ev.engine

	if !e.reg.IsValidObjectType(objectType) {
		e.logger.Debug("unknown object type, access unrestricted", "objectType", objectType)
		return true, nil
	}

	if ev.viewer.HasCapability(e.settings.capability()) {
		return true, nil
	}

	general, _ := e.reg.GeneralObjectType(objectType)
	if e.settings.AuthorsAccessToOwnContent && general == domain.GeneralPost && ev.viewer.LoggedIn() {
		info, err := e.content.PostInfo(ctx, objectID)
		if err != nil {
			var notFound *domain.NotFoundError
			if !errors.As(err, &notFound) {
				return false, err
			}
		} else if info.AuthorID == ev.viewer.UserID {
			return true, nil
		}
	}

	memberships, err := e.ObjectMembership(ctx, objectType, objectID)
	if err != nil {
		return false, err
	}
	if len(memberships) == 0 {
		// Unrestricted object.
		return true, nil
	}

	viewerGroups, err := ev.GroupsForViewer(ctx)
	if err != nil {
		return false, err
	}
	for key := range memberships {
		if _, ok := viewerGroups[key]; ok {
			return true, nil
		}
	}
	return false, nil
}

// GroupsForViewer returns the viewer's effective group set: groups assigning
// the viewer's user id directly or via a role, the viewer's dynamic groups,
// groups matching the request IP, and groups open to everyone by policy.
// Holders of the administrative capability are members of every persisted
// group. In admin context, groups whose write access is "none" are excluded;
// in read context they are kept.
func (ev *Evaluation) GroupsForViewer(ctx context.Context) (map[string]*usergroup.Group, error) {
	ev.mu.Lock()
	if ev.viewerGroups != nil {
		cached := ev.viewerGroups
		ev.mu.Unlock()
		return cached, nil
	}
	ev.mu.Unlock()

	groups, err := ev.groupsForViewer(ctx)
	if err != nil {
		return nil, err
	}

	ev.mu.Lock()
	ev.viewerGroups = groups
	ev.mu.Unlock()
	return groups, nil
}

func (ev *Evaluation) groupsForViewer(ctx context.Context) (map[string]*usergroup.Group, error) {
	e := ev.engine

	if ev.viewer.HasCapability(e.settings.capability()) {
		return e.groups.PersistedGroups(ctx)
	}

	full, err := e.groups.FullGroups(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string]*usergroup.Group{}
	for key, g := range full {
		member, err := ev.isViewerMember(ctx, g)
		if err != nil {
			return nil, err
		}
		if member {
			result[key] = g
		}
	}

	if ev.viewer.AdminContext {
		for key, g := range result {
			if g.WriteAccess() == domain.WriteAccessNone {
				delete(result, key)
			}
		}
	}
	return result, nil
}

func (ev *Evaluation) isViewerMember(ctx context.Context, g *usergroup.Group) (bool, error) {
	v := ev.viewer

	if g.IsDynamic() {
		dynamicType, identifier := g.DynamicRef()
		switch dynamicType {
		case domain.DynamicGroupUser:
			if identifier == domain.NotLoggedInUserID {
				return !v.LoggedIn(), nil
			}
			return v.LoggedIn() && v.UserID == identifier, nil
		case domain.DynamicGroupRole:
			return v.HasRole(identifier), nil
		}
		return false, nil
	}

	if v.LoggedIn() {
		ok, _, err := g.IsObjectMember(ctx, domain.GeneralUser, v.UserID, ev.engine.settings.LockRecursive)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	if v.IP != "" && IsIPInRange(v.IP, g.IPRanges()) {
		return true, nil
	}

	if v.AdminContext {
		return g.WriteAccess() == domain.WriteAccessAll, nil
	}
	return g.ReadAccess() == domain.ReadAccessAll, nil
}

// ExcludedPosts returns the post ids hidden from the viewer's listings:
// posts assigned to any group minus posts in the viewer's groups, minus the
// viewer's own posts when author access is configured, minus post types not
// configured as hidden when outside the admin panel. Holders of the
// administrative capability get an empty set.
func (ev *Evaluation) ExcludedPosts(ctx context.Context) (map[string]bool, error) {
	ev.mu.Lock()
	if ev.excludedPosts != nil {
		cached := ev.excludedPosts
		ev.mu.Unlock()
		return cached, nil
	}
	ev.mu.Unlock()

	excluded, err := ev.excludedObjects(ctx, domain.GeneralPost)
	if err != nil {
		return nil, err
	}

	e := ev.engine
	if e.settings.AuthorsAccessToOwnContent && ev.viewer.LoggedIn() {
		own, err := e.content.PostIDsByAuthor(ctx, ev.viewer.UserID)
		if err != nil {
			return nil, err
		}
		for _, id := range own {
			delete(excluded, id)
		}
	}

	if !ev.viewer.AdminContext {
		for id, postType := range excluded {
			if !e.settings.HiddenPostTypes[postType] {
				delete(excluded, id)
			}
		}
	}

	set := make(map[string]bool, len(excluded))
	for id := range excluded {
		set[id] = true
	}

	ev.mu.Lock()
	ev.excludedPosts = set
	ev.mu.Unlock()
	return set, nil
}

// ExcludedTerms returns the term ids hidden from the viewer's listings.
func (ev *Evaluation) ExcludedTerms(ctx context.Context) (map[string]bool, error) {
	ev.mu.Lock()
	if ev.excludedTerms != nil {
		cached := ev.excludedTerms
		ev.mu.Unlock()
		return cached, nil
	}
	ev.mu.Unlock()

	excluded, err := ev.excludedObjects(ctx, domain.GeneralTerm)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(excluded))
	for id := range excluded {
		set[id] = true
	}

	ev.mu.Lock()
	ev.excludedTerms = set
	ev.mu.Unlock()
	return set, nil
}

// excludedObjects computes "assigned to any group" minus "assigned to a
// group the viewer belongs to" as objectID -> concreteType.
func (ev *Evaluation) excludedObjects(ctx context.Context, generalType string) (map[string]string, error) {
	e := ev.engine

	if ev.viewer.HasCapability(e.settings.capability()) {
		return map[string]string{}, nil
	}

	full, err := e.groups.FullGroups(ctx)
	if err != nil {
		return nil, err
	}

	excluded := map[string]string{}
	for _, g := range full {
		objects, err := g.FullObjects(ctx, generalType, e.settings.LockRecursive)
		if err != nil {
			return nil, err
		}
		for id, concreteType := range objects {
			excluded[id] = concreteType
		}
	}

	viewerGroups, err := ev.GroupsForViewer(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range viewerGroups {
		objects, err := g.FullObjects(ctx, generalType, e.settings.LockRecursive)
		if err != nil {
			return nil, err
		}
		for id := range objects {
			delete(excluded, id)
		}
	}
	return excluded, nil
}
