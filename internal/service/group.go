// Package service implements group administration on top of the repositories,
// keeping the decision-side caches in sync with every mutation.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
	"github.com/GM-Alex/user-access-manager-sub006/internal/usergroup"
)

// GroupService mutates groups and assignments. Every successful mutation
// invalidates the group manager so the next evaluation sees fresh state.
type GroupService struct {
	repo    domain.GroupRepository
	reg     *registry.Registry
	manager *usergroup.Manager
	maps    *objectmap.Builder
	logger  *slog.Logger
	now     func() time.Time
}

// NewGroupService wires a GroupService.
func NewGroupService(repo domain.GroupRepository, reg *registry.Registry, manager *usergroup.Manager, maps *objectmap.Builder, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{
		repo:    repo,
		reg:     reg,
		manager: manager,
		maps:    maps,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates and persists a new group.
func (s *GroupService) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateGroup(ctx, g)
	if err != nil {
		return nil, err
	}
	s.manager.Invalidate()
	s.logger.Info("group created", "groupKey", created.Key(), "name", created.Name)
	return created, nil
}

// Get returns a persisted group by id.
func (s *GroupService) Get(ctx context.Context, id int64) (*domain.Group, error) {
	return s.repo.GetGroup(ctx, id)
}

// List returns every persisted group.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.repo.ListGroups(ctx)
}

// Update validates and rewrites a group.
func (s *GroupService) Update(ctx context.Context, g *domain.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateGroup(ctx, g); err != nil {
		return err
	}
	s.manager.Invalidate()
	return nil
}

// Delete removes a group together with its assignment rows.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAssignmentsForGroup(ctx, g.Key()); err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.manager.Invalidate()
	s.logger.Info("group deleted", "groupKey", g.Key())
	return nil
}

// Assign attaches an object to a group. The concrete object type must be
// known to the registry; the general type is resolved, never trusted from
// the caller.
func (s *GroupService) Assign(ctx context.Context, a *domain.Assignment) error {
	general, ok := s.reg.GeneralObjectType(a.ObjectType)
	if !ok {
		return domain.ErrValidation("unknown object type %q", a.ObjectType)
	}
	a.GeneralType = general
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpsertAssignment(ctx, a); err != nil {
		return err
	}
	s.manager.Invalidate()
	return nil
}

// Unassign detaches an object from a group.
func (s *GroupService) Unassign(ctx context.Context, groupKey, objectType, objectID string) error {
	if err := s.repo.DeleteAssignment(ctx, groupKey, objectType, objectID); err != nil {
		return err
	}
	s.manager.Invalidate()
	return nil
}

// SetDefault marks the group as a default for newly created objects of the
// type, with optional relative date-window offsets.
func (s *GroupService) SetDefault(ctx context.Context, d *domain.DefaultAssignment) error {
	if _, ok := s.reg.GeneralObjectType(d.ObjectType); !ok {
		return domain.ErrValidation("unknown object type %q", d.ObjectType)
	}
	if err := s.repo.UpsertDefaultAssignment(ctx, d); err != nil {
		return err
	}
	s.manager.Invalidate()
	return nil
}

// RemoveDefault drops the default marker for the type.
func (s *GroupService) RemoveDefault(ctx context.Context, groupKey, objectType string) error {
	if err := s.repo.DeleteDefaultAssignment(ctx, groupKey, objectType); err != nil {
		return err
	}
	s.manager.Invalidate()
	return nil
}

// ObjectCreated applies the default groups of the object's type: every
// persisted group marked as default gets an assignment whose date window is
// resolved from the creation time.
func (s *GroupService) ObjectCreated(ctx context.Context, objectType, objectID string, createdAt time.Time) error {
	general, ok := s.reg.GeneralObjectType(objectType)
	if !ok {
		return domain.ErrValidation("unknown object type %q", objectType)
	}
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	groups, err := s.manager.PersistedGroups(ctx)
	if err != nil {
		return err
	}

	var applied int
	for _, g := range groups {
		isDefault, fromOff, toOff, err := g.IsDefaultForObjectType(ctx, objectType)
		if err != nil {
			return err
		}
		if !isDefault {
			continue
		}
		d := domain.DefaultAssignment{FromOffset: fromOff, ToOffset: toOff}
		from, to := d.Window(createdAt)
		if err := s.repo.UpsertAssignment(ctx, &domain.Assignment{
			GroupKey:    g.Key(),
			GeneralType: general,
			ObjectType:  objectType,
			ObjectID:    objectID,
			FromDate:    from,
			ToDate:      to,
		}); err != nil {
			return err
		}
		applied++
	}

	if applied > 0 {
		s.manager.Invalidate()
		s.logger.Info("default groups applied", "objectType", objectType, "objectID", objectID, "groups", applied)
	}
	return nil
}

// InvalidateMaps drops the hierarchy maps after content mutations. Group
// state is untouched; assignment mutations invalidate through the manager.
func (s *GroupService) InvalidateMaps(ctx context.Context) {
	s.maps.Invalidate(ctx)
}
