package usergroup

import (
	"context"
	"fmt"
	"sync"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
)

// Manager loads and caches the full set of groups: every persisted group
// plus the dynamic groups referenced by assignment rows and the permanent
// anonymous-visitor group.
type Manager struct {
	repo domain.GroupRepository
	reg  *registry.Registry

	mu   sync.Mutex
	full map[string]*Group
}

// NewManager creates a Manager over the group repository.
func NewManager(repo domain.GroupRepository, reg *registry.Registry) *Manager {
	return &Manager{repo: repo, reg: reg}
}

// FullGroups returns every group keyed by group key. The result is cached
// until Invalidate is called.
func (m *Manager) FullGroups(ctx context.Context) (map[string]*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.full != nil {
		return m.full, nil
	}

	full := map[string]*Group{}

	rows, err := m.repo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	for i := range rows {
		g := NewPersisted(&rows[i], m.repo, m.reg)
		full[g.Key()] = g
	}

	keys, err := m.repo.ListDynamicGroupKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dynamic group keys: %w", err)
	}
	for _, key := range keys {
		dynamicType, identifier, ok := domain.ParseDynamicGroupKey(key)
		if !ok {
			continue
		}
		full[key] = NewDynamic(dynamicType, identifier, m.repo, m.reg)
	}

	anon := domain.NotLoggedInGroupKey()
	if _, ok := full[anon]; !ok {
		full[anon] = NewDynamic(domain.DynamicGroupUser, domain.NotLoggedInUserID, m.repo, m.reg)
	}

	m.full = full
	return full, nil
}

// PersistedGroups returns only the saved groups, keyed by group key.
func (m *Manager) PersistedGroups(ctx context.Context) (map[string]*Group, error) {
	full, err := m.FullGroups(ctx)
	if err != nil {
		return nil, err
	}
	persisted := map[string]*Group{}
	for key, g := range full {
		if !g.IsDynamic() {
			persisted[key] = g
		}
	}
	return persisted, nil
}

// Group returns the group with the given key, when it exists.
func (m *Manager) Group(ctx context.Context, key string) (*Group, bool, error) {
	full, err := m.FullGroups(ctx)
	if err != nil {
		return nil, false, err
	}
	g, ok := full[key]
	return g, ok, nil
}

// Invalidate drops the cached group set. Group or assignment mutations must
// call this before the next evaluation.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.full = nil
}
