package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// RoleHandler resolves role membership. Roles have no hierarchy, so
// membership is a direct assignment lookup and lockRecursive has no effect.
type RoleHandler struct{}

// NewRoleHandler creates the role membership handler.
func NewRoleHandler() *RoleHandler { return &RoleHandler{} }

func (h *RoleHandler) GeneralType() string   { return domain.GeneralRole }
func (h *RoleHandler) ObjectTypes() []string { return nil }

// IsMember reports whether the role is directly assigned to the group.
func (h *RoleHandler) IsMember(ctx context.Context, g Group, _ bool, objectID string) (bool, *domain.AssignmentInfo, error) {
	a, ok, err := g.Assignment(ctx, domain.GeneralRole, objectID)
	if err != nil || !ok {
		return false, nil, err
	}
	return true, &domain.AssignmentInfo{Assignment: a}, nil
}

// FullObjects returns every role directly assigned to the group.
func (h *RoleHandler) FullObjects(ctx context.Context, g Group, _ bool, objectType string) (map[string]string, error) {
	return g.AssignedObjects(ctx, objectType)
}
