package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// UserSource provides the user data the user handler needs. Satisfied by
// domain.ContentRepository.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
}

// UserHandler resolves user membership: a user belongs to a group when
// directly assigned, or when holding a role that is assigned. The role path
// is always followed regardless of the lockRecursive flag; holding a role is
// a capability, not hierarchy inheritance.
type UserHandler struct {
	users UserSource
}

// NewUserHandler creates the user membership handler.
func NewUserHandler(users UserSource) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GeneralType() string   { return domain.GeneralUser }
func (h *UserHandler) ObjectTypes() []string { return nil }

// IsMember resolves direct and role-held membership for the user. Role
// contributions are recorded in the recursive trail under the role category.
func (h *UserHandler) IsMember(ctx context.Context, g Group, _ bool, objectID string) (bool, *domain.AssignmentInfo, error) {
	info := &domain.AssignmentInfo{}

	direct, ok, err := g.Assignment(ctx, domain.GeneralUser, objectID)
	if err != nil {
		return false, nil, err
	}
	if ok {
		info.Assignment = direct
	}

	roles, err := h.users.UserRoles(ctx, objectID)
	if err != nil {
		return false, nil, err
	}
	for _, role := range roles {
		a, ok, err := g.Assignment(ctx, domain.GeneralRole, role)
		if err != nil {
			return false, nil, err
		}
		if ok {
			info.AddRecursive(domain.GeneralRole, role, &domain.AssignmentInfo{Assignment: a})
		}
	}

	if info.Assignment == nil && !info.HasRecursive() {
		return false, nil, nil
	}
	return true, info, nil
}

// FullObjects scans every known user against IsMember. Intentionally
// O(users): the direct-membership index lives in the assignment store, and
// user tables in this system are small.
func (h *UserHandler) FullObjects(ctx context.Context, g Group, lockRecursive bool, _ string) (map[string]string, error) {
	userIDs, err := h.users.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	objects := map[string]string{}
	for _, id := range userIDs {
		ok, _, err := h.IsMember(ctx, g, lockRecursive, id)
		if err != nil {
			return nil, err
		}
		if ok {
			objects[id] = domain.GeneralUser
		}
	}
	return objects, nil
}
