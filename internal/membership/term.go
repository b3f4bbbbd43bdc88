package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
)

// TermHandler resolves term membership: direct assignment, plus inherited
// membership from ancestor terms in the taxonomy hierarchy when
// lockRecursive is set.
type TermHandler struct {
	maps *objectmap.Builder
}

// NewTermHandler creates the term membership handler.
func NewTermHandler(maps *objectmap.Builder) *TermHandler {
	return &TermHandler{maps: maps}
}

func (h *TermHandler) GeneralType() string   { return domain.GeneralTerm }
func (h *TermHandler) ObjectTypes() []string { return nil }

// IsMember resolves direct and, with lockRecursive, ancestor-inherited
// membership over the term tree map.
func (h *TermHandler) IsMember(ctx context.Context, g Group, lockRecursive bool, objectID string) (bool, *domain.AssignmentInfo, error) {
	tree, err := h.maps.TermTreeMap(ctx)
	if err != nil {
		return false, nil, err
	}
	return memberByMap(ctx, g, domain.GeneralTerm, tree, lockRecursive, objectID)
}

// FullObjects enumerates directly assigned terms plus, with lockRecursive,
// all their descendants, optionally filtered to one taxonomy.
func (h *TermHandler) FullObjects(ctx context.Context, g Group, lockRecursive bool, objectType string) (map[string]string, error) {
	tree, err := h.maps.TermTreeMap(ctx)
	if err != nil {
		return nil, err
	}
	return fullObjectsByMap(ctx, g, tree, lockRecursive, objectType)
}
