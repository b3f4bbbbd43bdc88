package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
)

// PostHandler resolves post membership: direct assignment, ancestor
// inheritance over the post hierarchy, and a cross-category hop: a post
// inherits membership from any term it is tagged with. The term hop, like
// the ancestor walk, is only followed when lockRecursive is set.
type PostHandler struct {
	maps *objectmap.Builder
}

// NewPostHandler creates the post membership handler.
func NewPostHandler(maps *objectmap.Builder) *PostHandler {
	return &PostHandler{maps: maps}
}

func (h *PostHandler) GeneralType() string   { return domain.GeneralPost }
func (h *PostHandler) ObjectTypes() []string { return nil }

// IsMember resolves direct, ancestor-inherited, and term-inherited
// membership for the post. Term contributions land in the recursive trail
// under the term category.
func (h *PostHandler) IsMember(ctx context.Context, g Group, lockRecursive bool, objectID string) (bool, *domain.AssignmentInfo, error) {
	tree, err := h.maps.PostTreeMap(ctx)
	if err != nil {
		return false, nil, err
	}

	isMember, info, err := memberByMap(ctx, g, domain.GeneralPost, tree, lockRecursive, objectID)
	if err != nil {
		return false, nil, err
	}

	if lockRecursive {
		postTerm, err := h.maps.PostTermMap(ctx)
		if err != nil {
			return false, nil, err
		}
		for termID := range postTerm.Related(objectID) {
			ok, termInfo, err := g.IsObjectMember(ctx, domain.GeneralTerm, termID, lockRecursive)
			if err != nil {
				return false, nil, err
			}
			if ok {
				if info == nil {
					info = &domain.AssignmentInfo{}
				}
				info.AddRecursive(domain.GeneralTerm, termID, termInfo)
				isMember = true
			}
		}
	}

	if !isMember {
		return false, nil, nil
	}
	return true, info, nil
}

// FullObjects enumerates the map-closure result unioned with, when
// lockRecursive, every post associated with any of the group's full term
// set, optionally filtered to one concrete post type.
func (h *PostHandler) FullObjects(ctx context.Context, g Group, lockRecursive bool, objectType string) (map[string]string, error) {
	tree, err := h.maps.PostTreeMap(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := fullObjectsByMap(ctx, g, tree, lockRecursive, objectType)
	if err != nil {
		return nil, err
	}

	if lockRecursive {
		terms, err := g.FullObjects(ctx, domain.GeneralTerm, lockRecursive)
		if err != nil {
			return nil, err
		}
		termPost, err := h.maps.TermPostMap(ctx)
		if err != nil {
			return nil, err
		}
		for termID := range terms {
			for postID, postType := range termPost.Related(termID) {
				if objectType == domain.GeneralPost || postType == objectType {
					objects[postID] = postType
				}
			}
		}
	}
	return objects, nil
}
