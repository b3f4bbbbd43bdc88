package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
)

// memberByMap is the shared resolution for tree-backed categories (terms and
// posts): a direct assignment wins outright, and with lockRecursive every
// directly-assigned ancestor from the closure map contributes an inherited
// membership. Both are recorded side by side; a direct assignment does not
// suppress the recursive trail.
func memberByMap(
	ctx context.Context,
	g Group,
	generalType string,
	tree *objectmap.TreeMap,
	lockRecursive bool,
	objectID string,
) (bool, *domain.AssignmentInfo, error) {
	info := &domain.AssignmentInfo{}

	direct, ok, err := g.Assignment(ctx, generalType, objectID)
	if err != nil {
		return false, nil, err
	}
	if ok {
		info.Assignment = direct
	}

	if lockRecursive {
		for ancestorID := range tree.ParentsOf(generalType, objectID) {
			ancestor, ok, err := g.Assignment(ctx, generalType, ancestorID)
			if err != nil {
				return false, nil, err
			}
			if ok {
				info.AddRecursive(generalType, ancestorID, &domain.AssignmentInfo{Assignment: ancestor})
			}
		}
	}

	if info.Assignment == nil && !info.HasRecursive() {
		return false, nil, nil
	}
	return true, info, nil
}

// fullObjectsByMap enumerates direct assignments for objectType plus, with
// lockRecursive, every descendant of a directly-assigned object from the
// closure map. objectType may be the general category or a concrete type;
// the per-type closure buckets take care of the filtering.
func fullObjectsByMap(
	ctx context.Context,
	g Group,
	tree *objectmap.TreeMap,
	lockRecursive bool,
	objectType string,
) (map[string]string, error) {
	assigned, err := g.AssignedObjects(ctx, objectType)
	if err != nil {
		return nil, err
	}

	objects := make(map[string]string, len(assigned))
	for id, concreteType := range assigned {
		objects[id] = concreteType
	}

	if lockRecursive {
		for id := range assigned {
			for childID, childType := range tree.ChildrenOf(objectType, id) {
				objects[childID] = childType
			}
		}
	}
	return objects, nil
}
