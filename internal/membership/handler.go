// Package membership resolves whether objects belong to access groups,
// per general object category, optionally following inheritance edges.
package membership

import (
	"context"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// Group is the view of an access group a handler needs: its direct
// assignments plus callbacks into full membership resolution for
// cross-category hops.
type Group interface {
	// Key returns the group's identity.
	Key() string
	// Assignment returns the active direct assignment for (objectType,
	// objectID), if any. objectType may be a general category or a concrete
	// type.
	Assignment(ctx context.Context, objectType, objectID string) (*domain.Assignment, bool, error)
	// AssignedObjects returns the active direct assignments for objectType
	// as objectID -> concreteType.
	AssignedObjects(ctx context.Context, objectType string) (map[string]string, error)
	// IsObjectMember resolves full (direct or inherited) membership of an
	// object, dispatching through the registered handlers.
	IsObjectMember(ctx context.Context, objectType, objectID string, lockRecursive bool) (bool, *domain.AssignmentInfo, error)
	// FullObjects enumerates the full membership set for objectType,
	// dispatching through the registered handlers.
	FullObjects(ctx context.Context, objectType string, lockRecursive bool) (map[string]string, error)
}

// Handler is the per-category membership resolution protocol.
type Handler interface {
	// GeneralType is the category this handler serves.
	GeneralType() string
	// ObjectTypes lists additional concrete types the handler serves, used
	// when registering pluggable custom categories. Built-in handlers return
	// nil; the registry already knows their concrete types.
	ObjectTypes() []string
	// IsMember reports whether the object is a member of the group. With
	// lockRecursive, inheritance edges are followed and each contributing
	// source is recorded in the returned AssignmentInfo.
	IsMember(ctx context.Context, g Group, lockRecursive bool, objectID string) (bool, *domain.AssignmentInfo, error)
	// FullObjects enumerates every member object of the group, optionally
	// filtered to a concrete objectType, as objectID -> concreteType.
	FullObjects(ctx context.Context, g Group, lockRecursive bool, objectType string) (map[string]string, error)
}
