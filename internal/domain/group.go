package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Read and write access policies on a group.
const (
	ReadAccessGroup = "group"
	ReadAccessAll   = "all"

	WriteAccessNone  = "none"
	WriteAccessGroup = "group"
	WriteAccessAll   = "all"
)

// Dynamic group types. A dynamic group is an implicit, non-persisted group
// for "all holders of role R" or "the single user U"; its key is the string
// concatenation type|identifier (e.g. "role|editor", "user|42").
const (
	DynamicGroupRole = "role"
	DynamicGroupUser = "user"

	// NotLoggedInUserID is the reserved identifier for the permanent dynamic
	// group covering anonymous visitors ("user|0").
	NotLoggedInUserID = "0"
)

// Group is a persisted access-control group. ID is zero until the group is
// saved and immutable afterwards.
type Group struct {
	ID          int64
	Name        string
	Description string
	ReadAccess  string // ReadAccessGroup or ReadAccessAll
	WriteAccess string // WriteAccessNone, WriteAccessGroup, or WriteAccessAll
	IPRanges    []string
	CreatedAt   time.Time
}

// Key returns the group's identity as used in assignment rows.
func (g *Group) Key() string { return strconv.FormatInt(g.ID, 10) }

// Validate checks that the group is well-formed.
func (g *Group) Validate() error {
	if g.Name == "" {
		return ErrValidation("group name is required")
	}
	switch g.ReadAccess {
	case ReadAccessGroup, ReadAccessAll:
	default:
		return ErrValidation("read access must be %q or %q", ReadAccessGroup, ReadAccessAll)
	}
	switch g.WriteAccess {
	case WriteAccessNone, WriteAccessGroup, WriteAccessAll:
	default:
		return ErrValidation("write access must be %q, %q or %q", WriteAccessNone, WriteAccessGroup, WriteAccessAll)
	}
	return nil
}

// DynamicGroupKey builds the composite key for a dynamic group.
func DynamicGroupKey(dynamicType, identifier string) string {
	return dynamicType + "|" + identifier
}

// ParseDynamicGroupKey splits a composite dynamic group key into its type and
// identifier. It reports false for keys of persisted groups (plain integers)
// or malformed input.
func ParseDynamicGroupKey(key string) (dynamicType, identifier string, ok bool) {
	dynamicType, identifier, found := strings.Cut(key, "|")
	if !found || identifier == "" {
		return "", "", false
	}
	if dynamicType != DynamicGroupRole && dynamicType != DynamicGroupUser {
		return "", "", false
	}
	return dynamicType, identifier, true
}

// NotLoggedInGroupKey is the key of the anonymous-visitor dynamic group.
func NotLoggedInGroupKey() string {
	return DynamicGroupKey(DynamicGroupUser, NotLoggedInUserID)
}

// Assignment binds one object to one group, optionally bounded by a date
// window and optionally locked against recursive override.
type Assignment struct {
	GroupKey        string
	GeneralType     string
	ObjectType      string // concrete type; equals GeneralType for role/user objects
	ObjectID        string
	FromDate        *time.Time
	ToDate          *time.Time
	LockedRecursive bool
}

// ActiveAt reports whether the assignment's date window covers t. Nil bounds
// are unbounded.
func (a *Assignment) ActiveAt(t time.Time) bool {
	if a.FromDate != nil && t.Before(*a.FromDate) {
		return false
	}
	if a.ToDate != nil && t.After(*a.ToDate) {
		return false
	}
	return true
}

// Validate checks that the assignment is well-formed.
func (a *Assignment) Validate() error {
	if a.GroupKey == "" {
		return ErrValidation("assignment group key is required")
	}
	if !IsGeneralType(a.GeneralType) {
		return ErrValidation("unknown general object type %q", a.GeneralType)
	}
	if a.ObjectType == "" || a.ObjectID == "" {
		return ErrValidation("assignment object type and id are required")
	}
	if a.FromDate != nil && a.ToDate != nil && a.ToDate.Before(*a.FromDate) {
		return ErrValidation("assignment date window ends before it starts")
	}
	return nil
}

// DefaultAssignment marks a group as the default for newly created objects of
// an object type. The time window is relative to the object's creation time.
type DefaultAssignment struct {
	GroupKey   string
	ObjectType string
	FromOffset *time.Duration
	ToOffset   *time.Duration
}

// Window resolves the relative offsets against a creation time. Nil offsets
// yield nil (unbounded) edges.
func (d *DefaultAssignment) Window(createdAt time.Time) (from, to *time.Time) {
	if d.FromOffset != nil {
		t := createdAt.Add(*d.FromOffset)
		from = &t
	}
	if d.ToOffset != nil {
		t := createdAt.Add(*d.ToOffset)
		to = &t
	}
	return from, to
}

// AssignmentInfo explains why an object is a member of a group: the direct
// assignment (if any) plus, when inheritance was followed, the contributing
// assignments keyed by general type and related object id.
type AssignmentInfo struct {
	Assignment *Assignment
	Recursive  map[string]map[string]*AssignmentInfo
}

// AddRecursive records an inherited membership contribution.
func (i *AssignmentInfo) AddRecursive(generalType, objectID string, info *AssignmentInfo) {
	if i.Recursive == nil {
		i.Recursive = map[string]map[string]*AssignmentInfo{}
	}
	if i.Recursive[generalType] == nil {
		i.Recursive[generalType] = map[string]*AssignmentInfo{}
	}
	i.Recursive[generalType][objectID] = info
}

// HasRecursive reports whether any inherited membership was recorded.
func (i *AssignmentInfo) HasRecursive() bool {
	for _, byID := range i.Recursive {
		if len(byID) > 0 {
			return true
		}
	}
	return false
}

// String renders a short description, useful in logs.
func (i *AssignmentInfo) String() string {
	direct := "none"
	if i.Assignment != nil {
		direct = fmt.Sprintf("%s:%s", i.Assignment.ObjectType, i.Assignment.ObjectID)
	}
	return fmt.Sprintf("assignment=%s recursive=%v", direct, i.HasRecursive())
}
