package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/cache"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
	"github.com/GM-Alex/user-access-manager-sub006/internal/testutil"
)

// fakeGroup implements Group over a static assignment list. Full-membership
// callbacks dispatch back into the handlers under test.
type fakeGroup struct {
	key         string
	assignments []domain.Assignment
	handlers    map[string]Handler
}

func (g *fakeGroup) Key() string { return g.key }

func (g *fakeGroup) Assignment(_ context.Context, objectType, objectID string) (*domain.Assignment, bool, error) {
	for i := range g.assignments {
		a := &g.assignments[i]
		if a.ObjectID == objectID && (a.ObjectType == objectType || a.GeneralType == objectType) {
			return a, true, nil
		}
	}
	return nil, false, nil
}

func (g *fakeGroup) AssignedObjects(_ context.Context, objectType string) (map[string]string, error) {
	objects := map[string]string{}
	for _, a := range g.assignments {
		if a.ObjectType == objectType || a.GeneralType == objectType {
			objects[a.ObjectID] = a.ObjectType
		}
	}
	return objects, nil
}

func (g *fakeGroup) IsObjectMember(ctx context.Context, objectType, objectID string, lockRecursive bool) (bool, *domain.AssignmentInfo, error) {
	h, ok := g.handlers[objectType]
	if !ok {
		return false, nil, domain.ErrMissingHandler(objectType)
	}
	return h.IsMember(ctx, g, lockRecursive, objectID)
}

func (g *fakeGroup) FullObjects(ctx context.Context, objectType string, lockRecursive bool) (map[string]string, error) {
	h, ok := g.handlers[objectType]
	if !ok {
		return nil, domain.ErrMissingHandler(objectType)
	}
	return h.FullObjects(ctx, g, lockRecursive, objectType)
}

func assign(generalType, objectType, objectID string) domain.Assignment {
	return domain.Assignment{
		GroupKey:    "1",
		GeneralType: generalType,
		ObjectType:  objectType,
		ObjectID:    objectID,
	}
}

func newMaps(t *testing.T, content *testutil.FakeContent) *objectmap.Builder {
	t.Helper()
	return objectmap.NewBuilder(content, cache.NewMemory(64, 0), nil)
}

func TestRoleHandlerDirectOnly(t *testing.T) {
	h := NewRoleHandler()
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralRole, domain.GeneralRole, "editor"),
	}}
	ctx := context.Background()

	ok, info, err := h.IsMember(ctx, g, true, "editor")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "editor", info.Assignment.ObjectID)

	ok, _, err = h.IsMember(ctx, g, true, "subscriber")
	require.NoError(t, err)
	assert.False(t, ok, "roles have no inheritance path")
}

func TestUserHandlerRoleHeldMembership(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddUser("42", "editor")
	content.AddUser("43", "subscriber")

	h := NewUserHandler(content)
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralRole, domain.GeneralRole, "editor"),
	}}
	ctx := context.Background()

	// The role path is followed regardless of the lock flag.
	for _, lock := range []bool{false, true} {
		ok, info, err := h.IsMember(ctx, g, lock, "42")
		require.NoError(t, err)
		require.True(t, ok, "lock=%t", lock)
		assert.Nil(t, info.Assignment, "membership is via role, not direct")
		assert.Contains(t, info.Recursive[domain.GeneralRole], "editor")
	}

	ok, _, err := h.IsMember(ctx, g, true, "43")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserHandlerDirectBeatsRoleButBothRecorded(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddUser("42", "editor")

	h := NewUserHandler(content)
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralUser, domain.GeneralUser, "42"),
		assign(domain.GeneralRole, domain.GeneralRole, "editor"),
	}}

	ok, info, err := h.IsMember(context.Background(), g, false, "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, info.Assignment, "direct assignment recorded")
	assert.Contains(t, info.Recursive[domain.GeneralRole], "editor", "role trail recorded alongside")
}

func TestUserHandlerFullObjectsScansUsers(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddUser("1", "administrator")
	content.AddUser("2", "editor")
	content.AddUser("3")

	h := NewUserHandler(content)
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralRole, domain.GeneralRole, "editor"),
		assign(domain.GeneralUser, domain.GeneralUser, "3"),
	}}

	objects, err := h.FullObjects(context.Background(), g, false, domain.GeneralUser)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "3"}, mapKeys(objects))
}

func TestTermHandlerAncestorInheritance(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddTerm("2", "category", "1")
	content.AddTerm("3", "category", "2")

	h := NewTermHandler(newMaps(t, content))
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralTerm, "category", "1"),
	}}
	ctx := context.Background()

	ok, info, err := h.IsMember(ctx, g, true, "3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, info.Assignment)
	assert.Contains(t, info.Recursive[domain.GeneralTerm], "1")

	ok, _, err = h.IsMember(ctx, g, false, "3")
	require.NoError(t, err)
	assert.False(t, ok, "no inheritance without the lock flag")
}

func TestTermHandlerFullObjects(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddTerm("2", "category", "1")
	content.AddTerm("3", "post_tag", "1")

	h := NewTermHandler(newMaps(t, content))
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralTerm, "category", "1"),
	}}
	ctx := context.Background()

	all, err := h.FullObjects(ctx, g, true, domain.GeneralTerm)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, mapKeys(all))

	direct, err := h.FullObjects(ctx, g, false, domain.GeneralTerm)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1"}, mapKeys(direct))
}

func TestPostHandlerScenario(t *testing.T) {
	// Tree edges [(2,1),(3,2)]: group has post 1 assigned, post 3 inherits
	// with the lock flag and not without.
	content := testutil.NewFakeContent()
	content.AddPost("1", "post", "", "")
	content.AddPost("2", "post", "", "1")
	content.AddPost("3", "post", "", "2")

	h := NewPostHandler(newMaps(t, content))
	g := &fakeGroup{key: "1", assignments: []domain.Assignment{
		assign(domain.GeneralPost, "post", "1"),
	}}
	ctx := context.Background()

	ok, info, err := h.IsMember(ctx, g, true, "3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, info.Recursive[domain.GeneralPost], "1")

	ok, _, err = h.IsMember(ctx, g, false, "3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostHandlerTermHop(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddPost("10", "post", "", "")
	content.Tag("10", "post", "7", "category")

	maps := newMaps(t, content)
	g := &fakeGroup{key: "1",
		assignments: []domain.Assignment{assign(domain.GeneralTerm, "category", "7")},
		handlers: map[string]Handler{
			domain.GeneralTerm: NewTermHandler(maps),
		},
	}
	h := NewPostHandler(maps)
	ctx := context.Background()

	ok, info, err := h.IsMember(ctx, g, true, "10")
	require.NoError(t, err)
	require.True(t, ok, "post inherits from its tagged term")
	assert.Contains(t, info.Recursive[domain.GeneralTerm], "7")

	ok, _, err = h.IsMember(ctx, g, false, "10")
	require.NoError(t, err)
	assert.False(t, ok, "the term hop is only followed when locked recursive")
}

func TestPostHandlerFullObjectsUnionsTermPosts(t *testing.T) {
	content := testutil.NewFakeContent()
	content.AddPost("1", "post", "", "")
	content.AddPost("2", "post", "", "1")
	content.AddPost("10", "page", "", "")
	content.Tag("10", "page", "7", "category")

	maps := newMaps(t, content)
	g := &fakeGroup{key: "1",
		assignments: []domain.Assignment{
			assign(domain.GeneralPost, "post", "1"),
			assign(domain.GeneralTerm, "category", "7"),
		},
		handlers: map[string]Handler{
			domain.GeneralTerm: NewTermHandler(maps),
		},
	}
	h := NewPostHandler(maps)
	ctx := context.Background()

	all, err := h.FullObjects(ctx, g, true, domain.GeneralPost)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "10"}, mapKeys(all))

	pagesOnly, err := h.FullObjects(ctx, g, true, "page")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10"}, mapKeys(pagesOnly))
}

func mapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
