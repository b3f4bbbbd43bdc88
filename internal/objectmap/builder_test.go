package objectmap

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/cache"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

type fakeSource struct {
	postEdges []domain.Edge
	termEdges []domain.Edge
	relations []domain.Relation

	postCalls int32
	termCalls int32
	relCalls  int32
}

func (f *fakeSource) PostEdges(context.Context) ([]domain.Edge, error) {
	atomic.AddInt32(&f.postCalls, 1)
	return f.postEdges, nil
}

func (f *fakeSource) TermEdges(context.Context) ([]domain.Edge, error) {
	atomic.AddInt32(&f.termCalls, 1)
	return f.termEdges, nil
}

func (f *fakeSource) TermPostRelations(context.Context) ([]domain.Relation, error) {
	atomic.AddInt32(&f.relCalls, 1)
	return f.relations, nil
}

func newTestBuilder(src *fakeSource) (*Builder, domain.CacheStore) {
	store := cache.NewMemory(64, 0)
	return NewBuilder(src, store, nil), store
}

func TestBuilderMemoizesTreeMaps(t *testing.T) {
	src := &fakeSource{postEdges: []domain.Edge{
		{ID: "2", ParentID: "1", Type: "post"},
		{ID: "3", ParentID: "2", Type: "post"},
	}}
	b, _ := newTestBuilder(src)
	ctx := context.Background()

	first, err := b.PostTreeMap(ctx)
	require.NoError(t, err)
	second, err := b.PostTreeMap(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second, "repeat calls return the memoized map")
	assert.EqualValues(t, 1, src.postCalls, "edges loaded once")
	assert.ElementsMatch(t, []string{"1", "2"}, keys(first.ParentsOf(domain.GeneralPost, "3")))
}

func TestBuilderServesFromCacheStore(t *testing.T) {
	src := &fakeSource{postEdges: []domain.Edge{{ID: "2", ParentID: "1", Type: "post"}}}
	b, store := newTestBuilder(src)
	ctx := context.Background()

	_, err := b.PostTreeMap(ctx)
	require.NoError(t, err)

	// A fresh builder over the same store must not hit the edge source.
	fresh := NewBuilder(src, store, nil)
	m, err := fresh.PostTreeMap(ctx)
	require.NoError(t, err)
	assert.Contains(t, m.ParentsOf(domain.GeneralPost, "2"), "1")
	assert.EqualValues(t, 1, src.postCalls)
}

func TestBuilderInvalidateForcesRebuild(t *testing.T) {
	src := &fakeSource{termEdges: []domain.Edge{{ID: "7", ParentID: "5", Type: "category"}}}
	b, _ := newTestBuilder(src)
	ctx := context.Background()

	_, err := b.TermTreeMap(ctx)
	require.NoError(t, err)

	src.termEdges = append(src.termEdges, domain.Edge{ID: "8", ParentID: "7", Type: "category"})
	b.Invalidate(ctx)

	m, err := b.TermTreeMap(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"5", "7"}, keys(m.ParentsOf(domain.GeneralTerm, "8")))
	assert.EqualValues(t, 2, src.termCalls)
}

func TestBuilderCrossMapsSingleQuery(t *testing.T) {
	src := &fakeSource{relations: []domain.Relation{
		{PostID: "10", PostType: "post", TermID: "7", Taxonomy: "category"},
	}}
	b, _ := newTestBuilder(src)
	ctx := context.Background()

	termPost, err := b.TermPostMap(ctx)
	require.NoError(t, err)
	postTerm, err := b.PostTermMap(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"10": "post"}, termPost.Related("7"))
	assert.Equal(t, map[string]string{"7": "category"}, postTerm.Related("10"))
	assert.EqualValues(t, 1, src.relCalls, "both directions come from one load")
}

func TestBuilderPropagatesCycleError(t *testing.T) {
	src := &fakeSource{postEdges: []domain.Edge{
		{ID: "a", ParentID: "b", Type: "post"},
		{ID: "b", ParentID: "a", Type: "post"},
	}}
	b, _ := newTestBuilder(src)

	_, err := b.PostTreeMap(context.Background())
	var cyclic *domain.CyclicHierarchyError
	require.ErrorAs(t, err, &cyclic)
}
