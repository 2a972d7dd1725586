package fingerprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/legistry/internal/fingerprint"
	"github.com/civiclens/legistry/internal/ids"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/pkg/legis"
)

type item struct {
	fp string
	id string
}

func newMatcher() *fingerprint.Matcher[item] {
	alloc := ids.NewAllocator(memory.NewStore())
	return fingerprint.New("ex", legis.KindVote, func(i item) string { return i.fp }, alloc)
}

func assign(t *testing.T, m *fingerprint.Matcher[item], items []item) []string {
	t.Helper()
	require.NoError(t, m.Assign(context.Background(), items, func(i *item, id string) { i.id = id }))
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].id
	}
	return out
}

func TestAssignAllocatesFreshIDs(t *testing.T) {
	m := newMatcher()
	got := assign(t, m, []item{{fp: "x"}, {fp: "y"}})
	assert.Equal(t, []string{"EXV00000001", "EXV00000002"}, got)
}

func TestReorderedItemsKeepTheirIDs(t *testing.T) {
	m := newMatcher()
	m.Learn([]item{{fp: "x", id: "EXV00000001"}, {fp: "y", id: "EXV00000002"}},
		func(i item) string { return i.id })

	got := assign(t, m, []item{{fp: "y"}, {fp: "x"}})
	assert.Equal(t, []string{"EXV00000002", "EXV00000001"},
		got, "IDs must follow the fingerprint, not the position")
}

func TestDuplicateFingerprintsDisambiguateByOccurrence(t *testing.T) {
	// Prior run stored three votes: two sharing fingerprint k, one with j.
	// That run consumed the first three sequence numbers.
	ctx := context.Background()
	alloc := ids.NewAllocator(memory.NewStore())
	for i := 0; i < 3; i++ {
		_, err := alloc.Allocate(ctx, "ex", legis.KindVote)
		require.NoError(t, err)
	}

	m := fingerprint.New("ex", legis.KindVote, func(i item) string { return i.fp }, alloc)
	m.Learn([]item{
		{fp: "k", id: "EXV00000001"},
		{fp: "j", id: "EXV00000002"},
		{fp: "k", id: "EXV00000003"},
	}, func(i item) string { return i.id })

	// New batch inserts a fresh vote m between the survivors.
	got := assign(t, m, []item{{fp: "k"}, {fp: "j"}, {fp: "m"}, {fp: "k"}})
	assert.Equal(t, []string{"EXV00000001", "EXV00000002", "EXV00000004", "EXV00000003"}, got)
}

func TestRepeatedAssignIsStable(t *testing.T) {
	m := newMatcher()
	first := assign(t, m, []item{{fp: "a"}, {fp: "a"}, {fp: "b"}})
	second := assign(t, m, []item{{fp: "a"}, {fp: "a"}, {fp: "b"}})
	assert.Equal(t, first, second)
}

func TestLearnSkipsItemsWithoutIDs(t *testing.T) {
	m := newMatcher()
	m.Learn([]item{{fp: "x"}}, func(i item) string { return i.id })

	got := assign(t, m, []item{{fp: "x"}})
	assert.Equal(t, []string{"EXV00000001"}, got, "an unlearned fingerprint allocates")
}
