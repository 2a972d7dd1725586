package merge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/pkg/legis"
)

func TestApply(t *testing.T) {
	t.Run("identical_candidate_is_noop", func(t *testing.T) {
		existing := store.Doc{"full_name": "John Adams", "party": "Federalist"}
		candidate := store.Doc{"full_name": "John Adams", "party": "Federalist"}

		assert.False(t, merge.Apply(existing, candidate, nil))
	})

	t.Run("changed_field_applies", func(t *testing.T) {
		existing := store.Doc{"party": "Federalist"}
		candidate := store.Doc{"party": "Whig"}

		assert.True(t, merge.Apply(existing, candidate, nil))
		assert.Equal(t, "Whig", existing["party"])
	})

	t.Run("locked_fields_are_skipped", func(t *testing.T) {
		existing := store.Doc{
			"full_name":     "John Adams",
			"party":         "Federalist",
			"locked_fields": []any{"full_name"},
		}
		candidate := store.Doc{"full_name": "J. Adams", "party": "Whig"}

		assert.True(t, merge.Apply(existing, candidate, nil))
		assert.Equal(t, "John Adams", existing["full_name"], "locked field keeps its value")
		assert.Equal(t, "Whig", existing["party"], "unlocked fields still apply")
	})

	t.Run("metadata_fields_are_never_applied", func(t *testing.T) {
		existing := store.Doc{"id": "EXL00000001", "created_at": "2020-01-01T00:00:00Z"}
		candidate := store.Doc{"id": "EXL00000099", "created_at": "2024-01-01T00:00:00Z", "updated_at": "x"}

		assert.False(t, merge.Apply(existing, candidate, nil))
		assert.Equal(t, "EXL00000001", existing["id"])
	})

	t.Run("legacy_decoration_is_cleaned_up", func(t *testing.T) {
		existing := store.Doc{"district": "4", "+district": "stale"}
		candidate := store.Doc{"district": "5"}

		assert.True(t, merge.Apply(existing, candidate, nil))
		assert.Equal(t, "5", existing["district"])
		assert.NotContains(t, existing, "+district")
	})

	t.Run("nil_value_deletes_field", func(t *testing.T) {
		existing := store.Doc{"district": "4", "party": "Whig"}
		candidate := store.Doc{"district": nil}

		assert.True(t, merge.Apply(existing, candidate, nil))
		assert.NotContains(t, existing, "district")
		assert.Equal(t, "Whig", existing["party"])

		// Deleting an absent field changes nothing.
		assert.False(t, merge.Apply(existing, store.Doc{"district": nil}, nil))
	})

	t.Run("predicate_can_reject", func(t *testing.T) {
		existing := store.Doc{"yes_count": float64(30)}
		candidate := store.Doc{"yes_count": float64(10)}

		pred := func(field string, old, new any) bool { return false }
		assert.False(t, merge.Apply(existing, candidate, pred))
		assert.Equal(t, float64(30), existing["yes_count"])
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	t.Run("insert_then_identical_merge_is_unchanged", func(t *testing.T) {
		s := memory.NewStore()

		res, err := merge.Save(ctx, s, legis.KindBill, "EXB00000001",
			store.Doc{"title": "An Act"}, nil, now)
		require.NoError(t, err)
		assert.Equal(t, merge.Inserted, res)

		doc, ok, err := s.Get(ctx, legis.KindBill, "EXB00000001")
		require.NoError(t, err)
		require.True(t, ok)
		firstUpdated := doc["updated_at"]

		res, err = merge.Save(ctx, s, legis.KindBill, "EXB00000001",
			store.Doc{"title": "An Act"}, nil, later)
		require.NoError(t, err)
		assert.Equal(t, merge.Unchanged, res)

		doc, _, err = s.Get(ctx, legis.KindBill, "EXB00000001")
		require.NoError(t, err)
		assert.Equal(t, firstUpdated, doc["updated_at"], "no-op merge must not bump updated_at")
	})

	t.Run("changed_merge_bumps_updated_at", func(t *testing.T) {
		s := memory.NewStore()

		_, err := merge.Save(ctx, s, legis.KindBill, "EXB00000001",
			store.Doc{"title": "An Act"}, nil, now)
		require.NoError(t, err)

		res, err := merge.Save(ctx, s, legis.KindBill, "EXB00000001",
			store.Doc{"title": "An Act, Amended"}, nil, later)
		require.NoError(t, err)
		assert.Equal(t, merge.Updated, res)

		doc, _, err := s.Get(ctx, legis.KindBill, "EXB00000001")
		require.NoError(t, err)
		assert.Equal(t, "An Act, Amended", doc["title"])
		assert.Equal(t, later.UTC().Format(time.RFC3339Nano), doc["updated_at"])
		assert.Equal(t, now.UTC().Format(time.RFC3339Nano), doc["created_at"], "created_at never moves")
	})
}
