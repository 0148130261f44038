package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

func newMajorStore(t *testing.T) *Memory[model.Major, *model.Major] {
	t.Helper()
	store, err := NewMemory[model.Major, *model.Major](MajorsTable)
	require.NoError(t, err)
	return store
}

func TestMemory_CreateThenGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	input := &model.Major{Name: "Computer Science", Department: "Engineering", DegreePursued: "BS"}
	created, err := store.Create(ctx, input)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, created.ID, input.ID, "Create should report the assigned id on the input")

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("Get() mismatch (-created +got):\n%s", diff)
	}
}

func TestMemory_UnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update(ctx, 42, &model.Major{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 42), ErrNotFound)
}

func TestMemory_DeleteThenGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	created, err := store.Create(ctx, &model.Major{Name: "Physics", Department: "Physics", DegreePursued: "BS"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}

func TestMemory_ListGrowsByCreates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	before, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, before)

	// More than 127 ids exercises multi-byte varint keys.
	const n = 300
	for i := 0; i < n; i++ {
		_, err := store.Create(ctx, &model.Major{
			Name:          fmt.Sprintf("Major %d", i),
			Department:    "Letters & Science",
			DegreePursued: "BA",
		})
		require.NoError(t, err)
	}

	after, err := store.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, after, n)
	for i := 1; i < len(after); i++ {
		assert.Less(t, after[i-1].ID, after[i].ID, "List should be in ascending id order")
	}
}

func TestMemory_UpdateReplacesFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	created, err := store.Create(ctx, &model.Major{Name: "Math", Department: "Math", DegreePursued: "BA"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, &model.Major{Name: "Applied Math", Department: "Math", DegreePursued: "BS"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Applied Math", updated.Name)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "BS", got.DegreePursued)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMajorStore(t)

	created, err := store.Create(ctx, &model.Major{Name: "Art", Department: "Arts", DegreePursued: "BA"})
	require.NoError(t, err)

	created.Name = "mutated"
	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Art", got.Name)
}

func TestMemory_ListFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewMemory[model.Park, *model.Park](ParksTable)
	require.NoError(t, err)

	for _, p := range []model.Park{
		{Name: "Yosemite", State: "CA", Acres: decimal.NewFromInt(759620)},
		{Name: "Zion", State: "UT", Acres: decimal.NewFromInt(146597)},
		{Name: "Joshua Tree", State: "CA", Acres: decimal.NewFromInt(795156)},
	} {
		_, err := store.Create(ctx, &p)
		require.NoError(t, err)
	}

	ca, err := store.List(ctx, Filter{"state": "CA"})
	require.NoError(t, err)
	require.Len(t, ca, 2)
	assert.Equal(t, "Yosemite", ca[0].Name)
	assert.Equal(t, "Joshua Tree", ca[1].Name)

	all, err := store.List(ctx, Filter{"name": "Zion"})
	require.NoError(t, err)
	assert.Len(t, all, 3, "undeclared filters are ignored")

	none, err := store.List(ctx, Filter{"state": "NV"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_UniqueColumn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewMemory[model.UCSBDiningCommons, *model.UCSBDiningCommons](UCSBDiningCommonsTable)
	require.NoError(t, err)

	ortega, err := store.Create(ctx, &model.UCSBDiningCommons{Code: "ortega", Name: "Ortega"})
	require.NoError(t, err)
	dlg, err := store.Create(ctx, &model.UCSBDiningCommons{Code: "de-la-guerra", Name: "De La Guerra"})
	require.NoError(t, err)

	_, err = store.Create(ctx, &model.UCSBDiningCommons{Code: "ortega", Name: "Ortega Again"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.Update(ctx, dlg.ID, &model.UCSBDiningCommons{Code: "ortega", Name: "De La Guerra"})
	assert.ErrorIs(t, err, ErrConflict)

	// Keeping its own code is not a conflict.
	_, err = store.Update(ctx, ortega.ID, &model.UCSBDiningCommons{Code: "ortega", Name: "Ortega Commons", HasSackMeal: true})
	assert.NoError(t, err)

	byCode, err := store.List(ctx, Filter{"code": "ortega"})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.True(t, byCode[0].HasSackMeal)
}

func TestMemory_AllTables(t *testing.T) {
	t.Parallel()

	// Every table definition must produce a valid memdb schema.
	_, err := NewMemory[model.Major, *model.Major](MajorsTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.Park, *model.Park](ParksTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.Phone, *model.Phone](PhonesTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.Restaurant, *model.Restaurant](RestaurantsTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.School, *model.School](SchoolsTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.UCSBDate, *model.UCSBDate](UCSBDatesTable)
	assert.NoError(t, err)
	_, err = NewMemory[model.UCSBDiningCommons, *model.UCSBDiningCommons](UCSBDiningCommonsTable)
	assert.NoError(t, err)
}

func TestTable_ValuesMatchColumns(t *testing.T) {
	t.Parallel()

	assert.Len(t, MajorsTable.Values(&model.Major{}), len(MajorsTable.Columns))
	assert.Len(t, ParksTable.Values(&model.Park{}), len(ParksTable.Columns))
	assert.Len(t, PhonesTable.Values(&model.Phone{}), len(PhonesTable.Columns))
	assert.Len(t, RestaurantsTable.Values(&model.Restaurant{}), len(RestaurantsTable.Columns))
	assert.Len(t, SchoolsTable.Values(&model.School{}), len(SchoolsTable.Columns))
	assert.Len(t, UCSBDatesTable.Values(&model.UCSBDate{}), len(UCSBDatesTable.Columns))
	assert.Len(t, UCSBDiningCommonsTable.Values(&model.UCSBDiningCommons{}), len(UCSBDiningCommonsTable.Columns))
}
