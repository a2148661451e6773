package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/generate"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	opts := DefaultOptions()
	opts.Logger = testr.New(t)
	s, err := Open(filepath.Join(t.TempDir(), "customers"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ByName(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	b := generate.Customers(50, 5, 0)
	require.NoError(t, s.Put(ctx, b.Base...))
	require.NoError(t, s.Put(ctx, generate.Foreign(30, 1000)...))

	got, err := s.ByName(ctx, b.Params)
	require.NoError(t, err)
	require.Len(t, got, 50)
	for i, c := range got {
		assert.Equal(t, int32(i), c.ID)
		assert.True(t, b.Params.Matches(c))
	}
	assert.Equal(t, b.Base[len(b.Base)-1], got[0])
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	street, credit := "1 Main St", "BC"
	limit, discount := 50000.0, 0.25
	since := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := customer.Customer{
		ID:          7,
		DistrictID:  2,
		WarehouseID: 3,
		First:       "ALICE",
		Middle:      "OE",
		Last:        "BARBAR",
		Street1:     &street,
		Credit:      &credit,
		CreditLim:   &limit,
		Discount:    &discount,
		Since:       &since,
	}
	require.NoError(t, s.Put(ctx, c))

	got, err := s.ByName(ctx, customer.Params{Last: "BARBAR", DistrictID: 2, WarehouseID: 3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.First, got[0].First)
	assert.Equal(t, street, *got[0].Street1)
	assert.Nil(t, got[0].Street2)
	assert.Equal(t, limit, *got[0].CreditLim)
	assert.True(t, since.Equal(*got[0].Since))
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	params := generate.Params()

	b := generate.Customers(3, 0, 0)
	require.NoError(t, s.Put(ctx, b.Base...))

	renamed := b.Base[0]
	renamed.First = "renamed"
	require.NoError(t, s.Put(ctx, renamed))

	got, err := s.ByName(ctx, params)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "renamed", got[2].First)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	b := generate.Customers(10, 0, 3)
	require.NoError(t, s.Put(ctx, b.Base...))
	require.NoError(t, s.Delete(ctx, b.Deletions...))
	// Deleting again is a no-op.
	require.NoError(t, s.Delete(ctx, b.Deletions...))

	got, err := s.ByName(ctx, b.Params)
	require.NoError(t, err)
	assert.Len(t, got, 7)
	for _, c := range got {
		for _, d := range b.Deletions {
			assert.NotEqual(t, d.ID, c.ID)
		}
	}
}

func TestStore_GroupsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	mk := func(id, d, w int32, last string) customer.Customer {
		return customer.Customer{ID: id, DistrictID: d, WarehouseID: w, Last: last, First: last}
	}

	require.NoError(t, s.Put(ctx,
		mk(1, 1, 1, "AB"),
		mk(2, 1, 1, "ABC"),
		mk(3, 1, 1, "A"),
		mk(4, 2, 1, "AB"),
		mk(5, 1, -1, "AB"),
		mk(-6, 1, 1, "AB"),
	))

	tests := []struct {
		params  customer.Params
		wantIDs []int32
	}{
		{params: customer.Params{Last: "AB", DistrictID: 1, WarehouseID: 1}, wantIDs: []int32{-6, 1}},
		{params: customer.Params{Last: "A", DistrictID: 1, WarehouseID: 1}, wantIDs: []int32{3}},
		{params: customer.Params{Last: "AB", DistrictID: 1, WarehouseID: -1}, wantIDs: []int32{5}},
		{params: customer.Params{Last: "AB", DistrictID: 3, WarehouseID: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.params.Last, func(t *testing.T) {
			got, err := s.ByName(ctx, tt.params)
			require.NoError(t, err)
			var ids []int32
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_LastNamePrefixes(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	mk := func(id int32, last string) customer.Customer {
		return customer.Customer{ID: id, DistrictID: 1, WarehouseID: 1, Last: last, First: "f"}
	}

	require.NoError(t, s.Put(ctx,
		mk(1, "a"),
		mk(2, "a\x00b"),
		mk(3, "a\x00"),
		mk(4, ""),
		mk(5, "\x00"),
	))

	tests := []struct {
		last    string
		wantIDs []int32
	}{
		{last: "a", wantIDs: []int32{1}},
		{last: "a\x00b", wantIDs: []int32{2}},
		{last: "a\x00", wantIDs: []int32{3}},
		{last: "", wantIDs: []int32{4}},
		{last: "\x00", wantIDs: []int32{5}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.last), func(t *testing.T) {
			got, err := s.ByName(ctx, customer.Params{Last: tt.last, DistrictID: 1, WarehouseID: 1})
			require.NoError(t, err)
			var ids []int32
			for _, c := range got {
				ids = append(ids, c.ID)
				assert.Equal(t, tt.last, c.Last)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_ByNameSkipsForeignRows(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	params := customer.Params{Last: "a", DistrictID: 1, WarehouseID: 1}

	require.NoError(t, s.Put(ctx, customer.Customer{ID: 1, DistrictID: 1, WarehouseID: 1, Last: "a"}))

	// A row stored under the group's key range whose value belongs elsewhere.
	stray, err := encode(customer.Customer{ID: 2, DistrictID: 1, WarehouseID: 1, Last: "b"})
	require.NoError(t, err)
	key := append(groupPrefix(1, 1, "a"), orderedInt32(2)...)
	require.NoError(t, s.db.Set(key, stray, nil))

	got, err := s.ByName(ctx, params)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(1), got[0].ID)
}

func TestStore_PartialApplyOnError(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	params := customer.Params{Last: "x", DistrictID: 1, WarehouseID: 1}
	boom := errors.New("boom")
	big := strings.Repeat("f", 1<<20)

	err := s.apply(ctx, 8, func(b *pebble.Batch, i int) error {
		if i == 7 {
			return boom
		}
		c := customer.Customer{ID: int32(i), DistrictID: 1, WarehouseID: 1, Last: "x", First: big}
		value, err := encode(c)
		if err != nil {
			return err
		}
		return b.Set(rowKey(c), value, nil)
	})
	require.ErrorIs(t, err, boom)

	// Rows committed once the batch outgrew its limit survive the error; the
	// rest are dropped.
	got, err := s.ByName(ctx, params)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Less(t, len(got), 7)
}

func TestStore_LargeBatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	b := generate.Customers(30000, 0, 0)
	require.NoError(t, s.Put(ctx, b.Base...))

	got, err := s.ByName(ctx, b.Params)
	require.NoError(t, err)
	assert.Len(t, got, 30000)
}

func TestStore_Canceled(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, generate.Customers(5, 0, 0).Base...)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "customers"), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Close(), ErrClosed)
	assert.ErrorIs(t, s.Put(ctx, customer.Customer{}), ErrClosed)
	assert.ErrorIs(t, s.Delete(ctx, customer.Customer{}), ErrClosed)
	_, err = s.ByName(ctx, generate.Params())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "customers")

	s, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	b := generate.Customers(20, 0, 0)
	require.NoError(t, s.Put(ctx, b.Base...))
	require.NoError(t, s.Close())

	s, err = Open(path, DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ByName(ctx, b.Params)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", DefaultOptions())
	assert.Error(t, err)
}

func TestKeyOrdering(t *testing.T) {
	assert.Negative(t, bytes.Compare(orderedInt32(-1), orderedInt32(0)))
	assert.Negative(t, bytes.Compare(orderedInt32(0), orderedInt32(1)))
	assert.Negative(t, bytes.Compare(orderedInt32(255), orderedInt32(256)))

	assert.False(t, bytes.HasPrefix(groupPrefix(1, 1, "a\x00b"), groupPrefix(1, 1, "a")))

	prefix := groupPrefix(1, 2, "x")
	assert.True(t, bytes.HasPrefix(rowKey(customer.Customer{ID: 9, DistrictID: 2, WarehouseID: 1, Last: "x"}), prefix))
	assert.Positive(t, bytes.Compare(upperBound(prefix), rowKey(customer.Customer{ID: 1<<31 - 1, DistrictID: 2, WarehouseID: 1, Last: "x"})))
	assert.Nil(t, upperBound([]byte{0xff, 0xff}))
	assert.Equal(t, []byte{'a', 'c'}, upperBound([]byte{'a', 'b', 0xff}))
}
