package legislators

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/directory"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// stubDirectory counts lookups and serves a fixed list per zipcode.
type stubDirectory struct {
	calls   int
	results map[string][]directory.Legislator
	err     error
}

func (d *stubDirectory) LegislatorsForZip(_ context.Context, zipcode string) ([]directory.Legislator, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.results[zipcode], nil
}

func ncDelegation() []directory.Legislator {
	return []directory.Legislator{
		{ShortTitle: "Rep", FirstName: "David", LastName: "Price", BioguideID: "P000523"},
		{ShortTitle: "Sen", FirstName: "Richard", LastName: "Burr", BioguideID: "B001135"},
		{ShortTitle: "Sen", FirstName: "Kay", LastName: "Hagan", BioguideID: "H001049"},
	}
}

func TestLookup(t *testing.T) {
	t.Run("fetches once and serves from cache afterwards", func(t *testing.T) {
		dir := &stubDirectory{results: map[string][]directory.Legislator{"27514": ncDelegation()}}
		cache := NewCache(store.NewMemoryStore(), dir, zap.NewNop())

		first, err := cache.Lookup(context.Background(), "27514")
		require.NoError(t, err)
		require.Len(t, first, 3)
		assert.Equal(t, 1, dir.calls)

		second, err := cache.Lookup(context.Background(), "27514")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, dir.calls, "second lookup must not hit the directory")

		assert.Equal(t, float64(1), testutil.ToFloat64(cache.lookups.WithLabelValues("miss")))
		assert.Equal(t, float64(1), testutil.ToFloat64(cache.lookups.WithLabelValues("hit")))
	})

	t.Run("senators precede representatives with relative order kept", func(t *testing.T) {
		dir := &stubDirectory{results: map[string][]directory.Legislator{"27514": ncDelegation()}}
		cache := NewCache(store.NewMemoryStore(), dir, zap.NewNop())

		legislators, err := cache.Lookup(context.Background(), "27514")
		require.NoError(t, err)
		require.Len(t, legislators, 3)

		assert.Equal(t, "B001135", legislators[0].BioguideID)
		assert.Equal(t, "H001049", legislators[1].BioguideID)
		assert.Equal(t, "P000523", legislators[2].BioguideID)
	})

	t.Run("annotates titles and full names", func(t *testing.T) {
		dir := &stubDirectory{results: map[string][]directory.Legislator{
			"12345": {
				{ShortTitle: "Sen", FirstName: "Jane", LastName: "Doe"},
				{ShortTitle: "Del", FirstName: "John", LastName: "Roe"},
			},
		}}
		cache := NewCache(store.NewMemoryStore(), dir, zap.NewNop())

		legislators, err := cache.Lookup(context.Background(), "12345")
		require.NoError(t, err)
		require.Len(t, legislators, 2)

		assert.Equal(t, "Senator", legislators[0].Title)
		assert.Equal(t, "Senator Jane Doe", legislators[0].FullName)

		// Unrecognized code falls back to Representative.
		assert.Equal(t, "Representative", legislators[1].Title)
		assert.Equal(t, "Representative John Roe", legislators[1].FullName)
	})

	t.Run("empty delegation is cached as a valid result", func(t *testing.T) {
		dir := &stubDirectory{results: map[string][]directory.Legislator{}}
		cache := NewCache(store.NewMemoryStore(), dir, zap.NewNop())

		legislators, err := cache.Lookup(context.Background(), "00001")
		require.NoError(t, err)
		assert.Empty(t, legislators)

		_, err = cache.Lookup(context.Background(), "00001")
		require.NoError(t, err)
		assert.Equal(t, 1, dir.calls)
	})

	t.Run("directory failure surfaces as an error", func(t *testing.T) {
		dir := &stubDirectory{err: assert.AnError}
		cache := NewCache(store.NewMemoryStore(), dir, zap.NewNop())

		_, err := cache.Lookup(context.Background(), "27514")
		assert.Error(t, err)
	})
}
