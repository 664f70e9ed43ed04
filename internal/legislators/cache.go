// Package legislators resolves zipcodes to annotated legislator lists
// through a read-through cache. Cached lists never expire, so a zipcode
// is fetched from the directory at most once for the lifetime of the
// store.
package legislators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/directory"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// Directory is the external lookup the cache reads through to.
type Directory interface {
	LegislatorsForZip(ctx context.Context, zipcode string) ([]directory.Legislator, error)
}

// Cache is the read-through zipcode cache.
type Cache struct {
	store     store.Store
	directory Directory
	logger    *zap.Logger
	now       func() time.Time
	lookups   *prometheus.CounterVec
}

// NewCache creates a cache over the given store and directory client.
func NewCache(s store.Store, d Directory, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:     s,
		directory: d,
		logger:    logger,
		now:       time.Now,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capitolphone_zipcode_lookups_total",
			Help: "Zipcode lookups by cache outcome.",
		}, []string{"result"}),
	}
}

// RegisterMetrics registers the cache's lookup counter on the registry.
func (c *Cache) RegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(c.lookups)
}

// Lookup returns the annotated legislator list for a zipcode. On a cache
// miss it fetches from the directory, sorts senators before
// representatives, fills in display titles and full names, and persists
// the result. An empty list is a valid outcome for zipcodes the
// directory cannot resolve.
func (c *Cache) Lookup(ctx context.Context, zipcode string) ([]directory.Legislator, error) {
	entry, err := c.store.FindZipcode(ctx, zipcode)
	if err == nil {
		c.lookups.WithLabelValues("hit").Inc()
		c.logger.Debug("zipcode cache hit", zap.String("zipcode", zipcode))
		return entry.Legislators, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("zipcode cache read: %w", err)
	}
	c.lookups.WithLabelValues("miss").Inc()

	legislators, err := c.directory.LegislatorsForZip(ctx, zipcode)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	// Descending by raw title code puts Sen before Rep while keeping
	// the directory's relative order within each title.
	sort.SliceStable(legislators, func(i, j int) bool {
		return legislators[i].ShortTitle > legislators[j].ShortTitle
	})

	for i := range legislators {
		l := &legislators[i]
		l.Title = directory.TitleForCode(l.ShortTitle)
		l.FullName = fmt.Sprintf("%s %s %s", l.Title, l.FirstName, l.LastName)
	}

	if err := c.store.SaveZipcode(ctx, &store.ZipcodeEntry{
		Zipcode:     zipcode,
		FetchedAt:   c.now(),
		Legislators: legislators,
	}); err != nil {
		return nil, fmt.Errorf("zipcode cache write: %w", err)
	}

	c.logger.Info("zipcode cache fill",
		zap.String("zipcode", zipcode),
		zap.Int("legislators", len(legislators)),
	)

	return legislators, nil
}
