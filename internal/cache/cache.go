package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/chatengine/internal/clock"
	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds every entry regardless of staleness checks.
const DefaultTTL = 15 * time.Minute

const keyPrefix = "chat_data_"

// Source is the backing store the cache derives its entries from.
type Source interface {
	CompanyInfo(ctx context.Context, companyID int64) (*domain.Company, error)
	AssistantInfo(ctx context.Context, companyID int64) (*domain.Assistant, error)
	ServiceCatalog(ctx context.Context, companyID int64) ([]domain.ServiceCategory, error)
	Schedules(ctx context.Context, companyID int64) ([]domain.Schedule, error)
	ScheduleSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error)
	// LastModified returns the newest updated_at among the rows of kind, or
	// the zero time when there are none.
	LastModified(ctx context.Context, kind domain.Kind, companyID int64) (time.Time, error)
}

// Key returns the store key of (kind, companyID).
func Key(kind domain.Kind, companyID int64) string {
	return fmt.Sprintf("%s%s_%d", keyPrefix, kind, companyID)
}

type entry[T any] struct {
	LastUpdated int64 `cbor:"last_updated"`
	Payload     T     `cbor:"payload"`
}

// Options configures a Cache.
type Options struct {
	TTL     time.Duration
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Cache serves tenant reference data, re-reading the source whenever it holds
// rows newer than the cached copy. Safe for concurrent use.
type Cache struct {
	store   Store
	source  Source
	ttl     time.Duration
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
	group   singleflight.Group
}

// New creates a cache over store backed by src.
func New(store Store, src Source, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		store:   store,
		source:  src,
		ttl:     opts.TTL,
		clock:   clock.OrReal(opts.Clock),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Company returns the company row, or nil when the tenant does not exist.
func (c *Cache) Company(ctx context.Context, companyID int64) (*domain.Company, error) {
	return lookup(ctx, c, domain.KindCompany, companyID, c.source.CompanyInfo)
}

// Assistant returns the tenant's assistant, or nil when none is configured.
func (c *Cache) Assistant(ctx context.Context, companyID int64) (*domain.Assistant, error) {
	return lookup(ctx, c, domain.KindAssistant, companyID, c.source.AssistantInfo)
}

// Services returns the live catalog grouped by category.
func (c *Cache) Services(ctx context.Context, companyID int64) ([]domain.ServiceCategory, error) {
	return lookup(ctx, c, domain.KindServices, companyID, c.source.ServiceCatalog)
}

// Schedules returns the tenant's booked schedules.
func (c *Cache) Schedules(ctx context.Context, companyID int64) ([]domain.Schedule, error) {
	return lookup(ctx, c, domain.KindSchedules, companyID, c.source.Schedules)
}

// ScheduleSlots returns every slot of the tenant.
func (c *Cache) ScheduleSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error) {
	return lookup(ctx, c, domain.KindScheduleSlots, companyID, c.source.ScheduleSlots)
}

// OpenSlots returns the slots that are active and not bound to a schedule.
func (c *Cache) OpenSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error) {
	all, err := c.ScheduleSlots(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var open []domain.ScheduleSlot
	for _, s := range all {
		if s.Open() {
			open = append(open, s)
		}
	}
	return open, nil
}

// Invalidate drops the entries of the given kinds, or of every kind when none are given.
func (c *Cache) Invalidate(ctx context.Context, companyID int64, kinds ...domain.Kind) error {
	if len(kinds) == 0 {
		kinds = domain.Kinds()
	}
	var errs []error
	for _, k := range kinds {
		if err := c.store.Delete(ctx, Key(k, companyID)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalidate company %d: %w", companyID, err)
	}
	c.logger.Info("cache invalidated", "company_id", companyID, "kinds", kinds)
	return nil
}

// Ping checks the underlying store.
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// lookup returns the cached payload for (kind, id) while no source row is newer
// than it, and re-reads the source otherwise. Store failures degrade to a
// direct source read.
func lookup[T any](ctx context.Context, c *Cache, kind domain.Kind, id int64, load func(context.Context, int64) (T, error)) (T, error) {
	key := Key(kind, id)

	lastMod, err := c.source.LastModified(ctx, kind, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("last modified %s: %w", key, err)
	}

	raw, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CacheLookup(string(kind), metrics.CacheError)
		c.logger.Warn("cache read failed", "key", key, "error", err)
	case ok:
		var e entry[T]
		if err := unmarshal(raw, &e); err != nil {
			c.metrics.CacheLookup(string(kind), metrics.CacheError)
			c.logger.Warn("cache entry unreadable", "key", key, "error", err)
		} else if lastMod.Unix() <= e.LastUpdated {
			c.metrics.CacheLookup(string(kind), metrics.CacheHit)
			return e.Payload, nil
		} else {
			c.metrics.CacheLookup(string(kind), metrics.CacheStale)
		}
	default:
		c.metrics.CacheLookup(string(kind), metrics.CacheMiss)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return refresh(ctx, c, key, load, id)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func refresh[T any](ctx context.Context, c *Cache, key string, load func(context.Context, int64) (T, error), id int64) (T, error) {
	// Stamp before reading so a row written during the read marks the entry stale.
	stamp := c.clock.Now().Unix() - 1
	payload, err := load(ctx, id)
	if err != nil {
		return payload, fmt.Errorf("load %s: %w", key, err)
	}
	raw, err := marshal(entry[T]{LastUpdated: stamp, Payload: payload})
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return payload, nil
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return payload, nil
}
