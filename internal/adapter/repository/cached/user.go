package cached

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dbplayground/internal/adapter/cache"
	domain "dbplayground/internal/domain/user"
	"dbplayground/internal/usecase/user"
)

// loadTimeout bounds a shared database load once it is detached from its caller.
const loadTimeout = 30 * time.Second

// CachedUserRepository implements user.Repository with read-through caching
// of single-user lookups. Only hits are cached: lookups resolve to the lowest
// matching ID, so inserting a user can never change a cached answer.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
// A nil cache disables caching but keeps load coalescing.
func NewCachedUserRepository(dbRepo user.Repository, c cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  c,
		log:    log,
	}
}

var _ user.Repository = (*CachedUserRepository)(nil)

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Create(ctx, u)
}

// FindOne looks the filter up in the cache before querying the database.
func (r *CachedUserRepository) FindOne(ctx context.Context, f domain.Filter) (*domain.User, error) {
	return r.readThrough(ctx, cache.LookupKey(f), func(ctx context.Context) (*domain.User, error) {
		return r.dbRepo.FindOne(ctx, f)
	})
}

// FindByID looks the ID up in the cache before querying the database.
func (r *CachedUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.readThrough(ctx, cache.IDKey(id), func(ctx context.Context) (*domain.User, error) {
		return r.dbRepo.FindByID(ctx, id)
	})
}

// FindAll delegates to the DB repository.
func (r *CachedUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.FindAll(ctx)
}

// Count delegates to the DB repository.
func (r *CachedUserRepository) Count(ctx context.Context) (int64, error) {
	return r.dbRepo.Count(ctx)
}

// readThrough implements cache-aside for one key. Concurrent misses on the
// same key share a single database load. The shared load is detached from the
// caller that started it and bounded by loadTimeout; each caller still returns
// as soon as its own context is done.
func (r *CachedUserRepository) readThrough(ctx context.Context, key string, load func(context.Context) (*domain.User, error)) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u := r.cached(ctx, key); u != nil {
		return u, nil
	}

	ch := r.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		// Another caller may have filled the cache while we waited
		if u := r.cached(loadCtx, key); u != nil {
			return u, nil
		}

		u, err := load(loadCtx)
		if err != nil || u == nil {
			return u, err
		}

		if r.cache != nil {
			keys := []string{cache.IDKey(u.ID)}
			if key != cache.IDKey(u.ID) {
				keys = append(keys, key)
			}
			if err := r.cache.Set(loadCtx, u, keys...); err != nil {
				r.log.Warn("failed to cache user", zap.String("key", key), zap.Error(err))
			}
		}
		return u, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		r.log.Debug("user load shared", zap.String("key", key))
	}

	u, _ := res.Val.(*domain.User)
	if u == nil {
		return nil, nil
	}
	// Callers must not share one record through the singleflight result
	clone := *u
	return &clone, nil
}

func (r *CachedUserRepository) cached(ctx context.Context, key string) *domain.User {
	if r.cache == nil {
		return nil
	}
	u, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.String("key", key), zap.Error(err))
		return nil
	}
	if u != nil {
		r.log.Debug("user retrieved from cache", zap.String("key", key))
	}
	return u
}
