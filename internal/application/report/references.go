package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
	"go.uber.org/zap"
)

// ReferenceCache stores reference snapshots between requests
type ReferenceCache interface {
	Get(ctx context.Context) (*sellout.ReferenceSnapshot, bool, error)
	Set(ctx context.Context, snapshot *sellout.ReferenceSnapshot, ttl time.Duration) error
}

// ReferenceLoader reads the reference tables, going through the cache when one is configured
type ReferenceLoader struct {
	repo   sellout.ReferenceRepository
	cache  ReferenceCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceLoader creates a ReferenceLoader. cache may be nil.
func NewReferenceLoader(repo sellout.ReferenceRepository, cache ReferenceCache, ttl time.Duration, logger *zap.Logger) *ReferenceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceLoader{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// References implements ReferenceSource
func (l *ReferenceLoader) References(ctx context.Context) (*sellout.References, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Index(), nil
}

// Snapshot returns the raw reference tables. Cache failures are logged and
// fall through to the repository; repository failures are structural.
func (l *ReferenceLoader) Snapshot(ctx context.Context) (*sellout.ReferenceSnapshot, error) {
	if l.cache != nil && l.ttl > 0 {
		snap, ok, err := l.cache.Get(ctx)
		if err != nil {
			l.logger.Warn("Reference cache read failed", zap.Error(err))
		} else if ok {
			return snap, nil
		}
	}

	snap, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && l.ttl > 0 {
		if err := l.cache.Set(ctx, snap, l.ttl); err != nil {
			l.logger.Warn("Reference cache write failed", zap.Error(err))
		}
	}
	return snap, nil
}

// Refresh reloads the reference tables and overwrites the cached snapshot.
// Without a cache it only checks that the tables can be read.
func (l *ReferenceLoader) Refresh(ctx context.Context) error {
	snap, err := l.load(ctx)
	if err != nil {
		return err
	}
	if l.cache == nil || l.ttl <= 0 {
		return nil
	}
	if err := l.cache.Set(ctx, snap, l.ttl); err != nil {
		return fmt.Errorf("write reference cache: %w", err)
	}
	return nil
}

func (l *ReferenceLoader) load(ctx context.Context) (*sellout.ReferenceSnapshot, error) {
	products, err := l.repo.ListProducts(ctx)
	if err != nil {
		return nil, l.unavailable("products", err)
	}
	dealers, err := l.repo.ListDealers(ctx)
	if err != nil {
		return nil, l.unavailable("dealers", err)
	}
	employees, err := l.repo.ListEmployees(ctx)
	if err != nil {
		return nil, l.unavailable("employees", err)
	}

	l.logger.Debug("Reference tables loaded",
		zap.Int("products", len(products)),
		zap.Int("dealers", len(dealers)),
		zap.Int("employees", len(employees)),
	)
	return &sellout.ReferenceSnapshot{Products: products, Dealers: dealers, Employees: employees}, nil
}

func (l *ReferenceLoader) unavailable(table string, err error) error {
	l.logger.Error("Reference table could not be loaded", zap.String("table", table), zap.Error(err))
	return sellout.ErrReferenceUnavailable.WithMessage("Reference data could not be loaded: " + table)
}
