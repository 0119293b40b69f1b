package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/sellout/backend/internal/domain/sellout"
	"go.uber.org/zap"
)

// ReferenceSource provides the indexed reference snapshot used to resolve records
type ReferenceSource interface {
	References(ctx context.Context) (*sellout.References, error)
}

// Dataset is everything a report renders from. It is built fresh per request.
type Dataset struct {
	Windows sellout.Windows
	Refs    *sellout.References
	// Current holds internal sales inside the current window
	Current []sellout.NormalizedSale
	// Comparison holds distributor feed sales inside the comparison window
	Comparison  []sellout.NormalizedSale
	Diagnostics sellout.Diagnostics
}

// LoadSpec describes what a report needs from the sources
type LoadSpec struct {
	Windows        sellout.Windows
	Policy         sellout.SegmentPolicy
	Filter         sellout.SaleFilter
	WithComparison bool
}

// Pipeline fetches and normalizes the records behind a report
type Pipeline struct {
	salesLog  sellout.SaleLogRepository
	feed      sellout.DistributorFeedRepository
	refs      ReferenceSource
	feedBrand string
	logger    *zap.Logger
}

// NewPipeline creates a Pipeline
func NewPipeline(
	salesLog sellout.SaleLogRepository,
	feed sellout.DistributorFeedRepository,
	refs ReferenceSource,
	feedBrand string,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		salesLog:  salesLog,
		feed:      feed,
		refs:      refs,
		feedBrand: feedBrand,
		logger:    logger,
	}
}

// Load runs the independent fetches concurrently, then normalizes and
// filters the records. Any fetch or structural failure fails the whole load.
func (p *Pipeline) Load(ctx context.Context, spec LoadSpec) (*Dataset, error) {
	var (
		wg       sync.WaitGroup
		refs     *sellout.References
		internal []sellout.InternalRecord
		external []sellout.ExternalRecord
	)
	var refsErr, internalErr, extErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		refs, refsErr = p.refs.References(ctx)
	}()
	go func() {
		defer wg.Done()
		internal, internalErr = p.salesLog.FindInWindow(ctx, spec.Windows.Current)
	}()
	if spec.WithComparison {
		wg.Add(1)
		go func() {
			defer wg.Done()
			external, extErr = p.feed.FindForMonths(ctx, spec.Windows.Comparison)
		}()
	}
	wg.Wait()

	if refsErr != nil {
		return nil, refsErr
	}
	if internalErr != nil {
		return nil, fmt.Errorf("fetch sales log: %w", internalErr)
	}
	if extErr != nil {
		return nil, fmt.Errorf("fetch distributor feed: %w", extErr)
	}

	normalizer := sellout.NewNormalizer(refs,
		sellout.WithSegmentPolicy(spec.Policy),
		sellout.WithFeedBrand(p.feedBrand),
		sellout.WithLocation(spec.Windows.Current.Start.Location()),
	)

	ds := &Dataset{Windows: spec.Windows, Refs: refs}

	current, diag, err := normalizer.NormalizeInternal(internal)
	if err != nil {
		return nil, err
	}
	ds.Diagnostics.Merge(diag)
	current = inWindow(current, spec.Windows.Current)

	var comparison []sellout.NormalizedSale
	if spec.WithComparison {
		comparison, diag, err = normalizer.NormalizeExternal(external)
		if err != nil {
			return nil, err
		}
		ds.Diagnostics.Merge(diag)
		comparison = inWindow(comparison, spec.Windows.Comparison)
	}

	var removed int
	ds.Current, removed = spec.Filter.Apply(current)
	ds.Diagnostics.Filtered += removed
	ds.Comparison, removed = spec.Filter.Apply(comparison)
	ds.Diagnostics.Filtered += removed

	if !ds.Diagnostics.Clean() {
		p.logger.Warn("Recovered record anomalies while loading report data",
			zap.String("window", spec.Windows.Current.String()),
			zap.Int("unresolved_references", ds.Diagnostics.UnresolvedReferences),
			zap.Int("malformed_numerics", ds.Diagnostics.MalformedNumerics),
			zap.Int("unclassifiable_prices", ds.Diagnostics.UnclassifiablePrices),
			zap.Int("dropped", ds.Diagnostics.Dropped),
		)
	}
	return ds, nil
}

// inWindow narrows sales to those dated inside w. The feed is fetched by
// calendar month, so day bounds are applied here.
func inWindow(sales []sellout.NormalizedSale, w sellout.Window) []sellout.NormalizedSale {
	out := sales[:0]
	for _, s := range sales {
		if w.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out
}
