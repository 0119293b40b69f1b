package sellout

import "context"

// SaleLogRepository reads the internal extraction log
type SaleLogRepository interface {
	// FindInWindow returns every record whose timestamp falls within w
	FindInWindow(ctx context.Context, w Window) ([]InternalRecord, error)
}

// DistributorFeedRepository reads the external distributor feed
type DistributorFeedRepository interface {
	// FindForMonths returns feed rows dated in any calendar month that w touches.
	// Rows are not filtered by day; callers narrow them after parsing the date.
	FindForMonths(ctx context.Context, w Window) ([]ExternalRecord, error)
}

// ReferenceRepository reads the reference tables used to resolve records
type ReferenceRepository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListDealers(ctx context.Context) ([]Dealer, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}
