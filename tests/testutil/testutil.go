// Package testutil provides fixtures and HTTP helpers shared by the
// sell-out test suites.
package testutil

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sellout/backend/internal/domain/sellout"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Now is the fixed clock used by fixtures: mid-March 2024, UTC
var Now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

// Resolver returns a window resolver pinned to Now
func Resolver() *sellout.WindowResolver {
	return &sellout.WindowResolver{
		Location: time.UTC,
		Now:      func() time.Time { return Now },
	}
}

// References is a small catalogue: two Samsung models in different price
// bands, one Apple model, two dealers and a TSE reporting to an ASM
func References() sellout.ReferenceSnapshot {
	return sellout.ReferenceSnapshot{
		Products: []sellout.Product{
			{ID: "P1", Brand: "Samsung", Model: "Galaxy A55", Category: sellout.CategorySmartphone, Price: decimal.NewFromInt(20000)},
			{ID: "P2", Brand: "Samsung", Model: "Galaxy S24", Category: sellout.CategorySmartphone, Price: decimal.NewFromInt(80000)},
			{ID: "P3", Brand: "Apple", Model: "iPhone 15", Category: sellout.CategorySmartphone, Price: decimal.NewFromInt(79900)},
		},
		Dealers: []sellout.Dealer{
			{Code: "D1", ShopName: "Galaxy Corner", Type: "Retail"},
			{Code: "D2", ShopName: "Mobile Hub", Type: "Modern Trade"},
		},
		Employees: []sellout.Employee{
			{Code: "E1", Name: "Ravi", Role: sellout.RoleTSE, ManagerCode: "E2", Area: "North"},
			{Code: "E2", Name: "Meera", Role: sellout.RoleASM, Area: "North"},
		},
	}
}

// SalesLog has two March rows inside 2024-03-01..15, one on the last day
// of February and one after the fifteenth
func SalesLog() []sellout.InternalRecord {
	at := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 10, 0, 0, 0, time.UTC) }
	return []sellout.InternalRecord{
		{ProductID: "P1", DealerCode: "D1", Quantity: decimal.NewFromInt(2), TotalPrice: decimal.NewFromInt(40000), UploadedBy: "E1", CreatedAt: at(time.March, 5)},
		{ProductID: "P2", DealerCode: "D2", Quantity: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(80000), UploadedBy: "E1", CreatedAt: at(time.March, 12)},
		{ProductID: "P1", DealerCode: "D1", Quantity: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(20000), UploadedBy: "E1", CreatedAt: at(time.February, 29)},
		{ProductID: "P3", DealerCode: "D2", Quantity: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(79900), UploadedBy: "E1", CreatedAt: at(time.March, 18)},
	}
}

// Feed has one competitor row for March, one for February and one with a
// date the feed repositories cannot place in a month
func Feed() []sellout.ExternalRecord {
	return []sellout.ExternalRecord{
		{MarketName: "Apple", ModelCode: "IP15", BuyerCode: "D1", MTDValue: "1,59,800", MTDVolume: "2", SalesType: "Sell Out", Date: "3/10/2024", TSE: "Ravi", ASM: "Meera"},
		{MarketName: "Vivo", ModelCode: "V30", BuyerCode: "D2", MTDValue: "33999", MTDVolume: "1", SalesType: "Sell Out", Date: "02/20/2024", TSE: "Ravi", ASM: "Meera"},
		{MarketName: "Oppo", ModelCode: "F25", BuyerCode: "D2", MTDValue: "24999", MTDVolume: "1", SalesType: "Sell Out", Date: "yesterday"},
	}
}

// Repositories serves fixed tables through the sell-out repository
// interfaces
type Repositories struct {
	Snapshot sellout.ReferenceSnapshot
	Sales    []sellout.InternalRecord
	Rows     []sellout.ExternalRecord
	Err      error
}

// NewRepositories loads the package fixtures
func NewRepositories() *Repositories {
	return &Repositories{Snapshot: References(), Sales: SalesLog(), Rows: Feed()}
}

// FindInWindow implements sellout.SaleLogRepository
func (r *Repositories) FindInWindow(_ context.Context, w sellout.Window) ([]sellout.InternalRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	var out []sellout.InternalRecord
	for _, rec := range r.Sales {
		if w.Contains(rec.CreatedAt) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindForMonths implements sellout.DistributorFeedRepository. It returns
// every row and leaves date handling to the normalizer.
func (r *Repositories) FindForMonths(context.Context, sellout.Window) ([]sellout.ExternalRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Rows, nil
}

// ListProducts implements sellout.ReferenceRepository
func (r *Repositories) ListProducts(context.Context) ([]sellout.Product, error) {
	return r.Snapshot.Products, r.Err
}

// ListDealers implements sellout.ReferenceRepository
func (r *Repositories) ListDealers(context.Context) ([]sellout.Dealer, error) {
	return r.Snapshot.Dealers, r.Err
}

// ListEmployees implements sellout.ReferenceRepository
func (r *Repositories) ListEmployees(context.Context) ([]sellout.Employee, error) {
	return r.Snapshot.Employees, r.Err
}

var (
	_ sellout.SaleLogRepository         = (*Repositories)(nil)
	_ sellout.DistributorFeedRepository = (*Repositories)(nil)
	_ sellout.ReferenceRepository       = (*Repositories)(nil)
)
