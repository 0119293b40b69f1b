package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSalesLog struct {
	records []sellout.InternalRecord
	err     error
	windows []sellout.Window
}

func (f *fakeSalesLog) FindInWindow(_ context.Context, w sellout.Window) ([]sellout.InternalRecord, error) {
	f.windows = append(f.windows, w)
	if f.err != nil {
		return nil, f.err
	}
	var out []sellout.InternalRecord
	for _, r := range f.records {
		if w.Contains(r.CreatedAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFeed struct {
	records []sellout.ExternalRecord
	err     error
	calls   int
}

func (f *fakeFeed) FindForMonths(context.Context, sellout.Window) ([]sellout.ExternalRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeReferences struct {
	snapshot sellout.ReferenceSnapshot
	err      error
	calls    int
}

func (f *fakeReferences) ListProducts(context.Context) ([]sellout.Product, error) {
	f.calls++
	return f.snapshot.Products, f.err
}

func (f *fakeReferences) ListDealers(context.Context) ([]sellout.Dealer, error) {
	return f.snapshot.Dealers, nil
}

func (f *fakeReferences) ListEmployees(context.Context) ([]sellout.Employee, error) {
	return f.snapshot.Employees, nil
}

type fakeArchive struct {
	uploads map[string][]byte
}

func (f *fakeArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeArchive) GenerateDownloadURL(_ context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	return "https://files.test/" + key, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).Add(ttl), nil
}

type recordedReport struct {
	reportType string
	rows       int
	err        error
}

type fakeRecorder struct {
	reports []recordedReport
}

func (f *fakeRecorder) RecordReport(_ context.Context, reportType string, _ time.Duration, rows int, _ sellout.Diagnostics, err error) {
	f.reports = append(f.reports, recordedReport{reportType, rows, err})
}

func march(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func fixture() (*fakeSalesLog, *fakeFeed, *fakeReferences) {
	refs := &fakeReferences{snapshot: sellout.ReferenceSnapshot{
		Products: []sellout.Product{
			{ID: "P1", Brand: "Samsung", Model: "Galaxy A55"},
			{ID: "P2", Brand: "Apple", Model: "iPhone 15"},
			{ID: "P3", Brand: "Xiaomi", Model: "Redmi 13"},
		},
		Dealers: []sellout.Dealer{
			{Code: "D1", ShopName: "Galaxy Corner", Type: "Retail"},
			{Code: "D2", ShopName: "Mobile Hub, Central", Type: "Retail"},
			{Code: "D3", ShopName: "Quiet Store", Type: "Modern Trade"},
		},
		Employees: []sellout.Employee{
			{Code: "E1", Name: "Ravi", Role: sellout.RoleTSE, ManagerCode: "E2", Area: "North"},
			{Code: "E2", Name: "Meera", Role: sellout.RoleASM, Area: "North"},
			{Code: "E3", Name: "Anil", Role: sellout.RoleTSE, ManagerCode: "E2", Area: "North"},
		},
	}}

	rec := func(id, product, dealer string, qty, price int64, by string, at time.Time) sellout.InternalRecord {
		return sellout.InternalRecord{
			ID: id, ProductID: product, DealerCode: dealer,
			Quantity: decimal.NewFromInt(qty), TotalPrice: decimal.NewFromInt(price),
			UploadedBy: by, CreatedAt: at,
		}
	}
	salesLog := &fakeSalesLog{records: []sellout.InternalRecord{
		rec("1", "P1", "D1", 2, 20000, "E1", march(5, 10)),
		rec("2", "P1", "D1", 1, 5000, "E1", march(10, 10)),
		rec("3", "P2", "D2", 1, 80000, "E3", march(15, 12)),
		rec("4", "P3", "D2", 2, 24000, "E3", march(15, 18)),
		rec("5", "P1", "D2", 1, 25000, "E1", march(12, 9)),
	}}

	feed := &fakeFeed{records: []sellout.ExternalRecord{
		{ID: "f1", ModelCode: "SM-A556", BuyerCode: "D1", MTDValue: "30,000", MTDVolume: "2", Date: "2/10/2024", SegmentNew: "15-20k", TSE: "Ravi"},
		{ID: "f2", ModelCode: "SM-S921", BuyerCode: "D2", MTDValue: "70000", MTDVolume: "1", Date: "2/14/2024", Segment: "70-100k", TSE: "Anil"},
		{ID: "f3", ModelCode: "SM-A156", BuyerCode: "D2", MTDValue: "12000", MTDVolume: "", Date: "2/20/2024", TSE: "Anil"},
		{ID: "f4", ModelCode: "SM-A156", BuyerCode: "D3", MTDValue: "50000", MTDVolume: "5", Date: "2/28/2024", TSE: "Ravi"},
	}}
	return salesLog, feed, refs
}

func newTestService(salesLog *fakeSalesLog, feed *fakeFeed, refs *fakeReferences, opts ...SelloutServiceOption) *SelloutService {
	loader := NewReferenceLoader(refs, nil, 0, nil)
	pipeline := NewPipeline(salesLog, feed, loader, "Samsung", nil)
	resolver := &sellout.WindowResolver{Location: time.UTC, Now: func() time.Time { return march(20, 12) }}
	return NewSelloutService(pipeline, resolver, opts...)
}

func marchRequest(reportType string) Request {
	start, end := march(1, 0), march(15, 0)
	return Request{Type: reportType, StartDate: &start, EndDate: &end}
}

func rowStrings(rep Report) [][]string {
	out := make([][]string, len(rep.Data))
	for i, r := range rep.Data {
		out[i] = r.Strings()
	}
	return out
}

func TestGenerate_DealerSegment(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	res, err := svc.Generate(context.Background(), marchRequest(TypeDealerSegment))
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, []string{"Dealer Code", "Shop Name",
		"100k+", "70-100k", "40-70k", "30-40k", "20-30k", "15-20k", "10-15k", "<10k", "Total"}, rep.Columns)
	require.Len(t, rep.Data, 4)

	rows := rowStrings(rep)
	assert.Equal(t, []string{"D1", "Galaxy Corner", "0", "0", "0", "0", "0", "0", "20000", "5000", "25000"}, rows[0])
	assert.Equal(t, []string{"D2", "Mobile Hub, Central", "0", "80000", "0", "0", "25000", "0", "24000", "0", "129000"}, rows[1])
	assert.Equal(t, []string{"D3", "Quiet Store", "0", "0", "0", "0", "0", "0", "0", "0", "0"}, rows[2])
	assert.Equal(t, []string{"Total", "", "0", "80000", "0", "0", "25000", "0", "44000", "5000", "154000"}, rows[3])

	assert.Zero(t, feed.calls)
	assert.Equal(t, "2024-03-01..2024-03-15", res.Windows.Current.String())
	assert.False(t, rep.Empty)
}

func TestGenerate_DealerSegmentUnknownDealer(t *testing.T) {
	salesLog, feed, refs := fixture()
	salesLog.records = append(salesLog.records, sellout.InternalRecord{
		ID: "6", ProductID: "P1", DealerCode: "D9",
		Quantity: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(30000),
		UploadedBy: "E1", CreatedAt: march(6, 10),
	})
	svc := newTestService(salesLog, feed, refs)

	res, err := svc.Generate(context.Background(), marchRequest(TypeDealerSegment))
	require.NoError(t, err)

	rows := rowStrings(res.Report)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"N/A", "N/A", "0", "0", "0", "30000", "0", "0", "0", "0", "30000"}, rows[3])
	assert.Equal(t, []string{"Total", "", "0", "80000", "0", "30000", "25000", "0", "44000", "5000", "184000"}, rows[4])
	assert.Equal(t, 1, res.Diagnostics.UnresolvedReferences)
}

func TestGenerate_DealerSegmentShares(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	req := marchRequest(TypeDealerSegment)
	req.ShowShare = true
	res, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	rows := rowStrings(res.Report)
	assert.Equal(t, "80.00 %", rows[0][8])
	assert.Equal(t, "20.00 %", rows[0][9])
	assert.Equal(t, "25000", rows[0][10])
	// zero rows keep raw values
	assert.Equal(t, "0", rows[2][8])
}

func TestGenerate_PriceBand(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	res, err := svc.Generate(context.Background(), marchRequest(TypePriceBand))
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, []string{"Segment", "Samsung", "Apple", "Xiaomi", RankColumn}, rep.Columns)
	rows := rowStrings(rep)
	require.Len(t, rows, 10)

	assert.Equal(t, []string{"Total", "50000", "80000", "24000", "2"}, rows[0])
	assert.Equal(t, []string{"100k+", "0", "0", "0", "1"}, rows[1])
	assert.Equal(t, []string{"70-100k", "0", "80000", "0", "2"}, rows[2])
	assert.Equal(t, []string{"20-30k", "25000", "0", "0", "1"}, rows[5])
	assert.Equal(t, []string{"10-15k", "0", "0", "24000", "2"}, rows[7])
	assert.Equal(t, []string{"6-10k", "20000", "0", "0", "1"}, rows[8])
	assert.Equal(t, []string{"<6k", "5000", "0", "0", "1"}, rows[9])
}

func TestGenerate_RoleWise(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	res, err := svc.Generate(context.Background(), marchRequest(TypeRoleWise))
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01..2024-02-15", res.Windows.Comparison.String())
	assert.Equal(t, 1, feed.calls)

	rep := res.Report
	assert.Equal(t, []string{"TSE", "MTD", "LMTD", "FTD", "Growth %"}, rep.Columns)
	rows := rowStrings(rep)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Ravi", "50000", "30000", "0", "66.67 %"}, rows[0])
	assert.Equal(t, []string{"Anil", "104000", "70000", "104000", "48.57 %"}, rows[1])
	assert.Equal(t, []string{"Total", "154000", "100000", "104000", "54.00 %"}, rows[2])

	// f3 carries no volume, so it cannot be priced
	assert.Equal(t, 1, res.Diagnostics.UnclassifiablePrices)
}

func TestGenerate_RoleWiseCalendarComparison(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	req := marchRequest(TypeRoleWise)
	req.Comparison = sellout.ComparisonPreviousCalendarMonth
	req.Role = sellout.RoleASM
	res, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01..2024-02-29", res.Windows.Comparison.String())
	rows := rowStrings(res.Report)
	assert.Equal(t, "ASM", res.Report.Columns[0])
	assert.Equal(t, []string{"Meera", "154000", "0", "104000", "N/A"}, rows[0])
	assert.Equal(t, []string{"N/A", "0", "162000", "0", "-100.00 %"}, rows[1])
}

func TestGenerate_SegmentDetail(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	req := marchRequest(TypeSegmentDetail)
	req.Limit = 2
	res, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01..2024-02-29", res.Windows.Comparison.String())

	rep := res.Report
	assert.Equal(t, 4, rep.TotalRecords)
	assert.Equal(t, 1, rep.Page)
	require.Len(t, rep.Data, 3)
	rows := rowStrings(rep)
	assert.Equal(t, []string{"D1", "Galaxy Corner", "Samsung"}, rows[0][:3])
	assert.Equal(t, []string{"D2", "Mobile Hub, Central", "Apple"}, rows[1][:3])
	assert.Equal(t, "154000", rows[2][len(rows[2])-1])

	require.NotNil(t, res.Summary)
	summary := rowStrings(*res.Summary)
	assert.Equal(t, []string{"Segment", "MTD", "LMTD", "Growth %"}, res.Summary.Columns)
	require.Len(t, summary, 9)
	assert.Equal(t, []string{"70-100k", "80000", "70000", "14.29 %"}, summary[1])
	assert.Equal(t, []string{"10-15k", "44000", "50000", "-12.00 %"}, summary[6])
	assert.Equal(t, []string{"20-30k", "25000", "0", "N/A"}, summary[4])
	assert.Equal(t, []string{"Total", "154000", "150000", "2.67 %"}, summary[8])
}

func TestGenerate_BrandShare(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	req := marchRequest(TypeBrandShare)
	req.ShowShare = true
	res, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, []string{"Dealer Code", "Shop Name", "Samsung", "Apple", "Xiaomi", RankColumn}, rep.Columns)
	rows := rowStrings(rep)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"D1", "Galaxy Corner", "16.23 %", "0.00 %", "0.00 %", "1"}, rows[0])
	assert.Equal(t, []string{"Total", "", "32.47 %", "51.95 %", "15.58 %", "2"}, rows[2])
}

func TestGenerate_FiltersAndEmpty(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	req := marchRequest(TypeBrandShare)
	req.Filter = sellout.NewSaleFilter(map[sellout.Dimension][]string{sellout.DimBrand: {"Nokia"}})
	res, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Report.Empty)
	assert.Equal(t, 5, res.Diagnostics.Filtered)

	req = marchRequest(TypeDealerSegment)
	req.Filter = sellout.NewSaleFilter(map[sellout.Dimension][]string{sellout.DimDealer: {"d3"}})
	res, err = svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Report.Empty)
	require.Len(t, res.Report.Data, 2)
	assert.Equal(t, "D3", res.Report.Data[0].Strings()[0])
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown report type", func(t *testing.T) {
		salesLog, feed, refs := fixture()
		_, err := newTestService(salesLog, feed, refs).Generate(ctx, Request{Type: "pie"})
		assert.ErrorIs(t, err, sellout.ErrUnknownReport)
	})

	t.Run("start after end", func(t *testing.T) {
		salesLog, feed, refs := fixture()
		req := marchRequest(TypeDealerSegment)
		req.StartDate, req.EndDate = req.EndDate, req.StartDate
		_, err := newTestService(salesLog, feed, refs).Generate(ctx, req)
		assert.ErrorIs(t, err, sellout.ErrInvalidRange)
		assert.Empty(t, salesLog.windows)
	})

	t.Run("reference store unavailable", func(t *testing.T) {
		salesLog, feed, refs := fixture()
		refs.err = errors.New("connection refused")
		recorder := &fakeRecorder{}
		_, err := newTestService(salesLog, feed, refs, WithRecorder(recorder)).Generate(ctx, marchRequest(TypeDealerSegment))
		assert.ErrorIs(t, err, sellout.ErrReferenceUnavailable)
		require.Len(t, recorder.reports, 1)
		assert.Error(t, recorder.reports[0].err)
	})

	t.Run("sales log failure", func(t *testing.T) {
		salesLog, feed, refs := fixture()
		salesLog.err = errors.New("timeout")
		_, err := newTestService(salesLog, feed, refs).Generate(ctx, marchRequest(TypeDealerSegment))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch sales log")
	})

	t.Run("malformed feed date aborts", func(t *testing.T) {
		salesLog, feed, refs := fixture()
		feed.records = append(feed.records, sellout.ExternalRecord{ID: "bad", BuyerCode: "D1", Date: "Feb 30"})
		_, err := newTestService(salesLog, feed, refs).Generate(ctx, marchRequest(TypeRoleWise))
		assert.ErrorIs(t, err, sellout.ErrMalformedRecord)
	})
}

func TestGenerate_Idempotent(t *testing.T) {
	salesLog, feed, refs := fixture()
	svc := newTestService(salesLog, feed, refs)

	for _, reportType := range svc.Types() {
		req := marchRequest(reportType)
		req.ShowShare = true
		first, err := svc.Generate(context.Background(), req)
		require.NoError(t, err)
		second, err := svc.Generate(context.Background(), req)
		require.NoError(t, err)

		a, err := json.Marshal(first.Report)
		require.NoError(t, err)
		b, err := json.Marshal(second.Report)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), reportType)
	}
}

func TestExport(t *testing.T) {
	salesLog, feed, refs := fixture()
	archive := &fakeArchive{}
	svc := newTestService(salesLog, feed, refs, WithArchive(archive, time.Hour))

	res, err := svc.Export(context.Background(), marchRequest(TypeDealerSegment))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.StorageKey, "reports/dealer-segment/"))
	assert.True(t, strings.HasSuffix(res.StorageKey, ".csv"))
	assert.Equal(t, "https://files.test/"+res.StorageKey, res.DownloadURL)
	assert.Equal(t, 3, res.Rows)

	body := string(archive.uploads[res.StorageKey])
	assert.Equal(t, res.Bytes, len(body))
	assert.Contains(t, body, "D2,Mobile Hub Central,")
	assert.True(t, strings.HasPrefix(body, "Dealer Code,Shop Name,100k+"))
}

func TestExport_IgnoresPagination(t *testing.T) {
	const dealers = 150
	refs := &fakeReferences{snapshot: sellout.ReferenceSnapshot{
		Products:  []sellout.Product{{ID: "P1", Brand: "Samsung", Model: "Galaxy A55"}},
		Employees: []sellout.Employee{{Code: "E1", Name: "Ravi", Role: sellout.RoleTSE}},
	}}
	salesLog := &fakeSalesLog{}
	for i := 0; i < dealers; i++ {
		code := fmt.Sprintf("D%03d", i)
		refs.snapshot.Dealers = append(refs.snapshot.Dealers, sellout.Dealer{Code: code, ShopName: "Shop " + code})
		salesLog.records = append(salesLog.records, sellout.InternalRecord{
			ID: code, ProductID: "P1", DealerCode: code,
			Quantity: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(25000),
			UploadedBy: "E1", CreatedAt: march(5, 10),
		})
	}
	archive := &fakeArchive{}
	svc := newTestService(salesLog, &fakeFeed{}, refs, WithArchive(archive, time.Hour))

	req := marchRequest(TypeSegmentDetail)
	req.Page, req.Limit = 2, 10
	res, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, dealers, res.Rows)

	lines := strings.Split(strings.TrimRight(string(archive.uploads[res.StorageKey]), "\n"), "\n")
	// header, one row per dealer, totals
	assert.Len(t, lines, dealers+2)
	assert.True(t, strings.HasPrefix(lines[0], "Dealer Code,Shop Name,Brand,"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "D000,"), lines[1])

	page, err := svc.Generate(context.Background(), marchRequest(TypeSegmentDetail))
	require.NoError(t, err)
	assert.Equal(t, dealers, page.Report.TotalRecords)
	assert.Len(t, page.Report.Data, 101)
}

func TestExport_NotConfigured(t *testing.T) {
	salesLog, feed, refs := fixture()
	_, err := newTestService(salesLog, feed, refs).Export(context.Background(), marchRequest(TypeDealerSegment))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
