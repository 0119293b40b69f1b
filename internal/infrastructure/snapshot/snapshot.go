package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/shopspring/decimal"
)

// File names read from a snapshot directory. Each file is optional; a
// missing file loads as an empty table.
const (
	ProductsFile  = "products.csv"
	DealersFile   = "dealers.csv"
	EmployeesFile = "employees.csv"
	SalesLogFile  = "sales_logs.csv"
	FeedFile      = "distributor_feed.csv"
)

// Timestamp layouts accepted for sales log created_at
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Snapshot holds every table in memory and serves them through the
// repository interfaces the report pipeline reads from
type Snapshot struct {
	Products  []sellout.Product
	Dealers   []sellout.Dealer
	Employees []sellout.Employee
	SalesLog  []sellout.InternalRecord
	Feed      []sellout.ExternalRecord
}

var (
	_ sellout.SaleLogRepository         = (*Snapshot)(nil)
	_ sellout.DistributorFeedRepository = (*Snapshot)(nil)
	_ sellout.ReferenceRepository       = (*Snapshot)(nil)
)

// Load reads a snapshot directory
func Load(dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot %s is not a directory", dir)
	}

	s := &Snapshot{}
	loaders := []struct {
		file string
		load func(*Parser) error
	}{
		{ProductsFile, s.loadProducts},
		{DealersFile, s.loadDealers},
		{EmployeesFile, s.loadEmployees},
		{SalesLogFile, s.loadSalesLog},
		{FeedFile, s.loadFeed},
	}
	for _, l := range loaders {
		if err := loadFile(filepath.Join(dir, l.file), l.load); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func loadFile(path string, load func(*Parser) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := NewParser(f)
	if errors.Is(err, ErrEmptyFile) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := load(p); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func readRows(p *Parser, file string, required ...string) ([]*Row, error) {
	if missing := p.Missing(required...); len(missing) > 0 {
		return nil, &MissingColumnsError{File: file, Columns: missing}
	}
	return p.ReadAll()
}

func parseDecimal(row *Row, column string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(row.Get(column), ",", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("row %d: invalid %s %q", row.LineNumber, column, row.Get(column))
	}
	return d, nil
}

func (s *Snapshot) loadProducts(p *Parser) error {
	rows, err := readRows(p, ProductsFile, "id", "brand", "model")
	if err != nil {
		return err
	}
	for _, row := range rows {
		price, err := parseDecimal(row, "price")
		if err != nil {
			return err
		}
		s.Products = append(s.Products, sellout.Product{
			ID:       row.Get("id"),
			Brand:    row.Get("brand"),
			Model:    row.Get("model"),
			Category: sellout.ParseCategory(row.Get("category")),
			Price:    price,
		})
	}
	return nil
}

func (s *Snapshot) loadDealers(p *Parser) error {
	rows, err := readRows(p, DealersFile, "code")
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.Dealers = append(s.Dealers, sellout.Dealer{
			Code:     row.Get("code"),
			ShopName: row.Get("shop_name"),
			Type:     row.Get("type"),
		})
	}
	return nil
}

func (s *Snapshot) loadEmployees(p *Parser) error {
	rows, err := readRows(p, EmployeesFile, "code", "name", "role")
	if err != nil {
		return err
	}
	for _, row := range rows {
		role, ok := sellout.ParseRole(row.Get("role"))
		if !ok {
			return fmt.Errorf("row %d: unknown role %q", row.LineNumber, row.Get("role"))
		}
		s.Employees = append(s.Employees, sellout.Employee{
			Code:        row.Get("code"),
			Name:        row.Get("name"),
			Role:        role,
			ManagerCode: row.Get("manager_code"),
			Area:        row.Get("area"),
		})
	}
	return nil
}

func (s *Snapshot) loadSalesLog(p *Parser) error {
	rows, err := readRows(p, SalesLogFile, "product_id", "dealer_code", "quantity", "total_price", "created_at")
	if err != nil {
		return err
	}
	for _, row := range rows {
		qty, err := parseDecimal(row, "quantity")
		if err != nil {
			return err
		}
		total, err := parseDecimal(row, "total_price")
		if err != nil {
			return err
		}
		createdAt, err := parseCreatedAt(row.Get("created_at"))
		if err != nil {
			return fmt.Errorf("row %d: %w", row.LineNumber, err)
		}
		id := row.Get("id")
		if id == "" {
			id = strconv.Itoa(row.LineNumber)
		}
		s.SalesLog = append(s.SalesLog, sellout.InternalRecord{
			ID:         id,
			ProductID:  row.Get("product_id"),
			DealerCode: row.Get("dealer_code"),
			Quantity:   qty,
			TotalPrice: total,
			UploadedBy: row.Get("uploaded_by"),
			CreatedAt:  createdAt,
		})
	}
	return nil
}

func parseCreatedAt(raw string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", raw)
}

// loadFeed keeps feed values as text; the normalizer parses them
func (s *Snapshot) loadFeed(p *Parser) error {
	rows, err := readRows(p, FeedFile, "model_code", "buyer_code", "mtd_value", "date")
	if err != nil {
		return err
	}
	for _, row := range rows {
		id := row.Get("id")
		if id == "" {
			id = strconv.Itoa(row.LineNumber)
		}
		s.Feed = append(s.Feed, sellout.ExternalRecord{
			ID:         id,
			MarketName: row.Get("market_name"),
			ModelCode:  row.Get("model_code"),
			BuyerCode:  row.Get("buyer_code"),
			MTDValue:   row.Get("mtd_value"),
			MTDVolume:  row.Get("mtd_volume"),
			SalesType:  row.Get("sales_type"),
			Date:       row.Get("date"),
			SegmentNew: row.Get("segment_new"),
			Segment:    row.Get("segment"),
			TSE:        row.Get("tse"),
			ZSM:        row.Get("zsm"),
			Area:       row.Get("area"),
			ABM:        row.Get("abm"),
			ASE:        row.Get("ase"),
			ASM:        row.Get("asm"),
			RSO:        row.Get("rso"),
			Type:       row.Get("type"),
		})
	}
	return nil
}

// FindInWindow returns sales log rows created inside w
func (s *Snapshot) FindInWindow(_ context.Context, w sellout.Window) ([]sellout.InternalRecord, error) {
	var out []sellout.InternalRecord
	for _, r := range s.SalesLog {
		if w.Contains(r.CreatedAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindForMonths returns feed rows whose M/D/YYYY date falls in a month w
// touches. Rows with an unreadable month or year are not selected.
func (s *Snapshot) FindForMonths(_ context.Context, w sellout.Window) ([]sellout.ExternalRecord, error) {
	months := make(map[[2]int]struct{})
	for _, m := range w.Months() {
		months[[2]int{m.Year(), int(m.Month())}] = struct{}{}
	}

	var out []sellout.ExternalRecord
	for _, r := range s.Feed {
		parts := strings.Split(strings.TrimSpace(r.Date), "/")
		if len(parts) != 3 {
			continue
		}
		month, errM := strconv.Atoi(parts[0])
		year, errY := strconv.Atoi(parts[2])
		if errM != nil || errY != nil {
			continue
		}
		if _, ok := months[[2]int{year, month}]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListProducts returns the product table
func (s *Snapshot) ListProducts(context.Context) ([]sellout.Product, error) {
	return s.Products, nil
}

// ListDealers returns the dealer table
func (s *Snapshot) ListDealers(context.Context) ([]sellout.Dealer, error) {
	return s.Dealers, nil
}

// ListEmployees returns the employee table
func (s *Snapshot) ListEmployees(context.Context) ([]sellout.Employee, error) {
	return s.Employees, nil
}
