package sellout

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesTypeSellOut marks a unit sold by a dealer to an end consumer
const SalesTypeSellOut = "Sell Out"

// Source identifies where a sale was recorded
type Source string

const (
	SourceInternal Source = "internal"
	SourceExternal Source = "external"
)

// InternalRecord is one line of the internally recorded extraction log
type InternalRecord struct {
	ID         string
	ProductID  string
	DealerCode string
	Quantity   decimal.Decimal
	TotalPrice decimal.Decimal
	UploadedBy string
	CreatedAt  time.Time
}

// ExternalRecord is one line of the distributor feed. Numeric and date
// columns arrive as text exactly as the distributor supplied them.
type ExternalRecord struct {
	ID         string
	MarketName string
	ModelCode  string
	BuyerCode  string
	MTDValue   string
	MTDVolume  string
	SalesType  string
	Date       string
	SegmentNew string
	Segment    string
	TSE        string
	ZSM        string
	Area       string
	ABM        string
	ASE        string
	ASM        string
	RSO        string
	Type       string
}

// NormalizedSale is the canonical sale shape both sources reduce to
type NormalizedSale struct {
	Source      Source
	Brand       string
	Model       string
	Category    Category
	Segment     Segment
	DealerCode  string
	SalesType   string
	Value       decimal.Decimal
	Volume      decimal.Decimal
	Date        time.Time
	Attribution Attribution
}

// Segmented reports whether the sale can be placed in a price band
func (s NormalizedSale) Segmented() bool {
	return s.Segment != "" && s.Segment != SegmentUnclassed
}

// Product is a catalog entry used to resolve internal records
type Product struct {
	ID       string
	Brand    string
	Model    string
	Category Category
	Price    decimal.Decimal
}

// Dealer is a known point of sale
type Dealer struct {
	Code     string
	ShopName string
	Type     string
}

// Employee is a member of the field force
type Employee struct {
	Code        string
	Name        string
	Role        Role
	ManagerCode string
	Area        string
}
