package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/shopspring/decimal"
)

// SalesLogModel is one row of the internal sales extraction log
type SalesLogModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID  string          `gorm:"type:varchar(64);not null"`
	DealerCode string          `gorm:"type:varchar(64);not null;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UploadedBy string          `gorm:"type:varchar(64)"`
	CreatedAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SalesLogModel) TableName() string {
	return "sales_logs"
}

// ToDomain converts the row to an InternalRecord
func (m *SalesLogModel) ToDomain() sellout.InternalRecord {
	return sellout.InternalRecord{
		ID:         m.ID.String(),
		ProductID:  m.ProductID,
		DealerCode: m.DealerCode,
		Quantity:   m.Quantity,
		TotalPrice: m.TotalPrice,
		UploadedBy: m.UploadedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// DistributorFeedModel is one line of the distributor feed as delivered.
// Every column is text; parsing happens during normalization.
type DistributorFeedModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	MarketName string `gorm:"type:text"`
	ModelCode  string `gorm:"type:text"`
	BuyerCode  string `gorm:"type:text;index"`
	MTDValue   string `gorm:"column:mtd_value;type:text"`
	MTDVolume  string `gorm:"column:mtd_volume;type:text"`
	SalesType  string `gorm:"type:text"`
	Date       string `gorm:"type:text;index"`
	SegmentNew string `gorm:"type:text"`
	Segment    string `gorm:"type:text"`
	TSE        string `gorm:"column:tse;type:text"`
	ZSM        string `gorm:"column:zsm;type:text"`
	Area       string `gorm:"type:text"`
	ABM        string `gorm:"column:abm;type:text"`
	ASE        string `gorm:"column:ase;type:text"`
	ASM        string `gorm:"column:asm;type:text"`
	RSO        string `gorm:"column:rso;type:text"`
	Type       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DistributorFeedModel) TableName() string {
	return "distributor_feed"
}

// ToDomain converts the row to an ExternalRecord
func (m *DistributorFeedModel) ToDomain() sellout.ExternalRecord {
	return sellout.ExternalRecord{
		ID:         strconv.FormatInt(m.ID, 10),
		MarketName: m.MarketName,
		ModelCode:  m.ModelCode,
		BuyerCode:  m.BuyerCode,
		MTDValue:   m.MTDValue,
		MTDVolume:  m.MTDVolume,
		SalesType:  m.SalesType,
		Date:       m.Date,
		SegmentNew: m.SegmentNew,
		Segment:    m.Segment,
		TSE:        m.TSE,
		ZSM:        m.ZSM,
		Area:       m.Area,
		ABM:        m.ABM,
		ASE:        m.ASE,
		ASM:        m.ASM,
		RSO:        m.RSO,
		Type:       m.Type,
	}
}

// CatalogProductModel is a product in the reference catalog
type CatalogProductModel struct {
	ID       string          `gorm:"type:varchar(64);primaryKey"`
	Brand    string          `gorm:"type:varchar(100);not null;index"`
	Model    string          `gorm:"type:varchar(200);not null"`
	Category string          `gorm:"type:varchar(32);not null;default:'smartphone'"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a Product
func (m *CatalogProductModel) ToDomain() sellout.Product {
	return sellout.Product{
		ID:       m.ID,
		Brand:    m.Brand,
		Model:    m.Model,
		Category: sellout.ParseCategory(m.Category),
		Price:    m.Price,
	}
}

// DealerModel is a point of sale
type DealerModel struct {
	Code     string `gorm:"type:varchar(64);primaryKey"`
	ShopName string `gorm:"type:varchar(200)"`
	Type     string `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (DealerModel) TableName() string {
	return "dealers"
}

// ToDomain converts the row to a Dealer
func (m *DealerModel) ToDomain() sellout.Dealer {
	return sellout.Dealer{Code: m.Code, ShopName: m.ShopName, Type: m.Type}
}

// EmployeeModel is a member of the field force. Role is stored by name.
type EmployeeModel struct {
	Code        string `gorm:"type:varchar(64);primaryKey"`
	Name        string `gorm:"type:varchar(200);not null"`
	Role        string `gorm:"type:varchar(16);not null"`
	ManagerCode string `gorm:"type:varchar(64);index"`
	Area        string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the row to an Employee. An unrecognised role maps to
// the zero Role, which never matches a grouping.
func (m *EmployeeModel) ToDomain() sellout.Employee {
	role, _ := sellout.ParseRole(m.Role)
	return sellout.Employee{
		Code:        m.Code,
		Name:        m.Name,
		Role:        role,
		ManagerCode: m.ManagerCode,
		Area:        m.Area,
	}
}
