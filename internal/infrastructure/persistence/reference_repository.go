package persistence

import (
	"context"
	"fmt"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReferenceRepository implements sellout.ReferenceRepository using GORM
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GormReferenceRepository
func NewGormReferenceRepository(db *gorm.DB) *GormReferenceRepository {
	return &GormReferenceRepository{db: db}
}

// ListProducts returns the whole catalog
func (r *GormReferenceRepository) ListProducts(ctx context.Context) ([]sellout.Product, error) {
	var rows []models.CatalogProductModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	out := make([]sellout.Product, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ListDealers returns every dealer ordered by code. Dealer reports seed
// their rows in this order.
func (r *GormReferenceRepository) ListDealers(ctx context.Context) ([]sellout.Dealer, error) {
	var rows []models.DealerModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query dealers: %w", err)
	}
	out := make([]sellout.Dealer, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ListEmployees returns the field force
func (r *GormReferenceRepository) ListEmployees(ctx context.Context) ([]sellout.Employee, error) {
	var rows []models.EmployeeModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	out := make([]sellout.Employee, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ sellout.ReferenceRepository = (*GormReferenceRepository)(nil)
