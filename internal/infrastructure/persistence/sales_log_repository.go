package persistence

import (
	"context"
	"fmt"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleLogRepository implements sellout.SaleLogRepository using GORM
type GormSaleLogRepository struct {
	db *gorm.DB
}

// NewGormSaleLogRepository creates a new GormSaleLogRepository
func NewGormSaleLogRepository(db *gorm.DB) *GormSaleLogRepository {
	return &GormSaleLogRepository{db: db}
}

// FindInWindow returns the sales log rows created inside w, oldest first
func (r *GormSaleLogRepository) FindInWindow(ctx context.Context, w sellout.Window) ([]sellout.InternalRecord, error) {
	var rows []models.SalesLogModel
	if err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", w.Start, w.End).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query sales_logs %s: %w", w, err)
	}

	records := make([]sellout.InternalRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

var _ sellout.SaleLogRepository = (*GormSaleLogRepository)(nil)
