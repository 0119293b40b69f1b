package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDistributorFeedRepository implements sellout.DistributorFeedRepository using GORM
type GormDistributorFeedRepository struct {
	db *gorm.DB
}

// NewGormDistributorFeedRepository creates a new GormDistributorFeedRepository
func NewGormDistributorFeedRepository(db *gorm.DB) *GormDistributorFeedRepository {
	return &GormDistributorFeedRepository{db: db}
}

// FindForMonths returns the feed rows dated in any month w touches. Feed
// dates are M/D/YYYY text, so months are matched by pattern with and
// without a leading zero.
func (r *GormDistributorFeedRepository) FindForMonths(ctx context.Context, w sellout.Window) ([]sellout.ExternalRecord, error) {
	months := w.Months()
	if len(months) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(months)*2)
	args := make([]any, 0, len(months)*2)
	for _, m := range months {
		clauses = append(clauses, "date LIKE ?", "date LIKE ?")
		args = append(args,
			fmt.Sprintf("%d/%%/%d", int(m.Month()), m.Year()),
			fmt.Sprintf("%02d/%%/%d", int(m.Month()), m.Year()),
		)
	}

	var rows []models.DistributorFeedModel
	if err := r.db.WithContext(ctx).
		Where("("+strings.Join(clauses, " OR ")+")", args...).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query distributor_feed %s: %w", w, err)
	}

	records := make([]sellout.ExternalRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

var _ sellout.DistributorFeedRepository = (*GormDistributorFeedRepository)(nil)
