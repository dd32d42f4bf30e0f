package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/gym-management/internal/audit"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

// Repository only ever inserts and reads; audit rows are never updated.
type Repository struct {
	db *gorm.DB
}

// NewRepository accepts either the root handle or an open transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, entry *auditmodel.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) List(ctx context.Context, filter audit.Filter) ([]auditmodel.Entry, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(ctx))
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID > 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}

	var entries []auditmodel.Entry
	if err := q.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
