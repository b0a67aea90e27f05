package repository

import (
	"context"

	"github.com/sifan077/graby/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickLogVisitor receives each stored click log. err is non-nil when the row
// could not be decoded; log is nil in that case.
type ClickLogVisitor func(log *model.ClickLog, err error)

// ClickLogRepository defines the data access contract for click logs.
type ClickLogRepository interface {
	Create(ctx context.Context, log *model.ClickLog) error
	ForEachByUser(ctx context.Context, userID string, visit ClickLogVisitor) error
}

type clickLogRepository struct {
	db *gorm.DB
}

// NewClickLogRepository returns a GORM-backed ClickLogRepository.
func NewClickLogRepository(db *gorm.DB) ClickLogRepository {
	return &clickLogRepository{db: db}
}

// Create ignores a log whose id is already stored, so redelivered messages
// are written once.
func (r *clickLogRepository) Create(ctx context.Context, log *model.ClickLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(log).Error
}

// ForEachByUser streams rows through a cursor instead of loading them all.
func (r *clickLogRepository) ForEachByUser(ctx context.Context, userID string, visit ClickLogVisitor) error {
	rows, err := r.db.WithContext(ctx).
		Model(&model.ClickLog{}).
		Where("user_id = ?", userID).
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var log model.ClickLog
		if err := r.db.ScanRows(rows, &log); err != nil {
			visit(nil, err)
			continue
		}
		visit(&log, nil)
	}
	return rows.Err()
}
