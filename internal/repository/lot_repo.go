package repository

import (
	"context"
	"time"

	"knitmes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotRepository defines the data access contract for production lots.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type LotRepository interface {
	Create(ctx context.Context, lot *model.Lot) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Lot, error)
	FindByAllotmentID(ctx context.Context, allotmentID string) (*model.Lot, error)
	List(ctx context.Context, from, to *time.Time, status *model.LotStatus, page, limit int) ([]model.Lot, int64, error)
	Update(ctx context.Context, lot *model.Lot) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.LotStatus) error
}

type lotRepo struct{ db *gorm.DB }

func NewLotRepository(db *gorm.DB) LotRepository { return &lotRepo{db: db} }

func (r *lotRepo) Create(ctx context.Context, lot *model.Lot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *lotRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Lot, error) {
	var lot model.Lot
	err := r.db.WithContext(ctx).
		Preload("Machines.Assignments.Barcodes").
		First(&lot, id).Error
	return &lot, err
}

func (r *lotRepo) FindByAllotmentID(ctx context.Context, allotmentID string) (*model.Lot, error) {
	var lot model.Lot
	err := r.db.WithContext(ctx).
		Preload("Machines.Assignments.Barcodes").
		Where("allotment_id = ?", allotmentID).
		First(&lot).Error
	return &lot, err
}

func (r *lotRepo) List(ctx context.Context, from, to *time.Time, status *model.LotStatus, page, limit int) ([]model.Lot, int64, error) {
	var lots []model.Lot
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Lot{})
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Preload("Machines.Assignments").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&lots).Error
	return lots, total, err
}

func (r *lotRepo) Update(ctx context.Context, lot *model.Lot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

func (r *lotRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LotStatus) error {
	return r.db.WithContext(ctx).Model(&model.Lot{}).
		Where("id = ?", id).Update("status", status).Error
}
