package repository

import (
	"context"

	"knitmes/internal/model"

	"gorm.io/gorm"
)

type ShiftRepository interface {
	List(ctx context.Context) ([]model.Shift, error)
	FindByCode(ctx context.Context, code string) (*model.Shift, error)
	Create(ctx context.Context, s *model.Shift) error
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) List(ctx context.Context) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("active = true").
		Order("code ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) FindByCode(ctx context.Context, code string) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&s).Error
	return &s, err
}

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}
