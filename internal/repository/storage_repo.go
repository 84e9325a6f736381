package repository

import (
	"context"

	"knitmes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationRepository lists and resolves warehouse locations.
type LocationRepository interface {
	List(ctx context.Context) ([]model.Location, error)
	FindByCode(ctx context.Context, code string) (*model.Location, error)
	Create(ctx context.Context, l *model.Location) error
}

type locationRepo struct{ db *gorm.DB }

func NewLocationRepository(db *gorm.DB) LocationRepository { return &locationRepo{db: db} }

func (r *locationRepo) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).
		Where("active = true").
		Order("location_code ASC").
		Find(&locations).Error
	return locations, err
}

func (r *locationRepo) FindByCode(ctx context.Context, code string) (*model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).Where("location_code = ?", code).First(&l).Error
	return &l, err
}

func (r *locationRepo) Create(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// CaptureRepository is the data access contract for storage captures.
type CaptureRepository interface {
	Create(ctx context.Context, c *model.StorageCapture) error
	FindByLot(ctx context.Context, lotNo string) ([]model.StorageCapture, error)
	FindByFGRoll(ctx context.Context, lotNo, fgRollNo string) (*model.StorageCapture, error)
	// ListActive returns all non-dispatched captures (occupancy set).
	ListActive(ctx context.Context) ([]model.StorageCapture, error)
	Search(ctx context.Context, lotNo, fgRollNo string) ([]model.StorageCapture, error)
	MarkDispatched(ctx context.Context, id uuid.UUID) error
}

type captureRepo struct{ db *gorm.DB }

func NewCaptureRepository(db *gorm.DB) CaptureRepository { return &captureRepo{db: db} }

func (r *captureRepo) Create(ctx context.Context, c *model.StorageCapture) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *captureRepo) FindByLot(ctx context.Context, lotNo string) ([]model.StorageCapture, error) {
	var cs []model.StorageCapture
	err := r.db.WithContext(ctx).
		Where("lot_no = ?", lotNo).
		Order("created_at ASC").
		Find(&cs).Error
	return cs, err
}

func (r *captureRepo) FindByFGRoll(ctx context.Context, lotNo, fgRollNo string) (*model.StorageCapture, error) {
	var c model.StorageCapture
	err := r.db.WithContext(ctx).
		Where("lot_no = ? AND fg_roll_no = ?", lotNo, fgRollNo).
		First(&c).Error
	return &c, err
}

func (r *captureRepo) ListActive(ctx context.Context) ([]model.StorageCapture, error) {
	var cs []model.StorageCapture
	err := r.db.WithContext(ctx).
		Where("dispatched = false").
		Find(&cs).Error
	return cs, err
}

func (r *captureRepo) Search(ctx context.Context, lotNo, fgRollNo string) ([]model.StorageCapture, error) {
	q := r.db.WithContext(ctx).Model(&model.StorageCapture{})
	if lotNo != "" {
		q = q.Where("lot_no = ?", lotNo)
	}
	if fgRollNo != "" {
		q = q.Where("fg_roll_no = ?", fgRollNo)
	}
	var cs []model.StorageCapture
	err := q.Order("created_at ASC").Find(&cs).Error
	return cs, err
}

func (r *captureRepo) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StorageCapture{}).
		Where("id = ?", id).Update("dispatched", true).Error
}
