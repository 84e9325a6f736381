package repository

import (
	"context"
	"fmt"

	"knitmes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmationRepository is the data access contract for FG confirmations.
type ConfirmationRepository interface {
	CreateBatch(ctx context.Context, confirmations []model.RollConfirmation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RollConfirmation, error)
	FindByRoll(ctx context.Context, lotID uuid.UUID, machineName string, rollNo int) (*model.RollConfirmation, error)
	FindByFGRollNo(ctx context.Context, fgRollNo string) (*model.RollConfirmation, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.RollConfirmation, error)
	ListConfirmed(ctx context.Context) ([]model.RollConfirmation, error)
	Update(ctx context.Context, c *model.RollConfirmation) error
	// NextFGRollNo mints the next finished-goods roll number. Check-then-act
	// against the store; collisions are tolerated downstream.
	NextFGRollNo(ctx context.Context) (string, error)
}

type confirmationRepo struct{ db *gorm.DB }

func NewConfirmationRepository(db *gorm.DB) ConfirmationRepository { return &confirmationRepo{db: db} }

func (r *confirmationRepo) CreateBatch(ctx context.Context, confirmations []model.RollConfirmation) error {
	return r.db.WithContext(ctx).Create(&confirmations).Error
}

func (r *confirmationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RollConfirmation, error) {
	var c model.RollConfirmation
	err := r.db.WithContext(ctx).Preload("Lot").First(&c, id).Error
	return &c, err
}

func (r *confirmationRepo) FindByRoll(ctx context.Context, lotID uuid.UUID, machineName string, rollNo int) (*model.RollConfirmation, error) {
	var c model.RollConfirmation
	err := r.db.WithContext(ctx).
		Preload("Lot").
		Where("lot_id = ? AND machine_name = ? AND roll_no = ?", lotID, machineName, rollNo).
		First(&c).Error
	return &c, err
}

func (r *confirmationRepo) FindByFGRollNo(ctx context.Context, fgRollNo string) (*model.RollConfirmation, error) {
	var c model.RollConfirmation
	err := r.db.WithContext(ctx).
		Preload("Lot").
		Where("fg_roll_no = ?", fgRollNo).
		First(&c).Error
	return &c, err
}

func (r *confirmationRepo) ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.RollConfirmation, error) {
	var cs []model.RollConfirmation
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("machine_name ASC, roll_no ASC").
		Find(&cs).Error
	return cs, err
}

func (r *confirmationRepo) ListConfirmed(ctx context.Context) ([]model.RollConfirmation, error) {
	var cs []model.RollConfirmation
	err := r.db.WithContext(ctx).
		Preload("Lot").
		Where("fg_sticker_generated = true").
		Find(&cs).Error
	return cs, err
}

func (r *confirmationRepo) Update(ctx context.Context, c *model.RollConfirmation) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *confirmationRepo) NextFGRollNo(ctx context.Context) (string, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RollConfirmation{}).
		Where("fg_roll_no IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FG%06d", count+1), nil
}
