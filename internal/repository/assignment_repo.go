package repository

import (
	"context"

	"knitmes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentRepository covers machine allocations, their shift assignments
// and the barcodes generated for them.
type AssignmentRepository interface {
	FindAllocation(ctx context.Context, id uuid.UUID) (*model.MachineAllocation, error)
	ListByAllocation(ctx context.Context, allocationID uuid.UUID) ([]model.RollAssignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.RollAssignment, error)
	Create(ctx context.Context, a *model.RollAssignment) error
	// AddBarcodes appends generated barcode rows to an assignment.
	AddBarcodes(ctx context.Context, barcodes []model.GeneratedBarcode) error
	// MaxRollNumber returns the highest roll number generated across all
	// assignments of an allocation (0 when none exist).
	MaxRollNumber(ctx context.Context, allocationID uuid.UUID) (int, error)
	// FindBarcodeForRoll resolves the barcode row for one roll of an allocation.
	FindBarcodeForRoll(ctx context.Context, allocationID uuid.UUID, rollNumber int) (*model.GeneratedBarcode, error)
	// SetBarcodeFG stamps the minted FG roll number onto a barcode row.
	SetBarcodeFG(ctx context.Context, barcodeID uuid.UUID, fgRollNo string) error
	// IncrementStickers bumps GeneratedStickers after an FG confirmation.
	IncrementStickers(ctx context.Context, assignmentID uuid.UUID) error
}

type assignmentRepo struct{ db *gorm.DB }

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository { return &assignmentRepo{db: db} }

func (r *assignmentRepo) FindAllocation(ctx context.Context, id uuid.UUID) (*model.MachineAllocation, error) {
	var alloc model.MachineAllocation
	err := r.db.WithContext(ctx).
		Preload("Lot").
		Preload("Assignments.Barcodes").
		First(&alloc, id).Error
	return &alloc, err
}

func (r *assignmentRepo) ListByAllocation(ctx context.Context, allocationID uuid.UUID) ([]model.RollAssignment, error) {
	var assignments []model.RollAssignment
	err := r.db.WithContext(ctx).
		Preload("Barcodes").
		Where("machine_allocation_id = ?", allocationID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RollAssignment, error) {
	var a model.RollAssignment
	err := r.db.WithContext(ctx).
		Preload("Allocation.Lot").
		Preload("Barcodes").
		First(&a, id).Error
	return &a, err
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.RollAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assignmentRepo) AddBarcodes(ctx context.Context, barcodes []model.GeneratedBarcode) error {
	return r.db.WithContext(ctx).Create(&barcodes).Error
}

func (r *assignmentRepo) MaxRollNumber(ctx context.Context, allocationID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.GeneratedBarcode{}).
		Select("MAX(generated_barcodes.roll_number)").
		Joins("JOIN roll_assignments ON roll_assignments.id = generated_barcodes.roll_assignment_id").
		Where("roll_assignments.machine_allocation_id = ?", allocationID).
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *assignmentRepo) FindBarcodeForRoll(ctx context.Context, allocationID uuid.UUID, rollNumber int) (*model.GeneratedBarcode, error) {
	var bc model.GeneratedBarcode
	err := r.db.WithContext(ctx).
		Joins("JOIN roll_assignments ON roll_assignments.id = generated_barcodes.roll_assignment_id").
		Where("roll_assignments.machine_allocation_id = ? AND generated_barcodes.roll_number = ?", allocationID, rollNumber).
		First(&bc).Error
	return &bc, err
}

func (r *assignmentRepo) SetBarcodeFG(ctx context.Context, barcodeID uuid.UUID, fgRollNo string) error {
	return r.db.WithContext(ctx).Model(&model.GeneratedBarcode{}).
		Where("id = ?", barcodeID).Update("fg_roll_no", fgRollNo).Error
}

func (r *assignmentRepo) IncrementStickers(ctx context.Context, assignmentID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.RollAssignment{}).
		Where("id = ?", assignmentID).
		Update("generated_stickers", gorm.Expr("generated_stickers + 1")).Error
}
