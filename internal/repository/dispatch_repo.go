package repository

import (
	"context"

	"knitmes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DispatchRepository is the data access contract for dispatch plannings and
// their loaded rolls.
type DispatchRepository interface {
	ListPlannings(ctx context.Context) ([]model.DispatchPlanning, error)
	// ListByOrder returns an order's plannings in loading sequence.
	ListByOrder(ctx context.Context, dispatchOrderID string) ([]model.DispatchPlanning, error)
	FindPlanning(ctx context.Context, id uuid.UUID) (*model.DispatchPlanning, error)
	CreatePlanning(ctx context.Context, p *model.DispatchPlanning) error
	UpdatePlanning(ctx context.Context, p *model.DispatchPlanning) error
	CreateRoll(ctx context.Context, roll *model.DispatchedRoll) error
	FindRoll(ctx context.Context, id uuid.UUID) (*model.DispatchedRoll, error)
	DeleteRoll(ctx context.Context, id uuid.UUID) error
	// ListRollsByOrder returns all loaded rolls of an order in load order.
	ListRollsByOrder(ctx context.Context, dispatchOrderID string) ([]model.DispatchedRoll, error)
	CountRolls(ctx context.Context, planningID uuid.UUID) (int, error)
}

type dispatchRepo struct{ db *gorm.DB }

func NewDispatchRepository(db *gorm.DB) DispatchRepository { return &dispatchRepo{db: db} }

func (r *dispatchRepo) ListPlannings(ctx context.Context) ([]model.DispatchPlanning, error) {
	var ps []model.DispatchPlanning
	err := r.db.WithContext(ctx).
		Order("dispatch_order_id ASC, sequence_no ASC").
		Find(&ps).Error
	return ps, err
}

func (r *dispatchRepo) ListByOrder(ctx context.Context, dispatchOrderID string) ([]model.DispatchPlanning, error) {
	var ps []model.DispatchPlanning
	err := r.db.WithContext(ctx).
		Preload("Rolls").
		Where("dispatch_order_id = ?", dispatchOrderID).
		Order("sequence_no ASC").
		Find(&ps).Error
	return ps, err
}

func (r *dispatchRepo) FindPlanning(ctx context.Context, id uuid.UUID) (*model.DispatchPlanning, error) {
	var p model.DispatchPlanning
	err := r.db.WithContext(ctx).Preload("Rolls").First(&p, id).Error
	return &p, err
}

func (r *dispatchRepo) CreatePlanning(ctx context.Context, p *model.DispatchPlanning) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *dispatchRepo) UpdatePlanning(ctx context.Context, p *model.DispatchPlanning) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *dispatchRepo) CreateRoll(ctx context.Context, roll *model.DispatchedRoll) error {
	return r.db.WithContext(ctx).Create(roll).Error
}

func (r *dispatchRepo) FindRoll(ctx context.Context, id uuid.UUID) (*model.DispatchedRoll, error) {
	var roll model.DispatchedRoll
	err := r.db.WithContext(ctx).First(&roll, id).Error
	return &roll, err
}

func (r *dispatchRepo) DeleteRoll(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DispatchedRoll{}, id).Error
}

func (r *dispatchRepo) ListRollsByOrder(ctx context.Context, dispatchOrderID string) ([]model.DispatchedRoll, error) {
	var rolls []model.DispatchedRoll
	err := r.db.WithContext(ctx).
		Joins("JOIN dispatch_plannings ON dispatch_plannings.id = dispatched_rolls.dispatch_planning_id").
		Where("dispatch_plannings.dispatch_order_id = ?", dispatchOrderID).
		Order("dispatched_rolls.loaded_at ASC").
		Find(&rolls).Error
	return rolls, err
}

func (r *dispatchRepo) CountRolls(ctx context.Context, planningID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DispatchedRoll{}).
		Where("dispatch_planning_id = ?", planningID).
		Count(&count).Error
	return int(count), err
}
