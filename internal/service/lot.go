package service

import (
	"context"
	"errors"
	"time"

	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LotService manages production lots. Lots are never deleted: planning
// changes arrive as status transitions (hold, supersede, restart) so that
// already-confirmed rolls keep a valid parent.
type LotService interface {
	Create(ctx context.Context, req dto.CreateLotRequest) (*dto.LotResponse, error)
	GetByAllotmentID(ctx context.Context, allotmentID string) (*dto.LotResponse, error)
	List(ctx context.Context, filter dto.LotFilter) (*dto.LotListResponse, error)
	UpdateStatus(ctx context.Context, allotmentID string, req dto.UpdateLotStatusRequest, actor string) (*dto.LotResponse, error)
}

type lotService struct {
	lots repository.LotRepository
}

func NewLotService(lots repository.LotRepository) LotService {
	return &lotService{lots: lots}
}

func (s *lotService) Create(ctx context.Context, req dto.CreateLotRequest) (*dto.LotResponse, error) {
	tubeWeight, err := decimal.NewFromString(req.TubeWeight)
	if err != nil || tubeWeight.IsNegative() {
		return nil, domainerr.New(domainerr.KindValidation, "tube weight %q is not a valid weight", req.TubeWeight)
	}
	shrinkWrap, err := decimal.NewFromString(req.ShrinkWrapWeight)
	if err != nil || shrinkWrap.IsNegative() {
		return nil, domainerr.New(domainerr.KindValidation, "shrink wrap weight %q is not a valid weight", req.ShrinkWrapWeight)
	}

	lot := &model.Lot{
		AllotmentID:      req.AllotmentID,
		SalesOrderID:     req.SalesOrderID,
		SalesOrderItemID: req.SalesOrderItemID,
		Status:           model.LotActive,
		TubeWeight:       tubeWeight,
		ShrinkWrapWeight: shrinkWrap,
	}
	for _, m := range req.Machines {
		rollPerKg, err := decimal.NewFromString(m.RollPerKg)
		if err != nil || !rollPerKg.IsPositive() {
			return nil, domainerr.New(domainerr.KindValidation,
				"roll weight %q for machine %s is not a positive weight", m.RollPerKg, m.MachineName)
		}
		lot.Machines = append(lot.Machines, model.MachineAllocation{
			MachineName: m.MachineName,
			TotalRolls:  m.TotalRolls,
			RollPerKg:   rollPerKg,
		})
	}

	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "creating lot %s", req.AllotmentID)
	}
	resp := lotToResponse(lot)
	return &resp, nil
}

func (s *lotService) GetByAllotmentID(ctx context.Context, allotmentID string) (*dto.LotResponse, error) {
	lot, err := s.lots.FindByAllotmentID(ctx, allotmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound, "lot %s not found", allotmentID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading lot %s", allotmentID)
	}
	resp := lotToResponse(lot)
	return &resp, nil
}

func (s *lotService) List(ctx context.Context, filter dto.LotFilter) (*dto.LotListResponse, error) {
	var from, to *time.Time
	if filter.From != "" {
		t, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, domainerr.New(domainerr.KindValidation, "invalid from date %q", filter.From)
		}
		from = &t
	}
	if filter.To != "" {
		t, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, domainerr.New(domainerr.KindValidation, "invalid to date %q", filter.To)
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	var status *model.LotStatus
	if filter.Status != "" && filter.Status != "all" {
		st, err := parseLotStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		status = &st
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	lots, total, err := s.lots.List(ctx, from, to, status, page, limit)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "listing lots")
	}

	out := &dto.LotListResponse{
		Data:  make([]dto.LotResponse, 0, len(lots)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range lots {
		out.Data = append(out.Data, lotToResponse(&lots[i]))
	}
	return out, nil
}

func (s *lotService) UpdateStatus(ctx context.Context, allotmentID string, req dto.UpdateLotStatusRequest, actor string) (*dto.LotResponse, error) {
	target, err := parseLotStatus(req.Status)
	if err != nil {
		return nil, err
	}

	lot, err := s.lots.FindByAllotmentID(ctx, allotmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound, "lot %s not found", allotmentID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading lot %s", allotmentID)
	}

	previous := lot.Status
	if err := lot.Transition(target); err != nil {
		return nil, err
	}
	if previous != lot.Status {
		if err := s.lots.UpdateStatus(ctx, lot.ID, lot.Status); err != nil {
			return nil, domainerr.Wrap(domainerr.KindNetwork, err, "updating status of lot %s", allotmentID)
		}
		log.Info().
			Str("actor", actor).
			Str("lot_no", allotmentID).
			Str("from", previous.String()).
			Str("to", lot.Status.String()).
			Msg("lot status changed")
	}

	resp := lotToResponse(lot)
	return &resp, nil
}

func parseLotStatus(s string) (model.LotStatus, error) {
	switch s {
	case "active":
		return model.LotActive, nil
	case "hold":
		return model.LotHold, nil
	case "superseded":
		return model.LotSuperseded, nil
	case "partially_completed":
		return model.LotPartiallyCompleted, nil
	default:
		return 0, domainerr.New(domainerr.KindValidation, "unknown lot status %q", s)
	}
}

func lotToResponse(lot *model.Lot) dto.LotResponse {
	machines := make([]dto.AllocationResponse, 0, len(lot.Machines))
	for i := range lot.Machines {
		machines = append(machines, allocationToResponse(&lot.Machines[i], lot.AllotmentID))
	}
	return dto.LotResponse{
		ID:               lot.ID.String(),
		AllotmentID:      lot.AllotmentID,
		SalesOrderID:     lot.SalesOrderID,
		SalesOrderItemID: lot.SalesOrderItemID,
		Status:           lot.Status.String(),
		TubeWeight:       lot.TubeWeight.StringFixed(2),
		ShrinkWrapWeight: lot.ShrinkWrapWeight.StringFixed(2),
		Machines:         machines,
		CreatedAt:        lot.CreatedAt.Format(time.RFC3339),
	}
}
