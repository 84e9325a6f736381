package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"knitmes/internal/barcode"
	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/repository"
	"knitmes/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DispatchService runs truck loading: plannings pair lots with a dispatch
// order, and picking scans load rolls against the order's active lot in
// sequence. The scan path is deliberately non-transactional; the roll record
// is written first, then the capture is flagged dispatched; a failure between
// the two raises a reconciliation alert instead of rolling back.
type DispatchService interface {
	ScanRoll(ctx context.Context, dispatchOrderID string, req dto.ScanRollRequest, actor string) (*dto.PickResult, error)
	CreatePlanning(ctx context.Context, req dto.CreatePlanningRequest) (*dto.PlanningResponse, error)
	UpdatePlanning(ctx context.Context, id uuid.UUID, req dto.UpdatePlanningRequest) (*dto.PlanningResponse, error)
	ListPlannings(ctx context.Context) ([]dto.PlanningResponse, error)
	GetOrder(ctx context.Context, dispatchOrderID string) ([]dto.PlanningResponse, error)
	ListRolls(ctx context.Context, dispatchOrderID string) ([]dto.DispatchedRollResponse, error)
	// RemoveRoll undoes a mis-scan: deletes the roll record and reopens its
	// planning. The storage capture stays dispatched until reconciled.
	RemoveRoll(ctx context.Context, rollID uuid.UUID) error
	// ResetSession drops the in-memory duplicate-scan guard for an order.
	ResetSession(dispatchOrderID string)
}

type dispatchService struct {
	plannings     repository.DispatchRepository
	captures      repository.CaptureRepository
	confirmations repository.ConfirmationRepository
	dispatcher    *worker.Dispatcher

	mu       sync.Mutex
	sessions map[string]map[string]bool // order id → scanned FG roll numbers
}

func NewDispatchService(
	plannings repository.DispatchRepository,
	captures repository.CaptureRepository,
	confirmations repository.ConfirmationRepository,
	dispatcher *worker.Dispatcher,
) DispatchService {
	return &dispatchService{
		plannings:     plannings,
		captures:      captures,
		confirmations: confirmations,
		dispatcher:    dispatcher,
		sessions:      make(map[string]map[string]bool),
	}
}

func (s *dispatchService) ScanRoll(ctx context.Context, dispatchOrderID string, req dto.ScanRollRequest, actor string) (*dto.PickResult, error) {
	ref, err := barcode.Decode(req.Barcode)
	if err != nil {
		return nil, err
	}
	if ref.FGRollNo == "" {
		return nil, domainerr.New(domainerr.KindMalformedBarcode,
			"scanned code has no FG roll number; only confirmed rolls can be dispatched")
	}
	rollNo, err := strconv.Atoi(ref.RollNo)
	if err != nil {
		return nil, domainerr.New(domainerr.KindMalformedBarcode,
			"roll number %q is not numeric", ref.RollNo)
	}

	plannings, err := s.plannings.ListByOrder(ctx, dispatchOrderID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading dispatch order %s", dispatchOrderID)
	}
	if len(plannings) == 0 {
		return nil, domainerr.New(domainerr.KindNotFound, "dispatch order %s has no plannings", dispatchOrderID)
	}

	active := activePlanning(plannings)
	if active == nil {
		return nil, domainerr.New(domainerr.KindLotComplete,
			"dispatch order %s is fully loaded", dispatchOrderID)
	}
	if ref.LotID != active.LotNo {
		return nil, domainerr.New(domainerr.KindWrongLot,
			"scanned roll belongs to lot %s but the active lot of order %s is %s",
			ref.LotID, dispatchOrderID, active.LotNo)
	}

	if s.seen(dispatchOrderID, ref.FGRollNo) {
		return nil, domainerr.New(domainerr.KindDuplicateScan,
			"roll %s was already scanned in this session", ref.FGRollNo)
	}

	capture, err := s.captures.FindByFGRoll(ctx, ref.LotID, ref.FGRollNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound,
				"roll %s of lot %s has no storage capture", ref.FGRollNo, ref.LotID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading capture for roll %s", ref.FGRollNo)
	}
	if capture.Dispatched {
		return nil, domainerr.New(domainerr.KindAlreadyDispatched,
			"roll %s of lot %s was already dispatched", ref.FGRollNo, ref.LotID)
	}

	// Net weight comes from the confirmation record; a missing one is a data
	// defect, logged and tolerated with a zero weight.
	netWeight := decimal.Zero
	if c, err := s.confirmations.FindByFGRollNo(ctx, ref.FGRollNo); err == nil {
		netWeight = c.NetWeight
	} else {
		log.Error().Err(err).Str("fg_roll_no", ref.FGRollNo).
			Msg("dispatch: confirmation missing for scanned roll, loading with zero weight")
	}

	roll := &model.DispatchedRoll{
		DispatchPlanningID: active.ID,
		LotNo:              ref.LotID,
		FGRollNo:           ref.FGRollNo,
		MachineName:        ref.MachineName,
		RollNo:             rollNo,
		NetWeight:          netWeight,
		LoadedBy:           actor,
		LoadedAt:           time.Now().UTC(),
	}
	if err := s.plannings.CreateRoll(ctx, roll); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "recording dispatched roll %s", ref.FGRollNo)
	}

	var warnings []dto.ConfirmationWarning
	if err := s.captures.MarkDispatched(ctx, capture.ID); err != nil {
		// The roll record exists but the capture still looks in stock. No
		// compensating delete: the truck has the roll, the record is right.
		log.Error().Err(err).Str("fg_roll_no", ref.FGRollNo).
			Msg("dispatch: capture update failed after roll record was written")
		if qerr := s.dispatcher.EnqueueReconcile(ctx, worker.ReconcileAlert{
			Kind:     "orphaned_dispatched_roll",
			LotNo:    ref.LotID,
			FGRollNo: ref.FGRollNo,
			Detail:   "dispatched roll recorded but storage capture still active: " + err.Error(),
		}); qerr != nil {
			log.Error().Err(qerr).Msg("dispatch: reconcile alert enqueue failed")
		}
		warnings = append(warnings, dto.ConfirmationWarning{
			Code:         "storage_capture_failed",
			Message:      "roll loaded but its storage record still shows in stock",
			ManualAction: true,
		})
	}

	scanned := len(active.Rolls) + 1
	active.TotalDispatchedNetWeight = active.TotalDispatchedNetWeight.Add(netWeight)
	lotComplete := scanned >= active.TotalDispatchedRolls
	if lotComplete {
		active.FullyDispatched = true
	}
	if err := s.plannings.UpdatePlanning(ctx, active); err != nil {
		log.Error().Err(err).Str("lot_no", active.LotNo).
			Msg("dispatch: planning totals update failed")
	}

	s.mark(dispatchOrderID, ref.FGRollNo)

	result := &dto.PickResult{
		DispatchedRollID:  roll.ID.String(),
		LotNo:             ref.LotID,
		FGRollNo:          ref.FGRollNo,
		RemainingQuantity: active.TotalDispatchedRolls - scanned,
		LotComplete:       lotComplete,
		Warnings:          warnings,
	}
	if lotComplete {
		next := nextPlanningAfter(plannings, active.SequenceNo)
		if next != nil {
			result.NextLotNo = next.LotNo
		} else {
			result.OrderComplete = true
		}
	}
	return result, nil
}

// activePlanning is the first planning in loading sequence whose planned
// roll count is not yet reached. Nil when the order is done.
func activePlanning(plannings []model.DispatchPlanning) *model.DispatchPlanning {
	for i := range plannings {
		if len(plannings[i].Rolls) < plannings[i].TotalDispatchedRolls {
			return &plannings[i]
		}
	}
	return nil
}

func nextPlanningAfter(plannings []model.DispatchPlanning, sequenceNo int) *model.DispatchPlanning {
	for i := range plannings {
		p := &plannings[i]
		if p.SequenceNo > sequenceNo && len(p.Rolls) < p.TotalDispatchedRolls {
			return p
		}
	}
	return nil
}

func (s *dispatchService) seen(orderID, fgRollNo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[orderID][fgRollNo]
}

func (s *dispatchService) mark(orderID, fgRollNo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[orderID] == nil {
		s.sessions[orderID] = make(map[string]bool)
	}
	s.sessions[orderID][fgRollNo] = true
}

func (s *dispatchService) ResetSession(dispatchOrderID string) {
	s.mu.Lock()
	delete(s.sessions, dispatchOrderID)
	s.mu.Unlock()
}

func (s *dispatchService) CreatePlanning(ctx context.Context, req dto.CreatePlanningRequest) (*dto.PlanningResponse, error) {
	p := &model.DispatchPlanning{
		DispatchOrderID:      req.DispatchOrderID,
		LotNo:                req.LotNo,
		LoadingNo:            req.LoadingNo,
		SequenceNo:           req.SequenceNo,
		TotalDispatchedRolls: req.TotalDispatchedRolls,
	}
	if err := s.plannings.CreatePlanning(ctx, p); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err,
			"creating planning for lot %s on order %s", req.LotNo, req.DispatchOrderID)
	}
	resp := planningToResponse(p)
	return &resp, nil
}

func (s *dispatchService) UpdatePlanning(ctx context.Context, id uuid.UUID, req dto.UpdatePlanningRequest) (*dto.PlanningResponse, error) {
	p, err := s.plannings.FindPlanning(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound, "planning %s not found", id)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading planning %s", id)
	}
	if req.LoadingNo != "" {
		p.LoadingNo = req.LoadingNo
	}
	if req.TotalDispatchedRolls > 0 {
		if req.TotalDispatchedRolls < len(p.Rolls) {
			return nil, domainerr.New(domainerr.KindValidation,
				"planned rolls %d is below the %d already loaded", req.TotalDispatchedRolls, len(p.Rolls))
		}
		p.TotalDispatchedRolls = req.TotalDispatchedRolls
		p.FullyDispatched = len(p.Rolls) >= p.TotalDispatchedRolls
	}
	if err := s.plannings.UpdatePlanning(ctx, p); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "updating planning %s", id)
	}
	resp := planningToResponse(p)
	return &resp, nil
}

func (s *dispatchService) ListPlannings(ctx context.Context) ([]dto.PlanningResponse, error) {
	plannings, err := s.plannings.ListPlannings(ctx)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "listing plannings")
	}
	out := make([]dto.PlanningResponse, 0, len(plannings))
	for i := range plannings {
		out = append(out, planningToResponse(&plannings[i]))
	}
	return out, nil
}

func (s *dispatchService) GetOrder(ctx context.Context, dispatchOrderID string) ([]dto.PlanningResponse, error) {
	plannings, err := s.plannings.ListByOrder(ctx, dispatchOrderID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading dispatch order %s", dispatchOrderID)
	}
	if len(plannings) == 0 {
		return nil, domainerr.New(domainerr.KindNotFound, "dispatch order %s has no plannings", dispatchOrderID)
	}
	out := make([]dto.PlanningResponse, 0, len(plannings))
	for i := range plannings {
		out = append(out, planningToResponse(&plannings[i]))
	}
	return out, nil
}

func (s *dispatchService) ListRolls(ctx context.Context, dispatchOrderID string) ([]dto.DispatchedRollResponse, error) {
	rolls, err := s.plannings.ListRollsByOrder(ctx, dispatchOrderID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "listing rolls of order %s", dispatchOrderID)
	}
	out := make([]dto.DispatchedRollResponse, 0, len(rolls))
	for _, r := range rolls {
		out = append(out, dto.DispatchedRollResponse{
			ID:          r.ID.String(),
			LotNo:       r.LotNo,
			FGRollNo:    r.FGRollNo,
			MachineName: r.MachineName,
			RollNo:      r.RollNo,
			NetWeight:   r.NetWeight.StringFixed(2),
			LoadedBy:    r.LoadedBy,
			LoadedAt:    r.LoadedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *dispatchService) RemoveRoll(ctx context.Context, rollID uuid.UUID) error {
	roll, err := s.plannings.FindRoll(ctx, rollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerr.New(domainerr.KindNotFound, "dispatched roll %s not found", rollID)
		}
		return domainerr.Wrap(domainerr.KindNetwork, err, "loading dispatched roll %s", rollID)
	}
	p, err := s.plannings.FindPlanning(ctx, roll.DispatchPlanningID)
	if err != nil {
		return domainerr.Wrap(domainerr.KindNetwork, err, "loading planning for roll %s", rollID)
	}

	if err := s.plannings.DeleteRoll(ctx, rollID); err != nil {
		return domainerr.Wrap(domainerr.KindNetwork, err, "deleting dispatched roll %s", rollID)
	}
	p.TotalDispatchedNetWeight = p.TotalDispatchedNetWeight.Sub(roll.NetWeight)
	p.FullyDispatched = false
	if err := s.plannings.UpdatePlanning(ctx, p); err != nil {
		return domainerr.Wrap(domainerr.KindNetwork, err, "reopening planning %s", p.ID)
	}

	s.mu.Lock()
	if seen, ok := s.sessions[p.DispatchOrderID]; ok {
		delete(seen, roll.FGRollNo)
	}
	s.mu.Unlock()

	log.Warn().
		Str("fg_roll_no", roll.FGRollNo).
		Str("lot_no", roll.LotNo).
		Str("order", p.DispatchOrderID).
		Msg("dispatch: roll scan undone, storage capture left for manual reconciliation")
	return nil
}

func planningToResponse(p *model.DispatchPlanning) dto.PlanningResponse {
	scanned := len(p.Rolls)
	return dto.PlanningResponse{
		ID:                   p.ID.String(),
		DispatchOrderID:      p.DispatchOrderID,
		LotNo:                p.LotNo,
		LoadingNo:            p.LoadingNo,
		SequenceNo:           p.SequenceNo,
		TotalDispatchedRolls: p.TotalDispatchedRolls,
		ScannedRolls:         scanned,
		RemainingQuantity:    p.TotalDispatchedRolls - scanned,
		FullyDispatched:      p.FullyDispatched,
	}
}
