package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"knitmes/internal/barcode"
	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/infra"
	"knitmes/internal/model"
	"knitmes/internal/repository"
	"knitmes/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConfirmationService drives the assigned → confirmed transition: it weighs,
// gates, mints the FG roll number, persists, then runs the best-effort side
// effects (sticker print, storage capture). Once the confirmation row is
// saved the operation never fails; downstream trouble surfaces as warnings.
type ConfirmationService interface {
	Confirm(ctx context.Context, req dto.ConfirmRollRequest, actor string, actorRole string) (*dto.ConfirmationResponse, error)
	ListByLot(ctx context.Context, allotmentID string) ([]dto.ConfirmationListItem, error)
	// Reprint re-sends an already confirmed roll's sticker to the printer.
	Reprint(ctx context.Context, confirmationID uuid.UUID) error
}

// RetryPolicy parameterizes the two critical writes.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type confirmationService struct {
	lots          repository.LotRepository
	assignments   repository.AssignmentRepository
	confirmations repository.ConfirmationRepository
	storage       StorageService
	printer       *infra.PrinterClient
	printerCB     *infra.CircuitBreaker
	dispatcher    *worker.Dispatcher
	tolerance     decimal.Decimal
	retry         RetryPolicy
}

func NewConfirmationService(
	lots repository.LotRepository,
	assignments repository.AssignmentRepository,
	confirmations repository.ConfirmationRepository,
	storage StorageService,
	printer *infra.PrinterClient,
	printerCB *infra.CircuitBreaker,
	dispatcher *worker.Dispatcher,
	tolerance decimal.Decimal,
	retry RetryPolicy,
) ConfirmationService {
	return &confirmationService{
		lots:          lots,
		assignments:   assignments,
		confirmations: confirmations,
		storage:       storage,
		printer:       printer,
		printerCB:     printerCB,
		dispatcher:    dispatcher,
		tolerance:     tolerance,
		retry:         retry,
	}
}

func (s *confirmationService) Confirm(ctx context.Context, req dto.ConfirmRollRequest, actor, actorRole string) (*dto.ConfirmationResponse, error) {
	ref, err := barcode.Decode(req.Barcode)
	if err != nil {
		return nil, err
	}
	rollNo, err := strconv.Atoi(ref.RollNo)
	if err != nil {
		return nil, domainerr.New(domainerr.KindMalformedBarcode,
			"roll number %q is not numeric", ref.RollNo)
	}

	lot, err := s.lots.FindByAllotmentID(ctx, ref.LotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound, "lot %s not found", ref.LotID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading lot %s", ref.LotID)
	}
	if lot.Status != model.LotActive {
		return nil, domainerr.New(domainerr.KindValidation,
			"lot %s is %s; confirmations require an active lot", lot.AllotmentID, lot.Status)
	}

	var alloc *model.MachineAllocation
	for i := range lot.Machines {
		if lot.Machines[i].MachineName == ref.MachineName {
			alloc = &lot.Machines[i]
			break
		}
	}
	if alloc == nil {
		return nil, domainerr.New(domainerr.KindNotFound,
			"machine %s is not allocated to lot %s", ref.MachineName, lot.AllotmentID)
	}

	weights, err := NormalizeWeight(req.GrossWeight, lot.TubeWeight, lot.ShrinkWrapWeight)
	if err != nil {
		return nil, err
	}

	confirmation, err := s.confirmations.FindByRoll(ctx, lot.ID, ref.MachineName, rollNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No pending record means the roll's barcode was never generated.
			return nil, domainerr.New(domainerr.KindNotFound,
				"roll %d of machine %s on lot %s has no generated barcode",
				rollNo, ref.MachineName, lot.AllotmentID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading confirmation record")
	}
	if confirmation.FGStickerGenerated {
		return nil, domainerr.New(domainerr.KindDuplicateConfirmation,
			"roll %d of machine %s already confirmed as %s",
			rollNo, ref.MachineName, derefOr(confirmation.FGRollNo, "?"))
	}

	if err := s.gateTolerance(weights.Net, alloc.RollPerKg, req.Override, actor, actorRole, lot.AllotmentID, ref.MachineName, rollNo); err != nil {
		return nil, err
	}

	fgRollNo, err := s.confirmations.NextFGRollNo(ctx)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "minting FG roll number")
	}

	now := time.Now().UTC()
	confirmation.FGRollNo = &fgRollNo
	confirmation.GrossWeight = weights.Gross
	confirmation.TareWeight = weights.Tare
	confirmation.NetWeight = weights.Net
	confirmation.FGStickerGenerated = true
	confirmation.ConfirmedAt = &now

	err = worker.WithRetry(ctx, "confirmation_update", func(ctx context.Context) error {
		return s.confirmations.Update(ctx, confirmation)
	}, s.retry.MaxAttempts, s.retry.BaseDelay)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "saving confirmation")
	}

	// Bookkeeping on the assignment side. Failures here are logged, not
	// surfaced: the confirmation row is the source of truth.
	if bc, err := s.assignments.FindBarcodeForRoll(ctx, alloc.ID, rollNo); err == nil {
		if err := s.assignments.SetBarcodeFG(ctx, bc.ID, fgRollNo); err != nil {
			log.Error().Err(err).Str("fg_roll_no", fgRollNo).Msg("confirm: stamping barcode row failed")
		}
		if err := s.assignments.IncrementStickers(ctx, bc.RollAssignmentID); err != nil {
			log.Error().Err(err).Str("fg_roll_no", fgRollNo).Msg("confirm: sticker counter update failed")
		}
	} else {
		log.Error().Err(err).Int("roll_no", rollNo).Str("machine", ref.MachineName).
			Msg("confirm: barcode row not found for confirmed roll")
	}

	var warnings []dto.ConfirmationWarning
	code := barcode.EncodeFG(lot.AllotmentID, ref.MachineName, rollNo, fgRollNo)

	if w := s.printSticker(ctx, confirmation, lot, code, fgRollNo); w != nil {
		warnings = append(warnings, *w)
	}
	locationCode, w := s.captureStorage(ctx, lot.AllotmentID, fgRollNo)
	if w != nil {
		warnings = append(warnings, *w)
	}

	resp := &dto.ConfirmationResponse{
		ID:           confirmation.ID.String(),
		LotNo:        lot.AllotmentID,
		MachineName:  ref.MachineName,
		RollNo:       rollNo,
		FGRollNo:     fgRollNo,
		GrossWeight:  weights.Gross.StringFixed(2),
		TareWeight:   weights.Tare.StringFixed(2),
		NetWeight:    weights.Net.StringFixed(2),
		DisplayGross: weights.DisplayGross.StringFixed(2),
		Barcode:      code,
		Warnings:     warnings,
		ConfirmedAt:  now.Format(time.RFC3339),
	}
	if locationCode != "" {
		resp.LocationCode = &locationCode
	}
	return resp, nil
}

// gateTolerance rejects a net weight outside the configured band around the
// machine's planned roll weight unless a privileged override accompanies it.
// A zero tolerance disables the gate.
func (s *confirmationService) gateTolerance(net, planned decimal.Decimal, override bool, actor, actorRole, lotNo, machine string, rollNo int) error {
	if s.tolerance.IsZero() {
		return nil
	}
	diff := net.Sub(planned).Abs()
	if diff.LessThanOrEqual(s.tolerance) {
		return nil
	}
	if !override {
		return domainerr.New(domainerr.KindValidation,
			"net weight %s deviates %s kg from planned %s (tolerance %s); re-weigh or confirm with override",
			net.StringFixed(2), diff.StringFixed(2), planned.StringFixed(2), s.tolerance.StringFixed(2))
	}
	if actorRole != model.RoleSupervisor && actorRole != model.RoleAdmin {
		return domainerr.New(domainerr.KindValidation,
			"weight override requires supervisor or admin role")
	}
	log.Warn().
		Str("actor", actor).
		Str("role", actorRole).
		Str("lot_no", lotNo).
		Str("machine", machine).
		Int("roll_no", rollNo).
		Str("net", net.StringFixed(2)).
		Str("planned", planned.StringFixed(2)).
		Str("deviation", diff.StringFixed(2)).
		Msg("confirm: out-of-tolerance weight accepted by override")
	return nil
}

// printSticker is best-effort behind the circuit breaker: when the printer
// host is down the breaker fast-fails instead of stalling every confirmation
// on the HTTP timeout.
func (s *confirmationService) printSticker(ctx context.Context, c *model.RollConfirmation, lot *model.Lot, code, fgRollNo string) *dto.ConfirmationWarning {
	err := s.printerCB.Execute(func() error {
		resp, err := s.printer.Print(ctx, infra.PrintPayload{
			ConfirmationID: c.ID.String(),
			Barcode:        code,
			LotNo:          lot.AllotmentID,
			MachineName:    c.MachineName,
			RollNo:         c.RollNo,
			FGRollNo:       fgRollNo,
			NetWeight:      c.NetWeight.StringFixed(2),
			GrossWeight:    c.GrossWeight.StringFixed(2),
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(resp.Message)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Str("fg_roll_no", fgRollNo).Msg("confirm: sticker print failed")
	return &dto.ConfirmationWarning{
		Code:    "print_failed",
		Message: "sticker did not print; reprint from the confirmation list",
	}
}

// captureStorage records the roll's warehouse slot. The create is retried;
// if it still fails the roll exists with no location, so a reconciliation
// alert is queued and the operator gets a manual-action warning.
func (s *confirmationService) captureStorage(ctx context.Context, lotNo, fgRollNo string) (string, *dto.ConfirmationWarning) {
	var capture *dto.CaptureResponse
	err := worker.WithRetry(ctx, "storage_capture_create", func(ctx context.Context) error {
		var err error
		capture, err = s.storage.CreateCapture(ctx, dto.CreateCaptureRequest{
			LotNo:    lotNo,
			FGRollNo: fgRollNo,
		})
		return err
	}, s.retry.MaxAttempts, s.retry.BaseDelay)
	if err == nil {
		return capture.LocationCode, nil
	}

	log.Error().Err(err).Str("lot_no", lotNo).Str("fg_roll_no", fgRollNo).
		Msg("confirm: storage capture failed after retries")
	if qerr := s.dispatcher.EnqueueReconcile(ctx, worker.ReconcileAlert{
		Kind:     "stranded_capture",
		LotNo:    lotNo,
		FGRollNo: fgRollNo,
		Detail:   "confirmed roll has no storage capture: " + err.Error(),
	}); qerr != nil {
		log.Error().Err(qerr).Msg("confirm: reconcile alert enqueue failed")
	}
	return "", &dto.ConfirmationWarning{
		Code:         "storage_capture_failed",
		Message:      "roll confirmed but its storage location was not recorded",
		ManualAction: true,
	}
}

func (s *confirmationService) ListByLot(ctx context.Context, allotmentID string) ([]dto.ConfirmationListItem, error) {
	lot, err := s.lots.FindByAllotmentID(ctx, allotmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.New(domainerr.KindNotFound, "lot %s not found", allotmentID)
		}
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading lot %s", allotmentID)
	}
	confirmations, err := s.confirmations.ListByLot(ctx, lot.ID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "listing confirmations")
	}

	out := make([]dto.ConfirmationListItem, 0, len(confirmations))
	for _, c := range confirmations {
		item := dto.ConfirmationListItem{
			ID:          c.ID.String(),
			MachineName: c.MachineName,
			RollNo:      c.RollNo,
			FGRollNo:    c.FGRollNo,
			NetWeight:   c.NetWeight.StringFixed(2),
			Confirmed:   c.FGStickerGenerated,
		}
		if c.ConfirmedAt != nil {
			ts := c.ConfirmedAt.Format(time.RFC3339)
			item.ConfirmedAt = &ts
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *confirmationService) Reprint(ctx context.Context, confirmationID uuid.UUID) error {
	c, err := s.confirmations.FindByID(ctx, confirmationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerr.New(domainerr.KindNotFound, "confirmation %s not found", confirmationID)
		}
		return domainerr.Wrap(domainerr.KindNetwork, err, "loading confirmation")
	}
	if !c.FGStickerGenerated || c.FGRollNo == nil {
		return domainerr.New(domainerr.KindValidation,
			"confirmation %s has no FG sticker to reprint", confirmationID)
	}
	if c.Lot == nil {
		return domainerr.New(domainerr.KindNotFound, "confirmation %s has no lot", confirmationID)
	}

	code := barcode.EncodeFG(c.Lot.AllotmentID, c.MachineName, c.RollNo, *c.FGRollNo)
	err = s.printerCB.Execute(func() error {
		resp, err := s.printer.Print(ctx, infra.PrintPayload{
			ConfirmationID: c.ID.String(),
			Barcode:        code,
			LotNo:          c.Lot.AllotmentID,
			MachineName:    c.MachineName,
			RollNo:         c.RollNo,
			FGRollNo:       *c.FGRollNo,
			NetWeight:      c.NetWeight.StringFixed(2),
			GrossWeight:    c.GrossWeight.StringFixed(2),
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(resp.Message)
		}
		return nil
	})
	if err != nil {
		return domainerr.Wrap(domainerr.KindNetwork, err, "reprinting sticker %s", *c.FGRollNo)
	}
	return nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
