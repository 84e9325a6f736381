package service

import (
	"context"
	"strings"
	"time"

	"knitmes/internal/barcode"
	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AllocationService owns shift assignments: splitting a machine's planned
// roll count across shifts and minting the printed roll barcodes.
type AllocationService interface {
	GetAllocation(ctx context.Context, allocationID uuid.UUID) (*dto.AllocationResponse, error)
	ListAssignments(ctx context.Context, allocationID uuid.UUID) ([]dto.AssignmentResponse, error)
	CreateAssignment(ctx context.Context, allocationID uuid.UUID, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	GenerateBarcodes(ctx context.Context, assignmentID uuid.UUID, req dto.GenerateBarcodesRequest) (*dto.AssignmentResponse, error)
}

type allocationService struct {
	assignments   repository.AssignmentRepository
	confirmations repository.ConfirmationRepository
}

func NewAllocationService(assignments repository.AssignmentRepository, confirmations repository.ConfirmationRepository) AllocationService {
	return &allocationService{assignments: assignments, confirmations: confirmations}
}

// CreateAssignment opens a new shift assignment against one machine
// allocation. Preconditions, checked in order:
//  1. shift, operator and roll count are well-formed
//  2. the claim fits the allocation's remaining capacity
//  3. every prior assignment for the machine is fully consumed; a new
//     batch cannot be opened while an old one still has unconfirmed rolls
func (s *allocationService) CreateAssignment(ctx context.Context, allocationID uuid.UUID, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if strings.TrimSpace(req.ShiftID) == "" {
		return nil, domainerr.New(domainerr.KindValidation, "shift id is required")
	}
	if strings.TrimSpace(req.OperatorName) == "" {
		return nil, domainerr.New(domainerr.KindValidation, "operator name is required")
	}
	if req.AssignedRolls <= 0 {
		return nil, domainerr.New(domainerr.KindValidation,
			"assigned rolls must be positive, got %d", req.AssignedRolls)
	}

	alloc, err := s.assignments.FindAllocation(ctx, allocationID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNotFound, err,
			"machine allocation %s not found", allocationID)
	}
	if alloc.Lot != nil && alloc.Lot.Status != model.LotActive {
		return nil, domainerr.New(domainerr.KindValidation,
			"lot %s is %s; assignments require an active lot",
			alloc.Lot.AllotmentID, alloc.Lot.Status)
	}

	remainingCapacity := alloc.TotalRolls - alloc.AssignedTotal()
	if req.AssignedRolls > remainingCapacity {
		return nil, domainerr.New(domainerr.KindCapacityExceeded,
			"machine %s has only %d of %d rolls unassigned",
			alloc.MachineName, remainingCapacity, alloc.TotalRolls)
	}

	for _, prev := range alloc.Assignments {
		if remaining := prev.RemainingRolls(); remaining > 0 {
			return nil, domainerr.New(domainerr.KindSequencing,
				"shift %s still has %d unconfirmed rolls on machine %s; finish it before opening a new assignment",
				prev.ShiftID, remaining, alloc.MachineName)
		}
	}

	assignment := &model.RollAssignment{
		MachineAllocationID: allocationID,
		ShiftID:             req.ShiftID,
		OperatorName:        req.OperatorName,
		AssignedRolls:       req.AssignedRolls,
		GeneratedStickers:   0,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "persisting assignment")
	}

	log.Info().
		Str("machine", alloc.MachineName).
		Str("shift", req.ShiftID).
		Int("assigned_rolls", req.AssignedRolls).
		Int("remaining_capacity", remainingCapacity-req.AssignedRolls).
		Msg("shift assignment created")

	lotID := ""
	if alloc.Lot != nil {
		lotID = alloc.Lot.AllotmentID
	}
	resp := assignmentToResponse(assignment, lotID, alloc.MachineName)
	return &resp, nil
}

// GenerateBarcodes mints printed codes for the next req.Count rolls of an
// assignment and creates the matching pending confirmation records. Roll
// numbers are monotonic across the whole machine allocation so that
// (machine, roll number) stays unique within the lot.
func (s *allocationService) GenerateBarcodes(ctx context.Context, assignmentID uuid.UUID, req dto.GenerateBarcodesRequest) (*dto.AssignmentResponse, error) {
	if req.Count <= 0 {
		return nil, domainerr.New(domainerr.KindValidation, "count must be positive, got %d", req.Count)
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNotFound, err,
			"assignment %s not found", assignmentID)
	}
	alloc := assignment.Allocation
	if alloc == nil || alloc.Lot == nil {
		return nil, domainerr.New(domainerr.KindNotFound,
			"assignment %s has no machine allocation or lot", assignmentID)
	}

	printable := assignment.AssignedRolls - len(assignment.Barcodes)
	if req.Count > printable {
		return nil, domainerr.New(domainerr.KindValidation,
			"assignment covers %d rolls, %d codes already generated; at most %d more",
			assignment.AssignedRolls, len(assignment.Barcodes), printable)
	}

	maxRoll, err := s.assignments.MaxRollNumber(ctx, alloc.ID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "resolving next roll number")
	}

	barcodes := make([]model.GeneratedBarcode, 0, req.Count)
	confirmations := make([]model.RollConfirmation, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		n := maxRoll + i
		barcodes = append(barcodes, model.GeneratedBarcode{
			RollAssignmentID: assignment.ID,
			RollNumber:       n,
		})
		confirmations = append(confirmations, model.RollConfirmation{
			LotID:       alloc.LotID,
			MachineName: alloc.MachineName,
			RollNo:      n,
		})
	}

	if err := s.assignments.AddBarcodes(ctx, barcodes); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "persisting barcodes")
	}
	if err := s.confirmations.CreateBatch(ctx, confirmations); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "persisting pending confirmations")
	}

	assignment.Barcodes = append(assignment.Barcodes, barcodes...)
	resp := assignmentToResponse(assignment, alloc.Lot.AllotmentID, alloc.MachineName)
	return &resp, nil
}

func (s *allocationService) GetAllocation(ctx context.Context, allocationID uuid.UUID) (*dto.AllocationResponse, error) {
	alloc, err := s.assignments.FindAllocation(ctx, allocationID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNotFound, err,
			"machine allocation %s not found", allocationID)
	}
	lotID := ""
	if alloc.Lot != nil {
		lotID = alloc.Lot.AllotmentID
	}
	resp := allocationToResponse(alloc, lotID)
	return &resp, nil
}

func (s *allocationService) ListAssignments(ctx context.Context, allocationID uuid.UUID) ([]dto.AssignmentResponse, error) {
	alloc, err := s.assignments.FindAllocation(ctx, allocationID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNotFound, err,
			"machine allocation %s not found", allocationID)
	}
	lotID := ""
	if alloc.Lot != nil {
		lotID = alloc.Lot.AllotmentID
	}
	out := make([]dto.AssignmentResponse, 0, len(alloc.Assignments))
	for i := range alloc.Assignments {
		out = append(out, assignmentToResponse(&alloc.Assignments[i], lotID, alloc.MachineName))
	}
	return out, nil
}

func assignmentToResponse(a *model.RollAssignment, lotID, machineName string) dto.AssignmentResponse {
	codes := make([]dto.BarcodeResponse, 0, len(a.Barcodes))
	for _, bc := range a.Barcodes {
		code := barcode.Encode(lotID, machineName, bc.RollNumber)
		if bc.FGRollNo != nil {
			code = barcode.EncodeFG(lotID, machineName, bc.RollNumber, *bc.FGRollNo)
		}
		codes = append(codes, dto.BarcodeResponse{
			RollNumber: bc.RollNumber,
			FGRollNo:   bc.FGRollNo,
			Code:       code,
		})
	}
	return dto.AssignmentResponse{
		ID:                a.ID.String(),
		ShiftID:           a.ShiftID,
		OperatorName:      a.OperatorName,
		AssignedRolls:     a.AssignedRolls,
		GeneratedStickers: a.GeneratedStickers,
		RemainingRolls:    a.RemainingRolls(),
		Barcodes:          codes,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}

func allocationToResponse(alloc *model.MachineAllocation, lotID string) dto.AllocationResponse {
	assignments := make([]dto.AssignmentResponse, 0, len(alloc.Assignments))
	for i := range alloc.Assignments {
		assignments = append(assignments, assignmentToResponse(&alloc.Assignments[i], lotID, alloc.MachineName))
	}
	return dto.AllocationResponse{
		ID:                alloc.ID.String(),
		MachineName:       alloc.MachineName,
		TotalRolls:        alloc.TotalRolls,
		RollPerKg:         alloc.RollPerKg.StringFixed(2),
		PlannedLoadKg:     alloc.PlannedLoadKg().StringFixed(2),
		RemainingCapacity: alloc.TotalRolls - alloc.AssignedTotal(),
		Locked:            alloc.Locked(),
		Assignments:       assignments,
	}
}
