package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"knitmes/internal/model"
	"knitmes/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repository stubs shared by the service tests. They return
// gorm.ErrRecordNotFound where the real implementations would, since the
// services branch on it.

type stubLotRepo struct {
	lots map[string]*model.Lot // keyed by allotment id
}

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[string]*model.Lot)}
}

func (r *stubLotRepo) add(lot *model.Lot) *model.Lot {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	for i := range lot.Machines {
		if lot.Machines[i].ID == uuid.Nil {
			lot.Machines[i].ID = uuid.New()
		}
		lot.Machines[i].LotID = lot.ID
	}
	r.lots[lot.AllotmentID] = lot
	return lot
}

func (r *stubLotRepo) Create(_ context.Context, lot *model.Lot) error {
	r.add(lot)
	return nil
}

func (r *stubLotRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Lot, error) {
	for _, lot := range r.lots {
		if lot.ID == id {
			return lot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLotRepo) FindByAllotmentID(_ context.Context, allotmentID string) (*model.Lot, error) {
	lot, ok := r.lots[allotmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return lot, nil
}

func (r *stubLotRepo) List(_ context.Context, _, _ *time.Time, _ *model.LotStatus, _, _ int) ([]model.Lot, int64, error) {
	out := make([]model.Lot, 0, len(r.lots))
	for _, lot := range r.lots {
		out = append(out, *lot)
	}
	return out, int64(len(out)), nil
}

func (r *stubLotRepo) Update(_ context.Context, lot *model.Lot) error {
	r.lots[lot.AllotmentID] = lot
	return nil
}

func (r *stubLotRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.LotStatus) error {
	for _, lot := range r.lots {
		if lot.ID == id {
			lot.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.LotRepository = (*stubLotRepo)(nil)

type stubAssignmentRepo struct {
	allocations map[uuid.UUID]*model.MachineAllocation
	assignments map[uuid.UUID]*model.RollAssignment
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{
		allocations: make(map[uuid.UUID]*model.MachineAllocation),
		assignments: make(map[uuid.UUID]*model.RollAssignment),
	}
}

func (r *stubAssignmentRepo) addAllocation(alloc *model.MachineAllocation) *model.MachineAllocation {
	if alloc.ID == uuid.Nil {
		alloc.ID = uuid.New()
	}
	r.allocations[alloc.ID] = alloc
	return alloc
}

func (r *stubAssignmentRepo) FindAllocation(_ context.Context, id uuid.UUID) (*model.MachineAllocation, error) {
	alloc, ok := r.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return alloc, nil
}

func (r *stubAssignmentRepo) ListByAllocation(_ context.Context, allocationID uuid.UUID) ([]model.RollAssignment, error) {
	alloc, ok := r.allocations[allocationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return alloc.Assignments, nil
}

func (r *stubAssignmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RollAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Behave like a fresh DB read: callers mutate the result freely.
	cp := *a
	cp.Barcodes = append([]model.GeneratedBarcode(nil), a.Barcodes...)
	return &cp, nil
}

func (r *stubAssignmentRepo) Create(_ context.Context, a *model.RollAssignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.assignments[a.ID] = a
	if alloc, ok := r.allocations[a.MachineAllocationID]; ok {
		alloc.Assignments = append(alloc.Assignments, *a)
		a.Allocation = alloc
	}
	return nil
}

func (r *stubAssignmentRepo) AddBarcodes(_ context.Context, barcodes []model.GeneratedBarcode) error {
	for i := range barcodes {
		if barcodes[i].ID == uuid.Nil {
			barcodes[i].ID = uuid.New()
		}
		a, ok := r.assignments[barcodes[i].RollAssignmentID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		a.Barcodes = append(a.Barcodes, barcodes[i])
	}
	return nil
}

func (r *stubAssignmentRepo) MaxRollNumber(_ context.Context, allocationID uuid.UUID) (int, error) {
	max := 0
	for _, a := range r.assignments {
		if a.MachineAllocationID != allocationID {
			continue
		}
		for _, bc := range a.Barcodes {
			if bc.RollNumber > max {
				max = bc.RollNumber
			}
		}
	}
	return max, nil
}

func (r *stubAssignmentRepo) FindBarcodeForRoll(_ context.Context, allocationID uuid.UUID, rollNumber int) (*model.GeneratedBarcode, error) {
	for _, a := range r.assignments {
		if a.MachineAllocationID != allocationID {
			continue
		}
		for i := range a.Barcodes {
			if a.Barcodes[i].RollNumber == rollNumber {
				return &a.Barcodes[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAssignmentRepo) SetBarcodeFG(_ context.Context, barcodeID uuid.UUID, fgRollNo string) error {
	for _, a := range r.assignments {
		for i := range a.Barcodes {
			if a.Barcodes[i].ID == barcodeID {
				a.Barcodes[i].FGRollNo = &fgRollNo
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubAssignmentRepo) IncrementStickers(_ context.Context, assignmentID uuid.UUID) error {
	a, ok := r.assignments[assignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.GeneratedStickers++
	return nil
}

var _ repository.AssignmentRepository = (*stubAssignmentRepo)(nil)

type stubConfirmationRepo struct {
	confirmations map[uuid.UUID]*model.RollConfirmation
	fgSeq         int
	updateErrs    int // fail the next N Update calls
}

func newStubConfirmationRepo() *stubConfirmationRepo {
	return &stubConfirmationRepo{confirmations: make(map[uuid.UUID]*model.RollConfirmation)}
}

func (r *stubConfirmationRepo) CreateBatch(_ context.Context, cs []model.RollConfirmation) error {
	for i := range cs {
		if cs[i].ID == uuid.Nil {
			cs[i].ID = uuid.New()
		}
		c := cs[i]
		r.confirmations[c.ID] = &c
	}
	return nil
}

func (r *stubConfirmationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RollConfirmation, error) {
	c, ok := r.confirmations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubConfirmationRepo) FindByRoll(_ context.Context, lotID uuid.UUID, machineName string, rollNo int) (*model.RollConfirmation, error) {
	for _, c := range r.confirmations {
		if c.LotID == lotID && c.MachineName == machineName && c.RollNo == rollNo {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubConfirmationRepo) FindByFGRollNo(_ context.Context, fgRollNo string) (*model.RollConfirmation, error) {
	for _, c := range r.confirmations {
		if c.FGRollNo != nil && *c.FGRollNo == fgRollNo {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubConfirmationRepo) ListByLot(_ context.Context, lotID uuid.UUID) ([]model.RollConfirmation, error) {
	var out []model.RollConfirmation
	for _, c := range r.confirmations {
		if c.LotID == lotID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MachineName != out[j].MachineName {
			return out[i].MachineName < out[j].MachineName
		}
		return out[i].RollNo < out[j].RollNo
	})
	return out, nil
}

func (r *stubConfirmationRepo) ListConfirmed(_ context.Context) ([]model.RollConfirmation, error) {
	var out []model.RollConfirmation
	for _, c := range r.confirmations {
		if c.FGStickerGenerated {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubConfirmationRepo) Update(_ context.Context, c *model.RollConfirmation) error {
	if r.updateErrs > 0 {
		r.updateErrs--
		return gorm.ErrInvalidTransaction
	}
	r.confirmations[c.ID] = c
	return nil
}

func (r *stubConfirmationRepo) NextFGRollNo(_ context.Context) (string, error) {
	r.fgSeq++
	return fmt.Sprintf("FG%06d", r.fgSeq), nil
}

var _ repository.ConfirmationRepository = (*stubConfirmationRepo)(nil)

type stubLocationRepo struct {
	locations []model.Location
}

func newStubLocationRepo(codes ...string) *stubLocationRepo {
	r := &stubLocationRepo{}
	for _, code := range codes {
		r.locations = append(r.locations, model.Location{
			ID: uuid.New(), LocationCode: code, Active: true,
		})
	}
	return r
}

func (r *stubLocationRepo) List(_ context.Context) ([]model.Location, error) {
	return r.locations, nil
}

func (r *stubLocationRepo) FindByCode(_ context.Context, code string) (*model.Location, error) {
	for i := range r.locations {
		if r.locations[i].LocationCode == code {
			return &r.locations[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLocationRepo) Create(_ context.Context, l *model.Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.locations = append(r.locations, *l)
	return nil
}

var _ repository.LocationRepository = (*stubLocationRepo)(nil)

type stubCaptureRepo struct {
	captures   map[uuid.UUID]*model.StorageCapture
	createErrs int // fail the next N Create calls
	markErrs   int // fail the next N MarkDispatched calls
}

func newStubCaptureRepo() *stubCaptureRepo {
	return &stubCaptureRepo{captures: make(map[uuid.UUID]*model.StorageCapture)}
}

func (r *stubCaptureRepo) Create(_ context.Context, c *model.StorageCapture) error {
	if r.createErrs > 0 {
		r.createErrs--
		return gorm.ErrInvalidTransaction
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.captures[c.ID] = c
	return nil
}

func (r *stubCaptureRepo) FindByLot(_ context.Context, lotNo string) ([]model.StorageCapture, error) {
	var out []model.StorageCapture
	for _, c := range r.captures {
		if c.LotNo == lotNo {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubCaptureRepo) FindByFGRoll(_ context.Context, lotNo, fgRollNo string) (*model.StorageCapture, error) {
	for _, c := range r.captures {
		if c.LotNo == lotNo && c.FGRollNo == fgRollNo {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCaptureRepo) ListActive(_ context.Context) ([]model.StorageCapture, error) {
	var out []model.StorageCapture
	for _, c := range r.captures {
		if !c.Dispatched {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCaptureRepo) Search(_ context.Context, lotNo, fgRollNo string) ([]model.StorageCapture, error) {
	var out []model.StorageCapture
	for _, c := range r.captures {
		if lotNo != "" && c.LotNo != lotNo {
			continue
		}
		if fgRollNo != "" && c.FGRollNo != fgRollNo {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCaptureRepo) MarkDispatched(_ context.Context, id uuid.UUID) error {
	if r.markErrs > 0 {
		r.markErrs--
		return gorm.ErrInvalidTransaction
	}
	c, ok := r.captures[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Dispatched = true
	return nil
}

var _ repository.CaptureRepository = (*stubCaptureRepo)(nil)

type stubDispatchRepo struct {
	plannings map[uuid.UUID]*model.DispatchPlanning
	rolls     map[uuid.UUID]*model.DispatchedRoll
}

func newStubDispatchRepo() *stubDispatchRepo {
	return &stubDispatchRepo{
		plannings: make(map[uuid.UUID]*model.DispatchPlanning),
		rolls:     make(map[uuid.UUID]*model.DispatchedRoll),
	}
}

func (r *stubDispatchRepo) ListPlannings(_ context.Context) ([]model.DispatchPlanning, error) {
	var out []model.DispatchPlanning
	for _, p := range r.plannings {
		out = append(out, r.withRolls(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DispatchOrderID != out[j].DispatchOrderID {
			return out[i].DispatchOrderID < out[j].DispatchOrderID
		}
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out, nil
}

func (r *stubDispatchRepo) ListByOrder(_ context.Context, dispatchOrderID string) ([]model.DispatchPlanning, error) {
	var out []model.DispatchPlanning
	for _, p := range r.plannings {
		if p.DispatchOrderID == dispatchOrderID {
			out = append(out, r.withRolls(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out, nil
}

func (r *stubDispatchRepo) withRolls(p *model.DispatchPlanning) model.DispatchPlanning {
	cp := *p
	cp.Rolls = nil
	for _, roll := range r.rolls {
		if roll.DispatchPlanningID == p.ID {
			cp.Rolls = append(cp.Rolls, *roll)
		}
	}
	return cp
}

func (r *stubDispatchRepo) FindPlanning(_ context.Context, id uuid.UUID) (*model.DispatchPlanning, error) {
	p, ok := r.plannings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.withRolls(p)
	return &cp, nil
}

func (r *stubDispatchRepo) CreatePlanning(_ context.Context, p *model.DispatchPlanning) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.plannings[p.ID] = p
	return nil
}

func (r *stubDispatchRepo) UpdatePlanning(_ context.Context, p *model.DispatchPlanning) error {
	stored, ok := r.plannings[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*stored = *p
	stored.Rolls = nil
	return nil
}

func (r *stubDispatchRepo) CreateRoll(_ context.Context, roll *model.DispatchedRoll) error {
	if roll.ID == uuid.Nil {
		roll.ID = uuid.New()
	}
	r.rolls[roll.ID] = roll
	return nil
}

func (r *stubDispatchRepo) FindRoll(_ context.Context, id uuid.UUID) (*model.DispatchedRoll, error) {
	roll, ok := r.rolls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return roll, nil
}

func (r *stubDispatchRepo) DeleteRoll(_ context.Context, id uuid.UUID) error {
	delete(r.rolls, id)
	return nil
}

func (r *stubDispatchRepo) ListRollsByOrder(_ context.Context, dispatchOrderID string) ([]model.DispatchedRoll, error) {
	var out []model.DispatchedRoll
	for _, roll := range r.rolls {
		p, ok := r.plannings[roll.DispatchPlanningID]
		if ok && p.DispatchOrderID == dispatchOrderID {
			out = append(out, *roll)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoadedAt.Before(out[j].LoadedAt) })
	return out, nil
}

func (r *stubDispatchRepo) CountRolls(_ context.Context, planningID uuid.UUID) (int, error) {
	count := 0
	for _, roll := range r.rolls {
		if roll.DispatchPlanningID == planningID {
			count++
		}
	}
	return count, nil
}

var _ repository.DispatchRepository = (*stubDispatchRepo)(nil)
