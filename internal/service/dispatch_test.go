package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knitmes/internal/barcode"
	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/worker"
)

type dispatchFixture struct {
	plannings     *stubDispatchRepo
	captures      *stubCaptureRepo
	confirmations *stubConfirmationRepo
	svc           DispatchService
}

// testDispatcher points at a dead address; enqueue failures are logged and
// tolerated, which is what the scan path expects from a down queue.
func testDispatcher() *worker.Dispatcher {
	return worker.NewDispatcher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
}

func newDispatchFixture() *dispatchFixture {
	plannings := newStubDispatchRepo()
	captures := newStubCaptureRepo()
	confirmations := newStubConfirmationRepo()
	return &dispatchFixture{
		plannings:     plannings,
		captures:      captures,
		confirmations: confirmations,
		svc:           NewDispatchService(plannings, captures, confirmations, testDispatcher()),
	}
}

// stockRoll seeds a confirmed, stored roll ready to be picked.
func (f *dispatchFixture) stockRoll(t *testing.T, lotNo, machine string, rollNo int, fgRollNo, netWeight string) {
	t.Helper()
	ctx := context.Background()
	fg := fgRollNo
	require.NoError(t, f.confirmations.CreateBatch(ctx, []model.RollConfirmation{{
		LotID:              uuid.New(),
		MachineName:        machine,
		RollNo:             rollNo,
		FGRollNo:           &fg,
		NetWeight:          decimal.RequireFromString(netWeight),
		FGStickerGenerated: true,
	}}))
	require.NoError(t, f.captures.Create(ctx, &model.StorageCapture{
		LotNo: lotNo, FGRollNo: fgRollNo, LocationCode: "A-01",
	}))
}

func (f *dispatchFixture) plan(t *testing.T, orderID, lotNo string, seq, totalRolls int) *dto.PlanningResponse {
	t.Helper()
	p, err := f.svc.CreatePlanning(context.Background(), dto.CreatePlanningRequest{
		DispatchOrderID:      orderID,
		LotNo:                lotNo,
		LoadingNo:            "LOAD-1",
		SequenceNo:           seq,
		TotalDispatchedRolls: totalRolls,
	})
	require.NoError(t, err)
	return p
}

func scanCode(lotNo, machine string, rollNo int, fgRollNo string) dto.ScanRollRequest {
	return dto.ScanRollRequest{Barcode: barcode.EncodeFG(lotNo, machine, rollNo, fgRollNo)}
}

func TestScanRollHappyPath(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	ctx := context.Background()

	res, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)
	assert.Equal(t, "FG000001", res.FGRollNo)
	assert.Equal(t, 1, res.RemainingQuantity)
	assert.False(t, res.LotComplete)
	assert.Empty(t, res.Warnings)

	// The capture is out of stock now.
	captures, err := f.captures.Search(ctx, "LOT-1", "FG000001")
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.True(t, captures[0].Dispatched)

	rolls, err := f.svc.ListRolls(ctx, "DO-1")
	require.NoError(t, err)
	require.Len(t, rolls, 1)
	assert.Equal(t, "22.50", rolls[0].NetWeight)
	assert.Equal(t, "ravi", rolls[0].LoadedBy)
}

func TestScanRollRejectsThreePartCode(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)

	_, err := f.svc.ScanRoll(context.Background(), "DO-1",
		dto.ScanRollRequest{Barcode: barcode.Encode("LOT-1", "KM-12", 1)}, "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindMalformedBarcode))
}

func TestScanRollWrongLot(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)
	f.stockRoll(t, "LOT-9", "KM-12", 1, "FG000001", "22.50")

	_, err := f.svc.ScanRoll(context.Background(), "DO-1",
		scanCode("LOT-9", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindWrongLot))
}

func TestScanRollDuplicateInSession(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 5)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	ctx := context.Background()

	_, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)

	_, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindDuplicateScan))

	// The duplicate guard is session-scoped; after a reset the same scan
	// fails on the dispatched capture instead.
	f.svc.ResetSession("DO-1")
	_, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindAlreadyDispatched))
}

func TestScanRollNoCapture(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)

	_, err := f.svc.ScanRoll(context.Background(), "DO-1",
		scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindNotFound))
}

func TestScanRollUnknownOrder(t *testing.T) {
	f := newDispatchFixture()

	_, err := f.svc.ScanRoll(context.Background(), "DO-404",
		scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindNotFound))
}

func TestScanRollAdvancesToNextLot(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 1)
	f.plan(t, "DO-1", "LOT-2", 2, 1)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	f.stockRoll(t, "LOT-2", "KM-07", 1, "FG000002", "19.80")
	ctx := context.Background()

	res, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)
	assert.True(t, res.LotComplete)
	assert.Equal(t, "LOT-2", res.NextLotNo)
	assert.False(t, res.OrderComplete)

	// LOT-1 is done; its rolls no longer match the active lot.
	_, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 2, "FG000009"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindWrongLot))

	res, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-2", "KM-07", 1, "FG000002"), "ravi")
	require.NoError(t, err)
	assert.True(t, res.LotComplete)
	assert.True(t, res.OrderComplete)

	// Fully loaded order rejects further scans.
	_, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-2", "KM-07", 2, "FG000003"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindLotComplete))
}

func TestScanRollCaptureUpdateFailureWarns(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	f.captures.markErrs = 1
	ctx := context.Background()

	// The scan still succeeds: the truck has the roll.
	res, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "storage_capture_failed", res.Warnings[0].Code)
	assert.True(t, res.Warnings[0].ManualAction)

	rolls, err := f.svc.ListRolls(ctx, "DO-1")
	require.NoError(t, err)
	assert.Len(t, rolls, 1)
}

func TestScanRollMissingConfirmationLoadsZeroWeight(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 2)
	require.NoError(t, f.captures.Create(context.Background(), &model.StorageCapture{
		LotNo: "LOT-1", FGRollNo: "FG000001", LocationCode: "A-01",
	}))

	res, err := f.svc.ScanRoll(context.Background(), "DO-1",
		scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)
	assert.Equal(t, "FG000001", res.FGRollNo)

	rolls, err := f.svc.ListRolls(context.Background(), "DO-1")
	require.NoError(t, err)
	require.Len(t, rolls, 1)
	assert.Equal(t, "0.00", rolls[0].NetWeight)
}

func TestRemoveRollReopensPlanning(t *testing.T) {
	f := newDispatchFixture()
	f.plan(t, "DO-1", "LOT-1", 1, 1)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	ctx := context.Background()

	res, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.NoError(t, err)
	assert.True(t, res.LotComplete)

	require.NoError(t, f.svc.RemoveRoll(ctx, uuid.MustParse(res.DispatchedRollID)))

	order, err := f.svc.GetOrder(ctx, "DO-1")
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Equal(t, 0, order[0].ScannedRolls)
	assert.False(t, order[0].FullyDispatched)

	// The same roll can be scanned again in this session. The capture is
	// still flagged dispatched, so it trips the already-dispatched gate;
	// removal leaves that to manual reconciliation.
	_, err = f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", 1, "FG000001"), "ravi")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindAlreadyDispatched))
}

func TestUpdatePlanningBelowLoadedCount(t *testing.T) {
	f := newDispatchFixture()
	p := f.plan(t, "DO-1", "LOT-1", 1, 5)
	f.stockRoll(t, "LOT-1", "KM-12", 1, "FG000001", "22.50")
	f.stockRoll(t, "LOT-1", "KM-12", 2, "FG000002", "21.10")
	ctx := context.Background()

	for i, fg := range []string{"FG000001", "FG000002"} {
		_, err := f.svc.ScanRoll(ctx, "DO-1", scanCode("LOT-1", "KM-12", i+1, fg), "ravi")
		require.NoError(t, err)
	}

	_, err := f.svc.UpdatePlanning(ctx, uuid.MustParse(p.ID), dto.UpdatePlanningRequest{TotalDispatchedRolls: 1})
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindValidation))

	// Shrinking to exactly the loaded count closes the planning.
	resp, err := f.svc.UpdatePlanning(ctx, uuid.MustParse(p.ID), dto.UpdatePlanningRequest{TotalDispatchedRolls: 2})
	require.NoError(t, err)
	assert.True(t, resp.FullyDispatched)
	assert.Equal(t, 0, resp.RemainingQuantity)
}

func TestScanRollFullOrderFlow(t *testing.T) {
	// Load a two-lot order to its planned bounds roll by roll.
	f := newDispatchFixture()
	f.plan(t, "DO-9", "LOT-A", 1, 6)
	f.plan(t, "DO-9", "LOT-B", 2, 4)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		f.stockRoll(t, "LOT-A", "KM-01", i, fmt.Sprintf("FG0001%02d", i), "20.00")
	}
	for i := 1; i <= 4; i++ {
		f.stockRoll(t, "LOT-B", "KM-02", i, fmt.Sprintf("FG0002%02d", i), "18.00")
	}

	for i := 1; i <= 6; i++ {
		res, err := f.svc.ScanRoll(ctx, "DO-9", scanCode("LOT-A", "KM-01", i, fmt.Sprintf("FG0001%02d", i)), "ravi")
		require.NoError(t, err)
		assert.Equal(t, 6-i, res.RemainingQuantity)
	}
	for i := 1; i <= 4; i++ {
		res, err := f.svc.ScanRoll(ctx, "DO-9", scanCode("LOT-B", "KM-02", i, fmt.Sprintf("FG0002%02d", i)), "ravi")
		require.NoError(t, err)
		if i == 4 {
			assert.True(t, res.OrderComplete)
		}
	}

	rolls, err := f.svc.ListRolls(ctx, "DO-9")
	require.NoError(t, err)
	assert.Len(t, rolls, 10)
}
