package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
)

func seedConfirmed(t *testing.T, repo *stubConfirmationRepo, lot *model.Lot, machine string, rollNo int, net string, confirmedAt time.Time) {
	t.Helper()
	fg := fmt.Sprintf("FG-%s-%s-%d", lot.AllotmentID, machine, rollNo)
	require.NoError(t, repo.CreateBatch(context.Background(), []model.RollConfirmation{{
		LotID:              lot.ID,
		MachineName:        machine,
		RollNo:             rollNo,
		FGRollNo:           &fg,
		NetWeight:          decimal.RequireFromString(net),
		FGStickerGenerated: true,
		ConfirmedAt:        &confirmedAt,
		Lot:                lot,
	}}))
}

func TestReadyWeightGroupsByLotAndMachine(t *testing.T) {
	confirmations := newStubConfirmationRepo()
	lotA := &model.Lot{ID: uuid.New(), AllotmentID: "LOT-A"}
	lotB := &model.Lot{ID: uuid.New(), AllotmentID: "LOT-B"}
	now := time.Now().UTC()

	seedConfirmed(t, confirmations, lotA, "KM-01", 1, "20.50", now)
	seedConfirmed(t, confirmations, lotA, "KM-01", 2, "19.50", now)
	seedConfirmed(t, confirmations, lotA, "KM-02", 1, "21.00", now)
	seedConfirmed(t, confirmations, lotB, "KM-01", 1, "18.25", now)

	svc := NewReportService(confirmations, newStubDispatchRepo())
	report, err := svc.ReadyWeight(context.Background(), dto.ReportFilter{})
	require.NoError(t, err)

	require.Len(t, report.Rows, 3)
	assert.Equal(t, "LOT-A", report.Rows[0].LotNo)
	assert.Equal(t, "KM-01", report.Rows[0].MachineName)
	assert.Equal(t, 2, report.Rows[0].ConfirmedRolls)
	assert.Equal(t, "40.00", report.Rows[0].ReadyWeightKg)
	assert.Equal(t, "KM-02", report.Rows[1].MachineName)
	assert.Equal(t, "LOT-B", report.Rows[2].LotNo)
	assert.Equal(t, 4, report.TotalRolls)
	assert.Equal(t, "79.25", report.TotalWeightKg)
}

func TestReadyWeightDateBounds(t *testing.T) {
	confirmations := newStubConfirmationRepo()
	lot := &model.Lot{ID: uuid.New(), AllotmentID: "LOT-A"}
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04", s)
		require.NoError(t, err)
		return ts
	}
	seedConfirmed(t, confirmations, lot, "KM-01", 1, "10.00", day("2026-08-30 23:59"))
	seedConfirmed(t, confirmations, lot, "KM-01", 2, "20.00", day("2026-08-31 08:00"))
	seedConfirmed(t, confirmations, lot, "KM-01", 3, "30.00", day("2026-08-31 23:30"))
	seedConfirmed(t, confirmations, lot, "KM-01", 4, "40.00", day("2026-09-01 00:10"))

	svc := NewReportService(confirmations, newStubDispatchRepo())

	// The to date is inclusive for the whole day.
	report, err := svc.ReadyWeight(context.Background(), dto.ReportFilter{From: "2026-08-31", To: "2026-08-31"})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 2, report.Rows[0].ConfirmedRolls)
	assert.Equal(t, "50.00", report.Rows[0].ReadyWeightKg)
}

func TestReadyWeightRejectsBadRange(t *testing.T) {
	svc := NewReportService(newStubConfirmationRepo(), newStubDispatchRepo())
	ctx := context.Background()

	_, err := svc.ReadyWeight(ctx, dto.ReportFilter{From: "31-08-2026"})
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindValidation))

	_, err = svc.ReadyWeight(ctx, dto.ReportFilter{From: "2026-08-31", To: "2026-08-01"})
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindValidation))
}

func TestReadyWeightSkipsPendingRolls(t *testing.T) {
	confirmations := newStubConfirmationRepo()
	lot := &model.Lot{ID: uuid.New(), AllotmentID: "LOT-A"}
	seedConfirmed(t, confirmations, lot, "KM-01", 1, "20.00", time.Now().UTC())
	// Pending row: never confirmed, must not count.
	require.NoError(t, confirmations.CreateBatch(context.Background(), []model.RollConfirmation{{
		LotID: lot.ID, MachineName: "KM-01", RollNo: 2, Lot: lot,
	}}))

	svc := NewReportService(confirmations, newStubDispatchRepo())
	report, err := svc.ReadyWeight(context.Background(), dto.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalRolls)
}

func TestDispatchWeight(t *testing.T) {
	plannings := newStubDispatchRepo()
	ctx := context.Background()

	p1 := &model.DispatchPlanning{DispatchOrderID: "DO-1", LotNo: "LOT-A", LoadingNo: "L1", SequenceNo: 1, TotalDispatchedRolls: 2}
	p2 := &model.DispatchPlanning{DispatchOrderID: "DO-1", LotNo: "LOT-B", LoadingNo: "L2", SequenceNo: 2, TotalDispatchedRolls: 2}
	require.NoError(t, plannings.CreatePlanning(ctx, p1))
	require.NoError(t, plannings.CreatePlanning(ctx, p2))
	for i, w := range []string{"20.00", "21.50"} {
		require.NoError(t, plannings.CreateRoll(ctx, &model.DispatchedRoll{
			DispatchPlanningID: p1.ID, LotNo: "LOT-A", FGRollNo: "FG00000" + string(rune('1'+i)),
			NetWeight: decimal.RequireFromString(w),
		}))
	}
	require.NoError(t, plannings.CreateRoll(ctx, &model.DispatchedRoll{
		DispatchPlanningID: p2.ID, LotNo: "LOT-B", FGRollNo: "FG000009",
		NetWeight: decimal.RequireFromString("18.00"),
	}))

	svc := NewReportService(newStubConfirmationRepo(), plannings)
	report, err := svc.DispatchWeight(ctx, "DO-1")
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "LOT-A", report.Rows[0].LotNo)
	assert.Equal(t, 2, report.Rows[0].DispatchedRolls)
	assert.Equal(t, "41.50", report.Rows[0].DispatchWeightKg)
	assert.True(t, report.Rows[0].FullyDispatched)
	assert.False(t, report.Rows[1].FullyDispatched)
	assert.False(t, report.OrderComplete)
	assert.Equal(t, "59.50", report.TotalWeightKg)

	_, err = svc.DispatchWeight(ctx, "DO-404")
	require.Error(t, err)
	assert.True(t, domainerr.Is(err, domainerr.KindNotFound))
}

func TestExportReadyWeightWritesWorkbook(t *testing.T) {
	confirmations := newStubConfirmationRepo()
	lot := &model.Lot{ID: uuid.New(), AllotmentID: "LOT-A"}
	seedConfirmed(t, confirmations, lot, "KM-01", 1, "20.00", time.Now().UTC())

	svc := NewReportService(confirmations, newStubDispatchRepo())
	var buf bytes.Buffer
	require.NoError(t, svc.ExportReadyWeight(context.Background(), dto.ReportFilter{}, &buf))
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
