package service

import (
	"context"
	"io"
	"sort"
	"strconv"
	"time"

	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/infra"
	"knitmes/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService aggregates confirmed and dispatched weight. All arithmetic
// is decimal; float accumulation would drift over thousands of rolls.
type ReportService interface {
	ReadyWeight(ctx context.Context, filter dto.ReportFilter) (*dto.ReadyWeightReport, error)
	DispatchWeight(ctx context.Context, dispatchOrderID string) (*dto.DispatchWeightReport, error)
	ExportReadyWeight(ctx context.Context, filter dto.ReportFilter, w io.Writer) error
}

type reportService struct {
	confirmations repository.ConfirmationRepository
	plannings     repository.DispatchRepository
}

func NewReportService(confirmations repository.ConfirmationRepository, plannings repository.DispatchRepository) ReportService {
	return &reportService{confirmations: confirmations, plannings: plannings}
}

// ReadyWeight groups confirmed rolls by lot and machine and sums their net
// weight. The date filter bounds the confirmation timestamp, [from, to].
func (s *reportService) ReadyWeight(ctx context.Context, filter dto.ReportFilter) (*dto.ReadyWeightReport, error) {
	from, to, err := parseReportRange(filter)
	if err != nil {
		return nil, err
	}

	confirmations, err := s.confirmations.ListConfirmed(ctx)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading confirmed rolls")
	}

	type group struct {
		rolls  int
		weight decimal.Decimal
	}
	type key struct{ lotNo, machine string }
	groups := make(map[key]*group)
	for _, c := range confirmations {
		if c.ConfirmedAt == nil || c.Lot == nil {
			continue
		}
		if from != nil && c.ConfirmedAt.Before(*from) {
			continue
		}
		if to != nil && !c.ConfirmedAt.Before(*to) {
			continue
		}
		k := key{lotNo: c.Lot.AllotmentID, machine: c.MachineName}
		g := groups[k]
		if g == nil {
			g = &group{weight: decimal.Zero}
			groups[k] = g
		}
		g.rolls++
		g.weight = g.weight.Add(c.NetWeight)
	}

	report := &dto.ReadyWeightReport{Rows: make([]dto.ReadyWeightRow, 0, len(groups))}
	total := decimal.Zero
	for k, g := range groups {
		report.Rows = append(report.Rows, dto.ReadyWeightRow{
			LotNo:          k.lotNo,
			MachineName:    k.machine,
			ConfirmedRolls: g.rolls,
			ReadyWeightKg:  g.weight.StringFixed(2),
		})
		report.TotalRolls += g.rolls
		total = total.Add(g.weight)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].LotNo != report.Rows[j].LotNo {
			return report.Rows[i].LotNo < report.Rows[j].LotNo
		}
		return report.Rows[i].MachineName < report.Rows[j].MachineName
	})
	report.TotalWeightKg = total.StringFixed(2)
	return report, nil
}

// DispatchWeight reports one order's loaded rolls and weight per lot. The
// order is complete only when every lot reached its planned roll count.
func (s *reportService) DispatchWeight(ctx context.Context, dispatchOrderID string) (*dto.DispatchWeightReport, error) {
	plannings, err := s.plannings.ListByOrder(ctx, dispatchOrderID)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading dispatch order %s", dispatchOrderID)
	}
	if len(plannings) == 0 {
		return nil, domainerr.New(domainerr.KindNotFound, "dispatch order %s has no plannings", dispatchOrderID)
	}

	report := &dto.DispatchWeightReport{
		DispatchOrderID: dispatchOrderID,
		Rows:            make([]dto.DispatchWeightRow, 0, len(plannings)),
		OrderComplete:   true,
	}
	total := decimal.Zero
	for _, p := range plannings {
		weight := decimal.Zero
		for _, r := range p.Rolls {
			weight = weight.Add(r.NetWeight)
		}
		complete := len(p.Rolls) >= p.TotalDispatchedRolls
		if !complete {
			report.OrderComplete = false
		}
		report.Rows = append(report.Rows, dto.DispatchWeightRow{
			LotNo:            p.LotNo,
			LoadingNo:        p.LoadingNo,
			PlannedRolls:     p.TotalDispatchedRolls,
			DispatchedRolls:  len(p.Rolls),
			DispatchWeightKg: weight.StringFixed(2),
			FullyDispatched:  complete,
		})
		total = total.Add(weight)
	}
	report.TotalWeightKg = total.StringFixed(2)
	return report, nil
}

func (s *reportService) ExportReadyWeight(ctx context.Context, filter dto.ReportFilter, w io.Writer) error {
	report, err := s.ReadyWeight(ctx, filter)
	if err != nil {
		return err
	}
	headers := []string{"Lot No", "Machine", "Confirmed Rolls", "Ready Weight (kg)"}
	data := make([][]string, 0, len(report.Rows)+1)
	for _, row := range report.Rows {
		data = append(data, []string{
			row.LotNo,
			row.MachineName,
			strconv.Itoa(row.ConfirmedRolls),
			row.ReadyWeightKg,
		})
	}
	data = append(data, []string{"Total", "", strconv.Itoa(report.TotalRolls), report.TotalWeightKg})
	return infra.WriteExcel(w, "Ready Weight", headers, data)
}

// parseReportRange turns the YYYY-MM-DD filter into [from, to) bounds, with
// to made exclusive by adding a day.
func parseReportRange(filter dto.ReportFilter) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if filter.From != "" {
		t, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, nil, domainerr.New(domainerr.KindValidation, "invalid from date %q", filter.From)
		}
		from = &t
	}
	if filter.To != "" {
		t, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, nil, domainerr.New(domainerr.KindValidation, "invalid to date %q", filter.To)
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domainerr.New(domainerr.KindValidation, "date range %s..%s is inverted", filter.From, filter.To)
	}
	return from, to, nil
}
