package admin

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/thebrando/brando/payment"
	"github.com/xuri/excelize/v2"
)

type DayRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// Stats reports revenue from settled payments only. Payments still waiting
// for reconciliation are counted apart.
type Stats struct {
	Users             int64        `json:"users"`
	Rooms             int64        `json:"rooms"`
	Bookings          int64        `json:"bookings"`
	Payments          int64        `json:"payments"`
	Revenue           float64      `json:"revenue"`
	ByDay             []DayRevenue `json:"byDay"`
	UnsettledPayments int64        `json:"unsettledPayments"`
	UnsettledRevenue  float64      `json:"unsettledRevenue"`
}

// foldLedger sums the ledger and groups it by UTC day, oldest first.
func foldLedger(ledger []payment.Payment) (float64, []DayRevenue) {
	var total float64
	days := make(map[string]*DayRevenue)
	for _, p := range ledger {
		total += p.Amount
		key := p.CreatedAt.UTC().Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &DayRevenue{Day: key}
			days[key] = d
		}
		d.Revenue += p.Amount
		d.Count++
	}

	out := make([]DayRevenue, 0, len(days))
	for _, d := range days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return total, out
}

const (
	summarySheet = "Summary"
	revenueSheet = "Revenue"
)

func (s *Stats) workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(revenueSheet); err != nil {
		return nil, errors.Wrap(err, "add sheet")
	}

	summary := [][2]any{
		{"Users", s.Users},
		{"Rooms", s.Rooms},
		{"Bookings", s.Bookings},
		{"Payments", s.Payments},
		{"Revenue", s.Revenue},
		{"Unsettled payments", s.UnsettledPayments},
		{"Unsettled revenue", s.UnsettledRevenue},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{row[0], row[1]}); err != nil {
			return nil, errors.Wrap(err, "write summary")
		}
	}

	headers := []string{"Day", "Revenue", "Payments"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(revenueSheet, cell, header); err != nil {
			return nil, errors.Wrap(err, "write header")
		}
	}
	for i, d := range s.ByDay {
		if err := f.SetSheetRow(revenueSheet, fmt.Sprintf("A%d", i+2), &[]any{d.Day, d.Revenue, d.Count}); err != nil {
			return nil, errors.Wrap(err, "write revenue")
		}
	}
	return f, nil
}
