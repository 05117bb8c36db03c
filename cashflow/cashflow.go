package cashflow

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Canonical statement labels used for free cash flow
const (
	OperatingCashFlow  = "Cash Flow From Continuing Operating Activities"
	CapitalExpenditure = "Capital Expenditure"
)

// ErrDataUnavailable is returned when a statement lacks the line items
// needed to derive free cash flow, or every period is incomplete.
var ErrDataUnavailable = errors.New("free cash flow data unavailable")

// Point is a single reported value for a period. A nil Value means the
// provider had no figure for that period.
type Point struct {
	Period time.Time
	Value  *float64
}

// Series is a time series of reported values, most recent first
type Series []Point

// Statement maps a line-item label to its time series
type Statement map[string]Series

// Latest returns the most recent value in the series
func (s Series) Latest() (float64, bool) {
	for _, p := range s {
		if p.Value != nil {
			return *p.Value, true
		}
	}
	return 0, false
}

// Periods returns every distinct period in the statement, most recent first
func (st Statement) Periods() []time.Time {
	seen := make(map[time.Time]bool)
	var periods []time.Time
	for _, series := range st {
		for _, p := range series {
			if !seen[p.Period] {
				seen[p.Period] = true
				periods = append(periods, p.Period)
			}
		}
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].After(periods[j])
	})
	return periods
}

// Labels returns the statement's line-item labels in sorted order
func (st Statement) Labels() []string {
	labels := make([]string, 0, len(st))
	for label := range st {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// FreeCashFlow derives free cash flow as operating cash flow plus capital
// expenditure (reported as a non-positive figure). Periods missing either
// input are dropped. The result is ordered most recent first.
func FreeCashFlow(st Statement) (Series, error) {
	ocf, ok := st[OperatingCashFlow]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrDataUnavailable, OperatingCashFlow)
	}
	capex, ok := st[CapitalExpenditure]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrDataUnavailable, CapitalExpenditure)
	}

	capexByPeriod := make(map[time.Time]float64, len(capex))
	for _, p := range capex {
		if p.Value != nil {
			capexByPeriod[p.Period] = *p.Value
		}
	}

	var fcf Series
	for _, p := range ocf {
		if p.Value == nil {
			continue
		}
		c, ok := capexByPeriod[p.Period]
		if !ok {
			continue
		}
		v := *p.Value + c
		fcf = append(fcf, Point{Period: p.Period, Value: &v})
	}

	if len(fcf) == 0 {
		return nil, fmt.Errorf("%w: no period has both %q and %q", ErrDataUnavailable, OperatingCashFlow, CapitalExpenditure)
	}

	sort.SliceStable(fcf, func(i, j int) bool {
		return fcf[i].Period.After(fcf[j].Period)
	})

	return fcf, nil
}
