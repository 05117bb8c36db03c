package cashflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func year(y int) time.Time {
	return time.Date(y, time.September, 30, 0, 0, 0, 0, time.UTC)
}

func TestFreeCashFlowDropsIncompletePeriods(t *testing.T) {
	st := Statement{
		OperatingCashFlow: {
			{Period: year(2024), Value: fp(1000)},
			{Period: year(2023), Value: fp(900)},
		},
		CapitalExpenditure: {
			{Period: year(2024), Value: fp(-250)},
			{Period: year(2023), Value: nil},
		},
	}

	fcf, err := FreeCashFlow(st)
	require.NoError(t, err)
	require.Len(t, fcf, 1)
	assert.Equal(t, year(2024), fcf[0].Period)
	assert.InDelta(t, 750.0, *fcf[0].Value, 1e-9)
}

func TestFreeCashFlowMostRecentFirst(t *testing.T) {
	st := Statement{
		OperatingCashFlow: {
			{Period: year(2021), Value: fp(100)},
			{Period: year(2023), Value: fp(300)},
			{Period: year(2022), Value: fp(200)},
		},
		CapitalExpenditure: {
			{Period: year(2022), Value: fp(-20)},
			{Period: year(2021), Value: fp(-10)},
			{Period: year(2023), Value: fp(-30)},
		},
	}

	fcf, err := FreeCashFlow(st)
	require.NoError(t, err)
	require.Len(t, fcf, 3)
	assert.Equal(t, year(2023), fcf[0].Period)
	assert.Equal(t, year(2022), fcf[1].Period)
	assert.Equal(t, year(2021), fcf[2].Period)

	latest, ok := fcf.Latest()
	require.True(t, ok)
	assert.InDelta(t, 270.0, latest, 1e-9)
}

func TestFreeCashFlowDataUnavailable(t *testing.T) {
	tests := []struct {
		name string
		st   Statement
	}{
		{
			name: "missing operating cash flow",
			st: Statement{
				CapitalExpenditure: {{Period: year(2024), Value: fp(-1)}},
			},
		},
		{
			name: "missing capital expenditure",
			st: Statement{
				OperatingCashFlow: {{Period: year(2024), Value: fp(1)}},
			},
		},
		{
			name: "no complete period",
			st: Statement{
				OperatingCashFlow:  {{Period: year(2024), Value: fp(1)}, {Period: year(2023), Value: nil}},
				CapitalExpenditure: {{Period: year(2024), Value: nil}, {Period: year(2023), Value: fp(-1)}},
			},
		},
		{
			name: "empty statement",
			st:   Statement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fcf, err := FreeCashFlow(tt.st)
			assert.Nil(t, fcf)
			assert.True(t, errors.Is(err, ErrDataUnavailable), "got %v", err)
		})
	}
}

func TestFreeCashFlowIgnoresAlternateLabels(t *testing.T) {
	st := Statement{
		"Operating Cash Flow": {{Period: year(2024), Value: fp(1000)}},
		CapitalExpenditure:    {{Period: year(2024), Value: fp(-100)}},
	}

	_, err := FreeCashFlow(st)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestStatementPeriodsAndLabels(t *testing.T) {
	st := Statement{
		OperatingCashFlow:  {{Period: year(2022)}, {Period: year(2024)}},
		CapitalExpenditure: {{Period: year(2023)}, {Period: year(2024)}},
	}

	assert.Equal(t, []time.Time{year(2024), year(2023), year(2022)}, st.Periods())
	assert.Equal(t, []string{CapitalExpenditure, OperatingCashFlow}, st.Labels())
}

func TestSeriesLatestSkipsMissing(t *testing.T) {
	s := Series{{Period: year(2024)}, {Period: year(2023), Value: fp(42)}}
	v, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	_, ok = Series{}.Latest()
	assert.False(t, ok)
}
