package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vcavallo/dcf-estimate/cashflow"
	"github.com/vcavallo/dcf-estimate/logger"
)

// timeseriesTypes maps fundamentals-timeseries types to statement labels
var timeseriesTypes = map[string]string{
	"annualCashFlowFromContinuingOperatingActivities": cashflow.OperatingCashFlow,
	"annualCapitalExpenditure":                        cashflow.CapitalExpenditure,
	"annualOperatingCashFlow":                         "Operating Cash Flow",
	"annualFreeCashFlow":                              "Free Cash Flow",
}

// earliest period requested from the timeseries endpoint
var timeseriesStart = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)

// Profile holds the company statistics the valuation consumes. Nil fields
// were not reported by Yahoo.
type Profile struct {
	Ticker                  string
	EarningsQuarterlyGrowth *float64
	SharesOutstanding       *float64
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []json.RawMessage `json:"result"`
		Error  *apiError         `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Meta struct {
		Type []string `json:"type"`
	} `json:"meta"`
}

type timeseriesPoint struct {
	AsOfDate      string   `json:"asOfDate"`
	PeriodType    string   `json:"periodType"`
	CurrencyCode  string   `json:"currencyCode"`
	ReportedValue rawValue `json:"reportedValue"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				EarningsQuarterlyGrowth rawValue `json:"earningsQuarterlyGrowth"`
				SharesOutstanding       rawValue `json:"sharesOutstanding"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// GetCashFlowStatement fetches the annual cash-flow statement for a ticker
func (c *Client) GetCashFlowStatement(ctx context.Context, ticker string) (cashflow.Statement, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(timeseriesTypes))
	for t := range timeseriesTypes {
		types = append(types, t)
	}

	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("type", strings.Join(types, ","))
	q.Set("period1", strconv.FormatInt(timeseriesStart.Unix(), 10))
	q.Set("period2", strconv.FormatInt(time.Now().Unix(), 10))
	endpoint := fmt.Sprintf("%s/%s?%s", c.timeseriesURL, url.PathEscape(ticker), q.Encode())

	var resp timeseriesResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching cash flow statement: %w", err)
	}
	if resp.Timeseries.Error != nil {
		return nil, resp.Timeseries.Error
	}

	return parseTimeseries(resp.Timeseries.Result)
}

func parseTimeseries(results []json.RawMessage) (cashflow.Statement, error) {
	stmt := make(cashflow.Statement)

	for _, raw := range results {
		var meta timeseriesMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("decoding timeseries meta: %w", err)
		}
		if len(meta.Meta.Type) == 0 {
			continue
		}
		typ := meta.Meta.Type[0]
		label, ok := timeseriesTypes[typ]
		if !ok {
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decoding timeseries %s: %w", typ, err)
		}
		data, ok := fields[typ]
		if !ok {
			// Yahoo returns the type with no data key when nothing is reported.
			continue
		}

		var points []*timeseriesPoint
		if err := json.Unmarshal(data, &points); err != nil {
			return nil, fmt.Errorf("decoding timeseries %s: %w", typ, err)
		}

		var series cashflow.Series
		for _, p := range points {
			if p == nil {
				continue
			}
			period, err := time.Parse("2006-01-02", p.AsOfDate)
			if err != nil {
				logger.Warn("skipping timeseries point with bad date",
					zap.String("type", typ), zap.String("asOfDate", p.AsOfDate))
				continue
			}
			series = append(series, cashflow.Point{Period: period, Value: p.ReportedValue.Raw})
		}
		if len(series) == 0 {
			continue
		}

		// Yahoo lists oldest first.
		for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
			series[i], series[j] = series[j], series[i]
		}
		stmt[label] = series
	}

	return stmt, nil
}

// GetProfile fetches the key statistics used for growth and share count
func (c *Client) GetProfile(ctx context.Context, ticker string) (*Profile, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	crumb, err := c.getCrumb(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining crumb: %w", err)
	}

	q := url.Values{}
	q.Set("modules", "defaultKeyStatistics")
	q.Set("crumb", crumb)
	endpoint := fmt.Sprintf("%s/%s?%s", c.summaryURL, url.PathEscape(ticker), q.Encode())

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no profile returned for ticker %s", ticker)
	}

	stats := resp.QuoteSummary.Result[0].DefaultKeyStatistics
	return &Profile{
		Ticker:                  ticker,
		EarningsQuarterlyGrowth: stats.EarningsQuarterlyGrowth.Raw,
		SharesOutstanding:       stats.SharesOutstanding.Raw,
	}, nil
}
