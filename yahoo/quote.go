package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Quote represents price data for a ticker
type Quote struct {
	Ticker        string
	Currency      string
	Price         float64
	PreviousClose float64
	Timestamp     time.Time
}

// chartResponse represents the Yahoo Finance chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current price for a ticker
func (c *Client) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var chartResp chartResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.chartURL, url.PathEscape(ticker)), &chartResp); err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	if chartResp.Chart.Error != nil {
		return nil, chartResp.Chart.Error
	}

	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned for ticker %s", ticker)
	}

	meta := chartResp.Chart.Result[0].Meta

	return &Quote{
		Ticker:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
		Timestamp:     time.Unix(meta.RegularMarketTime, 0),
	}, nil
}
