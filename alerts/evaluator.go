package alerts

import (
	"fmt"
	"math"

	"github.com/vcavallo/dcf-estimate/valuation"
	"github.com/vcavallo/dcf-estimate/yahoo"
)

// Verdict classifies market price against the per-share estimate
type Verdict string

const (
	Undervalued Verdict = "undervalued"
	Overvalued  Verdict = "overvalued"
	Fair        Verdict = "fair"
)

// Signal is the result of comparing an estimate with the market
type Signal struct {
	Ticker   string
	PerShare float64
	Price    float64
	Currency string
	// Upside is the fractional move from Price to PerShare
	Upside  float64
	Verdict Verdict
	Message string
}

// Triggered reports whether the verdict is worth notifying about
func (s *Signal) Triggered() bool {
	return s.Verdict != Fair
}

// Evaluator checks estimates against a margin of safety
type Evaluator struct {
	margin float64
}

// NewEvaluator creates a new evaluator. margin is fractional: 0.25 means
// the price must sit 25% below the estimate to count as undervalued.
func NewEvaluator(margin float64) *Evaluator {
	return &Evaluator{margin: margin}
}

// Evaluate compares the per-share estimate with the quoted price. It
// returns false when either side is unusable.
func (e *Evaluator) Evaluate(est *valuation.Estimate, quote *yahoo.Quote) (*Signal, bool) {
	if est == nil || est.PerShare == nil || quote == nil || quote.Price <= 0 {
		return nil, false
	}

	value := *est.PerShare
	s := &Signal{
		Ticker:   est.Ticker,
		PerShare: value,
		Price:    quote.Price,
		Currency: quote.Currency,
		Upside:   value/quote.Price - 1,
		Verdict:  Fair,
	}

	switch {
	case value > 0 && quote.Price <= value*(1-e.margin):
		s.Verdict = Undervalued
	case quote.Price >= value*(1+e.margin):
		// Covers a negative estimate too: any positive price is above it.
		s.Verdict = Overvalued
	}

	s.Message = e.formatMessage(s)
	return s, true
}

func (e *Evaluator) formatMessage(s *Signal) string {
	direction := "upside"
	if s.Upside < 0 {
		direction = "downside"
	}
	return fmt.Sprintf("%s looks %s: estimate $%.2f vs price $%.2f (%.1f%% %s, margin %.0f%%)",
		s.Ticker, s.Verdict, s.PerShare, s.Price, math.Abs(s.Upside)*100, direction, e.margin*100)
}
