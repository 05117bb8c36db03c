// Package valuation runs the fetch, derive, value pipeline for one ticker.
package valuation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vcavallo/dcf-estimate/cashflow"
	"github.com/vcavallo/dcf-estimate/dcf"
	"github.com/vcavallo/dcf-estimate/logger"
	"github.com/vcavallo/dcf-estimate/yahoo"
)

var (
	// ErrDataUnavailable means no free cash flow could be derived for the
	// ticker. No valuation is produced.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSharesUnavailable means the share count is unknown. The dollar
	// valuation is still produced; only the per-share figure is missing.
	ErrSharesUnavailable = errors.New("shares data unavailable")
)

// DataUnavailableError carries the statement that failed free cash flow
// derivation so callers can show what the provider did report.
type DataUnavailableError struct {
	Ticker    string
	Statement cashflow.Statement
	Err       error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrDataUnavailable, e.Ticker, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error {
	return []error{ErrDataUnavailable, e.Err}
}

// Provider supplies the external data a valuation needs
type Provider interface {
	GetCashFlowStatement(ctx context.Context, ticker string) (cashflow.Statement, error)
	GetProfile(ctx context.Context, ticker string) (*yahoo.Profile, error)
}

// Estimate is the outcome of valuing one ticker. All monetary figures are
// raw currency units.
type Estimate struct {
	Ticker            string
	Statement         cashflow.Statement
	FreeCashFlow      cashflow.Series
	LatestFCF         float64
	GrowthRate        float64
	GrowthDefaulted   bool
	Assumptions       dcf.Assumptions
	Breakdown         dcf.Breakdown
	PresentValue      float64
	SharesOutstanding float64
	PerShare          *float64
	// SharesErr is set when the per-share figure could not be computed
	SharesErr error
	Notices   []string
}

// Estimator values tickers with a fixed configuration
type Estimator struct {
	provider Provider
	cfg      dcf.Config
}

// NewEstimator creates a new estimator
func NewEstimator(p Provider, cfg dcf.Config) *Estimator {
	return &Estimator{provider: p, cfg: cfg}
}

// ResolveGrowthRate returns the profile's quarterly earnings growth, or
// defaultRate with defaulted=true when the profile does not report one.
func ResolveGrowthRate(p *yahoo.Profile, defaultRate float64) (rate float64, defaulted bool) {
	if p == nil || p.EarningsQuarterlyGrowth == nil {
		return defaultRate, true
	}
	return *p.EarningsQuarterlyGrowth, false
}

// Estimate fetches data for ticker and runs the valuation. Errors wrapping
// ErrDataUnavailable mean no result; any other error is unexpected. A
// missing share count is not an error here: it is reported through
// Estimate.SharesErr.
func (e *Estimator) Estimate(ctx context.Context, ticker string) (*Estimate, error) {
	log := logger.Log.With(zap.String("ticker", ticker))

	stmt, err := e.provider.GetCashFlowStatement(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetching cash flow for %s: %w", ticker, err)
	}
	log.Debug("cash flow statement fetched", zap.Strings("labels", stmt.Labels()))

	fcf, err := cashflow.FreeCashFlow(stmt)
	if err != nil {
		return nil, &DataUnavailableError{Ticker: ticker, Statement: stmt, Err: err}
	}
	latest, _ := fcf.Latest()

	est := &Estimate{
		Ticker:       ticker,
		Statement:    stmt,
		FreeCashFlow: fcf,
		LatestFCF:    latest,
	}

	profile, err := e.provider.GetProfile(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetching profile for %s: %w", ticker, err)
	}

	est.GrowthRate, est.GrowthDefaulted = ResolveGrowthRate(profile, e.cfg.DefaultGrowthRate)
	if est.GrowthDefaulted {
		log.Warn("growth rate not reported, using default", zap.Float64("default", est.GrowthRate))
		est.Notices = append(est.Notices, fmt.Sprintf(
			"Growth rate data is not available for %s. Using default growth rate.", ticker))
	}

	est.Assumptions = e.cfg.Assumptions(est.GrowthRate)
	est.Breakdown, err = est.Assumptions.Breakdown(est.LatestFCF)
	if err != nil {
		return nil, fmt.Errorf("valuing %s: %w", ticker, err)
	}
	est.PresentValue = est.Breakdown.PresentValue
	log.Debug("valuation computed",
		zap.Float64("latest_fcf", est.LatestFCF),
		zap.Float64("growth", est.GrowthRate),
		zap.Float64("present_value", est.PresentValue))

	if profile != nil && profile.SharesOutstanding != nil {
		est.SharesOutstanding = *profile.SharesOutstanding
	}
	perShare, err := dcf.PerShare(est.PresentValue, est.SharesOutstanding)
	if err != nil {
		est.SharesErr = fmt.Errorf("%w: %s", ErrSharesUnavailable, ticker)
		est.Notices = append(est.Notices, "Shares outstanding data not available.")
		log.Warn("per-share estimate skipped", zap.Error(err))
		return est, nil
	}
	est.PerShare = &perShare

	return est, nil
}
