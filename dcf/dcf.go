// Package dcf implements a two-stage discounted cash flow valuation with a
// Gordon-growth terminal value.
package dcf

import (
	"errors"
	"fmt"
	"math"
)

// Million is the scale used when presenting monetary figures.
const Million = 1e6

var (
	// ErrDegenerateRates is returned when the discount rate does not exceed
	// the terminal growth rate, which makes the terminal value undefined.
	ErrDegenerateRates = errors.New("discount rate must exceed terminal growth rate")

	// ErrInvalidHorizon is returned for a projection horizon below one period.
	ErrInvalidHorizon = errors.New("projection years must be at least 1")

	// ErrSharesUnavailable is returned when no usable share count is known.
	ErrSharesUnavailable = errors.New("shares outstanding unavailable")
)

// Config holds the valuation defaults applied to every ticker.
type Config struct {
	DiscountRate      float64 `yaml:"discount_rate"`
	TerminalGrowthCap float64 `yaml:"terminal_growth_cap"`
	ProjectionYears   int     `yaml:"projection_years"`
	DefaultGrowthRate float64 `yaml:"default_growth_rate"`
}

// DefaultConfig returns the documented defaults: 7.82% discount rate, 3%
// terminal growth cap, 5 projection years and 8% fallback growth.
func DefaultConfig() Config {
	return Config{
		DiscountRate:      0.0782,
		TerminalGrowthCap: 0.03,
		ProjectionYears:   5,
		DefaultGrowthRate: 0.08,
	}
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.ProjectionYears < 1 {
		return fmt.Errorf("projection_years: %w", ErrInvalidHorizon)
	}
	if c.DiscountRate <= -1 {
		return fmt.Errorf("discount_rate must be greater than -1")
	}
	if c.DiscountRate <= c.TerminalGrowthCap {
		return fmt.Errorf("discount_rate %.4f <= terminal_growth_cap %.4f: %w",
			c.DiscountRate, c.TerminalGrowthCap, ErrDegenerateRates)
	}
	return nil
}

// Assumptions builds the assumption set for a resolved growth rate.
func (c Config) Assumptions(growthRate float64) Assumptions {
	return Assumptions{
		GrowthRate:         growthRate,
		DiscountRate:       c.DiscountRate,
		TerminalGrowthRate: TerminalGrowth(growthRate, c.TerminalGrowthCap),
		ProjectionYears:    c.ProjectionYears,
	}
}

// TerminalGrowth caps the perpetual growth rate at ceiling.
func TerminalGrowth(growthRate, ceiling float64) float64 {
	return math.Min(growthRate, ceiling)
}

// Assumptions are the scalar inputs to a single valuation. All rates are
// fractional (0.05 is 5%).
type Assumptions struct {
	GrowthRate         float64
	DiscountRate       float64
	TerminalGrowthRate float64
	ProjectionYears    int
}

// Validate checks the preconditions of the closed-form formula
func (a Assumptions) Validate() error {
	if a.ProjectionYears < 1 {
		return ErrInvalidHorizon
	}
	if a.DiscountRate <= a.TerminalGrowthRate {
		return fmt.Errorf("%w (discount %.4f, terminal growth %.4f)",
			ErrDegenerateRates, a.DiscountRate, a.TerminalGrowthRate)
	}
	return nil
}

// Breakdown itemises a valuation.
type Breakdown struct {
	Projected       []float64 // projected FCF for years 1..n
	Discounted      []float64 // present value of each projected FCF
	TerminalValue   float64   // value at the end of year n
	TerminalPV      float64   // present value of TerminalValue
	PresentValue    float64   // sum of Discounted plus TerminalPV
	DiscountedTotal float64   // sum of Discounted
}

// Value returns the present value of lastFCF under the assumptions.
func (a Assumptions) Value(lastFCF float64) (float64, error) {
	b, err := a.Breakdown(lastFCF)
	if err != nil {
		return 0, err
	}
	return b.PresentValue, nil
}

// Breakdown projects lastFCF over the horizon, discounts each year and adds
// the discounted terminal value.
func (a Assumptions) Breakdown(lastFCF float64) (Breakdown, error) {
	if err := a.Validate(); err != nil {
		return Breakdown{}, err
	}

	n := a.ProjectionYears
	b := Breakdown{
		Projected:  make([]float64, n),
		Discounted: make([]float64, n),
	}

	for t := 1; t <= n; t++ {
		fcf := lastFCF * math.Pow(1+a.GrowthRate, float64(t))
		pv := fcf / math.Pow(1+a.DiscountRate, float64(t))
		b.Projected[t-1] = fcf
		b.Discounted[t-1] = pv
		b.DiscountedTotal += pv
	}

	b.TerminalValue = b.Projected[n-1] * (1 + a.TerminalGrowthRate) / (a.DiscountRate - a.TerminalGrowthRate)
	b.TerminalPV = b.TerminalValue / math.Pow(1+a.DiscountRate, float64(n))
	b.PresentValue = b.DiscountedTotal + b.TerminalPV

	return b, nil
}

// Value is the functional form of Assumptions.Value.
func Value(lastFCF, growthRate, discountRate, terminalGrowthRate float64, projectionYears int) (float64, error) {
	return Assumptions{
		GrowthRate:         growthRate,
		DiscountRate:       discountRate,
		TerminalGrowthRate: terminalGrowthRate,
		ProjectionYears:    projectionYears,
	}.Value(lastFCF)
}

// PerShare divides a valuation by the share count. Both must use the same
// currency unit; value is in raw units, not millions.
func PerShare(value, sharesOutstanding float64) (float64, error) {
	if sharesOutstanding <= 0 || math.IsNaN(sharesOutstanding) {
		return 0, ErrSharesUnavailable
	}
	return value / sharesOutstanding, nil
}
