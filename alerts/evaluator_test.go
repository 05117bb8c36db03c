package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcavallo/dcf-estimate/valuation"
	"github.com/vcavallo/dcf-estimate/yahoo"
)

func estimate(perShare float64) *valuation.Estimate {
	return &valuation.Estimate{Ticker: "ACME", PerShare: &perShare}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		perShare float64
		price    float64
		want     Verdict
	}{
		{"deep discount", 100, 70, Undervalued},
		{"exactly at margin below", 100, 75, Undervalued},
		{"inside band", 100, 110, Fair},
		{"exactly at margin above", 100, 125, Overvalued},
		{"premium", 100, 200, Overvalued},
		{"negative estimate", -10, 5, Overvalued},
	}

	e := NewEvaluator(0.25)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := e.Evaluate(estimate(tt.perShare), &yahoo.Quote{Ticker: "ACME", Price: tt.price})
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Verdict)
			assert.Equal(t, tt.want != Fair, s.Triggered())
		})
	}
}

func TestEvaluateMessage(t *testing.T) {
	s, ok := NewEvaluator(0.25).Evaluate(estimate(60), &yahoo.Quote{Price: 40})
	require.True(t, ok)
	assert.InDelta(t, 0.5, s.Upside, 1e-12)
	assert.Equal(t, "ACME looks undervalued: estimate $60.00 vs price $40.00 (50.0% upside, margin 25%)", s.Message)

	s, ok = NewEvaluator(0.25).Evaluate(estimate(40), &yahoo.Quote{Price: 80})
	require.True(t, ok)
	assert.Equal(t, "ACME looks overvalued: estimate $40.00 vs price $80.00 (50.0% downside, margin 25%)", s.Message)
}

func TestEvaluateSkipsUnusableInputs(t *testing.T) {
	e := NewEvaluator(0.25)

	_, ok := e.Evaluate(&valuation.Estimate{Ticker: "ACME"}, &yahoo.Quote{Price: 10})
	assert.False(t, ok, "no per-share estimate")

	_, ok = e.Evaluate(estimate(10), nil)
	assert.False(t, ok, "no quote")

	_, ok = e.Evaluate(estimate(10), &yahoo.Quote{Price: 0})
	assert.False(t, ok, "zero price")
}
