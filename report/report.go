// Package report formats valuation results as human-readable text.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vcavallo/dcf-estimate/cashflow"
	"github.com/vcavallo/dcf-estimate/dcf"
	"github.com/vcavallo/dcf-estimate/valuation"
)

type styles struct {
	title  lipgloss.Style
	value  lipgloss.Style
	notice lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
}

// newStyles binds styles to w so non-terminal writers get plain text
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true),
		value:  r.NewStyle().Foreground(lipgloss.Color("10")),
		notice: r.NewStyle().Foreground(lipgloss.Color("11")),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
	}
}

// Millions formats a raw amount as "$X.XX million"
func Millions(v float64) string {
	return fmt.Sprintf("$%.2f million", v/dcf.Million)
}

// Percent formats a fractional rate as "X.XX%"
func Percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// Render writes the valuation summary for an estimate
func Render(w io.Writer, est *valuation.Estimate) error {
	s := newStyles(w)

	if est.GrowthDefaulted {
		if _, err := fmt.Fprintln(w, s.notice.Render(fmt.Sprintf(
			"Growth rate data is not available for %s. Using default growth rate.", est.Ticker))); err != nil {
			return err
		}
	}

	lines := []struct {
		label string
		value string
	}{
		{fmt.Sprintf("Latest FCF for %s:", est.Ticker), Millions(est.LatestFCF)},
		{fmt.Sprintf("Growth Rate for %s:", est.Ticker), Percent(est.GrowthRate)},
		{fmt.Sprintf("Estimated DCF for %s:", est.Ticker), Millions(est.PresentValue)},
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", s.title.Render(l.label), s.value.Render(l.value)); err != nil {
			return err
		}
	}

	if est.PerShare != nil {
		_, err := fmt.Fprintf(w, "%s %s\n",
			s.title.Render(fmt.Sprintf("DCF Estimated Stock Price for %s:", est.Ticker)),
			s.value.Render(fmt.Sprintf("$%.2f", *est.PerShare)))
		return err
	}
	_, err := fmt.Fprintln(w, s.notice.Render("Shares outstanding data not available."))
	return err
}

// RenderStatement writes the available cash-flow data, one row per line
// item and one column per period, in millions.
func RenderStatement(w io.Writer, stmt cashflow.Statement) error {
	s := newStyles(w)

	periods := stmt.Periods()
	headers := make([]string, 0, len(periods)+1)
	headers = append(headers, "Line item (millions)")
	for _, p := range periods {
		headers = append(headers, p.Format("2006-01-02"))
	}

	rows := make([][]string, 0, len(stmt))
	for _, label := range stmt.Labels() {
		byPeriod := make(map[string]string)
		for _, p := range stmt[label] {
			if p.Value != nil {
				byPeriod[p.Period.Format("2006-01-02")] = formatMillions(*p.Value)
			}
		}
		row := []string{label}
		for _, h := range headers[1:] {
			v, ok := byPeriod[h]
			if !ok {
				v = "NaN"
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			if col == 0 {
				return s.cell.Align(lipgloss.Left)
			}
			return s.cell
		})

	if _, err := fmt.Fprintln(w, s.title.Render("Available cash flow data:")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderBreakdown writes the year-by-year projection behind an estimate
func RenderBreakdown(w io.Writer, est *valuation.Estimate) error {
	s := newStyles(w)
	b := est.Breakdown

	rows := make([][]string, 0, len(b.Projected)+1)
	for i := range b.Projected {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatMillions(b.Projected[i]),
			formatMillions(b.Discounted[i]),
		})
	}
	rows = append(rows, []string{"TV", formatMillions(b.TerminalValue), formatMillions(b.TerminalPV)})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Year", "Projected FCF", "Present value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		})

	a := est.Assumptions
	summary := fmt.Sprintf("Discount rate %s, growth %s, terminal growth %s, %d years",
		Percent(a.DiscountRate), Percent(a.GrowthRate), Percent(a.TerminalGrowthRate), a.ProjectionYears)

	if _, err := fmt.Fprintln(w, s.title.Render("Projection (millions):")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatMillions(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v/dcf.Million, 'f', 2, 64)
}
