package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/hppkit/internal/currency"
	"github.com/hammamikhairi/hppkit/internal/domain"
)

// RenderBreakdown lays out a cost breakdown as a two-column report, amounts
// right-aligned at width columns.
func RenderBreakdown(b *domain.CostBreakdown, format currency.Formatter, width int) string {
	if width < 40 {
		width = 40
	}
	if format == nil {
		format = currency.IDR
	}

	var sb strings.Builder
	row := func(label string, amount float64, style lipgloss.Style) {
		value := format(amount)
		pad := width - lipgloss.Width(label) - lipgloss.Width(value)
		if pad < 1 {
			pad = 1
		}
		sb.WriteString(style.Render(label + strings.Repeat(" ", pad) + value))
		sb.WriteByte('\n')
	}
	section := func(title string) {
		sb.WriteString(sectionStyle.Render(title))
		sb.WriteByte('\n')
	}

	title := fmt.Sprintf("%s (%d servings)", b.RecipeName, b.Servings)
	sb.WriteString(headerStyle.Render(title))
	if b.Stale {
		sb.WriteString(" " + staleStyle.Render("stale"))
	}
	sb.WriteByte('\n')
	sb.WriteString(secondaryStyle.Render("calculated " + b.CalculatedAt.Format("2006-01-02 15:04")))
	sb.WriteString("\n\n")

	section("Ingredients")
	for _, l := range b.Ingredients {
		row(fmt.Sprintf("  %s %g%s", l.Name, l.Quantity, l.Unit), l.Total, primaryStyle)
	}

	section("Labor")
	row(fmt.Sprintf("  %g min at %s/h", b.Labor.PrepMinutes+b.Labor.CookMinutes, format(b.Labor.HourlyRate)), b.Labor.Total, primaryStyle)

	section("Overhead")
	for _, cat := range domain.OverheadCategories {
		if v := b.Overhead.Allocations[cat]; v != 0 {
			row("  "+string(cat), v, primaryStyle)
		}
	}

	if len(b.Packaging) > 0 {
		section("Packaging")
		for _, p := range b.Packaging {
			row(fmt.Sprintf("  %s x%g", p.Name, p.Quantity), p.Total, primaryStyle)
		}
	}

	sb.WriteByte('\n')
	row("Direct", b.TotalDirect, secondaryStyle)
	row("Indirect", b.TotalIndirect, secondaryStyle)
	row("Total", b.TotalCost, totalStyle)
	row("Per serving", b.CostPerServing, totalStyle)

	sb.WriteByte('\n')
	section("Suggested prices")
	tier := func(name string, t domain.PriceTier) {
		row(fmt.Sprintf("  %s (%.0f%% margin)", name, t.MarginPercent), t.Price, primaryStyle)
	}
	tier("economy", b.Pricing.Economy)
	tier("standard", b.Pricing.Standard)
	tier("premium", b.Pricing.Premium)

	return sb.String()
}
