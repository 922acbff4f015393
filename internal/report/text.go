package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

// AggregateTable renders the per-variant rollup as an aligned text table.
func AggregateTable(aggs []experiment.VariantAggregate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s %8s %15s %14s %10s\n", "variant", "rows", "mean_conv_rate", "sum_purchases", "sum_reach"))
	for _, a := range aggs {
		b.WriteString(fmt.Sprintf("%-8s %8d %15.6f %14d %10d\n", a.Arm, a.Rows, a.MeanRate, a.SumPurchases, a.SumReach))
	}
	return b.String()
}

// Text renders the human-readable report printed by the stats command.
func Text(res experiment.ComparisonResult, aggs []experiment.VariantAggregate) string {
	var b strings.Builder
	b.WriteString(ux.Styles.Title.Render("=== Aggregated summary ==="))
	b.WriteString("\n")
	b.WriteString(AggregateTable(aggs))
	b.WriteString("\n")
	b.WriteString(ux.Styles.Title.Render("=== A/B Test Results ==="))
	b.WriteString("\n")
	b.WriteString(ux.Styles.Muted.Render(fmt.Sprintf("nA = %d, nB = %d", res.A.Count, res.B.Count)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("meanA = %.6f, meanB = %.6f\n", res.MeanA, res.MeanB))
	b.WriteString(fmt.Sprintf("Absolute difference (B - A) = %.6f\n", res.AbsoluteDifference))
	b.WriteString(fmt.Sprintf("Relative uplift (B vs A) = %.2f%%\n", res.RelativeUpliftPercent))
	b.WriteString(ux.Styles.Bold.Render(fmt.Sprintf("Welch t-test: t = %.4f, p = %.6f", res.TestStatistic, res.PValue)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("95%% CI for (B - A) = [%.6f, %.6f]\n", res.CILow, res.CIHigh))
	return b.String()
}

// Verdict renders the recommendation in a box, styled by outcome.
func Verdict(rec experiment.Recommendation) string {
	style := ux.Styles.Box.BorderForeground(ux.ColorWarning)
	if rec.Ship {
		style = ux.Styles.Box.BorderForeground(ux.ColorSuccess)
	}
	return style.Render(rec.Message)
}
