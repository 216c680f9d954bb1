package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/zreversion/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// JobMetadata holds command header metadata
type JobMetadata struct {
	JobType  string
	Strategy string
	Period   *Period // Optional
	Symbols  string  // Optional
}

// Period represents a date range
type Period struct {
	StartDate string
	EndDate   string
}

// PrintJobHeader prints a formatted job header
func PrintJobHeader(meta JobMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.JobType)
	PrintSeparator()
	fmt.Printf("  Strategy  : %s\n", meta.Strategy)

	// Optional period
	if meta.Period != nil {
		fmt.Printf("  Period    : %s ~ %s\n", meta.Period.StartDate, meta.Period.EndDate)
	}

	// Optional symbols
	if meta.Symbols != "" {
		fmt.Printf("  Symbols   : %s\n", meta.Symbols)
	}

	PrintSeparator()
}

// PrintJobCompletion prints completion message
func PrintJobCompletion(name string, duration float64) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %.2fs\n", name, duration)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintMetricsTable prints Metric | Strategy | Benchmark
func PrintMetricsTable(cmp *contracts.Comparison) {
	widths := []int{18, 14, 14}
	PrintTableHeader([]string{"Metric", "Strategy", "Benchmark"}, widths)

	s, b := cmp.Strategy, cmp.Benchmark
	PrintTableRow([]string{"Total Return", formatPct(s.TotalReturn), formatPct(b.TotalReturn)}, widths)
	PrintTableRow([]string{"Annual Return", formatPct(s.AnnualizedReturn), formatPct(b.AnnualizedReturn)}, widths)
	PrintTableRow([]string{"Volatility", formatPct(s.Volatility), formatPct(b.Volatility)}, widths)
	PrintTableRow([]string{"Sharpe Ratio", formatRatio(s.SharpeRatio), formatRatio(b.SharpeRatio)}, widths)
	PrintTableRow([]string{"Max Drawdown", formatPct(s.MaxDrawdown), formatPct(b.MaxDrawdown)}, widths)
}

// formatPct formats a fraction as a percentage with 2 decimals
func formatPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// formatRatio formats a ratio with 2 decimals
func formatRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

// formatNumber formats a monetary amount with thousands separators
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var result []rune
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, c)
	}
	return sign + string(result) + frac
}
