package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/wealth-tracker/internal/report"
)

const maxInsights = 3

// MonthlyInsights asks the model for actionable observations about a month of
// finances. Implements the report generator's insight source.
func (c *Client) MonthlyInsights(ctx context.Context, stats report.MonthlyStats, monthLabel string) ([]string, error) {
	prompt := buildInsightsPrompt(stats, monthLabel)

	text, err := c.generate(ctx, prompt, nil, "")
	if err != nil {
		return nil, err
	}
	return parseInsights(text)
}

func buildInsightsPrompt(stats report.MonthlyStats, monthLabel string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Analyze this financial data and provide 3 concise, actionable insights.
Focus on spending patterns and practical advice.
Keep it friendly and conversational.

Financial Data for %s:
- Total Income: $%s
- Total Expenses: $%s
- Net Income: $%s
- Expense Categories: `,
		monthLabel,
		stats.TotalIncome.StringFixed(2),
		stats.TotalExpenses.StringFixed(2),
		stats.Net().StringFixed(2),
	)

	// Stable order so prompts are reproducible.
	categories := make([]string, 0, len(stats.ByCategory))
	for category := range stats.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%s: $%s", category, stats.ByCategory[category].StringFixed(2)))
	}
	b.WriteString(strings.Join(parts, ", "))

	b.WriteString("\n\nFormat the response as a JSON array of strings, like this:\n")
	b.WriteString(`["insight 1", "insight 2", "insight 3"]`)

	return b.String()
}

func parseInsights(raw string) ([]string, error) {
	cleaned := extractJSON(cleanModelJSON(raw), '[', ']')

	var insights []string
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		return nil, fmt.Errorf("ai: parse insights response: %w", err)
	}

	out := insights[:0]
	for _, insight := range insights {
		if s := strings.TrimSpace(insight); s != "" {
			out = append(out, s)
		}
	}
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out, nil
}
