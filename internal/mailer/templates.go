package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/report"
)

const baseStyle = `
  body { background-color: #f6f9fc; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 0; }
  .container { background-color: #ffffff; margin: 0 auto; padding: 20px; max-width: 600px; border-radius: 5px; }
  .title { color: #1f2937; font-size: 32px; font-weight: bold; text-align: center; margin: 0 0 20px; }
  .heading { color: #1f2937; font-size: 20px; font-weight: 600; margin: 0 0 16px; }
  .text { color: #4b5563; font-size: 16px; line-height: 1.5; margin: 0 0 16px; }
  .section { margin-top: 32px; padding: 20px; background-color: #f9fafb; border-radius: 5px; border: 1px solid #e5e7eb; }
  .stat { margin-bottom: 16px; padding: 12px; background-color: #ffffff; border-radius: 4px; }
  .row { padding: 12px 0; border-bottom: 1px solid #e5e7eb; }
  .footer { color: #6b7280; font-size: 14px; text-align: center; margin-top: 32px; padding-top: 16px; border-top: 1px solid #e5e7eb; }
`

var budgetAlertTmpl = template.Must(template.New("budget-alert").Parse(`<html>
<head><style>` + baseStyle + `</style></head>
<body>
  <div class="container">
    <h1 class="title">Budget Alert</h1>
    <p class="text">Hello {{.UserName}},</p>
    <p class="text">You&rsquo;ve used {{.PercentUsed}}% of your monthly budget.</p>
    <div class="section">
      <div class="stat"><p class="text">Budget Amount</p><p class="heading">${{.BudgetAmount}}</p></div>
      <div class="stat"><p class="text">Spent So Far</p><p class="heading">${{.TotalExpenses}}</p></div>
      <div class="stat"><p class="text">Remaining</p><p class="heading">${{.Remaining}}</p></div>
    </div>
  </div>
</body>
</html>`))

var monthlyReportTmpl = template.Must(template.New("monthly-report").Parse(`<html>
<head><style>` + baseStyle + `</style></head>
<body>
  <div class="container">
    <h1 class="title">Monthly Financial Report</h1>
    <p class="text">Hello {{.UserName}},</p>
    <p class="text">Here&rsquo;s your financial summary for {{.Month}}:</p>
    <div class="section">
      <div class="stat"><p class="text">Total Income</p><p class="heading">${{.TotalIncome}}</p></div>
      <div class="stat"><p class="text">Total Expenses</p><p class="heading">${{.TotalExpenses}}</p></div>
      <div class="stat"><p class="text">Net</p><p class="heading">${{.Net}}</p></div>
    </div>
    {{if .Categories}}
    <div class="section">
      <h2 class="heading">Expenses by Category</h2>
      {{range .Categories}}<div class="row"><p class="text">{{.Name}}</p><p class="text">${{.Amount}}</p></div>
      {{end}}
    </div>
    {{end}}
    {{if .Insights}}
    <div class="section">
      <h2 class="heading">Insights</h2>
      {{range .Insights}}<p class="text">&bull; {{.}}</p>
      {{end}}
    </div>
    {{end}}
    <p class="footer">Thank you for using Wealth Tracker. Keep tracking your finances for better financial health!</p>
  </div>
</body>
</html>`))

type budgetAlertData struct {
	UserName      string
	PercentUsed   string
	BudgetAmount  string
	TotalExpenses string
	Remaining     string
}

type categoryRow struct {
	Name   string
	Amount string
}

type monthlyReportData struct {
	UserName      string
	Month         string
	TotalIncome   string
	TotalExpenses string
	Net           string
	Categories    []categoryRow
	Insights      []string
}

func renderBudgetAlert(userName string, alert budget.Alert) (string, error) {
	data := budgetAlertData{
		UserName:      userName,
		PercentUsed:   alert.PercentUsed.StringFixed(1),
		BudgetAmount:  alert.BudgetAmount.StringFixed(2),
		TotalExpenses: alert.TotalExpenses.StringFixed(2),
		Remaining:     alert.BudgetAmount.Sub(alert.TotalExpenses).StringFixed(2),
	}

	var buf bytes.Buffer
	if err := budgetAlertTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render budget alert: %w", err)
	}
	return buf.String(), nil
}

func renderMonthlyReport(userName string, rpt report.Report) (string, error) {
	categories := make([]categoryRow, 0, len(rpt.Stats.ByCategory))
	for name, amount := range rpt.Stats.ByCategory {
		categories = append(categories, categoryRow{Name: name, Amount: amount.StringFixed(2)})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	data := monthlyReportData{
		UserName:      userName,
		Month:         rpt.Month,
		TotalIncome:   rpt.Stats.TotalIncome.StringFixed(2),
		TotalExpenses: rpt.Stats.TotalExpenses.StringFixed(2),
		Net:           rpt.Stats.Net().StringFixed(2),
		Categories:    categories,
		Insights:      rpt.Insights,
	}

	var buf bytes.Buffer
	if err := monthlyReportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render monthly report: %w", err)
	}
	return buf.String(), nil
}
