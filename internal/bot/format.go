package bot

import (
	"fmt"
	"strings"

	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/shopspring/decimal"
)

// telegram режет сообщения длиннее 4096 символов
const maxMessageLen = 4000

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func formatDashboard(d analytics.Dashboard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Всего закупок: %d\n", d.TotalEntries)
	fmt.Fprintf(&sb, "Объектов: %d\n", d.UniqueSites)
	fmt.Fprintf(&sb, "Сумма: %s\n", money(d.TotalCost))
	if len(d.RecentEntries) == 0 {
		sb.WriteString("\nЗакупок пока нет.")
		return sb.String()
	}
	sb.WriteString("\nПоследние:\n")
	for _, p := range d.RecentEntries {
		fmt.Fprintf(&sb, "#%d %s · %s · %s %s %s · %s\n",
			p.ID, p.Date, p.SiteName, p.MaterialName, p.Quantity, p.Unit, money(p.TotalCost))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRemaining(v ledger.InventoryView) string {
	if len(v.Rows) == 0 {
		return "Ничего не найдено."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Позиций: %d (доступно %d, закончилось %d)\n",
		v.Summary.Items, v.Summary.Available, v.Summary.Depleted)
	fmt.Fprintf(&sb, "Стоимость остатков: %s\n\n", money(v.Summary.TotalRemainingValue))
	for i, r := range v.Rows {
		line := fmt.Sprintf("#%d %s · %s: %s из %s %s (%.2f%%) · %s\n",
			r.MaterialID, r.SiteName, r.MaterialName,
			r.RemainingQuantity, r.OriginalQuantity, r.Unit, r.RemainingPercentage, statusLabel(string(r.Status)))
		if sb.Len()+len(line) > maxMessageLen {
			fmt.Fprintf(&sb, "… и ещё %d", len(v.Rows)-i)
			break
		}
		sb.WriteString(line)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(v ledger.HistoryView) string {
	m := v.Material
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s · %s\n", m.MaterialID, m.SiteName, m.MaterialName)
	fmt.Fprintf(&sb, "Закуплено %s %s, израсходовано %s, остаток %s\n",
		m.OriginalQuantity, m.Unit, m.UsedQuantity, m.RemainingQuantity)
	if len(v.Entries) == 0 {
		sb.WriteString("\nРасхода не было.")
		return sb.String()
	}
	sb.WriteString("\n")
	for _, e := range v.Entries {
		line := fmt.Sprintf("%s: −%s (всего %s, остаток %s)", e.UsageDate, e.UsedQuantity, e.CumulativeUsed, e.RemainingAfter)
		if e.UsagePurpose != "" {
			line += " · " + e.UsagePurpose
		}
		if sb.Len()+len(line) > maxMessageLen {
			sb.WriteString("…")
			break
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAnalytics(v ledger.AnalyticsView) string {
	if v.Summary == nil {
		return "Данных для аналитики пока нет."
	}
	s := v.Summary
	var sb strings.Builder
	fmt.Fprintf(&sb, "Период: %s\n", s.DateRange)
	fmt.Fprintf(&sb, "Сумма: %s, в среднем %s на закупку\n", money(s.TotalCost), money(s.AvgCostPerEntry))
	fmt.Fprintf(&sb, "Самый затратный объект: %s\n", s.MostExpensiveSite)
	fmt.Fprintf(&sb, "Чаще всего закупали: %s\n", s.MostUsedMaterial)
	if len(v.Charts.MonthlySpending) > 0 {
		sb.WriteString("\nПо месяцам:\n")
		for _, p := range v.Charts.MonthlySpending {
			fmt.Fprintf(&sb, "%s: %s\n", p.Label, money(p.Value))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func statusLabel(s string) string {
	switch s {
	case string(inventory.StatusAvailable):
		return "есть"
	case string(inventory.StatusDepleted):
		return "закончился"
	default:
		return s
	}
}
