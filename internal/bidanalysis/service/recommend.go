package service

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
)

const defaultMinCompetitors = 3

// Recommend derives short rule-based hints from an analysis summary and its outliers.
func Recommend(summary domain.TenderSummary, outliers []domain.ComparablePrice, minCompetitors int) []string {
	if minCompetitors <= 0 {
		minCompetitors = defaultMinCompetitors
	}

	hints := make([]string, 0, 4)

	if summary.TotalSavings.IsPositive() {
		hints = append(hints, fmt.Sprintf(
			"Awarding the selected offers saves %s%s (%s%%) against the estimate.",
			summary.TotalSavings.StringFixed(2),
			currencySuffix(summary.Currency),
			summary.SavingsPercentage.StringFixed(2),
		))
	}

	if summary.ProposalCount < minCompetitors {
		hints = append(hints, fmt.Sprintf(
			"Only %d proposal(s) received; competition is insufficient, consider inviting more suppliers.",
			summary.ProposalCount,
		))
	}

	names := lo.Uniq(lo.Filter(summary.WinningSupplierNames, func(name string, _ int) bool {
		return strings.TrimSpace(name) != ""
	}))
	if len(names) == 1 {
		hints = append(hints, fmt.Sprintf(
			"All items are won by %s; consider splitting the award to reduce supplier concentration.",
			names[0],
		))
	}

	if len(outliers) > 0 {
		hints = append(hints, fmt.Sprintf(
			"%d quote(s) deviate strongly from their item's peer prices; verify them before awarding.",
			len(outliers),
		))
	}

	return hints
}

func currencySuffix(currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return ""
	}
	return " " + currency
}
