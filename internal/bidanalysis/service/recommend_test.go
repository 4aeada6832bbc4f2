package service

import (
	"testing"

	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/stretchr/testify/assert"
)

func TestRecommendAllRules(t *testing.T) {
	summary := domain.TenderSummary{
		Currency:             "EUR",
		TotalSavings:         dec("20"),
		SavingsPercentage:    dec("10"),
		ProposalCount:        2,
		WinningSupplierNames: []string{"Acme", "Acme"},
	}
	outliers := []domain.ComparablePrice{{}, {}}

	hints := Recommend(summary, outliers, 3)

	assert.Equal(t, []string{
		"Awarding the selected offers saves 20.00 EUR (10.00%) against the estimate.",
		"Only 2 proposal(s) received; competition is insufficient, consider inviting more suppliers.",
		"All items are won by Acme; consider splitting the award to reduce supplier concentration.",
		"2 quote(s) deviate strongly from their item's peer prices; verify them before awarding.",
	}, hints)
}

func TestRecommendNothingToSay(t *testing.T) {
	summary := domain.TenderSummary{
		TotalSavings:         dec("-5"),
		ProposalCount:        4,
		WinningSupplierNames: []string{"Acme", "Globex"},
	}

	assert.Empty(t, Recommend(summary, nil, 3))
}

func TestRecommendDefaultsCompetitionThreshold(t *testing.T) {
	summary := domain.TenderSummary{ProposalCount: 2}

	hints := Recommend(summary, nil, 0)

	assert.Len(t, hints, 1)
	assert.Contains(t, hints[0], "Only 2 proposal(s)")
}

func TestRecommendSavingsWithoutCurrency(t *testing.T) {
	summary := domain.TenderSummary{
		TotalSavings:      dec("1.5"),
		SavingsPercentage: dec("3.333333"),
		ProposalCount:     5,
	}

	hints := Recommend(summary, nil, 3)

	assert.Equal(t, []string{"Awarding the selected offers saves 1.50 (3.33%) against the estimate."}, hints)
}
