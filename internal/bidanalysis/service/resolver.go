package service

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
)

// Resolve ranks the eligible bids of one line item and selects its winner and runner-up.
// Bids without a unit price are skipped. A manual award wins whenever the awarded
// supplier has a bid on the item; otherwise the computed ranking stands.
func Resolve(item domain.LineItem, bids []domain.SupplierBid) domain.ItemWinnerResult {
	prices := make([]domain.ComparablePrice, 0, len(bids))
	for _, bid := range bids {
		if !Eligible(bid) {
			continue
		}
		prices = append(prices, Normalize(bid, item))
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].EffectiveTotal.LessThan(prices[j].EffectiveTotal)
	})
	for i := range prices {
		prices[i].Rank = i + 1
	}

	result := domain.ItemWinnerResult{
		Item:              item,
		Prices:            prices,
		EstimatedTotal:    estimatedTotal(item),
		WinningTotal:      decimal.Zero,
		SavingsPercentage: decimal.Zero,
	}

	winnerIdx := -1
	if len(prices) > 0 {
		winnerIdx = 0
	}
	if item.AwardedSupplierID != nil {
		overrideIdx := indexOfSupplier(prices, *item.AwardedSupplierID)
		if overrideIdx >= 0 {
			winnerIdx = overrideIdx
			result.OverrideApplied = true
		} else {
			result.OverrideIgnored = true
		}
	}

	runnerUpIdx := -1
	for i := range prices {
		if i != winnerIdx {
			runnerUpIdx = i
			break
		}
	}

	if winnerIdx >= 0 {
		prices[winnerIdx].IsWinner = true
		winner := prices[winnerIdx]
		result.Winner = &winner
		result.WinningTotal = winner.EffectiveTotal
	}
	if runnerUpIdx >= 0 {
		prices[runnerUpIdx].IsRunnerUp = true
		runnerUp := prices[runnerUpIdx]
		result.RunnerUp = &runnerUp
	}

	result.Savings = result.EstimatedTotal.Sub(result.WinningTotal)
	result.SavingsPercentage = percentageOf(result.Savings, result.EstimatedTotal)
	return result
}

func estimatedTotal(item domain.LineItem) decimal.Decimal {
	if item.EstimatedUnitPrice == nil {
		return decimal.Zero
	}
	return nonNegative(*item.EstimatedUnitPrice).Mul(nonNegative(item.Quantity))
}

// indexOfSupplier returns the best-ranked entry quoted by the supplier.
func indexOfSupplier(prices []domain.ComparablePrice, supplierID snowflake.ID) int {
	for i := range prices {
		if prices[i].SupplierID == supplierID {
			return i
		}
	}
	return -1
}

func percentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
