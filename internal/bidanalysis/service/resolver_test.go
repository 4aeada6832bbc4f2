package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioBids() []domain.SupplierBid {
	a := bid(1, supplierA, "A", "90")
	b := bid(2, supplierB, "B", "95")
	b.UnitPriceWithVat = decPtr("100")
	b.DeliveryCost = decPtr("10")
	return []domain.SupplierBid{b, a}
}

func TestResolveCheapestEffectiveTotalWins(t *testing.T) {
	result := Resolve(sampleItem(), scenarioBids())

	require.NotNil(t, result.Winner)
	require.NotNil(t, result.RunnerUp)
	assert.Equal(t, supplierA, result.Winner.SupplierID)
	assert.Equal(t, supplierB, result.RunnerUp.SupplierID)
	assertDecimal(t, "200", result.EstimatedTotal)
	assertDecimal(t, "180", result.WinningTotal)
	assertDecimal(t, "20", result.Savings)
	assertDecimal(t, "10", result.SavingsPercentage)
	assert.False(t, result.OverrideApplied)
	assert.False(t, result.OverrideIgnored)

	require.Len(t, result.Prices, 2)
	assert.Equal(t, 1, result.Prices[0].Rank)
	assert.True(t, result.Prices[0].IsWinner)
	assert.Equal(t, 2, result.Prices[1].Rank)
	assert.True(t, result.Prices[1].IsRunnerUp)
}

func TestResolveManualAwardOverridesRanking(t *testing.T) {
	item := sampleItem()
	item.AwardedSupplierID = idPtr(supplierB)

	result := Resolve(item, scenarioBids())

	require.NotNil(t, result.Winner)
	assert.Equal(t, supplierB, result.Winner.SupplierID)
	assert.Equal(t, 2, result.Winner.Rank, "rank reflects the computed ranking")
	require.NotNil(t, result.RunnerUp)
	assert.Equal(t, supplierA, result.RunnerUp.SupplierID)
	assertDecimal(t, "210", result.WinningTotal)
	assertDecimal(t, "-10", result.Savings)
	assertDecimal(t, "-5", result.SavingsPercentage)
	assert.True(t, result.OverrideApplied)

	assert.False(t, result.Prices[0].IsWinner)
	assert.True(t, result.Prices[0].IsRunnerUp)
	assert.True(t, result.Prices[1].IsWinner)
}

func TestResolveOverrideWithoutBidIsIgnored(t *testing.T) {
	item := sampleItem()
	item.AwardedSupplierID = idPtr(supplierC)

	result := Resolve(item, scenarioBids())

	require.NotNil(t, result.Winner)
	assert.Equal(t, supplierA, result.Winner.SupplierID)
	assert.True(t, result.OverrideIgnored)
	assert.False(t, result.OverrideApplied)
}

func TestResolveOverridePicksSuppliersCheapestBid(t *testing.T) {
	item := sampleItem()
	item.AwardedSupplierID = idPtr(supplierB)
	bids := []domain.SupplierBid{
		bid(1, supplierA, "A", "10"),
		bid(2, supplierB, "B", "30"),
		bid(3, supplierB, "B", "20"),
	}

	result := Resolve(item, bids)

	require.NotNil(t, result.Winner)
	assert.Equal(t, snowflake.ID(3), result.Winner.BidID)
	require.NotNil(t, result.RunnerUp)
	assert.Equal(t, snowflake.ID(1), result.RunnerUp.BidID)
}

func TestResolveWithoutBids(t *testing.T) {
	result := Resolve(sampleItem(), nil)

	assert.Nil(t, result.Winner)
	assert.Nil(t, result.RunnerUp)
	assert.Empty(t, result.Prices)
	assertDecimal(t, "0", result.WinningTotal)
	assertDecimal(t, "200", result.Savings)
	assertDecimal(t, "100", result.SavingsPercentage)
}

func TestResolveSingleBidHasNoRunnerUp(t *testing.T) {
	result := Resolve(sampleItem(), []domain.SupplierBid{bid(1, supplierA, "A", "90")})

	require.NotNil(t, result.Winner)
	assert.Nil(t, result.RunnerUp)
}

func TestResolveSkipsBidsWithoutUnitPrice(t *testing.T) {
	missing := bid(1, supplierA, "A", "1")
	missing.UnitPrice = nil

	result := Resolve(sampleItem(), []domain.SupplierBid{missing, bid(2, supplierB, "B", "99")})

	require.Len(t, result.Prices, 1)
	assert.Equal(t, supplierB, result.Winner.SupplierID)
}

func TestResolveTiesKeepInputOrder(t *testing.T) {
	bids := []domain.SupplierBid{
		bid(1, supplierB, "B", "50"),
		bid(2, supplierA, "A", "50"),
		bid(3, supplierC, "C", "50"),
	}

	result := Resolve(sampleItem(), bids)

	require.Len(t, result.Prices, 3)
	assert.Equal(t, snowflake.ID(1), result.Prices[0].BidID)
	assert.Equal(t, snowflake.ID(2), result.Prices[1].BidID)
	assert.Equal(t, snowflake.ID(3), result.Prices[2].BidID)
	assert.Equal(t, supplierB, result.Winner.SupplierID)
	assert.Equal(t, supplierA, result.RunnerUp.SupplierID)
}

func TestResolveZeroEstimateHasZeroPercentage(t *testing.T) {
	for _, estimate := range []*string{nil, strPtr("0")} {
		item := sampleItem()
		item.EstimatedUnitPrice = nil
		if estimate != nil {
			item.EstimatedUnitPrice = decPtr(*estimate)
		}

		result := Resolve(item, scenarioBids())

		assertDecimal(t, "0", result.EstimatedTotal)
		assertDecimal(t, "0", result.SavingsPercentage)
		assertDecimal(t, "-180", result.Savings)
	}
}

func TestResolveWinnerHasMinimumEffectiveTotal(t *testing.T) {
	sets := [][]string{
		{"5", "3", "9"},
		{"1.01", "1.001", "1.1", "1.0001"},
		{"70"},
		{"0", "0.5"},
	}
	for _, units := range sets {
		bids := make([]domain.SupplierBid, 0, len(units))
		for i, u := range units {
			bids = append(bids, bid(snowflake.ID(i+1), snowflake.ID(200+i), "S", u))
		}

		result := Resolve(sampleItem(), bids)

		require.NotNil(t, result.Winner)
		for _, p := range result.Prices {
			assert.False(t, p.EffectiveTotal.LessThan(result.Winner.EffectiveTotal), "winner must be cheapest in %v", units)
		}
	}
}

func strPtr(v string) *string { return &v }
