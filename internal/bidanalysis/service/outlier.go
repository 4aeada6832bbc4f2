package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
)

const minOutlierGroupSize = 2

// DefaultOutlierSigma is the deviation multiplier used when none is configured.
var DefaultOutlierSigma = decimal.NewFromInt(2)

// FindOutliers flags prices whose unit price deviates from their group's
// population mean by more than sigma standard deviations. Each group holds the
// prices quoted for a single line item; groups smaller than two are skipped.
// Compared on squares: (x-mean)^2 > sigma^2 * variance.
func FindOutliers(groups [][]domain.ComparablePrice, sigma decimal.Decimal) []domain.ComparablePrice {
	if !sigma.IsPositive() {
		sigma = DefaultOutlierSigma
	}
	threshold := sigma.Mul(sigma)

	outliers := make([]domain.ComparablePrice, 0)
	for _, group := range groups {
		if len(group) < minOutlierGroupSize {
			continue
		}

		n := decimal.NewFromInt(int64(len(group)))
		sum := decimal.Zero
		for _, p := range group {
			sum = sum.Add(p.UnitPriceBase)
		}
		mean := sum.Div(n)

		squares := make([]decimal.Decimal, len(group))
		sumSquares := decimal.Zero
		for i, p := range group {
			d := p.UnitPriceBase.Sub(mean)
			squares[i] = d.Mul(d)
			sumSquares = sumSquares.Add(squares[i])
		}
		limit := sumSquares.Div(n).Mul(threshold)

		for i, p := range group {
			if squares[i].GreaterThan(limit) {
				p.IsOutlier = true
				outliers = append(outliers, p)
			}
		}
	}
	return outliers
}
