package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
)

var hundred = decimal.NewFromInt(100)

// Eligible reports whether a bid carries the unit price needed for comparison.
func Eligible(bid domain.SupplierBid) bool {
	return bid.UnitPrice != nil
}

// Normalize converts one bid into a ComparablePrice.
//
// The effective total follows the delivery/VAT tie-break: a bid with a
// positive delivery cost is compared on VAT-inclusive price plus delivery,
// otherwise on the VAT-inclusive total when one was quoted, otherwise on the
// base total.
func Normalize(bid domain.SupplierBid, item domain.LineItem) domain.ComparablePrice {
	quantity := nonNegative(item.Quantity)
	if bid.Quantity != nil {
		quantity = nonNegative(*bid.Quantity)
	}

	unitBase := decimal.Zero
	if bid.UnitPrice != nil {
		unitBase = nonNegative(*bid.UnitPrice)
	}
	totalBase := unitBase.Mul(quantity)

	delivery := decimal.Zero
	if bid.DeliveryCost != nil {
		delivery = nonNegative(*bid.DeliveryCost)
	}

	price := domain.ComparablePrice{
		BidID:          bid.ID,
		LineItemID:     item.ID,
		SupplierID:     bid.SupplierID,
		SupplierName:   bid.SupplierName,
		SupplierEmail:  bid.SupplierEmail,
		ProposalID:     bid.ProposalID,
		ProposalNumber: bid.ProposalNumber,
		Currency:       bid.Currency,
		DeliveryPeriod: bid.DeliveryPeriod,
		Warranty:       bid.Warranty,
		Notes:          bid.Notes,

		Quantity:       quantity,
		UnitPriceBase:  unitBase,
		TotalPriceBase: totalBase,
		DeliveryCost:   delivery,
		VatAmount:      decimal.Zero,
	}

	if bid.UnitPriceWithVat != nil {
		unitVat := nonNegative(*bid.UnitPriceWithVat)
		totalVat := unitVat.Mul(quantity)
		price.UnitPriceWithVat = &unitVat
		price.TotalPriceWithVat = &totalVat
		price.VatAmount = totalVat.Sub(totalBase)
		if totalBase.IsPositive() {
			rate := price.VatAmount.Div(totalBase).Mul(hundred)
			price.VatRate = &rate
		}
	}

	price.TotalWithDelivery = totalBase.Add(delivery)
	if price.TotalPriceWithVat != nil {
		price.TotalWithVatAndDelivery = price.TotalPriceWithVat.Add(delivery)
	} else {
		price.TotalWithVatAndDelivery = totalBase.Add(delivery)
	}

	switch {
	case delivery.IsPositive():
		price.EffectiveTotal = price.TotalWithVatAndDelivery
	case price.TotalPriceWithVat != nil:
		price.EffectiveTotal = *price.TotalPriceWithVat
	default:
		price.EffectiveTotal = totalBase
	}

	return price
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
