package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseOnly(t *testing.T) {
	price := Normalize(bid(1, supplierA, "A", "90"), sampleItem())

	assertDecimal(t, "2", price.Quantity)
	assertDecimal(t, "180", price.TotalPriceBase)
	assertDecimal(t, "180", price.EffectiveTotal)
	assertDecimal(t, "0", price.DeliveryCost)
	assertDecimal(t, "0", price.VatAmount)
	assert.Nil(t, price.TotalPriceWithVat)
	assert.Nil(t, price.VatRate)
}

func TestNormalizeDeliveryUsesVatInclusiveTotal(t *testing.T) {
	b := bid(2, supplierB, "B", "95")
	b.UnitPriceWithVat = decPtr("100")
	b.DeliveryCost = decPtr("10")

	price := Normalize(b, sampleItem())

	assertDecimal(t, "190", price.TotalPriceBase)
	require.NotNil(t, price.TotalPriceWithVat)
	assertDecimal(t, "200", *price.TotalPriceWithVat)
	assertDecimal(t, "200", price.TotalWithDelivery)
	assertDecimal(t, "210", price.TotalWithVatAndDelivery)
	assertDecimal(t, "210", price.EffectiveTotal)
	assertDecimal(t, "10", price.VatAmount)
	require.NotNil(t, price.VatRate)
	assert.Equal(t, "5.26", price.VatRate.StringFixed(2))
}

func TestNormalizeDeliveryWithoutVat(t *testing.T) {
	b := bid(3, supplierA, "A", "40")
	b.DeliveryCost = decPtr("7.5")

	price := Normalize(b, sampleItem())

	assertDecimal(t, "87.5", price.EffectiveTotal)
	assertDecimal(t, "87.5", price.TotalWithDelivery)
}

func TestNormalizeVatWithoutDelivery(t *testing.T) {
	b := bid(4, supplierA, "A", "50")
	b.UnitPriceWithVat = decPtr("60.5")

	price := Normalize(b, sampleItem())

	assertDecimal(t, "121", price.EffectiveTotal)
	assertDecimal(t, "21", price.VatAmount)
	require.NotNil(t, price.VatRate)
	assertDecimal(t, "21", *price.VatRate)
}

func TestNormalizeBidQuantityOverridesItemQuantity(t *testing.T) {
	b := bid(5, supplierA, "A", "3")
	b.Quantity = decPtr("7")

	price := Normalize(b, sampleItem())

	assertDecimal(t, "7", price.Quantity)
	assertDecimal(t, "21", price.EffectiveTotal)
}

func TestNormalizeClampsNegativeValues(t *testing.T) {
	b := bid(6, supplierA, "A", "-5")
	b.DeliveryCost = decPtr("-3")
	b.UnitPriceWithVat = decPtr("-1")

	price := Normalize(b, sampleItem())

	assertDecimal(t, "0", price.UnitPriceBase)
	assertDecimal(t, "0", price.DeliveryCost)
	assertDecimal(t, "0", price.EffectiveTotal)
	assert.Nil(t, price.VatRate, "no rate without a positive base")
}

func TestNormalizeZeroVatFallsBackToBase(t *testing.T) {
	b := bid(7, supplierA, "A", "10")
	b.UnitPriceWithVat = decPtr("0")

	price := Normalize(b, sampleItem())

	require.NotNil(t, price.TotalPriceWithVat)
	assertDecimal(t, "0", price.EffectiveTotal, "an explicit VAT price is honored even when it is zero")
}

func TestEligibleRequiresUnitPrice(t *testing.T) {
	b := bid(8, supplierA, "A", "1")
	assert.True(t, Eligible(b))
	b.UnitPrice = nil
	assert.False(t, Eligible(b))
}

func TestNormalizeEffectiveTotalProperties(t *testing.T) {
	units := []string{"0", "0.01", "1", "12.345", "999.99"}
	quantities := []string{"0", "1", "2.5", "40"}

	for _, u := range units {
		for _, q := range quantities {
			item := sampleItem()
			item.Quantity = dec(q)

			plain := Normalize(bid(9, supplierA, "A", u), item)
			assertDecimal(t, dec(u).Mul(dec(q)).String(), plain.EffectiveTotal, "no VAT no delivery", u, q)

			withDelivery := bid(10, supplierA, "A", u)
			withDelivery.DeliveryCost = decPtr("4.2")
			got := Normalize(withDelivery, item)
			assertDecimal(t, dec(u).Mul(dec(q)).Add(dec("4.2")).String(), got.EffectiveTotal, "delivery without VAT", u, q)

			withBoth := bid(11, supplierA, "A", u)
			withBoth.UnitPriceWithVat = decPtr("3")
			withBoth.DeliveryCost = decPtr("1")
			got = Normalize(withBoth, item)
			assertDecimal(t, dec("3").Mul(dec(q)).Add(dec("1")).String(), got.EffectiveTotal, "delivery with VAT", u, q)
		}
	}
}
