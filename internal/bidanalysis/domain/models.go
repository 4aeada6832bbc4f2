// Package domain holds the value types produced and consumed by tender price analysis.
package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Tender is the minimal tender header the analysis needs.
type Tender struct {
	ID       snowflake.ID `json:"id"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Currency string       `json:"currency"`
	Status   string       `json:"status"`
}

// LineItem is one priced unit of work or material within a tender.
type LineItem struct {
	ID                 snowflake.ID     `json:"id"`
	TenderID           snowflake.ID     `json:"tender_id"`
	Ordinal            int              `json:"ordinal"`
	Description        string           `json:"description"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit"`
	EstimatedUnitPrice *decimal.Decimal `json:"estimated_unit_price,omitempty"`
	AwardedSupplierID  *snowflake.ID    `json:"awarded_supplier_id,omitempty"`
}

// SupplierBid is a supplier quote for a single line item, taken from one proposal.
type SupplierBid struct {
	ID               snowflake.ID     `json:"id"`
	LineItemID       snowflake.ID     `json:"line_item_id"`
	SupplierID       snowflake.ID     `json:"supplier_id"`
	SupplierName     string           `json:"supplier_name"`
	SupplierEmail    string           `json:"supplier_email"`
	ProposalID       snowflake.ID     `json:"proposal_id"`
	ProposalNumber   string           `json:"proposal_number"`
	Quantity         *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	UnitPriceWithVat *decimal.Decimal `json:"unit_price_with_vat,omitempty"`
	DeliveryCost     *decimal.Decimal `json:"delivery_cost,omitempty"`
	Currency         string           `json:"currency"`
	DeliveryPeriod   string           `json:"delivery_period,omitempty"`
	Warranty         string           `json:"warranty,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// ComparablePrice is a bid reduced to a uniform price structure.
// EffectiveTotal is the only field used for ranking.
type ComparablePrice struct {
	BidID          snowflake.ID `json:"bid_id"`
	LineItemID     snowflake.ID `json:"line_item_id"`
	SupplierID     snowflake.ID `json:"supplier_id"`
	SupplierName   string       `json:"supplier_name"`
	SupplierEmail  string       `json:"supplier_email"`
	ProposalID     snowflake.ID `json:"proposal_id"`
	ProposalNumber string       `json:"proposal_number"`
	Currency       string       `json:"currency"`
	DeliveryPeriod string       `json:"delivery_period,omitempty"`
	Warranty       string       `json:"warranty,omitempty"`
	Notes          string       `json:"notes,omitempty"`

	Quantity                decimal.Decimal  `json:"quantity"`
	UnitPriceBase           decimal.Decimal  `json:"unit_price_base"`
	TotalPriceBase          decimal.Decimal  `json:"total_price_base"`
	UnitPriceWithVat        *decimal.Decimal `json:"unit_price_with_vat,omitempty"`
	TotalPriceWithVat       *decimal.Decimal `json:"total_price_with_vat,omitempty"`
	DeliveryCost            decimal.Decimal  `json:"delivery_cost"`
	TotalWithDelivery       decimal.Decimal  `json:"total_with_delivery"`
	TotalWithVatAndDelivery decimal.Decimal  `json:"total_with_vat_and_delivery"`
	EffectiveTotal          decimal.Decimal  `json:"effective_total"`
	VatAmount               decimal.Decimal  `json:"vat_amount"`
	VatRate                 *decimal.Decimal `json:"vat_rate,omitempty"`

	Rank       int  `json:"rank"`
	IsWinner   bool `json:"is_winner"`
	IsRunnerUp bool `json:"is_runner_up"`
	IsOutlier  bool `json:"is_outlier"`
}

// ItemWinnerResult is the resolved outcome for one line item.
type ItemWinnerResult struct {
	Item              LineItem          `json:"item"`
	Winner            *ComparablePrice  `json:"winner"`
	RunnerUp          *ComparablePrice  `json:"runner_up"`
	Prices            []ComparablePrice `json:"prices"`
	EstimatedTotal    decimal.Decimal   `json:"estimated_total"`
	WinningTotal      decimal.Decimal   `json:"winning_total"`
	Savings           decimal.Decimal   `json:"savings"`
	SavingsPercentage decimal.Decimal   `json:"savings_percentage"`
	OverrideApplied   bool              `json:"override_applied"`
	OverrideIgnored   bool              `json:"override_ignored"`
}

// TenderSummary aggregates per-item results across a tender.
type TenderSummary struct {
	TenderID                     snowflake.ID    `json:"tender_id"`
	Currency                     string          `json:"currency"`
	TotalEstimated               decimal.Decimal `json:"total_estimated"`
	TotalWinning                 decimal.Decimal `json:"total_winning"`
	TotalSavings                 decimal.Decimal `json:"total_savings"`
	SavingsPercentage            decimal.Decimal `json:"savings_percentage"`
	ProposalCount                int             `json:"proposal_count"`
	ItemCount                    int             `json:"item_count"`
	DistinctWinningSupplierCount int             `json:"distinct_winning_supplier_count"`
	WinningSupplierNames         []string        `json:"winning_supplier_names"`
	RunnerUpSupplierNames        []string        `json:"runner_up_supplier_names"`
	AverageSavingsPercentage     decimal.Decimal `json:"average_savings_percentage"`
	TotalVatAmount               decimal.Decimal `json:"total_vat_amount"`
	TotalDeliveryCost            decimal.Decimal `json:"total_delivery_cost"`
}

// Analysis is the full result of analyzing one tender.
type Analysis struct {
	Tender  Tender             `json:"tender"`
	Summary TenderSummary      `json:"summary"`
	Items   []ItemWinnerResult `json:"items"`
}

// ProposalTotal rolls up one proposal across every item it quoted.
type ProposalTotal struct {
	ProposalID       snowflake.ID    `json:"proposal_id"`
	ProposalNumber   string          `json:"proposal_number"`
	SupplierID       snowflake.ID    `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name"`
	ItemsQuoted      int             `json:"items_quoted"`
	QuotedTotal      decimal.Decimal `json:"quoted_total"`
	ApprovedExpenses decimal.Decimal `json:"approved_expenses"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
}
