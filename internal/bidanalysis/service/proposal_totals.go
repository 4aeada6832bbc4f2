package service

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
)

// GetProposalTotals rolls every proposal up to a single figure: the sum of its
// effective item totals plus its approved additional expenses. Proposals are
// returned cheapest first; ties keep the order in which proposals were read.
func (s *Service) GetProposalTotals(ctx context.Context, tenderID string) (_ []domain.ProposalTotal, err error) {
	id, err := parseID(tenderID)
	if err != nil {
		return nil, domain.ErrInvalidTender
	}

	ctx, done := s.begin(ctx, opProposalTotals, id)
	defer func() { done(err) }()

	if _, err := s.loadTender(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.source.GetLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	bids, err := s.source.GetBids(ctx, id)
	if err != nil {
		return nil, err
	}

	totals := RollupProposals(items, bids)
	for i := range totals {
		expenses, err := s.source.GetApprovedExpenseTotal(ctx, totals[i].ProposalID)
		if err != nil {
			return nil, err
		}
		totals[i].ApprovedExpenses = nonNegative(expenses)
		totals[i].GrandTotal = totals[i].QuotedTotal.Add(totals[i].ApprovedExpenses)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].GrandTotal.LessThan(totals[j].GrandTotal)
	})
	return totals, nil
}

// RollupProposals sums the effective totals of each proposal's eligible bids.
// Expenses are left at zero for the caller to fill in.
func RollupProposals(items []domain.LineItem, bids []domain.SupplierBid) []domain.ProposalTotal {
	itemsByID := make(map[snowflake.ID]domain.LineItem, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	index := make(map[snowflake.ID]int)
	totals := make([]domain.ProposalTotal, 0)
	for _, bid := range bids {
		pos, ok := index[bid.ProposalID]
		if !ok {
			pos = len(totals)
			index[bid.ProposalID] = pos
			totals = append(totals, domain.ProposalTotal{
				ProposalID:       bid.ProposalID,
				ProposalNumber:   bid.ProposalNumber,
				SupplierID:       bid.SupplierID,
				SupplierName:     bid.SupplierName,
				QuotedTotal:      decimal.Zero,
				ApprovedExpenses: decimal.Zero,
				GrandTotal:       decimal.Zero,
			})
		}

		item, found := itemsByID[bid.LineItemID]
		if !found || !Eligible(bid) {
			continue
		}
		price := Normalize(bid, item)
		totals[pos].ItemsQuoted++
		totals[pos].QuotedTotal = totals[pos].QuotedTotal.Add(price.EffectiveTotal)
		totals[pos].GrandTotal = totals[pos].QuotedTotal
	}
	return totals
}
