package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DataSource provides the live tender data the analysis is computed from.
type DataSource interface {
	GetTender(ctx context.Context, tenderID snowflake.ID) (*Tender, error)
	GetLineItems(ctx context.Context, tenderID snowflake.ID) ([]LineItem, error)
	GetBids(ctx context.Context, tenderID snowflake.ID) ([]SupplierBid, error)
	GetApprovedExpenseTotal(ctx context.Context, proposalID snowflake.ID) (decimal.Decimal, error)
}

type Service interface {
	Analyze(ctx context.Context, tenderID string) (*Analysis, error)
	GetOutliers(ctx context.Context, tenderID string) ([]ComparablePrice, error)
	GetRecommendations(ctx context.Context, tenderID string) ([]string, error)
	GetItemWinner(ctx context.Context, tenderID, itemID string) (*ItemWinnerResult, error)
	GetProposalTotals(ctx context.Context, tenderID string) ([]ProposalTotal, error)
}

var (
	ErrInvalidTender    = errors.New("invalid_tender")
	ErrTenderNotFound   = errors.New("tender_not_found")
	ErrInvalidLineItem  = errors.New("invalid_line_item")
	ErrLineItemNotFound = errors.New("line_item_not_found")
)
