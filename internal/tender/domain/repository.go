package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository writes tender records. Reads for analysis go through the
// bidanalysis DataSource.
type Repository interface {
	InsertTender(ctx context.Context, db *gorm.DB, tender *Tender) error
	InsertLineItem(ctx context.Context, db *gorm.DB, item *TenderLineItem) error
	InsertSupplier(ctx context.Context, db *gorm.DB, supplier *Supplier) error
	InsertProposal(ctx context.Context, db *gorm.DB, proposal *Proposal) error
	InsertProposalItem(ctx context.Context, db *gorm.DB, item *ProposalItem) error
	InsertProposalExpense(ctx context.Context, db *gorm.DB, expense *ProposalExpense) error
	FindTenderByCode(ctx context.Context, db *gorm.DB, code string) (*Tender, error)
	AwardLineItem(ctx context.Context, db *gorm.DB, lineItemID, supplierID snowflake.ID) error
}
