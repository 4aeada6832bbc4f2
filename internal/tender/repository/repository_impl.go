package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenderscope/internal/tender/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertTender(ctx context.Context, db *gorm.DB, tender *domain.Tender) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenders (id, code, title, currency, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tender.ID,
		tender.Code,
		tender.Title,
		tender.Currency,
		tender.Status,
		tender.Metadata,
		tender.CreatedAt,
		tender.UpdatedAt,
	).Error
}

func (r *repo) InsertLineItem(ctx context.Context, db *gorm.DB, item *domain.TenderLineItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tender_line_items (id, tender_id, ordinal, description, quantity, unit, estimated_unit_price, awarded_supplier_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.TenderID,
		item.Ordinal,
		item.Description,
		item.Quantity,
		item.Unit,
		item.EstimatedUnitPrice,
		item.AwardedSupplierID,
		item.CreatedAt,
	).Error
}

func (r *repo) InsertSupplier(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO suppliers (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.CreatedAt,
	).Error
}

func (r *repo) InsertProposal(ctx context.Context, db *gorm.DB, proposal *domain.Proposal) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO proposals (id, tender_id, supplier_id, number, status, currency, delivery_period, warranty, notes, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		proposal.ID,
		proposal.TenderID,
		proposal.SupplierID,
		proposal.Number,
		proposal.Status,
		proposal.Currency,
		proposal.DeliveryPeriod,
		proposal.Warranty,
		proposal.Notes,
		proposal.SubmittedAt,
	).Error
}

func (r *repo) InsertProposalItem(ctx context.Context, db *gorm.DB, item *domain.ProposalItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO proposal_items (id, proposal_id, line_item_id, quantity, unit_price, unit_price_with_vat, delivery_cost, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.ProposalID,
		item.LineItemID,
		item.Quantity,
		item.UnitPrice,
		item.UnitPriceWithVat,
		item.DeliveryCost,
		item.Notes,
	).Error
}

func (r *repo) InsertProposalExpense(ctx context.Context, db *gorm.DB, expense *domain.ProposalExpense) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO proposal_expenses (id, proposal_id, description, amount, status) VALUES (?, ?, ?, ?, ?)`,
		expense.ID,
		expense.ProposalID,
		expense.Description,
		expense.Amount,
		expense.Status,
	).Error
}

func (r *repo) FindTenderByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Tender, error) {
	var tender domain.Tender
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, title, currency, status, metadata, created_at, updated_at
		 FROM tenders WHERE code = ?`,
		code,
	).Scan(&tender).Error
	if err != nil {
		return nil, err
	}
	if tender.ID == 0 {
		return nil, nil
	}
	return &tender, nil
}

func (r *repo) AwardLineItem(ctx context.Context, db *gorm.DB, lineItemID, supplierID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tender_line_items SET awarded_supplier_id = ? WHERE id = ?`,
		supplierID,
		lineItemID,
	).Error
}
