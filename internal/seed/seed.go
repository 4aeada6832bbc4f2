package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/tenderscope/internal/clock"
	"github.com/smallbiznis/tenderscope/internal/tender/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const demoTenderTitle = "Office Equipment Renewal 2026"

type demoItem struct {
	description string
	quantity    string
	unit        string
	estimate    *string
}

type demoQuote struct {
	unitPrice string
	withVat   *string
	delivery  *string
}

type demoSupplier struct {
	name   string
	email  string
	status string
	quotes []*demoQuote
	extras []string
}

func ptr(v string) *string { return &v }

var demoItems = []demoItem{
	{description: "Laptop, 14 inch", quantity: "20", unit: "pcs", estimate: ptr("1100.00")},
	{description: "Docking station", quantity: "20", unit: "pcs", estimate: ptr("180.00")},
	{description: "Ergonomic chair", quantity: "25", unit: "pcs", estimate: ptr("320.00")},
	{description: "Installation service", quantity: "1", unit: "lot", estimate: nil},
}

var demoSuppliers = []demoSupplier{
	{
		name: "Northwind Supplies", email: "tenders@northwind.test", status: domain.ProposalStatusSubmitted,
		quotes: []*demoQuote{
			{unitPrice: "989.00", withVat: ptr("1196.69")},
			{unitPrice: "171.50", withVat: ptr("207.52")},
			{unitPrice: "295.00", withVat: ptr("356.95"), delivery: ptr("250.00")},
			{unitPrice: "1500.00"},
		},
		extras: []string{"450.00"},
	},
	{
		name: "Contoso Office", email: "sales@contoso.test", status: domain.ProposalStatusSubmitted,
		quotes: []*demoQuote{
			{unitPrice: "1015.00", withVat: ptr("1228.15")},
			{unitPrice: "165.00", withVat: ptr("199.65")},
			{unitPrice: "310.00", withVat: ptr("375.10")},
			nil,
		},
	},
	{
		name: "Fabrikam Trading", email: "bids@fabrikam.test", status: domain.ProposalStatusAccepted,
		quotes: []*demoQuote{
			{unitPrice: "1049.00"},
			{unitPrice: "420.00"},
			{unitPrice: "305.00", delivery: ptr("0")},
			{unitPrice: "1350.00", delivery: ptr("120.00")},
		},
	},
}

// EnsureDemoTender inserts a sample tender with three competing proposals so
// a fresh installation has something to analyze. It is a no-op when the demo
// tender already exists.
func EnsureDemoTender(ctx context.Context, db *gorm.DB, repo domain.Repository, node *snowflake.Node, clk clock.Clock) (snowflake.ID, error) {
	if db == nil || repo == nil || node == nil || clk == nil {
		return 0, errors.New("seed dependencies are required")
	}

	code := slug.Make(demoTenderTitle)
	existing, err := repo.FindTenderByCode(ctx, db, code)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	now := clk.Now()
	tender := domain.Tender{
		ID:        node.Generate(),
		Code:      code,
		Title:     demoTenderTitle,
		Currency:  "EUR",
		Status:    "evaluation",
		Metadata:  datatypes.JSONMap{"source": "demo"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.InsertTender(ctx, tx, &tender); err != nil {
			return err
		}

		itemIDs := make([]snowflake.ID, len(demoItems))
		for i, it := range demoItems {
			item := domain.TenderLineItem{
				ID:                 node.Generate(),
				TenderID:           tender.ID,
				Ordinal:            i + 1,
				Description:        it.description,
				Quantity:           it.quantity,
				Unit:               it.unit,
				EstimatedUnitPrice: it.estimate,
				CreatedAt:          now,
			}
			if err := repo.InsertLineItem(ctx, tx, &item); err != nil {
				return err
			}
			itemIDs[i] = item.ID
		}

		for n, s := range demoSuppliers {
			supplier := domain.Supplier{ID: node.Generate(), Name: s.name, Email: s.email, CreatedAt: now}
			if err := repo.InsertSupplier(ctx, tx, &supplier); err != nil {
				return err
			}

			proposal := domain.Proposal{
				ID:             node.Generate(),
				TenderID:       tender.ID,
				SupplierID:     supplier.ID,
				Number:         fmt.Sprintf("%s-P%02d", code, n+1),
				Status:         s.status,
				Currency:       tender.Currency,
				DeliveryPeriod: "30 days",
				Warranty:       "24 months",
				SubmittedAt:    now.Add(-time.Duration(len(demoSuppliers)-n) * time.Hour),
			}
			if err := repo.InsertProposal(ctx, tx, &proposal); err != nil {
				return err
			}

			for i, q := range s.quotes {
				if q == nil {
					continue
				}
				unitPrice := q.unitPrice
				if err := repo.InsertProposalItem(ctx, tx, &domain.ProposalItem{
					ID:               node.Generate(),
					ProposalID:       proposal.ID,
					LineItemID:       itemIDs[i],
					UnitPrice:        &unitPrice,
					UnitPriceWithVat: q.withVat,
					DeliveryCost:     q.delivery,
				}); err != nil {
					return err
				}
			}

			for _, amount := range s.extras {
				if err := repo.InsertProposalExpense(ctx, tx, &domain.ProposalExpense{
					ID:          node.Generate(),
					ProposalID:  proposal.ID,
					Description: "On-site installation",
					Amount:      amount,
					Status:      domain.ExpenseStatusApproved,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return tender.ID, nil
}
