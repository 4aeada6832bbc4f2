package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	bidanalysis "github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/smallbiznis/tenderscope/internal/tender/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DataSourceParams struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config *config.AnalysisConfigHolder `optional:"true"`
}

// DataSource reads tender data for price analysis. Numeric columns that were
// stored as text are parsed leniently: a value that does not parse is logged
// and treated as absent instead of failing the whole analysis.
type DataSource struct {
	db  *gorm.DB
	log *zap.Logger
	cfg *config.AnalysisConfigHolder
}

func NewDataSource(p DataSourceParams) *DataSource {
	return &DataSource{
		db:  p.DB,
		log: p.Log.Named("tender.datasource"),
		cfg: p.Config,
	}
}

var _ bidanalysis.DataSource = (*DataSource)(nil)

func (d *DataSource) GetTender(ctx context.Context, tenderID snowflake.ID) (*bidanalysis.Tender, error) {
	var row domain.Tender
	err := d.db.WithContext(ctx).Raw(
		`SELECT id, code, title, currency, status FROM tenders WHERE id = ?`,
		tenderID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &bidanalysis.Tender{
		ID:       row.ID,
		Code:     row.Code,
		Title:    row.Title,
		Currency: row.Currency,
		Status:   row.Status,
	}, nil
}

func (d *DataSource) GetLineItems(ctx context.Context, tenderID snowflake.ID) ([]bidanalysis.LineItem, error) {
	var rows []domain.TenderLineItem
	err := d.db.WithContext(ctx).Raw(
		`SELECT id, tender_id, ordinal, description, quantity, unit, estimated_unit_price, awarded_supplier_id
		 FROM tender_line_items WHERE tender_id = ? ORDER BY ordinal ASC, id ASC`,
		tenderID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]bidanalysis.LineItem, 0, len(rows))
	for _, row := range rows {
		log := d.log.With(zap.String("line_item_id", row.ID.String()))

		quantity := decimal.Zero
		if parsed, ok := d.parse(log, "quantity", &row.Quantity); ok {
			quantity = *parsed
		}
		estimate, _ := d.parse(log, "estimated_unit_price", row.EstimatedUnitPrice)

		items = append(items, bidanalysis.LineItem{
			ID:                 row.ID,
			TenderID:           row.TenderID,
			Ordinal:            row.Ordinal,
			Description:        row.Description,
			Quantity:           quantity,
			Unit:               row.Unit,
			EstimatedUnitPrice: estimate,
			AwardedSupplierID:  row.AwardedSupplierID,
		})
	}
	return items, nil
}

type bidRow struct {
	ID               snowflake.ID `gorm:"column:id"`
	LineItemID       snowflake.ID `gorm:"column:line_item_id"`
	SupplierID       snowflake.ID `gorm:"column:supplier_id"`
	SupplierName     string       `gorm:"column:supplier_name"`
	SupplierEmail    string       `gorm:"column:supplier_email"`
	ProposalID       snowflake.ID `gorm:"column:proposal_id"`
	ProposalNumber   string       `gorm:"column:proposal_number"`
	Quantity         *string      `gorm:"column:quantity"`
	UnitPrice        *string      `gorm:"column:unit_price"`
	UnitPriceWithVat *string      `gorm:"column:unit_price_with_vat"`
	DeliveryCost     *string      `gorm:"column:delivery_cost"`
	Currency         string       `gorm:"column:currency"`
	DeliveryPeriod   string       `gorm:"column:delivery_period"`
	Warranty         string       `gorm:"column:warranty"`
	Notes            string       `gorm:"column:notes"`
}

// GetBids returns every quote of the tender's eligible proposals in the order
// the proposals were submitted, which is the order ties are broken in.
func (d *DataSource) GetBids(ctx context.Context, tenderID snowflake.ID) ([]bidanalysis.SupplierBid, error) {
	var rows []bidRow
	err := d.db.WithContext(ctx).Raw(
		`SELECT pi.id, pi.line_item_id, p.supplier_id, s.name AS supplier_name, s.email AS supplier_email,
		        p.id AS proposal_id, p.number AS proposal_number,
		        pi.quantity, pi.unit_price, pi.unit_price_with_vat, pi.delivery_cost,
		        p.currency, p.delivery_period, p.warranty, pi.notes
		 FROM proposal_items pi
		 JOIN proposals p ON p.id = pi.proposal_id
		 JOIN suppliers s ON s.id = p.supplier_id
		 WHERE p.tender_id = ? AND p.status IN ?
		 ORDER BY p.submitted_at ASC, p.id ASC, pi.id ASC`,
		tenderID,
		d.eligibleStatuses(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	bids := make([]bidanalysis.SupplierBid, 0, len(rows))
	for _, row := range rows {
		log := d.log.With(
			zap.String("proposal_item_id", row.ID.String()),
			zap.String("proposal_id", row.ProposalID.String()),
		)

		unitPrice, _ := d.parse(log, "unit_price", row.UnitPrice)
		withVat, _ := d.parse(log, "unit_price_with_vat", row.UnitPriceWithVat)
		quantity, _ := d.parse(log, "quantity", row.Quantity)
		// An unreadable delivery cost counts as no delivery charge.
		delivery, _ := d.parse(log, "delivery_cost", row.DeliveryCost)

		bids = append(bids, bidanalysis.SupplierBid{
			ID:               row.ID,
			LineItemID:       row.LineItemID,
			SupplierID:       row.SupplierID,
			SupplierName:     row.SupplierName,
			SupplierEmail:    row.SupplierEmail,
			ProposalID:       row.ProposalID,
			ProposalNumber:   row.ProposalNumber,
			Quantity:         quantity,
			UnitPrice:        unitPrice,
			UnitPriceWithVat: withVat,
			DeliveryCost:     delivery,
			Currency:         row.Currency,
			DeliveryPeriod:   row.DeliveryPeriod,
			Warranty:         row.Warranty,
			Notes:            row.Notes,
		})
	}
	return bids, nil
}

// GetApprovedExpenseTotal sums the approved additional expenses of a proposal.
func (d *DataSource) GetApprovedExpenseTotal(ctx context.Context, proposalID snowflake.ID) (decimal.Decimal, error) {
	var amounts []string
	err := d.db.WithContext(ctx).Raw(
		`SELECT amount FROM proposal_expenses WHERE proposal_id = ? AND status = ? ORDER BY id ASC`,
		proposalID,
		domain.ExpenseStatusApproved,
	).Scan(&amounts).Error
	if err != nil {
		return decimal.Zero, err
	}

	log := d.log.With(zap.String("proposal_id", proposalID.String()))
	total := decimal.Zero
	for i := range amounts {
		if amount, ok := d.parse(log, "expense_amount", &amounts[i]); ok && amount.IsPositive() {
			total = total.Add(*amount)
		}
	}
	return total, nil
}

func (d *DataSource) eligibleStatuses() []string {
	statuses := d.cfg.Get().EligibleProposalStatuses
	if len(statuses) == 0 {
		return config.DefaultAnalysisConfig().EligibleProposalStatuses
	}
	return statuses
}

// parse reads a decimal from a nullable text column. Empty values are absent;
// values that fail to parse are absent and logged.
func (d *DataSource) parse(log *zap.Logger, column string, raw *string) (*decimal.Decimal, bool) {
	if raw == nil {
		return nil, false
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, false
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		log.Warn("malformed numeric column ignored",
			zap.String("column", column),
			zap.String("value", value),
			zap.Error(err),
		)
		return nil, false
	}
	return &parsed, true
}
