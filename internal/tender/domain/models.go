package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ProposalStatusDraft     = "draft"
	ProposalStatusSubmitted = "submitted"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

type Tender struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code      string            `gorm:"not null;uniqueIndex" json:"code"`
	Title     string            `gorm:"not null" json:"title"`
	Currency  string            `gorm:"not null" json:"currency"`
	Status    string            `gorm:"not null" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// TenderLineItem is one requested good or service. Quantity is numeric; the
// estimate is kept as text because it is imported from procurement plans as
// entered.
type TenderLineItem struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenderID           snowflake.ID  `gorm:"not null;index" json:"tender_id"`
	Ordinal            int           `gorm:"not null" json:"ordinal"`
	Description        string        `gorm:"not null" json:"description"`
	Quantity           string        `gorm:"type:numeric;not null" json:"quantity"`
	Unit               string        `gorm:"not null" json:"unit"`
	EstimatedUnitPrice *string       `gorm:"type:text" json:"estimated_unit_price,omitempty"`
	AwardedSupplierID  *snowflake.ID `json:"awarded_supplier_id,omitempty"`
	CreatedAt          time.Time     `gorm:"not null" json:"created_at"`
}

func (TenderLineItem) TableName() string { return "tender_line_items" }

type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

type Proposal struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	TenderID       snowflake.ID `gorm:"not null;index" json:"tender_id"`
	SupplierID     snowflake.ID `gorm:"not null;index" json:"supplier_id"`
	Number         string       `gorm:"not null" json:"number"`
	Status         string       `gorm:"not null" json:"status"`
	Currency       string       `json:"currency"`
	DeliveryPeriod string       `json:"delivery_period"`
	Warranty       string       `json:"warranty"`
	Notes          string       `json:"notes"`
	SubmittedAt    time.Time    `gorm:"not null" json:"submitted_at"`
}

// ProposalItem is a supplier's quote for one line item. Price columns are
// stored as submitted, so they may hold text that does not parse as a number.
type ProposalItem struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ProposalID       snowflake.ID `gorm:"not null;index" json:"proposal_id"`
	LineItemID       snowflake.ID `gorm:"not null;index" json:"line_item_id"`
	Quantity         *string      `gorm:"type:text" json:"quantity,omitempty"`
	UnitPrice        *string      `gorm:"type:text" json:"unit_price,omitempty"`
	UnitPriceWithVat *string      `gorm:"type:text" json:"unit_price_with_vat,omitempty"`
	DeliveryCost     *string      `gorm:"type:text" json:"delivery_cost,omitempty"`
	Notes            string       `json:"notes"`
}

type ProposalExpense struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ProposalID  snowflake.ID `gorm:"not null;index" json:"proposal_id"`
	Description string       `gorm:"not null" json:"description"`
	Amount      string       `gorm:"type:text;not null" json:"amount"`
	Status      string       `gorm:"not null" json:"status"`
}

// Models lists every table owned by this package, in dependency order.
func Models() []any {
	return []any{
		&Tender{},
		&TenderLineItem{},
		&Supplier{},
		&Proposal{},
		&ProposalItem{},
		&ProposalExpense{},
	}
}
