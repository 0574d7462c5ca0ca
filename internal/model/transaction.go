package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxAdd     TransactionType = "ADD"
	TxRestock TransactionType = "RESTOCK"
	TxSale    TransactionType = "SALE"
	TxRemove  TransactionType = "REMOVE"
)

// Inbound reports whether the movement added stock.
func (t TransactionType) Inbound() bool {
	return t == TxAdd || t == TxRestock
}

// Transaction is one append-only ledger entry. ProductID carries no foreign key so the
// entry survives the deletion of its product.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Ref         uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"ref"`
	ProductID   *uint           `gorm:"index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(50);not null" json:"product_name"`
	CompanyID   uint            `gorm:"not null;index" json:"company_id"`
	Type        TransactionType `gorm:"type:varchar(10);not null;check:chk_transactions_type,type IN ('ADD','RESTOCK','SALE','REMOVE')" json:"type"`
	Quantity    int             `gorm:"not null;check:chk_transactions_quantity,quantity >= 0" json:"quantity"`
	Value       decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"value"`
	Country     string          `gorm:"type:varchar(3);not null" json:"country"`
	CreatedAt   time.Time       `gorm:"index" json:"timestamp"`
}

// NewTransaction snapshots p for a movement of quantity units. Value is computed from
// the product's current price.
func NewTransaction(p *Product, txType TransactionType, quantity int) *Transaction {
	id := p.ID
	return &Transaction{
		Ref:         uuid.New(),
		ProductID:   &id,
		ProductName: p.Name,
		CompanyID:   p.CompanyID,
		Type:        txType,
		Quantity:    quantity,
		Value:       p.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		Country:     p.Country,
	}
}
