package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// PaymentMethod is how a transaction was settled.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodOther        PaymentMethod = "other"
)

// Transaction is a confirmed income or expense record. The forecasting core
// only ever reads transactions.
type Transaction struct {
	Base
	StudentID       string          `gorm:"type:uuid;not null;index:idx_transactions_student_date" json:"student_id"`
	Type            TransactionType `gorm:"not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	CategoryID      string          `gorm:"type:uuid;not null;index" json:"category_id"`
	TransactionDate time.Time       `gorm:"not null;index:idx_transactions_student_date" json:"transaction_date"`
	PaymentMethod   PaymentMethod   `gorm:"not null;default:'cash'" json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	Location        string          `json:"location,omitempty"`
	Metadata        datatypes.JSON  `json:"metadata,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
