package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы платежа. Переходы выполняет движок в internal/leasing:
// pending ⇄ paid операторскими действиями, pending → overdue ежедневной проверкой.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// Payment представляет один плановый взнос по договору клиента.
// DueDate и Amount задаются при генерации графика и дальше не меняются;
// исключение — строка досрочного погашения (IsEarlyCloseout).
type Payment struct {
	gorm.Model

	CustomerID uint     `gorm:"column:customer_id;not null;index" json:"customerId"`
	Customer   Customer `gorm:"foreignKey:CustomerID"             json:"-"`

	DueDate time.Time `gorm:"column:due_date;not null"                  json:"dueDate"`
	Amount  float64   `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Status  string    `gorm:"column:status;default:pending;index"       json:"status"`

	// PaymentDate заполняется при переводе в paid и очищается при откате в pending.
	PaymentDate *time.Time `gorm:"column:payment_date" json:"paymentDate,omitempty"`

	ProofOfPaymentPath *string `gorm:"column:proof_of_payment_path" json:"proofOfPaymentPath,omitempty"`
	Notes              string  `gorm:"column:notes;type:text"       json:"notes"`

	// IsEarlyCloseout помечает строку, созданную досрочным погашением договора.
	IsEarlyCloseout bool `gorm:"column:is_early_closeout;default:false" json:"isEarlyCloseout"`
}

func (Payment) TableName() string { return "payments" }

// IsOverdue — просрочен ли плановый платеж на момент asOf.
func (p *Payment) IsOverdue(asOf time.Time) bool {
	return p.Status == PaymentStatusPending && p.DueDate.Before(asOf)
}
