package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusOverdue   PaymentStatus = "OVERDUE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled},
	PaymentStatusPartial: {PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled},
	PaymentStatusOverdue: {PaymentStatusPaid, PaymentStatusPartial, PaymentStatusCancelled},
}

// UnsettledPaymentStatuses age into OVERDUE once their due date passes.
var UnsettledPaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPartial}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uq_payments_contract_period" json:"contract_id"`
	Contract    *Contract     `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	PeriodYear  int           `gorm:"not null;uniqueIndex:uq_payments_contract_period;index:idx_payments_period,priority:1" json:"period_year"`
	PeriodMonth int           `gorm:"not null;uniqueIndex:uq_payments_contract_period;index:idx_payments_period,priority:2" json:"period_month"`
	AmountTHB   float64       `gorm:"column:amount_thb;not null" json:"amount_thb"`
	PaidTHB     float64       `gorm:"column:paid_thb;not null" json:"paid_thb"`
	DueDate     time.Time     `gorm:"not null;index" json:"due_date"`
	PaidDate    *time.Time    `json:"paid_date,omitempty"`
	Status      PaymentStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Notes       *string       `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Outstanding is what is still owed on the row.
func (p Payment) Outstanding() float64 {
	if p.PaidTHB >= p.AmountTHB {
		return 0
	}
	return p.AmountTHB - p.PaidTHB
}
