package models

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "UPI"
	PaymentMethodCheque PaymentMethod = "cheque"
)

// Valid reports whether m is one of the methods the backend accepts
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCheque:
		return true
	}
	return false
}

// Payment is an append-only collection record
type Payment struct {
	ID             string           `json:"id"`
	CustomerName   string           `json:"customer_name"`
	PendingAmount  decimal.Decimal  `json:"pending_amount"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	PaymentMethod  string           `json:"payment_method"`
	Date           string           `json:"date"`
	AddedBy        string           `json:"addedby"`
	RoundOffAmount *decimal.Decimal `json:"round_off_amount,omitempty"`
}

// PaymentsPage is the payment list plus the collected total
type PaymentsPage struct {
	Payments        []Payment
	TotalPaidAmount decimal.Decimal
}

// CreatePaymentRequest is the body of POST /payment/. The backend names the
// customer id field "customer_name" and spells round-off "rounf_off_amount".
type CreatePaymentRequest struct {
	CustomerName   string           `json:"customer_name"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	RoundOffAmount *decimal.Decimal `json:"rounf_off_amount,omitempty"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	Notes          string           `json:"notes,omitempty"`
}
