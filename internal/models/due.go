package models

import "github.com/shopspring/decimal"

// CustomerDue is one customer's outstanding balance
type CustomerDue struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Due          decimal.Decimal `json:"due"`
}

// Cleared reports whether nothing is owed. There is no stored flag; it is
// derived every time.
func (d CustomerDue) Cleared() bool {
	return d.Due.IsZero()
}

// DueList is the due-list response
type DueList struct {
	Items    []CustomerDue   `json:"customer_due_list"`
	DueTotal decimal.Decimal `json:"due_total"`
}
