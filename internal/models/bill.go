package models

import "github.com/shopspring/decimal"

// Bill is an immutable snapshot of one billing period. The capitalised keys
// are the backend's.
type Bill struct {
	ID             string          `json:"id"`
	CustomerName   string          `json:"customer_name"`
	BillNumber     *string         `json:"bill_number"`
	FromDate       string          `json:"from_date"`
	ToDate         string          `json:"to_date"`
	Coolers        int             `json:"coolers"`
	Rate           decimal.Decimal `json:"Rate"`
	Amount         decimal.Decimal `json:"Amount"`
	PendingAmount  decimal.Decimal `json:"Pending_amount"`
	AdvancedAmount decimal.Decimal `json:"Advanced_amount"`
	Total          decimal.Decimal `json:"Total"`
	Date           string          `json:"date"`
	Paid           bool            `json:"paid"`
	AddedBy        *string         `json:"addedby"`
	UpdatedBy      *string         `json:"updatedby"`
}

// Number returns the bill number or "" when the bill has none yet
func (b *Bill) Number() string {
	if b.BillNumber == nil {
		return ""
	}
	return *b.BillNumber
}

// BillDailyEntry is a delivery row counted into a bill
type BillDailyEntry struct {
	Cooler    int    `json:"cooler"`
	DateAdded string `json:"date_added"`
	AddedBy   string `json:"addedby"`
}

// BillDetail is a bill with the entries it was computed from
type BillDetail struct {
	Bill         Bill             `json:"bill"`
	DailyEntries []BillDailyEntry `json:"daily_entry"`
}
