package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects amounts as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Customer is the directory (list view) shape of a customer
type Customer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`     // first_name + " " + last_name
	Initials string `json:"initials"` // upper(first letters), empty-safe
	Route    string `json:"route"`    // route name
	IsActive bool   `json:"isActive"`
}

// CustomerName joins first and last name exactly as the directory shows it
func CustomerName(first, last string) string {
	return first + " " + last
}

// Initials returns the uppercased first letter of each name part. A missing
// part contributes nothing.
func Initials(first, last string) string {
	return strings.ToUpper(firstRune(first) + firstRune(last))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// FlexString decodes from either a JSON string or a JSON number. Phone
// numbers come back from the backend in both forms.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// CustomerAccount holds the running totals shown on the profile
type CustomerAccount struct {
	TotalPaid decimal.Decimal `json:"total_paid"`
	Due       decimal.Decimal `json:"due"`
}

// CustomerDailyEntry is a delivery row embedded in the customer detail
type CustomerDailyEntry struct {
	Cooler    int    `json:"cooler"`
	DateAdded string `json:"date_added"`
	AddedBy   string `json:"addedby"`
}

// CustomerBill is a bill summary embedded in the customer detail
type CustomerBill struct {
	ID         string          `json:"id,omitempty"`
	FromDate   string          `json:"from_date"`
	ToDate     string          `json:"to_date"`
	Coolers    int             `json:"coolers"`
	Total      decimal.Decimal `json:"Total"`
	Paid       bool            `json:"paid"`
	BillNumber string          `json:"bill_number"`
}

// CustomerPayment is a payment row embedded in the customer detail.
// "rounf_off_amount" is the backend's spelling.
type CustomerPayment struct {
	ID             string           `json:"id,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PaidAmount     *decimal.Decimal `json:"paid_amount,omitempty"`
	RoundOffAmount *decimal.Decimal `json:"rounf_off_amount,omitempty"`
	Date           string           `json:"date"`
	Method         string           `json:"method"`
}

// CustomerDetails is the profile/ledger view of one customer
type CustomerDetails struct {
	ID                string               `json:"id"`
	FirstName         string               `json:"first_name"`
	LastName          string               `json:"last_name"`
	SequenceNo        *int                 `json:"sequence_no"`
	PhoneNo           FlexString           `json:"phone_no"`
	Route             string               `json:"route"`
	Rate              decimal.Decimal      `json:"rate"`
	DateAdded         string               `json:"date_added"`
	Active            bool                 `json:"active"`
	Account           CustomerAccount      `json:"customer_account"`
	Bills             []CustomerBill       `json:"bills"`
	DailyEntries      []CustomerDailyEntry `json:"daily_entries"`
	DailyEntryMonthly int                  `json:"daily_entry_monthly"`
	Payments          []CustomerPayment    `json:"payments"`
	QRCode            struct {
		URL string `json:"qrcode_url"`
	} `json:"qr_code"`
}

// FullName returns the directory-style display name
func (c *CustomerDetails) FullName() string {
	return CustomerName(c.FirstName, c.LastName)
}

// CustomerAccountDue is the current balance of one customer
type CustomerAccountDue struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	Due          decimal.Decimal `json:"due"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	AddedBy      string          `json:"addedby"`
	UpdatedBy    *string         `json:"updatedby"`
	CustomerName string          `json:"customer_name"`
}

// CreateCustomerRequest is the body of POST /customer/. SequenceNo carries a
// number, or "" when the field was left blank.
type CreateCustomerRequest struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Route      string          `json:"route"` // route id
	Rate       decimal.Decimal `json:"rate"`
	PhoneNo    int64           `json:"phone_no"`
	Email      string          `json:"email"`
	SequenceNo any             `json:"sequence_no"`
}

// UpdateCustomerRequest is the body of PUT /customer/{id}/
type UpdateCustomerRequest struct {
	Route      string          `json:"route"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	PhoneNo    string          `json:"phone_no"`
	Email      string          `json:"email,omitempty"`
	Rate       decimal.Decimal `json:"rate"`
	SequenceNo *int            `json:"sequence_no"`
	Active     bool            `json:"active"`
}
