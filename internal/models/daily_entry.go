package models

// EntryStatus is either pending or verified. An entry only ever moves from
// pending to verified.
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusVerified EntryStatus = "verified"
)

// DailyEntry is one day's cooler delivery for a customer
type DailyEntry struct {
	ID           string      `json:"id"`
	CustomerID   string      `json:"customerId"`
	CustomerName string      `json:"customerName"`
	Cooler       int         `json:"cooler"`
	AddedBy      string      `json:"addedBy"`
	Date         string      `json:"date"`
	Status       EntryStatus `json:"status"`
}

// CreateEntryRequest is the client-side input for a single new entry
type CreateEntryRequest struct {
	CustomerID string
	Cooler     int
	Date       string
}

// VerifyEntryRequest is one element of the bulk verify body
type VerifyEntryRequest struct {
	ID        string `json:"id"`
	Customer  string `json:"customer"`
	Coolers   int    `json:"coolers"`
	DateAdded string `json:"date_added"`
}

// VerifyRequestFor builds the verify body element for an entry
func VerifyRequestFor(e DailyEntry) VerifyEntryRequest {
	return VerifyEntryRequest{
		ID:        e.ID,
		Customer:  e.CustomerID,
		Coolers:   e.Cooler,
		DateAdded: e.Date,
	}
}

// MissingEntryCustomer is a customer without an entry for the query date
type MissingEntryCustomer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// MissingEntries is the response of the missing-entries endpoint
type MissingEntries struct {
	Date         string                 `json:"date"`
	Route        *string                `json:"route"`
	MissingCount int                    `json:"missing_count"`
	Customers    []MissingEntryCustomer `json:"customers"`
}

// BulkImportItem is one customer's cooler count in a bulk import
type BulkImportItem struct {
	Customer string `json:"customer"`
	Cooler   int    `json:"cooler"`
}
