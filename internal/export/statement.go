// Package export renders bill statements to PDF and ships them to a local
// directory or an S3 compatible bucket.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"banas-client/internal/models"
	"banas-client/internal/timeutil"
)

// StatementRow is one delivery line of a statement
type StatementRow struct {
	Date    string
	Coolers int
	AddedBy string
}

// Statement is the printable view of a bill
type Statement struct {
	Number       string
	CustomerName string
	Period       string
	Coolers      int
	Rate         decimal.Decimal
	Amount       decimal.Decimal
	Pending      decimal.Decimal
	Advance      decimal.Decimal
	Total        decimal.Decimal
	Paid         bool
	Rows         []StatementRow
}

// StatementFrom flattens a bill detail into display values. Dates are shown
// in the "02 Jan 2006" form.
func StatementFrom(d *models.BillDetail) Statement {
	b := d.Bill
	number := b.Number()
	if number == "" {
		number = b.ID
	}

	st := Statement{
		Number:       number,
		CustomerName: b.CustomerName,
		Period:       fmt.Sprintf("%s - %s", timeutil.Display(b.FromDate), timeutil.Display(b.ToDate)),
		Coolers:      b.Coolers,
		Rate:         b.Rate,
		Amount:       b.Amount,
		Pending:      b.PendingAmount,
		Advance:      b.AdvancedAmount,
		Total:        b.Total,
		Paid:         b.Paid,
		Rows:         make([]StatementRow, 0, len(d.DailyEntries)),
	}
	for _, e := range d.DailyEntries {
		addedBy := e.AddedBy
		if addedBy == "" {
			addedBy = "Admin"
		}
		st.Rows = append(st.Rows, StatementRow{
			Date:    timeutil.Display(e.DateAdded),
			Coolers: e.Cooler,
			AddedBy: addedBy,
		})
	}
	return st
}

// FileName is the name a statement is saved and uploaded under
func (st Statement) FileName() string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '_'
		}
		return -1
	}, st.CustomerName)
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("bill_%s_%s.pdf", sanitize(st.Number), name)
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(s)
}

func rupees(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

// RenderPDF draws the statement on a single A4 page (more when the entry
// table overflows)
func RenderPDF(st Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Bill "+st.Number, false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Banas Water Supply - Bill Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Bill info box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Bill Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Bill No: "+st.Number, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Customer: "+st.CustomerName, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Period: "+st.Period, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Coolers: %d @ %s", st.Coolers, rupees(st.Rate)), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Deliveries
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Deliveries", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(70, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Coolers", "1", 0, "C", true, 0, "")
	pdf.CellFormat(70, 7, "Added By", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, r := range st.Rows {
		addedBy := r.AddedBy
		if len(addedBy) > 30 {
			addedBy = addedBy[:27] + "..."
		}
		pdf.CellFormat(70, 6, r.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%d", r.Coolers), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, addedBy, "1", 1, "L", false, 0, "")
	}
	if len(st.Rows) == 0 {
		pdf.CellFormat(190, 6, "No deliveries in this period", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// Amounts
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Amount Summary", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 8, "Amount: "+rupees(st.Amount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Previous Pending: "+rupees(st.Pending), "1", 1, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Advance: "+rupees(st.Advance), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Total: "+rupees(st.Total), "1", 1, "C", false, 0, "")

	if st.Paid {
		pdf.SetFillColor(200, 255, 200)
	} else {
		pdf.SetFillColor(255, 200, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	status := "Total Due: " + rupees(st.Total)
	if st.Paid {
		status = "PAID"
	}
	pdf.CellFormat(190, 10, status, "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement %s: %w", st.Number, err)
	}
	return buf.Bytes(), nil
}
