package devserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banas-client/internal/models"
	"banas-client/internal/timeutil"
)

// Seed credentials for local development
const (
	SeedUsername = "admin"
	SeedPassword = "banas123"
)

type seedCustomer struct {
	first, last string
	route       int
	rate        int64
	phone       string
	due         int64
	active      bool
}

// Seed fills an empty backend with two routes, a handful of customers and
// today's entries: one verified, two pending. Dues are 50, 0 and 87 across
// the active customers.
func (b *Backend) Seed() error {
	if err := b.AddUser(SeedUsername, SeedPassword, "Banas", "Admin", "admin@banas.local", true); err != nil {
		return err
	}
	routes := []string{b.AddRoute("North", SeedUsername), b.AddRoute("South", SeedUsername)}

	b.mu.Lock()
	defer b.mu.Unlock()

	now, err := timeutil.ParseDate(b.today())
	if err != nil {
		now = timeutil.StartOfDay(timeutil.Now())
	}
	today := now.Format(timeutil.DateLayout)
	monthAgo := now.AddDate(0, -1, 0)

	seeds := []seedCustomer{
		{"Asha", "Patel", 0, 25, "9876543210", 50, true},
		{"Ravi", "Shah", 0, 30, "9876543211", 0, true},
		{"Mina", "Desai", 1, 20, "9876543212", 87, true},
		{"Kiran", "Rao", 1, 25, "9876543213", 0, false},
	}
	for i, s := range seeds {
		seq := i + 1
		b.customers = append(b.customers, &customerRecord{
			ID:         uuid.NewString(),
			FirstName:  s.first,
			LastName:   s.last,
			RouteID:    routes[s.route],
			Rate:       decimal.NewFromInt(s.rate),
			Phone:      s.phone,
			SequenceNo: &seq,
			Active:     s.active,
			DateAdded:  monthAgo.Format(timeutil.DateLayout),
			AddedBy:    SeedUsername,
			Due:        decimal.NewFromInt(s.due),
		})
	}

	asha, ravi, mina := b.customers[0], b.customers[1], b.customers[2]
	b.entries = append(b.entries,
		&entryRecord{ID: uuid.NewString(), CustomerID: asha.ID, Cooler: 2, Date: today, AddedBy: SeedUsername, Verified: true},
		&entryRecord{ID: uuid.NewString(), CustomerID: ravi.ID, Cooler: 1, Date: today, AddedBy: SeedUsername},
		&entryRecord{ID: uuid.NewString(), CustomerID: mina.ID, Cooler: 3, Date: today, AddedBy: SeedUsername},
	)

	b.bills = append(b.bills, seedBill(asha, monthAgo))

	paid := decimal.NewFromInt(300)
	b.payments = append(b.payments, &paymentRecord{
		CustomerID: ravi.ID,
		Payment: models.Payment{
			ID:            uuid.NewString(),
			CustomerName:  ravi.name(),
			PendingAmount: paid,
			PaidAmount:    paid,
			PaymentMethod: string(models.PaymentMethodUPI),
			Date:          today,
			AddedBy:       SeedUsername,
		},
	})
	ravi.TotalPaid = paid
	return nil
}

// seedBill bills one cooler a day for the first week of the month that
// starts at from
func seedBill(c *customerRecord, from time.Time) *billRecord {
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, timeutil.IST)
	end := start.AddDate(0, 1, -1)

	entries := make([]models.BillDailyEntry, 0, 7)
	for d := 0; d < 7; d++ {
		entries = append(entries, models.BillDailyEntry{
			Cooler:    1,
			DateAdded: start.AddDate(0, 0, d).Format(timeutil.DateLayout),
			AddedBy:   SeedUsername,
		})
	}
	amount := c.Rate.Mul(decimal.NewFromInt(int64(len(entries))))
	number := "BNS/" + start.Format("2006/01") + "/001"
	addedBy := SeedUsername

	return &billRecord{
		CustomerID: c.ID,
		Entries:    entries,
		Bill: models.Bill{
			ID:           uuid.NewString(),
			CustomerName: c.name(),
			BillNumber:   &number,
			FromDate:     start.Format(timeutil.DateLayout),
			ToDate:       end.Format(timeutil.DateLayout),
			Coolers:      len(entries),
			Rate:         c.Rate,
			Amount:       amount,
			Total:        amount,
			Date:         end.Format(timeutil.DateLayout),
			AddedBy:      &addedBy,
		},
	}
}
