package devserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banas-client/internal/auth"
	"banas-client/internal/models"
	"banas-client/internal/timeutil"
)

var ErrNotFound = errors.New("not found")

// inputError is a rejected write. key is the body key the message goes
// under ("detail" or "message").
type inputError struct {
	key string
	msg string
}

func (e *inputError) Error() string { return e.msg }

func rejectf(format string, args ...any) error {
	return &inputError{key: "detail", msg: fmt.Sprintf(format, args...)}
}

type userRecord struct {
	ID           int
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	IsSuperuser  bool
}

type customerRecord struct {
	ID         string
	FirstName  string
	LastName   string
	RouteID    string
	Rate       decimal.Decimal
	Phone      string
	Email      string
	SequenceNo *int
	Active     bool
	DateAdded  string
	AddedBy    string
	Due        decimal.Decimal
	TotalPaid  decimal.Decimal
}

func (c *customerRecord) name() string { return models.CustomerName(c.FirstName, c.LastName) }

type entryRecord struct {
	ID         string
	CustomerID string
	Cooler     int
	Date       string
	AddedBy    string
	Verified   bool
}

type billRecord struct {
	models.Bill
	CustomerID string
	Entries    []models.BillDailyEntry
}

type paymentRecord struct {
	models.Payment
	CustomerID string
}

// Backend is the in-memory data the dev server serves. All methods are safe
// for concurrent use.
type Backend struct {
	mu        sync.RWMutex
	users     []*userRecord
	routes    []models.Route
	customers []*customerRecord
	entries   []*entryRecord
	bills     []*billRecord
	payments  []*paymentRecord

	today func() string
}

func NewBackend() *Backend {
	return &Backend{today: timeutil.Today}
}

// AddUser registers a staff login. The password is stored bcrypt hashed.
func (b *Backend) AddUser(username, password, first, last, email string, superuser bool) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, &userRecord{
		ID:           len(b.users) + 1,
		Username:     username,
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  superuser,
	})
	return nil
}

func (b *Backend) Authenticate(username, password string) (*userRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, u := range b.users {
		if u.Username == username && auth.VerifyPassword(u.PasswordHash, password) {
			cp := *u
			return &cp, true
		}
	}
	return nil, false
}

func (b *Backend) UserByID(id int) (*userRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, u := range b.users {
		if u.ID == id {
			cp := *u
			return &cp, true
		}
	}
	return nil, false
}

func (b *Backend) AddRoute(name, addedBy string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	b.routes = append(b.routes, models.Route{ID: id, RouteName: name, DateAdded: b.today(), AddedBy: addedBy})
	return id
}

func (b *Backend) Routes() []models.Route {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Route, len(b.routes))
	copy(out, b.routes)
	return out
}

func (b *Backend) routeName(id string) string {
	for _, r := range b.routes {
		if r.ID == id {
			return r.RouteName
		}
	}
	return ""
}

func (b *Backend) routeExists(id string) bool {
	for _, r := range b.routes {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (b *Backend) customer(id string) *customerRecord {
	for _, c := range b.customers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// customerWire is the list shape of GET /customer/
type customerWire struct {
	ID         string          `json:"id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Route      string          `json:"route"`
	Rate       decimal.Decimal `json:"rate"`
	PhoneNo    string          `json:"phone_no"`
	Email      string          `json:"email"`
	SequenceNo *int            `json:"sequence_no"`
	Active     bool            `json:"active"`
	DateAdded  string          `json:"date_added"`
}

// Customers lists customers ordered by sequence number. An empty routeID
// lists every route.
func (b *Backend) Customers(routeID string) []customerWire {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []customerWire{}
	for _, c := range b.sortedCustomers() {
		if routeID != "" && c.RouteID != routeID {
			continue
		}
		out = append(out, customerWire{
			ID:         c.ID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Route:      b.routeName(c.RouteID),
			Rate:       c.Rate,
			PhoneNo:    c.Phone,
			Email:      c.Email,
			SequenceNo: c.SequenceNo,
			Active:     c.Active,
			DateAdded:  c.DateAdded,
		})
	}
	return out
}

func (b *Backend) sortedCustomers() []*customerRecord {
	out := make([]*customerRecord, len(b.customers))
	copy(out, b.customers)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].SequenceNo, out[j].SequenceNo
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		}
		return *si < *sj
	})
	return out
}

// customerInput is the body of customer create and update. Phone and
// sequence number arrive as numbers or strings depending on the form.
type customerInput struct {
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Route      string            `json:"route"`
	Rate       decimal.Decimal   `json:"rate"`
	PhoneNo    models.FlexString `json:"phone_no"`
	Email      string            `json:"email"`
	SequenceNo json.RawMessage   `json:"sequence_no"`
	Active     *bool             `json:"active"`
}

func (in customerInput) validate() error {
	switch {
	case strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "":
		return &inputError{key: "message", msg: "First name and last name are required."}
	case !in.Rate.IsPositive():
		return &inputError{key: "message", msg: "Rate must be greater than zero."}
	case len(in.PhoneNo.String()) != 10:
		return &inputError{key: "message", msg: "Phone number must be 10 digits."}
	}
	return nil
}

func sequenceFrom(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return nil, nil
	}
	var s models.FlexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(s.String())
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (b *Backend) phoneTaken(phone, exceptID string) bool {
	for _, c := range b.customers {
		if c.Phone == phone && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (b *Backend) CreateCustomer(in customerInput, addedBy string) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	seq, err := sequenceFrom(in.SequenceNo)
	if err != nil {
		return "", &inputError{key: "message", msg: "Sequence number must be a number."}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.routeExists(in.Route) {
		return "", &inputError{key: "message", msg: "Route not found."}
	}
	if b.phoneTaken(in.PhoneNo.String(), "") {
		return "", &inputError{key: "message", msg: "Customer with this phone number already exists."}
	}

	c := &customerRecord{
		ID:         uuid.NewString(),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		RouteID:    in.Route,
		Rate:       in.Rate,
		Phone:      in.PhoneNo.String(),
		Email:      in.Email,
		SequenceNo: seq,
		Active:     true,
		DateAdded:  b.today(),
		AddedBy:    addedBy,
	}
	b.customers = append(b.customers, c)
	return c.ID, nil
}

func (b *Backend) UpdateCustomer(id string, in customerInput) error {
	if err := in.validate(); err != nil {
		return rejectf("%s", err.Error())
	}
	seq, err := sequenceFrom(in.SequenceNo)
	if err != nil {
		return rejectf("Sequence number must be a number.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.customer(id)
	if c == nil {
		return ErrNotFound
	}
	if !b.routeExists(in.Route) {
		return rejectf("Route not found.")
	}
	if b.phoneTaken(in.PhoneNo.String(), id) {
		return rejectf("Customer with this phone number already exists.")
	}

	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.RouteID = in.Route
	c.Rate = in.Rate
	c.Phone = in.PhoneNo.String()
	c.Email = in.Email
	c.SequenceNo = seq
	if in.Active != nil {
		c.Active = *in.Active
	}
	return nil
}

func (b *Backend) CustomerDetail(id string) (*models.CustomerDetails, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := b.customer(id)
	if c == nil {
		return nil, ErrNotFound
	}

	d := &models.CustomerDetails{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		SequenceNo:   c.SequenceNo,
		PhoneNo:      models.FlexString(c.Phone),
		Route:        b.routeName(c.RouteID),
		Rate:         c.Rate,
		DateAdded:    c.DateAdded,
		Active:       c.Active,
		Account:      models.CustomerAccount{TotalPaid: c.TotalPaid, Due: c.Due},
		Bills:        []models.CustomerBill{},
		DailyEntries: []models.CustomerDailyEntry{},
		Payments:     []models.CustomerPayment{},
	}

	month := b.today()[:7]
	for _, e := range b.entries {
		if e.CustomerID != id || !e.Verified {
			continue
		}
		d.DailyEntries = append(d.DailyEntries, models.CustomerDailyEntry{Cooler: e.Cooler, DateAdded: e.Date, AddedBy: e.AddedBy})
		if strings.HasPrefix(e.Date, month) {
			d.DailyEntryMonthly += e.Cooler
		}
	}
	for _, bill := range b.bills {
		if bill.CustomerID != id {
			continue
		}
		d.Bills = append(d.Bills, models.CustomerBill{
			ID:         bill.ID,
			FromDate:   bill.FromDate,
			ToDate:     bill.ToDate,
			Coolers:    bill.Coolers,
			Total:      bill.Total,
			Paid:       bill.Paid,
			BillNumber: bill.Number(),
		})
	}
	for _, p := range b.payments {
		if p.CustomerID != id {
			continue
		}
		paid := p.PaidAmount
		d.Payments = append(d.Payments, models.CustomerPayment{
			ID:             p.ID,
			PaidAmount:     &paid,
			RoundOffAmount: p.RoundOffAmount,
			Date:           p.Date,
			Method:         p.PaymentMethod,
		})
	}
	return d, nil
}

func (b *Backend) AccountDue(id string) (*models.CustomerAccountDue, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := b.customer(id)
	if c == nil {
		return nil, ErrNotFound
	}
	return &models.CustomerAccountDue{
		ID:           c.ID,
		Date:         b.today(),
		Due:          c.Due,
		TotalPaid:    c.TotalPaid,
		AddedBy:      c.AddedBy,
		CustomerName: c.name(),
	}, nil
}

// entryWire is the shape of both entry lists. Verified rows carry "cooler",
// pending rows "coolers", as the real backend does.
type entryWire struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	CustomerName string `json:"customer_name"`
	Cooler       *int   `json:"cooler,omitempty"`
	Coolers      *int   `json:"coolers,omitempty"`
	AddedBy      string `json:"addedby"`
	DateAdded    string `json:"date_added"`
}

func (b *Backend) Entries(verified bool) []entryWire {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []entryWire{}
	for _, e := range b.entries {
		if e.Verified != verified {
			continue
		}
		n := e.Cooler
		w := entryWire{ID: e.ID, Customer: e.CustomerID, AddedBy: e.AddedBy, DateAdded: e.Date}
		if c := b.customer(e.CustomerID); c != nil {
			w.CustomerName = c.name()
		}
		if verified {
			w.Cooler = &n
		} else {
			w.Coolers = &n
		}
		out = append(out, w)
	}
	return out
}

func (b *Backend) hasEntry(customerID, date string) bool {
	for _, e := range b.entries {
		if e.CustomerID == customerID && e.Date == date {
			return true
		}
	}
	return false
}

// CreateEntry records a pending delivery. An empty date means today.
func (b *Backend) CreateEntry(customerID string, cooler int, date, addedBy string) error {
	if cooler <= 0 {
		return rejectf("Cooler count must be greater than zero.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if date == "" {
		date = b.today()
	}
	if b.customer(customerID) == nil {
		return rejectf("Customer not found.")
	}
	if b.hasEntry(customerID, date) {
		return rejectf("Entry already exists for this customer and date.")
	}
	b.entries = append(b.entries, &entryRecord{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Cooler:     cooler,
		Date:       date,
		AddedBy:    addedBy,
	})
	return nil
}

// Verify marks every listed entry verified and bills the coolers to the
// customer's due. Nothing changes unless every id is a pending entry.
func (b *Backend) Verify(items []models.VerifyEntryRequest) error {
	if len(items) == 0 {
		return rejectf("No entries to verify.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	found := make([]*entryRecord, len(items))
	for i, it := range items {
		for _, e := range b.entries {
			if e.ID == it.ID {
				found[i] = e
				break
			}
		}
		if found[i] == nil {
			return rejectf("Entry %s not found.", it.ID)
		}
		if found[i].Verified {
			return rejectf("Entry %s is already verified.", it.ID)
		}
	}

	for i, e := range found {
		if items[i].Coolers > 0 {
			e.Cooler = items[i].Coolers
		}
		e.Verified = true
		if c := b.customer(e.CustomerID); c != nil {
			c.Due = c.Due.Add(c.Rate.Mul(decimal.NewFromInt(int64(e.Cooler))))
		}
	}
	return nil
}

// Missing lists active customers with no entry today
func (b *Backend) Missing(routeID string) *models.MissingEntries {
	b.mu.RLock()
	defer b.mu.RUnlock()
	today := b.today()
	res := &models.MissingEntries{Date: today, Customers: []models.MissingEntryCustomer{}}
	if routeID != "" {
		r := routeID
		res.Route = &r
	}
	for _, c := range b.sortedCustomers() {
		if !c.Active || (routeID != "" && c.RouteID != routeID) || b.hasEntry(c.ID, today) {
			continue
		}
		res.Customers = append(res.Customers, models.MissingEntryCustomer{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName})
	}
	res.MissingCount = len(res.Customers)
	return res
}

// BulkImport creates today's pending entries for every item, or none when
// any item is invalid
func (b *Backend) BulkImport(items []models.BulkImportItem, addedBy string) error {
	if len(items) == 0 {
		return rejectf("No entries to import.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range items {
		if b.customer(it.Customer) == nil {
			return rejectf("Customer %s not found.", it.Customer)
		}
		if it.Cooler <= 0 {
			return rejectf("Cooler count must be greater than zero.")
		}
	}
	today := b.today()
	for _, it := range items {
		b.entries = append(b.entries, &entryRecord{
			ID:         uuid.NewString(),
			CustomerID: it.Customer,
			Cooler:     it.Cooler,
			Date:       today,
			AddedBy:    addedBy,
		})
	}
	return nil
}

func (b *Backend) Bills() []models.Bill {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Bill, 0, len(b.bills))
	for _, bill := range b.bills {
		out = append(out, bill.Bill)
	}
	return out
}

func (b *Backend) Bill(id string) (*models.BillDetail, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bill := range b.bills {
		if bill.ID == id {
			entries := make([]models.BillDailyEntry, len(bill.Entries))
			copy(entries, bill.Entries)
			return &models.BillDetail{Bill: bill.Bill, DailyEntries: entries}, nil
		}
	}
	return nil, ErrNotFound
}

// paymentsPage is GET /payment/; the total key has a space in it
type paymentsPage struct {
	Payments []models.Payment `json:"payments"`
	Total    decimal.Decimal  `json:"total paid amount"`
}

func (b *Backend) Payments() paymentsPage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	page := paymentsPage{Payments: []models.Payment{}}
	for _, p := range b.payments {
		page.Payments = append(page.Payments, p.Payment)
		page.Total = page.Total.Add(p.PaidAmount)
	}
	return page
}

// CreatePayment records a collection and lowers the customer's due by the
// paid and round-off amounts
func (b *Backend) CreatePayment(in models.CreatePaymentRequest, addedBy string) (*models.Payment, error) {
	if !in.PaymentMethod.Valid() {
		return nil, rejectf("Invalid payment method.")
	}
	if !in.PaidAmount.IsPositive() {
		return nil, rejectf("Paid amount must be greater than zero.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.customer(in.CustomerName)
	if c == nil {
		return nil, rejectf("Customer not found.")
	}

	p := &paymentRecord{
		CustomerID: c.ID,
		Payment: models.Payment{
			ID:             uuid.NewString(),
			CustomerName:   c.name(),
			PendingAmount:  c.Due,
			PaidAmount:     in.PaidAmount,
			PaymentMethod:  string(in.PaymentMethod),
			Date:           b.today(),
			AddedBy:        addedBy,
			RoundOffAmount: in.RoundOffAmount,
		},
	}
	settled := in.PaidAmount
	if in.RoundOffAmount != nil {
		settled = settled.Add(*in.RoundOffAmount)
	}
	c.Due = c.Due.Sub(settled)
	c.TotalPaid = c.TotalPaid.Add(in.PaidAmount)
	b.payments = append(b.payments, p)

	out := p.Payment
	return &out, nil
}

// Dues lists the due of every active customer, optionally on one route
func (b *Backend) Dues(routeID string) *models.DueList {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := &models.DueList{Items: []models.CustomerDue{}}
	for _, c := range b.sortedCustomers() {
		if !c.Active || (routeID != "" && c.RouteID != routeID) {
			continue
		}
		list.Items = append(list.Items, models.CustomerDue{CustomerID: c.ID, CustomerName: c.name(), Due: c.Due})
		list.DueTotal = list.DueTotal.Add(c.Due)
	}
	return list
}

type dashboardWire struct {
	TotalActiveCustomers int             `json:"total_active_customers"`
	TodayCustomerCount   int             `json:"today_customer_count"`
	TodayCoolersCount    int             `json:"today_coolers_count"`
	TotalPendingDue      decimal.Decimal `json:"total_pending_due"`
}

func (b *Backend) Dashboard() dashboardWire {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var d dashboardWire
	for _, c := range b.customers {
		if c.Active {
			d.TotalActiveCustomers++
		}
		if c.Due.IsPositive() {
			d.TotalPendingDue = d.TotalPendingDue.Add(c.Due)
		}
	}
	today := b.today()
	seen := map[string]bool{}
	for _, e := range b.entries {
		if e.Date != today {
			continue
		}
		d.TodayCoolersCount += e.Cooler
		if !seen[e.CustomerID] {
			seen[e.CustomerID] = true
			d.TodayCustomerCount++
		}
	}
	return d
}
