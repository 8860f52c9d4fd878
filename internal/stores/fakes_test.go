package stores

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"banas-client/internal/apiclient"
	"banas-client/internal/models"
)

var errDown = errors.New("connection refused")

// serverError is the error the resource client returns for a rejected call
func serverError(status int, body string) error {
	return &apiclient.APIError{Method: http.MethodGet, Path: "/", StatusCode: status, Body: []byte(body)}
}

type fakeAuth struct {
	loginResult *models.LoginResult
	loginErr    error
	logoutErr   error
	token       string
	tokenErr    error
	user        *models.UserProfile
	userErr     error
	loggedOut   bool
}

func (f *fakeAuth) Login(context.Context, models.LoginRequest) (*models.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

func (f *fakeAuth) StoredAccessToken(context.Context) (string, error) { return f.token, f.tokenErr }

func (f *fakeAuth) StoredUser(context.Context) (*models.UserProfile, error) { return f.user, f.userErr }

type fakeCustomers struct {
	mu         sync.Mutex
	list       []models.Customer
	byRoute    map[string][]models.Customer
	listErr    error
	details    *models.CustomerDetails
	detailsErr error
	due        *models.CustomerAccountDue
	dueErr     error
	createErr  error
	updateErr  error
	creates    []models.CreateCustomerRequest
	updates    []models.UpdateCustomerRequest
	updateIDs  []string
	routeCalls []string
}

func (f *fakeCustomers) FetchCustomers(context.Context) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeCalls = append(f.routeCalls, "")
	return f.list, f.listErr
}

func (f *fakeCustomers) FetchCustomersByRoute(_ context.Context, routeID string) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeCalls = append(f.routeCalls, routeID)
	return f.byRoute[routeID], f.listErr
}

func (f *fakeCustomers) FetchCustomerDetails(context.Context, string) (*models.CustomerDetails, error) {
	return f.details, f.detailsErr
}

func (f *fakeCustomers) FetchAccountDue(context.Context, string) (*models.CustomerAccountDue, error) {
	return f.due, f.dueErr
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, req models.CreateCustomerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.createErr
}

func (f *fakeCustomers) UpdateCustomer(_ context.Context, id string, req models.UpdateCustomerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateIDs = append(f.updateIDs, id)
	f.updates = append(f.updates, req)
	return f.updateErr
}

type fakeRoutes struct {
	routes []models.Route
	err    error
}

func (f *fakeRoutes) FetchRoutes(context.Context) ([]models.Route, error) { return f.routes, f.err }

// gate blocks a fake call until the test releases it
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	g.started <- struct{}{}
	<-g.release
}

type fakeEntries struct {
	fetchGate  *gate
	verifyGate *gate

	mu         sync.Mutex
	entries    []models.DailyEntry
	fetchErr   error
	fetches    int
	verifyErr  error
	verified   [][]models.VerifyEntryRequest
	missing    *models.MissingEntries
	missingErr error
	missingFor []string
	bulkErr    error
	bulk       [][]models.BulkImportItem
	createErr  error
	created    []models.CreateEntryRequest
}

func (f *fakeEntries) FetchEntries(context.Context) ([]models.DailyEntry, error) {
	f.fetchGate.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]models.DailyEntry, len(f.entries))
	copy(out, f.entries)
	return out, f.fetchErr
}

func (f *fakeEntries) CreateEntry(_ context.Context, req models.CreateEntryRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return f.createErr
}

func (f *fakeEntries) VerifyEntries(_ context.Context, reqs []models.VerifyEntryRequest) error {
	f.verifyGate.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, reqs)
	return f.verifyErr
}

func (f *fakeEntries) FetchMissingEntries(_ context.Context, routeID string) (*models.MissingEntries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missingFor = append(f.missingFor, routeID)
	return f.missing, f.missingErr
}

func (f *fakeEntries) BulkImport(_ context.Context, items []models.BulkImportItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, items)
	return f.bulkErr
}

type fakeBills struct {
	bills     []models.Bill
	err       error
	detail    *models.BillDetail
	detailErr error
}

func (f *fakeBills) FetchBills(context.Context) ([]models.Bill, error) { return f.bills, f.err }

func (f *fakeBills) FetchBillDetails(context.Context, string) (*models.BillDetail, error) {
	return f.detail, f.detailErr
}

type fakePayments struct {
	mu        sync.Mutex
	page      *models.PaymentsPage
	err       error
	createErr error
	created   []models.CreatePaymentRequest
}

func (f *fakePayments) FetchPayments(context.Context) (*models.PaymentsPage, error) {
	return f.page, f.err
}

func (f *fakePayments) CreatePayment(_ context.Context, req models.CreatePaymentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return f.createErr
}

type fakeDues struct {
	all     *models.DueList
	byRoute map[string]*models.DueList
	err     error
}

func (f *fakeDues) FetchDueList(context.Context) (*models.DueList, error) { return f.all, f.err }

func (f *fakeDues) FetchDueListByRoute(_ context.Context, routeID string) (*models.DueList, error) {
	return f.byRoute[routeID], f.err
}

type fakeDashboard struct {
	data *models.DashboardData
	err  error
}

func (f *fakeDashboard) FetchDashboard(context.Context) (*models.DashboardData, error) {
	return f.data, f.err
}
