package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banas-client/internal/apiclient"
	"banas-client/internal/models"
	"banas-client/internal/securestore"
)

// fakeAPI answers "METHOD path" with a canned body and records request bodies
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
	bodies    map[string][]byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: map[string]string{},
		failures:  map[string]error{},
		bodies:    map[string][]byte{},
	}
}

func (f *fakeAPI) on(method, path, body string) { f.responses[method+" "+path] = body }

func (f *fakeAPI) fail(method, path string, err error) { f.failures[method+" "+path] = err }

func (f *fakeAPI) do(method, path string, body any) ([]byte, error) {
	key := method + " " + path
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if body != nil {
		b, _ := json.Marshal(body)
		f.bodies[key] = b
	}
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if resp, ok := f.responses[key]; ok {
		return []byte(resp), nil
	}
	return []byte(`{}`), nil
}

func (f *fakeAPI) Get(_ context.Context, path string) ([]byte, error) {
	return f.do(http.MethodGet, path, nil)
}

func (f *fakeAPI) Post(_ context.Context, path string, body any) ([]byte, error) {
	return f.do(http.MethodPost, path, body)
}

func (f *fakeAPI) Put(_ context.Context, path string, body any) ([]byte, error) {
	return f.do(http.MethodPut, path, body)
}

func TestAuthService_LoginPersistsSecrets(t *testing.T) {
	api := newFakeAPI()
	api.on("POST", "/login/", `{
		"id": 7, "user": "ravi", "first_name": "Ravi", "last_name": "Patel",
		"full_name": "Ravi Patel", "email": null, "is_superuser": true,
		"access": "a1", "refresh": "r1"
	}`)
	tokens := securestore.NewMemoryStore()
	svc := NewAuthService(api, tokens)
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "ravi", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.Access)
	assert.Equal(t, "r1", res.Refresh)
	assert.Equal(t, &models.UserProfile{
		ID: 7, Username: "ravi", FirstName: "Ravi", LastName: "Patel",
		FullName: "Ravi Patel", Email: "", IsSuperuser: true,
	}, res.User)
	assert.JSONEq(t, `{"username":"ravi","password":"pw"}`, string(api.bodies["POST /login/"]))

	token, err := svc.StoredAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", token)

	user, err := svc.StoredUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.User, user)

	refresh, _ := tokens.Get(ctx, apiclient.RefreshTokenKey)
	assert.Equal(t, "r1", refresh)
}

func TestAuthService_LoginFailureStoresNothing(t *testing.T) {
	api := newFakeAPI()
	api.fail("POST", "/login/", errors.New("boom"))
	svc := NewAuthService(api, securestore.NewMemoryStore())

	_, err := svc.Login(context.Background(), models.LoginRequest{})
	require.Error(t, err)

	token, err := svc.StoredAccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAuthService_LogoutRemovesAllThree(t *testing.T) {
	tokens := securestore.NewMemoryStore()
	ctx := context.Background()
	for _, k := range []string{apiclient.AccessTokenKey, apiclient.RefreshTokenKey, UserKey} {
		require.NoError(t, tokens.Set(ctx, k, "x"))
	}

	require.NoError(t, NewAuthService(newFakeAPI(), tokens).Logout(ctx))

	for _, k := range []string{apiclient.AccessTokenKey, apiclient.RefreshTokenKey, UserKey} {
		_, err := tokens.Get(ctx, k)
		assert.ErrorIs(t, err, securestore.ErrNotFound, k)
	}
}

func TestAuthService_StoredUserDegradesToNil(t *testing.T) {
	tokens := securestore.NewMemoryStore()
	svc := NewAuthService(newFakeAPI(), tokens)
	ctx := context.Background()

	user, err := svc.StoredUser(ctx)
	assert.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, tokens.Set(ctx, UserKey, "{not json"))
	user, err = svc.StoredUser(ctx)
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestCustomerService_MapsList(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/customer/", `[
		{"id":"c1","first_name":"asha","last_name":"mehta","route":"North","active":true},
		{"id":"c2","first_name":"","last_name":"Khan","route":"South","active":false},
		{"id":"c3","first_name":"Élan","last_name":null,"route":"North","active":true}
	]`)
	svc := NewCustomerService(api)

	got, err := svc.FetchCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Customer{
		{ID: "c1", Name: "asha mehta", Initials: "AM", Route: "North", IsActive: true},
		{ID: "c2", Name: " Khan", Initials: "K", Route: "South", IsActive: false},
		{ID: "c3", Name: "Élan ", Initials: "É", Route: "North", IsActive: true},
	}, got)
}

func TestCustomerService_ByRouteAndMutations(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/customer/route/r-1/", `[{"id":"c1","first_name":"A","last_name":"B","route":"North","active":true}]`)
	svc := NewCustomerService(api)
	ctx := context.Background()

	got, err := svc.FetchCustomersByRoute(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AB", got[0].Initials)

	seq := 4
	require.NoError(t, svc.UpdateCustomer(ctx, "c1", models.UpdateCustomerRequest{
		Route: "r-1", FirstName: "A", LastName: "B", PhoneNo: "9876543210",
		Rate: decimal.NewFromInt(40), SequenceNo: &seq, Active: true,
	}))
	assert.JSONEq(t, `{"route":"r-1","first_name":"A","last_name":"B","phone_no":"9876543210",
		"rate":40,"sequence_no":4,"active":true}`, string(api.bodies["PUT /customer/c1/"]))

	require.NoError(t, svc.CreateCustomer(ctx, models.CreateCustomerRequest{
		FirstName: "A", LastName: "B", Route: "r-1", Rate: decimal.RequireFromString("42.5"),
		PhoneNo: 9876543210, SequenceNo: "",
	}))
	assert.JSONEq(t, `{"first_name":"A","last_name":"B","route":"r-1","rate":42.5,
		"phone_no":9876543210,"email":"","sequence_no":""}`, string(api.bodies["POST /customer/"]))
}

func TestCustomerService_Details(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/customer/detail/c1/", `{
		"id":"c1","first_name":"Asha","last_name":"Mehta","sequence_no":3,
		"phone_no":9876543210,"route":"North","rate":"40.00","active":true,
		"customer_account":{"total_paid":120,"due":80},
		"bills":[],"daily_entries":[{"cooler":2,"date_added":"2025-03-01","addedby":"ravi"}],
		"daily_entry_monthly":12,"payments":[],"qr_code":{"qrcode_url":"https://x/qr.png"}
	}`)
	api.on("GET", "/customer/account/c1/", `{"id":"a1","due":80,"total_paid":120,"customer_name":"Asha Mehta","addedby":"ravi","updatedby":null,"date":"2025-03-01"}`)
	svc := NewCustomerService(api)
	ctx := context.Background()

	d, err := svc.FetchCustomerDetails(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", d.PhoneNo.String())
	assert.True(t, d.Rate.Equal(decimal.NewFromInt(40)))
	assert.True(t, d.Account.Due.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, 12, d.DailyEntryMonthly)
	assert.Equal(t, "https://x/qr.png", d.QRCode.URL)
	require.NotNil(t, d.SequenceNo)
	assert.Equal(t, 3, *d.SequenceNo)

	due, err := svc.FetchAccountDue(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Mehta", due.CustomerName)
	assert.Nil(t, due.UpdatedBy)
}

func TestRouteService(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/route/", `[{"id":"r1","route_name":"North"},{"id":"r2","route_name":"South"}]`)

	routes, err := NewRouteService(api).FetchRoutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Route{{ID: "r1", RouteName: "North"}, {ID: "r2", RouteName: "South"}}, routes)
}

func TestDailyEntryService_FetchEntriesMergesLists(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", entriesPath, `[
		{"id":"e1","customer":"c1","customer_name":"Asha","cooler":2,"coolers":9,"addedby":"ravi","date_added":"2025-03-01"},
		{"id":"e2","customer":"c2","customer_name":"Bilal","coolers":3,"addedby":"","date_added":"2025-03-01"}
	]`)
	api.on("GET", pendingPath, `[
		{"id":"e3","customer":"c3","customer_name":"Chetan","coolers":4,"cooler":1,"date_added":"2025-03-02"},
		{"id":"e4","customer":"c4","customer_name":"Devi","cooler":"5","addedby":null,"date_added":"2025-03-02"},
		{"id":"e5","customer":"c5","customer_name":"Esha","date_added":"2025-03-02"}
	]`)

	got, err := NewDailyEntryService(api).FetchEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.DailyEntry{
		{ID: "e1", CustomerID: "c1", CustomerName: "Asha", Cooler: 2, AddedBy: "ravi", Date: "2025-03-01", Status: models.EntryStatusVerified},
		{ID: "e2", CustomerID: "c2", CustomerName: "Bilal", Cooler: 3, AddedBy: "Admin", Date: "2025-03-01", Status: models.EntryStatusVerified},
		{ID: "e3", CustomerID: "c3", CustomerName: "Chetan", Cooler: 4, AddedBy: "Admin", Date: "2025-03-02", Status: models.EntryStatusPending},
		{ID: "e4", CustomerID: "c4", CustomerName: "Devi", Cooler: 5, AddedBy: "Admin", Date: "2025-03-02", Status: models.EntryStatusPending},
		{ID: "e5", CustomerID: "c5", CustomerName: "Esha", Cooler: 0, AddedBy: "Admin", Date: "2025-03-02", Status: models.EntryStatusPending},
	}, got)
}

func TestDailyEntryService_FetchEntriesFailsIfEitherFails(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", entriesPath, `[]`)
	api.fail("GET", pendingPath, errors.New("down"))

	_, err := NewDailyEntryService(api).FetchEntries(context.Background())
	assert.Error(t, err)
}

func TestDailyEntryService_Writes(t *testing.T) {
	api := newFakeAPI()
	svc := NewDailyEntryService(api)
	ctx := context.Background()

	require.NoError(t, svc.CreateEntry(ctx, models.CreateEntryRequest{CustomerID: "c1", Cooler: 2, Date: "2025-03-01"}))
	assert.JSONEq(t, `{"customer":"c1","cooler":2,"date_added":"2025-03-01"}`, string(api.bodies["POST /dailyentry/"]))

	require.NoError(t, svc.VerifyEntries(ctx, []models.VerifyEntryRequest{{ID: "e1", Customer: "c1", Coolers: 2, DateAdded: "2025-03-01"}}))
	assert.JSONEq(t, `[{"id":"e1","customer":"c1","coolers":2,"date_added":"2025-03-01"}]`, string(api.bodies["POST "+verifyPath]))

	require.NoError(t, svc.BulkImport(ctx, []models.BulkImportItem{{Customer: "c1", Cooler: 1}, {Customer: "c2", Cooler: 3}}))
	assert.JSONEq(t, `[{"customer":"c1","cooler":1},{"customer":"c2","cooler":3}]`, string(api.bodies["POST /dailyentry/bulk/import/"]))
}

func TestDailyEntryService_MissingEntries(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/dailyentry/today/missing/", `{"date":"2025-03-01","route":null,"missing_count":1,"customers":[{"id":"c9","first_name":"Z","last_name":"Y"}]}`)
	api.on("GET", "/dailyentry/today/missing/?route=r1", `{"date":"2025-03-01","route":"r1","missing_count":0,"customers":null}`)
	svc := NewDailyEntryService(api)
	ctx := context.Background()

	all, err := svc.FetchMissingEntries(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, all.Route)
	assert.Len(t, all.Customers, 1)

	byRoute, err := svc.FetchMissingEntries(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, byRoute.Route)
	assert.Equal(t, "r1", *byRoute.Route)
	assert.NotNil(t, byRoute.Customers)
	assert.Empty(t, byRoute.Customers)
}

func TestBillService_AcceptsAllListShapes(t *testing.T) {
	for name, body := range map[string]string{
		"bare":    `[{"id":"b1","Total":100}]`,
		"bills":   `{"bills":[{"id":"b1","Total":100}]}`,
		"results": `{"results":[{"id":"b1","Total":100}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI()
			api.on("GET", "/bill/bills/", body)
			bills, err := NewBillService(api).FetchBills(context.Background())
			require.NoError(t, err)
			require.Len(t, bills, 1)
			assert.Equal(t, "b1", bills[0].ID)
			assert.True(t, bills[0].Total.Equal(decimal.NewFromInt(100)))
		})
	}

	api := newFakeAPI()
	api.on("GET", "/bill/bills/", `{"count":0}`)
	bills, err := NewBillService(api).FetchBills(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, bills)
	assert.Empty(t, bills)
}

func TestBillService_Detail(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/bill/b1/", `{"bill":{"id":"b1","bill_number":null,"Rate":40,"Amount":400,"Pending_amount":50,"Advanced_amount":0,"Total":450,"paid":false},
		"daily_entry":[{"cooler":2,"date_added":"2025-03-01","addedby":"ravi"}]}`)

	d, err := NewBillService(api).FetchBillDetails(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "", d.Bill.Number())
	assert.True(t, d.Bill.Total.Equal(decimal.NewFromInt(450)))
	assert.Len(t, d.DailyEntries, 1)
}

func TestPaymentService_TotalFallbacks(t *testing.T) {
	cases := map[string]struct {
		body  string
		count int
		total int64
	}{
		"bare array":    {`[{"id":"p1","paid_amount":10}]`, 1, 0},
		"spaced key":    {`{"payments":[{"id":"p1"}],"total paid amount":300,"total_paid_amount":1}`, 1, 300},
		"snake key":     {`{"payments":[],"total_paid_amount":"250"}`, 0, 250},
		"no total":      {`{"payments":[{"id":"p1"},{"id":"p2"}]}`, 2, 0},
		"null payments": {`{"payments":null,"total paid amount":null,"total_paid_amount":9}`, 0, 9},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI()
			api.on("GET", "/payment/", tc.body)
			page, err := NewPaymentService(api).FetchPayments(context.Background())
			require.NoError(t, err)
			assert.Len(t, page.Payments, tc.count)
			assert.True(t, page.TotalPaidAmount.Equal(decimal.NewFromInt(tc.total)), page.TotalPaidAmount.String())
		})
	}
}

func TestPaymentService_Create(t *testing.T) {
	api := newFakeAPI()
	svc := NewPaymentService(api)
	ctx := context.Background()

	round := decimal.NewFromInt(2)
	require.NoError(t, svc.CreatePayment(ctx, models.CreatePaymentRequest{
		CustomerName: "c1", PaidAmount: decimal.NewFromInt(498), RoundOffAmount: &round,
		PaymentMethod: models.PaymentMethodUPI,
	}))
	assert.JSONEq(t, `{"customer_name":"c1","paid_amount":498,"rounf_off_amount":2,"payment_method":"UPI"}`,
		string(api.bodies["POST /payment/"]))

	err := svc.CreatePayment(ctx, models.CreatePaymentRequest{PaymentMethod: "card"})
	assert.Error(t, err)
}

func TestDueListService(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/payment/due/", `{"customer_due_list":[
		{"customer_id":"c1","customer_name":"A","due":50},
		{"customer_id":"c2","customer_name":"B","due":0},
		{"customer_id":"c3","customer_name":"C","due":87}],"due_total":137}`)
	api.on("GET", "/payment/due/route/r1/", `{}`)
	svc := NewDueListService(api)
	ctx := context.Background()

	list, err := svc.FetchDueList(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
	assert.True(t, list.DueTotal.Equal(decimal.NewFromInt(137)))

	empty, err := svc.FetchDueListByRoute(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.DueTotal.IsZero())
}

func TestDashboardService(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "/dashboard/", `{"total_active_customers":42,"today_customer_count":30,"today_coolers_count":55,"total_pending_due":"1234.50"}`)

	d, err := NewDashboardService(api).FetchDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, d.Metrics.TotalActiveCustomers)
	assert.Equal(t, 30, d.Metrics.TodayCustomerCount)
	assert.Equal(t, 55, d.Metrics.TodayCoolersCount)
	assert.Equal(t, "1234.5", d.Metrics.TotalPendingDue.String())
}

// The services work against the real client end to end
func TestServices_OverHTTP(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/dashboard/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"total_active_customers":3}`))
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	defer srv.Close()

	tokens := securestore.NewMemoryStore()
	require.NoError(t, tokens.Set(context.Background(), apiclient.AccessTokenKey, "tok"))
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, tokens)

	d, err := NewDashboardService(client).FetchDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Metrics.TotalActiveCustomers)
}
