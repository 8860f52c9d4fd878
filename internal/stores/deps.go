package stores

import (
	"context"

	"banas-client/internal/models"
)

// The interfaces below are satisfied by the services package. Stores depend
// on them so tests can substitute fakes.

type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context) error
	StoredAccessToken(ctx context.Context) (string, error)
	StoredUser(ctx context.Context) (*models.UserProfile, error)
}

type CustomerAPI interface {
	FetchCustomers(ctx context.Context) ([]models.Customer, error)
	FetchCustomersByRoute(ctx context.Context, routeID string) ([]models.Customer, error)
	FetchCustomerDetails(ctx context.Context, id string) (*models.CustomerDetails, error)
	CreateCustomer(ctx context.Context, req models.CreateCustomerRequest) error
	UpdateCustomer(ctx context.Context, id string, req models.UpdateCustomerRequest) error
}

type AccountDueAPI interface {
	FetchAccountDue(ctx context.Context, id string) (*models.CustomerAccountDue, error)
}

type RouteAPI interface {
	FetchRoutes(ctx context.Context) ([]models.Route, error)
}

type EntryAPI interface {
	FetchEntries(ctx context.Context) ([]models.DailyEntry, error)
	CreateEntry(ctx context.Context, req models.CreateEntryRequest) error
	VerifyEntries(ctx context.Context, reqs []models.VerifyEntryRequest) error
	FetchMissingEntries(ctx context.Context, routeID string) (*models.MissingEntries, error)
	BulkImport(ctx context.Context, items []models.BulkImportItem) error
}

type BillAPI interface {
	FetchBills(ctx context.Context) ([]models.Bill, error)
	FetchBillDetails(ctx context.Context, id string) (*models.BillDetail, error)
}

type PaymentAPI interface {
	FetchPayments(ctx context.Context) (*models.PaymentsPage, error)
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) error
}

type DueListAPI interface {
	FetchDueList(ctx context.Context) (*models.DueList, error)
	FetchDueListByRoute(ctx context.Context, routeID string) (*models.DueList, error)
}

type DashboardAPI interface {
	FetchDashboard(ctx context.Context) (*models.DashboardData, error)
}
