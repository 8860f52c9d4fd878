package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"banas-client/internal/models"
)

type BillService struct {
	API API
}

func NewBillService(api API) *BillService {
	return &BillService{API: api}
}

// FetchBills accepts a bare array, {bills: [...]} or {results: [...]}
func (s *BillService) FetchBills(ctx context.Context) ([]models.Bill, error) {
	body, err := s.API.Get(ctx, "/bill/bills/")
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "bills")
	if err != nil {
		return nil, err
	}
	bills := []models.Bill{}
	if err := decodeInto(arrayOf(root, "bills", "results").Raw, &bills, "bills"); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *BillService) FetchBillDetails(ctx context.Context, id string) (*models.BillDetail, error) {
	body, err := s.API.Get(ctx, fmt.Sprintf("/bill/%s/", url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	var detail models.BillDetail
	if err := decodeInto(string(body), &detail, "bill detail"); err != nil {
		return nil, err
	}
	if detail.DailyEntries == nil {
		detail.DailyEntries = []models.BillDailyEntry{}
	}
	return &detail, nil
}

type PaymentService struct {
	API API
}

func NewPaymentService(api API) *PaymentService {
	return &PaymentService{API: api}
}

// FetchPayments accepts a bare array (total 0) or an object carrying the
// total under "total paid amount" or total_paid_amount
func (s *PaymentService) FetchPayments(ctx context.Context) (*models.PaymentsPage, error) {
	body, err := s.API.Get(ctx, "/payment/")
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "payments")
	if err != nil {
		return nil, err
	}

	page := &models.PaymentsPage{Payments: []models.Payment{}}
	if err := decodeInto(arrayOf(root, "payments").Raw, &page.Payments, "payments"); err != nil {
		return nil, err
	}
	if root.IsObject() {
		page.TotalPaidAmount = decimalOf(coalesce(
			root.Get("total paid amount"),
			root.Get("total_paid_amount"),
		))
	}
	return page, nil
}

func (s *PaymentService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) error {
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", req.PaymentMethod)
	}
	_, err := s.API.Post(ctx, "/payment/", req)
	return err
}

type DueListService struct {
	API API
}

func NewDueListService(api API) *DueListService {
	return &DueListService{API: api}
}

func (s *DueListService) FetchDueList(ctx context.Context) (*models.DueList, error) {
	return s.fetch(ctx, "/payment/due/")
}

func (s *DueListService) FetchDueListByRoute(ctx context.Context, routeID string) (*models.DueList, error) {
	return s.fetch(ctx, fmt.Sprintf("/payment/due/route/%s/", url.PathEscape(routeID)))
}

func (s *DueListService) fetch(ctx context.Context, path string) (*models.DueList, error) {
	body, err := s.API.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "due list")
	if err != nil {
		return nil, err
	}
	list := &models.DueList{Items: []models.CustomerDue{}}
	if items := root.Get("customer_due_list"); items.IsArray() {
		if err := decodeInto(items.Raw, &list.Items, "due list"); err != nil {
			return nil, err
		}
	}
	list.DueTotal = decimalOf(root.Get("due_total"))
	return list, nil
}

type DashboardService struct {
	API API
}

func NewDashboardService(api API) *DashboardService {
	return &DashboardService{API: api}
}

func (s *DashboardService) FetchDashboard(ctx context.Context) (*models.DashboardData, error) {
	body, err := s.API.Get(ctx, "/dashboard/")
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "dashboard")
	if err != nil {
		return nil, err
	}
	return &models.DashboardData{Metrics: metricsFrom(root)}, nil
}

func metricsFrom(root gjson.Result) models.DashboardMetrics {
	return models.DashboardMetrics{
		TotalActiveCustomers: int(root.Get("total_active_customers").Int()),
		TodayCustomerCount:   int(root.Get("today_customer_count").Int()),
		TodayCoolersCount:    int(root.Get("today_coolers_count").Int()),
		TotalPendingDue:      decimalOf(root.Get("total_pending_due")),
	}
}
