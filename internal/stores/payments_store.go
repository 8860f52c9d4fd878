package stores

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type PaymentsState struct {
	Payments        []models.Payment
	TotalPaidAmount decimal.Decimal
	PaymentsLoading bool
	PaymentsError   string

	Bills        []models.Bill
	BillsLoading bool
	BillsError   string

	// AccountDue prefills the payment form for one customer
	AccountDue   *models.CustomerAccountDue
	LoadingDue   bool
	Collecting   bool
	CollectError string
}

// PaymentsStore owns the payment and bill lists. The two slices load and fail
// independently.
type PaymentsStore struct {
	notifier
	mu          sync.RWMutex
	state       PaymentsState
	paymentsGen generation
	billsGen    generation
	dueGen      generation

	payments PaymentAPI
	bills    BillAPI
	accounts AccountDueAPI
	log      *logrus.Entry
}

func NewPaymentsStore(payments PaymentAPI, bills BillAPI, accounts AccountDueAPI, log *logrus.Entry) *PaymentsStore {
	return &PaymentsStore{
		state:    PaymentsState{Payments: []models.Payment{}, Bills: []models.Bill{}},
		payments: payments,
		bills:    bills,
		accounts: accounts,
		log:      logging.Or(log, "payments"),
	}
}

func (s *PaymentsStore) Snapshot() PaymentsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Payments = cloneSlice(st.Payments)
	st.Bills = cloneSlice(st.Bills)
	return st
}

func (s *PaymentsStore) LoadPayments(ctx context.Context) {
	s.mu.Lock()
	gen := s.paymentsGen.next()
	s.state.PaymentsLoading = true
	s.state.PaymentsError = ""
	s.mu.Unlock()
	s.notify()

	s.finishPayments(ctx, gen)
}

func (s *PaymentsStore) LoadBills(ctx context.Context) {
	s.mu.Lock()
	gen := s.billsGen.next()
	s.state.BillsLoading = true
	s.state.BillsError = ""
	s.mu.Unlock()
	s.notify()

	s.finishBills(ctx, gen)
}

// RefreshAll reloads payments and bills concurrently. Each slice keeps its
// own result; one failing never blanks the other.
func (s *PaymentsStore) RefreshAll(ctx context.Context) {
	s.mu.Lock()
	pGen := s.paymentsGen.next()
	bGen := s.billsGen.next()
	s.state.PaymentsLoading = true
	s.state.PaymentsError = ""
	s.state.BillsLoading = true
	s.state.BillsError = ""
	s.mu.Unlock()
	s.notify()

	// Both goroutines absorb their errors into state and return nil, so
	// neither can cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		s.finishPayments(ctx, pGen)
		return nil
	})
	g.Go(func() error {
		s.finishBills(ctx, bGen)
		return nil
	})
	_ = g.Wait()
}

func (s *PaymentsStore) finishPayments(ctx context.Context, gen uint64) {
	page, err := s.payments.FetchPayments(ctx)

	s.mu.Lock()
	if !s.paymentsGen.is(gen) {
		s.mu.Unlock()
		record("payments", "load_payments", outcomeStale)
		return
	}
	if err != nil {
		s.state.PaymentsError = apiclient.MessageFrom(err, "Failed to load payments.")
		s.log.WithError(err).Warn("load payments failed")
		record("payments", "load_payments", outcomeError)
	} else {
		s.state.Payments = page.Payments
		s.state.TotalPaidAmount = page.TotalPaidAmount
		record("payments", "load_payments", outcomeOK)
	}
	s.state.PaymentsLoading = false
	s.mu.Unlock()
	s.notify()
}

func (s *PaymentsStore) finishBills(ctx context.Context, gen uint64) {
	bills, err := s.bills.FetchBills(ctx)

	s.mu.Lock()
	if !s.billsGen.is(gen) {
		s.mu.Unlock()
		record("payments", "load_bills", outcomeStale)
		return
	}
	if err != nil {
		s.state.BillsError = apiclient.MessageFrom(err, "Failed to load bills.")
		s.log.WithError(err).Warn("load bills failed")
		record("payments", "load_bills", outcomeError)
	} else {
		s.state.Bills = bills
		record("payments", "load_bills", outcomeOK)
	}
	s.state.BillsLoading = false
	s.mu.Unlock()
	s.notify()
}

// LoadAccountDue fetches the current due of the customer a payment is being
// collected from
func (s *PaymentsStore) LoadAccountDue(ctx context.Context, customerID string) {
	s.mu.Lock()
	gen := s.dueGen.next()
	s.state.LoadingDue = true
	s.state.AccountDue = nil
	s.state.CollectError = ""
	s.mu.Unlock()
	s.notify()

	due, err := s.accounts.FetchAccountDue(ctx, customerID)

	s.mu.Lock()
	if !s.dueGen.is(gen) {
		s.mu.Unlock()
		record("payments", "account_due", outcomeStale)
		return
	}
	if err != nil {
		s.state.CollectError = "Failed to fetch current due amount."
		s.log.WithError(err).WithField("customer_id", customerID).Warn("load account due failed")
		record("payments", "account_due", outcomeError)
	} else {
		s.state.AccountDue = due
		record("payments", "account_due", outcomeOK)
	}
	s.state.LoadingDue = false
	s.mu.Unlock()
	s.notify()
}

// CollectPayment records a payment and reloads the payment list. It reports
// whether the payment was accepted; the failure message lands in CollectError.
func (s *PaymentsStore) CollectPayment(ctx context.Context, req models.CreatePaymentRequest) bool {
	if msg := validatePayment(req); msg != "" {
		s.mu.Lock()
		s.state.CollectError = msg
		s.mu.Unlock()
		s.notify()
		return false
	}

	s.mu.Lock()
	s.state.Collecting = true
	s.state.CollectError = ""
	s.mu.Unlock()
	s.notify()

	err := s.payments.CreatePayment(ctx, req)

	s.mu.Lock()
	s.state.Collecting = false
	if err != nil {
		s.state.CollectError = apiclient.MessageFrom(err, "Failed to record payment. Please try again.")
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.WithError(err).WithField("customer_id", req.CustomerName).Warn("collect payment failed")
		record("payments", "collect", outcomeError)
		return false
	}
	s.log.WithFields(logrus.Fields{
		"customer_id": req.CustomerName,
		"amount":      req.PaidAmount.String(),
		"method":      req.PaymentMethod,
	}).Info("payment recorded")
	record("payments", "collect", outcomeOK)

	s.LoadPayments(ctx)
	return true
}

func validatePayment(req models.CreatePaymentRequest) string {
	switch {
	case req.CustomerName == "":
		return "Please select a customer."
	case !req.PaidAmount.IsPositive():
		return "Paid Amount must be greater than zero."
	case !req.PaymentMethod.Valid():
		return "Select a payment method."
	}
	return ""
}
