package stores

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type AddCustomerState struct {
	Form        CustomerForm
	Loading     bool
	Errors      map[Field]string
	SubmitError string
}

type AddCustomerStore struct {
	notifier
	mu    sync.RWMutex
	state AddCustomerState

	customers CustomerAPI
	log       *logrus.Entry
}

func NewAddCustomerStore(customers CustomerAPI, log *logrus.Entry) *AddCustomerStore {
	return &AddCustomerStore{
		state:     AddCustomerState{Errors: map[Field]string{}},
		customers: customers,
		log:       logging.Or(log, "addcustomer"),
	}
}

func (s *AddCustomerStore) Snapshot() AddCustomerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Errors = cloneErrors(st.Errors)
	return st
}

// SetField updates one input and clears its error and the submit error
func (s *AddCustomerStore) SetField(field Field, value string) {
	s.mu.Lock()
	if !s.state.Form.set(field, value) {
		s.mu.Unlock()
		return
	}
	errs := cloneErrors(s.state.Errors)
	delete(errs, field)
	s.state.Errors = errs
	s.state.SubmitError = ""
	s.mu.Unlock()
	s.notify()
}

// Validate runs every rule and stores the field errors
func (s *AddCustomerStore) Validate() bool {
	s.mu.Lock()
	errs := s.state.Form.validate(addMessages)
	s.state.Errors = errs
	s.mu.Unlock()
	s.notify()
	return len(errs) == 0
}

// Submit validates and, only when valid, creates the customer. The caller
// reloads whatever lists it shows afterwards.
func (s *AddCustomerStore) Submit(ctx context.Context) bool {
	if !s.Validate() {
		record("addcustomer", "submit", "invalid")
		return false
	}

	s.mu.Lock()
	form := s.state.Form
	s.state.Loading = true
	s.state.SubmitError = ""
	s.mu.Unlock()
	s.notify()

	req := createRequestFrom(form)
	err := s.customers.CreateCustomer(ctx, req)

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		msg, ok := apiclient.ServerMessage(err, "message", "detail", "non_field_errors.0")
		if !ok {
			msg = "Failed to add customer. Please try again."
		}
		s.state.SubmitError = msg
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.WithError(err).Warn("add customer failed")
		record("addcustomer", "submit", outcomeError)
		return false
	}
	s.log.WithField("name", models.CustomerName(req.FirstName, req.LastName)).Info("customer added")
	record("addcustomer", "submit", outcomeOK)
	return true
}

func (s *AddCustomerStore) Reset() {
	s.mu.Lock()
	s.state = AddCustomerState{Errors: map[Field]string{}}
	s.mu.Unlock()
	s.notify()
}

// createRequestFrom builds the create body from a validated form. Rate and
// phone go out as numbers; a blank sequence number goes out as "".
func createRequestFrom(f CustomerForm) models.CreateCustomerRequest {
	rate, _ := parseRate(f.Rate)
	phone, _ := strconv.ParseInt(strings.TrimSpace(f.Phone), 10, 64)

	var seq any = ""
	if strings.TrimSpace(f.SequenceNo) != "" {
		if n := parseSequence(f.SequenceNo); n != nil {
			seq = *n
		} else {
			seq = nil
		}
	}

	return models.CreateCustomerRequest{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Route:      f.RouteID,
		Rate:       rate,
		PhoneNo:    phone,
		Email:      strings.TrimSpace(f.Email),
		SequenceNo: seq,
	}
}
