package stores

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

var errMissingCustomerID = errors.New("missing customer id")

type EditCustomerState struct {
	CustomerID  string
	Form        CustomerForm
	IsActive    bool
	Errors      map[Field]string
	Loading     bool
	SubmitError string
}

type EditCustomerStore struct {
	notifier
	mu    sync.RWMutex
	state EditCustomerState

	customers CustomerAPI
	log       *logrus.Entry
}

func NewEditCustomerStore(customers CustomerAPI, log *logrus.Entry) *EditCustomerStore {
	return &EditCustomerStore{
		state:     blankEditState(),
		customers: customers,
		log:       logging.Or(log, "editcustomer"),
	}
}

func blankEditState() EditCustomerState {
	return EditCustomerState{IsActive: true, Errors: map[Field]string{}}
}

func (s *EditCustomerStore) Snapshot() EditCustomerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Errors = cloneErrors(st.Errors)
	return st
}

// InitForm seeds every field from a fetched detail record. matchedRouteID may
// be "" when routes are not loaded yet; SeedRoute fills it in later.
func (s *EditCustomerStore) InitForm(d *models.CustomerDetails, matchedRouteID string) {
	st := blankEditState()
	st.CustomerID = d.ID
	st.Form = CustomerForm{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		RouteID:   matchedRouteID,
		Phone:     d.PhoneNo.String(),
	}
	if !d.Rate.IsZero() {
		st.Form.Rate = d.Rate.String()
	}
	if d.SequenceNo != nil && *d.SequenceNo != 0 {
		st.Form.SequenceNo = strconv.Itoa(*d.SequenceNo)
	}
	st.IsActive = d.Active

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notify()
}

// SeedRoute sets the route id only if the form has none yet
func (s *EditCustomerStore) SeedRoute(routeID string) {
	s.mu.Lock()
	if s.state.Form.RouteID != "" || routeID == "" {
		s.mu.Unlock()
		return
	}
	s.state.Form.RouteID = routeID
	s.mu.Unlock()
	s.notify()
}

// SetField updates one input and clears its error and the submit error
func (s *EditCustomerStore) SetField(field Field, value string) {
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

func (s *EditCustomerStore) SetActive(active bool) {
	s.mu.Lock()
	s.state.IsActive = active
	s.state.SubmitError = ""
	s.mu.Unlock()
	s.notify()
}

// Submit validates and, only when valid, updates the customer
func (s *EditCustomerStore) Submit(ctx context.Context) bool {
	s.mu.Lock()
	errs := s.state.Form.validate(editMessages)
	if len(errs) > 0 {
		s.state.Errors = errs
		s.mu.Unlock()
		s.notify()
		record("editcustomer", "submit", "invalid")
		return false
	}
	s.state.Errors = map[Field]string{}
	id := s.state.CustomerID
	req := updateRequestFrom(s.state.Form, s.state.IsActive)
	s.state.Loading = true
	s.state.SubmitError = ""
	s.mu.Unlock()
	s.notify()

	var err error
	if id == "" {
		err = errMissingCustomerID
	} else {
		err = s.customers.UpdateCustomer(ctx, id, req)
	}

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		fallback := "Failed to update customer. Please try again."
		if errors.Is(err, errMissingCustomerID) {
			fallback = "Missing customer ID"
		}
		s.state.SubmitError = apiclient.MessageFrom(err, fallback)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.WithError(err).WithField("customer_id", id).Warn("update customer failed")
		record("editcustomer", "submit", outcomeError)
		return false
	}
	s.log.WithField("customer_id", id).Info("customer updated")
	record("editcustomer", "submit", outcomeOK)
	return true
}

func (s *EditCustomerStore) Reset() {
	s.mu.Lock()
	s.state = blankEditState()
	s.mu.Unlock()
	s.notify()
}

// updateRequestFrom builds the update body from a validated form. Phone stays
// a string, a blank sequence number is null and a blank email is omitted.
func updateRequestFrom(f CustomerForm, active bool) models.UpdateCustomerRequest {
	rate, _ := parseRate(f.Rate)
	return models.UpdateCustomerRequest{
		Route:      f.RouteID,
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		PhoneNo:    strings.TrimSpace(f.Phone),
		Email:      strings.TrimSpace(f.Email),
		Rate:       rate,
		SequenceNo: parseSequence(f.SequenceNo),
		Active:     active,
	}
}
