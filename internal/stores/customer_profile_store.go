package stores

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type CustomerProfileState struct {
	Data    *models.CustomerDetails
	Loading bool
	Error   string
}

// CustomerProfileStore holds the ledger of the customer being viewed. The
// caller clears it when the profile is closed.
type CustomerProfileStore struct {
	notifier
	mu    sync.RWMutex
	state CustomerProfileState
	gen   generation

	customers CustomerAPI
	log       *logrus.Entry
}

func NewCustomerProfileStore(customers CustomerAPI, log *logrus.Entry) *CustomerProfileStore {
	return &CustomerProfileStore{customers: customers, log: logging.Or(log, "profile")}
}

func (s *CustomerProfileStore) Snapshot() CustomerProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *CustomerProfileStore) LoadProfile(ctx context.Context, id string) {
	s.mu.Lock()
	gen := s.gen.next()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	details, err := s.customers.FetchCustomerDetails(ctx, id)

	s.mu.Lock()
	if !s.gen.is(gen) {
		s.mu.Unlock()
		record("profile", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load customer profile. Please try again.")
		s.log.WithError(err).WithField("customer_id", id).Warn("load profile failed")
		record("profile", "load", outcomeError)
	} else {
		s.state.Data = details
		record("profile", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// ClearProfile drops the data and abandons any load in flight
func (s *CustomerProfileStore) ClearProfile() {
	s.mu.Lock()
	s.gen.next()
	s.state = CustomerProfileState{}
	s.mu.Unlock()
	s.notify()
}
