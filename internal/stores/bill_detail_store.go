package stores

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type BillDetailState struct {
	Data    *models.BillDetail
	Loading bool
	Error   string
}

// BillDetailStore holds the bill being viewed together with its entries
type BillDetailStore struct {
	notifier
	mu    sync.RWMutex
	state BillDetailState
	gen   generation

	bills BillAPI
	log   *logrus.Entry
}

func NewBillDetailStore(bills BillAPI, log *logrus.Entry) *BillDetailStore {
	return &BillDetailStore{bills: bills, log: logging.Or(log, "bill")}
}

func (s *BillDetailStore) Snapshot() BillDetailState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *BillDetailStore) LoadBill(ctx context.Context, id string) {
	s.mu.Lock()
	gen := s.gen.next()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	detail, err := s.bills.FetchBillDetails(ctx, id)

	s.mu.Lock()
	if !s.gen.is(gen) {
		s.mu.Unlock()
		record("bill", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load bill details.")
		s.log.WithError(err).WithField("bill_id", id).Warn("load bill failed")
		record("bill", "load", outcomeError)
	} else {
		s.state.Data = detail
		record("bill", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *BillDetailStore) ClearBill() {
	s.mu.Lock()
	s.gen.next()
	s.state = BillDetailState{}
	s.mu.Unlock()
	s.notify()
}
