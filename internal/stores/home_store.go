package stores

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type HomeState struct {
	Data    *models.DashboardData
	Loading bool
	Error   string
}

type HomeStore struct {
	notifier
	mu    sync.RWMutex
	state HomeState
	gen   generation

	dashboard DashboardAPI
	log       *logrus.Entry
}

func NewHomeStore(dashboard DashboardAPI, log *logrus.Entry) *HomeStore {
	return &HomeStore{dashboard: dashboard, log: logging.Or(log, "home")}
}

func (s *HomeStore) Snapshot() HomeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *HomeStore) LoadDashboard(ctx context.Context) {
	s.mu.Lock()
	gen := s.gen.next()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	data, err := s.dashboard.FetchDashboard(ctx)

	s.mu.Lock()
	if !s.gen.is(gen) {
		s.mu.Unlock()
		record("home", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load dashboard data.")
		s.log.WithError(err).Warn("load dashboard failed")
		record("home", "load", outcomeError)
	} else {
		s.state.Data = data
		record("home", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}
