package stores

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

type DueListState struct {
	Items           []models.CustomerDue
	DueTotal        decimal.Decimal
	Loading         bool
	Error           string
	Routes          []models.Route
	SelectedRouteID string
}

// Outstanding lists every customer whose due is not zero, advances
// (negative dues) included
func (st DueListState) Outstanding() []models.CustomerDue {
	out := []models.CustomerDue{}
	for _, d := range st.Items {
		if !d.Cleared() {
			out = append(out, d)
		}
	}
	return out
}

// Cleared lists customers whose due is exactly zero
func (st DueListState) Cleared() []models.CustomerDue {
	out := []models.CustomerDue{}
	for _, d := range st.Items {
		if d.Cleared() {
			out = append(out, d)
		}
	}
	return out
}

type DueListStore struct {
	notifier
	mu    sync.RWMutex
	state DueListState
	gen   generation

	dues   DueListAPI
	routes RouteAPI
	log    *logrus.Entry
}

func NewDueListStore(dues DueListAPI, routes RouteAPI, log *logrus.Entry) *DueListStore {
	return &DueListStore{
		state:  DueListState{Items: []models.CustomerDue{}, Routes: []models.Route{}},
		dues:   dues,
		routes: routes,
		log:    logging.Or(log, "duelist"),
	}
}

func (s *DueListStore) Snapshot() DueListState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Items = cloneSlice(st.Items)
	st.Routes = cloneSlice(st.Routes)
	return st
}

func (s *DueListStore) Outstanding() []models.CustomerDue { return s.Snapshot().Outstanding() }

func (s *DueListStore) Cleared() []models.CustomerDue { return s.Snapshot().Cleared() }

// LoadDues reloads the list for the selected route, or all routes
func (s *DueListStore) LoadDues(ctx context.Context) {
	s.mu.Lock()
	routeID := s.state.SelectedRouteID
	s.mu.Unlock()
	s.load(ctx, routeID, false, "Failed to load due list.")
}

// SetSelectedRoute sets the route and reloads scoped to it. Unlike LoadDues,
// a failure here empties the list so dues from the previous route are not
// shown under the new one.
func (s *DueListStore) SetSelectedRoute(ctx context.Context, routeID string) {
	s.mu.Lock()
	s.state.SelectedRouteID = routeID
	s.mu.Unlock()
	s.load(ctx, routeID, true, "Failed to fetch due list.")
}

func (s *DueListStore) load(ctx context.Context, routeID string, clearOnError bool, fallback string) {
	s.mu.Lock()
	gen := s.gen.next()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	var (
		list *models.DueList
		err  error
	)
	if routeID != "" {
		list, err = s.dues.FetchDueListByRoute(ctx, routeID)
	} else {
		list, err = s.dues.FetchDueList(ctx)
	}

	s.mu.Lock()
	if !s.gen.is(gen) {
		s.mu.Unlock()
		record("duelist", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, fallback)
		if clearOnError {
			s.state.Items = []models.CustomerDue{}
		}
		s.log.WithError(err).WithField("route_id", routeID).Warn("load due list failed")
		record("duelist", "load", outcomeError)
	} else {
		s.state.Items = list.Items
		s.state.DueTotal = list.DueTotal
		record("duelist", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// LoadRoutes fails silently; routes only feed the filter
func (s *DueListStore) LoadRoutes(ctx context.Context) {
	routes, err := s.routes.FetchRoutes(ctx)
	if err != nil {
		s.log.WithError(err).Debug("load routes failed")
		record("duelist", "routes", outcomeError)
		return
	}
	s.mu.Lock()
	s.state.Routes = routes
	s.mu.Unlock()
	s.notify()
	record("duelist", "routes", outcomeOK)
}
