package stores

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

// CustomerFilter is the directory tab
type CustomerFilter string

const (
	FilterAll      CustomerFilter = "all"
	FilterActive   CustomerFilter = "active"
	FilterInactive CustomerFilter = "inactive"
)

type CustomersState struct {
	Customers       []models.Customer
	Loading         bool
	Error           string
	SearchQuery     string
	Filter          CustomerFilter
	Routes          []models.Route
	RoutesLoading   bool
	SelectedRouteID string // "" means all routes
}

// FilteredCustomers applies the search query (case-insensitive substring of
// name or route) and the active filter. It is recomputed on every call.
func (st CustomersState) FilteredCustomers() []models.Customer {
	q := strings.ToLower(st.SearchQuery)
	blank := strings.TrimSpace(st.SearchQuery) == ""

	out := []models.Customer{}
	for _, c := range st.Customers {
		matchesSearch := blank ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Route), q)

		matchesFilter := false
		switch st.Filter {
		case FilterActive:
			matchesFilter = c.IsActive
		case FilterInactive:
			matchesFilter = !c.IsActive
		default:
			matchesFilter = true
		}

		if matchesSearch && matchesFilter {
			out = append(out, c)
		}
	}
	return out
}

type CustomersStore struct {
	notifier
	mu        sync.RWMutex
	state     CustomersState
	loadGen   generation
	routesGen generation

	customers CustomerAPI
	routes    RouteAPI
	log       *logrus.Entry
}

func NewCustomersStore(customers CustomerAPI, routes RouteAPI, log *logrus.Entry) *CustomersStore {
	return &CustomersStore{
		state:     CustomersState{Customers: []models.Customer{}, Routes: []models.Route{}, Filter: FilterAll},
		customers: customers,
		routes:    routes,
		log:       logging.Or(log, "customers"),
	}
}

func (s *CustomersStore) Snapshot() CustomersState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Customers = cloneSlice(st.Customers)
	st.Routes = cloneSlice(st.Routes)
	return st
}

// FilteredCustomers is a shortcut for Snapshot().FilteredCustomers()
func (s *CustomersStore) FilteredCustomers() []models.Customer {
	return s.Snapshot().FilteredCustomers()
}

// LoadCustomers fetches the directory for the selected route, or every
// customer when no route is selected
func (s *CustomersStore) LoadCustomers(ctx context.Context) {
	s.mu.Lock()
	gen := s.loadGen.next()
	routeID := s.state.SelectedRouteID
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	var (
		list []models.Customer
		err  error
	)
	if routeID != "" {
		list, err = s.customers.FetchCustomersByRoute(ctx, routeID)
	} else {
		list, err = s.customers.FetchCustomers(ctx)
	}

	s.mu.Lock()
	if !s.loadGen.is(gen) {
		s.mu.Unlock()
		record("customers", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load customers.")
		s.log.WithError(err).Warn("load customers failed")
		record("customers", "load", outcomeError)
	} else {
		s.state.Customers = list
		record("customers", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// LoadRoutes never surfaces an error; the directory renders without routes
func (s *CustomersStore) LoadRoutes(ctx context.Context) {
	s.mu.Lock()
	gen := s.routesGen.next()
	s.state.RoutesLoading = true
	s.mu.Unlock()
	s.notify()

	routes, err := s.routes.FetchRoutes(ctx)

	s.mu.Lock()
	if !s.routesGen.is(gen) {
		s.mu.Unlock()
		record("customers", "routes", outcomeStale)
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("load routes failed")
		record("customers", "routes", outcomeError)
	} else {
		s.state.Routes = routes
		record("customers", "routes", outcomeOK)
	}
	s.state.RoutesLoading = false
	s.mu.Unlock()
	s.notify()
}

func (s *CustomersStore) SetSearchQuery(q string) {
	s.mu.Lock()
	s.state.SearchQuery = q
	s.mu.Unlock()
	s.notify()
}

func (s *CustomersStore) SetFilter(f CustomerFilter) {
	s.mu.Lock()
	s.state.Filter = f
	s.mu.Unlock()
	s.notify()
}

// SetSelectedRoute sets the route and reloads the directory scoped to it.
// An empty id selects all routes.
func (s *CustomersStore) SetSelectedRoute(ctx context.Context, routeID string) {
	s.mu.Lock()
	s.state.SelectedRouteID = routeID
	s.mu.Unlock()
	s.notify()

	s.LoadCustomers(ctx)
}
