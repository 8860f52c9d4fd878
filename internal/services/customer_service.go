package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"banas-client/internal/models"
)

type CustomerService struct {
	API API
}

func NewCustomerService(api API) *CustomerService {
	return &CustomerService{API: api}
}

func (s *CustomerService) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.fetchList(ctx, "/customer/")
}

func (s *CustomerService) FetchCustomersByRoute(ctx context.Context, routeID string) ([]models.Customer, error) {
	return s.fetchList(ctx, fmt.Sprintf("/customer/route/%s/", url.PathEscape(routeID)))
}

func (s *CustomerService) fetchList(ctx context.Context, path string) ([]models.Customer, error) {
	body, err := s.API.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "customers")
	if err != nil {
		return nil, err
	}

	customers := []models.Customer{}
	arrayOf(root, "results").ForEach(func(_, item gjson.Result) bool {
		customers = append(customers, customerFrom(item))
		return true
	})
	return customers, nil
}

func customerFrom(item gjson.Result) models.Customer {
	first := item.Get("first_name").String()
	last := item.Get("last_name").String()
	return models.Customer{
		ID:       item.Get("id").String(),
		Name:     models.CustomerName(first, last),
		Initials: models.Initials(first, last),
		Route:    item.Get("route").String(),
		IsActive: item.Get("active").Bool(),
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req models.CreateCustomerRequest) error {
	_, err := s.API.Post(ctx, "/customer/", req)
	return err
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, req models.UpdateCustomerRequest) error {
	_, err := s.API.Put(ctx, fmt.Sprintf("/customer/%s/", url.PathEscape(id)), req)
	return err
}

func (s *CustomerService) FetchCustomerDetails(ctx context.Context, id string) (*models.CustomerDetails, error) {
	body, err := s.API.Get(ctx, fmt.Sprintf("/customer/detail/%s/", url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	var details models.CustomerDetails
	if err := decodeInto(string(body), &details, "customer detail"); err != nil {
		return nil, err
	}
	return &details, nil
}

// FetchAccountDue returns the current balance used to prefill a payment
func (s *CustomerService) FetchAccountDue(ctx context.Context, id string) (*models.CustomerAccountDue, error) {
	body, err := s.API.Get(ctx, fmt.Sprintf("/customer/account/%s/", url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	var due models.CustomerAccountDue
	if err := decodeInto(string(body), &due, "account due"); err != nil {
		return nil, err
	}
	return &due, nil
}

type RouteService struct {
	API API
}

func NewRouteService(api API) *RouteService {
	return &RouteService{API: api}
}

func (s *RouteService) FetchRoutes(ctx context.Context) ([]models.Route, error) {
	body, err := s.API.Get(ctx, "/route/")
	if err != nil {
		return nil, err
	}
	root, err := parse(body, "routes")
	if err != nil {
		return nil, err
	}
	routes := []models.Route{}
	if err := decodeInto(arrayOf(root, "results").Raw, &routes, "routes"); err != nil {
		return nil, err
	}
	return routes, nil
}
