package models

// Route is read-only reference data used to group and filter customers
type Route struct {
	ID          string  `json:"id"`
	RouteName   string  `json:"route_name"`
	DateAdded   string  `json:"date_added,omitempty"`
	DateUpdated string  `json:"date_updated,omitempty"`
	AddedBy     string  `json:"addedby,omitempty"`
	UpdatedBy   *string `json:"updatedby,omitempty"`
}

// RouteIDByName returns the id of the route with the given name. Customer
// detail records carry the route name only, so the edit form resolves the id
// through the loaded route list.
func RouteIDByName(routes []Route, name string) (string, bool) {
	for _, r := range routes {
		if r.RouteName == name {
			return r.ID, true
		}
	}
	return "", false
}
