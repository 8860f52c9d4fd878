package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"/customers/":                       "/customers/",
		"/customer/42/":                     "/customer/:id/",
		"/customer/42/due/":                 "/customer/:id/due/",
		"/bill/7/":                          "/bill/:id/",
		"/a/1/2/":                           "/a/:id/:id/",
		"/dailyentry/today/missing/?route=": "/dailyentry/today/missing/",
		"/due-list/?route=3":                "/due-list/",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalPath(in), in)
	}
}

func TestObserveClientRequest(t *testing.T) {
	ObserveClientRequest("GET", "/customer/9/", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `banas_client_requests_total{method="GET",path="/customer/:id/",status="200"}`)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	StoreAction("customers", "load", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "banas_store_actions_total")
}
