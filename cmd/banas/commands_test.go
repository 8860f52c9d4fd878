package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banas-client/internal/models"
)

func TestParseBulkItems(t *testing.T) {
	items, err := parseBulkItems([]string{"c1=2", "c2=1"})
	require.NoError(t, err)
	assert.Equal(t, []models.BulkImportItem{{Customer: "c1", Cooler: 2}, {Customer: "c2", Cooler: 1}}, items)

	for _, bad := range []string{"c1", "=2", "c1=0", "c1=x"} {
		_, err := parseBulkItems([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestResolveRoute(t *testing.T) {
	routes := []models.Route{{ID: "r1", RouteName: "North"}, {ID: "r2", RouteName: "South"}}

	id, err := resolveRoute(routes, "r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", id)

	id, err = resolveRoute(routes, "North")
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	id, err = resolveRoute(routes, "")
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = resolveRoute(routes, "East")
	assert.Error(t, err)
}
