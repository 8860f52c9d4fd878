package stores

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"banas-client/internal/models"
)

func dueList() *models.DueList {
	return &models.DueList{
		Items: []models.CustomerDue{
			{CustomerID: "a", CustomerName: "Asha Patel", Due: decimal.NewFromInt(50)},
			{CustomerID: "b", CustomerName: "Ravi Shah", Due: decimal.Zero},
			{CustomerID: "c", CustomerName: "Mina Desai", Due: decimal.NewFromInt(87)},
		},
		DueTotal: decimal.NewFromInt(137),
	}
}

func dueIDs(ds []models.CustomerDue) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.CustomerID
	}
	return out
}

func TestDueListStore_Classification(t *testing.T) {
	s := NewDueListStore(&fakeDues{all: dueList()}, &fakeRoutes{}, nil)

	s.LoadDues(context.Background())

	assert.Equal(t, []string{"a", "c"}, dueIDs(s.Outstanding()))
	assert.Equal(t, []string{"b"}, dueIDs(s.Cleared()))
	assert.True(t, s.Snapshot().DueTotal.Equal(decimal.NewFromInt(137)))
}

func TestDueListStore_AdvanceStaysOutstanding(t *testing.T) {
	list := dueList()
	list.Items = append(list.Items, models.CustomerDue{CustomerID: "d", CustomerName: "Nisha Rao", Due: decimal.NewFromInt(-20)})
	s := NewDueListStore(&fakeDues{all: list}, &fakeRoutes{}, nil)

	s.LoadDues(context.Background())

	assert.Equal(t, []string{"a", "c", "d"}, dueIDs(s.Outstanding()))
	assert.Equal(t, []string{"b"}, dueIDs(s.Cleared()))
	assert.Len(t, s.Snapshot().Items, len(s.Outstanding())+len(s.Cleared()))
}

func TestDueListStore_RouteScoping(t *testing.T) {
	north := &models.DueList{
		Items:    []models.CustomerDue{{CustomerID: "a", Due: decimal.NewFromInt(50)}},
		DueTotal: decimal.NewFromInt(50),
	}
	api := &fakeDues{all: dueList(), byRoute: map[string]*models.DueList{"r1": north}}
	s := NewDueListStore(api, &fakeRoutes{}, nil)
	ctx := context.Background()

	s.SetSelectedRoute(ctx, "r1")
	assert.Equal(t, []string{"a"}, dueIDs(s.Snapshot().Items))

	s.LoadDues(ctx)
	assert.Equal(t, []string{"a"}, dueIDs(s.Snapshot().Items), "reload keeps the selected route")

	s.SetSelectedRoute(ctx, "")
	assert.Len(t, s.Snapshot().Items, 3)
}

func TestDueListStore_Failures(t *testing.T) {
	ctx := context.Background()
	api := &fakeDues{all: dueList()}
	s := NewDueListStore(api, &fakeRoutes{}, nil)
	s.LoadDues(ctx)

	api.err = errDown
	s.LoadDues(ctx)
	st := s.Snapshot()
	assert.Equal(t, "Failed to load due list.", st.Error)
	assert.Len(t, st.Items, 3, "plain reload keeps the old list")

	s.SetSelectedRoute(ctx, "r2")
	st = s.Snapshot()
	assert.Equal(t, "Failed to fetch due list.", st.Error)
	assert.Empty(t, st.Items, "route change clears the old list")
	assert.Equal(t, "r2", st.SelectedRouteID)
}

func TestDueListStore_LoadRoutes(t *testing.T) {
	ctx := context.Background()
	s := NewDueListStore(&fakeDues{}, &fakeRoutes{err: errDown}, nil)
	s.LoadRoutes(ctx)
	assert.Empty(t, s.Snapshot().Error)

	s = NewDueListStore(&fakeDues{}, &fakeRoutes{routes: []models.Route{{ID: "r1"}}}, nil)
	s.LoadRoutes(ctx)
	assert.Len(t, s.Snapshot().Routes, 1)
}
