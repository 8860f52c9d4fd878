package services

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"banas-client/internal/models"
)

const (
	entriesPath = "/dailyentry/"
	pendingPath = "/dailyentry/list/pending/dailyentry/"
	verifyPath  = "/dailyentry/verify/dailyentry/"
)

type DailyEntryService struct {
	API API
}

func NewDailyEntryService(api API) *DailyEntryService {
	return &DailyEntryService{API: api}
}

// FetchEntries loads the verified and pending lists concurrently and returns
// verified entries first. Either call failing fails the whole fetch.
func (s *DailyEntryService) FetchEntries(ctx context.Context) ([]models.DailyEntry, error) {
	var daily, pending []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		daily, err = s.API.Get(gctx, entriesPath)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.API.Get(gctx, pendingPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dailyRoot, err := parse(daily, "daily entries")
	if err != nil {
		return nil, err
	}
	pendingRoot, err := parse(pending, "pending entries")
	if err != nil {
		return nil, err
	}

	entries := []models.DailyEntry{}
	arrayOf(dailyRoot, "results").ForEach(func(_, item gjson.Result) bool {
		cooler := coalesce(item.Get("cooler"), item.Get("coolers"))
		entries = append(entries, entryFrom(item, cooler, models.EntryStatusVerified))
		return true
	})
	arrayOf(pendingRoot, "results").ForEach(func(_, item gjson.Result) bool {
		cooler := coalesce(item.Get("coolers"), item.Get("cooler"))
		entries = append(entries, entryFrom(item, cooler, models.EntryStatusPending))
		return true
	})
	return entries, nil
}

func entryFrom(item, cooler gjson.Result, status models.EntryStatus) models.DailyEntry {
	addedBy := item.Get("addedby").String()
	if addedBy == "" {
		addedBy = "Admin"
	}
	return models.DailyEntry{
		ID:           item.Get("id").String(),
		CustomerID:   item.Get("customer").String(),
		CustomerName: item.Get("customer_name").String(),
		Cooler:       int(cooler.Int()),
		AddedBy:      addedBy,
		Date:         item.Get("date_added").String(),
		Status:       status,
	}
}

// CreateEntry records a single delivery
func (s *DailyEntryService) CreateEntry(ctx context.Context, req models.CreateEntryRequest) error {
	_, err := s.API.Post(ctx, entriesPath, map[string]any{
		"customer":   req.CustomerID,
		"cooler":     req.Cooler,
		"date_added": req.Date,
	})
	return err
}

// VerifyEntries verifies one or many entries in a single call
func (s *DailyEntryService) VerifyEntries(ctx context.Context, reqs []models.VerifyEntryRequest) error {
	_, err := s.API.Post(ctx, verifyPath, reqs)
	return err
}

// FetchMissingEntries lists customers with no entry today, optionally on one route
func (s *DailyEntryService) FetchMissingEntries(ctx context.Context, routeID string) (*models.MissingEntries, error) {
	path := "/dailyentry/today/missing/"
	if routeID != "" {
		path += "?route=" + url.QueryEscape(routeID)
	}
	body, err := s.API.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var missing models.MissingEntries
	if err := decodeInto(string(body), &missing, "missing entries"); err != nil {
		return nil, err
	}
	if missing.Customers == nil {
		missing.Customers = []models.MissingEntryCustomer{}
	}
	return &missing, nil
}

func (s *DailyEntryService) BulkImport(ctx context.Context, items []models.BulkImportItem) error {
	_, err := s.API.Post(ctx, "/dailyentry/bulk/import/", items)
	return err
}
