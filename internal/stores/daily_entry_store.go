package stores

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
)

// EntryTab is the list the daily entry screen is showing
type EntryTab string

const (
	TabVerified EntryTab = "verified"
	TabPending  EntryTab = "pending"
)

type DailyEntryState struct {
	Entries          []models.DailyEntry
	MissingCustomers []models.MissingEntryCustomer
	Loading          bool
	LoadingMissing   bool
	Verifying        bool
	Error            string
	// SelectedIDs is the bulk verification selection, sorted
	SelectedIDs []string
	ActiveTab   EntryTab
}

func (st DailyEntryState) Verified() []models.DailyEntry {
	return entriesWithStatus(st.Entries, models.EntryStatusVerified)
}

func (st DailyEntryState) Pending() []models.DailyEntry {
	return entriesWithStatus(st.Entries, models.EntryStatusPending)
}

// IsSelected reports whether id is in the selection
func (st DailyEntryState) IsSelected(id string) bool {
	for _, s := range st.SelectedIDs {
		if s == id {
			return true
		}
	}
	return false
}

func entriesWithStatus(entries []models.DailyEntry, status models.EntryStatus) []models.DailyEntry {
	out := []models.DailyEntry{}
	for _, e := range entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// DailyEntryStore owns today's entries, the missing-entry list and the
// verification selection. Only pending entries can be selected, and the
// selection is emptied whenever the entries reload or the tab changes.
type DailyEntryStore struct {
	notifier
	mu         sync.RWMutex
	state      DailyEntryState
	selected   selection
	loadGen    generation
	missingGen generation

	entries EntryAPI
	log     *logrus.Entry
}

func NewDailyEntryStore(entries EntryAPI, log *logrus.Entry) *DailyEntryStore {
	return &DailyEntryStore{
		state: DailyEntryState{
			Entries:          []models.DailyEntry{},
			MissingCustomers: []models.MissingEntryCustomer{},
			ActiveTab:        TabPending,
		},
		selected: selection{},
		entries:  entries,
		log:      logging.Or(log, "dailyentry"),
	}
}

func (s *DailyEntryStore) Snapshot() DailyEntryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Entries = cloneSlice(st.Entries)
	st.MissingCustomers = cloneSlice(st.MissingCustomers)
	st.SelectedIDs = s.selected.sorted()
	return st
}

func (s *DailyEntryStore) Verified() []models.DailyEntry { return s.Snapshot().Verified() }

func (s *DailyEntryStore) Pending() []models.DailyEntry { return s.Snapshot().Pending() }

func (s *DailyEntryStore) LoadEntries(ctx context.Context) {
	s.mu.Lock()
	gen := s.loadGen.next()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	entries, err := s.entries.FetchEntries(ctx)

	s.mu.Lock()
	if !s.loadGen.is(gen) {
		s.mu.Unlock()
		record("dailyentry", "load", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load entries.")
		s.log.WithError(err).Warn("load entries failed")
		record("dailyentry", "load", outcomeError)
	} else {
		s.state.Entries = entries
		s.selected = selection{}
		record("dailyentry", "load", outcomeOK)
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// ToggleSelect adds or removes id. Ids that are not currently pending are
// never added.
func (s *DailyEntryStore) ToggleSelect(id string) {
	s.mu.Lock()
	if !s.selected.has(id) && !s.isPendingLocked(id) {
		s.mu.Unlock()
		return
	}
	s.selected = s.selected.toggled(id)
	s.mu.Unlock()
	s.notify()
}

// SelectAll selects exactly the ids of the pending entries
func (s *DailyEntryStore) SelectAll() {
	s.mu.Lock()
	pending := s.state.Pending()
	ids := make([]string, 0, len(pending))
	for _, e := range pending {
		ids = append(ids, e.ID)
	}
	s.selected = selectionOf(ids)
	s.mu.Unlock()
	s.notify()
}

func (s *DailyEntryStore) ClearSelection() {
	s.mu.Lock()
	s.selected = selection{}
	s.mu.Unlock()
	s.notify()
}

// SetActiveTab switches the visible list and empties the selection
func (s *DailyEntryStore) SetActiveTab(tab EntryTab) {
	s.mu.Lock()
	s.state.ActiveTab = tab
	s.selected = selection{}
	s.mu.Unlock()
	s.notify()
}

// VerifySelected verifies every selected pending entry in one call. On
// success those entries become verified in place and the selection empties.
func (s *DailyEntryStore) VerifySelected(ctx context.Context) {
	s.mu.Lock()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return
	}
	var payload []models.VerifyEntryRequest
	for _, e := range s.state.Pending() {
		if s.selected.has(e.ID) {
			payload = append(payload, models.VerifyRequestFor(e))
		}
	}
	if len(payload) == 0 {
		s.mu.Unlock()
		return
	}
	s.state.Verifying = true
	s.mu.Unlock()
	s.notify()

	err := s.entries.VerifyEntries(ctx, payload)

	s.mu.Lock()
	s.state.Verifying = false
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Verification failed.")
		s.log.WithError(err).WithField("count", len(payload)).Warn("verify failed")
		record("dailyentry", "verify", outcomeError)
	} else {
		ids := make([]string, len(payload))
		for i, p := range payload {
			ids[i] = p.ID
		}
		s.markVerifiedLocked(selectionOf(ids))
		s.selected = selection{}
		s.log.WithField("count", len(payload)).Info("entries verified")
		record("dailyentry", "verify", outcomeOK)
	}
	s.mu.Unlock()
	s.notify()
}

// VerifySingle verifies one entry. Unknown ids are ignored.
func (s *DailyEntryStore) VerifySingle(ctx context.Context, id string) {
	s.mu.Lock()
	var (
		entry models.DailyEntry
		found bool
	)
	for _, e := range s.state.Entries {
		if e.ID == id {
			entry, found = e, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return
	}
	s.state.Verifying = true
	s.mu.Unlock()
	s.notify()

	err := s.entries.VerifyEntries(ctx, []models.VerifyEntryRequest{models.VerifyRequestFor(entry)})

	s.mu.Lock()
	s.state.Verifying = false
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Verification failed.")
		s.log.WithError(err).WithField("entry_id", id).Warn("verify failed")
		record("dailyentry", "verify_single", outcomeError)
	} else {
		s.markVerifiedLocked(selection{id: {}})
		if s.selected.has(id) {
			s.selected = s.selected.toggled(id)
		}
		record("dailyentry", "verify_single", outcomeOK)
	}
	s.mu.Unlock()
	s.notify()
}

// markVerifiedLocked rebuilds the entry list with ids set to verified
func (s *DailyEntryStore) markVerifiedLocked(ids selection) {
	next := make([]models.DailyEntry, len(s.state.Entries))
	for i, e := range s.state.Entries {
		if ids.has(e.ID) {
			e.Status = models.EntryStatusVerified
		}
		next[i] = e
	}
	s.state.Entries = next
}

func (s *DailyEntryStore) isPendingLocked(id string) bool {
	for _, e := range s.state.Entries {
		if e.ID == id {
			return e.Status == models.EntryStatusPending
		}
	}
	return false
}

// LoadMissingEntries lists customers without an entry today. An empty
// routeID covers every route.
func (s *DailyEntryStore) LoadMissingEntries(ctx context.Context, routeID string) {
	s.mu.Lock()
	gen := s.missingGen.next()
	s.state.LoadingMissing = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	res, err := s.entries.FetchMissingEntries(ctx, routeID)

	s.mu.Lock()
	if !s.missingGen.is(gen) {
		s.mu.Unlock()
		record("dailyentry", "missing", outcomeStale)
		return
	}
	if err != nil {
		s.state.Error = apiclient.MessageFrom(err, "Failed to load missing customers.")
		s.log.WithError(err).Warn("load missing entries failed")
		record("dailyentry", "missing", outcomeError)
	} else {
		s.state.MissingCustomers = res.Customers
		record("dailyentry", "missing", outcomeOK)
	}
	s.state.LoadingMissing = false
	s.mu.Unlock()
	s.notify()
}

// SubmitBulkEntries posts the batch and reloads the entries. It is the one
// action that returns its failure, so a form can stay open.
func (s *DailyEntryStore) SubmitBulkEntries(ctx context.Context, items []models.BulkImportItem) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	if err := s.entries.BulkImport(ctx, items); err != nil {
		s.mu.Lock()
		s.state.Error = apiclient.MessageFrom(err, "Failed to submit bulk entries.")
		s.state.Loading = false
		s.mu.Unlock()
		s.notify()
		s.log.WithError(err).WithField("count", len(items)).Warn("bulk import failed")
		record("dailyentry", "bulk_import", outcomeError)
		return err
	}

	s.mu.Lock()
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
	s.log.WithField("count", len(items)).Info("bulk entries submitted")
	record("dailyentry", "bulk_import", outcomeOK)

	s.LoadEntries(ctx)
	return nil
}

// AddEntry records one delivery and reloads the entries. It reports whether
// the entry was created; the failure message lands in Error.
func (s *DailyEntryStore) AddEntry(ctx context.Context, req models.CreateEntryRequest) bool {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()

	if err := s.entries.CreateEntry(ctx, req); err != nil {
		s.mu.Lock()
		s.state.Error = apiclient.MessageFrom(err, "Failed to add entry.")
		s.state.Loading = false
		s.mu.Unlock()
		s.notify()
		s.log.WithError(err).WithField("customer_id", req.CustomerID).Warn("add entry failed")
		record("dailyentry", "add", outcomeError)
		return false
	}

	record("dailyentry", "add", outcomeOK)
	s.LoadEntries(ctx)
	return true
}
