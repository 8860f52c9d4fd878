package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"banas-client/internal/models"
	"banas-client/internal/stores"
	"banas-client/internal/timeutil"
)

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet("banas "+name, flag.ContinueOnError)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

// resolveRoute accepts a route id or a route name
func resolveRoute(routes []models.Route, arg string) (string, error) {
	if arg == "" {
		return "", nil
	}
	for _, r := range routes {
		if r.ID == arg {
			return r.ID, nil
		}
	}
	if id, ok := models.RouteIDByName(routes, arg); ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown route %q", arg)
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	username := fs.String("u", "", "Username")
	password := fs.String("p", os.Getenv("BANAS_PASSWORD"), "Password (defaults to $BANAS_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("login needs -u and -p (or $BANAS_PASSWORD)")
	}

	if !a.session.Login(ctx, models.LoginRequest{Username: *username, Password: *password}) {
		return errors.New(a.session.Snapshot().Error)
	}
	u := a.session.Snapshot().User
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.FullName, u.Username)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	u := a.session.Snapshot().User
	if u == nil {
		fmt.Fprintln(a.out, "Signed in (no profile stored)")
		return nil
	}
	role := "staff"
	if u.IsSuperuser {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s (%s) <%s> %s\n", u.FullName, u.Username, u.Email, role)
	return nil
}

func runDashboard(ctx context.Context, a *app, _ []string) error {
	a.home.LoadDashboard(ctx)
	st := a.home.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	m := st.Data.Metrics
	w := a.table()
	fmt.Fprintf(w, "Active customers\t%d\n", m.TotalActiveCustomers)
	fmt.Fprintf(w, "Customers served today\t%d\n", m.TodayCustomerCount)
	fmt.Fprintf(w, "Coolers today\t%d\n", m.TodayCoolersCount)
	fmt.Fprintf(w, "Pending due\t%s\n", money(m.TotalPendingDue))
	return w.Flush()
}

func runCustomers(ctx context.Context, a *app, args []string) error {
	fs := newFlags("customers")
	route := fs.String("route", "", "Route id or name")
	query := fs.String("q", "", "Search name or route")
	filter := fs.String("filter", string(stores.FilterAll), "all, active or inactive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch stores.CustomerFilter(*filter) {
	case stores.FilterAll, stores.FilterActive, stores.FilterInactive:
	default:
		return fmt.Errorf("unknown filter %q", *filter)
	}

	if *route != "" {
		a.customers.LoadRoutes(ctx)
		id, err := resolveRoute(a.customers.Snapshot().Routes, *route)
		if err != nil {
			return err
		}
		a.customers.SetSelectedRoute(ctx, id)
	} else {
		a.customers.LoadCustomers(ctx)
	}
	if st := a.customers.Snapshot(); st.Error != "" {
		return errors.New(st.Error)
	}
	a.customers.SetSearchQuery(*query)
	a.customers.SetFilter(stores.CustomerFilter(*filter))

	list := a.customers.FilteredCustomers()
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tROUTE\tSTATUS")
	for _, c := range list {
		status := "active"
		if !c.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Route, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d customer(s)\n", len(list))
	return nil
}

func (a *app) printProfile(d *models.CustomerDetails) error {
	w := a.table()
	fmt.Fprintf(w, "Name\t%s\n", d.FullName())
	fmt.Fprintf(w, "Route\t%s\n", d.Route)
	fmt.Fprintf(w, "Phone\t%s\n", d.PhoneNo)
	fmt.Fprintf(w, "Rate\t%s\n", money(d.Rate))
	fmt.Fprintf(w, "Active\t%t\n", d.Active)
	fmt.Fprintf(w, "Coolers this month\t%d\n", d.DailyEntryMonthly)
	fmt.Fprintf(w, "Total paid\t%s\n", money(d.Account.TotalPaid))
	fmt.Fprintf(w, "Due\t%s\n", money(d.Account.Due))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(d.Bills) > 0 {
		fmt.Fprintln(a.out, "\nBills")
		w = a.table()
		for _, b := range d.Bills {
			fmt.Fprintf(w, "%s\t%s to %s\t%d coolers\t%s\tpaid=%t\n", b.BillNumber, b.FromDate, b.ToDate, b.Coolers, money(b.Total), b.Paid)
		}
		w.Flush()
	}
	if len(d.Payments) > 0 {
		fmt.Fprintln(a.out, "\nPayments")
		w = a.table()
		for _, p := range d.Payments {
			amount := p.PaidAmount
			if amount == nil {
				amount = p.Amount
			}
			paid := "-"
			if amount != nil {
				paid = money(*amount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Date, paid, p.Method)
		}
		w.Flush()
	}
	return nil
}

func runCustomer(ctx context.Context, a *app, args []string) error {
	fs := newFlags("customer")
	id := fs.String("id", "", "Customer id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("customer needs -id")
	}

	a.profile.LoadProfile(ctx, *id)
	st := a.profile.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	return a.printProfile(st.Data)
}

// customerFlags binds one flag per form field
func customerFlags(fs *flag.FlagSet) map[stores.Field]*string {
	return map[stores.Field]*string{
		stores.FieldFirstName:  fs.String("first", "", "First name"),
		stores.FieldLastName:   fs.String("last", "", "Last name"),
		stores.FieldRouteID:    fs.String("route", "", "Route id or name"),
		stores.FieldRate:       fs.String("rate", "", "Rate per cooler"),
		stores.FieldPhone:      fs.String("phone", "", "10 digit phone number"),
		stores.FieldEmail:      fs.String("email", "", "Email (optional)"),
		stores.FieldSequenceNo: fs.String("seq", "", "Delivery sequence number (optional)"),
	}
}

var flagFields = map[string]stores.Field{
	"first": stores.FieldFirstName,
	"last":  stores.FieldLastName,
	"route": stores.FieldRouteID,
	"rate":  stores.FieldRate,
	"phone": stores.FieldPhone,
	"email": stores.FieldEmail,
	"seq":   stores.FieldSequenceNo,
}

func formErrors(errs map[stores.Field]string, submitErr string) error {
	if submitErr != "" {
		return errors.New(submitErr)
	}
	msgs := make([]string, 0, len(errs))
	for field, msg := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return errors.New(strings.Join(msgs, "\n"))
}

func runAddCustomer(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-customer")
	values := customerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if route := *values[stores.FieldRouteID]; route != "" {
		a.customers.LoadRoutes(ctx)
		id, err := resolveRoute(a.customers.Snapshot().Routes, route)
		if err != nil {
			return err
		}
		*values[stores.FieldRouteID] = id
	}

	for field, v := range values {
		a.addCustomer.SetField(field, *v)
	}
	if !a.addCustomer.Submit(ctx) {
		st := a.addCustomer.Snapshot()
		return formErrors(st.Errors, st.SubmitError)
	}
	a.addCustomer.Reset()

	fmt.Fprintln(a.out, "Customer added")
	a.customers.LoadCustomers(ctx)
	return nil
}

func runEditCustomer(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit-customer")
	id := fs.String("id", "", "Customer id")
	values := customerFlags(fs)
	active := fs.Bool("active", true, "Whether the customer is active")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("edit-customer needs -id")
	}

	a.profile.LoadProfile(ctx, *id)
	prof := a.profile.Snapshot()
	if prof.Error != "" {
		return errors.New(prof.Error)
	}
	routes, err := a.routes.FetchRoutes(ctx)
	if err != nil {
		a.log.WithError(err).Warn("routes unavailable, keeping route unset")
	}
	routeID, _ := models.RouteIDByName(routes, prof.Data.Route)
	a.editCustomer.InitForm(prof.Data, routeID)

	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "active" {
			a.editCustomer.SetActive(*active)
			return
		}
		field, ok := flagFields[f.Name]
		if !ok {
			return
		}
		v := *values[field]
		if field == stores.FieldRouteID {
			if v, err = resolveRoute(routes, v); err != nil {
				visitErr = err
				return
			}
		}
		a.editCustomer.SetField(field, v)
	})
	if visitErr != nil {
		return visitErr
	}

	if !a.editCustomer.Submit(ctx) {
		st := a.editCustomer.Snapshot()
		return formErrors(st.Errors, st.SubmitError)
	}
	a.editCustomer.Reset()

	// Directory first, then the profile that was edited
	a.customers.LoadCustomers(ctx)
	a.profile.LoadProfile(ctx, *id)
	fmt.Fprintln(a.out, "Customer updated")
	if d := a.profile.Snapshot().Data; d != nil {
		return a.printProfile(d)
	}
	return nil
}

func (a *app) printEntries(title string, entries []models.DailyEntry) error {
	fmt.Fprintf(a.out, "%s (%d)\n", title, len(entries))
	w := a.table()
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\t%s\n", e.ID, e.CustomerName, e.Cooler, e.Date, e.AddedBy)
	}
	return w.Flush()
}

func runEntries(ctx context.Context, a *app, args []string) error {
	fs := newFlags("entries")
	tab := fs.String("tab", "", "Show only pending or verified")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.entries.LoadEntries(ctx)
	if st := a.entries.Snapshot(); st.Error != "" {
		return errors.New(st.Error)
	}
	if *tab != string(stores.TabVerified) {
		if err := a.printEntries("Pending", a.entries.Pending()); err != nil {
			return err
		}
	}
	if *tab != string(stores.TabPending) {
		return a.printEntries("Verified", a.entries.Verified())
	}
	return nil
}

func runAddEntry(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-entry")
	customer := fs.String("customer", "", "Customer id")
	coolers := fs.Int("coolers", 1, "Coolers delivered")
	date := fs.String("date", timeutil.Today(), "Delivery date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *customer == "" {
		return errors.New("add-entry needs -customer")
	}
	if _, err := timeutil.ParseDate(*date); err != nil {
		return fmt.Errorf("bad -date: %w", err)
	}

	ok := a.entries.AddEntry(ctx, models.CreateEntryRequest{CustomerID: *customer, Cooler: *coolers, Date: *date})
	if !ok {
		return errors.New(a.entries.Snapshot().Error)
	}
	fmt.Fprintf(a.out, "Entry added, %d pending\n", len(a.entries.Pending()))
	return nil
}

// parseBulkItems reads "customerID=coolers" pairs
func parseBulkItems(args []string) ([]models.BulkImportItem, error) {
	items := make([]models.BulkImportItem, 0, len(args))
	for _, arg := range args {
		id, count, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("bad item %q, want customerID=coolers", arg)
		}
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad cooler count in %q", arg)
		}
		items = append(items, models.BulkImportItem{Customer: id, Cooler: n})
	}
	return items, nil
}

func runBulkEntry(ctx context.Context, a *app, args []string) error {
	fs := newFlags("bulk-entry")
	missing := fs.Int("missing", 0, "Give every customer missing today this many coolers")
	route := fs.String("route", "", "Route id or name for -missing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := parseBulkItems(fs.Args())
	if err != nil {
		return err
	}
	if *missing > 0 {
		routeID := ""
		if *route != "" {
			routes, err := a.routes.FetchRoutes(ctx)
			if err != nil {
				return err
			}
			if routeID, err = resolveRoute(routes, *route); err != nil {
				return err
			}
		}
		a.entries.LoadMissingEntries(ctx, routeID)
		for _, c := range a.entries.Snapshot().MissingCustomers {
			items = append(items, models.BulkImportItem{Customer: c.ID, Cooler: *missing})
		}
	}
	if len(items) == 0 {
		return errors.New("nothing to import")
	}

	if err := a.entries.SubmitBulkEntries(ctx, items); err != nil {
		return errors.New(a.entries.Snapshot().Error)
	}
	fmt.Fprintf(a.out, "Imported %d entries\n", len(items))
	return nil
}

func runVerify(ctx context.Context, a *app, args []string) error {
	fs := newFlags("verify")
	ids := fs.String("ids", "", "Comma separated entry ids")
	all := fs.Bool("all", false, "Verify every pending entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*all && *ids == "" {
		return errors.New("verify needs -ids or -all")
	}

	a.entries.LoadEntries(ctx)
	if st := a.entries.Snapshot(); st.Error != "" {
		return errors.New(st.Error)
	}
	if *all {
		a.entries.SelectAll()
	} else {
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				a.entries.ToggleSelect(id)
			}
		}
	}

	selected := len(a.entries.Snapshot().SelectedIDs)
	if selected == 0 {
		fmt.Fprintln(a.out, "No pending entries selected")
		return nil
	}
	a.entries.VerifySelected(ctx)
	if st := a.entries.Snapshot(); st.Error != "" {
		return errors.New(st.Error)
	}
	fmt.Fprintf(a.out, "Verified %d entries\n", selected)
	return nil
}

func runMissing(ctx context.Context, a *app, args []string) error {
	fs := newFlags("missing")
	route := fs.String("route", "", "Route id or name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	routeID := ""
	if *route != "" {
		routes, err := a.routes.FetchRoutes(ctx)
		if err != nil {
			return err
		}
		if routeID, err = resolveRoute(routes, *route); err != nil {
			return err
		}
	}
	a.entries.LoadMissingEntries(ctx, routeID)
	st := a.entries.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}

	fmt.Fprintf(a.out, "%d customer(s) without an entry today\n", len(st.MissingCustomers))
	w := a.table()
	for _, c := range st.MissingCustomers {
		fmt.Fprintf(w, "  %s\t%s\n", c.ID, models.CustomerName(c.FirstName, c.LastName))
	}
	return w.Flush()
}

func runDues(ctx context.Context, a *app, args []string) error {
	fs := newFlags("dues")
	route := fs.String("route", "", "Route id or name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *route != "" {
		a.dues.LoadRoutes(ctx)
		id, err := resolveRoute(a.dues.Snapshot().Routes, *route)
		if err != nil {
			return err
		}
		a.dues.SetSelectedRoute(ctx, id)
	} else {
		a.dues.LoadDues(ctx)
	}
	st := a.dues.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}

	w := a.table()
	fmt.Fprintln(w, "Outstanding")
	for _, d := range st.Outstanding() {
		fmt.Fprintf(w, "  %s\t%s\n", d.CustomerName, money(d.Due))
	}
	fmt.Fprintln(w, "Cleared")
	for _, d := range st.Cleared() {
		fmt.Fprintf(w, "  %s\t%s\n", d.CustomerName, money(d.Due))
	}
	fmt.Fprintf(w, "Total due\t%s\n", money(st.DueTotal))
	return w.Flush()
}

func runPayments(ctx context.Context, a *app, _ []string) error {
	a.payments.RefreshAll(ctx)
	st := a.payments.Snapshot()

	fmt.Fprintln(a.out, "Payments")
	if st.PaymentsError != "" {
		fmt.Fprintf(a.out, "  %s\n", st.PaymentsError)
	} else {
		w := a.table()
		for _, p := range st.Payments {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Date, p.CustomerName, money(p.PaidAmount), p.PaymentMethod)
		}
		fmt.Fprintf(w, "  Total collected\t%s\n", money(st.TotalPaidAmount))
		w.Flush()
	}

	fmt.Fprintln(a.out, "\nBills")
	if st.BillsError != "" {
		fmt.Fprintf(a.out, "  %s\n", st.BillsError)
		return nil
	}
	w := a.table()
	for _, b := range st.Bills {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s to %s\t%s\tpaid=%t\n", b.ID, b.Number(), b.CustomerName, b.FromDate, b.ToDate, money(b.Total), b.Paid)
	}
	return w.Flush()
}

func runPay(ctx context.Context, a *app, args []string) error {
	fs := newFlags("pay")
	customer := fs.String("customer", "", "Customer id")
	amount := fs.String("amount", "", "Amount paid (defaults to the full due)")
	roundOff := fs.String("roundoff", "", "Round-off written off (optional)")
	method := fs.String("method", string(models.PaymentMethodCash), "cash, upi or cheque")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *customer == "" {
		return errors.New("pay needs -customer")
	}

	a.payments.LoadAccountDue(ctx, *customer)
	st := a.payments.Snapshot()
	if st.CollectError != "" {
		return errors.New(st.CollectError)
	}

	req := models.CreatePaymentRequest{
		CustomerName:  *customer,
		PaymentMethod: models.PaymentMethod(*method),
	}
	if *amount == "" {
		req.PaidAmount = st.AccountDue.Due
	} else {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("bad -amount: %w", err)
		}
		req.PaidAmount = d
	}
	if *roundOff != "" {
		d, err := decimal.NewFromString(*roundOff)
		if err != nil {
			return fmt.Errorf("bad -roundoff: %w", err)
		}
		req.RoundOffAmount = &d
	}

	if !a.payments.CollectPayment(ctx, req) {
		return errors.New(a.payments.Snapshot().CollectError)
	}
	fmt.Fprintf(a.out, "Recorded %s from %s (due was %s)\n", money(req.PaidAmount), st.AccountDue.CustomerName, money(st.AccountDue.Due))
	return nil
}

func runBill(ctx context.Context, a *app, args []string) error {
	fs := newFlags("bill")
	id := fs.String("id", "", "Bill id")
	pdf := fs.Bool("pdf", false, "Write a PDF statement (and upload it when export.s3.bucket is set)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("bill needs -id")
	}

	a.bill.LoadBill(ctx, *id)
	defer a.bill.ClearBill()
	st := a.bill.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}

	b := st.Data.Bill
	w := a.table()
	fmt.Fprintf(w, "Bill\t%s\n", b.Number())
	fmt.Fprintf(w, "Customer\t%s\n", b.CustomerName)
	fmt.Fprintf(w, "Period\t%s to %s\n", b.FromDate, b.ToDate)
	fmt.Fprintf(w, "Coolers\t%d at %s\n", b.Coolers, money(b.Rate))
	fmt.Fprintf(w, "Amount\t%s\n", money(b.Amount))
	fmt.Fprintf(w, "Previous due\t%s\n", money(b.PendingAmount))
	fmt.Fprintf(w, "Advance\t%s\n", money(b.AdvancedAmount))
	fmt.Fprintf(w, "Total\t%s\n", money(b.Total))
	fmt.Fprintf(w, "Paid\t%t\n", b.Paid)
	for _, e := range st.Data.DailyEntries {
		fmt.Fprintf(w, "  %s\t%d\n", e.DateAdded, e.Cooler)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !*pdf {
		return nil
	}
	res, err := a.exporter.ExportBill(ctx, st.Data)
	if res != nil {
		fmt.Fprintf(a.out, "Wrote %s (%d bytes)\n", res.Path, res.Size)
		if res.ObjectKey != "" {
			fmt.Fprintf(a.out, "Uploaded to %s/%s\n", a.cfg.Export.S3.Bucket, res.ObjectKey)
		}
	}
	return err
}
