package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/config"
	"banas-client/internal/export"
	"banas-client/internal/logging"
	"banas-client/internal/metrics"
	"banas-client/internal/securestore"
	"banas-client/internal/services"
	"banas-client/internal/stores"
)

// app holds one instance of every store, wired the way the mobile client
// wires them at startup
type app struct {
	cfg *config.Config
	log *logrus.Logger
	out io.Writer

	tokens   securestore.Store
	routes   *services.RouteService
	exporter *export.Exporter

	session      *stores.SessionStore
	home         *stores.HomeStore
	customers    *stores.CustomersStore
	profile      *stores.CustomerProfileStore
	entries      *stores.DailyEntryStore
	dues         *stores.DueListStore
	payments     *stores.PaymentsStore
	bill         *stores.BillDetailStore
	addCustomer  *stores.AddCustomerStore
	editCustomer *stores.EditCustomerStore
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger, out io.Writer) (*app, error) {
	tokens, err := securestore.Open(cfg, logging.Component(logger, "securestore"))
	if err != nil {
		return nil, fmt.Errorf("open secure storage: %w", err)
	}

	client := apiclient.New(apiclient.ConfigFrom(cfg), tokens,
		apiclient.WithLogger(logging.Component(logger, "apiclient")))

	authSvc := services.NewAuthService(client, tokens)
	customerSvc := services.NewCustomerService(client)
	routeSvc := services.NewRouteService(client)
	entrySvc := services.NewDailyEntryService(client)
	billSvc := services.NewBillService(client)
	paymentSvc := services.NewPaymentService(client)
	dueSvc := services.NewDueListService(client)
	dashboardSvc := services.NewDashboardService(client)

	uploader, err := export.NewUploader(ctx, cfg)
	if err != nil {
		if !errors.Is(err, export.ErrNoBucket) {
			return nil, fmt.Errorf("statement uploader: %w", err)
		}
		uploader = nil
	}

	component := func(name string) *logrus.Entry { return logging.Component(logger, name) }
	return &app{
		cfg:          cfg,
		log:          logger,
		out:          out,
		tokens:       tokens,
		routes:       routeSvc,
		exporter:     export.NewExporter(cfg.Export.Dir, uploader, component("export")),
		session:      stores.NewSessionStore(authSvc, component("session")),
		home:         stores.NewHomeStore(dashboardSvc, component("home")),
		customers:    stores.NewCustomersStore(customerSvc, routeSvc, component("customers")),
		profile:      stores.NewCustomerProfileStore(customerSvc, component("profile")),
		entries:      stores.NewDailyEntryStore(entrySvc, component("dailyentry")),
		dues:         stores.NewDueListStore(dueSvc, routeSvc, component("duelist")),
		payments:     stores.NewPaymentsStore(paymentSvc, billSvc, customerSvc, component("payments")),
		bill:         stores.NewBillDetailStore(billSvc, component("bill")),
		addCustomer:  stores.NewAddCustomerStore(customerSvc, component("addcustomer")),
		editCustomer: stores.NewEditCustomerStore(customerSvc, component("editcustomer")),
	}, nil
}

func (a *app) close() {
	if c, ok := a.tokens.(io.Closer); ok {
		c.Close()
	}
}

type command struct {
	summary string
	// public commands run without a stored session
	public bool
	run    func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"Sign in and store the tokens", true, runLogin},
	"logout":        {"Forget the stored session", true, runLogout},
	"whoami":        {"Show the signed-in user", false, runWhoami},
	"dashboard":     {"Show today's metrics", false, runDashboard},
	"customers":     {"List customers [-route] [-q] [-filter]", false, runCustomers},
	"customer":      {"Show one customer's ledger -id", false, runCustomer},
	"add-customer":  {"Create a customer", false, runAddCustomer},
	"edit-customer": {"Update a customer -id", false, runEditCustomer},
	"entries":       {"List verified and pending entries", false, runEntries},
	"add-entry":     {"Record one delivery", false, runAddEntry},
	"bulk-entry":    {"Record today's deliveries for many customers", false, runBulkEntry},
	"verify":        {"Verify pending entries -ids or -all", false, runVerify},
	"missing":       {"List customers without an entry today [-route]", false, runMissing},
	"dues":          {"List dues [-route]", false, runDues},
	"payments":      {"List payments and bills", false, runPayments},
	"pay":           {"Record a payment", false, runPay},
	"bill":          {"Show a bill -id [-pdf]", false, runBill},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: banas [-metrics-addr addr] <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].summary)
	}
}

// serveMetrics exposes the registry until ctx ends
func serveMetrics(ctx context.Context, addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.WithField("addr", addr).Info("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
}

func main() {
	os.Exit(run())
}

// run returns the process exit code. Every path returns through here so the
// deferred cleanup always runs.
func run() int {
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		return 2
	}

	cfg := config.Load()
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	logger := logging.New(cfg.Log.Level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		serveMetrics(ctx, cfg.Metrics.Addr, logging.Component(logger, "metrics"))
	}

	a, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.WithError(err).Error("startup failed")
		return 1
	}
	defer a.close()

	a.session.Initialise(ctx)
	if !cmd.public && !a.session.Snapshot().IsAuthenticated {
		fmt.Fprintln(os.Stderr, "Not signed in. Run: banas login -u <username>")
		return 1
	}

	if err := cmd.run(ctx, a, flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
