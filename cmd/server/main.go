/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the HR calculation core server. Handles
	configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Parse command-line flags
 2. Initialize SQLite store
 3. Seed the chart of accounts (idempotent upserts)
 4. Wire the ledger, request service, and posting service
 5. Start server with graceful shutdown

COMMAND-LINE FLAGS:

	-port    HTTP server port (default: 8080)
	-db      SQLite database path (default: hr.db)
	         Use ":memory:" for an in-memory database

SCHOOL SCHEDULE:

	The daily schedule (08:00-14:00, 10 minutes late grace) and the fixed
	holiday list are compiled in for now. They belong in configuration
	once more than one school shares a deployment.

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Close database connection
	4. Exit

EXAMPLES:

	# Run with file database
	./server -db="./data/hr.db"

	# Run with in-memory database
	./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edustaff/hr-core/api"
	"github.com/edustaff/hr-core/attendance"
	"github.com/edustaff/hr-core/leave"
	"github.com/edustaff/hr-core/payroll"
	"github.com/edustaff/hr-core/store/sqlite"
)

// defaultAccounts is the minimal chart of accounts payroll posting needs.
// Codes follow the common Egyptian school ledger numbering.
var defaultAccounts = []payroll.Account{
	{ID: "acc-salaries", Code: "5100", Name: "Salaries Expense"},
	{ID: "acc-incentives", Code: "5110", Name: "Incentives Expense"},
	{ID: "acc-allowances", Code: "5120", Name: "Allowances Expense"},
	{ID: "acc-ins-expense", Code: "5130", Name: "Insurance Expense"},
	{ID: "acc-ins-payable", Code: "2100", Name: "Insurance Payable"},
	{ID: "acc-tax-payable", Code: "2110", Name: "Tax Payable"},
	{ID: "acc-fund-payable", Code: "2120", Name: "Emergency Fund Payable"},
	{ID: "acc-cash", Code: "1000", Name: "Cash on Hand"},
}

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "hr.db", "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, account := range defaultAccounts {
		if err := store.SaveAccount(ctx, account); err != nil {
			log.Fatalf("Failed to seed account %s: %v", account.Code, err)
		}
	}

	ledger := leave.NewLedger(store.Balances(), store.Transactions(), store.Employees())
	handler := &api.Handler{
		Ledger:    ledger,
		Requests:  leave.NewRequestService(ledger, store.Requests(), store.OverrideSink(), store.Employees()),
		Directory: store.Employees(),
		Records:   store.Records(),
		Overrides: store.Overrides(),
		Holidays:  attendance.NewCalendar(schoolHolidays()...),
		Schedule: attendance.SchedulePolicy{
			WorkStart:        attendance.MustClock("08:00"),
			WorkEnd:          attendance.MustClock("14:00"),
			LateGraceMinutes: 10,
		},
		Settings: store.Settings(),
		Posting:  payroll.NewPostingService(store.Postings(), store.Accounts(), store.JournalSink()),
	}

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// schoolHolidays lists the recurring national holidays observed by schools.
func schoolHolidays() []attendance.Holiday {
	day := func(name string, month time.Month, d int) attendance.Holiday {
		return attendance.Holiday{
			Name:      name,
			Date:      time.Date(2000, month, d, 0, 0, 0, 0, time.UTC),
			Recurring: true,
		}
	}
	return []attendance.Holiday{
		day("Coptic Christmas", time.January, 7),
		day("Revolution Day", time.January, 25),
		day("Sinai Liberation Day", time.April, 25),
		day("Labour Day", time.May, 1),
		day("National Day", time.July, 23),
		day("Armed Forces Day", time.October, 6),
	}
}
