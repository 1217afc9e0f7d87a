package autoinvest

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Sundays and Mondays used across the engine tests.
var (
	aSunday = MustParseDate("03-28-21")
	aMonday = MustParseDate("03-29-21")
)

type engineFixture struct {
	engine *OrderFlowEngine
	sheet  *fakeSheet
	venue  *fakeVenue
	bank   *fakeBank
	cache  *OrderCache
	hist   *HistoryFile
}

func newEngineFixture(t *testing.T, today Date) *engineFixture {
	t.Helper()
	dir := t.TempDir()
	sheet := &fakeSheet{batch: testBatch("VTI", 25, "AAPL", 10, "BTC", 5), total: USD(40)}
	venue := &fakeVenue{power: USD(10000)}
	bank := &fakeBank{balance: USD(10000)}
	cache := NewOrderCache(dir)
	hist := NewHistoryFile(dir)
	log := testLog()
	return &engineFixture{
		engine: &OrderFlowEngine{
			Sheet: sheet,
			Venue: venue,
			Funding: &FundingCoordinator{
				Venue:       venue,
				Bank:        bank,
				VenueBuffer: USD(100),
				BankBuffer:  USD(500),
				Log:         log,
			},
			Cache:   cache,
			History: hist,
			Delay:   time.Millisecond,
			Now:     func() Date { return today },
			Log:     log,
		},
		sheet: sheet,
		venue: venue,
		bank:  bank,
		cache: cache,
		hist:  hist,
	}
}

func (f *engineFixture) mustBeClean(t *testing.T) {
	t.Helper()
	empty, err := f.cache.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("progress cache not empty")
	}
	main, err := f.cache.SnapshotMain()
	if err != nil {
		t.Fatal(err)
	}
	if !main.IsEmpty() {
		t.Error("main cache not empty")
	}
}

func TestRunNoOpOnRecordedDate(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	done := Entry{RecurringType: RecurringWeekly, Date: aSunday,
		Orders: []OrderRecord{{Symbol: "VTI", Amount: USD(25), Status: ExecFilled}}}
	if err := f.hist.Append(done); err != nil {
		t.Fatal(err)
	}
	// Even a stale cache must not trigger anything once the date is
	// recorded.
	if err := f.cache.Seed(testBatch("VTI", 25)); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.venue.orders) != 0 || f.venue.logins != 0 {
		t.Errorf("venue touched on a recorded date: %d orders, %d logins",
			len(f.venue.orders), f.venue.logins)
	}
	progress, err := f.cache.SnapshotProgress()
	if err != nil {
		t.Fatal(err)
	}
	if progress.IsEmpty() {
		t.Error("cache mutated on a recorded date")
	}
}

func TestRunNoOpOffSchedule(t *testing.T) {
	f := newEngineFixture(t, aMonday)
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.venue.orders) != 0 || f.venue.logins != 0 {
		t.Error("venue touched on an off-schedule day")
	}
	f.mustBeClean(t)
}

func TestRunFullCycle(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"VTI", "AAPL", "BTC"}
	if len(f.venue.orders) != len(want) {
		t.Fatalf("orders = %v, want %v", f.venue.orders, want)
	}
	for i := range want {
		if f.venue.orders[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, f.venue.orders[i], want[i])
		}
	}
	if f.venue.logins != 1 || f.venue.logouts != 1 {
		t.Errorf("logins/logouts = %d/%d, want 1/1", f.venue.logins, f.venue.logouts)
	}

	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries()) != 1 {
		t.Fatalf("history entries = %d, want 1", len(h.Entries()))
	}
	entry := h.Entries()[0]
	if entry.Date != aSunday || entry.RecurringType != RecurringWeekly {
		t.Errorf("entry header = %v %v", entry.RecurringType, entry.Date)
	}
	if len(entry.Orders) != 3 {
		t.Fatalf("entry orders = %d, want 3", len(entry.Orders))
	}
	for i, o := range entry.Orders {
		if o.Symbol != want[i] || o.Status != ExecFilled || o.OrderID == "" {
			t.Errorf("entry order[%d] = %+v", i, o)
		}
	}
	f.mustBeClean(t)

	// A second invocation the same day is a no-op.
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.venue.orders) != 3 {
		t.Errorf("second run placed orders: %v", f.venue.orders)
	}
}

func TestRunAbortsOnInsufficientFunds(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	f.venue.power = USD(20)
	f.bank.balance = USD(100)

	err := f.engine.Run(context.Background())
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Run = %v, want InsufficientFundsError", err)
	}
	if len(f.venue.orders) != 0 {
		t.Errorf("orders placed despite aborted funding: %v", f.venue.orders)
	}
	if len(f.bank.deposits) != 0 {
		t.Errorf("deposits issued despite insufficient funds: %v", f.bank.deposits)
	}
	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries()) != 0 {
		t.Error("history written for an aborted cycle")
	}
	// A later invocation the same day may retry from scratch.
	f.mustBeClean(t)
}

func TestRunResumesInterruptedCycle(t *testing.T) {
	f := newEngineFixture(t, aMonday)
	// Simulate a crashed Sunday run: BTC was already popped and executed,
	// VTI and AAPL are still pending.
	if err := f.cache.Seed(testBatch("BTC", 5, "VTI", 25, "AAPL", 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.cache.PopNext(); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Only the pending orders are executed.
	if len(f.venue.orders) != 2 || f.venue.orders[0] != "VTI" || f.venue.orders[1] != "AAPL" {
		t.Fatalf("orders = %v, want [VTI AAPL]", f.venue.orders)
	}

	// The entry still records all three, joined from the main cache.
	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries()) != 1 {
		t.Fatalf("history entries = %d, want 1", len(h.Entries()))
	}
	orders := h.Entries()[0].Orders
	if len(orders) != 3 {
		t.Fatalf("entry orders = %d, want 3", len(orders))
	}
	if orders[0].Symbol != "BTC" || orders[0].Status != "" {
		t.Errorf("prior-run order = %+v, want BTC without status", orders[0])
	}
	if orders[1].Symbol != "VTI" || orders[1].Status != ExecFilled {
		t.Errorf("resumed order = %+v, want VTI filled", orders[1])
	}
	f.mustBeClean(t)
}

func TestRunFinalizesDrainedCycleWithoutResubmitting(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	// Simulate a crash after the last order was placed but before the
	// history entry was written: the progress cache is fully drained, the
	// main cache still holds the batch, and the ledger has no entry yet.
	if err := f.cache.Seed(testBatch("VTI", 25, "AAPL", 10, "BTC", 5)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.cache.PopNext(); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Nothing is re-submitted, not even a venue session.
	if len(f.venue.orders) != 0 || f.venue.logins != 0 {
		t.Errorf("re-submitted %d already-placed orders: %v", len(f.venue.orders), f.venue.orders)
	}
	if len(f.bank.deposits) != 0 {
		t.Errorf("re-funded a drained cycle: %v", f.bank.deposits)
	}

	// The cycle is recorded from the main snapshot, all orders joined as
	// prior-run amounts.
	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries()) != 1 {
		t.Fatalf("history entries = %d, want 1", len(h.Entries()))
	}
	orders := h.Entries()[0].Orders
	if len(orders) != 3 {
		t.Fatalf("entry orders = %d, want 3", len(orders))
	}
	for i, want := range []string{"VTI", "AAPL", "BTC"} {
		if orders[i].Symbol != want || orders[i].Status != "" {
			t.Errorf("order[%d] = %+v, want %s without status", i, orders[i], want)
		}
	}
	f.mustBeClean(t)

	// A second invocation the same day is now a plain no-op.
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.venue.orders) != 0 {
		t.Errorf("second run placed orders: %v", f.venue.orders)
	}
}

func TestRunRecordsRejectionAndContinues(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	f.venue.reject = map[string]string{"AAPL": "market closed"}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// The rejection does not stop the drain.
	if len(f.venue.orders) != 2 || f.venue.orders[1] != "BTC" {
		t.Fatalf("orders = %v, want [VTI BTC]", f.venue.orders)
	}
	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	orders := h.Entries()[0].Orders
	if orders[1].Symbol != "AAPL" || orders[1].Status != ExecRejected || orders[1].Reason != "market closed" {
		t.Errorf("rejected order = %+v", orders[1])
	}
	f.mustBeClean(t)
}

func TestRunFatalErrorLeavesResumableCache(t *testing.T) {
	f := newEngineFixture(t, aSunday)
	f.venue.buyErr = map[string]error{"AAPL": errors.New("connection reset")}

	if err := f.engine.Run(context.Background()); err == nil {
		t.Fatal("Run = nil, want a fatal error")
	}

	// VTI was placed; AAPL was popped before its attempt failed and is not
	// retried; BTC is still pending.
	if len(f.venue.orders) != 1 || f.venue.orders[0] != "VTI" {
		t.Fatalf("orders = %v, want [VTI]", f.venue.orders)
	}
	progress, err := f.cache.SnapshotProgress()
	if err != nil {
		t.Fatal(err)
	}
	if !progress.Equal(testBatch("BTC", 5)) {
		t.Errorf("progress = %v, want [BTC]", symbols(progress))
	}
	main, err := f.cache.SnapshotMain()
	if err != nil {
		t.Fatal(err)
	}
	if !main.Equal(testBatch("VTI", 25, "AAPL", 10, "BTC", 5)) {
		t.Errorf("main = %v, mutated mid-cycle", symbols(main))
	}
	h, err := f.hist.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries()) != 0 {
		t.Error("history written for an unfinished cycle")
	}
}

func TestStateReporting(t *testing.T) {
	f := newEngineFixture(t, aSunday)

	state, _, err := f.engine.State()
	if err != nil {
		t.Fatal(err)
	}
	if state != CycleNotStarted {
		t.Errorf("State() = %v, want not-started", state)
	}

	if err := f.cache.Seed(testBatch("VTI", 25)); err != nil {
		t.Fatal(err)
	}
	state, remaining, err := f.engine.State()
	if err != nil {
		t.Fatal(err)
	}
	if state != CycleInProgress || remaining.Len() != 1 {
		t.Errorf("State() = %v with %d pending, want in-progress with 1", state, remaining.Len())
	}

	if err := f.cache.Clear(); err != nil {
		t.Fatal(err)
	}
	f.engine.Now = func() Date { return aMonday }
	state, _, err = f.engine.State()
	if err != nil {
		t.Fatal(err)
	}
	if state != CycleNotDue {
		t.Errorf("State() = %v, want not-due", state)
	}
}
