package autoinvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultOrderDelay is the pause between consecutive buy orders, keeping the
// venue's rate limiter happy.
const DefaultOrderDelay = 7500 * time.Millisecond

// CycleState describes where the weekly cycle stands for a given date.
type CycleState string

const (
	// CycleNotDue: today is not the scheduled day, or the cycle already
	// completed today.
	CycleNotDue CycleState = "not-due"
	// CycleNotStarted: the cycle is due and no orders have been placed yet.
	CycleNotStarted CycleState = "not-started"
	// CycleInProgress: a previous invocation seeded the cycle and stopped
	// before finalizing; some orders may already be placed.
	CycleInProgress CycleState = "in-progress"
)

// OrderFlowEngine drives one weekly investment cycle from spreadsheet targets
// to the history log.
//
// The engine is crash resumable: every order is popped from the durable
// progress cache before it is sent, so an interruption at any point never
// places the same order twice. A later invocation picks the cycle back up
// from the cache and finishes it.
type OrderFlowEngine struct {
	Sheet   SpreadsheetSource
	Venue   ExecutionVenue
	Funding *FundingCoordinator
	Cache   *OrderCache
	History *HistoryFile

	// Delay between consecutive orders; DefaultOrderDelay when zero.
	Delay time.Duration

	// Now is the clock, injectable for tests. Defaults to Today.
	Now func() Date

	Log *logrus.Entry
}

func (e *OrderFlowEngine) now() Date {
	if e.Now == nil {
		return Today()
	}
	return e.Now()
}

func (e *OrderFlowEngine) delay() time.Duration {
	if e.Delay == 0 {
		return DefaultOrderDelay
	}
	return e.Delay
}

// State reports the cycle state for today, plus the remaining worklist when a
// cycle is in progress.
func (e *OrderFlowEngine) State() (CycleState, *Batch, error) {
	remaining, err := e.Cache.SnapshotProgress()
	if err != nil {
		return "", nil, err
	}
	if !remaining.IsEmpty() {
		return CycleInProgress, remaining, nil
	}
	today := e.now()
	done, err := e.History.HasEntryOn(today)
	if err != nil {
		return "", nil, err
	}
	if done || today.Weekday() != time.Sunday {
		return CycleNotDue, nil, nil
	}
	return CycleNotStarted, nil, nil
}

// Run executes one invocation of the weekly cycle.
//
// A date already recorded in the history is a strict no-op, whatever the
// caches hold. Otherwise an interrupted cycle is resumed: the remaining
// orders are drained and the cycle finalized. With no cycle in flight, a new
// one starts only on the scheduled day.
func (e *OrderFlowEngine) Run(ctx context.Context) error {
	today := e.now()
	done, err := e.History.HasEntryOn(today)
	if err != nil {
		return err
	}
	if done {
		e.Log.WithField("date", today.History()).Info("cycle already recorded today")
		return nil
	}

	fresh, err := e.Cache.IsEmpty()
	if err != nil {
		return err
	}
	if fresh {
		// An empty progress cache with a non-empty main cache is a cycle
		// whose last order was placed but whose entry was never written.
		// Restarting would re-submit the whole batch, so finalize from the
		// main snapshot instead.
		main, err := e.Cache.SnapshotMain()
		if err != nil {
			return err
		}
		if !main.IsEmpty() {
			e.Log.Info("finalizing interrupted cycle")
			return e.finalize(nil)
		}
		return e.start(ctx, today)
	}

	e.Log.Info("resuming interrupted cycle")
	if err := e.Venue.Login(ctx); err != nil {
		return fmt.Errorf("venue login: %w", err)
	}
	defer e.logout(ctx)
	return e.drain(ctx)
}

// start runs a fresh cycle: fetch targets, secure funding, seed the caches,
// then drain. Funding comes before seeding, so a cached cycle always has its
// funds already at the venue.
func (e *OrderFlowEngine) start(ctx context.Context, today Date) error {
	if today.Weekday() != time.Sunday {
		e.Log.Info("no cycle due today")
		return nil
	}

	batch, err := e.Sheet.AllRecurringInvestments(ctx)
	if err != nil {
		return fmt.Errorf("fetching targets: %w", err)
	}
	if batch.IsEmpty() {
		e.Log.Info("no investment targets this week")
		return nil
	}
	total := batch.Total()
	e.Log.WithFields(logrus.Fields{
		"orders": batch.Len(),
		"total":  total.String(),
	}).Info("starting weekly cycle")

	if err := e.Venue.Login(ctx); err != nil {
		return fmt.Errorf("venue login: %w", err)
	}
	defer e.logout(ctx)

	if err := e.Funding.EnsureFunds(ctx, total); err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			// Nothing was seeded yet; reset the caches so a later
			// invocation today retries from scratch.
			if clearErr := e.Cache.Clear(); clearErr != nil {
				return fmt.Errorf("aborting cycle: %w (cache reset failed: %v)", err, clearErr)
			}
			e.Log.WithError(err).Warn("cycle aborted, venue left unfunded")
		}
		return err
	}

	if err := e.Cache.Seed(batch); err != nil {
		return fmt.Errorf("seeding order cache: %w", err)
	}
	return e.drain(ctx)
}

// drain pops and executes orders one by one until the progress cache is
// empty, then finalizes the cycle.
//
// A venue rejection is recorded and the drain moves on to the next order; a
// transport or session error is fatal for the invocation, and the cycle
// resumes from the cache next time.
func (e *OrderFlowEngine) drain(ctx context.Context) error {
	var results []Execution
	first := true
	for {
		empty, err := e.Cache.IsEmpty()
		if err != nil {
			return err
		}
		if empty {
			break
		}
		if !first {
			if err := sleep(ctx, e.delay()); err != nil {
				return err
			}
		}
		first = false

		line, err := e.Cache.PopNext()
		if err != nil {
			return err
		}
		exec, err := e.Venue.BuyFractional(ctx, line.Symbol, line.Amount)
		if err != nil {
			return fmt.Errorf("buying %s of %s: %w", line.Amount, line.Symbol, err)
		}
		log := e.Log.WithFields(logrus.Fields{
			"symbol": exec.Symbol,
			"amount": exec.Amount.String(),
		})
		switch exec.Status {
		case ExecFilled:
			log.WithField("order_id", exec.OrderID).Info("order placed")
		case ExecRejected:
			log.WithField("reason", exec.Reason).Warn("order rejected by venue")
		}
		results = append(results, exec)
	}
	return e.finalize(results)
}

// finalize joins this invocation's executions with the cycle's original
// batch, appends the history entry, and clears the caches. The entry is
// written before the caches are cleared, so an interruption in between
// leaves a duplicate-date guard rather than a lost cycle.
func (e *OrderFlowEngine) finalize(results []Execution) error {
	main, err := e.Cache.SnapshotMain()
	if err != nil {
		return err
	}
	bySymbol := make(map[string]Execution, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	entry := Entry{RecurringType: RecurringWeekly, Date: e.now()}
	for _, l := range main.Lines() {
		record := OrderRecord{Symbol: l.Symbol, Amount: l.Amount}
		if exec, ok := bySymbol[l.Symbol]; ok {
			record.Status = exec.Status
			record.OrderID = exec.OrderID
			record.Reason = exec.Reason
		}
		entry.Orders = append(entry.Orders, record)
	}

	if err := e.History.Append(entry); err != nil {
		return fmt.Errorf("recording cycle: %w", err)
	}
	if err := e.Cache.Clear(); err != nil {
		return fmt.Errorf("clearing order cache: %w", err)
	}
	e.Log.WithFields(logrus.Fields{
		"date":   entry.Date.History(),
		"orders": len(entry.Orders),
	}).Info("cycle complete")
	return nil
}

func (e *OrderFlowEngine) logout(ctx context.Context) {
	if err := e.Venue.Logout(ctx); err != nil {
		e.Log.WithError(err).Warn("venue logout failed")
	}
}

// sleep waits for the given duration, cancellable through the context.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
