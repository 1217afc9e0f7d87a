package autoinvest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Default buffers, in the venue account currency.
//
// The venue buffer is cash left untouched at the venue for fees and price
// drift; the bank buffer is the minimum balance the linked bank account must
// keep after a transfer.
var (
	DefaultVenueBuffer = USD(100)
	DefaultBankBuffer  = USD(500)
)

// InsufficientFundsError reports that the bank could not cover the required
// transfer without dipping below its buffer.
type InsufficientFundsError struct {
	Required  Money // transfer amount needed at the venue
	Available Money // bank balance minus the bank buffer
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s from bank, only %s available above buffer",
		e.Required, e.Available)
}

// FundingCoordinator decides whether the venue holds enough cash for a full
// weekly batch and, when it does not, tops it up from the linked bank.
type FundingCoordinator struct {
	Venue ExecutionVenue
	Bank  FundingSource

	// VenueBuffer and BankBuffer default to DefaultVenueBuffer and
	// DefaultBankBuffer when zero.
	VenueBuffer Money
	BankBuffer  Money

	Log *logrus.Entry
}

func (f *FundingCoordinator) venueBuffer() Money {
	if f.VenueBuffer.IsZero() {
		return DefaultVenueBuffer
	}
	return f.VenueBuffer
}

func (f *FundingCoordinator) bankBuffer() Money {
	if f.BankBuffer.IsZero() {
		return DefaultBankBuffer
	}
	return f.BankBuffer
}

// EnsureFunds guarantees the venue can absorb the full batch total before any
// order is placed.
//
// The shortfall is computed once, against the full total plus the venue
// buffer. When a transfer is needed the bank balance is checked against the
// bank buffer first; a bank that cannot cover it aborts the cycle with an
// *InsufficientFundsError and no transfer is attempted.
func (f *FundingCoordinator) EnsureFunds(ctx context.Context, total Money) error {
	power, err := f.Venue.BuyingPower(ctx)
	if err != nil {
		return fmt.Errorf("reading buying power: %w", err)
	}
	required := total.Add(f.venueBuffer())
	if power.GreaterThanOrEqual(required) {
		f.Log.WithFields(logrus.Fields{
			"buying_power": power.String(),
			"required":     required.String(),
		}).Info("venue already funded")
		return nil
	}

	shortfall := required.Sub(power)
	balance, err := f.Bank.AvailableBalance(ctx)
	if err != nil {
		return fmt.Errorf("reading bank balance: %w", err)
	}
	available := balance.Sub(f.bankBuffer())
	if available.LessThan(shortfall) {
		return &InsufficientFundsError{Required: shortfall, Available: available}
	}

	f.Log.WithFields(logrus.Fields{
		"buying_power": power.String(),
		"required":     required.String(),
		"transfer":     shortfall.String(),
	}).Info("transferring funds from bank")
	if err := f.Bank.Deposit(ctx, shortfall); err != nil {
		return fmt.Errorf("depositing %s: %w", shortfall, err)
	}
	return nil
}
