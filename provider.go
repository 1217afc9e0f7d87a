package autoinvest

import "context"

// This file defines the capabilities the order-flow engine consumes. Every
// external call is a capability with a success/failure contract; concrete
// HTTP clients live in sheets.go, bank.go and broker.go, and tests substitute
// in-memory fakes.

// SpreadsheetSource supplies the target investment amounts for the week.
type SpreadsheetSource interface {
	// AllRecurringInvestments returns the weekly targets, in spreadsheet
	// order. The batch is fetched fresh each cycle and immutable once
	// fetched.
	AllRecurringInvestments(ctx context.Context) (*Batch, error)

	// TotalRecurringInvestmentsValue returns the grand total of all weekly
	// targets, as maintained by the spreadsheet itself.
	TotalRecurringInvestmentsValue(ctx context.Context) (Money, error)
}

// FundingSource reports the bank balance and accepts a transfer request
// toward the execution venue.
type FundingSource interface {
	AvailableBalance(ctx context.Context) (Money, error)

	// Deposit moves the given amount from the bank to the venue. Success or
	// failure is trusted as reported; there is no local retry.
	Deposit(ctx context.Context, amount Money) error
}

// ExecutionVenue is the brokerage account orders are placed against.
type ExecutionVenue interface {
	// Login opens the session; Logout closes it. All other calls require an
	// open session.
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	BuyingPower(ctx context.Context) (Money, error)

	// BuyFractional places a single market buy for a dollar amount of the
	// symbol. A venue rejection is not an error: it is reported in the
	// returned Execution. An error means the attempt itself failed
	// (transport, auth) and the engine treats it as fatal for the
	// invocation.
	BuyFractional(ctx context.Context, symbol string, amount Money) (Execution, error)

	// Positions returns a snapshot of all open positions and their total
	// equity value.
	Positions(ctx context.Context) (PositionSummary, error)
}

// ExecStatus is the outcome of one order execution attempt.
type ExecStatus string

const (
	ExecFilled   ExecStatus = "filled"
	ExecRejected ExecStatus = "rejected"
)

// Execution is the venue's answer to one buy order.
type Execution struct {
	Symbol  string
	Amount  Money
	Status  ExecStatus
	OrderID string // venue order identifier, when filled
	Reason  string // venue explanation, when rejected
}

// Position is one open holding at the venue.
type Position struct {
	Symbol   string
	Quantity Quantity
	Price    Money // latest quote used for valuation
	Equity   Money // Quantity * Price
}

// PositionSummary is a snapshot of all open positions.
type PositionSummary struct {
	TotalEquity Money
	Positions   []Position
}
