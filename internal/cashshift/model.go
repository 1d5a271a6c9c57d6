package cashshift

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/pos-backoffice/internal/events"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

func (s Status) String() string {
	return string(s)
}

// CashShift is one drawer session. It opens once, closes once, and is never
// reopened or deleted. EndAmount and EndDate stay nil while the shift is open.
type CashShift struct {
	ID          int64            `json:"id"`
	Status      Status           `json:"status"`
	StartAmount decimal.Decimal  `json:"start_amount"`
	EndAmount   *decimal.Decimal `json:"end_amount,omitempty"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
}

// PaymentBreakdown sums order totals per payment method across the whole shift,
// regardless of fulfillment status.
type PaymentBreakdown struct {
	Cash     decimal.Decimal `json:"CASH"`
	Card     decimal.Decimal `json:"CARD"`
	Transfer decimal.Decimal `json:"TRANSFER"`
}

// ReconciliationSummary compares expected against declared cash at close time.
// Difference = ExpectedAmount - EndAmount; a difference beyond the tolerance is
// a warning requiring operator acknowledgement, not an error.
type ReconciliationSummary struct {
	ShiftID          int64            `json:"shift_id"`
	StartAmount      decimal.Decimal  `json:"start_amount"`
	SalesAmount      decimal.Decimal  `json:"sales_amount"`
	ExpectedAmount   decimal.Decimal  `json:"expected_amount"`
	EndAmount        decimal.Decimal  `json:"end_amount"`
	Difference       decimal.Decimal  `json:"difference"`
	PaymentBreakdown PaymentBreakdown `json:"payment_breakdown"`
	UnpaidOrders     []order.Order    `json:"unpaid_orders"`
}

// CloseResult reports whether the close was committed. When Committed is false
// the shift is still open and the summary is a proposal awaiting
// acknowledgement.
type CloseResult struct {
	Committed bool                  `json:"committed"`
	Shift     *CashShift            `json:"shift"`
	Summary   ReconciliationSummary `json:"summary"`
}

// ShiftClosed is published once a close commits.
type ShiftClosed struct {
	events.Meta
	ShiftID int64                 `json:"shift_id"`
	Summary ReconciliationSummary `json:"summary"`
}

func (ShiftClosed) Name() string { return "cashshift.closed" }
