package cashshift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/pos-backoffice/internal/events"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

var (
	ErrShiftAlreadyOpen = errors.New("a cash shift is already open")
	ErrNoOpenShift      = errors.New("no open cash shift")
	ErrInvalidAmount    = errors.New("amount must be a non-negative number")
)

// differenceTolerance absorbs rounding noise; anything beyond it needs explicit
// operator acknowledgement before the close commits.
var differenceTolerance = decimal.NewFromFloat(0.01)

// OrderSource returns the orders attributed to a shift.
type OrderSource interface {
	ListByShift(ctx context.Context, shiftID int64) ([]order.Order, error)
}

type Service interface {
	Open(ctx context.Context, startAmount decimal.Decimal) (*CashShift, error)
	Current(ctx context.Context) (*CashShift, error)
	Close(ctx context.Context, endAmount decimal.Decimal, acknowledgeDifference bool) (*CloseResult, error)
}

type service struct {
	repo   Repository
	orders OrderSource
	bus    *events.Bus
}

func NewService(repo Repository, orders OrderSource, bus *events.Bus) Service {
	return &service{repo: repo, orders: orders, bus: bus}
}

func (s *service) Open(ctx context.Context, startAmount decimal.Decimal) (*CashShift, error) {
	if startAmount.IsNegative() {
		log.Warn().Str("start_amount", startAmount.String()).Msg("service: rejected negative start amount")
		return nil, ErrInvalidAmount
	}

	shift, err := s.repo.Create(ctx, startAmount, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrShiftAlreadyOpen) {
			log.Warn().Msg("service: attempt to open shift while one is already open")
			return nil, ErrShiftAlreadyOpen
		}
		log.Error().Err(err).Msg("service: failed to open shift in repository")
		return nil, fmt.Errorf("service: failed to open shift: %w", err)
	}

	log.Info().
		Int64("cash_shift_id", shift.ID).
		Str("start_amount", shift.StartAmount.StringFixed(2)).
		Msg("service: cash shift opened")

	return shift, nil
}

func (s *service) Current(ctx context.Context) (*CashShift, error) {
	shift, err := s.repo.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOpenShift) {
			return nil, ErrNoOpenShift
		}
		log.Error().Err(err).Msg("service: failed to fetch open shift")
		return nil, fmt.Errorf("service: failed to fetch open shift: %w", err)
	}
	return shift, nil
}

func (s *service) Close(ctx context.Context, endAmount decimal.Decimal, acknowledgeDifference bool) (*CloseResult, error) {
	if endAmount.IsNegative() {
		log.Warn().Str("end_amount", endAmount.String()).Msg("service: rejected negative end amount")
		return nil, ErrInvalidAmount
	}

	shift, err := s.repo.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOpenShift) {
			log.Warn().Msg("service: attempt to close shift while none is open")
			return nil, ErrNoOpenShift
		}
		log.Error().Err(err).Msg("service: failed to fetch open shift for close")
		return nil, fmt.Errorf("service: failed to fetch open shift: %w", err)
	}

	orders, err := s.orders.ListByShift(ctx, shift.ID)
	if err != nil {
		log.Error().Err(err).Int64("cash_shift_id", shift.ID).Msg("service: failed to fetch shift orders for reconciliation")
		return nil, fmt.Errorf("service: failed to fetch shift orders: %w", err)
	}

	summary := summarize(shift, orders, endAmount)

	if summary.Difference.Abs().GreaterThan(differenceTolerance) && !acknowledgeDifference {
		log.Warn().
			Int64("cash_shift_id", shift.ID).
			Str("expected_amount", summary.ExpectedAmount.StringFixed(2)).
			Str("end_amount", endAmount.StringFixed(2)).
			Str("difference", summary.Difference.StringFixed(2)).
			Msg("service: cash difference beyond tolerance, close not committed")
		return &CloseResult{Committed: false, Shift: shift, Summary: summary}, nil
	}

	endDate := time.Now().UTC()
	if err := s.repo.Close(ctx, shift.ID, endAmount, endDate); err != nil {
		log.Error().Err(err).Int64("cash_shift_id", shift.ID).Msg("service: failed to close shift in repository")
		return nil, fmt.Errorf("service: failed to close shift: %w", err)
	}

	shift.Status = StatusClosed
	shift.EndAmount = &endAmount
	shift.EndDate = &endDate

	if s.bus != nil {
		s.bus.Publish(ShiftClosed{
			Meta:    events.NewMeta(),
			ShiftID: shift.ID,
			Summary: summary,
		})
	}

	log.Info().
		Int64("cash_shift_id", shift.ID).
		Str("end_amount", endAmount.StringFixed(2)).
		Str("difference", summary.Difference.StringFixed(2)).
		Int("unpaid_orders", len(summary.UnpaidOrders)).
		Msg("service: cash shift closed")

	return &CloseResult{Committed: true, Shift: shift, Summary: summary}, nil
}

// countsAsSale reports whether a cash order's total is expected in the drawer.
// A cancelled order still counts when its payment was recorded: the money was
// collected even though fulfillment never happened.
func countsAsSale(o order.Order) bool {
	if o.PaymentMethod != order.MethodCash {
		return false
	}
	if o.OrderStatus == order.StatusCancelled && o.PaymentStatus != order.PaymentPaid {
		return false
	}
	return true
}

func summarize(shift *CashShift, orders []order.Order, endAmount decimal.Decimal) ReconciliationSummary {
	summary := ReconciliationSummary{
		ShiftID:      shift.ID,
		StartAmount:  shift.StartAmount,
		SalesAmount:  decimal.Zero,
		EndAmount:    endAmount,
		UnpaidOrders: make([]order.Order, 0),
		PaymentBreakdown: PaymentBreakdown{
			Cash:     decimal.Zero,
			Card:     decimal.Zero,
			Transfer: decimal.Zero,
		},
	}

	for _, o := range orders {
		switch o.PaymentMethod {
		case order.MethodCash:
			summary.PaymentBreakdown.Cash = summary.PaymentBreakdown.Cash.Add(o.Total)
		case order.MethodCard:
			summary.PaymentBreakdown.Card = summary.PaymentBreakdown.Card.Add(o.Total)
		case order.MethodTransfer:
			summary.PaymentBreakdown.Transfer = summary.PaymentBreakdown.Transfer.Add(o.Total)
		}

		if countsAsSale(o) {
			summary.SalesAmount = summary.SalesAmount.Add(o.Total)
		}

		if o.PaymentStatus != order.PaymentPaid && o.OrderStatus != order.StatusCancelled {
			summary.UnpaidOrders = append(summary.UnpaidOrders, o)
		}
	}

	summary.ExpectedAmount = shift.StartAmount.Add(summary.SalesAmount)
	summary.Difference = summary.ExpectedAmount.Sub(endAmount)

	return summary
}
