package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/pos-backoffice/internal/catalog"
	"github.com/vasiliy-maslov/pos-backoffice/internal/events"
)

var (
	ErrEmptyCart      = errors.New("order must contain at least one item")
	ErrInvalidItem    = errors.New("order item must reference exactly one product or combo and have quantity >= 1")
	ErrMissingAddress = errors.New("delivery order requires an address")
	ErrInvalidStatus  = errors.New("unrecognized order status")
	ErrInvalidField   = errors.New("invalid field value")
	ErrTerminalOrder  = errors.New("order is in a terminal status")
	ErrNoOpenShift    = errors.New("no open cash shift")
)

// StatusChanged is published after every successful order-status transition so
// the board can refresh the affected card.
type StatusChanged struct {
	events.Meta
	OrderID  int64  `json:"order_id"`
	Previous Status `json:"previous"`
	New      Status `json:"new"`
}

func (StatusChanged) Name() string { return "order.status_changed" }

// ShiftSource reports the id of the currently open cash shift. New orders are
// stamped with it; creation is refused when no shift is open.
type ShiftSource interface {
	CurrentShiftID(ctx context.Context) (int64, error)
}

type ItemInput struct {
	ProductID *int64 `json:"product_id,omitempty"`
	ComboID   *int64 `json:"combo_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	Items          []ItemInput    `json:"items"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	PaymentStatus  PaymentStatus  `json:"payment_status,omitempty"`
	CustomerID     *int64         `json:"customer_id,omitempty"`
	AddressID      *int64         `json:"address_id,omitempty"`
	ManualAddress  *string        `json:"manual_address,omitempty"`
	Note           *string        `json:"note,omitempty"`
}

// DetailsInput is a partial update: only non-nil fields change.
type DetailsInput struct {
	PaymentStatus  *PaymentStatus  `json:"payment_status,omitempty"`
	PaymentMethod  *PaymentMethod  `json:"payment_method,omitempty"`
	DeliveryMethod *DeliveryMethod `json:"delivery_method,omitempty"`
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*Order, error)
	ChangeStatus(ctx context.Context, orderID int64, newStatus Status) (*Order, error)
	UpdateDetails(ctx context.Context, orderID int64, input DetailsInput) (*Order, error)
	Cancel(ctx context.Context, orderID int64) (*Order, error)
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByShift(ctx context.Context, shiftID int64) ([]Order, error)
}

type service struct {
	repo   Repository
	prices catalog.PriceSource
	shifts ShiftSource
	bus    *events.Bus
}

func NewService(repo Repository, prices catalog.PriceSource, shifts ShiftSource, bus *events.Bus) Service {
	return &service{repo: repo, prices: prices, shifts: shifts, bus: bus}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrEmptyCart
	}

	if !input.DeliveryMethod.Valid() {
		return nil, fmt.Errorf("%w: delivery method %q", ErrInvalidField, input.DeliveryMethod)
	}
	if !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: payment method %q", ErrInvalidField, input.PaymentMethod)
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}
	if !paymentStatus.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", ErrInvalidField, paymentStatus)
	}

	if input.AddressID != nil && input.ManualAddress != nil {
		return nil, fmt.Errorf("%w: at most one of address_id and manual_address may be set", ErrInvalidField)
	}
	if input.DeliveryMethod == DeliveryDelivery && input.AddressID == nil && (input.ManualAddress == nil || *input.ManualAddress == "") {
		log.Warn().Msg("service: delivery order without address")
		return nil, ErrMissingAddress
	}

	shiftID, err := s.shifts.CurrentShiftID(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOpenShift) {
			log.Warn().Msg("service: attempt to create order with no open shift")
			return nil, ErrNoOpenShift
		}
		log.Error().Err(err).Msg("service: failed to resolve current shift")
		return nil, fmt.Errorf("service: failed to resolve current shift: %w", err)
	}

	items, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	ord := &Order{
		CustomerID:     input.CustomerID,
		OrderStatus:    StatusPending,
		PaymentStatus:  paymentStatus,
		PaymentMethod:  input.PaymentMethod,
		DeliveryMethod: input.DeliveryMethod,
		AddressID:      input.AddressID,
		ManualAddress:  input.ManualAddress,
		Note:           input.Note,
		Items:          items,
		Total:          SumItems(items),
		CashShiftID:    shiftID,
	}

	if _, err := s.repo.Create(ctx, ord); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Int64("order_id", ord.ID).
		Int64("cash_shift_id", ord.CashShiftID).
		Str("total", ord.Total.StringFixed(2)).
		Msg("service: order created")

	return ord, nil
}

// priceItems resolves each line against the catalog so totals are computed from
// authoritative current prices rather than trusted from the caller's cart.
func (s *service) priceItems(ctx context.Context, inputs []ItemInput) ([]Item, error) {
	items := make([]Item, 0, len(inputs))

	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d", ErrInvalidItem, in.Quantity)
		}
		if (in.ProductID == nil) == (in.ComboID == nil) {
			return nil, ErrInvalidItem
		}

		var (
			entry *catalog.Item
			err   error
		)
		if in.ProductID != nil {
			entry, err = s.prices.Product(ctx, *in.ProductID)
		} else {
			entry, err = s.prices.Combo(ctx, *in.ComboID)
		}
		if err != nil {
			log.Warn().Err(err).Msg("service: catalog lookup failed for order item")
			return nil, fmt.Errorf("service: catalog lookup failed: %w", err)
		}
		if !entry.Active {
			return nil, fmt.Errorf("service: %w", catalog.ErrItemInactive)
		}

		items = append(items, Item{
			ProductID: in.ProductID,
			ComboID:   in.ComboID,
			Name:      entry.Name,
			Quantity:  in.Quantity,
			UnitPrice: entry.Price,
			Subtotal:  entry.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		})
	}

	return items, nil
}

func (s *service) ChangeStatus(ctx context.Context, orderID int64, newStatus Status) (*Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", orderID).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	// Terminal orders cannot be moved at all, not even to their current status.
	if current.OrderStatus.Terminal() {
		log.Warn().
			Int64("order_id", orderID).
			Stringer("current_status", current.OrderStatus).
			Stringer("new_status", newStatus).
			Msg("service: status change rejected on terminal order")
		return nil, fmt.Errorf("%w: %s", ErrTerminalOrder, current.OrderStatus)
	}

	if current.OrderStatus == newStatus {
		log.Info().Int64("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return current, nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	previous := current.OrderStatus
	current.OrderStatus = newStatus

	if s.bus != nil {
		s.bus.Publish(StatusChanged{
			Meta:     events.NewMeta(),
			OrderID:  orderID,
			Previous: previous,
			New:      newStatus,
		})
	}

	log.Info().
		Int64("order_id", orderID).
		Stringer("old_status", previous).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	return current, nil
}

func (s *service) UpdateDetails(ctx context.Context, orderID int64, input DetailsInput) (*Order, error) {
	if input.PaymentStatus != nil && !input.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", ErrInvalidField, *input.PaymentStatus)
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: payment method %q", ErrInvalidField, *input.PaymentMethod)
	}
	if input.DeliveryMethod != nil && !input.DeliveryMethod.Valid() {
		return nil, fmt.Errorf("%w: delivery method %q", ErrInvalidField, *input.DeliveryMethod)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to get order for details update")
		return nil, fmt.Errorf("service: failed to get order for details update: %w", err)
	}

	if input.PaymentStatus != nil {
		current.PaymentStatus = *input.PaymentStatus
	}
	if input.PaymentMethod != nil {
		current.PaymentMethod = *input.PaymentMethod
	}
	if input.DeliveryMethod != nil {
		current.DeliveryMethod = *input.DeliveryMethod
	}

	if err := s.repo.UpdateDetails(ctx, orderID, input); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to update order details in repository")
		return nil, fmt.Errorf("service: failed to update order details: %w", err)
	}

	log.Info().Int64("order_id", orderID).Msg("service: order details updated")

	return current, nil
}

func (s *service) Cancel(ctx context.Context, orderID int64) (*Order, error) {
	return s.ChangeStatus(ctx, orderID, StatusCancelled)
}

func (s *service) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return ord, nil
}

func (s *service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch orders")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListByShift(ctx context.Context, shiftID int64) ([]Order, error) {
	orders, err := s.repo.ListByShift(ctx, shiftID)
	if err != nil {
		log.Error().Err(err).Int64("cash_shift_id", shiftID).Msg("service: failed to fetch shift orders")
		return nil, fmt.Errorf("service: failed to fetch shift orders: %w", err)
	}
	return orders, nil
}
