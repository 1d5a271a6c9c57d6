package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, ord *Order) (int64, error)
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus Status) error
	UpdateDetails(ctx context.Context, orderID int64, input DetailsInput) error
	ListAll(ctx context.Context) ([]Order, error)
	ListByShift(ctx context.Context, shiftID int64) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, ord *Order) (orderID int64, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback order creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	ord.CreatedAt = now
	ord.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (customer_id, customer_name, order_status, payment_status, payment_method,
			delivery_method, address_id, manual_address, note, total, cash_shift_id, created_at, updated_at)
		VALUES ($1, (SELECT name FROM customers WHERE id = $1), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, customer_name
	`
	err = tx.QueryRow(ctx, queryOrder,
		ord.CustomerID,
		string(ord.OrderStatus),
		string(ord.PaymentStatus),
		string(ord.PaymentMethod),
		string(ord.DeliveryMethod),
		ord.AddressID,
		ord.ManualAddress,
		ord.Note,
		ord.Total,
		ord.CashShiftID,
		ord.CreatedAt,
		ord.UpdatedAt,
	).Scan(&ord.ID, &ord.CustomerName)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, product_id, combo_id, name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for i := range ord.Items {
		item := &ord.Items[i]
		item.OrderID = ord.ID

		err = tx.QueryRow(ctx, queryItem,
			item.OrderID,
			item.ProductID,
			item.ComboID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return 0, fmt.Errorf("repository: failed to insert order item for order %d: %w", ord.ID, err)
		}
	}

	return ord.ID, nil
}

const orderColumns = `id, customer_id, customer_name, order_status, payment_status, payment_method,
	delivery_method, address_id, manual_address, note, total, cash_shift_id, created_at, updated_at`

func scanOrder(row pgx.Row, ord *Order) error {
	return row.Scan(
		&ord.ID,
		&ord.CustomerID,
		&ord.CustomerName,
		&ord.OrderStatus,
		&ord.PaymentStatus,
		&ord.PaymentMethod,
		&ord.DeliveryMethod,
		&ord.AddressID,
		&ord.ManualAddress,
		&ord.Note,
		&ord.Total,
		&ord.CashShiftID,
		&ord.CreatedAt,
		&ord.UpdatedAt,
	)
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var ord Order
	if err := scanOrder(r.db.QueryRow(ctx, query, orderID), &ord); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", orderID, err)
	}

	items, err := r.loadItems(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	ord.Items = items[orderID]
	if ord.Items == nil {
		ord.Items = make([]Item, 0)
	}

	return &ord, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID int64, newStatus Status) error {
	query := `UPDATE orders SET order_status = $1, updated_at = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status for %d: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) UpdateDetails(ctx context.Context, orderID int64, input DetailsInput) error {
	query := `
		UPDATE orders
		SET payment_status = COALESCE($1, payment_status),
			payment_method = COALESCE($2, payment_method),
			delivery_method = COALESCE($3, delivery_method),
			updated_at = $4
		WHERE id = $5
	`

	cmdTag, err := r.db.Exec(ctx, query,
		enumPtr(input.PaymentStatus),
		enumPtr(input.PaymentMethod),
		enumPtr(input.DeliveryMethod),
		time.Now().UTC(),
		orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order details for %d: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func enumPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *postgresRepository) ListByShift(ctx context.Context, shiftID int64) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE cash_shift_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, shiftID)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []int64

	for rows.Next() {
		var ord Order
		if err := scanOrder(rows, &ord); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ord.Items = make([]Item, 0)
		orders = append(orders, ord)
		orderIDs = append(orderIDs, ord.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}

	return orders, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	query := `
		SELECT id, order_id, product_id, combo_id, name, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]Item)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ComboID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return itemsByOrder, nil
}
