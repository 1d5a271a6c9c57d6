package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrComboNotFound   = errors.New("combo not found")
	ErrItemInactive    = errors.New("catalog item is inactive")
)

// Item is the current catalog state of a product or combo. Price is the
// authoritative unit price at lookup time; orders snapshot it at creation.
type Item struct {
	Name   string
	Price  decimal.Decimal
	Active bool
}

// PriceSource resolves current prices for products and combos.
type PriceSource interface {
	Product(ctx context.Context, id int64) (*Item, error)
	Combo(ctx context.Context, id int64) (*Item, error)
}

type postgresPriceSource struct {
	db *pgxpool.Pool
}

func NewPriceSource(db *pgxpool.Pool) PriceSource {
	return &postgresPriceSource{db: db}
}

func (s *postgresPriceSource) Product(ctx context.Context, id int64) (*Item, error) {
	return s.lookup(ctx, "products", id, ErrProductNotFound)
}

func (s *postgresPriceSource) Combo(ctx context.Context, id int64) (*Item, error) {
	return s.lookup(ctx, "combos", id, ErrComboNotFound)
}

func (s *postgresPriceSource) lookup(ctx context.Context, table string, id int64, notFound error) (*Item, error) {
	query := fmt.Sprintf(`SELECT name, price, active FROM %s WHERE id = $1`, table)

	var item Item
	err := s.db.QueryRow(ctx, query, id).Scan(&item.Name, &item.Price, &item.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("catalog: failed to select from %s by id %d: %w", table, id, err)
	}

	return &item, nil
}
