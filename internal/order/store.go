package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Item is a purchased order line. Free lines keep UnitPrice zero; the
// voucher columns on the order carry the accounting.
type Item struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Free      bool   `json:"free,omitempty"`
}

// Order is the persisted checkout result.
type Order struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	Currency     string    `json:"currency"`
	Subtotal     int64     `json:"subtotal"`
	Discount     int64     `json:"discount"`
	Tax          int64     `json:"tax"`
	Shipping     int64     `json:"shipping"`
	Total        int64     `json:"total"`
	VoucherCode  string    `json:"voucherCode,omitempty"`
	VoucherKind  string    `json:"voucherKind,omitempty"`
	Items        []Item    `json:"items"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store runs order queries against Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Create inserts the order and its items in one transaction and returns
// the generated id.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order: store not configured")
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (
			email, name, address_line1, address_line2, city, postal_code, country,
			currency, subtotal, discount, tax, shipping, total, voucher_code, voucher_kind
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at`,
		o.Email, o.Name, o.AddressLine1, o.AddressLine2, o.City, o.PostalCode, o.Country,
		o.Currency, o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total, o.VoucherCode, o.VoucherKind)
	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	for _, item := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, title, unit_price, quantity, free)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, item.ProductID, item.Title, item.UnitPrice, item.Quantity, item.Free)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// Get loads an order with its items.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order: store not configured")
	}
	var o Order
	row := s.Pool.QueryRow(ctx, `
		SELECT id, email, name, address_line1, address_line2, city, postal_code, country,
			currency, subtotal, discount, tax, shipping, total,
			COALESCE(voucher_code, ''), COALESCE(voucher_kind, ''), created_at
		FROM orders WHERE id = $1`, id)
	err := row.Scan(&o.ID, &o.Email, &o.Name, &o.AddressLine1, &o.AddressLine2, &o.City,
		&o.PostalCode, &o.Country, &o.Currency, &o.Subtotal, &o.Discount, &o.Tax,
		&o.Shipping, &o.Total, &o.VoucherCode, &o.VoucherKind, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, title, unit_price, quantity, free
		FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Title, &item.UnitPrice, &item.Quantity, &item.Free); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}
