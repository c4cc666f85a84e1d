package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs banknote queries against Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const banknoteColumns = "id, slug, title, description, price, currency, image_url, country, year, in_stock, created_at"

func (s *Store) Count(ctx context.Context, params ListParams) (int64, error) {
	where, args := buildFilter(params)
	var total int64
	err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM banknotes"+where, args...).Scan(&total)
	return total, err
}

func (s *Store) List(ctx context.Context, params ListParams) ([]Banknote, error) {
	where, args := buildFilter(params)
	query := "SELECT " + banknoteColumns + " FROM banknotes" + where + orderClause(params.Sort)
	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	args = append(args, params.Limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanknotes(rows)
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (Banknote, error) {
	row := s.Pool.QueryRow(ctx, "SELECT "+banknoteColumns+" FROM banknotes WHERE slug = $1", slug)
	note, err := scanBanknote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Banknote{}, ErrNotFound
	}
	return note, err
}

func (s *Store) GetByID(ctx context.Context, id string) (Banknote, error) {
	row := s.Pool.QueryRow(ctx, "SELECT "+banknoteColumns+" FROM banknotes WHERE id = $1", id)
	note, err := scanBanknote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Banknote{}, ErrNotFound
	}
	return note, err
}

func (s *Store) All(ctx context.Context) ([]Banknote, error) {
	rows, err := s.Pool.Query(ctx, "SELECT "+banknoteColumns+" FROM banknotes WHERE in_stock ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanknotes(rows)
}

func buildFilter(params ListParams) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR country ILIKE $%d)", n, n))
	}
	if params.MinPrice != nil {
		args = append(args, *params.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if params.MaxPrice != nil {
		args = append(args, *params.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case "price_asc":
		return " ORDER BY price, id"
	case "price_desc":
		return " ORDER BY price DESC, id"
	case "newest":
		return " ORDER BY created_at DESC, id"
	default:
		return " ORDER BY title, id"
	}
}

func scanBanknotes(rows pgx.Rows) ([]Banknote, error) {
	notes := make([]Banknote, 0, 8)
	for rows.Next() {
		note, err := scanBanknote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func scanBanknote(row pgx.Row) (Banknote, error) {
	var n Banknote
	err := row.Scan(&n.ID, &n.Slug, &n.Title, &n.Description, &n.Price, &n.Currency,
		&n.ImageURL, &n.Country, &n.Year, &n.InStock, &n.CreatedAt)
	return n, err
}
