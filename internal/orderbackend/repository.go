package orderbackend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/recovery"
)

const DefaultStatus = "Baru"

// Record is a stored order with its fulfilment status.
type Record struct {
	Order  domain.Order
	Status string
}

type Store interface {
	CreateOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, id string) (Record, error)
	SearchByPhone(ctx context.Context, phone string) ([]Record, error)
	IncrementCoupon(ctx context.Context, code string) error
	CouponUsage(ctx context.Context) (map[string]int64, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orderbackend_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// CreateOrder inserts o once. A second insert of the same id returns
// ErrDuplicateOrder and leaves the stored row alone.
func (r *Repository) CreateOrder(ctx context.Context, o domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO orders (id, created_at, customer_name, phone, phone_national, address, items,
	                              subtotal, shipping, discount, coupon, total, schedule, payment, note, map_link, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, insertErr := r.db.ExecContext(ctx, query,
		o.ID,
		createdAt.UTC(),
		o.CustomerName,
		o.Phone,
		NationalNumber(o.Phone),
		o.Address,
		itemsJSON,
		o.Subtotal,
		o.ShippingCost,
		o.Discount,
		o.CouponCode,
		o.Total,
		o.Schedule,
		o.PaymentMethod,
		o.Note,
		o.MapLink,
		DefaultStatus)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

const selectOrder = `SELECT id, created_at, customer_name, phone, address, items, subtotal, shipping,
                            discount, coupon, total, schedule, payment, note, map_link, status
                     FROM orders`

func (r *Repository) GetOrder(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrOrderNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query order by id: %w", err)
	}
	return rec, nil
}

// SearchByPhone matches on the national part of the number, so 0812…, 62812…
// and +62 812… find the same orders. Most recent first.
func (r *Repository) SearchByPhone(ctx context.Context, phone string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		selectOrder+` WHERE phone_national = $1 ORDER BY created_at DESC`, NationalNumber(phone))
	if err != nil {
		return nil, fmt.Errorf("query orders by phone: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func (r *Repository) IncrementCoupon(ctx context.Context, code string) error {
	query := `INSERT INTO coupon_usage (code, used, updated_at) VALUES ($1, 1, NOW())
	          ON CONFLICT (code) DO UPDATE SET used = coupon_usage.used + 1, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, normalizeCode(code)); err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}

func (r *Repository) CouponUsage(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, used FROM coupon_usage`)
	if err != nil {
		return nil, fmt.Errorf("query coupon usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int64)
	for rows.Next() {
		var (
			code string
			used int64
		)
		if err := rows.Scan(&code, &used); err != nil {
			return nil, fmt.Errorf("scan coupon usage: %w", err)
		}
		usage[code] = used
	}
	return usage, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec       Record
		itemsJSON []byte
	)
	o := &rec.Order
	if err := s.Scan(
		&o.ID,
		&o.CreatedAt,
		&o.CustomerName,
		&o.Phone,
		&o.Address,
		&itemsJSON,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Discount,
		&o.CouponCode,
		&o.Total,
		&o.Schedule,
		&o.PaymentMethod,
		&o.Note,
		&o.MapLink,
		&rec.Status,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return Record{}, fmt.Errorf("unmarshal order items: %w", err)
	}
	return rec, nil
}

// NationalNumber strips formatting and the 0 or 62 prefix from an Indonesian
// phone number.
func NationalNumber(phone string) string {
	n := recovery.Digits(phone)
	switch {
	case strings.HasPrefix(n, "62"):
		return n[2:]
	case strings.HasPrefix(n, "0"):
		return n[1:]
	}
	return n
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
