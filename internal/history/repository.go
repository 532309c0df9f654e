package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/pesansayur/storefront/internal/domain"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("order not in history")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository is the per-session order archive. Entries are full order
// snapshots; the most recently saved comes first.
type Repository struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewRepository(driver, dsn string) (*Repository, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// one connection keeps :memory: databases alive and serialises writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}
	return &Repository{db: db, driver: driver, now: time.Now}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{MigrationsTable: "history_schema_migrations"})
	default:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), r.driver, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Add stores order, replacing any entry with the same id and moving it to the
// front.
func (r *Repository) Add(ctx context.Context, sessionID string, order domain.Order) error {
	snapshot, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	query := `INSERT INTO order_history (session_id, order_id, snapshot, position, saved_at)
	          VALUES ($1, $2, $3,
	                  (SELECT COALESCE(MAX(position), 0) + 1 FROM order_history WHERE session_id = $1),
	                  $4)
	          ON CONFLICT (session_id, order_id) DO UPDATE
	          SET snapshot = excluded.snapshot, position = excluded.position, saved_at = excluded.saved_at`

	if _, err := r.db.ExecContext(ctx, query, sessionID, order.ID, string(snapshot), r.now().UTC()); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, sessionID, orderID string) (domain.Order, error) {
	query := `SELECT snapshot FROM order_history WHERE session_id = $1 AND order_id = $2`

	var snapshot []byte
	err := r.db.QueryRowContext(ctx, query, sessionID, orderID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query history entry: %w", err)
	}
	return decode(snapshot)
}

// List returns the archive, most recent first.
func (r *Repository) List(ctx context.Context, sessionID string) ([]domain.Order, error) {
	query := `SELECT snapshot FROM order_history WHERE session_id = $1 ORDER BY position DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var snapshot []byte
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		o, err := decode(snapshot)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// Last returns the most recently saved order.
func (r *Repository) Last(ctx context.Context, sessionID string) (domain.Order, error) {
	query := `SELECT snapshot FROM order_history WHERE session_id = $1 ORDER BY position DESC LIMIT 1`

	var snapshot []byte
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query last history entry: %w", err)
	}
	return decode(snapshot)
}

func (r *Repository) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func decode(snapshot []byte) (domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(snapshot, &o); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal history entry: %w", err)
	}
	return o, nil
}
