package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/shibukawa/snapgram/value"
)

// TableName is the table identifiers are persisted in.
const TableName = "snapgram_identifiers"

// dialect holds the statements that differ between databases.
type dialect struct {
	create string
	upsert string
	get    string
	names  string
}

var dialects = map[string]dialect{
	"sqlite3": {
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (name TEXT PRIMARY KEY, kind TEXT NOT NULL, content TEXT NOT NULL)`,
		upsert: `INSERT INTO ` + TableName + ` (name, kind, content) VALUES (?, ?, ?) ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, content = excluded.content`,
		get:    `SELECT kind, content FROM ` + TableName + ` WHERE name = ?`,
		names:  `SELECT name FROM ` + TableName + ` ORDER BY name`,
	},
	"mysql": {
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (name VARCHAR(255) PRIMARY KEY, kind VARCHAR(16) NOT NULL, content TEXT NOT NULL)`,
		upsert: `INSERT INTO ` + TableName + ` (name, kind, content) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE kind = VALUES(kind), content = VALUES(content)`,
		get:    `SELECT kind, content FROM ` + TableName + ` WHERE name = ?`,
		names:  `SELECT name FROM ` + TableName + ` ORDER BY name`,
	},
	"pgx": {
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (name TEXT PRIMARY KEY, kind TEXT NOT NULL, content TEXT NOT NULL)`,
		upsert: `INSERT INTO ` + TableName + ` (name, kind, content) VALUES ($1, $2, $3) ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, content = EXCLUDED.content`,
		get:    `SELECT kind, content FROM ` + TableName + ` WHERE name = $1`,
		names:  `SELECT name FROM ` + TableName + ` ORDER BY name`,
	},
}

// Drivers lists the database/sql driver names Open accepts.
func Drivers() []string {
	return []string{"sqlite3", "mysql", "pgx"}
}

// PoolSettings defines database connection pool configuration
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolSettings returns the pool settings used by Open.
func DefaultPoolSettings(driver string) PoolSettings {
	if driver == "sqlite3" {
		// every connection to ":memory:" is a separate database
		return PoolSettings{MaxOpenConns: 1, MaxIdleConns: 1}
	}

	return PoolSettings{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// SQL is a Store persisting identifiers as (name, kind, content) rows.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to a database and creates the identifier table when missing.
func Open(ctx context.Context, driver, dsn string) (*SQL, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	pool := DefaultPoolSettings(driver)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	s, err := New(ctx, db, driver)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return s, nil
}

// New wraps an open database and creates the identifier table when missing.
func New(ctx context.Context, db *sql.DB, driver string) (*SQL, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	if _, err := db.ExecContext(ctx, d.create); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", TableName, err)
	}

	return &SQL{db: db, dialect: d}, nil
}

func (s *SQL) Get(ctx context.Context, name string) (value.Value, error) {
	var kindName, content string

	err := s.db.QueryRowContext(ctx, s.dialect.get, name).Scan(&kindName, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return value.Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if err != nil {
		return value.Value{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	kind, err := value.ParseKind(kindName)
	if err != nil {
		return value.Value{}, fmt.Errorf("stored identifier %s: %w", name, err)
	}

	v, err := value.Parse(kind, content)
	if err != nil {
		return value.Value{}, fmt.Errorf("stored identifier %s: %w", name, err)
	}

	return v, nil
}

func (s *SQL) Set(ctx context.Context, name string, v value.Value) error {
	if err := checkStorable(name, v); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, name, v.Kind().String(), v.String()); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	return nil
}

func (s *SQL) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.names)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to list identifiers: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *SQL) Close() error {
	return s.db.Close()
}

// NormalizeDriver maps common database names to the database/sql driver name
// Open expects.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return "pgx"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "", "memory":
		return "memory"
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

// OpenConfigured opens the store named by a driver and DSN pair; "" and
// "memory" select an in-memory store. Driver aliases are accepted.
func OpenConfigured(ctx context.Context, driver, dsn string) (Store, error) {
	driver = NormalizeDriver(driver)
	if driver == "memory" {
		return NewMemory(), nil
	}

	return Open(ctx, driver, dsn)
}
