package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL driver and schema.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Options configures Open.
type Options struct {
	Dialect         Dialect
	DSN             string // file path for sqlite, connection string for postgres
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration // sqlite only
	Logger          *slog.Logger
}

// DB wraps the database connection and provides transactional access to the ledger.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewDB opens a SQLite database at dbPath and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	return Open(context.Background(), Options{Dialect: DialectSQLite, DSN: dbPath})
}

// Open creates a new database connection and initializes the schema.
func Open(ctx context.Context, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		conn *sql.DB
		err  error
	)
	switch opts.Dialect {
	case DialectSQLite, "":
		opts.Dialect = DialectSQLite
		conn, err = sql.Open("sqlite3", sqliteDSN(opts.DSN, opts.BusyTimeout))
	case DialectPostgres:
		conn, err = sql.Open("postgres", opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", opts.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dialect: opts.Dialect, logger: logger}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("database ready", "dialect", string(opts.Dialect))
	return db, nil
}

// sqliteDSN enables foreign keys and WAL, and makes every transaction take the write lock
// up front so concurrent writers queue on the busy timeout instead of failing on upgrade.
func sqliteDSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_journal_mode=WAL&_txlock=immediate&_busy_timeout=" +
		strconv.FormatInt(busyTimeout.Milliseconds(), 10)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect reports which backend is in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema(ctx context.Context) error {
	queries := sqliteSchema
	if db.dialect == DialectPostgres {
		queries = postgresSchema
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// Truncate removes every row. Intended for tests sharing one database.
func (db *DB) Truncate(ctx context.Context) error {
	if db.dialect == DialectPostgres {
		_, err := db.conn.ExecContext(ctx, "TRUNCATE "+strings.Join(Tables(), ", ")+" CASCADE")
		if err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
		return nil
	}
	for _, table := range Tables() {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// Queries returns a query set bound to the connection pool, for reads outside a transaction.
func (db *DB) Queries() *Queries {
	return &Queries{q: db.conn, dialect: db.dialect}
}

// RunInTx executes fn inside a database transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (db *DB) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx, dialect: db.dialect, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the data access methods. Queries are written with ? placeholders and
// rebound for Postgres.
type Queries struct {
	q       querier
	dialect Dialect
	inTx    bool
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.q.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.q.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.q.QueryRowContext(ctx, q.rebind(query), args...)
}

// forUpdate locks the selected row for the rest of the transaction on Postgres. SQLite
// transactions already hold the database write lock.
func (q *Queries) forUpdate() string {
	if q.dialect == DialectPostgres && q.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func (q *Queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	return rebind(query)
}

// rebind rewrites ? placeholders as $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// isForeignKeyViolation reports a broken reference. SQLite raises ON DELETE RESTRICT
// through its trigger machinery, so a blocked delete arrives as a trigger constraint.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintTrigger
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" || pqErr.Code == "23001"
	}
	return false
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
