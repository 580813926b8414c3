package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/civicconnect/civicconnect-services/db/migrations"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record conflicts with current state")
	ErrInvalidOTP = errors.New("invalid or expired verification code")
)

// uniqueViolation is the postgres error code for unique_violation.
const uniqueViolation = "23505"

type CivicDB struct {
	DB  *sql.DB
	Log *zerolog.Logger
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewCivicDB opens and pings the database.
func NewCivicDB(driver, source string, log *zerolog.Logger) (*CivicDB, error) {
	if source == "" {
		log.Error().Msg("database source is not configured")
		return nil, fmt.Errorf("database source is not configured")
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Database connection failed during ping")
		return nil, err
	}

	return NewCivicDBFromConn(db, log), nil
}

// NewCivicDBFromConn wraps an open connection.
func NewCivicDBFromConn(db *sql.DB, log *zerolog.Logger) *CivicDB {
	return &CivicDB{DB: db, Log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (c *CivicDB) Close() error {
	if err := c.DB.Close(); err != nil {
		return err
	}
	c.Log.Info().Msg("database connection closed")
	return nil
}

// Ping reports whether the database is reachable.
func (c *CivicDB) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Migrate runs the embedded goose migrations.
func (c *CivicDB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("error setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, c.DB, "."); err != nil {
		return fmt.Errorf("error applying migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, c.DB)
	if err != nil {
		return fmt.Errorf("error reading migration version: %w", err)
	}
	c.Log.Info().Int64("version", version).Msg("Database migrated")
	return nil
}

// inTx runs fn in a transaction, committing on success.
func (c *CivicDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if c.DB == nil {
		return fmt.Errorf("database connection is not established")
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.Log.Error().Err(rbErr).Msg("error rolling back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func (c *CivicDB) execQuery(ctx context.Context, q querier, query string, args ...interface{}) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// translate maps unique violations onto ErrConflict.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

func nullableID(id int64) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// where accumulates SQL conditions and their positional arguments.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	s := " WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		s += " AND " + c
	}
	return s
}

// next returns the placeholder index for the following argument.
func (w *where) next() int {
	return len(w.args) + 1
}
