package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cantinalabs/orderdesk/internal/domain"
	"github.com/cantinalabs/orderdesk/internal/telemetry"
)

// Gateway owns the connection pool and the scoped-transaction boundary every
// service goes through. Construct one at startup, Close it at shutdown.
type Gateway struct {
	db *sql.DB
}

func Open(dsn string) (*Gateway, error) {
	db, err := telemetry.OpenDB("postgres", dsn)
	if err != nil {
		return nil, Classify(err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, Classify(err)
	}

	return &Gateway{db: db}, nil
}

// NewGateway wraps an existing pool, typically one opened by the test
// harness.
func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

// WithinTx runs fn in its own transaction: begin, execute, commit on
// success. Rollback is deferred so the transaction is released on every exit
// path, including panics.
func (g *Gateway) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return Classify(err)
	}
	return nil
}

// Postgres error classes and codes the taxonomy distinguishes.
const (
	pqClassConnection    = "08"
	pqClassIntegrity     = "23"
	codeUniqueViolation  = "23505"
	codeSerialization    = "40001"
	codeDeadlockDetected = "40P01"
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
	codeAdminShutdown    = "57P01"
)

// Classify maps a driver error onto the domain error taxonomy. Errors that
// already carry a domain sentinel pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrConstraintViolation) ||
		errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeUniqueViolation,
			pqErr.Code == codeSerialization,
			pqErr.Code == codeDeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
		case pqErr.Code.Class() == pqClassIntegrity:
			return fmt.Errorf("%w: %s", domain.ErrConstraintViolation, pqErr.Message)
		case pqErr.Code == codeLockNotAvailable,
			pqErr.Code == codeQueryCanceled,
			pqErr.Code == codeAdminShutdown,
			pqErr.Code.Class() == pqClassConnection:
			return fmt.Errorf("%w: %s", domain.ErrStorageUnavailable, pqErr.Message)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
