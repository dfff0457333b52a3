package users

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/cantinalabs/orderdesk/internal/domain"
	"github.com/cantinalabs/orderdesk/internal/storage"
)

type UserRepository struct {
	gw     *storage.Gateway
	logger *slog.Logger
}

func NewUserRepository(gw *storage.Gateway, logger *slog.Logger) *UserRepository {
	return &UserRepository{gw: gw, logger: logger}
}

// GetOrCreate returns the user with the given id, creating it with an empty
// description when absent. Idempotent: once the user exists the name
// argument is ignored, and the read path does not touch updated_at. The
// returned snapshot is detached; mutating it changes nothing.
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, name string) (domain.UserSnapshot, error) {
	var snap domain.UserSnapshot

	err := r.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		found, err := selectUser(ctx, tx, id, &snap)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		// ON CONFLICT DO NOTHING absorbs a concurrent create of the same
		// id; the re-select below reads whichever insert won.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, name, description, created_at, updated_at)
			VALUES ($1, $2, '', now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, name)
		if err != nil {
			return storage.Classify(err)
		}

		found, err = selectUser(ctx, tx, id, &snap)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to get or create user", "error", err, "user_id", id)
		return domain.UserSnapshot{}, err
	}

	return snap, nil
}

func selectUser(ctx context.Context, tx *sql.Tx, id int64, snap *domain.UserSnapshot) (bool, error) {
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM users
		WHERE id = $1
	`, id).Scan(&snap.ID, &snap.Name, &snap.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, storage.Classify(err)
	}
	return true, nil
}
