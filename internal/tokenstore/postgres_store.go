package tokenstore

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore はPostgreSQLの client_state テーブルに値を保存するStore実装。
// テーブルは database.RunMigrations で作成される。
type PostgresStore struct {
	db  *sql.DB
	key string
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB, key string) *PostgresStore {
	return &PostgresStore{db: db, key: key}
}

// Save は値をアップサートする。
func (s *PostgresStore) Save(ctx context.Context, value string) error {
	if value == "" {
		return ErrEmptyValue
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save client state: %w", err)
	}
	return nil
}

// Read は保存された値を返す。
func (s *PostgresStore) Read(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE key = $1`,
		s.key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read client state: %w", err)
	}
	return value, true, nil
}

// Clear は値を削除する。
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE key = $1`,
		s.key,
	)
	if err != nil {
		return fmt.Errorf("failed to clear client state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
