package pgkv

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM kv_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select slot")
	}
	return value, true, nil
}

func (s *Storage) Write(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO kv_slots (key, value, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`, key, value)
	return errors.Wrap(err, "upsert slot")
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM kv_slots WHERE key = $1`, key)
	return errors.Wrap(err, "delete slot")
}
