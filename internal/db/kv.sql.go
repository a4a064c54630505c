package db

import (
	"context"
	"time"
)

const getEntry = `-- name: GetEntry :one
SELECT namespace, key, value, updated_at FROM kv_entries
WHERE namespace = ? AND key = ?
`

type GetEntryParams struct {
	Namespace string
	Key       string
}

type KvEntry struct {
	Namespace string
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

func (q *Queries) GetEntry(ctx context.Context, arg GetEntryParams) (KvEntry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, arg.Namespace, arg.Key)
	var i KvEntry
	err := row.Scan(
		&i.Namespace,
		&i.Key,
		&i.Value,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertEntry = `-- name: UpsertEntry :exec
INSERT INTO kv_entries (namespace, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at
`

type UpsertEntryParams struct {
	Namespace string
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

func (q *Queries) UpsertEntry(ctx context.Context, arg UpsertEntryParams) error {
	_, err := q.db.ExecContext(ctx, upsertEntry,
		arg.Namespace,
		arg.Key,
		arg.Value,
		arg.UpdatedAt,
	)
	return err
}

const deleteEntry = `-- name: DeleteEntry :exec
DELETE FROM kv_entries WHERE namespace = ? AND key = ?
`

type DeleteEntryParams struct {
	Namespace string
	Key       string
}

func (q *Queries) DeleteEntry(ctx context.Context, arg DeleteEntryParams) error {
	_, err := q.db.ExecContext(ctx, deleteEntry, arg.Namespace, arg.Key)
	return err
}

const listKeys = `-- name: ListKeys :many
SELECT key FROM kv_entries WHERE namespace = ? ORDER BY key
`

func (q *Queries) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listKeys, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
