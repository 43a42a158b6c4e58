// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect selects placeholder style and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the repository. Statements are written with
// `?` placeholders and rebound for postgres.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func NewQueries(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

func (q *Queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const getKVEntry = `
SELECT entry_value FROM kv_entries WHERE entry_key = ?
`

// GetKVEntry returns sql.ErrNoRows when key is absent.
func (q *Queries) GetKVEntry(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, q.rebind(getKVEntry), key).Scan(&value)
	return value, err
}

const upsertKVEntry = `
INSERT INTO kv_entries (entry_key, entry_value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (entry_key) DO UPDATE SET
    entry_value = excluded.entry_value,
    updated_at = excluded.updated_at
`

type UpsertKVEntryParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertKVEntry(ctx context.Context, arg UpsertKVEntryParams) error {
	_, err := q.db.ExecContext(ctx, q.rebind(upsertKVEntry), arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const insertKVEntryIfAbsent = `
INSERT INTO kv_entries (entry_key, entry_value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (entry_key) DO NOTHING
`

// InsertKVEntryIfAbsent returns the number of rows written (0 or 1).
func (q *Queries) InsertKVEntryIfAbsent(ctx context.Context, arg UpsertKVEntryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, q.rebind(insertKVEntryIfAbsent), arg.Key, arg.Value, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const externalPlayerRefColumns = `
id, player_id, source, link_kind, external_player_id, external_key,
full_name_normalized, jersey_number, team_label, season_label,
display_name_from_source, last_matched_at, notes, created_at
`

const listExternalPlayerRefsByExternalID = `
SELECT ` + externalPlayerRefColumns + `
FROM external_player_refs
WHERE source = ? AND link_kind = 'id' AND external_player_id = ?
ORDER BY id
`

func (q *Queries) ListExternalPlayerRefsByExternalID(ctx context.Context, source, externalPlayerID string) ([]ExternalPlayerRef, error) {
	return q.listExternalPlayerRefs(ctx, listExternalPlayerRefsByExternalID, source, externalPlayerID)
}

const listExternalPlayerRefsByExternalKey = `
SELECT ` + externalPlayerRefColumns + `
FROM external_player_refs
WHERE source = ? AND link_kind = 'identity' AND external_key = ?
ORDER BY id
`

func (q *Queries) ListExternalPlayerRefsByExternalKey(ctx context.Context, source, externalKey string) ([]ExternalPlayerRef, error) {
	return q.listExternalPlayerRefs(ctx, listExternalPlayerRefsByExternalKey, source, externalKey)
}

const listExternalPlayerRefsByPlayer = `
SELECT ` + externalPlayerRefColumns + `
FROM external_player_refs
WHERE player_id = ?
ORDER BY id
`

func (q *Queries) ListExternalPlayerRefsByPlayer(ctx context.Context, playerID string) ([]ExternalPlayerRef, error) {
	return q.listExternalPlayerRefs(ctx, listExternalPlayerRefsByPlayer, playerID)
}

func (q *Queries) listExternalPlayerRefs(ctx context.Context, query string, args ...interface{}) ([]ExternalPlayerRef, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ExternalPlayerRef
	for rows.Next() {
		var i ExternalPlayerRef
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.Source,
			&i.LinkKind,
			&i.ExternalPlayerID,
			&i.ExternalKey,
			&i.FullNameNormalized,
			&i.JerseyNumber,
			&i.TeamLabel,
			&i.SeasonLabel,
			&i.DisplayNameFromSource,
			&i.LastMatchedAt,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExternalPlayerRef = `
INSERT INTO external_player_refs (
    player_id, source, link_kind, external_player_id, external_key,
    full_name_normalized, jersey_number, team_label, season_label,
    display_name_from_source, last_matched_at, notes, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateExternalPlayerRefParams struct {
	PlayerID              string
	Source                string
	LinkKind              string
	ExternalPlayerID      sql.NullString
	ExternalKey           sql.NullString
	FullNameNormalized    sql.NullString
	JerseyNumber          sql.NullInt64
	TeamLabel             sql.NullString
	SeasonLabel           sql.NullString
	DisplayNameFromSource sql.NullString
	LastMatchedAt         sql.NullTime
	Notes                 sql.NullString
	CreatedAt             time.Time
}

func (q *Queries) CreateExternalPlayerRef(ctx context.Context, arg CreateExternalPlayerRefParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, q.rebind(createExternalPlayerRef),
		arg.PlayerID,
		arg.Source,
		arg.LinkKind,
		arg.ExternalPlayerID,
		arg.ExternalKey,
		arg.FullNameNormalized,
		arg.JerseyNumber,
		arg.TeamLabel,
		arg.SeasonLabel,
		arg.DisplayNameFromSource,
		arg.LastMatchedAt,
		arg.Notes,
		arg.CreatedAt,
	).Scan(&id)
	return id, err
}

const touchExternalPlayerRef = `
UPDATE external_player_refs SET last_matched_at = ? WHERE id = ?
`

func (q *Queries) TouchExternalPlayerRef(ctx context.Context, id int64, matchedAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, q.rebind(touchExternalPlayerRef), matchedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countExternalPlayerRefs = `
SELECT COUNT(*) FROM external_player_refs
`

func (q *Queries) CountExternalPlayerRefs(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countExternalPlayerRefs).Scan(&count)
	return count, err
}
