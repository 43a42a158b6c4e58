// internal/db/refs.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/estrellaangel/VolleyTech/internal/identity"
)

// pqUniqueViolation is the postgres SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// RefStore persists identity.ExternalPlayerRef rows. Each link value is
// unique per source, enforced by the 000002 migration.
type RefStore struct {
	db      *DB
	queries *Queries
}

func NewRefStore(database *DB) *RefStore {
	return &RefStore{db: database, queries: database.Queries}
}

// InTx runs fn against a RefStore bound to one transaction.
func (s *RefStore) InTx(ctx context.Context, fn func(identity.RefStore) error) error {
	return s.db.RunInTx(ctx, func(tx *DB) error {
		return fn(NewRefStore(tx))
	})
}

func (s *RefStore) FindRefsByExternalID(ctx context.Context, source identity.Source, externalPlayerID string) ([]identity.ExternalPlayerRef, error) {
	rows, err := s.queries.ListExternalPlayerRefsByExternalID(ctx, string(source), externalPlayerID)
	if err != nil {
		return nil, err
	}
	return refsFromDB(rows)
}

func (s *RefStore) FindRefsByExternalKey(ctx context.Context, source identity.Source, externalKey string) ([]identity.ExternalPlayerRef, error) {
	rows, err := s.queries.ListExternalPlayerRefsByExternalKey(ctx, string(source), externalKey)
	if err != nil {
		return nil, err
	}
	return refsFromDB(rows)
}

// RefsForPlayer lists every vendor link recorded for an internal player.
func (s *RefStore) RefsForPlayer(ctx context.Context, playerID string) ([]identity.ExternalPlayerRef, error) {
	rows, err := s.queries.ListExternalPlayerRefsByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return refsFromDB(rows)
}

func (s *RefStore) CreateRef(ctx context.Context, ref identity.ExternalPlayerRef) (identity.ExternalPlayerRef, error) {
	params := CreateExternalPlayerRefParams{
		PlayerID:              ref.PlayerID,
		Source:                string(ref.Source),
		DisplayNameFromSource: nullString(ref.DisplayNameFromSource),
		Notes:                 nullString(ref.Notes),
		CreatedAt:             time.Now().UTC(),
	}
	if ref.LastMatchedAt != nil {
		params.LastMatchedAt = sql.NullTime{Time: *ref.LastMatchedAt, Valid: true}
	}

	switch link := ref.Link.(type) {
	case identity.IDLink:
		params.LinkKind = string(identity.LinkKindID)
		params.ExternalPlayerID = nullString(link.ExternalPlayerID)
	case identity.IdentityLink:
		params.LinkKind = string(identity.LinkKindIdentity)
		params.ExternalKey = nullString(link.ExternalKey)
		params.FullNameNormalized = nullString(link.Identity.FullNameNormalized)
		params.TeamLabel = nullString(link.Identity.TeamLabel)
		params.SeasonLabel = nullString(link.Identity.SeasonLabel)
		if link.Identity.JerseyNumber != nil {
			params.JerseyNumber = sql.NullInt64{Int64: int64(*link.Identity.JerseyNumber), Valid: true}
		}
	default:
		return identity.ExternalPlayerRef{}, fmt.Errorf("%w: unsupported link type %T", identity.ErrInvalidLink, ref.Link)
	}

	id, err := s.queries.CreateExternalPlayerRef(ctx, params)
	if isUniqueViolation(err) {
		return identity.ExternalPlayerRef{}, fmt.Errorf("%w: %v", identity.ErrKeyConflict, err)
	}
	if err != nil {
		return identity.ExternalPlayerRef{}, err
	}
	ref.ID = id
	return ref, nil
}

func (s *RefStore) TouchRef(ctx context.Context, id int64, matchedAt time.Time) error {
	n, err := s.queries.TouchExternalPlayerRef(ctx, id, matchedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("external player ref %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func refsFromDB(rows []ExternalPlayerRef) ([]identity.ExternalPlayerRef, error) {
	refs := make([]identity.ExternalPlayerRef, 0, len(rows))
	for _, row := range rows {
		ref, err := refFromDB(row)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func refFromDB(row ExternalPlayerRef) (identity.ExternalPlayerRef, error) {
	ref := identity.ExternalPlayerRef{
		ID:                    row.ID,
		PlayerID:              row.PlayerID,
		Source:                identity.Source(row.Source),
		DisplayNameFromSource: row.DisplayNameFromSource.String,
		Notes:                 row.Notes.String,
	}
	if row.LastMatchedAt.Valid {
		matched := row.LastMatchedAt.Time
		ref.LastMatchedAt = &matched
	}

	switch identity.LinkKind(row.LinkKind) {
	case identity.LinkKindID:
		ref.Link = identity.IDLink{ExternalPlayerID: row.ExternalPlayerID.String}
	case identity.LinkKindIdentity:
		link := identity.IdentityLink{
			ExternalKey: row.ExternalKey.String,
			Identity: identity.Identity{
				FullNameNormalized: row.FullNameNormalized.String,
				TeamLabel:          row.TeamLabel.String,
				SeasonLabel:        row.SeasonLabel.String,
			},
		}
		if row.JerseyNumber.Valid {
			jersey := int(row.JerseyNumber.Int64)
			link.Identity.JerseyNumber = &jersey
		}
		ref.Link = link
	default:
		return identity.ExternalPlayerRef{}, fmt.Errorf("%w: ref %d has kind %q", identity.ErrInvalidLink, row.ID, row.LinkKind)
	}
	return ref, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
