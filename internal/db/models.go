// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

type ExternalPlayerRef struct {
	ID                    int64
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
